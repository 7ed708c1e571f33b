package databases

// go generate: mockery --name DoctorDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/neurocare/portal-api/models"
)

const doctorCollection = "doctors"

// DoctorDatabase contains the methods to use with the doctor collection
type DoctorDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Doctor, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Doctor, error)
	InsertOne(ctx context.Context, doctor models.Doctor) (primitive.ObjectID, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
	FindViewByID(ctx context.Context, id primitive.ObjectID) (*models.DoctorView, error)
}

type doctorDatabase struct {
	db DatabaseHelper
}

// NewDoctorDatabase initializes a new instance of doctor database with the provided db connection
func NewDoctorDatabase(db DatabaseHelper) DoctorDatabase {
	return &doctorDatabase{
		db: db,
	}
}

func (d *doctorDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Doctor, error) {
	doctor := &models.Doctor{}
	err := d.db.Collection(doctorCollection).FindOne(ctx, filter).Decode(doctor)
	if err != nil {
		return nil, err
	}
	return doctor, nil
}

func (d *doctorDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Doctor, error) {
	var doctors []models.Doctor
	cur, err := d.db.Collection(doctorCollection).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&doctors)
	if err != nil {
		return nil, err
	}
	return doctors, nil
}

func (d *doctorDatabase) InsertOne(ctx context.Context, doctor models.Doctor) (primitive.ObjectID, error) {
	if doctor.ID.IsZero() {
		doctor.ID = primitive.NewObjectID()
	}
	now := primitive.NewDateTimeFromTime(time.Now())
	doctor.CreatedAt = now
	doctor.UpdatedAt = now
	if doctor.PatientsMonitored == nil {
		doctor.PatientsMonitored = []models.MonitoredPatient{}
	}
	_, err := d.db.Collection(doctorCollection).InsertOne(ctx, doctor)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return doctor.ID, nil
}

func (d *doctorDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return d.db.Collection(doctorCollection).UpdateOne(ctx, filter, update, opts...)
}

func (d *doctorDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return d.db.Collection(doctorCollection).CountDocuments(ctx, filter)
}

// doctorWithPatients is the decode target for the populate pipeline: the
// doctor document inline plus the looked-up patient documents
type doctorWithPatients struct {
	models.Doctor     `bson:",inline"`
	MonitoredPatients []models.PatientInfo `bson:"monitoredPatients"`
}

// FindViewByID returns a doctor with each monitored patient entry expanded
// with the referenced patient's basic fields. Dangling references keep their
// entry but carry no patient details.
func (d *doctorDatabase) FindViewByID(ctx context.Context, id primitive.ObjectID) (*models.DoctorView, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"_id": id}},
		{"$lookup": bson.M{
			"from":         patientCollection,
			"localField":   "patients_monitored.patient_id",
			"foreignField": "_id",
			"as":           "monitoredPatients",
		}},
	}

	cursor, err := d.db.Collection(doctorCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var results []doctorWithPatients
	if err := cursor.Decode(&results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, mongo.ErrNoDocuments
	}

	doc := results[0]
	patientsByID := make(map[primitive.ObjectID]models.PatientInfo, len(doc.MonitoredPatients))
	for _, p := range doc.MonitoredPatients {
		patientsByID[p.ID] = p
	}

	view := &models.DoctorView{
		ID:                doc.ID,
		Name:              doc.Name,
		Specialization:    doc.Specialization,
		Hospital:          doc.Hospital,
		Phone:             doc.Phone,
		Email:             doc.Email,
		Role:              doc.Role,
		PatientsMonitored: make([]models.MonitoredPatientView, 0, len(doc.PatientsMonitored)),
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}
	for _, entry := range doc.PatientsMonitored {
		mv := models.MonitoredPatientView{
			PatientID:        entry.PatientID,
			MedicationsGiven: entry.MedicationsGiven,
		}
		if info, ok := patientsByID[entry.PatientID]; ok {
			infoCopy := info
			mv.Patient = &infoCopy
		}
		view.PatientsMonitored = append(view.PatientsMonitored, mv)
	}
	return view, nil
}
