package databases

// go generate: mockery --name PatientDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/neurocare/portal-api/models"
)

const patientCollection = "patients"

// PatientDatabase contains the methods to use with the patient collection
type PatientDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Patient, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Patient, error)
	InsertOne(ctx context.Context, patient models.Patient) (primitive.ObjectID, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
	FindViewByID(ctx context.Context, id primitive.ObjectID) (*models.PatientView, error)
}

type patientDatabase struct {
	db DatabaseHelper
}

// NewPatientDatabase initializes a new instance of patient database with the provided db connection
func NewPatientDatabase(db DatabaseHelper) PatientDatabase {
	return &patientDatabase{
		db: db,
	}
}

func (p *patientDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Patient, error) {
	patient := &models.Patient{}
	err := p.db.Collection(patientCollection).FindOne(ctx, filter).Decode(patient)
	if err != nil {
		return nil, err
	}
	return patient, nil
}

func (p *patientDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Patient, error) {
	var patients []models.Patient
	cur, err := p.db.Collection(patientCollection).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&patients)
	if err != nil {
		return nil, err
	}
	return patients, nil
}

func (p *patientDatabase) InsertOne(ctx context.Context, patient models.Patient) (primitive.ObjectID, error) {
	if patient.ID.IsZero() {
		patient.ID = primitive.NewObjectID()
	}
	now := primitive.NewDateTimeFromTime(time.Now())
	patient.CreatedAt = now
	patient.UpdatedAt = now
	if patient.MedicalRecords == nil {
		patient.MedicalRecords = []models.MedicalRecord{}
	}
	_, err := p.db.Collection(patientCollection).InsertOne(ctx, patient)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return patient.ID, nil
}

func (p *patientDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return p.db.Collection(patientCollection).UpdateOne(ctx, filter, update, opts...)
}

func (p *patientDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return p.db.Collection(patientCollection).CountDocuments(ctx, filter)
}

// patientWithDoctors is the decode target for the populate pipeline: the
// patient document inline plus every doctor referenced by the assigned
// doctor field or a medical record
type patientWithDoctors struct {
	models.Patient `bson:",inline"`
	RecordDoctors  []models.DoctorInfo `bson:"recordDoctors"`
	AssignedDoctor []models.DoctorInfo `bson:"assignedDoctor"`
}

// FindViewByID returns a patient with the assigned doctor and each medical
// record's diagnosing doctor expanded
func (p *patientDatabase) FindViewByID(ctx context.Context, id primitive.ObjectID) (*models.PatientView, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"_id": id}},
		{"$lookup": bson.M{
			"from":         doctorCollection,
			"localField":   "medical_records.doctor_id",
			"foreignField": "_id",
			"as":           "recordDoctors",
		}},
		{"$lookup": bson.M{
			"from":         doctorCollection,
			"localField":   "doctor_id",
			"foreignField": "_id",
			"as":           "assignedDoctor",
		}},
	}

	cursor, err := p.db.Collection(patientCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var results []patientWithDoctors
	if err := cursor.Decode(&results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, mongo.ErrNoDocuments
	}

	doc := results[0]
	doctorsByID := make(map[primitive.ObjectID]models.DoctorInfo, len(doc.RecordDoctors))
	for _, d := range doc.RecordDoctors {
		doctorsByID[d.ID] = d
	}

	view := &models.PatientView{
		ID:             doc.ID,
		Name:           doc.Name,
		Age:            doc.Age,
		Gender:         doc.Gender,
		Phone:          doc.Phone,
		Email:          doc.Email,
		Address:        doc.Address,
		Role:           doc.Role,
		MedicalRecords: make([]models.MedicalRecordView, 0, len(doc.MedicalRecords)),
		DoctorID:       doc.DoctorID,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
	if len(doc.AssignedDoctor) > 0 {
		assigned := doc.AssignedDoctor[0]
		view.Doctor = &assigned
	}
	for _, record := range doc.MedicalRecords {
		rv := models.MedicalRecordView{
			Condition:     record.Condition,
			DiagnosisDate: record.DiagnosisDate,
			Treatment:     record.Treatment,
			Medications:   record.Medications,
			DoctorID:      record.DoctorID,
		}
		if info, ok := doctorsByID[record.DoctorID]; ok {
			infoCopy := info
			rv.Doctor = &infoCopy
		}
		view.MedicalRecords = append(view.MedicalRecords, rv)
	}
	return view, nil
}
