package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/neurocare/portal-api/api"
	"github.com/neurocare/portal-api/config"
	"github.com/neurocare/portal-api/databases"
	"github.com/neurocare/portal-api/models"
)

// Patient represents the patient handler
type Patient struct {
	DB  databases.PatientDatabase
	DDB databases.DoctorDatabase
}

type createPatientRequest struct {
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DoctorID string `json:"doctor_id,omitempty"`
}

// CreatePatientHandler creates a patient document
func (p Patient) CreatePatientHandler(w http.ResponseWriter, r *http.Request) {
	var req createPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Gender == "" || req.Phone == "" ||
		req.Email == "" || req.Address == "" || req.Password == "" {
		config.ErrorStatus("missing required fields", http.StatusBadRequest, w,
			errors.New("name, age, gender, phone, email, address and password are required"))
		return
	}
	if req.Age < 0 {
		config.ErrorStatus("invalid age", http.StatusBadRequest, w,
			errors.New("age must be zero or greater"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	count, err := p.DB.CountDocuments(ctx, bson.M{"email": req.Email})
	if err != nil {
		config.ErrorStatus("failed to check existing patients", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("patient already exists", http.StatusBadRequest, w,
			fmt.Errorf("email %s is taken", req.Email))
		return
	}

	patient := models.Patient{
		Name:    req.Name,
		Age:     req.Age,
		Gender:  req.Gender,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
		Role:    models.RolePatient,
	}

	if req.DoctorID != "" {
		dID, err := primitive.ObjectIDFromHex(req.DoctorID)
		if err != nil {
			config.ErrorStatus("invalid doctor ID", http.StatusBadRequest, w, err)
			return
		}
		doctorCount, err := p.DDB.CountDocuments(ctx, bson.M{"_id": dID})
		if err != nil {
			config.ErrorStatus("failed to look up doctor", http.StatusInternalServerError, w, err)
			return
		}
		if doctorCount == 0 {
			config.ErrorStatus("doctor not found", http.StatusNotFound, w,
				fmt.Errorf("no doctor with ID %s", dID.Hex()))
			return
		}
		patient.DoctorID = &dID
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}
	patient.Password = string(hashed)

	oid, err := p.DB.InsertOne(ctx, patient)
	if err != nil {
		config.ErrorStatus("failed to create patient", http.StatusInternalServerError, w, err)
		return
	}
	patient.ID = oid
	patient.MedicalRecords = []models.MedicalRecord{}

	b, err := json.Marshal(patient)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// PatientByIDHandler returns a patient with doctor references expanded
func (p Patient) PatientByIDHandler(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["patient_id"]

	pID, err := primitive.ObjectIDFromHex(patientID)
	if err != nil {
		config.ErrorStatus("invalid patient ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	view, err := p.DB.FindViewByID(ctx, pID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("patient not found", http.StatusNotFound, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to retrieve patient data", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(view)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateMedicalRecordsHandler replaces a patient's medical record list.
// Every record is validated before anything is written, and every doctor
// reference must resolve to an existing doctor.
func (p Patient) UpdateMedicalRecordsHandler(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["patient_id"]

	pID, err := primitive.ObjectIDFromHex(patientID)
	if err != nil {
		config.ErrorStatus("invalid patient ID", http.StatusBadRequest, w, err)
		return
	}

	var reqRecords []models.MedicalRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&reqRecords); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	records := make([]models.MedicalRecord, 0, len(reqRecords))
	doctorIDs := make(map[primitive.ObjectID]struct{})
	for i, req := range reqRecords {
		record, err := toMedicalRecord(req)
		if err != nil {
			config.ErrorStatus(fmt.Sprintf("invalid medical record at index %d", i),
				http.StatusBadRequest, w, err)
			return
		}
		doctorIDs[record.DoctorID] = struct{}{}
		records = append(records, record)
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	for dID := range doctorIDs {
		count, err := p.DDB.CountDocuments(ctx, bson.M{"_id": dID})
		if err != nil {
			config.ErrorStatus("failed to look up doctor", http.StatusInternalServerError, w, err)
			return
		}
		if count == 0 {
			config.ErrorStatus("doctor not found", http.StatusNotFound, w,
				fmt.Errorf("no doctor with ID %s", dID.Hex()))
			return
		}
	}

	res, err := p.DB.UpdateOne(ctx,
		bson.M{"_id": pID},
		bson.M{"$set": bson.M{
			"medical_records": records,
			"updatedAt":       primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	if err != nil {
		config.ErrorStatus("failed to update medical records", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("patient not found", http.StatusNotFound, w,
			fmt.Errorf("no patient with ID %s", pID.Hex()))
		return
	}

	view, err := p.DB.FindViewByID(ctx, pID)
	if err != nil {
		config.ErrorStatus("failed to retrieve patient data", http.StatusInternalServerError, w, err)
		return
	}
	b, err := json.Marshal(view)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func toMedicalRecord(req models.MedicalRecordRequest) (models.MedicalRecord, error) {
	if req.Condition == "" {
		return models.MedicalRecord{}, errors.New("condition is required")
	}
	if req.Treatment == "" {
		return models.MedicalRecord{}, errors.New("treatment is required")
	}
	if req.DiagnosisDate == "" {
		return models.MedicalRecord{}, errors.New("diagnosis_date is required")
	}
	diagnosisDate, err := models.ParseDate(req.DiagnosisDate)
	if err != nil {
		return models.MedicalRecord{}, err
	}
	dID, err := primitive.ObjectIDFromHex(req.DoctorID)
	if err != nil {
		return models.MedicalRecord{}, fmt.Errorf("invalid doctor_id: %w", err)
	}

	medications := make([]models.Medication, 0, len(req.Medications))
	for _, m := range req.Medications {
		medication, err := m.ToMedication()
		if err != nil {
			return models.MedicalRecord{}, err
		}
		medications = append(medications, medication)
	}

	return models.MedicalRecord{
		Condition:     req.Condition,
		DiagnosisDate: diagnosisDate,
		Treatment:     req.Treatment,
		Medications:   medications,
		DoctorID:      dID,
	}, nil
}
