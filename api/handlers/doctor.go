package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/neurocare/portal-api/api"
	"github.com/neurocare/portal-api/config"
	"github.com/neurocare/portal-api/databases"
	"github.com/neurocare/portal-api/models"
)

// Doctor represents the doctor handler
type Doctor struct {
	DB  databases.DoctorDatabase
	PDB databases.PatientDatabase
	NDB databases.NotificationDatabase
	Hub *NotificationHub
}

type createDoctorRequest struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Hospital       string `json:"hospital"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Password       string `json:"password"`
}

// CreateDoctorHandler creates a doctor document
func (d Doctor) CreateDoctorHandler(w http.ResponseWriter, r *http.Request) {
	var req createDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Specialization == "" || req.Hospital == "" ||
		req.Phone == "" || req.Email == "" || req.Password == "" {
		config.ErrorStatus("missing required fields", http.StatusBadRequest, w,
			errors.New("name, specialization, hospital, phone, email and password are required"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	count, err := d.DB.CountDocuments(ctx, bson.M{"email": req.Email})
	if err != nil {
		config.ErrorStatus("failed to check existing doctors", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("doctor already exists", http.StatusBadRequest, w,
			fmt.Errorf("email %s is taken", req.Email))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	doctor := models.Doctor{
		Name:           req.Name,
		Specialization: req.Specialization,
		Hospital:       req.Hospital,
		Phone:          req.Phone,
		Email:          req.Email,
		Password:       string(hashed),
		Role:           models.RoleDoctor,
	}
	oid, err := d.DB.InsertOne(ctx, doctor)
	if err != nil {
		config.ErrorStatus("failed to create doctor", http.StatusInternalServerError, w, err)
		return
	}
	doctor.ID = oid
	doctor.PatientsMonitored = []models.MonitoredPatient{}

	b, err := json.Marshal(doctor)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// DoctorByIDHandler returns a doctor with monitored patients expanded
func (d Doctor) DoctorByIDHandler(w http.ResponseWriter, r *http.Request) {
	doctorID := mux.Vars(r)["doctor_id"]

	dID, err := primitive.ObjectIDFromHex(doctorID)
	if err != nil {
		config.ErrorStatus("invalid doctor ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	view, err := d.DB.FindViewByID(ctx, dID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("doctor not found", http.StatusNotFound, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to retrieve doctor data", http.StatusInternalServerError, w, err)
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

// MonitorPatientHandler puts a patient under a doctor's monitoring with an
// initial medication, or appends the medication if the patient is already
// monitored. Both appends are single atomic document updates.
func (d Doctor) MonitorPatientHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	dID, err := primitive.ObjectIDFromHex(vars["doctor_id"])
	if err != nil {
		config.ErrorStatus("invalid doctor ID", http.StatusBadRequest, w, err)
		return
	}
	pID, err := primitive.ObjectIDFromHex(vars["patient_id"])
	if err != nil {
		config.ErrorStatus("invalid patient ID", http.StatusBadRequest, w, err)
		return
	}

	var medReq models.MedicationRequest
	if err := json.NewDecoder(r.Body).Decode(&medReq); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	medication, err := medReq.ToMedication()
	if err != nil {
		config.ErrorStatus("invalid medication", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	patientCount, err := d.PDB.CountDocuments(ctx, bson.M{"_id": pID})
	if err != nil {
		config.ErrorStatus("failed to look up patient", http.StatusInternalServerError, w, err)
		return
	}
	if patientCount == 0 {
		config.ErrorStatus("patient not found", http.StatusNotFound, w,
			fmt.Errorf("no patient with ID %s", pID.Hex()))
		return
	}

	// Append to the existing monitored entry when there is one. The
	// positional filter only matches doctors already monitoring this patient,
	// so a zero match count means either an unknown doctor or a first-time
	// monitor; the fallback push distinguishes the two.
	res, err := d.DB.UpdateOne(ctx,
		bson.M{"_id": dID, "patients_monitored.patient_id": pID},
		bson.M{"$push": bson.M{"patients_monitored.$.medications_given": medication}},
	)
	if err != nil {
		config.ErrorStatus("failed to add medication", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		res, err = d.DB.UpdateOne(ctx,
			bson.M{"_id": dID},
			bson.M{"$push": bson.M{"patients_monitored": models.MonitoredPatient{
				PatientID:        pID,
				MedicationsGiven: []models.Medication{medication},
			}}},
		)
		if err != nil {
			config.ErrorStatus("failed to monitor patient", http.StatusInternalServerError, w, err)
			return
		}
		if res.MatchedCount == 0 {
			config.ErrorStatus("doctor not found", http.StatusNotFound, w,
				fmt.Errorf("no doctor with ID %s", dID.Hex()))
			return
		}
	}

	d.notify(dID, models.NotificationPatientMonitored,
		fmt.Sprintf("Medication %s recorded for patient %s", medication.Name, pID.Hex()))

	view, err := d.DB.FindViewByID(ctx, dID)
	if err != nil {
		config.ErrorStatus("failed to retrieve doctor data", http.StatusInternalServerError, w, err)
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

// MonitoredPatientsHandler lists a doctor's monitored patients with the
// referenced patients' basic fields expanded
func (d Doctor) MonitoredPatientsHandler(w http.ResponseWriter, r *http.Request) {
	doctorID := mux.Vars(r)["doctor_id"]

	dID, err := primitive.ObjectIDFromHex(doctorID)
	if err != nil {
		config.ErrorStatus("invalid doctor ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	view, err := d.DB.FindViewByID(ctx, dID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("doctor not found", http.StatusNotFound, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to retrieve monitored patients", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(view.PatientsMonitored)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// NotificationsHandler lists a doctor's notifications, newest first
func (d Doctor) NotificationsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	doctorID := mux.Vars(r)["doctor_id"]

	dID, err := primitive.ObjectIDFromHex(doctorID)
	if err != nil {
		config.ErrorStatus("invalid doctor ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	notifications, err := d.NDB.Find(ctx, bson.M{"doctor_id": dID},
		options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		config.ErrorStatus("failed to retrieve notifications", http.StatusInternalServerError, w, err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(notifications)
}

// MarkNotificationReadHandler marks a single notification as read
func (d Doctor) MarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	dID, err := primitive.ObjectIDFromHex(vars["doctor_id"])
	if err != nil {
		config.ErrorStatus("invalid doctor ID", http.StatusBadRequest, w, err)
		return
	}
	nID, err := primitive.ObjectIDFromHex(vars["notification_id"])
	if err != nil {
		config.ErrorStatus("invalid notification ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := d.NDB.UpdateOne(ctx,
		bson.M{"_id": nID, "doctor_id": dID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		config.ErrorStatus("failed to update notification", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("notification not found", http.StatusNotFound, w,
			fmt.Errorf("no notification %s for doctor %s", nID.Hex(), dID.Hex()))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Notification marked as read",
	})
}

// notify persists a doctor notification and pushes it over the websocket
// hub. Failures are logged only; notification delivery never fails the
// request that triggered it.
func (d Doctor) notify(doctorID primitive.ObjectID, notifType, message string) {
	notification := models.Notification{
		DoctorID: doctorID,
		Type:     notifType,
		Message:  message,
	}
	ctx, cancel := api.WithQueryTimeout(nil)
	defer cancel()
	if _, err := d.NDB.InsertOne(ctx, notification); err != nil {
		zap.S().Errorw("failed to persist notification",
			"doctorId", doctorID.Hex(),
			"type", notifType,
			"error", err)
		return
	}
	if d.Hub != nil {
		d.Hub.Push(doctorID.Hex(), notification)
	}
}
