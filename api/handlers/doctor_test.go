package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/neurocare/portal-api/api/handlers"
	mocksdb "github.com/neurocare/portal-api/databases/mocks"
	"github.com/neurocare/portal-api/models"
)

func TestDoctor_DoctorByIDHandlerInvalidID(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/doctors/1234", nil)
	req = mux.SetURLVars(req, map[string]string{"doctor_id": "1234"})
	rr := httptest.NewRecorder()

	d := handlers.Doctor{}
	http.HandlerFunc(d.DoctorByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid doctor ID")
}

func TestDoctor_DoctorByIDHandlerNotFound(t *testing.T) {
	oid := primitive.NewObjectID()

	ddb := mocksdb.NewDoctorDatabase(t)
	ddb.On("FindViewByID", mock.Anything, oid).Return(nil, mongo.ErrNoDocuments)

	req := httptest.NewRequest("GET", "/api/v1/doctors/"+oid.Hex(), nil)
	req = mux.SetURLVars(req, map[string]string{"doctor_id": oid.Hex()})
	rr := httptest.NewRecorder()

	d := handlers.Doctor{DB: ddb}
	http.HandlerFunc(d.DoctorByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "doctor not found")
}

func TestDoctor_DoctorByIDHandlerSuccess(t *testing.T) {
	oid := primitive.NewObjectID()
	view := &models.DoctorView{ID: oid, Name: "Dr. Jane", Role: models.RoleDoctor}

	ddb := mocksdb.NewDoctorDatabase(t)
	ddb.On("FindViewByID", mock.Anything, oid).Return(view, nil)

	req := httptest.NewRequest("GET", "/api/v1/doctors/"+oid.Hex(), nil)
	req = mux.SetURLVars(req, map[string]string{"doctor_id": oid.Hex()})
	rr := httptest.NewRecorder()

	d := handlers.Doctor{DB: ddb}
	http.HandlerFunc(d.DoctorByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Dr. Jane")
	// hashes never leave the API
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestDoctor_MonitorPatientHandlerPatientNotFound(t *testing.T) {
	dID := primitive.NewObjectID()
	pID := primitive.NewObjectID()

	pdb := mocksdb.NewPatientDatabase(t)
	pdb.On("CountDocuments", mock.Anything, bson.M{"_id": pID}).Return(int64(0), nil)

	body := `{"name": "Levodopa", "dosage": "100mg", "start_date": "2026-01-10"}`
	req := httptest.NewRequest("POST", "/api/v1/doctors/"+dID.Hex()+"/patients/"+pID.Hex()+"/monitor", bytes.NewBufferString(body))
	req = mux.SetURLVars(req, map[string]string{"doctor_id": dID.Hex(), "patient_id": pID.Hex()})
	rr := httptest.NewRecorder()

	d := handlers.Doctor{PDB: pdb}
	http.HandlerFunc(d.MonitorPatientHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "patient not found")
}

func TestDoctor_MonitorPatientHandlerInvalidMedication(t *testing.T) {
	dID := primitive.NewObjectID()
	pID := primitive.NewObjectID()

	body := `{"name": "", "dosage": "100mg", "start_date": "2026-01-10"}`
	req := httptest.NewRequest("POST", "/api/v1/doctors/"+dID.Hex()+"/patients/"+pID.Hex()+"/monitor", bytes.NewBufferString(body))
	req = mux.SetURLVars(req, map[string]string{"doctor_id": dID.Hex(), "patient_id": pID.Hex()})
	rr := httptest.NewRecorder()

	d := handlers.Doctor{}
	http.HandlerFunc(d.MonitorPatientHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid medication")
}

func TestDoctor_MonitorPatientHandlerAppendsToExistingEntry(t *testing.T) {
	dID := primitive.NewObjectID()
	pID := primitive.NewObjectID()

	pdb := mocksdb.NewPatientDatabase(t)
	pdb.On("CountDocuments", mock.Anything, bson.M{"_id": pID}).Return(int64(1), nil)

	ddb := mocksdb.NewDoctorDatabase(t)
	// positional filter matches: the medication lands in the existing entry
	// and no second push happens
	ddb.On("UpdateOne", mock.Anything,
		bson.M{"_id": dID, "patients_monitored.patient_id": pID},
		mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil).Once()
	ddb.On("FindViewByID", mock.Anything, dID).Return(&models.DoctorView{ID: dID, Name: "Dr. Jane"}, nil)

	ndb := mocksdb.NewNotificationDatabase(t)
	ndb.On("InsertOne", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.DoctorID == dID && n.Type == models.NotificationPatientMonitored
	})).Return(primitive.NewObjectID(), nil)

	body := `{"name": "Levodopa", "dosage": "100mg", "start_date": "2026-01-10"}`
	req := httptest.NewRequest("POST", "/api/v1/doctors/"+dID.Hex()+"/patients/"+pID.Hex()+"/monitor", bytes.NewBufferString(body))
	req = mux.SetURLVars(req, map[string]string{"doctor_id": dID.Hex(), "patient_id": pID.Hex()})
	rr := httptest.NewRecorder()

	d := handlers.Doctor{DB: ddb, PDB: pdb, NDB: ndb}
	http.HandlerFunc(d.MonitorPatientHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	ddb.AssertNumberOfCalls(t, "UpdateOne", 1)
}

func TestDoctor_MonitorPatientHandlerFirstTimeMonitor(t *testing.T) {
	dID := primitive.NewObjectID()
	pID := primitive.NewObjectID()

	pdb := mocksdb.NewPatientDatabase(t)
	pdb.On("CountDocuments", mock.Anything, bson.M{"_id": pID}).Return(int64(1), nil)

	ddb := mocksdb.NewDoctorDatabase(t)
	// no existing entry, so the positional update misses and a fresh
	// monitored entry is pushed instead
	ddb.On("UpdateOne", mock.Anything,
		bson.M{"_id": dID, "patients_monitored.patient_id": pID},
		mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 0}, nil).Once()
	ddb.On("UpdateOne", mock.Anything,
		bson.M{"_id": dID},
		mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil).Once()
	ddb.On("FindViewByID", mock.Anything, dID).Return(&models.DoctorView{ID: dID, Name: "Dr. Jane"}, nil)

	ndb := mocksdb.NewNotificationDatabase(t)
	ndb.On("InsertOne", mock.Anything, mock.Anything).Return(primitive.NewObjectID(), nil)

	body := `{"name": "Levodopa", "dosage": "100mg", "start_date": "2026-01-10"}`
	req := httptest.NewRequest("POST", "/api/v1/doctors/"+dID.Hex()+"/patients/"+pID.Hex()+"/monitor", bytes.NewBufferString(body))
	req = mux.SetURLVars(req, map[string]string{"doctor_id": dID.Hex(), "patient_id": pID.Hex()})
	rr := httptest.NewRecorder()

	d := handlers.Doctor{DB: ddb, PDB: pdb, NDB: ndb}
	http.HandlerFunc(d.MonitorPatientHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	ddb.AssertNumberOfCalls(t, "UpdateOne", 2)
}

func TestDoctor_MonitorPatientHandlerUnknownDoctor(t *testing.T) {
	dID := primitive.NewObjectID()
	pID := primitive.NewObjectID()

	pdb := mocksdb.NewPatientDatabase(t)
	pdb.On("CountDocuments", mock.Anything, bson.M{"_id": pID}).Return(int64(1), nil)

	ddb := mocksdb.NewDoctorDatabase(t)
	ddb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 0}, nil).Twice()

	body := `{"name": "Levodopa", "dosage": "100mg", "start_date": "2026-01-10"}`
	req := httptest.NewRequest("POST", "/api/v1/doctors/"+dID.Hex()+"/patients/"+pID.Hex()+"/monitor", bytes.NewBufferString(body))
	req = mux.SetURLVars(req, map[string]string{"doctor_id": dID.Hex(), "patient_id": pID.Hex()})
	rr := httptest.NewRecorder()

	d := handlers.Doctor{DB: ddb, PDB: pdb}
	http.HandlerFunc(d.MonitorPatientHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "doctor not found")
}

func TestDoctor_NotificationsHandlerEmptyList(t *testing.T) {
	dID := primitive.NewObjectID()

	ndb := mocksdb.NewNotificationDatabase(t)
	ndb.On("Find", mock.Anything, bson.M{"doctor_id": dID}, mock.Anything).
		Return(nil, nil)

	req := httptest.NewRequest("GET", "/api/v1/doctors/"+dID.Hex()+"/notifications", nil)
	req = mux.SetURLVars(req, map[string]string{"doctor_id": dID.Hex()})
	rr := httptest.NewRecorder()

	d := handlers.Doctor{NDB: ndb}
	http.HandlerFunc(d.NotificationsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	// an empty list renders as [], not null
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestDoctor_MarkNotificationReadHandlerNotFound(t *testing.T) {
	dID := primitive.NewObjectID()
	nID := primitive.NewObjectID()

	ndb := mocksdb.NewNotificationDatabase(t)
	ndb.On("UpdateOne", mock.Anything,
		bson.M{"_id": nID, "doctor_id": dID},
		mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 0}, nil)

	req := httptest.NewRequest("PUT", "/api/v1/doctors/"+dID.Hex()+"/notifications/"+nID.Hex()+"/read", nil)
	req = mux.SetURLVars(req, map[string]string{"doctor_id": dID.Hex(), "notification_id": nID.Hex()})
	rr := httptest.NewRecorder()

	d := handlers.Doctor{NDB: ndb}
	http.HandlerFunc(d.MarkNotificationReadHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDoctor_MarkNotificationReadHandlerSuccess(t *testing.T) {
	dID := primitive.NewObjectID()
	nID := primitive.NewObjectID()

	ndb := mocksdb.NewNotificationDatabase(t)
	ndb.On("UpdateOne", mock.Anything,
		bson.M{"_id": nID, "doctor_id": dID},
		mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)

	req := httptest.NewRequest("PUT", "/api/v1/doctors/"+dID.Hex()+"/notifications/"+nID.Hex()+"/read", nil)
	req = mux.SetURLVars(req, map[string]string{"doctor_id": dID.Hex(), "notification_id": nID.Hex()})
	rr := httptest.NewRecorder()

	d := handlers.Doctor{NDB: ndb}
	http.HandlerFunc(d.MarkNotificationReadHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Notification marked as read", resp["message"])
}
