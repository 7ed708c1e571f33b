package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/neurocare/portal-api/api"
	"github.com/neurocare/portal-api/api/scheduler"
	"github.com/neurocare/portal-api/config"
	"github.com/neurocare/portal-api/databases"
	"github.com/neurocare/portal-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	m := api.Middleware{Secret: []byte(a.Config.JWTSecret)}
	hub := NewNotificationHub()

	doctorDB := databases.NewDoctorDatabase(a.dbHelper)
	patientDB := databases.NewPatientDatabase(a.dbHelper)
	notificationDB := databases.NewNotificationDatabase(a.dbHelper)

	auth := Auth{DDB: doctorDB, PDB: patientDB, Secret: []byte(a.Config.JWTSecret)}
	d := Doctor{DB: doctorDB, PDB: patientDB, NDB: notificationDB, Hub: hub}
	p := Patient{DB: patientDB, DDB: doctorDB}
	scan := Scan{}
	inference := NewInference(a.Config.AIServiceURL)

	r := mux.NewRouter()
	r.Use(api.RequestID)

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	// bound above the AI proxy's own 60s client timeout; the websocket
	// route stays outside this subrouter on purpose
	apiCreate.Use(api.TimeoutMiddleware(90 * time.Second))

	apiCreate.Handle("/auth/signup", http.HandlerFunc(auth.SignupHandler)).Methods("POST")
	apiCreate.Handle("/auth/signin", http.HandlerFunc(auth.SigninHandler)).Methods("POST")

	apiCreate.Handle("/doctors", http.HandlerFunc(d.CreateDoctorHandler)).Methods("POST")
	apiCreate.Handle("/doctors/{doctor_id}", m.Authenticate(http.HandlerFunc(d.DoctorByIDHandler))).Methods("GET")
	apiCreate.Handle("/doctors/{doctor_id}/patients", m.Authenticate(http.HandlerFunc(d.MonitoredPatientsHandler))).Methods("GET")
	apiCreate.Handle("/doctors/{doctor_id}/patients/{patient_id}/monitor", m.Authenticate(http.HandlerFunc(d.MonitorPatientHandler))).Methods("POST")
	apiCreate.Handle("/doctors/{doctor_id}/notifications", m.Authenticate(http.HandlerFunc(d.NotificationsHandler))).Methods("GET")
	apiCreate.Handle("/doctors/{doctor_id}/notifications/{notification_id}/read", m.Authenticate(http.HandlerFunc(d.MarkNotificationReadHandler))).Methods("PUT")

	apiCreate.Handle("/patients", http.HandlerFunc(p.CreatePatientHandler)).Methods("POST")
	apiCreate.Handle("/patients/{patient_id}", m.Authenticate(http.HandlerFunc(p.PatientByIDHandler))).Methods("GET")
	apiCreate.Handle("/patients/{patient_id}/medical-records", m.Authenticate(http.HandlerFunc(p.UpdateMedicalRecordsHandler))).Methods("PUT")

	apiCreate.Handle("/scans/signature", m.Authenticate(http.HandlerFunc(scan.GenerateSignatureHandler))).Methods("POST")
	apiCreate.Handle("/scans/analyze", m.Authenticate(http.HandlerFunc(inference.AnalyzeScanHandler))).Methods("POST")
	apiCreate.Handle("/reports/generate", m.Authenticate(http.HandlerFunc(inference.GenerateReportHandler))).Methods("POST")

	r.HandleFunc("/ws/notifications", hub.ServeWS)

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("portal-api has connected to the database")

	a.Scheduler = scheduler.New(
		databases.NewDoctorDatabase(a.dbHelper),
		databases.NewPatientDatabase(a.dbHelper),
	)
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
