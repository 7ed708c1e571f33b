package scheduler

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/neurocare/portal-api/databases"
	"github.com/neurocare/portal-api/models"
	templates "github.com/neurocare/portal-api/templates/html"
)

// sweepWindow is how far back the daily sweep looks for medication courses
// that have run out. Matching the run interval keeps each course reported
// exactly once.
const sweepWindow = 24 * time.Hour

// Scheduler handles periodic background jobs for medication monitoring
type Scheduler struct {
	cron *cron.Cron
	DDB  databases.DoctorDatabase
	PDB  databases.PatientDatabase
}

// New creates a new scheduler instance
func New(ddb databases.DoctorDatabase, pdb databases.PatientDatabase) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		DDB:  ddb,
		PDB:  pdb,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Sweep finished medication courses daily at 6 AM UTC
	_, err := s.cron.AddFunc("0 6 * * *", s.sweepEndedMedications)
	if err != nil {
		zap.S().Errorw("failed to register medication sweep job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("medication scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("medication scheduler stopped")
}

// sweepEndedMedications finds monitored medications whose course ended in
// the last day and emails each doctor a summary
func (s *Scheduler) sweepEndedMedications() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := time.Now().UTC()
	windowStart := primitive.NewDateTimeFromTime(now.Add(-sweepWindow))
	windowEnd := primitive.NewDateTimeFromTime(now)

	doctors, err := s.DDB.Find(ctx, bson.M{
		"patients_monitored.medications_given.end_date": bson.M{
			"$gte": windowStart,
			"$lt":  windowEnd,
		},
	})
	if err != nil {
		zap.S().Errorw("medication sweep query failed", "error", err)
		return
	}

	for _, doctor := range doctors {
		ended := endedMedications(doctor, windowStart, windowEnd)
		if len(ended) == 0 {
			continue
		}
		zap.S().Infow("medication courses ended",
			"doctorId", doctor.ID.Hex(),
			"count", len(ended))
		if err := s.sendSummaryEmail(doctor, ended); err != nil {
			zap.S().Errorw("failed to send medication summary",
				"doctorId", doctor.ID.Hex(),
				"error", err)
		}
	}
}

type endedMedication struct {
	PatientID  primitive.ObjectID
	Medication models.Medication
}

func endedMedications(doctor models.Doctor, from, to primitive.DateTime) []endedMedication {
	var ended []endedMedication
	for _, entry := range doctor.PatientsMonitored {
		for _, med := range entry.MedicationsGiven {
			if med.EndDate == nil {
				continue
			}
			if *med.EndDate >= from && *med.EndDate < to {
				ended = append(ended, endedMedication{
					PatientID:  entry.PatientID,
					Medication: med,
				})
			}
		}
	}
	return ended
}

func (s *Scheduler) sendSummaryEmail(doctor models.Doctor, ended []endedMedication) error {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		zap.S().Debug("SENDGRID_API_KEY not set, skipping medication summary email")
		return nil
	}

	var lines []string
	for _, e := range ended {
		lines = append(lines, fmt.Sprintf("Patient %s: %s (%s) course has ended.",
			e.PatientID.Hex(), e.Medication.Name, e.Medication.Dosage))
	}
	body := fmt.Sprintf("Dr. %s,\n\nThe following medication courses ended in the last day:\n\n%s\n\nPlease review whether a follow-up prescription is needed.",
		doctor.Name, strings.Join(lines, "\n"))

	from := mail.NewEmail("NeuroCare Portal", "no-reply@neurocare-portal.com")
	subject := "Medication courses ended"
	to := mail.NewEmail(doctor.Name, doctor.Email)
	message := mail.NewSingleEmail(from, subject, to, body, templates.RenderGenericEmail(subject, body))

	client := sendgrid.NewSendClient(apiKey)
	resp, err := client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid responded with status %d", resp.StatusCode)
	}
	return nil
}
