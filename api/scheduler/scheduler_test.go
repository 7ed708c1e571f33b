package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/neurocare/portal-api/models"
)

func dt(t time.Time) primitive.DateTime {
	return primitive.NewDateTimeFromTime(t)
}

func dtp(t time.Time) *primitive.DateTime {
	d := primitive.NewDateTimeFromTime(t)
	return &d
}

func TestEndedMedications(t *testing.T) {
	now := time.Date(2026, 3, 15, 6, 0, 0, 0, time.UTC)
	from := dt(now.Add(-sweepWindow))
	to := dt(now)

	patientA := primitive.NewObjectID()
	patientB := primitive.NewObjectID()

	doctor := models.Doctor{
		ID:   primitive.NewObjectID(),
		Name: "Dr. Jane",
		PatientsMonitored: []models.MonitoredPatient{
			{
				PatientID: patientA,
				MedicationsGiven: []models.Medication{
					// ended inside the window
					{Name: "Levodopa", Dosage: "100mg", EndDate: dtp(now.Add(-2 * time.Hour))},
					// open-ended course, never reported
					{Name: "Ropinirole", Dosage: "2mg"},
				},
			},
			{
				PatientID: patientB,
				MedicationsGiven: []models.Medication{
					// ended before the window opened
					{Name: "Amantadine", Dosage: "100mg", EndDate: dtp(now.Add(-48 * time.Hour))},
					// ends in the future
					{Name: "Selegiline", Dosage: "5mg", EndDate: dtp(now.Add(24 * time.Hour))},
				},
			},
		},
	}

	ended := endedMedications(doctor, from, to)

	assert.Len(t, ended, 1)
	assert.Equal(t, patientA, ended[0].PatientID)
	assert.Equal(t, "Levodopa", ended[0].Medication.Name)
}

func TestEndedMedicationsWindowBoundaries(t *testing.T) {
	now := time.Date(2026, 3, 15, 6, 0, 0, 0, time.UTC)
	from := dt(now.Add(-sweepWindow))
	to := dt(now)

	doctor := models.Doctor{
		PatientsMonitored: []models.MonitoredPatient{
			{
				PatientID: primitive.NewObjectID(),
				MedicationsGiven: []models.Medication{
					// window start is inclusive
					{Name: "AtStart", Dosage: "1mg", EndDate: &from},
					// window end is exclusive: this one belongs to the next sweep
					{Name: "AtEnd", Dosage: "1mg", EndDate: &to},
				},
			},
		},
	}

	ended := endedMedications(doctor, from, to)

	assert.Len(t, ended, 1)
	assert.Equal(t, "AtStart", ended[0].Medication.Name)
}

func TestSchedulerStartStop(t *testing.T) {
	s := New(nil, nil)
	s.Start()
	s.Stop()
}
