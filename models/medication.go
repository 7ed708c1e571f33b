package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Medication holds a single prescribed medication embedded in a monitored
// patient entry or a medical record. It has no identity of its own and lives
// and dies with its parent array entry.
type Medication struct {
	Name      string              `json:"name" bson:"medication_name"`
	Dosage    string              `json:"dosage" bson:"dosage"`
	StartDate primitive.DateTime  `json:"start_date" bson:"start_date"`
	EndDate   *primitive.DateTime `json:"end_date,omitempty" bson:"end_date,omitempty"`
}

// MedicationRequest is the wire shape for a medication, with dates as strings
type MedicationRequest struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
}

// dateLayouts are the accepted input formats, checked in order. Date-only
// inputs normalize to midnight UTC.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
}

// ParseDate normalizes a date string to a mongo datetime
func ParseDate(value string) (primitive.DateTime, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return primitive.NewDateTimeFromTime(t.UTC()), nil
		}
	}
	return 0, fmt.Errorf("unrecognized date format: %q", value)
}

// ToMedication validates the request and converts it to the persisted shape
func (m MedicationRequest) ToMedication() (Medication, error) {
	if m.Name == "" {
		return Medication{}, fmt.Errorf("medication name is required")
	}
	if m.Dosage == "" {
		return Medication{}, fmt.Errorf("medication dosage is required")
	}
	if m.StartDate == "" {
		return Medication{}, fmt.Errorf("medication start_date is required")
	}
	start, err := ParseDate(m.StartDate)
	if err != nil {
		return Medication{}, err
	}
	med := Medication{
		Name:      m.Name,
		Dosage:    m.Dosage,
		StartDate: start,
	}
	if m.EndDate != "" {
		end, err := ParseDate(m.EndDate)
		if err != nil {
			return Medication{}, err
		}
		med.EndDate = &end
	}
	return med, nil
}
