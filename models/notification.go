package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification holds the structure for the notification collection in mongo.
// Notifications are doctor-facing events (a patient added to monitoring, a
// new medical record referencing the doctor).
type Notification struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	DoctorID  primitive.ObjectID `json:"doctor_id" bson:"doctor_id"`
	Type      string             `json:"type" bson:"type"`
	Message   string             `json:"message" bson:"message"`
	Read      bool               `json:"read" bson:"read"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// Notification types
const (
	NotificationPatientMonitored = "patient_monitored"
	NotificationRecordAdded      = "record_added"
)
