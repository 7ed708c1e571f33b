package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoleDoctor tags doctor accounts in storage and in token claims
const RoleDoctor = "doctor"

// Doctor holds the structure for the doctor collection in mongo
type Doctor struct {
	ID                primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name              string             `json:"name" bson:"name"`
	Specialization    string             `json:"specialization" bson:"specialization"`
	Hospital          string             `json:"hospital" bson:"hospital"`
	Phone             string             `json:"phone" bson:"phone"`
	Email             string             `json:"email" bson:"email"`
	Password          string             `json:"-" bson:"password"`
	Role              string             `json:"role" bson:"role"`
	PatientsMonitored []MonitoredPatient `json:"patients_monitored" bson:"patients_monitored"`
	CreatedAt         primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt         primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// MonitoredPatient is an embedded entry on a doctor linking a patient under
// monitoring with the medications this doctor has given them
type MonitoredPatient struct {
	PatientID        primitive.ObjectID `json:"patient_id" bson:"patient_id"`
	MedicationsGiven []Medication       `json:"medications_given" bson:"medications_given"`
}

// PatientInfo carries the basic patient fields expanded into monitored
// patient listings for display
type PatientInfo struct {
	ID    primitive.ObjectID `json:"_id" bson:"_id"`
	Name  string             `json:"name" bson:"name"`
	Email string             `json:"email" bson:"email"`
	Age   int                `json:"age" bson:"age"`
}

// MonitoredPatientView is a MonitoredPatient with the referenced patient's
// basic fields joined in
type MonitoredPatientView struct {
	PatientID        primitive.ObjectID `json:"patient_id"`
	Patient          *PatientInfo       `json:"patient,omitempty"`
	MedicationsGiven []Medication       `json:"medications_given"`
}

// DoctorView is the read shape of a doctor with monitored patients expanded
type DoctorView struct {
	ID                primitive.ObjectID     `json:"_id"`
	Name              string                 `json:"name"`
	Specialization    string                 `json:"specialization"`
	Hospital          string                 `json:"hospital"`
	Phone             string                 `json:"phone"`
	Email             string                 `json:"email"`
	Role              string                 `json:"role"`
	PatientsMonitored []MonitoredPatientView `json:"patients_monitored"`
	CreatedAt         primitive.DateTime     `json:"createdAt"`
	UpdatedAt         primitive.DateTime     `json:"updatedAt"`
}

// DoctorInfo carries the doctor fields expanded into patient reads
type DoctorInfo struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id"`
	Name           string             `json:"name" bson:"name"`
	Specialization string             `json:"specialization" bson:"specialization"`
	Hospital       string             `json:"hospital" bson:"hospital"`
	Email          string             `json:"email" bson:"email"`
}
