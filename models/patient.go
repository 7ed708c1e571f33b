package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RolePatient tags patient accounts in storage and in token claims
const RolePatient = "patient"

// Patient holds the structure for the patient collection in mongo
type Patient struct {
	ID             primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	Name           string              `json:"name" bson:"name"`
	Age            int                 `json:"age" bson:"age"`
	Gender         string              `json:"gender" bson:"gender"`
	Phone          string              `json:"phone" bson:"phone"`
	Email          string              `json:"email" bson:"email"`
	Address        string              `json:"address" bson:"address"`
	Password       string              `json:"-" bson:"password"`
	Role           string              `json:"role" bson:"role"`
	MedicalRecords []MedicalRecord     `json:"medical_records" bson:"medical_records"`
	DoctorID       *primitive.ObjectID `json:"doctor_id,omitempty" bson:"doctor_id,omitempty"`
	CreatedAt      primitive.DateTime  `json:"createdAt" bson:"createdAt"`
	UpdatedAt      primitive.DateTime  `json:"updatedAt" bson:"updatedAt"`
}

// MedicalRecord is an embedded diagnosis entry on a patient. The doctor
// reference must resolve to an existing doctor at write time.
type MedicalRecord struct {
	Condition     string             `json:"condition" bson:"condition"`
	DiagnosisDate primitive.DateTime `json:"diagnosis_date" bson:"diagnosis_date"`
	Treatment     string             `json:"treatment" bson:"treatment"`
	Medications   []Medication       `json:"medications" bson:"medications"`
	DoctorID      primitive.ObjectID `json:"doctor_id" bson:"doctor_id"`
}

// MedicalRecordRequest is the wire shape of a medical record, with dates as
// strings and the doctor reference as a hex ID
type MedicalRecordRequest struct {
	Condition     string              `json:"condition"`
	DiagnosisDate string              `json:"diagnosis_date"`
	Treatment     string              `json:"treatment"`
	Medications   []MedicationRequest `json:"medications"`
	DoctorID      string              `json:"doctor_id"`
}

// MedicalRecordView is a MedicalRecord with the diagnosing doctor joined in
type MedicalRecordView struct {
	Condition     string             `json:"condition"`
	DiagnosisDate primitive.DateTime `json:"diagnosis_date"`
	Treatment     string             `json:"treatment"`
	Medications   []Medication       `json:"medications"`
	DoctorID      primitive.ObjectID `json:"doctor_id"`
	Doctor        *DoctorInfo        `json:"doctor,omitempty"`
}

// PatientView is the read shape of a patient with doctor references expanded
type PatientView struct {
	ID             primitive.ObjectID  `json:"_id"`
	Name           string              `json:"name"`
	Age            int                 `json:"age"`
	Gender         string              `json:"gender"`
	Phone          string              `json:"phone"`
	Email          string              `json:"email"`
	Address        string              `json:"address"`
	Role           string              `json:"role"`
	MedicalRecords []MedicalRecordView `json:"medical_records"`
	DoctorID       *primitive.ObjectID `json:"doctor_id,omitempty"`
	Doctor         *DoctorInfo         `json:"doctor,omitempty"`
	CreatedAt      primitive.DateTime  `json:"createdAt"`
	UpdatedAt      primitive.DateTime  `json:"updatedAt"`
}
