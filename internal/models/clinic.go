// ABOUTME: Clinic resource types: appointments, medical records, update requests
// ABOUTME: Server-owned resources fetched by value, never cached client-side

package models

// Appointment and update request workflow states
const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
	StatusCompleted = "COMPLETED"
)

// Appointment is an entry of /api/appointments/
type Appointment struct {
	ID          int64  `json:"id"`
	Patient     int64  `json:"patient,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
	Doctor      int64  `json:"doctor"`
	DoctorName  string `json:"doctor_name,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Reason      string `json:"reason"`
	Service     string `json:"service,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// AppointmentInput is the body for creating an appointment.
// Date is YYYY-MM-DD and Time is HH:MM:SS.
type AppointmentInput struct {
	Doctor int64  `json:"doctor"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Reason string `json:"reason"`
}

// AppointmentUpdate is the PATCH body for an appointment; empty fields are omitted
type AppointmentUpdate struct {
	Date   string `json:"date,omitempty"`
	Time   string `json:"time,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// PatientRecord is a medical record from /api/patients/record/
type PatientRecord struct {
	ID                 int64  `json:"id"`
	Patient            int64  `json:"patient,omitempty"`
	PatientName        string `json:"patient_name,omitempty"`
	BloodGroup         string `json:"blood_group"`
	Allergies          string `json:"allergies"`
	MedicalHistory     string `json:"medical_history"`
	CurrentMedications string `json:"current_medications"`
	UpdatedAt          string `json:"updated_at,omitempty"`
}

// RecordFields lists the record fields a patient may ask to change
var RecordFields = []string{"blood_group", "allergies", "medical_history", "current_medications"}

// Field returns the value of a record field by its wire name
func (r *PatientRecord) Field(name string) string {
	switch name {
	case "blood_group":
		return r.BloodGroup
	case "allergies":
		return r.Allergies
	case "medical_history":
		return r.MedicalHistory
	case "current_medications":
		return r.CurrentMedications
	default:
		return ""
	}
}

// UpdateRequest is a patient's request to change one field of their record
type UpdateRequest struct {
	ID             int64  `json:"id"`
	Patient        int64  `json:"patient,omitempty"`
	PatientName    string `json:"patient_name,omitempty"`
	FieldName      string `json:"field_name"`
	CurrentValue   string `json:"current_value"`
	RequestedValue string `json:"requested_value"`
	Reason         string `json:"reason"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// UpdateRequestInput is the body of POST /api/patients/updates/
type UpdateRequestInput struct {
	FieldName      string `json:"field_name"`
	CurrentValue   string `json:"current_value"`
	RequestedValue string `json:"requested_value"`
	Reason         string `json:"reason"`
}
