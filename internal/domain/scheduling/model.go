package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/money"
)

type AppointmentStatus string

const (
	AppointmentBooked    AppointmentStatus = "booked"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Appointment maps to the appointment table. ServiceName is the treatment
// label billing later matches against coverage items; Fee is the consultation
// charge posted on completion.
type Appointment struct {
	ID          uuid.UUID         `db:"id" json:"id"`
	PatientID   uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID    uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	ServiceName string            `db:"service_name" json:"service_name"`
	Fee         money.Amount      `db:"fee" json:"fee"`
	StartTime   time.Time         `db:"start_time" json:"start_time"`
	EndTime     time.Time         `db:"end_time" json:"end_time"`
	Status      AppointmentStatus `db:"status" json:"status"`
	Diagnosis   *string           `db:"diagnosis" json:"diagnosis,omitempty"`
	VersionID   int               `db:"version_id" json:"version_id"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}
