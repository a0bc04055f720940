package pharmacy

import (
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/money"
)

// Medicine maps to the medicine table. Stock is decremented when a
// prescription is fulfilled, never when it is written.
type Medicine struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	Stock     int          `db:"stock" json:"stock"`
	UnitPrice money.Amount `db:"unit_price" json:"unit_price"`
	VersionID int          `db:"version_id" json:"version_id"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

type PrescriptionStatus string

const (
	PrescriptionPending   PrescriptionStatus = "pending"
	PrescriptionFulfilled PrescriptionStatus = "fulfilled"
	PrescriptionCancelled PrescriptionStatus = "cancelled"
)

// PrescriptionLine maps to the prescription_line table. UnitPrice is frozen
// at prescription time so later price changes do not move the bill.
type PrescriptionLine struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	PrescriptionID uuid.UUID    `db:"prescription_id" json:"prescription_id"`
	MedicineID     uuid.UUID    `db:"medicine_id" json:"medicine_id"`
	Quantity       int          `db:"quantity" json:"quantity"`
	UnitPrice      money.Amount `db:"unit_price" json:"unit_price"`
}

// Cost returns the exact line cost in minor units.
func (l *PrescriptionLine) Cost() money.Amount {
	return l.UnitPrice * money.Amount(l.Quantity)
}

// Prescription maps to the prescription table.
type Prescription struct {
	ID            uuid.UUID          `db:"id" json:"id"`
	PatientID     uuid.UUID          `db:"patient_id" json:"patient_id"`
	AppointmentID *uuid.UUID         `db:"appointment_id" json:"appointment_id,omitempty"`
	Lines         []PrescriptionLine `db:"-" json:"lines"`
	Cost          money.Amount       `db:"cost" json:"cost"`
	Status        PrescriptionStatus `db:"status" json:"status"`
	VersionID     int                `db:"version_id" json:"version_id"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`
}
