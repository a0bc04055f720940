package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/money"
)

// ChargeKind identifies which billable event produced a charge. A bill holds
// at most one charge of each kind.
type ChargeKind string

const (
	ChargeAppointment  ChargeKind = "appointment"
	ChargePrescription ChargeKind = "prescription"
	ChargeReservation  ChargeKind = "reservation"
)

// position fixes the charge insertion order on a bill: appointment, then
// prescription, then reservation. Coverage resolution walks charges in this
// order.
func (k ChargeKind) position() int {
	switch k {
	case ChargeAppointment:
		return 1
	case ChargePrescription:
		return 2
	case ChargeReservation:
		return 3
	}
	return 0
}

// Charge maps to the bill_charge table. Complete reports whether the source
// event has been finalized (appointment diagnosed, prescription fulfilled,
// reservation closed); an incomplete charge blocks bill finalization.
type Charge struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	BillID      uuid.UUID    `db:"bill_id" json:"bill_id"`
	Kind        ChargeKind   `db:"kind" json:"kind"`
	SourceID    uuid.UUID    `db:"source_id" json:"source_id"`
	ServiceName string       `db:"service_name" json:"service_name"`
	Amount      money.Amount `db:"amount" json:"amount"`
	Covered     money.Amount `db:"covered" json:"covered"`
	Complete    bool         `db:"complete" json:"complete"`
	Position    int          `db:"position" json:"position"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// BillStatus is the bill lifecycle state.
type BillStatus string

const (
	StatusTreatmentInProgress BillStatus = "treatment_in_progress"
	StatusUnpaid              BillStatus = "unpaid"
	StatusPaid                BillStatus = "paid"
)

// Bill maps to the bill table. Subtotal is the exact sum of charge amounts;
// TotalDue = Subtotal - CoveredAmount, never negative. A bill is immutable
// once paid.
type Bill struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	PatientID     uuid.UUID    `db:"patient_id" json:"patient_id"`
	Charges       []Charge     `db:"-" json:"charges"`
	Subtotal      money.Amount `db:"subtotal" json:"subtotal"`
	PolicyID      *uuid.UUID   `db:"policy_id" json:"policy_id,omitempty"`
	CoveredAmount money.Amount `db:"covered_amount" json:"covered_amount"`
	TotalDue      money.Amount `db:"total_due" json:"total_due"`
	Status        BillStatus   `db:"status" json:"status"`
	VersionID     int          `db:"version_id" json:"version_id"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
	PaidAt        *time.Time   `db:"paid_at" json:"paid_at,omitempty"`
}

// ChargeByKind returns the bill's charge of the given kind, or nil.
func (b *Bill) ChargeByKind(kind ChargeKind) *Charge {
	for i := range b.Charges {
		if b.Charges[i].Kind == kind {
			return &b.Charges[i]
		}
	}
	return nil
}

// AllChargesComplete reports whether every linked charge source is finalized.
func (b *Bill) AllChargesComplete() bool {
	for i := range b.Charges {
		if !b.Charges[i].Complete {
			return false
		}
	}
	return true
}
