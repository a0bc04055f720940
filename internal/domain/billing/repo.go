package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/money"
)

type Repository interface {
	CreateBill(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	// GetOpenByPatient returns the patient's bill in TREATMENT_IN_PROGRESS,
	// or ErrNoOpenBill.
	GetOpenByPatient(ctx context.Context, patientID uuid.UUID) (*Bill, error)
	// GetOpenBySource returns the open bill holding the charge recorded from
	// the given source, or ErrNoOpenBill.
	GetOpenBySource(ctx context.Context, kind ChargeKind, sourceID uuid.UUID) (*Bill, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Bill, int, error)

	AddCharge(ctx context.Context, ch *Charge) error
	UpdateCharge(ctx context.Context, ch *Charge) error
	// UpdateTotals rewrites subtotal and total_due under an optimistic
	// version guard, only while the bill is open.
	UpdateTotals(ctx context.Context, billID uuid.UUID, subtotal, totalDue money.Amount, version int) error

	// Finalize moves TREATMENT_IN_PROGRESS -> UNPAID under the version guard.
	Finalize(ctx context.Context, billID uuid.UUID, version int) error
	// ApplyCoverage attaches the policy and writes covered amounts, guarded
	// by version, UNPAID status, and an unset policy_id; zero rows affected
	// means a concurrent application won.
	ApplyCoverage(ctx context.Context, billID, policyID uuid.UUID, covered, totalDue money.Amount, perCharge map[uuid.UUID]money.Amount, version int) error
	// Pay moves UNPAID -> PAID under the version guard.
	Pay(ctx context.Context, billID uuid.UUID, version int) error
}
