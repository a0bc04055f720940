package insurance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/money"
)

type CompanyRepository interface {
	Create(ctx context.Context, c *Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*Company, error)
	List(ctx context.Context, limit, offset int) ([]*Company, int, error)
}

type PolicyRepository interface {
	Create(ctx context.Context, p *Policy) error
	GetByID(ctx context.Context, id uuid.UUID) (*Policy, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Policy, int, error)
	Cancel(ctx context.Context, id uuid.UUID, version int) error
	// ActiveTotalCoverage sums TotalCoverage over the patient's non-terminal
	// policies as of now.
	ActiveTotalCoverage(ctx context.Context, patientID uuid.UUID, now time.Time) (money.Amount, error)
	// Consume atomically adds total to the policy's TotalCovered and the
	// per-item amounts to each item's Consumed, guarded by the version and by
	// the aggregate ceiling. Returns ErrVersionConflict when the guard fails.
	Consume(ctx context.Context, policyID uuid.UUID, total money.Amount, perItem map[string]money.Amount, version int) error
}
