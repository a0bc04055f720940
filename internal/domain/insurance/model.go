package insurance

import (
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/money"
)

// Company maps to the insurance_company table.
type Company struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PolicyStatus is the lifecycle state of a policy. Expiry is derived from
// ExpiryDate rather than stored, so an active row can still be terminal.
type PolicyStatus string

const (
	PolicyActive    PolicyStatus = "active"
	PolicyCancelled PolicyStatus = "cancelled"
)

// CoverageItem is a named, capped reimbursement category within a policy.
// Consumed tracks how much of the item's ceiling bills have used up.
type CoverageItem struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	PolicyID       uuid.UUID    `db:"policy_id" json:"policy_id"`
	Name           string       `db:"name" json:"name"`
	CoverageAmount money.Amount `db:"coverage_amount" json:"coverage_amount"`
	Consumed       money.Amount `db:"consumed" json:"consumed"`
	Position       int          `db:"position" json:"position"`
}

// Remaining returns the unconsumed portion of the item's ceiling.
func (ci *CoverageItem) Remaining() money.Amount {
	return ci.CoverageAmount - ci.Consumed
}

// Policy maps to the insurance_policy table. TotalCoverage is fixed at
// creation as the sum of the item amounts; TotalCovered only ever grows and
// never exceeds TotalCoverage.
type Policy struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	PatientID     uuid.UUID      `db:"patient_id" json:"patient_id"`
	CompanyID     uuid.UUID      `db:"company_id" json:"company_id"`
	ExpiryDate    time.Time      `db:"expiry_date" json:"expiry_date"`
	TotalCoverage money.Amount   `db:"total_coverage" json:"total_coverage"`
	TotalCovered  money.Amount   `db:"total_covered" json:"total_covered"`
	Status        PolicyStatus   `db:"status" json:"status"`
	Items         []CoverageItem `db:"-" json:"items"`
	VersionID     int            `db:"version_id" json:"version_id"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the policy can still cover charges at the given
// time. Cancelled and expired policies are terminal.
func (p *Policy) IsActive(now time.Time) bool {
	return p.Status == PolicyActive && now.Before(p.ExpiryDate)
}

// Remaining returns the portion of the aggregate ceiling not yet consumed.
func (p *Policy) Remaining() money.Amount {
	return p.TotalCoverage - p.TotalCovered
}

// ItemByName returns the coverage item with the given name, exact and
// case-sensitive, or nil.
func (p *Policy) ItemByName(name string) *CoverageItem {
	for i := range p.Items {
		if p.Items[i].Name == name {
			return &p.Items[i]
		}
	}
	return nil
}
