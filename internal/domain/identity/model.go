package identity

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/money"
)

// Class is the patient's insurance tier. The tier fixes the ceiling on the
// total coverage a patient may hold across active policies.
type Class string

const (
	ClassVIP Class = "vip"
	ClassOne Class = "class_one"
	ClassTwo Class = "class_two"
)

// ParseClass validates a class string against the known tiers.
func ParseClass(s string) (Class, error) {
	switch Class(s) {
	case ClassVIP, ClassOne, ClassTwo:
		return Class(s), nil
	}
	return "", fmt.Errorf("unknown patient class %q", s)
}

// InsuranceLimit returns the tier's insurance ceiling in minor currency units.
func (c Class) InsuranceLimit() money.Amount {
	switch c {
	case ClassVIP:
		return 100_000_000
	case ClassOne:
		return 50_000_000
	case ClassTwo:
		return 25_000_000
	}
	return 0
}

// rank orders the tiers so that class changes can be checked as upgrades.
func (c Class) rank() int {
	switch c {
	case ClassVIP:
		return 3
	case ClassOne:
		return 2
	case ClassTwo:
		return 1
	}
	return 0
}

// Patient maps to the patient table.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	MRN         string     `db:"mrn" json:"mrn"`
	Name        string     `db:"name" json:"name"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	Class       Class      `db:"class" json:"class"`
	VersionID   int        `db:"version_id" json:"version_id"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// InsuranceLimit returns the ceiling implied by the patient's class.
func (p *Patient) InsuranceLimit() money.Amount {
	return p.Class.InsuranceLimit()
}
