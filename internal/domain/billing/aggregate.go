package billing

import (
	"errors"

	"github.com/hms/hms/pkg/money"
)

// ErrInvalidCharge rejects malformed charges, negative amounts in particular.
var ErrInvalidCharge = errors.New("charge amount must be non-negative")

// Aggregate computes a bill's subtotal as the exact minor-unit sum of its
// charge amounts. Pure; the caller decides when to persist the result.
func Aggregate(charges []Charge) (money.Amount, error) {
	var subtotal money.Amount
	for i := range charges {
		if charges[i].Amount.IsNegative() {
			return 0, ErrInvalidCharge
		}
		subtotal += charges[i].Amount
	}
	return subtotal, nil
}
