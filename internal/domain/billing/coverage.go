package billing

import (
	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/insurance"
	"github.com/hms/hms/pkg/money"
)

// CoverageResult is the outcome of resolving a policy against a bill's
// charges. PerCharge is the display breakdown; PerItem is what each coverage
// item consumed, keyed by item name, for the policy-side bookkeeping.
type CoverageResult struct {
	CoveredAmount money.Amount
	PerCharge     map[uuid.UUID]money.Amount
	PerItem       map[string]money.Amount
}

// ResolveCoverage determines how much of each charge the policy covers.
// Charges match coverage items by exact, case-sensitive service name; a
// charge with no matching item stays fully billed to the patient. Charges are
// walked in insertion order, and each covered amount is
// min(charge amount, item remaining, policy remaining), so no item exceeds
// its ceiling and the policy aggregate ceiling holds even across items.
// Pure; persisting the consumption is the caller's job.
func ResolveCoverage(charges []Charge, policy *insurance.Policy) CoverageResult {
	res := CoverageResult{
		PerCharge: make(map[uuid.UUID]money.Amount),
		PerItem:   make(map[string]money.Amount),
	}

	policyRemaining := policy.Remaining()
	itemRemaining := make(map[string]money.Amount, len(policy.Items))
	for i := range policy.Items {
		itemRemaining[policy.Items[i].Name] = policy.Items[i].Remaining()
	}

	for i := range charges {
		ch := &charges[i]
		if policy.ItemByName(ch.ServiceName) == nil {
			continue
		}
		covered := money.Min(ch.Amount, money.Min(itemRemaining[ch.ServiceName], policyRemaining))
		if covered <= 0 {
			continue
		}
		res.PerCharge[ch.ID] = covered
		res.PerItem[ch.ServiceName] += covered
		res.CoveredAmount += covered
		itemRemaining[ch.ServiceName] -= covered
		policyRemaining -= covered
	}

	return res
}
