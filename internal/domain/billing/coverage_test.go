package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/insurance"
	"github.com/hms/hms/pkg/money"
)

func TestAggregate_ExactSum(t *testing.T) {
	charges := []Charge{
		{Kind: ChargeAppointment, Amount: 500_000},
		{Kind: ChargePrescription, Amount: 200_000},
	}
	subtotal, err := Aggregate(charges)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subtotal != 700_000 {
		t.Errorf("expected subtotal 700000, got %d", subtotal)
	}
}

func TestAggregate_Empty(t *testing.T) {
	subtotal, err := Aggregate(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subtotal != 0 {
		t.Errorf("expected zero subtotal, got %d", subtotal)
	}
}

func TestAggregate_NegativeRejected(t *testing.T) {
	charges := []Charge{
		{Kind: ChargeAppointment, Amount: 500_000},
		{Kind: ChargePrescription, Amount: -1},
	}
	if _, err := Aggregate(charges); err != ErrInvalidCharge {
		t.Errorf("expected ErrInvalidCharge, got %v", err)
	}
}

func testPolicy(items ...insurance.CoverageItem) *insurance.Policy {
	var total money.Amount
	for _, item := range items {
		total += item.CoverageAmount
	}
	return &insurance.Policy{
		ID:            uuid.New(),
		PatientID:     uuid.New(),
		ExpiryDate:    time.Now().Add(24 * time.Hour),
		TotalCoverage: total,
		Status:        insurance.PolicyActive,
		Items:         items,
		VersionID:     1,
	}
}

// Coverage for a matched charge is min(charge amount, item remaining,
// policy remaining).
func TestResolveCoverage_ItemCeiling(t *testing.T) {
	policy := testPolicy(insurance.CoverageItem{Name: "Consultation", CoverageAmount: 300_000})
	charges := []Charge{
		{ID: uuid.New(), Kind: ChargeAppointment, ServiceName: "Consultation", Amount: 500_000, Position: 1},
		{ID: uuid.New(), Kind: ChargePrescription, ServiceName: "Medication", Amount: 200_000, Position: 2},
	}

	res := ResolveCoverage(charges, policy)
	if res.CoveredAmount != 300_000 {
		t.Errorf("expected covered 300000, got %d", res.CoveredAmount)
	}
	if res.PerCharge[charges[0].ID] != 300_000 {
		t.Errorf("expected consultation charge covered 300000, got %d", res.PerCharge[charges[0].ID])
	}
	if _, ok := res.PerCharge[charges[1].ID]; ok {
		t.Error("unmatched charge must receive zero coverage")
	}
}

func TestResolveCoverage_CaseSensitiveMatch(t *testing.T) {
	policy := testPolicy(insurance.CoverageItem{Name: "consultation", CoverageAmount: 300_000})
	charges := []Charge{
		{ID: uuid.New(), Kind: ChargeAppointment, ServiceName: "Consultation", Amount: 500_000},
	}
	res := ResolveCoverage(charges, policy)
	if res.CoveredAmount != 0 {
		t.Errorf("expected no coverage for case mismatch, got %d", res.CoveredAmount)
	}
}

// The aggregate ceiling binds across items: with a partially consumed policy,
// charges in insertion order drain what remains.
func TestResolveCoverage_PolicyCeilingAcrossItems(t *testing.T) {
	policy := testPolicy(
		insurance.CoverageItem{Name: "Consultation", CoverageAmount: 400_000},
		insurance.CoverageItem{Name: "Room", CoverageAmount: 400_000},
	)
	policy.TotalCovered = 600_000 // only 200,000 left in aggregate

	charges := []Charge{
		{ID: uuid.New(), Kind: ChargeAppointment, ServiceName: "Consultation", Amount: 150_000, Position: 1},
		{ID: uuid.New(), Kind: ChargeReservation, ServiceName: "Room", Amount: 300_000, Position: 3},
	}

	res := ResolveCoverage(charges, policy)
	if res.CoveredAmount != 200_000 {
		t.Errorf("expected covered 200000, got %d", res.CoveredAmount)
	}
	if res.PerCharge[charges[0].ID] != 150_000 {
		t.Errorf("expected first charge fully covered, got %d", res.PerCharge[charges[0].ID])
	}
	if res.PerCharge[charges[1].ID] != 50_000 {
		t.Errorf("expected second charge covered 50000, got %d", res.PerCharge[charges[1].ID])
	}
}

func TestResolveCoverage_ConsumedItemGivesNothing(t *testing.T) {
	policy := testPolicy(insurance.CoverageItem{Name: "Consultation", CoverageAmount: 300_000, Consumed: 300_000})
	policy.TotalCovered = 300_000

	charges := []Charge{
		{ID: uuid.New(), Kind: ChargeAppointment, ServiceName: "Consultation", Amount: 100_000},
	}
	res := ResolveCoverage(charges, policy)
	if res.CoveredAmount != 0 {
		t.Errorf("expected zero coverage from exhausted item, got %d", res.CoveredAmount)
	}
}
