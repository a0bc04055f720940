package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/insurance"
	"github.com/hms/hms/pkg/money"
)

var (
	ErrNoOpenBill           = errors.New("patient has no open bill")
	ErrDuplicateCharge      = errors.New("bill already has a charge of this kind")
	ErrBillNotOpen          = errors.New("bill no longer accepts charge changes")
	ErrChargesPending       = errors.New("bill has incomplete charges")
	ErrAlreadyFinalized     = errors.New("bill is already finalized")
	ErrBillNotFinalized     = errors.New("bill is not finalized yet")
	ErrBillAlreadyPaid      = errors.New("bill is already paid")
	ErrPaymentMismatch      = errors.New("payment amount does not match total due")
	ErrPolicyAlreadyApplied = errors.New("a policy is already applied to this bill")
	ErrPolicyOwnership      = errors.New("policy does not belong to the bill's patient")
	ErrPolicyNotActive      = errors.New("policy is expired or cancelled")
	ErrVersionConflict      = errors.New("bill was modified concurrently")
)

// PolicyProvider is the slice of the insurance service billing needs to apply
// coverage: load a policy and persist its consumption.
type PolicyProvider interface {
	GetPolicy(ctx context.Context, id uuid.UUID) (*insurance.Policy, error)
	Consume(ctx context.Context, policyID uuid.UUID, total money.Amount, perItem map[string]money.Amount, version int) error
}

// TxRunner executes fn atomically. In production it wraps fn in a database
// transaction shared through the context.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	bills    Repository
	policies PolicyProvider
	tx       TxRunner
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(bills Repository, policies PolicyProvider, tx TxRunner, log zerolog.Logger) *Service {
	if tx == nil {
		tx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{bills: bills, policies: policies, tx: tx, log: log, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return s.bills.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Bill, int, error) {
	return s.bills.ListByPatient(ctx, patientID, limit, offset)
}

// RecordCharge posts a billable event onto the patient's open bill, opening
// one if none exists. A second event of a kind already on the bill is
// rejected unless it comes from the same source, in which case the existing
// charge is updated (a reservation's estimate becoming its final cost).
func (s *Service) RecordCharge(ctx context.Context, patientID uuid.UUID, kind ChargeKind, sourceID uuid.UUID, serviceName string, amount money.Amount, complete bool) (*Bill, error) {
	if amount.IsNegative() {
		return nil, ErrInvalidCharge
	}
	if serviceName == "" {
		return nil, fmt.Errorf("service name is required: %w", ErrInvalidCharge)
	}
	if patientID == uuid.Nil || sourceID == uuid.Nil {
		return nil, fmt.Errorf("patient and source ids are required: %w", ErrInvalidCharge)
	}

	var bill *Bill
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		bill, err = s.bills.GetOpenByPatient(ctx, patientID)
		if errors.Is(err, ErrNoOpenBill) {
			bill = &Bill{PatientID: patientID, Status: StatusTreatmentInProgress}
			if err := s.bills.CreateBill(ctx, bill); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if existing := bill.ChargeByKind(kind); existing != nil {
			if existing.SourceID != sourceID {
				return ErrDuplicateCharge
			}
			existing.ServiceName = serviceName
			existing.Amount = amount
			existing.Complete = complete
			if err := s.bills.UpdateCharge(ctx, existing); err != nil {
				return err
			}
		} else {
			ch := Charge{
				BillID:      bill.ID,
				Kind:        kind,
				SourceID:    sourceID,
				ServiceName: serviceName,
				Amount:      amount,
				Complete:    complete,
				Position:    kind.position(),
			}
			if err := s.bills.AddCharge(ctx, &ch); err != nil {
				return err
			}
			bill.Charges = append(bill.Charges, ch)
		}

		return s.recomputeTotals(ctx, bill)
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// CompleteCharge marks the charge recorded from the given source as
// finalized, optionally replacing its amount with the final figure.
func (s *Service) CompleteCharge(ctx context.Context, kind ChargeKind, sourceID uuid.UUID, finalAmount *money.Amount) (*Bill, error) {
	if finalAmount != nil && finalAmount.IsNegative() {
		return nil, ErrInvalidCharge
	}

	var bill *Bill
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		bill, err = s.bills.GetOpenBySource(ctx, kind, sourceID)
		if errors.Is(err, ErrNoOpenBill) {
			return ErrBillNotOpen
		} else if err != nil {
			return err
		}

		ch := bill.ChargeByKind(kind)
		if ch == nil || ch.SourceID != sourceID {
			return ErrBillNotOpen
		}
		if finalAmount != nil {
			ch.Amount = *finalAmount
		}
		ch.Complete = true
		if err := s.bills.UpdateCharge(ctx, ch); err != nil {
			return err
		}
		return s.recomputeTotals(ctx, bill)
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

func (s *Service) recomputeTotals(ctx context.Context, bill *Bill) error {
	subtotal, err := Aggregate(bill.Charges)
	if err != nil {
		return err
	}
	bill.Subtotal = subtotal
	bill.TotalDue = subtotal
	if err := s.bills.UpdateTotals(ctx, bill.ID, bill.Subtotal, bill.TotalDue, bill.VersionID); err != nil {
		return err
	}
	bill.VersionID++
	return nil
}

// Finalize moves the bill to UNPAID once every linked charge source reports
// complete. The subtotal is fixed from this point.
func (s *Service) Finalize(ctx context.Context, billID uuid.UUID) (*Bill, error) {
	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	switch bill.Status {
	case StatusUnpaid:
		return nil, ErrAlreadyFinalized
	case StatusPaid:
		return nil, ErrBillAlreadyPaid
	}
	if len(bill.Charges) == 0 || !bill.AllChargesComplete() {
		return nil, ErrChargesPending
	}
	if err := s.bills.Finalize(ctx, billID, bill.VersionID); err != nil {
		return nil, err
	}
	bill.Status = StatusUnpaid
	bill.VersionID++
	return bill, nil
}

// ApplyPolicy resolves the policy's coverage against the bill and persists
// the bill update and the policy consumption atomically. The whole operation
// either commits or leaves both entities untouched.
func (s *Service) ApplyPolicy(ctx context.Context, billID, policyID uuid.UUID) (*Bill, error) {
	var bill *Bill
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		bill, err = s.bills.GetByID(ctx, billID)
		if err != nil {
			return err
		}
		if bill.PolicyID != nil {
			return ErrPolicyAlreadyApplied
		}
		switch bill.Status {
		case StatusTreatmentInProgress:
			return ErrBillNotFinalized
		case StatusPaid:
			return ErrBillAlreadyPaid
		}

		policy, err := s.policies.GetPolicy(ctx, policyID)
		if err != nil {
			return err
		}
		if policy.PatientID != bill.PatientID {
			return ErrPolicyOwnership
		}
		if !policy.IsActive(s.now()) {
			return ErrPolicyNotActive
		}

		res := ResolveCoverage(bill.Charges, policy)

		totalDue := bill.Subtotal - res.CoveredAmount
		if totalDue.IsNegative() {
			s.log.Warn().
				Str("bill_id", bill.ID.String()).
				Str("policy_id", policy.ID.String()).
				Int64("subtotal", int64(bill.Subtotal)).
				Int64("covered", int64(res.CoveredAmount)).
				Msg("computed coverage exceeds subtotal, clamping total due to zero")
			totalDue = 0
		}

		if err := s.bills.ApplyCoverage(ctx, bill.ID, policy.ID, res.CoveredAmount, totalDue, res.PerCharge, bill.VersionID); err != nil {
			return err
		}
		if res.CoveredAmount > 0 {
			if err := s.policies.Consume(ctx, policy.ID, res.CoveredAmount, res.PerItem, policy.VersionID); err != nil {
				return err
			}
		}

		pid := policy.ID
		bill.PolicyID = &pid
		bill.CoveredAmount = res.CoveredAmount
		bill.TotalDue = totalDue
		bill.VersionID++
		for i := range bill.Charges {
			bill.Charges[i].Covered = res.PerCharge[bill.Charges[i].ID]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// Pay settles the bill. The paid amount must equal TotalDue exactly; partial
// payments are not supported.
func (s *Service) Pay(ctx context.Context, billID uuid.UUID, amount money.Amount) (*Bill, error) {
	var bill *Bill
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		bill, err = s.bills.GetByID(ctx, billID)
		if err != nil {
			return err
		}
		switch bill.Status {
		case StatusTreatmentInProgress:
			return ErrBillNotFinalized
		case StatusPaid:
			return ErrBillAlreadyPaid
		}
		if amount != bill.TotalDue {
			return ErrPaymentMismatch
		}
		if err := s.bills.Pay(ctx, bill.ID, bill.VersionID); err != nil {
			return err
		}
		bill.Status = StatusPaid
		bill.VersionID++
		now := s.now()
		bill.PaidAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// -- charge recorder facade used by the scheduling, pharmacy and rooms
// services; each posts its own kind of charge.

func (s *Service) RecordAppointmentCharge(ctx context.Context, patientID, appointmentID uuid.UUID, serviceName string, fee money.Amount) error {
	_, err := s.RecordCharge(ctx, patientID, ChargeAppointment, appointmentID, serviceName, fee, true)
	return err
}

func (s *Service) RecordPrescriptionCharge(ctx context.Context, patientID, prescriptionID uuid.UUID, serviceName string, cost money.Amount) error {
	_, err := s.RecordCharge(ctx, patientID, ChargePrescription, prescriptionID, serviceName, cost, false)
	return err
}

func (s *Service) CompletePrescriptionCharge(ctx context.Context, prescriptionID uuid.UUID) error {
	_, err := s.CompleteCharge(ctx, ChargePrescription, prescriptionID, nil)
	return err
}

func (s *Service) CancelPrescriptionCharge(ctx context.Context, prescriptionID uuid.UUID) error {
	zero := money.Amount(0)
	_, err := s.CompleteCharge(ctx, ChargePrescription, prescriptionID, &zero)
	return err
}

func (s *Service) RecordReservationCharge(ctx context.Context, patientID, reservationID uuid.UUID, serviceName string, estimate money.Amount) error {
	_, err := s.RecordCharge(ctx, patientID, ChargeReservation, reservationID, serviceName, estimate, false)
	return err
}

func (s *Service) FinalizeReservationCharge(ctx context.Context, reservationID uuid.UUID, finalCost money.Amount) error {
	_, err := s.CompleteCharge(ctx, ChargeReservation, reservationID, &finalCost)
	return err
}
