package pharmacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/money"
)

var (
	ErrInsufficientStock = errors.New("not enough stock to fulfill prescription")
	ErrNotPending        = errors.New("prescription is not pending")
)

// medicationService is the charge label bills match against coverage items.
const medicationService = "Medication"

// ChargeRecorder posts the prescription cost onto the patient's bill. The
// charge starts incomplete and is completed when the prescription is
// fulfilled at the pharmacy counter.
type ChargeRecorder interface {
	RecordPrescriptionCharge(ctx context.Context, patientID, prescriptionID uuid.UUID, serviceName string, cost money.Amount) error
	CompletePrescriptionCharge(ctx context.Context, prescriptionID uuid.UUID) error
	CancelPrescriptionCharge(ctx context.Context, prescriptionID uuid.UUID) error
}

// TxRunner executes fn atomically.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	medicines     MedicineRepository
	prescriptions PrescriptionRepository
	charges       ChargeRecorder
	tx            TxRunner
}

func NewService(medicines MedicineRepository, prescriptions PrescriptionRepository, charges ChargeRecorder, tx TxRunner) *Service {
	if tx == nil {
		tx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{medicines: medicines, prescriptions: prescriptions, charges: charges, tx: tx}
}

// -- Medicines --

func (s *Service) AddMedicine(ctx context.Context, m *Medicine) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Stock < 0 {
		return fmt.Errorf("stock must be non-negative")
	}
	if m.UnitPrice.IsNegative() {
		return fmt.Errorf("unit_price must be non-negative")
	}
	return s.medicines.Create(ctx, m)
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

func (s *Service) ListMedicines(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	return s.medicines.List(ctx, limit, offset)
}

func (s *Service) Restock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("restock quantity must be positive")
	}
	if _, err := s.medicines.GetByID(ctx, id); err != nil {
		return err
	}
	return s.medicines.AddStock(ctx, id, qty)
}

// -- Prescriptions --

// CreatePrescription prices each line at the medicine's current unit price,
// fixes the total cost, and posts an incomplete charge onto the patient's
// bill. Stock is not touched until fulfillment.
func (s *Service) CreatePrescription(ctx context.Context, p *Prescription) error {
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if len(p.Lines) == 0 {
		return fmt.Errorf("at least one prescription line is required")
	}

	return s.tx(ctx, func(ctx context.Context) error {
		var cost money.Amount
		for i := range p.Lines {
			line := &p.Lines[i]
			if line.Quantity <= 0 {
				return fmt.Errorf("quantity must be positive")
			}
			m, err := s.medicines.GetByID(ctx, line.MedicineID)
			if err != nil {
				return fmt.Errorf("medicine not found")
			}
			line.UnitPrice = m.UnitPrice
			cost += line.Cost()
		}
		p.Cost = cost
		p.Status = PrescriptionPending

		if err := s.prescriptions.Create(ctx, p); err != nil {
			return err
		}
		return s.charges.RecordPrescriptionCharge(ctx, p.PatientID, p.ID, medicationService, p.Cost)
	})
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByID(ctx, id)
}

func (s *Service) ListPrescriptionsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.ListByPatient(ctx, patientID, limit, offset)
}

// Fulfill hands the medication over: stock is decremented line by line and
// the bill charge completes, all in one transaction. A line without stock
// aborts the whole fulfillment.
func (s *Service) Fulfill(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	var p *Prescription
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.prescriptions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.Status != PrescriptionPending {
			return ErrNotPending
		}
		for i := range p.Lines {
			if err := s.medicines.DecrementStock(ctx, p.Lines[i].MedicineID, p.Lines[i].Quantity); err != nil {
				return err
			}
		}
		if err := s.prescriptions.UpdateStatus(ctx, id, PrescriptionPending, PrescriptionFulfilled, p.VersionID); err != nil {
			return err
		}
		p.Status = PrescriptionFulfilled
		p.VersionID++
		return s.charges.CompletePrescriptionCharge(ctx, p.ID)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Cancel voids a pending prescription. The bill charge posted at creation is
// settled at zero so the bill can still finalize.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.tx(ctx, func(ctx context.Context) error {
		p, err := s.prescriptions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.Status != PrescriptionPending {
			return ErrNotPending
		}
		if err := s.prescriptions.UpdateStatus(ctx, id, PrescriptionPending, PrescriptionCancelled, p.VersionID); err != nil {
			return err
		}
		return s.charges.CancelPrescriptionCharge(ctx, p.ID)
	})
}
