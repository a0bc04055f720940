package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/money"
)

var (
	ErrSlotTaken = errors.New("doctor already has an appointment in this slot")
	ErrNotBooked = errors.New("appointment is not in booked state")
)

const defaultSlot = 30 * time.Minute

// ChargeRecorder posts the consultation fee onto the patient's bill when the
// appointment completes. Implemented by the billing service.
type ChargeRecorder interface {
	RecordAppointmentCharge(ctx context.Context, patientID, appointmentID uuid.UUID, serviceName string, fee money.Amount) error
}

// TxRunner executes fn atomically.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	appointments Repository
	charges      ChargeRecorder
	tx           TxRunner
}

func NewService(appointments Repository, charges ChargeRecorder, tx TxRunner) *Service {
	if tx == nil {
		tx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{appointments: appointments, charges: charges, tx: tx}
}

func (s *Service) Book(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if a.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if a.Fee.IsNegative() {
		return fmt.Errorf("fee must be non-negative")
	}
	if a.StartTime.IsZero() {
		return fmt.Errorf("start_time is required")
	}
	if a.EndTime.IsZero() {
		a.EndTime = a.StartTime.Add(defaultSlot)
	}
	if !a.EndTime.After(a.StartTime) {
		return fmt.Errorf("end_time must be after start_time")
	}

	taken, err := s.appointments.HasOverlap(ctx, a.DoctorID, a.StartTime, a.EndTime)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlotTaken
	}

	a.Status = AppointmentBooked
	return s.appointments.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByDoctor(ctx, doctorID, limit, offset)
}

// Complete records the diagnosis and posts the consultation fee onto the
// patient's bill in one transaction, opening the bill when this is the
// patient's first charge.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, diagnosis string) (*Appointment, error) {
	if diagnosis == "" {
		return nil, fmt.Errorf("diagnosis is required")
	}
	var a *Appointment
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.appointments.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if a.Status != AppointmentBooked {
			return ErrNotBooked
		}
		if err := s.appointments.Complete(ctx, id, diagnosis, a.VersionID); err != nil {
			return err
		}
		a.Status = AppointmentCompleted
		a.Diagnosis = &diagnosis
		a.VersionID++
		return s.charges.RecordAppointmentCharge(ctx, a.PatientID, a.ID, a.ServiceName, a.Fee)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Cancel voids a booked appointment. No charge is posted for cancellations.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Status != AppointmentBooked {
		return ErrNotBooked
	}
	return s.appointments.Cancel(ctx, id, a.VersionID)
}
