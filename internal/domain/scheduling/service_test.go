package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/money"
)

type mockRepo struct {
	appointments map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.VersionID = 1
	m.appointments[a.ID] = a
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var items []*Appointment
	for _, a := range m.appointments {
		if a.PatientID == patientID {
			items = append(items, a)
		}
	}
	return items, len(items), nil
}

func (m *mockRepo) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var items []*Appointment
	for _, a := range m.appointments {
		if a.DoctorID == doctorID {
			items = append(items, a)
		}
	}
	return items, len(items), nil
}

func (m *mockRepo) HasOverlap(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (bool, error) {
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && a.Status == AppointmentBooked &&
			a.StartTime.Before(end) && a.EndTime.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) Complete(ctx context.Context, id uuid.UUID, diagnosis string, version int) error {
	a, ok := m.appointments[id]
	if !ok {
		return errors.New("not found")
	}
	if a.VersionID != version || a.Status != AppointmentBooked {
		return ErrNotBooked
	}
	a.Status = AppointmentCompleted
	a.Diagnosis = &diagnosis
	a.VersionID++
	return nil
}

func (m *mockRepo) Cancel(ctx context.Context, id uuid.UUID, version int) error {
	a, ok := m.appointments[id]
	if !ok {
		return errors.New("not found")
	}
	if a.VersionID != version || a.Status != AppointmentBooked {
		return ErrNotBooked
	}
	a.Status = AppointmentCancelled
	a.VersionID++
	return nil
}

type recordedCharge struct {
	patientID     uuid.UUID
	appointmentID uuid.UUID
	serviceName   string
	fee           money.Amount
}

type mockCharges struct {
	recorded []recordedCharge
}

func (m *mockCharges) RecordAppointmentCharge(ctx context.Context, patientID, appointmentID uuid.UUID, serviceName string, fee money.Amount) error {
	m.recorded = append(m.recorded, recordedCharge{patientID, appointmentID, serviceName, fee})
	return nil
}

func bookedAppointment(patientID, doctorID uuid.UUID) *Appointment {
	return &Appointment{
		PatientID:   patientID,
		DoctorID:    doctorID,
		ServiceName: "Consultation",
		Fee:         500_000,
		StartTime:   time.Now().Add(24 * time.Hour),
	}
}

func TestBook(t *testing.T) {
	svc := NewService(newMockRepo(), &mockCharges{}, nil)

	a := bookedAppointment(uuid.New(), uuid.New())
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != AppointmentBooked {
		t.Errorf("expected booked, got %s", a.Status)
	}
	if a.EndTime != a.StartTime.Add(defaultSlot) {
		t.Error("expected default slot length when end_time omitted")
	}
}

func TestBook_SlotTaken(t *testing.T) {
	svc := NewService(newMockRepo(), &mockCharges{}, nil)
	doctorID := uuid.New()

	first := bookedAppointment(uuid.New(), doctorID)
	if err := svc.Book(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := bookedAppointment(uuid.New(), doctorID)
	second.StartTime = first.StartTime.Add(10 * time.Minute)
	if err := svc.Book(context.Background(), second); !errors.Is(err, ErrSlotTaken) {
		t.Errorf("expected ErrSlotTaken, got %v", err)
	}

	// A different doctor is free at the same time.
	third := bookedAppointment(uuid.New(), uuid.New())
	third.StartTime = first.StartTime
	if err := svc.Book(context.Background(), third); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestComplete_PostsCharge(t *testing.T) {
	charges := &mockCharges{}
	svc := NewService(newMockRepo(), charges, nil)

	patientID := uuid.New()
	a := bookedAppointment(patientID, uuid.New())
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	completed, err := svc.Complete(context.Background(), a.ID, "acute pharyngitis")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completed.Status != AppointmentCompleted {
		t.Errorf("expected completed, got %s", completed.Status)
	}
	if completed.Diagnosis == nil || *completed.Diagnosis != "acute pharyngitis" {
		t.Error("expected diagnosis to be recorded")
	}

	if len(charges.recorded) != 1 {
		t.Fatalf("expected one charge, got %d", len(charges.recorded))
	}
	ch := charges.recorded[0]
	if ch.patientID != patientID || ch.appointmentID != a.ID {
		t.Error("charge attributed to wrong patient or appointment")
	}
	if ch.serviceName != "Consultation" || ch.fee != 500_000 {
		t.Errorf("unexpected charge %q %d", ch.serviceName, ch.fee)
	}
}

func TestComplete_OnlyOnce(t *testing.T) {
	charges := &mockCharges{}
	svc := NewService(newMockRepo(), charges, nil)

	a := bookedAppointment(uuid.New(), uuid.New())
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Complete(context.Background(), a.ID, "diagnosis"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Complete(context.Background(), a.ID, "diagnosis"); !errors.Is(err, ErrNotBooked) {
		t.Errorf("expected ErrNotBooked, got %v", err)
	}
	if len(charges.recorded) != 1 {
		t.Errorf("expected exactly one charge, got %d", len(charges.recorded))
	}
}

func TestCancel(t *testing.T) {
	charges := &mockCharges{}
	svc := NewService(newMockRepo(), charges, nil)

	a := bookedAppointment(uuid.New(), uuid.New())
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Cancel(context.Background(), a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(charges.recorded) != 0 {
		t.Error("cancelled appointment must not produce a charge")
	}
	if err := svc.Cancel(context.Background(), a.ID); !errors.Is(err, ErrNotBooked) {
		t.Errorf("expected ErrNotBooked, got %v", err)
	}
}
