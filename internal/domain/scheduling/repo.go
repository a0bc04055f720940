package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	// HasOverlap reports whether the doctor already has a booked appointment
	// intersecting [start, end).
	HasOverlap(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (bool, error)
	Complete(ctx context.Context, id uuid.UUID, diagnosis string, version int) error
	Cancel(ctx context.Context, id uuid.UUID, version int) error
}
