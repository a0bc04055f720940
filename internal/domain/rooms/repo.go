package rooms

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/money"
)

type RoomRepository interface {
	Create(ctx context.Context, room *Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*Room, error)
	List(ctx context.Context, limit, offset int) ([]*Room, int, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, res *Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Reservation, int, error)
	// HasOverlap reports whether the room has an open reservation crossing
	// the [start, end) window.
	HasOverlap(ctx context.Context, roomID uuid.UUID, start, end time.Time) (bool, error)
	// Close guards on open status and version; returns ErrNotOpen when the
	// reservation already closed or was cancelled.
	Close(ctx context.Context, id uuid.UUID, checkOut time.Time, cost money.Amount, version int) error
	Cancel(ctx context.Context, id uuid.UUID, version int) error
}
