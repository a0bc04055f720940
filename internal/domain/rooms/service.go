package rooms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/money"
)

var (
	ErrRoomUnavailable = errors.New("room already reserved for this window")
	ErrNotOpen         = errors.New("reservation is not open")
)

// ChargeRecorder posts the room cost onto the patient's bill. An estimate is
// recorded at check-in and replaced with the actual cost at check-out.
// Implemented by the billing service.
type ChargeRecorder interface {
	RecordReservationCharge(ctx context.Context, patientID, reservationID uuid.UUID, serviceName string, estimate money.Amount) error
	FinalizeReservationCharge(ctx context.Context, reservationID uuid.UUID, finalCost money.Amount) error
}

// TxRunner executes fn atomically.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	rooms        RoomRepository
	reservations ReservationRepository
	charges      ChargeRecorder
	tx           TxRunner
	now          func() time.Time
}

func NewService(rooms RoomRepository, reservations ReservationRepository, charges ChargeRecorder, tx TxRunner) *Service {
	if tx == nil {
		tx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{rooms: rooms, reservations: reservations, charges: charges, tx: tx, now: time.Now}
}

// -- Rooms --

func (s *Service) AddRoom(ctx context.Context, room *Room) error {
	if room.Number == "" {
		return fmt.Errorf("number is required")
	}
	if room.Type == "" {
		return fmt.Errorf("type is required")
	}
	if room.DailyRate.IsNegative() {
		return fmt.Errorf("daily_rate must be non-negative")
	}
	return s.rooms.Create(ctx, room)
}

func (s *Service) GetRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	return s.rooms.GetByID(ctx, id)
}

func (s *Service) ListRooms(ctx context.Context, limit, offset int) ([]*Room, int, error) {
	return s.rooms.List(ctx, limit, offset)
}

// -- Reservations --

// Reserve checks the room in for the patient and posts an estimated charge
// of expected nights times the daily rate onto the bill. The estimate is
// replaced with the actual cost at check-out.
func (s *Service) Reserve(ctx context.Context, res *Reservation) error {
	if res.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if res.RoomID == uuid.Nil {
		return fmt.Errorf("room_id is required")
	}
	if res.CheckIn.IsZero() {
		res.CheckIn = s.now()
	}
	if res.ExpectedCheckOut.IsZero() {
		return fmt.Errorf("expected_check_out is required")
	}
	if !res.ExpectedCheckOut.After(res.CheckIn) {
		return fmt.Errorf("expected_check_out must be after check_in")
	}

	room, err := s.rooms.GetByID(ctx, res.RoomID)
	if err != nil {
		return fmt.Errorf("room not found")
	}

	return s.tx(ctx, func(ctx context.Context) error {
		taken, err := s.reservations.HasOverlap(ctx, res.RoomID, res.CheckIn, res.ExpectedCheckOut)
		if err != nil {
			return err
		}
		if taken {
			return ErrRoomUnavailable
		}

		res.Cost = room.DailyRate * money.Amount(Nights(res.CheckIn, res.ExpectedCheckOut))
		res.Status = ReservationOpen
		if err := s.reservations.Create(ctx, res); err != nil {
			return err
		}
		return s.charges.RecordReservationCharge(ctx, res.PatientID, res.ID, room.Type, res.Cost)
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	return s.reservations.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Reservation, int, error) {
	return s.reservations.ListByPatient(ctx, patientID, limit, offset)
}

// Close checks the patient out: the actual cost is computed from nights
// stayed and the bill charge is finalized in the same transaction.
func (s *Service) Close(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	var res *Reservation
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.reservations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if res.Status != ReservationOpen {
			return ErrNotOpen
		}
		room, err := s.rooms.GetByID(ctx, res.RoomID)
		if err != nil {
			return err
		}

		checkOut := s.now()
		cost := room.DailyRate * money.Amount(Nights(res.CheckIn, checkOut))
		if err := s.reservations.Close(ctx, id, checkOut, cost, res.VersionID); err != nil {
			return err
		}
		res.Status = ReservationClosed
		res.CheckOut = &checkOut
		res.Cost = cost
		res.VersionID++
		return s.charges.FinalizeReservationCharge(ctx, res.ID, cost)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Cancel voids an open reservation. The estimated charge posted at
// check-in is settled at zero so the bill can still finalize.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.tx(ctx, func(ctx context.Context) error {
		res, err := s.reservations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if res.Status != ReservationOpen {
			return ErrNotOpen
		}
		if err := s.reservations.Cancel(ctx, id, res.VersionID); err != nil {
			return err
		}
		return s.charges.FinalizeReservationCharge(ctx, res.ID, 0)
	})
}
