package rooms

import (
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/money"
)

// Room maps to the room table. DailyRate is the price per started night in
// minor units.
type Room struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	Number    string       `db:"number" json:"number"`
	Type      string       `db:"type" json:"type"`
	DailyRate money.Amount `db:"daily_rate" json:"daily_rate"`
	VersionID int          `db:"version_id" json:"version_id"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

type ReservationStatus string

const (
	ReservationOpen      ReservationStatus = "open"
	ReservationClosed    ReservationStatus = "closed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation maps to the room_reservation table. Cost holds the estimate
// while the reservation is open and the final amount once it is closed.
type Reservation struct {
	ID               uuid.UUID         `db:"id" json:"id"`
	PatientID        uuid.UUID         `db:"patient_id" json:"patient_id"`
	RoomID           uuid.UUID         `db:"room_id" json:"room_id"`
	CheckIn          time.Time         `db:"check_in" json:"check_in"`
	ExpectedCheckOut time.Time         `db:"expected_check_out" json:"expected_check_out"`
	CheckOut         *time.Time        `db:"check_out" json:"check_out,omitempty"`
	Cost             money.Amount      `db:"cost" json:"cost"`
	Status           ReservationStatus `db:"status" json:"status"`
	VersionID        int               `db:"version_id" json:"version_id"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updated_at"`
}

// Nights counts billable nights between from and to. Any started night
// counts in full and a same-day stay bills one night.
func Nights(from, to time.Time) int {
	if !to.After(from) {
		return 1
	}
	d := to.Sub(from)
	nights := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		nights++
	}
	return nights
}
