package rooms

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/pkg/money"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Room Repository ===========

type roomRepoPG struct{ pool *pgxpool.Pool }

func NewRoomRepoPG(pool *pgxpool.Pool) RoomRepository { return &roomRepoPG{pool: pool} }

func (r *roomRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const roomCols = `id, number, type, daily_rate, version_id, created_at, updated_at`

func (r *roomRepoPG) scanRoom(row pgx.Row) (*Room, error) {
	var room Room
	err := row.Scan(&room.ID, &room.Number, &room.Type, &room.DailyRate, &room.VersionID, &room.CreatedAt, &room.UpdatedAt)
	return &room, err
}

func (r *roomRepoPG) Create(ctx context.Context, room *Room) error {
	room.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO room (id, number, type, daily_rate)
		VALUES ($1,$2,$3,$4)`,
		room.ID, room.Number, room.Type, room.DailyRate)
	return err
}

func (r *roomRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Room, error) {
	return r.scanRoom(r.conn(ctx).QueryRow(ctx, `SELECT `+roomCols+` FROM room WHERE id = $1`, id))
}

func (r *roomRepoPG) List(ctx context.Context, limit, offset int) ([]*Room, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM room`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+roomCols+` FROM room ORDER BY number LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Room
	for rows.Next() {
		room, err := r.scanRoom(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, room)
	}
	return items, total, nil
}

// =========== Reservation Repository ===========

type reservationRepoPG struct{ pool *pgxpool.Pool }

func NewReservationRepoPG(pool *pgxpool.Pool) ReservationRepository {
	return &reservationRepoPG{pool: pool}
}

func (r *reservationRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reservationCols = `id, patient_id, room_id, check_in, expected_check_out, check_out,
	cost, status, version_id, created_at, updated_at`

func (r *reservationRepoPG) scanReservation(row pgx.Row) (*Reservation, error) {
	var res Reservation
	err := row.Scan(&res.ID, &res.PatientID, &res.RoomID, &res.CheckIn, &res.ExpectedCheckOut, &res.CheckOut,
		&res.Cost, &res.Status, &res.VersionID, &res.CreatedAt, &res.UpdatedAt)
	return &res, err
}

func (r *reservationRepoPG) Create(ctx context.Context, res *Reservation) error {
	res.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO room_reservation (id, patient_id, room_id, check_in, expected_check_out, cost, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		res.ID, res.PatientID, res.RoomID, res.CheckIn, res.ExpectedCheckOut, res.Cost, res.Status)
	return err
}

func (r *reservationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	return r.scanReservation(r.conn(ctx).QueryRow(ctx, `SELECT `+reservationCols+` FROM room_reservation WHERE id = $1`, id))
}

func (r *reservationRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Reservation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM room_reservation WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+reservationCols+` FROM room_reservation WHERE patient_id = $1 ORDER BY check_in DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Reservation
	for rows.Next() {
		res, err := r.scanReservation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, res)
	}
	return items, total, nil
}

func (r *reservationRepoPG) HasOverlap(ctx context.Context, roomID uuid.UUID, start, end time.Time) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM room_reservation
			WHERE room_id = $1 AND status = 'open'
			  AND check_in < $3 AND expected_check_out > $2
		)`, roomID, start, end).Scan(&exists)
	return exists, err
}

func (r *reservationRepoPG) Close(ctx context.Context, id uuid.UUID, checkOut time.Time, cost money.Amount, version int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE room_reservation
		SET status = 'closed', check_out = $2, cost = $3, version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND version_id = $4 AND status = 'open'`,
		id, checkOut, cost, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotOpen
	}
	return nil
}

func (r *reservationRepoPG) Cancel(ctx context.Context, id uuid.UUID, version int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE room_reservation
		SET status = 'cancelled', version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND version_id = $2 AND status = 'open'`,
		id, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotOpen
	}
	return nil
}
