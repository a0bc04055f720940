package billing

import (
	"context"
	"errors"

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const billCols = `id, patient_id, subtotal, policy_id, covered_amount, total_due,
	status, version_id, created_at, updated_at, paid_at`

func (r *repoPG) scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.PatientID, &b.Subtotal, &b.PolicyID, &b.CoveredAmount, &b.TotalDue,
		&b.Status, &b.VersionID, &b.CreatedAt, &b.UpdatedAt, &b.PaidAt)
	return &b, err
}

func (r *repoPG) loadCharges(ctx context.Context, b *Bill) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, bill_id, kind, source_id, service_name, amount, covered, complete, position, created_at
		FROM bill_charge WHERE bill_id = $1 ORDER BY position`, b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var ch Charge
		if err := rows.Scan(&ch.ID, &ch.BillID, &ch.Kind, &ch.SourceID, &ch.ServiceName,
			&ch.Amount, &ch.Covered, &ch.Complete, &ch.Position, &ch.CreatedAt); err != nil {
			return err
		}
		b.Charges = append(b.Charges, ch)
	}
	return rows.Err()
}

func (r *repoPG) CreateBill(ctx context.Context, b *Bill) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bill (id, patient_id, subtotal, total_due, status)
		VALUES ($1,$2,0,0,$3)`,
		b.ID, b.PatientID, b.Status)
	if err != nil {
		return err
	}
	b.VersionID = 1
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := r.scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bill WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadCharges(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repoPG) GetOpenByPatient(ctx context.Context, patientID uuid.UUID) (*Bill, error) {
	b, err := r.scanBill(r.conn(ctx).QueryRow(ctx, `
		SELECT `+billCols+` FROM bill
		WHERE patient_id = $1 AND status = 'treatment_in_progress'
		ORDER BY created_at LIMIT 1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoOpenBill
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadCharges(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repoPG) GetOpenBySource(ctx context.Context, kind ChargeKind, sourceID uuid.UUID) (*Bill, error) {
	b, err := r.scanBill(r.conn(ctx).QueryRow(ctx, `
		SELECT `+billColsPrefixed+` FROM bill b
		JOIN bill_charge c ON c.bill_id = b.id
		WHERE c.kind = $1 AND c.source_id = $2 AND b.status = 'treatment_in_progress'
		LIMIT 1`, kind, sourceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoOpenBill
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadCharges(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

const billColsPrefixed = `b.id, b.patient_id, b.subtotal, b.policy_id, b.covered_amount, b.total_due,
	b.status, b.version_id, b.created_at, b.updated_at, b.paid_at`

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Bill, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bill WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+billCols+` FROM bill WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Bill
	for rows.Next() {
		b, err := r.scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, b := range items {
		if err := r.loadCharges(ctx, b); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

func (r *repoPG) AddCharge(ctx context.Context, ch *Charge) error {
	ch.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bill_charge (id, bill_id, kind, source_id, service_name, amount, complete, position)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		ch.ID, ch.BillID, ch.Kind, ch.SourceID, ch.ServiceName, ch.Amount, ch.Complete, ch.Position)
	return err
}

func (r *repoPG) UpdateCharge(ctx context.Context, ch *Charge) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE bill_charge SET service_name = $2, amount = $3, complete = $4
		WHERE id = $1`,
		ch.ID, ch.ServiceName, ch.Amount, ch.Complete)
	return err
}

func (r *repoPG) UpdateTotals(ctx context.Context, billID uuid.UUID, subtotal, totalDue money.Amount, version int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE bill SET subtotal = $2, total_due = $3, version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND version_id = $4 AND status = 'treatment_in_progress'`,
		billID, subtotal, totalDue, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *repoPG) Finalize(ctx context.Context, billID uuid.UUID, version int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE bill SET status = 'unpaid', version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND version_id = $2 AND status = 'treatment_in_progress'`,
		billID, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *repoPG) ApplyCoverage(ctx context.Context, billID, policyID uuid.UUID, covered, totalDue money.Amount, perCharge map[uuid.UUID]money.Amount, version int) error {
	conn := r.conn(ctx)
	tag, err := conn.Exec(ctx, `
		UPDATE bill SET policy_id = $2, covered_amount = $3, total_due = $4,
			version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND version_id = $5 AND status = 'unpaid' AND policy_id IS NULL`,
		billID, policyID, covered, totalDue, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPolicyAlreadyApplied
	}
	for chargeID, amount := range perCharge {
		if _, err := conn.Exec(ctx, `
			UPDATE bill_charge SET covered = $2 WHERE id = $1`, chargeID, amount); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) Pay(ctx context.Context, billID uuid.UUID, version int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE bill SET status = 'paid', paid_at = NOW(), version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND version_id = $2 AND status = 'unpaid'`,
		billID, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBillAlreadyPaid
	}
	return nil
}
