package insurance

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

// =========== Company Repository ===========

type companyRepoPG struct{ pool *pgxpool.Pool }

func NewCompanyRepoPG(pool *pgxpool.Pool) CompanyRepository { return &companyRepoPG{pool: pool} }

func (r *companyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const companyCols = `id, name, phone, address, created_at`

func (r *companyRepoPG) scanCompany(row pgx.Row) (*Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt)
	return &c, err
}

func (r *companyRepoPG) Create(ctx context.Context, c *Company) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO insurance_company (id, name, phone, address)
		VALUES ($1,$2,$3,$4)`,
		c.ID, c.Name, c.Phone, c.Address)
	return err
}

func (r *companyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Company, error) {
	return r.scanCompany(r.conn(ctx).QueryRow(ctx, `SELECT `+companyCols+` FROM insurance_company WHERE id = $1`, id))
}

func (r *companyRepoPG) List(ctx context.Context, limit, offset int) ([]*Company, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM insurance_company`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+companyCols+` FROM insurance_company ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Company
	for rows.Next() {
		c, err := r.scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, nil
}

// =========== Policy Repository ===========

type policyRepoPG struct{ pool *pgxpool.Pool }

func NewPolicyRepoPG(pool *pgxpool.Pool) PolicyRepository { return &policyRepoPG{pool: pool} }

func (r *policyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const policyCols = `id, patient_id, company_id, expiry_date, total_coverage, total_covered,
	status, version_id, created_at, updated_at`

func (r *policyRepoPG) scanPolicy(row pgx.Row) (*Policy, error) {
	var p Policy
	err := row.Scan(&p.ID, &p.PatientID, &p.CompanyID, &p.ExpiryDate, &p.TotalCoverage, &p.TotalCovered,
		&p.Status, &p.VersionID, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *policyRepoPG) Create(ctx context.Context, p *Policy) error {
	p.ID = uuid.New()
	conn := r.conn(ctx)
	_, err := conn.Exec(ctx, `
		INSERT INTO insurance_policy (id, patient_id, company_id, expiry_date, total_coverage, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.PatientID, p.CompanyID, p.ExpiryDate, p.TotalCoverage, p.Status)
	if err != nil {
		return err
	}
	for i := range p.Items {
		item := &p.Items[i]
		item.ID = uuid.New()
		item.PolicyID = p.ID
		item.Position = i
		_, err := conn.Exec(ctx, `
			INSERT INTO coverage_item (id, policy_id, name, coverage_amount, position)
			VALUES ($1,$2,$3,$4,$5)`,
			item.ID, item.PolicyID, item.Name, item.CoverageAmount, item.Position)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *policyRepoPG) loadItems(ctx context.Context, p *Policy) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, policy_id, name, coverage_amount, consumed, position
		FROM coverage_item WHERE policy_id = $1 ORDER BY position`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var item CoverageItem
		if err := rows.Scan(&item.ID, &item.PolicyID, &item.Name, &item.CoverageAmount, &item.Consumed, &item.Position); err != nil {
			return err
		}
		p.Items = append(p.Items, item)
	}
	return rows.Err()
}

func (r *policyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Policy, error) {
	p, err := r.scanPolicy(r.conn(ctx).QueryRow(ctx, `SELECT `+policyCols+` FROM insurance_policy WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *policyRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Policy, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM insurance_policy WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+policyCols+` FROM insurance_policy WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Policy
	for rows.Next() {
		p, err := r.scanPolicy(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, p := range items {
		if err := r.loadItems(ctx, p); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

func (r *policyRepoPG) Cancel(ctx context.Context, id uuid.UUID, version int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE insurance_policy
		SET status = 'cancelled', version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND version_id = $2 AND status = 'active'`,
		id, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *policyRepoPG) ActiveTotalCoverage(ctx context.Context, patientID uuid.UUID, now time.Time) (money.Amount, error) {
	var total int64
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(total_coverage), 0) FROM insurance_policy
		WHERE patient_id = $1 AND status = 'active' AND expiry_date > $2`,
		patientID, now).Scan(&total)
	return money.Amount(total), err
}

func (r *policyRepoPG) Consume(ctx context.Context, policyID uuid.UUID, total money.Amount, perItem map[string]money.Amount, version int) error {
	conn := r.conn(ctx)
	tag, err := conn.Exec(ctx, `
		UPDATE insurance_policy
		SET total_covered = total_covered + $2, version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND version_id = $3
		  AND total_covered + $2 <= total_coverage`,
		policyID, int64(total), version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	for name, amount := range perItem {
		tag, err := conn.Exec(ctx, `
			UPDATE coverage_item
			SET consumed = consumed + $3
			WHERE policy_id = $1 AND name = $2
			  AND consumed + $3 <= coverage_amount`,
			policyID, name, int64(amount))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrVersionConflict
		}
	}
	return nil
}
