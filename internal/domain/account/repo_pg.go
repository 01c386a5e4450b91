package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Admin Repository ===========

type adminRepoPG struct{ pool *pgxpool.Pool }

func NewAdminRepoPG(pool *pgxpool.Pool) AdminRepository { return &adminRepoPG{pool: pool} }

const adminCols = `id, principal_id, email, full_name, created_at`

func scanAdmin(row pgx.Row) (*Admin, error) {
	var a Admin
	err := row.Scan(&a.ID, &a.PrincipalID, &a.Email, &a.FullName, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *adminRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Admin, error) {
	return scanAdmin(r.pool.QueryRow(ctx, `SELECT `+adminCols+` FROM admins WHERE id = $1`, id))
}

func (r *adminRepoPG) GetByPrincipalID(ctx context.Context, principalID string) (*Admin, error) {
	return scanAdmin(r.pool.QueryRow(ctx, `SELECT `+adminCols+` FROM admins WHERE principal_id = $1`, principalID))
}

func (r *adminRepoPG) List(ctx context.Context) ([]*Admin, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+adminCols+` FROM admins ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []*Admin
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

const doctorCols = `id, principal_id, email, full_name, role, subscription_status,
	is_active, last_payment_date, next_payment_date, payment_proof_ref,
	created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.PrincipalID, &d.Email, &d.FullName, &d.Role, &d.SubscriptionStatus,
		&d.IsActive, &d.LastPaymentDate, &d.NextPaymentDate, &d.PaymentProofRef,
		&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	if d.Role == "" {
		d.Role = DoctorRoleDoctor
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctors (id, principal_id, email, full_name, role, subscription_status,
			is_active, last_payment_date, next_payment_date, payment_proof_ref)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		d.ID, d.PrincipalID, d.Email, d.FullName, d.Role, d.SubscriptionStatus,
		d.IsActive, d.LastPaymentDate, d.NextPaymentDate, d.PaymentProofRef)
	return err
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r *doctorRepoPG) GetByPrincipalID(ctx context.Context, principalID string) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE principal_id = $1`, principalID))
}

func (r *doctorRepoPG) UpdateSubscription(ctx context.Context, id uuid.UUID, p SubscriptionPatch) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors SET subscription_status=$2, is_active=$3,
			last_payment_date=$4, next_payment_date=$5, payment_proof_ref=$6,
			updated_at=NOW()
		WHERE id = $1`,
		id, p.Status, p.IsActive, p.LastPaymentDate, p.NextPaymentDate, p.PaymentProofRef)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *doctorRepoPG) ListPending(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM doctors WHERE subscription_status = $1`,
		StatusPendingVerification).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+doctorCols+` FROM doctors
		WHERE subscription_status = $1
		ORDER BY updated_at ASC LIMIT $2 OFFSET $3`,
		StatusPendingVerification, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var doctors []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		doctors = append(doctors, d)
	}
	return doctors, total, rows.Err()
}

func (r *doctorRepoPG) ListActive(ctx context.Context) ([]*Doctor, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+doctorCols+` FROM doctors
		WHERE subscription_status = $1`, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

func (r *doctorRepoPG) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors SET subscription_status=$1, is_active=false, updated_at=NOW()
		WHERE subscription_status = $2 AND next_payment_date < $3`,
		StatusExpired, StatusActive, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
