package adminops

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type logRepoPG struct{ pool *pgxpool.Pool }

func NewLogRepoPG(pool *pgxpool.Pool) LogRepository { return &logRepoPG{pool: pool} }

const logCols = `id, admin_id, doctor_id, action, details, user_agent, ip, created_at`

func scanLogEntry(row pgx.Row) (*LogEntry, error) {
	var e LogEntry
	if err := row.Scan(&e.ID, &e.AdminID, &e.DoctorID, &e.Action, &e.Details, &e.UserAgent, &e.IP, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *logRepoPG) Append(ctx context.Context, e *LogEntry) error {
	e.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO admin_actions_log (id, admin_id, doctor_id, action, details, user_agent, ip)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.AdminID, e.DoctorID, e.Action, e.Details, e.UserAgent, e.IP)
	return err
}

func (r *logRepoPG) List(ctx context.Context, limit, offset int) ([]*LogEntry, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admin_actions_log`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+logCols+` FROM admin_actions_log
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*LogEntry
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
