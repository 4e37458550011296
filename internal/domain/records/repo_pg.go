package records

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caregate/caregate/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepositoryPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *repoPG) Upsert(ctx context.Context, s *Section) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_record (owner_id, section, content, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (owner_id, section)
		DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at`,
		s.OwnerID, s.Section, []byte(s.Content), s.UpdatedAt)
	return err
}

func (r *repoPG) Get(ctx context.Context, ownerID, section string) (*Section, error) {
	var s Section
	var content []byte
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT owner_id, section, content, updated_at FROM patient_record
		WHERE owner_id = $1 AND section = $2`, ownerID, section).
		Scan(&s.OwnerID, &s.Section, &content, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Content = content
	return &s, nil
}

func (r *repoPG) ListByOwner(ctx context.Context, ownerID string) ([]*Section, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT owner_id, section, content, updated_at FROM patient_record
		WHERE owner_id = $1
		ORDER BY section ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Section
	for rows.Next() {
		var s Section
		var content []byte
		if err := rows.Scan(&s.OwnerID, &s.Section, &content, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Content = content
		out = append(out, &s)
	}
	return out, rows.Err()
}
