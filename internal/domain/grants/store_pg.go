package grants

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
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

type storePG struct{ pool *pgxpool.Pool }

// NewStorePG returns a PostgreSQL-backed Store. Redemption appends and
// revocation rely on row-level conditions, never on table locks.
func NewStorePG(pool *pgxpool.Pool) Store { return &storePG{pool: pool} }

func (s *storePG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return s.pool
}

const grantCols = `id, owner_id, permissions, issued_at, expires_at, revoked, revoked_at`

func (s *storePG) Create(ctx context.Context, g *AccessGrant) error {
	perms := make([]string, len(g.Permissions))
	for i, p := range g.Permissions {
		perms[i] = string(p)
	}
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO access_grant (id, owner_id, permissions, issued_at, expires_at, revoked, revoked_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		g.ID, g.OwnerID, perms, g.IssuedAt, g.ExpiresAt, g.Revoked, g.RevokedAt)
	return err
}

func (s *storePG) Get(ctx context.Context, id string) (*AccessGrant, error) {
	g, err := s.scanGrant(s.conn(ctx).QueryRow(ctx,
		`SELECT `+grantCols+` FROM access_grant WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := s.conn(ctx).Query(ctx, `
		SELECT redeemer_id, redeemed_at FROM grant_redemption
		WHERE grant_id = $1
		ORDER BY redeemed_at ASC, id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var r Redemption
		if err := rows.Scan(&r.RedeemerID, &r.RedeemedAt); err != nil {
			return nil, err
		}
		g.Redemptions = append(g.Redemptions, r)
	}
	return g, rows.Err()
}

func (s *storePG) ListByOwner(ctx context.Context, ownerID string) ([]*AccessGrant, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT `+grantCols+` FROM access_grant
		WHERE owner_id = $1
		ORDER BY issued_at DESC, id ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*AccessGrant
	for rows.Next() {
		g, err := s.scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// AppendRedemption inserts conditionally on the grant still being
// unrevoked, so a redemption can never land after a revoke's effect is
// visible.
func (s *storePG) AppendRedemption(ctx context.Context, grantID string, r Redemption) error {
	tag, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO grant_redemption (id, grant_id, redeemer_id, redeemed_at)
		SELECT $1, id, $3, $4 FROM access_grant
		WHERE id = $2 AND NOT revoked`,
		uuid.New(), grantID, r.RedeemerID, r.RedeemedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.conn(ctx).QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM access_grant WHERE id = $1)`, grantID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrStorageConflict
	}
	return nil
}

func (s *storePG) SetRevoked(ctx context.Context, grantID string, at time.Time) (bool, error) {
	tag, err := s.conn(ctx).Exec(ctx, `
		UPDATE access_grant SET revoked = TRUE, revoked_at = $2
		WHERE id = $1 AND NOT revoked`, grantID, at)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := s.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM access_grant WHERE id = $1)`, grantID).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func (s *storePG) scanGrant(row pgx.Row) (*AccessGrant, error) {
	var g AccessGrant
	var perms []string
	err := row.Scan(&g.ID, &g.OwnerID, &perms, &g.IssuedAt, &g.ExpiresAt, &g.Revoked, &g.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	g.Permissions = make([]Permission, len(perms))
	for i, p := range perms {
		g.Permissions[i] = Permission(p)
	}
	return &g, nil
}
