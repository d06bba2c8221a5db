package user

import (
	"context"
	"errors"

	"backend-trailhub/internal/apperr"
	"backend-trailhub/internal/db"
	"backend-trailhub/internal/identity"

	"github.com/jackc/pgx/v5"
)

// Mirror resolves user references against the local users table first and
// falls back to the external auth API, persisting a shadow row for every
// record it imports. Mirrored rows are indistinguishable from natively
// created ones.
//
// Methods take an explicit Querier so the shadow insert joins the caller's
// transaction and rolls back with it.
type Mirror struct {
	provider identity.Provider
}

func NewMirror(provider identity.Provider) *Mirror {
	return &Mirror{provider: provider}
}

func (m *Mirror) ResolveID(ctx context.Context, q db.Querier, id int64) (User, error) {
	row := q.QueryRow(ctx, `
		SELECT user_id, username, email, role, created_at
		FROM users WHERE user_id=$1
	`, id)
	u, err := scanUser(row)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return User{}, err
	}

	rec, err := m.provider.LookupByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	return m.mirror(ctx, q, rec)
}

func (m *Mirror) ResolveUsername(ctx context.Context, q db.Querier, username string) (User, error) {
	row := q.QueryRow(ctx, `
		SELECT user_id, username, email, role, created_at
		FROM users WHERE LOWER(username)=LOWER($1)
	`, username)
	u, err := scanUser(row)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return User{}, err
	}

	rec, err := m.provider.LookupByUsername(ctx, username)
	if err != nil {
		return User{}, err
	}
	return m.mirror(ctx, q, rec)
}

func (m *Mirror) mirror(ctx context.Context, q db.Querier, rec identity.Record) (User, error) {
	u := User{
		UserID:   rec.UserID,
		Username: rec.Username,
		Email:    rec.Email,
		Role:     rec.Role,
	}
	row := q.QueryRow(ctx, `
		INSERT INTO users (user_id, username, email, role)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, u.UserID, u.Username, u.Email, u.Role)
	if err := row.Scan(&u.CreatedAt); err != nil {
		// Two requests can race to mirror the same user; the loser's
		// unique violation must surface as a conflict, not a 500.
		return User{}, apperr.FromDB(err, nil)
	}
	return u, nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	if err := row.Scan(&u.UserID, &u.Username, &u.Email, &u.Role, &u.CreatedAt); err != nil {
		return User{}, err
	}
	return u, nil
}
