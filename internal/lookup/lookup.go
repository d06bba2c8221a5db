// Package lookup resolves human-facing reference names to foreign-key ids.
//
// Route types and difficulties are closed enumerations: the name must be in
// the allowed set and the row must already exist. Locations and tags are
// open-ended and created on first use. All matches are case-insensitive.
package lookup

import (
	"context"
	"errors"
	"strings"

	"backend-trailhub/internal/apperr"
	"backend-trailhub/internal/db"

	"github.com/jackc/pgx/v5"
)

var allowedRouteTypes = []string{"loop", "out & back", "point to point"}
var allowedDifficulties = []string{"easy", "moderate", "hard"}

func RouteTypeID(ctx context.Context, q db.Querier, name string) (int64, error) {
	if !allowed(allowedRouteTypes, name) {
		return 0, apperr.Newf(apperr.KindInvalid, "route type '%s' is not one of: loop, out & back, point to point", name)
	}
	id, err := findByName(ctx, q, `SELECT route_type_id FROM route_types WHERE LOWER(route_type_name)=LOWER($1)`, name)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.Newf(apperr.KindInvalid, "route type '%s' is not configured", name)
	}
	return id, err
}

func DifficultyID(ctx context.Context, q db.Querier, name string) (int64, error) {
	if !allowed(allowedDifficulties, name) {
		return 0, apperr.Newf(apperr.KindInvalid, "difficulty '%s' is not one of: easy, moderate, hard", name)
	}
	id, err := findByName(ctx, q, `SELECT difficulty_id FROM difficulties WHERE LOWER(difficulty_name)=LOWER($1)`, name)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.Newf(apperr.KindInvalid, "difficulty '%s' is not configured", name)
	}
	return id, err
}

// FindLocationByName is a pure read; FindOrCreateLocation has the insert
// side effect. Callers pick the policy explicitly.
func FindLocationByName(ctx context.Context, q db.Querier, name string) (int64, error) {
	id, err := findByName(ctx, q, `SELECT location_id FROM locations WHERE LOWER(location_name)=LOWER($1)`, name)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.Newf(apperr.KindNotFound, "location '%s' not found", name)
	}
	return id, err
}

func FindOrCreateLocation(ctx context.Context, q db.Querier, name string) (int64, error) {
	id, err := findByName(ctx, q, `SELECT location_id FROM locations WHERE LOWER(location_name)=LOWER($1)`, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	row := q.QueryRow(ctx, `INSERT INTO locations (location_name) VALUES ($1) RETURNING location_id`, name)
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func FindTagByName(ctx context.Context, q db.Querier, name string) (int64, error) {
	id, err := findByName(ctx, q, `SELECT trail_tag_id FROM trail_tags WHERE LOWER(trail_tag_name)=LOWER($1)`, name)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.Newf(apperr.KindNotFound, "tag '%s' not found", name)
	}
	return id, err
}

func FindOrCreateTag(ctx context.Context, q db.Querier, name string) (int64, error) {
	id, err := findByName(ctx, q, `SELECT trail_tag_id FROM trail_tags WHERE LOWER(trail_tag_name)=LOWER($1)`, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	row := q.QueryRow(ctx, `INSERT INTO trail_tags (trail_tag_name) VALUES ($1) RETURNING trail_tag_id`, name)
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func findByName(ctx context.Context, q db.Querier, sql, name string) (int64, error) {
	var id int64
	if err := q.QueryRow(ctx, sql, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func allowed(set []string, name string) bool {
	for _, s := range set {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}
