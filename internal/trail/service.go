package trail

import (
	"context"
	"errors"
	"strings"

	"backend-trailhub/internal/apperr"
	"backend-trailhub/internal/db"
	"backend-trailhub/internal/lookup"
	"backend-trailhub/internal/user"

	"github.com/jackc/pgx/v5"
)

type Service struct {
	db     db.TxQuerier
	mirror *user.Mirror
}

func NewService(db db.TxQuerier, mirror *user.Mirror) *Service {
	return &Service{db: db, mirror: mirror}
}

// Create resolves every name reference, inserts the trail and attaches its
// nested collections inside one transaction. A failure at any step rolls
// back the whole write.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Response, error) {
	if err := validateCreate(req); err != nil {
		return Response{}, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Response{}, err
	}
	defer tx.Rollback(ctx)

	creator, err := s.mirror.ResolveUsername(ctx, tx, req.CreatedBy)
	if err != nil {
		return Response{}, userRefInvalid(err, req.CreatedBy)
	}
	routeTypeID, err := lookup.RouteTypeID(ctx, tx, req.RouteTypeName)
	if err != nil {
		return Response{}, err
	}
	difficultyID, err := lookup.DifficultyID(ctx, tx, req.DifficultyName)
	if err != nil {
		return Response{}, err
	}
	locationID, err := lookup.FindOrCreateLocation(ctx, tx, req.LocationName)
	if err != nil {
		return Response{}, err
	}

	var trailID int64
	row := tx.QueryRow(ctx, `
		INSERT INTO trails (trail_name, description, length, elevation_gain, estimated_time,
		                    route_type_id, difficulty_id, location_id, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING trail_id
	`, req.TrailName, req.Description, *req.Length, req.ElevationGain, req.EstimatedTime,
		routeTypeID, difficultyID, locationID, creator.UserID)
	if err := row.Scan(&trailID); err != nil {
		return Response{}, apperr.FromDB(err, nil)
	}

	if err := insertWaypoints(ctx, tx, trailID, req.Waypoints); err != nil {
		return Response{}, err
	}
	if err := linkTags(ctx, tx, trailID, req.Tags); err != nil {
		return Response{}, err
	}
	if err := insertPhotos(ctx, tx, trailID, creator.UserID, req.Photos); err != nil {
		return Response{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Response{}, apperr.FromDB(err, nil)
	}
	return s.Get(ctx, trailID)
}

// Update applies an allow-listed scalar patch and replaces each nested
// collection explicitly present in the payload; absent collections stay
// untouched. Replacement is a full discard-and-rebuild, never a merge.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (Response, error) {
	if err := validateUpdate(req); err != nil {
		return Response{}, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Response{}, err
	}
	defer tx.Rollback(ctx)

	cur, err := getTrailRow(ctx, tx, id)
	if err != nil {
		return Response{}, err
	}

	if req.UpdatedBy != nil {
		u, err := s.mirror.ResolveUsername(ctx, tx, *req.UpdatedBy)
		if err != nil {
			return Response{}, userRefInvalid(err, *req.UpdatedBy)
		}
		cur.UpdatedBy = &u.UserID
	}
	if req.RouteTypeName != nil {
		if cur.RouteTypeID, err = lookup.RouteTypeID(ctx, tx, *req.RouteTypeName); err != nil {
			return Response{}, err
		}
	}
	if req.DifficultyName != nil {
		if cur.DifficultyID, err = lookup.DifficultyID(ctx, tx, *req.DifficultyName); err != nil {
			return Response{}, err
		}
	}
	if req.LocationName != nil {
		if cur.LocationID, err = lookup.FindOrCreateLocation(ctx, tx, *req.LocationName); err != nil {
			return Response{}, err
		}
	}
	if req.TrailName != nil {
		cur.TrailName = *req.TrailName
	}
	if req.Description != nil {
		cur.Description = *req.Description
	}
	if req.Length != nil {
		cur.Length = *req.Length
	}
	if req.ElevationGain != nil {
		cur.ElevationGain = req.ElevationGain
	}
	if req.EstimatedTime != nil {
		cur.EstimatedTime = req.EstimatedTime
	}

	_, err = tx.Exec(ctx, `
		UPDATE trails
		SET trail_name=$2, description=$3, length=$4, elevation_gain=$5, estimated_time=$6,
		    route_type_id=$7, difficulty_id=$8, location_id=$9, updated_by=$10, updated_at=now()
		WHERE trail_id=$1
	`, cur.TrailID, cur.TrailName, cur.Description, cur.Length, cur.ElevationGain, cur.EstimatedTime,
		cur.RouteTypeID, cur.DifficultyID, cur.LocationID, cur.UpdatedBy)
	if err != nil {
		return Response{}, apperr.FromDB(err, nil)
	}

	if req.Waypoints != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM waypoints WHERE trail_id=$1`, id); err != nil {
			return Response{}, err
		}
		if err := insertWaypoints(ctx, tx, id, req.Waypoints); err != nil {
			return Response{}, err
		}
	}
	if req.Tags != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM trail_trailtags WHERE trail_id=$1`, id); err != nil {
			return Response{}, err
		}
		if err := linkTags(ctx, tx, id, req.Tags); err != nil {
			return Response{}, err
		}
	}
	if req.Photos != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM photos WHERE trail_id=$1`, id); err != nil {
			return Response{}, err
		}
		owner := cur.CreatedBy
		if cur.UpdatedBy != nil {
			owner = *cur.UpdatedBy
		}
		if err := insertPhotos(ctx, tx, id, owner, req.Photos); err != nil {
			return Response{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Response{}, apperr.FromDB(err, nil)
	}
	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (Response, error) {
	return projectTrail(ctx, s.db, id)
}

func (s *Service) List(ctx context.Context) ([]Response, error) {
	rows, err := s.db.Query(ctx, `SELECT trail_id FROM trails ORDER BY trail_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	results := []Response{}
	for _, id := range ids {
		resp, err := projectTrail(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		results = append(results, resp)
	}
	return results, nil
}

// Delete relies on the schema's cascade rules to remove waypoints, tag
// links, photos, activities and user lists owned by the trail.
func (s *Service) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM trails WHERE trail_id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Newf(apperr.KindNotFound, "trail %d not found", id)
	}
	return nil
}

func getTrailRow(ctx context.Context, q db.Querier, id int64) (Trail, error) {
	row := q.QueryRow(ctx, `
		SELECT trail_id, trail_name, COALESCE(description,''), length, elevation_gain, estimated_time,
		       route_type_id, difficulty_id, location_id, created_by, updated_by
		FROM trails WHERE trail_id=$1
	`, id)
	var t Trail
	err := row.Scan(&t.TrailID, &t.TrailName, &t.Description, &t.Length, &t.ElevationGain,
		&t.EstimatedTime, &t.RouteTypeID, &t.DifficultyID, &t.LocationID, &t.CreatedBy, &t.UpdatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return Trail{}, apperr.Newf(apperr.KindNotFound, "trail %d not found", id)
	}
	if err != nil {
		return Trail{}, err
	}
	return t, nil
}

func insertWaypoints(ctx context.Context, q db.Querier, trailID int64, wps []WaypointInput) error {
	for _, wp := range wps {
		_, err := q.Exec(ctx, `
			INSERT INTO waypoints (trail_id, waypoint_name, description, latitude, longitude, sequence_no)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, trailID, wp.WaypointName, wp.Description, wp.Latitude, wp.Longitude, wp.SequenceNo)
		if err != nil {
			return err
		}
	}
	return nil
}

// linkTags deduplicates case-insensitively within the submitted list, then
// find-or-creates each tag before linking it.
func linkTags(ctx context.Context, q db.Querier, trailID int64, names []string) error {
	seen := map[string]struct{}{}
	for _, name := range names {
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		tagID, err := lookup.FindOrCreateTag(ctx, q, name)
		if err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `
			INSERT INTO trail_trailtags (trail_id, trail_tag_id) VALUES ($1,$2)
		`, trailID, tagID); err != nil {
			return err
		}
	}
	return nil
}

func insertPhotos(ctx context.Context, q db.Querier, trailID, userID int64, photos []PhotoInput) error {
	for _, p := range photos {
		_, err := q.Exec(ctx, `
			INSERT INTO photos (user_id, trail_id, photo_url, caption) VALUES ($1,$2,$3,$4)
		`, userID, trailID, p.PhotoURL, p.Caption)
		if err != nil {
			return err
		}
	}
	return nil
}

func userRefInvalid(err error, name string) error {
	if apperr.KindOf(err) == apperr.KindNotFound {
		return apperr.Newf(apperr.KindInvalid, "user '%s' not found", name)
	}
	return err
}

func validateCreate(req CreateRequest) error {
	switch {
	case req.TrailName == "":
		return apperr.New(apperr.KindInvalid, "trail_name required")
	case len(req.TrailName) > 100:
		return apperr.New(apperr.KindInvalid, "trail_name must be at most 100 characters")
	case len(req.Description) > 1000:
		return apperr.New(apperr.KindInvalid, "description must be at most 1000 characters")
	case req.CreatedBy == "":
		return apperr.New(apperr.KindInvalid, "created_by required")
	case req.Length == nil:
		return apperr.New(apperr.KindInvalid, "length required")
	case req.RouteTypeName == "":
		return apperr.New(apperr.KindInvalid, "route_type_name required")
	case req.DifficultyName == "":
		return apperr.New(apperr.KindInvalid, "difficulty_name required")
	case req.LocationName == "":
		return apperr.New(apperr.KindInvalid, "location_name required")
	}
	return validateShared(req.Length, req.ElevationGain, req.EstimatedTime, req.Waypoints, req.Photos)
}

func validateUpdate(req UpdateRequest) error {
	if req.TrailName != nil && (*req.TrailName == "" || len(*req.TrailName) > 100) {
		return apperr.New(apperr.KindInvalid, "trail_name must be 1-100 characters")
	}
	if req.Description != nil && len(*req.Description) > 1000 {
		return apperr.New(apperr.KindInvalid, "description must be at most 1000 characters")
	}
	return validateShared(req.Length, req.ElevationGain, req.EstimatedTime, req.Waypoints, req.Photos)
}

func validateShared(length, elevationGain, estimatedTime *float64, wps []WaypointInput, photos []PhotoInput) error {
	if length != nil && *length < 0 {
		return apperr.New(apperr.KindInvalid, "length must be non-negative")
	}
	if elevationGain != nil && *elevationGain < 0 {
		return apperr.New(apperr.KindInvalid, "elevation_gain must be non-negative")
	}
	if estimatedTime != nil && *estimatedTime < 0 {
		return apperr.New(apperr.KindInvalid, "estimated_time must be non-negative")
	}
	for _, wp := range wps {
		if wp.WaypointName == "" {
			return apperr.New(apperr.KindInvalid, "waypoint_name required for every waypoint")
		}
	}
	for _, p := range photos {
		if p.PhotoURL == "" {
			return apperr.New(apperr.KindInvalid, "photo_url required for every photo")
		}
	}
	return nil
}
