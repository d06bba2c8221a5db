package activity

import (
	"context"
	"errors"

	"backend-trailhub/internal/apperr"
	"backend-trailhub/internal/db"
	"backend-trailhub/internal/user"

	"github.com/jackc/pgx/v5"
)

var visibilities = map[string]bool{"public": true, "private": true, "friends": true}

type Service struct {
	db     db.TxQuerier
	mirror *user.Mirror
}

func NewService(db db.TxQuerier, mirror *user.Mirror) *Service {
	return &Service{db: db, mirror: mirror}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Response, error) {
	if req.Visibility == "" {
		req.Visibility = "public"
	}
	if err := validateCreate(req); err != nil {
		return Response{}, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Response{}, err
	}
	defer tx.Rollback(ctx)

	u, err := s.mirror.ResolveUsername(ctx, tx, req.UserName)
	if err != nil {
		return Response{}, err
	}
	trailID, err := resolveTrailByName(ctx, tx, req.TrailName)
	if err != nil {
		return Response{}, err
	}

	var activityID int64
	row := tx.QueryRow(ctx, `
		INSERT INTO activities (user_id, trail_id, length, elevation_gain, moving_time,
		                        total_time, calories, avg_pace, notes, rating, visibility)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING activity_id
	`, u.UserID, trailID, req.Length, req.ElevationGain, req.MovingTime,
		req.TotalTime, req.Calories, req.AvgPace, req.Notes, req.Rating, req.Visibility)
	if err := row.Scan(&activityID); err != nil {
		return Response{}, apperr.FromDB(err, nil)
	}

	if err := insertPhotos(ctx, tx, activityID, u.UserID, req.Photos); err != nil {
		return Response{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Response{}, apperr.FromDB(err, nil)
	}
	return s.Get(ctx, activityID)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (Response, error) {
	if err := validateUpdate(req); err != nil {
		return Response{}, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Response{}, err
	}
	defer tx.Rollback(ctx)

	cur, err := getActivityRow(ctx, tx, id)
	if err != nil {
		return Response{}, err
	}

	if req.UserName != nil {
		u, err := s.mirror.ResolveUsername(ctx, tx, *req.UserName)
		if err != nil {
			return Response{}, err
		}
		cur.UserID = u.UserID
	}
	if req.TrailName != nil {
		if cur.TrailID, err = resolveTrailByName(ctx, tx, *req.TrailName); err != nil {
			return Response{}, err
		}
	}
	if req.Length != nil {
		cur.Length = req.Length
	}
	if req.ElevationGain != nil {
		cur.ElevationGain = req.ElevationGain
	}
	if req.MovingTime != nil {
		cur.MovingTime = req.MovingTime
	}
	if req.TotalTime != nil {
		cur.TotalTime = req.TotalTime
	}
	if req.Calories != nil {
		cur.Calories = req.Calories
	}
	if req.AvgPace != nil {
		cur.AvgPace = req.AvgPace
	}
	if req.Notes != nil {
		cur.Notes = *req.Notes
	}
	if req.Rating != nil {
		cur.Rating = req.Rating
	}
	if req.Visibility != nil {
		cur.Visibility = *req.Visibility
	}

	_, err = tx.Exec(ctx, `
		UPDATE activities
		SET user_id=$2, trail_id=$3, length=$4, elevation_gain=$5, moving_time=$6,
		    total_time=$7, calories=$8, avg_pace=$9, notes=$10, rating=$11, visibility=$12,
		    updated_at=now()
		WHERE activity_id=$1
	`, cur.ActivityID, cur.UserID, cur.TrailID, cur.Length, cur.ElevationGain, cur.MovingTime,
		cur.TotalTime, cur.Calories, cur.AvgPace, cur.Notes, cur.Rating, cur.Visibility)
	if err != nil {
		return Response{}, apperr.FromDB(err, nil)
	}

	if req.Photos != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM photos WHERE activity_id=$1`, id); err != nil {
			return Response{}, err
		}
		if err := insertPhotos(ctx, tx, id, cur.UserID, req.Photos); err != nil {
			return Response{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Response{}, apperr.FromDB(err, nil)
	}
	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (Response, error) {
	return project(ctx, s.db, id)
}

func (s *Service) List(ctx context.Context) ([]Response, error) {
	rows, err := s.db.Query(ctx, `SELECT activity_id FROM activities ORDER BY activity_id`)
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
		resp, err := project(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		results = append(results, resp)
	}
	return results, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM photos WHERE activity_id=$1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM activities WHERE activity_id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Newf(apperr.KindNotFound, "activity %d not found", id)
	}
	return tx.Commit(ctx)
}

func getActivityRow(ctx context.Context, q db.Querier, id int64) (Activity, error) {
	row := q.QueryRow(ctx, `
		SELECT activity_id, user_id, trail_id, length, elevation_gain, moving_time,
		       total_time, calories, avg_pace, COALESCE(notes,''), rating, visibility
		FROM activities WHERE activity_id=$1
	`, id)
	var a Activity
	err := row.Scan(&a.ActivityID, &a.UserID, &a.TrailID, &a.Length, &a.ElevationGain, &a.MovingTime,
		&a.TotalTime, &a.Calories, &a.AvgPace, &a.Notes, &a.Rating, &a.Visibility)
	if errors.Is(err, pgx.ErrNoRows) {
		return Activity{}, apperr.Newf(apperr.KindNotFound, "activity %d not found", id)
	}
	if err != nil {
		return Activity{}, err
	}
	return a, nil
}

// Trails are never auto-created as a side effect of referencing them.
func resolveTrailByName(ctx context.Context, q db.Querier, name string) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `SELECT trail_id FROM trails WHERE LOWER(trail_name)=LOWER($1)`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.Newf(apperr.KindNotFound, "trail '%s' not found", name)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func project(ctx context.Context, q db.Querier, id int64) (Response, error) {
	row := q.QueryRow(ctx, `
		SELECT a.activity_id, u.username, t.trail_name, a.length, a.elevation_gain, a.moving_time,
		       a.total_time, a.calories, a.avg_pace, COALESCE(a.notes,''), a.rating, a.visibility
		FROM activities a
		JOIN users u ON u.user_id = a.user_id
		JOIN trails t ON t.trail_id = a.trail_id
		WHERE a.activity_id=$1
	`, id)

	var resp Response
	err := row.Scan(&resp.ActivityID, &resp.UserName, &resp.TrailName, &resp.Length, &resp.ElevationGain,
		&resp.MovingTime, &resp.TotalTime, &resp.Calories, &resp.AvgPace, &resp.Notes, &resp.Rating, &resp.Visibility)
	if errors.Is(err, pgx.ErrNoRows) {
		return Response{}, apperr.Newf(apperr.KindNotFound, "activity %d not found", id)
	}
	if err != nil {
		return Response{}, err
	}

	rows, err := q.Query(ctx, `
		SELECT photo_id, photo_url, COALESCE(caption,''), created_at
		FROM photos WHERE activity_id=$1 ORDER BY photo_id
	`, id)
	if err != nil {
		return Response{}, err
	}
	defer rows.Close()

	resp.Photos = []PhotoView{}
	for rows.Next() {
		var p PhotoView
		if err := rows.Scan(&p.PhotoID, &p.PhotoURL, &p.Caption, &p.CreatedAt); err != nil {
			return Response{}, err
		}
		resp.Photos = append(resp.Photos, p)
	}
	return resp, rows.Err()
}

func insertPhotos(ctx context.Context, q db.Querier, activityID, userID int64, photos []PhotoInput) error {
	for _, p := range photos {
		_, err := q.Exec(ctx, `
			INSERT INTO photos (user_id, activity_id, photo_url, caption) VALUES ($1,$2,$3,$4)
		`, userID, activityID, p.PhotoURL, p.Caption)
		if err != nil {
			return err
		}
	}
	return nil
}

func validateCreate(req CreateRequest) error {
	switch {
	case req.UserName == "":
		return apperr.New(apperr.KindInvalid, "user_name required")
	case req.TrailName == "":
		return apperr.New(apperr.KindInvalid, "trail_name required")
	case req.Length == nil:
		return apperr.New(apperr.KindInvalid, "length required")
	case req.MovingTime == nil:
		return apperr.New(apperr.KindInvalid, "moving_time required")
	case req.TotalTime == nil:
		return apperr.New(apperr.KindInvalid, "total_time required")
	}
	return validateFields(req.Length, req.ElevationGain, req.AvgPace, req.MovingTime, req.TotalTime,
		req.Calories, req.Rating, &req.Notes, &req.Visibility, req.Photos)
}

func validateUpdate(req UpdateRequest) error {
	return validateFields(req.Length, req.ElevationGain, req.AvgPace, req.MovingTime, req.TotalTime,
		req.Calories, req.Rating, req.Notes, req.Visibility, req.Photos)
}

func validateFields(length, elevationGain, avgPace *float64, movingTime, totalTime, calories, rating *int,
	notes, visibility *string, photos []PhotoInput) error {
	for _, f := range []*float64{length, elevationGain, avgPace} {
		if f != nil && *f < 0 {
			return apperr.New(apperr.KindInvalid, "numeric fields must be non-negative")
		}
	}
	for _, n := range []*int{movingTime, totalTime, calories} {
		if n != nil && *n < 0 {
			return apperr.New(apperr.KindInvalid, "time and calorie fields must be non-negative")
		}
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return apperr.New(apperr.KindInvalid, "rating must be between 1 and 5")
	}
	if notes != nil && len(*notes) > 500 {
		return apperr.New(apperr.KindInvalid, "notes must be at most 500 characters")
	}
	if visibility != nil && !visibilities[*visibility] {
		return apperr.New(apperr.KindInvalid, "visibility must be one of: public, private, friends")
	}
	for _, p := range photos {
		if p.PhotoURL == "" {
			return apperr.New(apperr.KindInvalid, "photo_url required for every photo")
		}
	}
	return nil
}
