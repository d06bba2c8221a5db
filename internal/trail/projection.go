package trail

import (
	"context"
	"errors"

	"backend-trailhub/internal/apperr"
	"backend-trailhub/internal/db"

	"github.com/jackc/pgx/v5"
)

// projectTrail builds the external representation: foreign keys swapped for
// display names, nested collections attached, raw ids stripped. Only public
// activities appear in trail views; this is a display filter, not an access
// control boundary (GET /activities/:id still serves private ones).
func projectTrail(ctx context.Context, q db.Querier, id int64) (Response, error) {
	row := q.QueryRow(ctx, `
		SELECT t.trail_id, t.trail_name, COALESCE(t.description,''), t.length,
		       t.elevation_gain, t.estimated_time,
		       rt.route_type_name, d.difficulty_name, l.location_name, u.username
		FROM trails t
		JOIN route_types rt ON rt.route_type_id = t.route_type_id
		JOIN difficulties d ON d.difficulty_id = t.difficulty_id
		JOIN locations l ON l.location_id = t.location_id
		JOIN users u ON u.user_id = t.created_by
		WHERE t.trail_id=$1
	`, id)

	var resp Response
	err := row.Scan(&resp.TrailID, &resp.TrailName, &resp.Description, &resp.Length,
		&resp.ElevationGain, &resp.EstimatedTime,
		&resp.RouteType, &resp.Difficulty, &resp.Location, &resp.CreatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return Response{}, apperr.Newf(apperr.KindNotFound, "trail %d not found", id)
	}
	if err != nil {
		return Response{}, err
	}

	if resp.Waypoints, err = loadWaypoints(ctx, q, id); err != nil {
		return Response{}, err
	}
	if resp.Tags, err = loadTags(ctx, q, id); err != nil {
		return Response{}, err
	}
	if resp.Photos, err = loadPhotos(ctx, q, `SELECT photo_id, photo_url, COALESCE(caption,''), created_at FROM photos WHERE trail_id=$1 ORDER BY photo_id`, id); err != nil {
		return Response{}, err
	}
	if resp.Activities, err = loadPublicActivities(ctx, q, id); err != nil {
		return Response{}, err
	}
	if resp.UserLists, err = loadUserLists(ctx, q, id); err != nil {
		return Response{}, err
	}
	resp.AvgRating = averageRating(resp.Activities)
	return resp, nil
}

func loadWaypoints(ctx context.Context, q db.Querier, trailID int64) ([]WaypointView, error) {
	rows, err := q.Query(ctx, `
		SELECT waypoint_name, COALESCE(description,''), latitude, longitude, sequence_no
		FROM waypoints WHERE trail_id=$1
		ORDER BY sequence_no
	`, trailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	waypoints := []WaypointView{}
	for rows.Next() {
		var wp WaypointView
		if err := rows.Scan(&wp.WaypointName, &wp.Description, &wp.Latitude, &wp.Longitude, &wp.SequenceNo); err != nil {
			return nil, err
		}
		waypoints = append(waypoints, wp)
	}
	return waypoints, rows.Err()
}

func loadTags(ctx context.Context, q db.Querier, trailID int64) ([]string, error) {
	rows, err := q.Query(ctx, `
		SELECT tt.trail_tag_name
		FROM trail_trailtags l
		JOIN trail_tags tt ON tt.trail_tag_id = l.trail_tag_id
		WHERE l.trail_id=$1
		ORDER BY tt.trail_tag_name
	`, trailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tags = append(tags, name)
	}
	return tags, rows.Err()
}

func loadPhotos(ctx context.Context, q db.Querier, sql string, ownerID int64) ([]PhotoView, error) {
	rows, err := q.Query(ctx, sql, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos := []PhotoView{}
	for rows.Next() {
		var p PhotoView
		if err := rows.Scan(&p.PhotoID, &p.PhotoURL, &p.Caption, &p.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func loadPublicActivities(ctx context.Context, q db.Querier, trailID int64) ([]ActivityView, error) {
	rows, err := q.Query(ctx, `
		SELECT a.activity_id, u.username, a.length, a.elevation_gain, a.moving_time,
		       a.total_time, a.calories, a.avg_pace, COALESCE(a.notes,''), a.rating
		FROM activities a
		JOIN users u ON u.user_id = a.user_id
		WHERE a.trail_id=$1 AND a.visibility='public'
		ORDER BY a.activity_id
	`, trailID)
	if err != nil {
		return nil, err
	}

	activities := []ActivityView{}
	for rows.Next() {
		var a ActivityView
		if err := rows.Scan(&a.ActivityID, &a.UserName, &a.Length, &a.ElevationGain, &a.MovingTime,
			&a.TotalTime, &a.Calories, &a.AvgPace, &a.Notes, &a.Rating); err != nil {
			rows.Close()
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range activities {
		photos, err := loadPhotos(ctx, q, `SELECT photo_id, photo_url, COALESCE(caption,''), created_at FROM photos WHERE activity_id=$1 ORDER BY photo_id`, activities[i].ActivityID)
		if err != nil {
			return nil, err
		}
		activities[i].Photos = photos
	}
	return activities, nil
}

func loadUserLists(ctx context.Context, q db.Querier, trailID int64) ([]UserListView, error) {
	rows, err := q.Query(ctx, `
		SELECT ul.user_list_id, u.username, ul.name, ul.visibility
		FROM user_lists ul
		JOIN users u ON u.user_id = ul.user_id
		WHERE ul.trail_id=$1
		ORDER BY ul.user_list_id
	`, trailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lists := []UserListView{}
	for rows.Next() {
		var ul UserListView
		if err := rows.Scan(&ul.UserListID, &ul.UserName, &ul.Name, &ul.Visibility); err != nil {
			return nil, err
		}
		lists = append(lists, ul)
	}
	return lists, rows.Err()
}

func averageRating(activities []ActivityView) *float64 {
	var sum, n float64
	for _, a := range activities {
		if a.Rating != nil {
			sum += float64(*a.Rating)
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / n
	return &avg
}
