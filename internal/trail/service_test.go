package trail

import (
	"context"
	"testing"
	"time"

	"backend-trailhub/internal/apperr"
	"backend-trailhub/internal/identity"
	"backend-trailhub/internal/user"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
)

type fakeProvider struct {
	byName map[string]identity.Record
}

func (f fakeProvider) LookupByID(_ context.Context, id int64) (identity.Record, error) {
	return identity.Record{}, apperr.Newf(apperr.KindNotFound, "user %d not found", id)
}

func (f fakeProvider) LookupByUsername(_ context.Context, username string) (identity.Record, error) {
	rec, ok := f.byName[username]
	if !ok {
		return identity.Record{}, apperr.Newf(apperr.KindNotFound, "user '%s' not found", username)
	}
	return rec, nil
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	return mock
}

func newService(mock pgxmock.PgxPoolIface) *Service {
	return NewService(mock, user.NewMirror(fakeProvider{}))
}

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }

func expectUserSelect(mock pgxmock.PgxPoolIface, username string, id int64) {
	mock.ExpectQuery(`SELECT user_id, username, email, role, created_at`).
		WithArgs(username).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "username", "email", "role", "created_at"}).
			AddRow(id, username, username+"@example.com", "user", time.Now()))
}

func expectProjection(mock pgxmock.PgxPoolIface, trailID int64, name string) {
	mock.ExpectQuery(`SELECT t\.trail_id, t\.trail_name`).
		WithArgs(trailID).
		WillReturnRows(pgxmock.NewRows([]string{"trail_id", "trail_name", "description", "length",
			"elevation_gain", "estimated_time", "route_type_name", "difficulty_name", "location_name", "username"}).
			AddRow(trailID, name, "A gentle hill circuit.", 4.0, nil, nil, "Loop", "Easy", "New Park", "Ada"))
	mock.ExpectQuery(`SELECT waypoint_name`).
		WithArgs(trailID).
		WillReturnRows(pgxmock.NewRows([]string{"waypoint_name", "description", "latitude", "longitude", "sequence_no"}).
			AddRow("Start", "", 3.1408, 101.6869, 1).
			AddRow("Summit", "", 3.1410, 101.6871, 2))
	mock.ExpectQuery(`SELECT tt\.trail_tag_name`).
		WithArgs(trailID).
		WillReturnRows(pgxmock.NewRows([]string{"trail_tag_name"}).AddRow("Scenic"))
	mock.ExpectQuery(`SELECT photo_id, photo_url`).
		WithArgs(trailID).
		WillReturnRows(pgxmock.NewRows([]string{"photo_id", "photo_url", "caption", "created_at"}))
	mock.ExpectQuery(`SELECT a\.activity_id, u\.username`).
		WithArgs(trailID).
		WillReturnRows(pgxmock.NewRows([]string{"activity_id", "username", "length", "elevation_gain",
			"moving_time", "total_time", "calories", "avg_pace", "notes", "rating"}))
	mock.ExpectQuery(`SELECT ul\.user_list_id`).
		WithArgs(trailID).
		WillReturnRows(pgxmock.NewRows([]string{"user_list_id", "username", "name", "visibility"}))
}

func TestCreateTrailResolvesNamesAndSyncsChildren(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectBegin()
	expectUserSelect(mock, "Ada", 1)
	mock.ExpectQuery(`SELECT route_type_id FROM route_types`).
		WithArgs("Loop").
		WillReturnRows(pgxmock.NewRows([]string{"route_type_id"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT difficulty_id FROM difficulties`).
		WithArgs("Easy").
		WillReturnRows(pgxmock.NewRows([]string{"difficulty_id"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT location_id FROM locations`).
		WithArgs("New Park").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO locations`).
		WithArgs("New Park").
		WillReturnRows(pgxmock.NewRows([]string{"location_id"}).AddRow(int64(3)))
	mock.ExpectQuery(`INSERT INTO trails`).
		WithArgs("Hill Loop", "A gentle hill circuit.", 4.0, pgxmock.AnyArg(), pgxmock.AnyArg(), int64(1), int64(1), int64(3), int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"trail_id"}).AddRow(int64(10)))
	mock.ExpectExec(`INSERT INTO waypoints`).
		WithArgs(int64(10), "Start", "", 3.1408, 101.6869, 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO waypoints`).
		WithArgs(int64(10), "Summit", "", 3.1410, 101.6871, 2).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT trail_tag_id FROM trail_tags`).
		WithArgs("Scenic").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO trail_tags`).
		WithArgs("Scenic").
		WillReturnRows(pgxmock.NewRows([]string{"trail_tag_id"}).AddRow(int64(1)))
	mock.ExpectExec(`INSERT INTO trail_trailtags`).
		WithArgs(int64(10), int64(1)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	expectProjection(mock, 10, "Hill Loop")

	svc := newService(mock)
	resp, err := svc.Create(context.Background(), CreateRequest{
		TrailName:      "Hill Loop",
		Description:    "A gentle hill circuit.",
		Length:         floatPtr(4.0),
		RouteTypeName:  "Loop",
		DifficultyName: "Easy",
		LocationName:   "New Park",
		CreatedBy:      "Ada",
		Waypoints: []WaypointInput{
			{WaypointName: "Start", Latitude: 3.1408, Longitude: 101.6869, SequenceNo: 1},
			{WaypointName: "Summit", Latitude: 3.1410, Longitude: 101.6871, SequenceNo: 2},
		},
		Tags: []string{"Scenic", "scenic"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.RouteType != "Loop" || resp.Difficulty != "Easy" || resp.Location != "New Park" || resp.CreatedBy != "Ada" {
		t.Fatalf("unexpected projection: %+v", resp)
	}
	if len(resp.Waypoints) != 2 || resp.Waypoints[0].SequenceNo != 1 || resp.Waypoints[1].SequenceNo != 2 {
		t.Fatalf("unexpected waypoints: %+v", resp.Waypoints)
	}
	if len(resp.Tags) != 1 || resp.Tags[0] != "Scenic" {
		t.Fatalf("unexpected tags: %+v", resp.Tags)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateTrailKeepsFractionalEstimatedTime(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectBegin()
	expectUserSelect(mock, "Ada", 1)
	mock.ExpectQuery(`SELECT route_type_id FROM route_types`).
		WithArgs("Loop").
		WillReturnRows(pgxmock.NewRows([]string{"route_type_id"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT difficulty_id FROM difficulties`).
		WithArgs("Easy").
		WillReturnRows(pgxmock.NewRows([]string{"difficulty_id"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT location_id FROM locations`).
		WithArgs("New Park").
		WillReturnRows(pgxmock.NewRows([]string{"location_id"}).AddRow(int64(3)))
	mock.ExpectQuery(`INSERT INTO trails`).
		WithArgs("Hill Loop", "", 4.0, pgxmock.AnyArg(), pgxmock.AnyArg(), int64(1), int64(1), int64(3), int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"trail_id"}).AddRow(int64(10)))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT t\.trail_id, t\.trail_name`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"trail_id", "trail_name", "description", "length",
			"elevation_gain", "estimated_time", "route_type_name", "difficulty_name", "location_name", "username"}).
			AddRow(int64(10), "Hill Loop", "", 4.0, nil, floatPtr(2.5), "Loop", "Easy", "New Park", "Ada"))
	mock.ExpectQuery(`SELECT waypoint_name`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"waypoint_name", "description", "latitude", "longitude", "sequence_no"}))
	mock.ExpectQuery(`SELECT tt\.trail_tag_name`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"trail_tag_name"}))
	mock.ExpectQuery(`SELECT photo_id, photo_url`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"photo_id", "photo_url", "caption", "created_at"}))
	mock.ExpectQuery(`SELECT a\.activity_id, u\.username`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"activity_id", "username", "length", "elevation_gain",
			"moving_time", "total_time", "calories", "avg_pace", "notes", "rating"}))
	mock.ExpectQuery(`SELECT ul\.user_list_id`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"user_list_id", "username", "name", "visibility"}))

	svc := newService(mock)
	resp, err := svc.Create(context.Background(), CreateRequest{
		TrailName:      "Hill Loop",
		Length:         floatPtr(4.0),
		EstimatedTime:  floatPtr(2.5),
		RouteTypeName:  "Loop",
		DifficultyName: "Easy",
		LocationName:   "New Park",
		CreatedBy:      "Ada",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.EstimatedTime == nil || *resp.EstimatedTime != 2.5 {
		t.Fatalf("fractional estimated time lost: %v", resp.EstimatedTime)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateTrailDuplicateNameIsConflict(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectBegin()
	expectUserSelect(mock, "Ada", 1)
	mock.ExpectQuery(`SELECT route_type_id FROM route_types`).
		WithArgs("Loop").
		WillReturnRows(pgxmock.NewRows([]string{"route_type_id"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT difficulty_id FROM difficulties`).
		WithArgs("Easy").
		WillReturnRows(pgxmock.NewRows([]string{"difficulty_id"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT location_id FROM locations`).
		WithArgs("New Park").
		WillReturnRows(pgxmock.NewRows([]string{"location_id"}).AddRow(int64(3)))
	mock.ExpectQuery(`INSERT INTO trails`).
		WithArgs("Hill Loop", "", 4.0, pgxmock.AnyArg(), pgxmock.AnyArg(), int64(1), int64(1), int64(3), int64(1)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "trails_trail_name_key"})
	mock.ExpectRollback()

	svc := newService(mock)
	_, err := svc.Create(context.Background(), CreateRequest{
		TrailName:      "Hill Loop",
		Length:         floatPtr(4.0),
		RouteTypeName:  "Loop",
		DifficultyName: "Easy",
		LocationName:   "New Park",
		CreatedBy:      "Ada",
	})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateTrailUnknownUserRejectedBeforeWrite(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id, username, email, role, created_at`).
		WithArgs("Nonexistent User").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	svc := newService(mock)
	_, err := svc.Create(context.Background(), CreateRequest{
		TrailName:      "Hill Loop",
		Length:         floatPtr(4.0),
		RouteTypeName:  "Loop",
		DifficultyName: "Easy",
		LocationName:   "New Park",
		CreatedBy:      "Nonexistent User",
	})
	if apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("expected invalid, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no trail insert expected: %v", err)
	}
}

func TestCreateTrailBadRouteType(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectBegin()
	expectUserSelect(mock, "Ada", 1)
	mock.ExpectRollback()

	svc := newService(mock)
	_, err := svc.Create(context.Background(), CreateRequest{
		TrailName:      "Hill Loop",
		Length:         floatPtr(4.0),
		RouteTypeName:  "Spiral",
		DifficultyName: "Easy",
		LocationName:   "New Park",
		CreatedBy:      "Ada",
	})
	if apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestCreateTrailValidation(t *testing.T) {
	svc := newService(nil)
	cases := []CreateRequest{
		{},
		{TrailName: "T"},
		{TrailName: "T", CreatedBy: "Ada"},
		{TrailName: "T", CreatedBy: "Ada", Length: floatPtr(-1), RouteTypeName: "Loop", DifficultyName: "Easy", LocationName: "X"},
		{TrailName: "T", CreatedBy: "Ada", Length: floatPtr(1), RouteTypeName: "Loop", DifficultyName: "Easy", LocationName: "X",
			Waypoints: []WaypointInput{{Latitude: 1, Longitude: 1, SequenceNo: 1}}},
		{TrailName: "T", CreatedBy: "Ada", Length: floatPtr(1), RouteTypeName: "Loop", DifficultyName: "Easy", LocationName: "X",
			Photos: []PhotoInput{{Caption: "no url"}}},
	}
	for i, req := range cases {
		if _, err := svc.Create(context.Background(), req); apperr.KindOf(err) != apperr.KindInvalid {
			t.Fatalf("case %d: expected invalid, got %v", i, err)
		}
	}
}

func TestUpdateTrailReplacesWaypoints(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT trail_id, trail_name`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"trail_id", "trail_name", "description", "length",
			"elevation_gain", "estimated_time", "route_type_id", "difficulty_id", "location_id", "created_by", "updated_by"}).
			AddRow(int64(10), "Hill Loop", "A gentle hill circuit.", 4.0, nil, nil, int64(1), int64(1), int64(3), int64(1), nil))
	mock.ExpectExec(`UPDATE trails`).
		WithArgs(int64(10), "Hill Loop", "A gentle hill circuit.", 4.0, pgxmock.AnyArg(), pgxmock.AnyArg(), int64(1), int64(1), int64(3), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM waypoints`).
		WithArgs(int64(10)).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`INSERT INTO waypoints`).
		WithArgs(int64(10), "New Start", "", 1.0, 2.0, 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	expectProjection(mock, 10, "Hill Loop")

	svc := newService(mock)
	_, err := svc.Update(context.Background(), 10, UpdateRequest{
		Waypoints: []WaypointInput{{WaypointName: "New Start", Latitude: 1.0, Longitude: 2.0, SequenceNo: 1}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateTrailScalarPatchAndUpdatedBy(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT trail_id, trail_name`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"trail_id", "trail_name", "description", "length",
			"elevation_gain", "estimated_time", "route_type_id", "difficulty_id", "location_id", "created_by", "updated_by"}).
			AddRow(int64(10), "Hill Loop", "", 4.0, nil, nil, int64(1), int64(1), int64(3), int64(1), nil))
	expectUserSelect(mock, "Grace", 2)
	mock.ExpectExec(`UPDATE trails`).
		WithArgs(int64(10), "Hill Loop", "", 5.5, pgxmock.AnyArg(), pgxmock.AnyArg(), int64(1), int64(1), int64(3), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	expectProjection(mock, 10, "Hill Loop")

	svc := newService(mock)
	_, err := svc.Update(context.Background(), 10, UpdateRequest{
		Length:    floatPtr(5.5),
		UpdatedBy: strPtr("Grace"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateTrailNotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT trail_id, trail_name`).
		WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	svc := newService(mock)
	if _, err := svc.Update(context.Background(), 99, UpdateRequest{}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteTrail(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM trails`).
		WithArgs(int64(10)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	svc := newService(mock)
	if err := svc.Delete(context.Background(), 10); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mock.ExpectExec(`DELETE FROM trails`).
		WithArgs(int64(99)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	if err := svc.Delete(context.Background(), 99); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListTrails(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT trail_id FROM trails`).
		WillReturnRows(pgxmock.NewRows([]string{"trail_id"}).AddRow(int64(10)))
	expectProjection(mock, 10, "Hill Loop")

	svc := newService(mock)
	trails, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(trails) != 1 || trails[0].TrailName != "Hill Loop" {
		t.Fatalf("unexpected trails: %+v", trails)
	}
}

func TestProjectionFiltersPrivateActivities(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT t\.trail_id, t\.trail_name`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"trail_id", "trail_name", "description", "length",
			"elevation_gain", "estimated_time", "route_type_name", "difficulty_name", "location_name", "username"}).
			AddRow(int64(10), "Hill Loop", "", 4.0, nil, nil, "Loop", "Easy", "New Park", "Ada"))
	mock.ExpectQuery(`SELECT waypoint_name`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"waypoint_name", "description", "latitude", "longitude", "sequence_no"}))
	mock.ExpectQuery(`SELECT tt\.trail_tag_name`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"trail_tag_name"}))
	mock.ExpectQuery(`SELECT photo_id, photo_url`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"photo_id", "photo_url", "caption", "created_at"}))
	// the query itself carries visibility='public'; only public rows come back
	rating := 4
	mock.ExpectQuery(`visibility='public'`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"activity_id", "username", "length", "elevation_gain",
			"moving_time", "total_time", "calories", "avg_pace", "notes", "rating"}).
			AddRow(int64(5), "Grace", floatPtr(4.0), nil, nil, nil, nil, nil, "", &rating))
	mock.ExpectQuery(`SELECT photo_id, photo_url`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"photo_id", "photo_url", "caption", "created_at"}).
			AddRow(int64(1), "https://cdn.example.com/p.jpg", "summit", time.Now()))
	mock.ExpectQuery(`SELECT ul\.user_list_id`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"user_list_id", "username", "name", "visibility"}))

	svc := newService(mock)
	resp, err := svc.Get(context.Background(), 10)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(resp.Activities) != 1 || resp.Activities[0].UserName != "Grace" {
		t.Fatalf("unexpected activities: %+v", resp.Activities)
	}
	if len(resp.Activities[0].Photos) != 1 {
		t.Fatalf("expected activity photo")
	}
	if resp.AvgRating == nil || *resp.AvgRating != 4.0 {
		t.Fatalf("unexpected avg rating: %v", resp.AvgRating)
	}
}
