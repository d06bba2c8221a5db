package userlist

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

	var trailID *int64
	if req.TrailName != "" {
		id, err := resolveTrailByName(ctx, tx, req.TrailName)
		if err != nil {
			return Response{}, err
		}
		trailID = &id
	}

	var listID int64
	row := tx.QueryRow(ctx, `
		INSERT INTO user_lists (user_id, trail_id, name, visibility)
		VALUES ($1,$2,$3,$4)
		RETURNING user_list_id
	`, u.UserID, trailID, req.Name, req.Visibility)
	if err := row.Scan(&listID); err != nil {
		return Response{}, apperr.FromDB(err, nil)
	}

	if err := tx.Commit(ctx); err != nil {
		return Response{}, apperr.FromDB(err, nil)
	}
	return s.Get(ctx, listID)
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

	cur, err := getListRow(ctx, tx, id)
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
		if *req.TrailName == "" {
			cur.TrailID = nil
		} else {
			trailID, err := resolveTrailByName(ctx, tx, *req.TrailName)
			if err != nil {
				return Response{}, err
			}
			cur.TrailID = &trailID
		}
	}
	if req.Name != nil {
		cur.Name = *req.Name
	}
	if req.Visibility != nil {
		cur.Visibility = *req.Visibility
	}

	_, err = tx.Exec(ctx, `
		UPDATE user_lists
		SET user_id=$2, trail_id=$3, name=$4, visibility=$5, updated_at=now()
		WHERE user_list_id=$1
	`, cur.UserListID, cur.UserID, cur.TrailID, cur.Name, cur.Visibility)
	if err != nil {
		return Response{}, apperr.FromDB(err, nil)
	}

	if err := tx.Commit(ctx); err != nil {
		return Response{}, apperr.FromDB(err, nil)
	}
	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (Response, error) {
	row := s.db.QueryRow(ctx, `
		SELECT ul.user_list_id, u.username, t.trail_name, ul.name, ul.visibility
		FROM user_lists ul
		JOIN users u ON u.user_id = ul.user_id
		LEFT JOIN trails t ON t.trail_id = ul.trail_id
		WHERE ul.user_list_id=$1
	`, id)

	var resp Response
	err := row.Scan(&resp.UserListID, &resp.UserName, &resp.TrailName, &resp.Name, &resp.Visibility)
	if errors.Is(err, pgx.ErrNoRows) {
		return Response{}, apperr.Newf(apperr.KindNotFound, "user list %d not found", id)
	}
	if err != nil {
		return Response{}, err
	}
	return resp, nil
}

func (s *Service) List(ctx context.Context) ([]Response, error) {
	rows, err := s.db.Query(ctx, `
		SELECT ul.user_list_id, u.username, t.trail_name, ul.name, ul.visibility
		FROM user_lists ul
		JOIN users u ON u.user_id = ul.user_id
		LEFT JOIN trails t ON t.trail_id = ul.trail_id
		ORDER BY ul.user_list_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []Response{}
	for rows.Next() {
		var resp Response
		if err := rows.Scan(&resp.UserListID, &resp.UserName, &resp.TrailName, &resp.Name, &resp.Visibility); err != nil {
			return nil, err
		}
		results = append(results, resp)
	}
	return results, rows.Err()
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM user_lists WHERE user_list_id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Newf(apperr.KindNotFound, "user list %d not found", id)
	}
	return nil
}

func getListRow(ctx context.Context, q db.Querier, id int64) (UserList, error) {
	row := q.QueryRow(ctx, `
		SELECT user_list_id, user_id, trail_id, name, visibility
		FROM user_lists WHERE user_list_id=$1
	`, id)
	var ul UserList
	err := row.Scan(&ul.UserListID, &ul.UserID, &ul.TrailID, &ul.Name, &ul.Visibility)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserList{}, apperr.Newf(apperr.KindNotFound, "user list %d not found", id)
	}
	if err != nil {
		return UserList{}, err
	}
	return ul, nil
}

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

func validateCreate(req CreateRequest) error {
	switch {
	case req.UserName == "":
		return apperr.New(apperr.KindInvalid, "user_name required")
	case req.Name == "":
		return apperr.New(apperr.KindInvalid, "name required")
	case len(req.Name) > 100:
		return apperr.New(apperr.KindInvalid, "name must be at most 100 characters")
	case !visibilities[req.Visibility]:
		return apperr.New(apperr.KindInvalid, "visibility must be one of: public, private, friends")
	}
	return nil
}

func validateUpdate(req UpdateRequest) error {
	if req.Name != nil && (*req.Name == "" || len(*req.Name) > 100) {
		return apperr.New(apperr.KindInvalid, "name must be between 1 and 100 characters")
	}
	if req.Visibility != nil && !visibilities[*req.Visibility] {
		return apperr.New(apperr.KindInvalid, "visibility must be one of: public, private, friends")
	}
	return nil
}
