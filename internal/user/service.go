package user

import (
	"context"

	"backend-trailhub/internal/db"
)

type Service struct {
	db     db.Querier
	mirror *Mirror
}

func NewService(db db.Querier, mirror *Mirror) *Service {
	return &Service{db: db, mirror: mirror}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, username, email, role, created_at
		FROM users ORDER BY user_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.UserID, &u.Username, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// Get resolves through the mirror, so requesting an unknown id imports the
// user from the auth API when it exists there.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.mirror.ResolveID(ctx, s.db, id)
}
