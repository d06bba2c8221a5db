package userlist

type UserList struct {
	UserListID int64
	UserID     int64
	TrailID    *int64
	Name       string
	Visibility string
}

type CreateRequest struct {
	UserName   string `json:"user_name"`
	TrailName  string `json:"trail_name"`
	Name       string `json:"name"`
	Visibility string `json:"visibility"`
}

// UpdateRequest leaves absent fields untouched. An empty trail_name
// detaches the list from its trail.
type UpdateRequest struct {
	UserName   *string `json:"user_name"`
	TrailName  *string `json:"trail_name"`
	Name       *string `json:"name"`
	Visibility *string `json:"visibility"`
}

type Response struct {
	UserListID int64   `json:"user_list_id"`
	UserName   string  `json:"user_name"`
	TrailName  *string `json:"trail_name"`
	Name       string  `json:"name"`
	Visibility string  `json:"visibility"`
}
