package activity

import "time"

type Activity struct {
	ActivityID    int64
	UserID        int64
	TrailID       int64
	Length        *float64
	ElevationGain *float64
	MovingTime    *int
	TotalTime     *int
	Calories      *int
	AvgPace       *float64
	Notes         string
	Rating        *int
	Visibility    string
}

type PhotoInput struct {
	PhotoURL string `json:"photo_url"`
	Caption  string `json:"caption"`
}

type PhotoView struct {
	PhotoID   int64     `json:"photo_id"`
	PhotoURL  string    `json:"photo_url"`
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateRequest struct {
	UserName      string       `json:"user_name"`
	TrailName     string       `json:"trail_name"`
	Length        *float64     `json:"length"`
	ElevationGain *float64     `json:"elevation_gain"`
	MovingTime    *int         `json:"moving_time"`
	TotalTime     *int         `json:"total_time"`
	Calories      *int         `json:"calories"`
	AvgPace       *float64     `json:"avg_pace"`
	Notes         string       `json:"notes"`
	Rating        *int         `json:"rating"`
	Visibility    string       `json:"visibility"`
	Photos        []PhotoInput `json:"photos"`
}

// UpdateRequest leaves absent fields untouched; a nil Photos slice keeps
// the existing photo collection.
type UpdateRequest struct {
	UserName      *string      `json:"user_name"`
	TrailName     *string      `json:"trail_name"`
	Length        *float64     `json:"length"`
	ElevationGain *float64     `json:"elevation_gain"`
	MovingTime    *int         `json:"moving_time"`
	TotalTime     *int         `json:"total_time"`
	Calories      *int         `json:"calories"`
	AvgPace       *float64     `json:"avg_pace"`
	Notes         *string      `json:"notes"`
	Rating        *int         `json:"rating"`
	Visibility    *string      `json:"visibility"`
	Photos        []PhotoInput `json:"photos"`
}

type Response struct {
	ActivityID    int64       `json:"activity_id"`
	UserName      string      `json:"user_name"`
	TrailName     string      `json:"trail_name"`
	Length        *float64    `json:"length"`
	ElevationGain *float64    `json:"elevation_gain"`
	MovingTime    *int        `json:"moving_time"`
	TotalTime     *int        `json:"total_time"`
	Calories      *int        `json:"calories"`
	AvgPace       *float64    `json:"avg_pace"`
	Notes         string      `json:"notes,omitempty"`
	Rating        *int        `json:"rating,omitempty"`
	Visibility    string      `json:"visibility"`
	Photos        []PhotoView `json:"photos"`
}
