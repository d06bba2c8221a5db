package trail

import "time"

// Trail is the persisted row; name references are resolved to ids before it
// is written and denormalized back to names on output.
type Trail struct {
	TrailID       int64
	TrailName     string
	Description   string
	Length        float64
	ElevationGain *float64
	EstimatedTime *float64
	RouteTypeID   int64
	DifficultyID  int64
	LocationID    int64
	CreatedBy     int64
	UpdatedBy     *int64
}

type WaypointInput struct {
	WaypointName string  `json:"waypoint_name"`
	Description  string  `json:"description"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	SequenceNo   int     `json:"sequence_no"`
}

type PhotoInput struct {
	PhotoURL string `json:"photo_url"`
	Caption  string `json:"caption"`
}

type CreateRequest struct {
	TrailName      string          `json:"trail_name"`
	Description    string          `json:"description"`
	Length         *float64        `json:"length"`
	ElevationGain  *float64        `json:"elevation_gain"`
	EstimatedTime  *float64        `json:"estimated_time"`
	RouteTypeName  string          `json:"route_type_name"`
	DifficultyName string          `json:"difficulty_name"`
	LocationName   string          `json:"location_name"`
	CreatedBy      string          `json:"created_by"`
	Waypoints      []WaypointInput `json:"waypoints"`
	Tags           []string        `json:"tags"`
	Photos         []PhotoInput    `json:"photos"`
}

// UpdateRequest distinguishes absent fields from zero values: nil pointers
// and nil slices leave the stored value or collection untouched.
type UpdateRequest struct {
	TrailName      *string         `json:"trail_name"`
	Description    *string         `json:"description"`
	Length         *float64        `json:"length"`
	ElevationGain  *float64        `json:"elevation_gain"`
	EstimatedTime  *float64        `json:"estimated_time"`
	RouteTypeName  *string         `json:"route_type_name"`
	DifficultyName *string         `json:"difficulty_name"`
	LocationName   *string         `json:"location_name"`
	UpdatedBy      *string         `json:"updated_by"`
	Waypoints      []WaypointInput `json:"waypoints"`
	Tags           []string        `json:"tags"`
	Photos         []PhotoInput    `json:"photos"`
}

type WaypointView struct {
	WaypointName string  `json:"waypoint_name"`
	Description  string  `json:"description"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	SequenceNo   int     `json:"sequence_no"`
}

type PhotoView struct {
	PhotoID   int64     `json:"photo_id"`
	PhotoURL  string    `json:"photo_url"`
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
}

type ActivityView struct {
	ActivityID    int64       `json:"activity_id"`
	UserName      string      `json:"user_name"`
	Length        *float64    `json:"length"`
	ElevationGain *float64    `json:"elevation_gain"`
	MovingTime    *int        `json:"moving_time"`
	TotalTime     *int        `json:"total_time"`
	Calories      *int        `json:"calories"`
	AvgPace       *float64    `json:"avg_pace"`
	Notes         string      `json:"notes"`
	Rating        *int        `json:"rating"`
	Photos        []PhotoView `json:"photos"`
}

type UserListView struct {
	UserListID int64  `json:"user_list_id"`
	UserName   string `json:"user_name"`
	Name       string `json:"name"`
	Visibility string `json:"visibility"`
}

// Response is the external shape: foreign keys replaced by display names,
// nested collections inlined, raw id fields absent.
type Response struct {
	TrailID       int64          `json:"trail_id"`
	TrailName     string         `json:"trail_name"`
	Description   string         `json:"description,omitempty"`
	Length        float64        `json:"length"`
	ElevationGain *float64       `json:"elevation_gain,omitempty"`
	EstimatedTime *float64       `json:"estimated_time,omitempty"`
	RouteType     string         `json:"route_type"`
	Difficulty    string         `json:"difficulty"`
	Location      string         `json:"location"`
	CreatedBy     string         `json:"created_by"`
	AvgRating     *float64       `json:"avg_rating,omitempty"`
	Waypoints     []WaypointView `json:"waypoints"`
	Tags          []string       `json:"tags"`
	Photos        []PhotoView    `json:"photos"`
	Activities    []ActivityView `json:"activities"`
	UserLists     []UserListView `json:"user_lists"`
}
