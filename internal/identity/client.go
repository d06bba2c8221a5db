package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"backend-trailhub/internal/apperr"
)

// Record is the shape returned by the external auth API, the system of
// record for identity.
type Record struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Provider looks up identity records. Services depend on this interface so
// tests can swap in a fake without network dependence.
type Provider interface {
	LookupByID(ctx context.Context, id int64) (Record, error)
	LookupByUsername(ctx context.Context, username string) (Record, error)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) LookupByID(ctx context.Context, id int64) (Record, error) {
	notFound := apperr.Newf(apperr.KindNotFound, "user %d not found", id)
	return c.get(ctx, fmt.Sprintf("%s/%d", c.baseURL, id), notFound)
}

func (c *Client) LookupByUsername(ctx context.Context, username string) (Record, error) {
	notFound := apperr.Newf(apperr.KindNotFound, "user '%s' not found", username)
	return c.get(ctx, c.baseURL+"?username="+url.QueryEscape(username), notFound)
}

// A single failed call is treated as a definitive miss; there is no retry
// or backoff.
func (c *Client) get(ctx context.Context, endpoint string, notFound error) (Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Record{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Record{}, notFound
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Record{}, notFound
	}

	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return Record{}, notFound
	}
	return rec, nil
}
