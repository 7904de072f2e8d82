// Package client mirrors the server's activities in a local cache and keeps
// it in step with create, update and delete calls made through an API.
package client

import (
	"context"
	"strings"
	"time"
)

// Activity is the wire shape of an activity. Date is kept as the date-only
// prefix (YYYY-MM-DD) once it enters the cache.
type Activity struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
	City        string `json:"city"`
	Venue       string `json:"venue"`
}

// API is the server surface the store drives.
type API interface {
	List(ctx context.Context) ([]Activity, error)
	Create(ctx context.Context, a Activity) error
	Update(ctx context.Context, a Activity) error
	Delete(ctx context.Context, id string) error
}

// DateOnly reduces an ISO-8601 timestamp to its YYYY-MM-DD date. Timestamps
// with an offset are taken in UTC first, the way the server stores them, so a
// value reads the same before and after a round trip.
func DateOnly(date string) string {
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t.UTC().Format(time.DateOnly)
	}
	d, _, _ := strings.Cut(date, "T")
	return d
}

// parseDate orders unparseable dates first.
func parseDate(date string) time.Time {
	t, err := time.Parse(time.DateOnly, DateOnly(date))
	if err != nil {
		return time.Time{}
	}
	return t
}
