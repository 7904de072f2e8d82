package authz

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"activityhub/models"
)

const (
	// IsActivityHost is the policy guarding activity edits and deletion.
	IsActivityHost = "IsActivityHost"
	// RouteActivityID is the route parameter naming the activity.
	RouteActivityID = "id"
)

// IsHost grants when the principal attends the activity as its host.
type IsHost struct {
	attendees models.AttendanceLookup
	log       *slog.Logger
}

func NewIsHost(attendees models.AttendanceLookup, log *slog.Logger) *IsHost {
	if log == nil {
		log = slog.Default()
	}
	return &IsHost{attendees: attendees, log: log}
}

// Authorize performs one point lookup of the (principal, activity) attendance
// row and waits for it. Every failure, including a lookup error, abstains.
func (h *IsHost) Authorize(ctx context.Context, p Principal, activityID uuid.UUID) Decision {
	if !p.Authenticated() {
		return Abstain
	}

	att, err := h.attendees.Find(ctx, p.ID, activityID.String())
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			h.log.ErrorContext(ctx, "host lookup failed",
				"user_id", p.ID, "activity_id", activityID, "err", err)
		}
		return Abstain
	}
	if att.IsHost {
		return Succeed
	}
	return Abstain
}

// Handle reads the activity id from the route values. A missing or malformed
// value abstains; the request layer is expected to reject malformed ids first.
func (h *IsHost) Handle(ctx context.Context, req Request) Decision {
	raw, ok := req.RouteValues[RouteActivityID]
	if !ok || raw == "" {
		return Abstain
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return Abstain
	}
	return h.Authorize(ctx, req.Principal, id)
}
