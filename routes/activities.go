package routes

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"activityhub/middlewares"
	"activityhub/models"
)

type activityInput struct {
	ID          string `json:"id"`
	Title       string `json:"title" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	City        string `json:"city"`
	Venue       string `json:"venue"`
}

// parseActivityDate accepts a full RFC 3339 timestamp or a bare date.
func parseActivityDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is neither RFC 3339 nor YYYY-MM-DD", s)
	}
	return t, nil
}

func (in activityInput) toActivity() (models.Activity, error) {
	date, err := parseActivityDate(in.Date)
	if err != nil {
		return models.Activity{}, err
	}
	return models.Activity{
		ID:          in.ID,
		Title:       in.Title,
		Date:        date,
		Description: in.Description,
		Category:    in.Category,
		City:        in.City,
		Venue:       in.Venue,
	}, nil
}

// GET /activities
func (d *deps) getActivities(c *gin.Context) {
	activities, err := d.Activities.GetAll(c.Request.Context())
	if err != nil {
		d.internalError(c, "Could not fetch activities.", err)
		return
	}
	c.JSON(http.StatusOK, activities)
}

// GET /activities/:id
func (d *deps) getActivity(c *gin.Context) {
	id := c.Param("id")
	activity, err := d.Activities.GetByID(c.Request.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Activity not found."})
		return
	}
	if err != nil {
		d.internalError(c, "Could not fetch activity.", err, "activity_id", id)
		return
	}
	c.JSON(http.StatusOK, activity)
}

// GET /activities/:id/attendees
func (d *deps) getAttendees(c *gin.Context) {
	id := c.Param("id")
	list, err := d.Attendees.ListByActivity(c.Request.Context(), id)
	if err != nil {
		d.internalError(c, "Could not fetch attendees.", err, "activity_id", id)
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /activities
//
// The id is normally generated by the client; the caller becomes the host.
func (d *deps) createActivity(c *gin.Context) {
	ctx := c.Request.Context()
	var in activityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request data."})
		return
	}
	activity, err := in.toActivity()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	} else {
		parsed, err := uuid.Parse(activity.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Activity id must be a UUID."})
			return
		}
		// stored ids are always canonical lowercase, the form routes accept
		activity.ID = parsed.String()
	}

	if err := d.Activities.Create(ctx, &activity); err != nil {
		if errors.Is(err, models.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"message": "Activity already exists."})
			return
		}
		d.internalError(c, "Could not create activity.", err, "activity_id", activity.ID)
		return
	}

	host := models.Attendance{
		UserID:     c.GetString(middlewares.UserIDKey),
		ActivityID: activity.ID,
		IsHost:     true,
	}
	if err := d.Attendees.Add(ctx, host); err != nil {
		if delErr := d.Activities.Delete(ctx, activity.ID); delErr != nil {
			d.Log.ErrorContext(ctx, "could not roll back activity", "activity_id", activity.ID, "err", delErr)
		}
		d.internalError(c, "Could not create activity.", err, "activity_id", activity.ID)
		return
	}

	d.purge(c, activity.ID, true)
	c.JSON(http.StatusCreated, gin.H{"message": "Activity created!", "activity": activity})
}

// PUT /activities/:id (host only)
func (d *deps) updateActivity(c *gin.Context) {
	id := c.Param("id")

	var in activityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request data."})
		return
	}
	if in.ID != "" {
		parsed, err := uuid.Parse(in.ID)
		if err != nil || parsed.String() != id {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Activity id does not match the route."})
			return
		}
	}
	in.ID = id
	activity, err := in.toActivity()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if err := d.Activities.Update(c.Request.Context(), &activity); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Activity not found."})
			return
		}
		d.internalError(c, "Could not update activity.", err, "activity_id", id)
		return
	}

	d.purge(c, id, true)
	c.JSON(http.StatusOK, gin.H{"message": "Activity updated successfully!"})
}

// DELETE /activities/:id (host only)
func (d *deps) deleteActivity(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if err := d.Activities.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Activity not found."})
			return
		}
		d.internalError(c, "Could not delete activity.", err, "activity_id", id)
		return
	}
	if err := d.Attendees.RemoveAll(ctx, id); err != nil {
		d.Log.WarnContext(ctx, "orphaned attendees left behind", "activity_id", id, "err", err)
	}

	d.purge(c, id, true)
	c.JSON(http.StatusOK, gin.H{"message": "Activity deleted successfully!"})
}

// POST /activities/:id/attend
func (d *deps) attend(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if _, err := d.Activities.GetByID(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Activity not found."})
			return
		}
		d.internalError(c, "Could not fetch activity.", err, "activity_id", id)
		return
	}

	att := models.Attendance{UserID: c.GetString(middlewares.UserIDKey), ActivityID: id}
	if err := d.Attendees.Add(ctx, att); err != nil {
		if errors.Is(err, models.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"message": "Already attending."})
			return
		}
		d.internalError(c, "Could not join activity.", err, "activity_id", id)
		return
	}

	d.purge(c, id, false)
	c.JSON(http.StatusCreated, gin.H{"message": "Attending!"})
}

// DELETE /activities/:id/attend
func (d *deps) leave(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	userID := c.GetString(middlewares.UserIDKey)

	att, err := d.Attendees.Find(ctx, userID, id)
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not attending this activity."})
		return
	}
	if err != nil {
		d.internalError(c, "Could not leave activity.", err, "activity_id", id)
		return
	}
	if att.IsHost {
		c.JSON(http.StatusBadRequest, gin.H{"message": "The host cannot leave the activity."})
		return
	}

	if err := d.Attendees.Remove(ctx, userID, id); err != nil && !errors.Is(err, models.ErrNotFound) {
		d.internalError(c, "Could not leave activity.", err, "activity_id", id)
		return
	}

	d.purge(c, id, false)
	c.JSON(http.StatusOK, gin.H{"message": "Left activity."})
}
