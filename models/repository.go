package models

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key (email, attendance pair) already exists.
	ErrConflict = errors.New("already exists")
)

type Activity struct {
	ID          string    `json:"id" bson:"id"` // UUID, generated by the client
	Title       string    `json:"title" bson:"title"`
	Date        time.Time `json:"date" bson:"date"`
	Description string    `json:"description" bson:"description"`
	Category    string    `json:"category" bson:"category"`
	City        string    `json:"city" bson:"city"`
	Venue       string    `json:"venue" bson:"venue"`
}

// Attendance links a user to an activity. IsHost marks the attendee with
// rights to edit or delete the activity.
type Attendance struct {
	UserID     string    `json:"userId"`
	ActivityID string    `json:"activityId"`
	IsHost     bool      `json:"isHost"`
	JoinedAt   time.Time `json:"joinedAt"`
}

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// ===== Activities =====
type ActivityRepository interface {
	GetAll(ctx context.Context) ([]Activity, error)
	GetByID(ctx context.Context, id string) (Activity, error)
	Create(ctx context.Context, a *Activity) error
	Update(ctx context.Context, a *Activity) error
	Delete(ctx context.Context, id string) error
}

// ===== Users =====
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	ValidateCredentials(ctx context.Context, email, plain string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
}

// ===== Attendance =====

// AttendanceLookup is the read-only half of AttendanceRepository.
type AttendanceLookup interface {
	// Find returns ErrNotFound when the user does not attend the activity.
	Find(ctx context.Context, userID, activityID string) (Attendance, error)
}

type AttendanceRepository interface {
	AttendanceLookup
	Add(ctx context.Context, a Attendance) error
	Remove(ctx context.Context, userID, activityID string) error
	RemoveAll(ctx context.Context, activityID string) error
	ListByActivity(ctx context.Context, activityID string) ([]Attendance, error)
}
