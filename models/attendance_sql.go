package models

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// unique_violation
const pqUniqueViolation = "23505"

type sqlAttendanceRepo struct{ db *sql.DB }

func NewSQLAttendanceRepository(db *sql.DB) AttendanceRepository {
	return &sqlAttendanceRepo{db}
}

// Find is a single indexed point lookup on the primary key. It runs outside
// any transaction and never writes.
func (r *sqlAttendanceRepo) Find(ctx context.Context, userID, activityID string) (Attendance, error) {
	var a Attendance
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, activity_id, is_host, joined_at FROM activity_attendees WHERE user_id=$1 AND activity_id=$2`,
		userID, activityID).
		Scan(&a.UserID, &a.ActivityID, &a.IsHost, &a.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Attendance{}, ErrNotFound
	}
	if err != nil {
		return Attendance{}, err
	}
	return a, nil
}

func (r *sqlAttendanceRepo) Add(ctx context.Context, a Attendance) error {
	// PRIMARY KEY (user_id, activity_id) rejects a second row for the same pair
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_attendees(user_id, activity_id, is_host) VALUES ($1,$2,$3)`,
		a.UserID, a.ActivityID, a.IsHost)
	return mapPQError(err)
}

func (r *sqlAttendanceRepo) Remove(ctx context.Context, userID, activityID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM activity_attendees WHERE user_id=$1 AND activity_id=$2`, userID, activityID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqlAttendanceRepo) RemoveAll(ctx context.Context, activityID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM activity_attendees WHERE activity_id=$1`, activityID)
	return err
}

func (r *sqlAttendanceRepo) ListByActivity(ctx context.Context, activityID string) ([]Attendance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, activity_id, is_host, joined_at FROM activity_attendees
		 WHERE activity_id=$1 ORDER BY is_host DESC, joined_at`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Attendance{}
	for rows.Next() {
		var a Attendance
		if err := rows.Scan(&a.UserID, &a.ActivityID, &a.IsHost, &a.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
		return ErrConflict
	}
	return err
}
