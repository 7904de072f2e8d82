// Package mocks holds in-memory repositories for handler and gate tests.
package mocks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"activityhub/models"
)

// MockUserRepo stores plain-text passwords keyed by email.
type MockUserRepo struct {
	mu    sync.Mutex
	Users map[string]models.User
}

func NewUserRepo() *MockUserRepo { return &MockUserRepo{Users: map[string]models.User{}} }

func (m *MockUserRepo) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Users[u.Email]; ok {
		return models.ErrConflict
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	m.Users[u.Email] = *u
	return nil
}

func (m *MockUserRepo) ValidateCredentials(_ context.Context, email, plain string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[email]
	if !ok || u.Password != plain {
		return models.User{}, errors.New("invalid credentials")
	}
	return u, nil
}

func (m *MockUserRepo) GetByID(_ context.Context, id string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, models.ErrNotFound
}

// MockActivityRepo keeps activities by id. Err, when set, fails every call.
type MockActivityRepo struct {
	mu    sync.Mutex
	Items map[string]models.Activity
	Err   error
}

func NewActivityRepo() *MockActivityRepo {
	return &MockActivityRepo{Items: map[string]models.Activity{}}
}

func (m *MockActivityRepo) GetAll(context.Context) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.Activity, 0, len(m.Items))
	for _, a := range m.Items {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *MockActivityRepo) GetByID(_ context.Context, id string) (models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Activity{}, m.Err
	}
	a, ok := m.Items[id]
	if !ok {
		return models.Activity{}, models.ErrNotFound
	}
	return a, nil
}

func (m *MockActivityRepo) Create(_ context.Context, a *models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Items[a.ID]; ok {
		return models.ErrConflict
	}
	m.Items[a.ID] = *a
	return nil
}

func (m *MockActivityRepo) Update(_ context.Context, a *models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Items[a.ID]; !ok {
		return models.ErrNotFound
	}
	m.Items[a.ID] = *a
	return nil
}

func (m *MockActivityRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Items[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.Items, id)
	return nil
}

// MockAttendanceRepo keys rows by "userId:activityId". Reads counts Find calls.
type MockAttendanceRepo struct {
	mu     sync.Mutex
	Rows   map[string]models.Attendance
	Reads  int
	Err    error // returned by Find
	AddErr error // returned by Add
}

func NewAttendanceRepo() *MockAttendanceRepo {
	return &MockAttendanceRepo{Rows: map[string]models.Attendance{}}
}

func key(userID, activityID string) string { return userID + ":" + activityID }

func (m *MockAttendanceRepo) Find(_ context.Context, userID, activityID string) (models.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reads++
	if m.Err != nil {
		return models.Attendance{}, m.Err
	}
	a, ok := m.Rows[key(userID, activityID)]
	if !ok {
		return models.Attendance{}, models.ErrNotFound
	}
	return a, nil
}

func (m *MockAttendanceRepo) Add(_ context.Context, a models.Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddErr != nil {
		return m.AddErr
	}
	k := key(a.UserID, a.ActivityID)
	if _, ok := m.Rows[k]; ok {
		return models.ErrConflict
	}
	if a.JoinedAt.IsZero() {
		a.JoinedAt = time.Now()
	}
	m.Rows[k] = a
	return nil
}

func (m *MockAttendanceRepo) Remove(_ context.Context, userID, activityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(userID, activityID)
	if _, ok := m.Rows[k]; !ok {
		return models.ErrNotFound
	}
	delete(m.Rows, k)
	return nil
}

func (m *MockAttendanceRepo) RemoveAll(_ context.Context, activityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, a := range m.Rows {
		if a.ActivityID == activityID {
			delete(m.Rows, k)
		}
	}
	return nil
}

func (m *MockAttendanceRepo) ListByActivity(_ context.Context, activityID string) ([]models.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Attendance{}
	for _, a := range m.Rows {
		if a.ActivityID == activityID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsHost != out[j].IsHost {
			return out[i].IsHost
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

// Snapshot copies the stored rows.
func (m *MockAttendanceRepo) Snapshot() map[string]models.Attendance {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.Attendance, len(m.Rows))
	for k, v := range m.Rows {
		out[k] = v
	}
	return out
}
