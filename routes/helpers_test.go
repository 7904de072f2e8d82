package routes_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"activityhub/middlewares"
	"activityhub/mocks"
	"activityhub/models"
	"activityhub/routes"
	"activityhub/utils"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type serverDeps struct {
	s      *gin.Engine
	mr     *miniredis.Miniredis
	tokens *utils.TokenManager
	users  *mocks.MockUserRepo
	acts   *mocks.MockActivityRepo
	atts   *mocks.MockAttendanceRepo
}

func setupServer(t *testing.T) serverDeps {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	d := serverDeps{
		mr:     mr,
		tokens: utils.NewTokenManager(testSecret, time.Hour),
		users:  mocks.NewUserRepo(),
		acts:   mocks.NewActivityRepo(),
		atts:   mocks.NewAttendanceRepo(),
	}

	s := gin.New()
	s.Use(middlewares.ResponseCache(rdb, 30*time.Second))
	routes.RegisterRoutes(ctx, s, routes.Deps{
		Users:       d.users,
		Attendees:   d.atts,
		Activities:  d.acts,
		Redis:       rdb,
		Invalidator: utils.NewCacheInvalidator(rdb),
		Tokens:      d.tokens,
	})
	d.s = s
	return d
}

func (d serverDeps) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := d.tokens.GenerateToken("tester@example.com", userID)
	if err != nil {
		t.Fatalf("gen token: %v", err)
	}
	return "Bearer " + tok
}

// seedActivity stores an activity hosted by hostID.
func (d serverDeps) seedActivity(t *testing.T, hostID string) models.Activity {
	t.Helper()
	a := models.Activity{
		ID:    uuid.NewString(),
		Title: "Run",
		Date:  time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		City:  "Oslo",
	}
	ctx := context.Background()
	if err := d.acts.Create(ctx, &a); err != nil {
		t.Fatalf("seed activity: %v", err)
	}
	if err := d.atts.Add(ctx, models.Attendance{UserID: hostID, ActivityID: a.ID, IsHost: true}); err != nil {
		t.Fatalf("seed host: %v", err)
	}
	return a
}

func doReq(s *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	s.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
}
