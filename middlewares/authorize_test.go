package middlewares_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"activityhub/authz"
	"activityhub/middlewares"
	"activityhub/mocks"
	"activityhub/models"
)

func policyServer(t *testing.T, repo *mocks.MockAttendanceRepo, policy string) *gin.Engine {
	t.Helper()
	policies := authz.NewPolicies().
		Add(authz.IsActivityHost, authz.Authenticated, authz.NewIsHost(repo, nil))

	r := gin.New()
	r.Use(middlewares.Authenticate(testTokens))
	guard := middlewares.RequirePolicy(policies, policy, nil)
	r.PUT("/activities/:id", middlewares.ValidateActivityID, guard, func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.PUT("/noid", guard, func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	tok, err := testTokens.GenerateToken(userID+"@example.com", userID)
	if err != nil {
		t.Fatalf("gen token: %v", err)
	}
	return "Bearer " + tok
}

func TestRequirePolicy(t *testing.T) {
	activity := uuid.NewString()
	host, guest, stranger := uuid.NewString(), uuid.NewString(), uuid.NewString()

	repo := mocks.NewAttendanceRepo()
	_ = repo.Add(context.Background(), models.Attendance{UserID: host, ActivityID: activity, IsHost: true})
	_ = repo.Add(context.Background(), models.Attendance{UserID: guest, ActivityID: activity})
	s := policyServer(t, repo, authz.IsActivityHost)

	tests := []struct {
		name string
		path string
		user string
		want int
	}{
		{"host", "/activities/" + activity, host, http.StatusOK},
		{"attendee who is not host", "/activities/" + activity, guest, http.StatusForbidden},
		{"not attending", "/activities/" + activity, stranger, http.StatusForbidden},
		{"host of another activity", "/activities/" + uuid.NewString(), host, http.StatusForbidden},
		{"malformed id", "/activities/123", host, http.StatusBadRequest},
		{"uppercase id", "/activities/" + strings.ToUpper(activity), host, http.StatusBadRequest},
		{"urn id", "/activities/urn:uuid:" + activity, host, http.StatusBadRequest},
		{"no id route value", "/noid", host, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, http.MethodPut, tt.path, "", bearer(t, tt.user))
			if w.Code != tt.want {
				t.Fatalf("want %d, got %d; body=%s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestRequirePolicy_MalformedIDSkipsLookup(t *testing.T) {
	repo := mocks.NewAttendanceRepo()
	s := policyServer(t, repo, authz.IsActivityHost)

	serve(s, http.MethodPut, "/activities/not-a-uuid", "", bearer(t, uuid.NewString()))
	if repo.Reads != 0 {
		t.Fatalf("gate ran for a malformed id: %d lookups", repo.Reads)
	}
}

func TestRequirePolicy_UnknownPolicy_500(t *testing.T) {
	s := policyServer(t, mocks.NewAttendanceRepo(), "NoSuchPolicy")
	w := serve(s, http.MethodPut, "/activities/"+uuid.NewString(), "", bearer(t, uuid.NewString()))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", w.Code)
	}
}
