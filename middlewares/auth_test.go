package middlewares_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"activityhub/middlewares"
)

func authServer() *gin.Engine {
	r := gin.New()
	r.Use(middlewares.Authenticate(testTokens))
	r.GET("/p", func(c *gin.Context) { c.String(http.StatusOK, middlewares.PrincipalFrom(c).ID) })
	return r
}

func TestAuthenticate_MissingToken_401(t *testing.T) {
	w := serve(authServer(), http.MethodGet, "/p", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", w.Code)
	}
}

func TestAuthenticate_InvalidToken_401(t *testing.T) {
	w := serve(authServer(), http.MethodGet, "/p", "", "this-is-not-a-jwt")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", w.Code)
	}
}

func TestAuthenticate_SetsPrincipal(t *testing.T) {
	token, err := testTokens.GenerateToken("a@b.com", "user-1")
	if err != nil {
		t.Fatalf("gen token: %v", err)
	}

	for _, header := range []string{token, "Bearer " + token} {
		w := serve(authServer(), http.MethodGet, "/p", "", header)
		if w.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", w.Code)
		}
		if w.Body.String() != "user-1" {
			t.Fatalf("want principal user-1, got %q", w.Body.String())
		}
	}
}
