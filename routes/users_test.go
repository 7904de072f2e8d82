package routes_test

import (
	"net/http"
	"testing"
)

func TestSignupAndLogin(t *testing.T) {
	deps := setupServer(t)

	w := doReq(deps.s, http.MethodPost, "/signup", `{"email":"a@b.com","password":"p"}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("signup got %d; body=%s", w.Code, w.Body.String())
	}

	w = doReq(deps.s, http.MethodPost, "/login", `{"email":"a@b.com","password":"p"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login got %d; body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	decode(t, w, &resp)

	uid, err := deps.tokens.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("login token does not verify: %v", err)
	}
	if uid != resp.UserID || uid == "" {
		t.Fatalf("token userId %q, response userId %q", uid, resp.UserID)
	}
}

func TestSignup_DuplicateEmail_409(t *testing.T) {
	deps := setupServer(t)
	doReq(deps.s, http.MethodPost, "/signup", `{"email":"a@b.com","password":"p"}`, "")

	w := doReq(deps.s, http.MethodPost, "/signup", `{"email":"a@b.com","password":"q"}`, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d", w.Code)
	}
}

func TestLogin_BadCredentials_401(t *testing.T) {
	deps := setupServer(t)

	w := doReq(deps.s, http.MethodPost, "/login", `{"email":"nobody@b.com","password":"p"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", w.Code)
	}

	w = doReq(deps.s, http.MethodPost, "/login", `{"email":""}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", w.Code)
	}
}
