package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// IsForbidden reports whether err is the server refusing a host-only action.
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden
}

// HTTPAgent talks to the activities REST API.
type HTTPAgent struct {
	base  *url.URL
	token string
	hc    *http.Client
}

// NewHTTPAgent returns an agent for baseURL. A zero timeout means no limit.
func NewHTTPAgent(baseURL string, timeout time.Duration) (*HTTPAgent, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	return &HTTPAgent{base: u, hc: &http.Client{Timeout: timeout}}, nil
}

// SetToken sets the bearer token sent with every request.
func (h *HTTPAgent) SetToken(token string) { h.token = token }

func (h *HTTPAgent) List(ctx context.Context) ([]Activity, error) {
	var out []Activity
	if err := h.do(ctx, http.MethodGet, "/activities", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HTTPAgent) Create(ctx context.Context, a Activity) error {
	return h.do(ctx, http.MethodPost, "/activities", a, nil)
}

func (h *HTTPAgent) Update(ctx context.Context, a Activity) error {
	return h.do(ctx, http.MethodPut, "/activities/"+url.PathEscape(a.ID), a, nil)
}

func (h *HTTPAgent) Delete(ctx context.Context, id string) error {
	return h.do(ctx, http.MethodDelete, "/activities/"+url.PathEscape(id), nil, nil)
}

// Login exchanges credentials for a token and keeps it for later calls.
func (h *HTTPAgent) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := h.do(ctx, http.MethodPost, "/login", body, &out); err != nil {
		return "", err
	}
	h.token = out.Token
	return out.Token, nil
}

func (h *HTTPAgent) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.base.String()+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); json.Unmarshal(b, &msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
