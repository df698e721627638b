// ABOUTME: Tests for the clinic API client
// ABOUTME: Uses httptest to mock backend responses, refresh and CSRF behaviour

package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeAuth is an Authenticator that hands out a fixed refreshed token
type fakeAuth struct {
	mu      sync.Mutex
	token   string
	fresh   string
	err     error
	refresh int
	stale   []string
}

func (f *fakeAuth) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeAuth) RefreshAccess(ctx context.Context, stale string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh++
	f.stale = append(f.stale, stale)
	if f.err != nil {
		return "", f.err
	}
	f.token = f.fresh
	return f.fresh, nil
}

func TestDo_AttachesBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer abc" {
			t.Errorf("expected bearer header, got %q", got)
		}
		if got := r.Header.Get("X-Requested-With"); got != "XMLHttpRequest" {
			t.Errorf("expected X-Requested-With header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"username": "pat"})
	}))
	defer server.Close()

	c := New(server.URL, WithAuthenticator(&fakeAuth{token: "abc"}))
	var out struct {
		Username string `json:"username"`
	}
	if err := c.Get(context.Background(), "/api/accounts/profile/", nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Username != "pat" {
		t.Errorf("expected username pat, got %s", out.Username)
	}
}

func TestDo_NoBearerWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("expected no Authorization header, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(server.URL)
	if err := c.Get(context.Background(), "/api/blog/posts/", nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDo_CSRFHeaderOnStateChangingMethods(t *testing.T) {
	seen := map[string]string{}
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/accounts/csrf/" {
			http.SetCookie(w, &http.Cookie{Name: CSRFCookieName, Value: "csrf-123", Path: "/"})
			w.WriteHeader(http.StatusOK)
			return
		}
		mu.Lock()
		seen[r.Method] = r.Header.Get("X-CSRFToken")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(server.URL)
	ctx := context.Background()
	if err := c.Get(ctx, "/api/accounts/csrf/", nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.CookieValue(CSRFCookieName); got != "csrf-123" {
		t.Fatalf("expected csrf cookie in jar, got %q", got)
	}

	c.Get(ctx, "/api/appointments/", nil, nil)
	c.Post(ctx, "/api/appointments/", map[string]string{"reason": "checkup"}, nil)
	c.Patch(ctx, "/api/appointments/1/", map[string]string{"reason": "x"}, nil)
	c.Delete(ctx, "/api/appointments/1/")

	mu.Lock()
	defer mu.Unlock()
	if seen[http.MethodGet] != "" {
		t.Errorf("expected no CSRF header on GET, got %q", seen[http.MethodGet])
	}
	for _, m := range []string{http.MethodPost, http.MethodPatch, http.MethodDelete} {
		if seen[m] != "csrf-123" {
			t.Errorf("expected CSRF header on %s, got %q", m, seen[m])
		}
	}
}

func TestDo_RefreshesOnceOn401AndRetries(t *testing.T) {
	var mu sync.Mutex
	var calls int
	var ids []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		ids = append(ids, r.Header.Get("X-Request-ID"))
		mu.Unlock()
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"reason":"checkup"}` {
			t.Errorf("expected identical body on every attempt, got %s", body)
		}
		if r.Header.Get("Authorization") != "Bearer new" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Given token not valid"})
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]int{"id": 9})
	}))
	defer server.Close()

	auth := &fakeAuth{token: "old", fresh: "new"}
	c := New(server.URL, WithAuthenticator(auth))

	var out struct {
		ID int `json:"id"`
	}
	if err := c.Post(context.Background(), "/api/appointments/", map[string]string{"reason": "checkup"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ID != 9 {
		t.Errorf("expected id 9, got %d", out.ID)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
	if auth.refresh != 1 {
		t.Errorf("expected 1 refresh, got %d", auth.refresh)
	}
	if auth.stale[0] != "old" {
		t.Errorf("expected stale token old passed to refresh, got %q", auth.stale[0])
	}
	if ids[0] == "" || ids[0] != ids[1] {
		t.Errorf("expected same request id across attempts, got %v", ids)
	}
}

func TestDo_SecondUnauthorizedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "nope"})
	}))
	defer server.Close()

	auth := &fakeAuth{token: "old", fresh: "new"}
	c := New(server.URL, WithAuthenticator(auth))

	err := c.Get(context.Background(), "/api/appointments/", nil, nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", n)
	}
	if auth.refresh != 1 {
		t.Errorf("expected exactly 1 refresh, got %d", auth.refresh)
	}
}

func TestDo_RefreshFailureReturnsSessionExpired(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	auth := &fakeAuth{token: "old", err: errors.New("refresh rejected")}
	c := New(server.URL, WithAuthenticator(auth))

	err := c.Get(context.Background(), "/api/appointments/", nil, nil)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected no replay after failed refresh, got %d attempts", n)
	}
}

func TestDo_NoRefreshForTokenEndpoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("expected anonymous request")
		}
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "No active account found with the given credentials"})
	}))
	defer server.Close()

	auth := &fakeAuth{token: "old", fresh: "new"}
	c := New(server.URL, WithAuthenticator(auth))

	err := c.Do(context.Background(), &Request{Method: http.MethodPost, Path: "/api/accounts/token/", Body: map[string]string{}, SkipAuth: true}, nil)
	if err == nil || err.Error() != "No active account found with the given credentials" {
		t.Fatalf("expected backend detail message, got %v", err)
	}
	if auth.refresh != 0 {
		t.Errorf("expected no refresh, got %d", auth.refresh)
	}
}

func TestDo_ForbiddenMessageIsNormalized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Only doctors"})
	}))
	defer server.Close()

	c := New(server.URL, WithAuthenticator(&fakeAuth{token: "abc"}))
	err := c.Post(context.Background(), "/api/appointments/1/approve/", nil, nil)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err.Error() != PermissionDeniedMessage {
		t.Errorf("expected normalized message, got %q", err.Error())
	}
}

func TestDo_ValidationErrorSurfacedVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"username": ["A user with that username already exists."]}`))
	}))
	defer server.Close()

	c := New(server.URL)
	err := c.Post(context.Background(), "/api/accounts/register/", map[string]string{"username": "pat"}, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Message, "already exists") {
		t.Errorf("expected backend text in message, got %q", apiErr.Message)
	}
	fields := apiErr.FieldErrors()
	if len(fields["username"]) != 1 {
		t.Errorf("expected username field error, got %v", fields)
	}
}

func TestDo_NonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	c := New(server.URL)
	err := c.Get(context.Background(), "/api/appointments/", nil, nil)
	if err == nil || err.Error() != "backend returned status 502" {
		t.Fatalf("expected generic status message, got %v", err)
	}
}

func TestDo_ConnectionError(t *testing.T) {
	c := New("http://localhost:99999")
	err := c.Get(context.Background(), "/api/appointments/", nil, nil)
	if err == nil {
		t.Fatal("expected connection error, got nil")
	}
	if !IsTransport(err) {
		t.Errorf("expected transport error, got %T", err)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Get(ctx, "/api/appointments/", nil, nil)
	if err == nil || err.Error() != "request canceled" {
		t.Errorf("expected request canceled, got %v", err)
	}
}

func TestDo_QueryParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("no_page") != "true" {
			t.Errorf("expected no_page=true, got %q", r.URL.RawQuery)
		}
		if r.URL.Query().Get("ordering") != "-created_at" {
			t.Errorf("expected ordering query, got %q", r.URL.RawQuery)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(server.URL)
	err := c.Get(context.Background(), "/api/accounts/doctors/?no_page=true", map[string][]string{"ordering": {"-created_at"}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDo_Multipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.FormValue("title") != "Hello" {
			t.Errorf("expected title field, got %q", r.FormValue("title"))
		}
		f, hdr, err := r.FormFile("image")
		if err != nil {
			t.Errorf("expected image part: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		if hdr.Filename != "cover.png" {
			t.Errorf("expected filename cover.png, got %s", hdr.Filename)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	c := New(server.URL)
	err := c.Do(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   "/api/blog/posts/",
		Multipart: &Multipart{
			Fields: map[string]string{"title": "Hello"},
			Files:  []FilePart{{Field: "image", Filename: "cover.png", Data: []byte("png")}},
		},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
