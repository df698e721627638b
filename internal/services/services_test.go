// ABOUTME: Tests for the domain services against a fake backend
// ABOUTME: Verifies paths, methods, query strings and payload shapes

package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/adeebazad/react-homoeo/internal/client"
	"github.com/adeebazad/react-homoeo/internal/models"
)

type recorded struct {
	method string
	path   string
	query  string
	csrf   string
	auth   string
	body   string
}

type fakeBackend struct {
	mu    sync.Mutex
	calls []recorded
}

func (f *fakeBackend) record(r *http.Request) recorded {
	body, _ := io.ReadAll(r.Body)
	rec := recorded{
		method: r.Method,
		path:   r.URL.Path,
		query:  r.URL.RawQuery,
		csrf:   r.Header.Get("X-CSRFToken"),
		auth:   r.Header.Get("Authorization"),
		body:   string(body),
	}
	f.mu.Lock()
	f.calls = append(f.calls, rec)
	f.mu.Unlock()
	return rec
}

func (f *fakeBackend) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return recorded{}
	}
	return f.calls[len(f.calls)-1]
}

func newServices(t *testing.T, routes map[string]string) (*Services, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.record(r)
		if r.URL.Path == csrfPath {
			http.SetCookie(w, &http.Cookie{Name: client.CSRFCookieName, Value: "csrf-123", Path: "/"})
		}
		body, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Not found."}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return New(client.New(server.URL)), fb
}

func TestAuthService_LoginPrimesCSRF(t *testing.T) {
	svc, fb := newServices(t, map[string]string{
		"GET " + csrfPath:   `{}`,
		"POST " + tokenPath: `{"access":"a1","refresh":"r1"}`,
	})

	pair, err := svc.Auth.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.Access != "a1" || pair.Refresh != "r1" {
		t.Errorf("unexpected pair: %+v", pair)
	}

	got := fb.last()
	if got.path != tokenPath {
		t.Fatalf("expected token request last, got %s", got.path)
	}
	if got.csrf != "csrf-123" {
		t.Errorf("expected CSRF header from primed cookie, got %q", got.csrf)
	}
	if got.auth != "" {
		t.Errorf("token request must be anonymous, got %q", got.auth)
	}
	var creds models.Credentials
	if err := json.Unmarshal([]byte(got.body), &creds); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if creds.Username != "alice" || creds.Password != "secret" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
}

func TestAuthService_RegisterDefaultsToPatient(t *testing.T) {
	svc, fb := newServices(t, map[string]string{
		"GET " + csrfPath:      `{}`,
		"POST " + registerPath: `{"id":3,"username":"bob","role":"PATIENT"}`,
	})

	user, err := svc.Auth.Register(context.Background(), models.RegisterInput{Username: "bob", Email: "b@x.org", Password: "pw"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != 3 {
		t.Errorf("expected id 3, got %d", user.ID)
	}
	if !strings.Contains(fb.last().body, `"role":"PATIENT"`) {
		t.Errorf("expected role PATIENT in body, got %s", fb.last().body)
	}
}

func TestAuthService_ProfileUsesExplicitBearer(t *testing.T) {
	svc, fb := newServices(t, map[string]string{
		"GET " + profilePath: `{"id":1,"username":"alice","role":"DOCTOR"}`,
	})

	user, err := svc.Auth.Profile(context.Background(), "explicit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !user.IsDoctor() {
		t.Errorf("expected doctor, got %s", user.Role)
	}
	if fb.last().auth != "Bearer explicit" {
		t.Errorf("expected explicit bearer, got %q", fb.last().auth)
	}
}

func TestAuthService_RefreshSendsRefreshToken(t *testing.T) {
	svc, fb := newServices(t, map[string]string{
		"POST " + tokenRefreshPath: `{"access":"a2"}`,
	})

	pair, err := svc.Auth.Refresh(context.Background(), "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.Access != "a2" || pair.Refresh != "" {
		t.Errorf("unexpected pair: %+v", pair)
	}
	if fb.last().body != `{"refresh":"r1"}` {
		t.Errorf("unexpected body: %s", fb.last().body)
	}
}

func TestAppointmentService_DoctorsAcceptsBothShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"plain array", `[{"id":1,"username":"doc","role":"DOCTOR"}]`},
		{"paginated", `{"count":1,"next":null,"previous":null,"results":[{"id":1,"username":"doc","role":"DOCTOR"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, fb := newServices(t, map[string]string{"GET " + doctorsPath: tt.body})

			doctors, err := svc.Appointments.Doctors(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(doctors) != 1 || doctors[0].Username != "doc" {
				t.Errorf("unexpected doctors: %+v", doctors)
			}
			if fb.last().query != "no_page=true" {
				t.Errorf("expected no_page=true, got %q", fb.last().query)
			}
		})
	}
}

func TestAppointmentService_Actions(t *testing.T) {
	svc, fb := newServices(t, map[string]string{
		"POST /api/appointments/9/approve/":  `{"id":9,"status":"APPROVED"}`,
		"POST /api/appointments/9/reject/":   `{"id":9,"status":"REJECTED"}`,
		"POST /api/appointments/9/cancel/":   `{"id":9,"status":"CANCELLED"}`,
		"POST /api/appointments/9/complete/": `{"id":9,"status":"COMPLETED"}`,
	})
	ctx := context.Background()

	tests := []struct {
		name   string
		do     func(context.Context, int64) (*models.Appointment, error)
		status string
	}{
		{"approve", svc.Appointments.Approve, models.StatusApproved},
		{"reject", svc.Appointments.Reject, models.StatusRejected},
		{"cancel", svc.Appointments.Cancel, models.StatusCancelled},
		{"complete", svc.Appointments.Complete, models.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := tt.do(ctx, 9)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.Status != tt.status {
				t.Errorf("expected %s, got %s", tt.status, a.Status)
			}
			if fb.last().method != http.MethodPost {
				t.Errorf("expected POST, got %s", fb.last().method)
			}
		})
	}
}

func TestAppointmentService_UpdateAndDelete(t *testing.T) {
	svc, fb := newServices(t, map[string]string{
		"PATCH /api/appointments/4/":  `{"id":4,"reason":"follow-up"}`,
		"DELETE /api/appointments/4/": ``,
	})
	ctx := context.Background()

	a, err := svc.Appointments.Update(ctx, 4, models.AppointmentUpdate{Reason: "follow-up"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Reason != "follow-up" {
		t.Errorf("unexpected appointment: %+v", a)
	}
	if fb.last().body != `{"reason":"follow-up"}` {
		t.Errorf("expected only changed fields, got %s", fb.last().body)
	}

	if err := svc.Appointments.Delete(ctx, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fb.last().method != http.MethodDelete {
		t.Errorf("expected DELETE, got %s", fb.last().method)
	}
}

func TestAppointmentService_NotFound(t *testing.T) {
	svc, _ := newServices(t, map[string]string{})

	_, err := svc.Appointments.Approve(context.Background(), 1)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "Not found." {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestPatientService_UpdateRequestWorkflow(t *testing.T) {
	svc, fb := newServices(t, map[string]string{
		"GET " + csrfPath:                       `{}`,
		"GET " + updatesPath:                    `[{"id":5,"field_name":"allergies","requested_value":"pollen","status":"PENDING"}]`,
		"POST /api/patients/updates/5/approve/": `{"status":"approved"}`,
		"POST /api/patients/updates/5/reject/":  `{"status":"rejected"}`,
	})
	ctx := context.Background()
	if err := svc.Auth.FetchCSRF(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reqs, err := svc.Patients.UpdateRequests(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 1 || reqs[0].FieldName != "allergies" {
		t.Fatalf("unexpected requests: %+v", reqs)
	}

	if err := svc.Patients.ApproveUpdateRequest(ctx, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := fb.last()
	if got.path != "/api/patients/updates/5/approve/" || got.csrf != "csrf-123" || got.body != "{}" {
		t.Errorf("unexpected approve call: %+v", got)
	}

	if err := svc.Patients.RejectUpdateRequest(ctx, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fb.last().path != "/api/patients/updates/5/reject/" {
		t.Errorf("unexpected reject path: %s", fb.last().path)
	}
}

func TestPatientService_Records(t *testing.T) {
	svc, fb := newServices(t, map[string]string{
		"GET " + recordPath:             `{"count":1,"results":[{"id":2,"blood_group":"O+"}]}`,
		"GET /api/patients/record/12/":  `{"id":2,"patient":12,"blood_group":"O+"}`,
		"PATCH /api/patients/record/2/": `{"id":2,"blood_group":"A+"}`,
	})
	ctx := context.Background()

	own, err := svc.Patients.Record(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(own) != 1 || own[0].BloodGroup != "O+" {
		t.Errorf("unexpected record: %+v", own)
	}

	byID, err := svc.Patients.RecordByPatient(ctx, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byID.Patient != 12 {
		t.Errorf("expected patient 12, got %d", byID.Patient)
	}

	updated, err := svc.Patients.UpdateRecord(ctx, 2, map[string]string{"blood_group": "A+"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.BloodGroup != "A+" {
		t.Errorf("expected A+, got %s", updated.BloodGroup)
	}
	if fb.last().method != http.MethodPatch {
		t.Errorf("expected PATCH, got %s", fb.last().method)
	}
}

func TestBlogService_PostsQuery(t *testing.T) {
	svc, fb := newServices(t, map[string]string{
		"GET " + postsPath: `{"count":1,"results":[{"id":1,"title":"Herbs","slug":"herbs"}]}`,
	})

	list, err := svc.Blog.Posts(context.Background(), PostQuery{PageSize: 10, Status: "all", Ordering: "-created_at", Author: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Count != 1 || list.Items()[0].Slug != "herbs" {
		t.Errorf("unexpected list: %+v", list)
	}
	if q := fb.last().query; q != "author=4&ordering=-created_at&page_size=10" {
		t.Errorf("unexpected query: %q", q)
	}
}

func TestBlogService_CreatePostMultipart(t *testing.T) {
	var (
		mu     sync.Mutex
		fields = map[string]string{}
		image  string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		for k := range r.MultipartForm.Value {
			fields[k] = r.FormValue(k)
		}
		if f, hdr, err := r.FormFile("image"); err == nil {
			data, _ := io.ReadAll(f)
			image = hdr.Filename + ":" + string(data)
			f.Close()
		}
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":1,"title":"Herbs","slug":"herbs","status":"DRAFT"}`))
	}))
	defer server.Close()
	svc := New(client.New(server.URL))

	post, err := svc.Blog.CreatePost(context.Background(), PostInput{
		Title:     "Herbs",
		Content:   "Body",
		ImageName: "cover.png",
		Image:     []byte("png-bytes"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.Slug != "herbs" {
		t.Errorf("unexpected post: %+v", post)
	}

	mu.Lock()
	defer mu.Unlock()
	if fields["title"] != "Herbs" || fields["status"] != models.PostDraft {
		t.Errorf("unexpected fields: %v", fields)
	}
	if image != "cover.png:png-bytes" {
		t.Errorf("unexpected image part: %q", image)
	}
}

func TestBlogService_RejectsLargeImage(t *testing.T) {
	svc, fb := newServices(t, map[string]string{})

	_, err := svc.Blog.CreatePost(context.Background(), PostInput{
		Title: "Big",
		Image: make([]byte, MaxImageSize+1),
	})
	if !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
	if len(fb.calls) != 0 {
		t.Errorf("expected no request, got %d", len(fb.calls))
	}
}

func TestBlogService_Comments(t *testing.T) {
	svc, fb := newServices(t, map[string]string{
		"GET " + commentsPath:  `[{"id":1,"post":3,"content":"Thanks"}]`,
		"POST " + commentsPath: `{"id":2,"post":3,"content":"Great"}`,
	})
	ctx := context.Background()

	comments, err := svc.Blog.Comments(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comments) != 1 || fb.last().query != "post=3" {
		t.Errorf("unexpected comments %+v query %q", comments, fb.last().query)
	}

	c, err := svc.Blog.CreateComment(ctx, 3, "Great")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID != 2 || fb.last().body != `{"post":3,"content":"Great"}` {
		t.Errorf("unexpected comment %+v body %s", c, fb.last().body)
	}
}
