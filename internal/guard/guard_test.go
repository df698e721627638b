// ABOUTME: Tests for route guards and route matching
// ABOUTME: Uses a static snapshot reader to cover every session state

package guard

import (
	"testing"

	"github.com/adeebazad/react-homoeo/internal/models"
	"github.com/adeebazad/react-homoeo/internal/session"
)

type staticReader session.Snapshot

func (s staticReader) Snapshot() session.Snapshot { return session.Snapshot(s) }

var (
	checking  = staticReader{State: session.Checking}
	anonymous = staticReader{State: session.Anonymous}
	patient   = staticReader{State: session.Authenticated, User: &models.User{Username: "pat", Role: models.RolePatient}}
	doctor    = staticReader{State: session.Authenticated, User: &models.User{Username: "doc", Role: models.RoleDoctor}}
	admin     = staticReader{State: session.Authenticated, User: &models.User{Username: "root", Role: models.RoleAdmin}}
)

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name   string
		reader Reader
		want   Decision
	}{
		{"checking", checking, Decision{Outcome: Pending}},
		{"uninitialized", staticReader{}, Decision{Outcome: Pending}},
		{"anonymous", anonymous, Decision{Outcome: Redirect, To: LoginPath, From: "/appointments"}},
		{"patient", patient, Decision{Outcome: Allow}},
		{"doctor", doctor, Decision{Outcome: Allow}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RequireAuth(tt.reader, "/appointments")
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestRequireDoctor(t *testing.T) {
	tests := []struct {
		name   string
		reader Reader
		want   Decision
	}{
		{"checking", checking, Decision{Outcome: Pending}},
		{"anonymous", anonymous, Decision{Outcome: Redirect, To: LoginPath, From: "/update-requests"}},
		{"patient", patient, Decision{Outcome: Redirect, To: DashboardPath}},
		{"admin", admin, Decision{Outcome: Redirect, To: DashboardPath}},
		{"doctor", doctor, Decision{Outcome: Allow}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RequireDoctor(tt.reader, "/update-requests")
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

// changingReader returns its snapshots in order, repeating the last one
type changingReader struct {
	snaps []session.Snapshot
	reads int
}

func (c *changingReader) Snapshot() session.Snapshot {
	i := min(c.reads, len(c.snaps)-1)
	c.reads++
	return c.snaps[i]
}

func TestRequireDoctor_ReadsOneSnapshot(t *testing.T) {
	// a logout lands between two reads
	r := &changingReader{snaps: []session.Snapshot{
		session.Snapshot(doctor),
		session.Snapshot(anonymous),
	}}

	got := RequireDoctor(r, "/update-requests")
	if got != (Decision{Outcome: Allow}) {
		t.Errorf("expected decision from the first snapshot, got %+v", got)
	}
	if r.reads != 1 {
		t.Errorf("expected one snapshot read, got %d", r.reads)
	}
}

func TestMatch_StaticBeatsParam(t *testing.T) {
	rt, params, ok := Match("/blog/create")
	if !ok || rt.Pattern != "/blog/create" {
		t.Fatalf("expected /blog/create, got %+v ok=%v", rt, ok)
	}
	if len(params) != 0 {
		t.Errorf("expected no params, got %v", params)
	}

	rt, params, ok = Match("/blog/healing-herbs/")
	if !ok || rt.Pattern != "/blog/:slug" {
		t.Fatalf("expected /blog/:slug, got %+v ok=%v", rt, ok)
	}
	if params["slug"] != "healing-herbs" {
		t.Errorf("expected slug param, got %v", params)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		reader Reader
		path   string
		want   Outcome
		to     string
	}{
		{"public home", anonymous, "/", Allow, ""},
		{"public blog post", anonymous, "/blog/some-post", Allow, ""},
		{"private as anonymous", anonymous, "/dashboard", Redirect, LoginPath},
		{"private as patient", patient, "/medical-records", Allow, ""},
		{"doctor route as patient", patient, "/patient-record/12", Redirect, DashboardPath},
		{"doctor route as doctor", doctor, "/patient-record/12", Allow, ""},
		{"create post as patient", patient, "/blog/create", Redirect, DashboardPath},
		{"pending while checking", checking, "/profile", Pending, ""},
		{"public while checking", checking, "/login", Allow, ""},
		{"unknown path", doctor, "/nowhere", Redirect, HomePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Check(tt.reader, tt.path)
			if got.Outcome != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.Outcome)
			}
			if got.To != tt.to {
				t.Errorf("expected redirect to %q, got %q", tt.to, got.To)
			}
		})
	}
}
