// ABOUTME: Route guards deciding whether the current session may view a location
// ABOUTME: Pure functions of a session snapshot plus the application route table

package guard

import (
	"strings"

	"github.com/adeebazad/react-homoeo/internal/models"
	"github.com/adeebazad/react-homoeo/internal/session"
)

const (
	HomePath      = "/"
	LoginPath     = session.LoginPath
	DashboardPath = "/dashboard"
)

// Reader exposes the session state a guard needs
type Reader interface {
	Snapshot() session.Snapshot
}

// Outcome classifies a guard decision
type Outcome int

const (
	Allow Outcome = iota
	// Pending means authentication is still being checked and nothing should render yet
	Pending
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Pending:
		return "pending"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the result of applying a guard
type Decision struct {
	Outcome Outcome
	// To is the redirect target
	To string
	// From is the location the user was trying to reach, kept for post-login return
	From string
}

func (d Decision) Allowed() bool {
	return d.Outcome == Allow
}

func pending(s session.State) bool {
	return s == session.Uninitialized || s == session.Checking
}

// RequireAuth allows any logged-in user
func RequireAuth(r Reader, location string) Decision {
	return requireAuth(r.Snapshot(), location)
}

// RequireDoctor allows only users with the doctor role.
// Both checks read the same snapshot.
func RequireDoctor(r Reader, location string) Decision {
	snap := r.Snapshot()
	if d := requireAuth(snap, location); !d.Allowed() {
		return d
	}
	if snap.Role() != models.RoleDoctor {
		return Decision{Outcome: Redirect, To: DashboardPath}
	}
	return Decision{Outcome: Allow}
}

func requireAuth(snap session.Snapshot, location string) Decision {
	if pending(snap.State) {
		return Decision{Outcome: Pending}
	}
	if !snap.Authenticated() {
		return Decision{Outcome: Redirect, To: LoginPath, From: location}
	}
	return Decision{Outcome: Allow}
}

// Access is the protection level of a route
type Access int

const (
	Public Access = iota
	Private
	DoctorOnly
)

// Route is one entry of the application route table
type Route struct {
	Pattern string
	Access  Access
	Title   string
}

// Routes mirrors the web portal's router
var Routes = []Route{
	{Pattern: "/", Access: Public, Title: "Home"},
	{Pattern: "/login", Access: Public, Title: "Login"},
	{Pattern: "/register", Access: Public, Title: "Register"},
	{Pattern: "/blog", Access: Public, Title: "Blog"},
	{Pattern: "/blog/:slug", Access: Public, Title: "Blog post"},
	{Pattern: "/blog/create", Access: DoctorOnly, Title: "New blog post"},
	{Pattern: "/dashboard", Access: Private, Title: "Dashboard"},
	{Pattern: "/medical-records", Access: Private, Title: "Medical records"},
	{Pattern: "/appointments", Access: Private, Title: "Appointments"},
	{Pattern: "/profile", Access: Private, Title: "Profile"},
	{Pattern: "/update-requests", Access: DoctorOnly, Title: "Update requests"},
	{Pattern: "/all-patient-records", Access: DoctorOnly, Title: "Patient records"},
	{Pattern: "/patient-record/:id", Access: DoctorOnly, Title: "Patient record"},
	{Pattern: "/admin-panel", Access: DoctorOnly, Title: "Admin panel"},
	{Pattern: "/admin-users", Access: DoctorOnly, Title: "Users"},
}

// Match resolves path against the route table. Static segments win over
// parameters, so /blog/create is never read as a slug.
func Match(path string) (Route, map[string]string, bool) {
	segs := split(path)
	var (
		best       Route
		bestParams map[string]string
		bestScore  = -1
	)
	for _, rt := range Routes {
		params, score, ok := match(split(rt.Pattern), segs)
		if ok && score > bestScore {
			best, bestParams, bestScore = rt, params, score
		}
	}
	return best, bestParams, bestScore >= 0
}

func match(pattern, segs []string) (map[string]string, int, bool) {
	if len(pattern) != len(segs) {
		return nil, 0, false
	}
	params := map[string]string{}
	score := 0
	for i, p := range pattern {
		if name, ok := strings.CutPrefix(p, ":"); ok {
			if segs[i] == "" {
				return nil, 0, false
			}
			params[name] = segs[i]
			continue
		}
		if p != segs[i] {
			return nil, 0, false
		}
		score++
	}
	return params, score, true
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// Check resolves path and applies its guard. Unknown paths redirect home.
func Check(r Reader, path string) Decision {
	rt, _, ok := Match(path)
	if !ok {
		return Decision{Outcome: Redirect, To: HomePath}
	}
	switch rt.Access {
	case Private:
		return RequireAuth(r, path)
	case DoctorOnly:
		return RequireDoctor(r, path)
	default:
		return Decision{Outcome: Allow}
	}
}
