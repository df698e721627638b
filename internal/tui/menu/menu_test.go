// ABOUTME: Tests for the dashboard menu
// ABOUTME: Validates role filtering and selection behavior

package menu

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adeebazad/react-homoeo/internal/models"
)

func paths(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

func TestEntries_ByRole(t *testing.T) {
	tests := []struct {
		role     models.Role
		expected string
	}{
		{models.RolePatient, "/appointments /medical-records /blog"},
		{models.RoleDoctor, "/appointments /update-requests /all-patient-records /blog"},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			got := strings.Join(paths(Entries(tt.role)), " ")
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestEntries_TitlesFromRouteTable(t *testing.T) {
	entries := Entries(models.RoleDoctor)
	if entries[1].Title != "Update requests" {
		t.Errorf("expected title 'Update requests', got %q", entries[1].Title)
	}
}

func TestMenu_NavigateAndSelect(t *testing.T) {
	m := New(&models.User{Username: "alice", Role: models.RolePatient})

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown}) // clamps at the last entry

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command on enter")
	}
	msg, ok := cmd().(SelectedMsg)
	if !ok {
		t.Fatalf("expected SelectedMsg, got %T", cmd())
	}
	if msg.Path != "/blog" {
		t.Errorf("expected /blog, got %s", msg.Path)
	}
}

func TestMenu_CursorStopsAtTop(t *testing.T) {
	m := New(&models.User{Role: models.RoleDoctor})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})

	e, ok := m.Selected()
	if !ok || e.Path != "/appointments" {
		t.Errorf("expected /appointments selected, got %+v", e)
	}
}

func TestMenu_LogoutAndQuit(t *testing.T) {
	m := New(&models.User{Role: models.RolePatient})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	if _, ok := cmd().(LogoutMsg); !ok {
		t.Error("expected LogoutMsg for l")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if _, ok := cmd().(CancelledMsg); !ok {
		t.Error("expected CancelledMsg for q")
	}
}

func TestMenu_ViewGreetsDoctor(t *testing.T) {
	m := New(&models.User{Username: "house", FirstName: "Greg", LastName: "House", Role: models.RoleDoctor})

	view := m.View()
	if !strings.Contains(view, "Dr. Greg House") {
		t.Errorf("expected doctor greeting in view, got:\n%s", view)
	}
	if !strings.Contains(view, "Patient records") {
		t.Error("expected doctor-only entry in view")
	}
}
