// ABOUTME: Dashboard menu listing the screens available to the logged-in role
// ABOUTME: Emits the chosen route path; the app applies guards before navigating

package menu

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adeebazad/react-homoeo/internal/guard"
	"github.com/adeebazad/react-homoeo/internal/models"
	"github.com/adeebazad/react-homoeo/internal/tui/styles"
)

// Entry is one menu line
type Entry struct {
	Path  string
	Title string
}

// SelectedMsg is sent when an entry is chosen
type SelectedMsg struct {
	Path string
}

// LogoutMsg is sent when the user asks to log out
type LogoutMsg struct{}

// CancelledMsg is sent when the user quits from the menu
type CancelledMsg struct{}

type item struct {
	path        string
	patientOnly bool
}

// items lists the TUI screens in display order. Doctor-only entries are
// recognised from the route table.
var items = []item{
	{path: "/appointments"},
	{path: "/medical-records", patientOnly: true},
	{path: "/update-requests"},
	{path: "/all-patient-records"},
	{path: "/blog"},
}

// Entries returns the menu entries visible to role
func Entries(role models.Role) []Entry {
	var entries []Entry
	for _, it := range items {
		rt, _, ok := guard.Match(it.path)
		if !ok {
			continue
		}
		if rt.Access == guard.DoctorOnly && role != models.RoleDoctor {
			continue
		}
		if it.patientOnly && role == models.RoleDoctor {
			continue
		}
		entries = append(entries, Entry{Path: it.path, Title: rt.Title})
	}
	return entries
}

// Menu is the dashboard menu model
type Menu struct {
	entries []Entry
	cursor  int
	user    *models.User
}

// New creates a menu for user
func New(user *models.User) *Menu {
	var role models.Role
	if user != nil {
		role = user.Role
	}
	return &Menu{entries: Entries(role), user: user}
}

// Init implements tea.Model
func (m *Menu) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.entries) == 0 {
			return m, nil
		}
		path := m.entries[m.cursor].Path
		return m, func() tea.Msg { return SelectedMsg{Path: path} }
	case "l":
		return m, func() tea.Msg { return LogoutMsg{} }
	case "q", "esc":
		return m, func() tea.Msg { return CancelledMsg{} }
	}
	return m, nil
}

// Selected returns the entry under the cursor
func (m *Menu) Selected() (Entry, bool) {
	if len(m.entries) == 0 {
		return Entry{}, false
	}
	return m.entries[m.cursor], true
}

// View implements tea.Model
func (m *Menu) View() string {
	var sb strings.Builder

	greeting := "Welcome"
	if m.user != nil {
		name := m.user.FullName()
		if m.user.IsDoctor() {
			name = "Dr. " + name
		}
		greeting = "Welcome, " + name
	}
	sb.WriteString(styles.Title.Render(greeting))
	sb.WriteString("\n")

	for i, e := range m.entries {
		if i == m.cursor {
			sb.WriteString(styles.Selected.Render("> " + e.Title))
		} else {
			sb.WriteString("  " + e.Title)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
