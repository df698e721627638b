// ABOUTME: Login form as a bubbletea model built on huh
// ABOUTME: Emits the entered credentials; the app performs the actual login

package login

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/adeebazad/react-homoeo/internal/tui/styles"
)

// SubmitMsg carries the credentials once the form is completed
type SubmitMsg struct {
	Username string
	Password string
}

// CancelledMsg is sent when the user leaves the form with esc
type CancelledMsg struct{}

// Form wraps a huh form collecting username and password
type Form struct {
	form      *huh.Form
	username  string
	password  string
	err       string
	notice    string
	submitted bool
}

// createTheme returns a huh theme in the clinic palette
func createTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Group.Title = lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		MarginBottom(1)
	t.Group.Description = lipgloss.NewStyle().
		Foreground(styles.Muted).
		MarginBottom(1)

	t.Focused.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(styles.Primary)
	t.Focused.Title = lipgloss.NewStyle().
		Foreground(styles.Secondary).
		Bold(true)
	t.Focused.ErrorIndicator = lipgloss.NewStyle().
		Foreground(styles.Danger).
		SetString(" *")
	t.Focused.ErrorMessage = lipgloss.NewStyle().
		Foreground(styles.Danger)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().
		Foreground(styles.Primary)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().
		Foreground(styles.Primary)
	t.Focused.TextInput.Text = lipgloss.NewStyle().
		Foreground(styles.Text)

	t.Blurred = t.Focused
	t.Blurred.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.HiddenBorder()).
		BorderLeft(true)
	t.Blurred.Title = lipgloss.NewStyle().
		Foreground(styles.Muted)

	return t
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// New creates a login form. username pre-fills the username field after a
// failed attempt.
func New(username string) *Form {
	f := &Form{username: username}
	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&f.username).
				Validate(required("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&f.password).
				Validate(required("password")),
		).Title("Sign in").
			Description("Log in to your clinic account"),
	).WithTheme(createTheme()).WithShowHelp(false)
	return f
}

// SetError shows a failed login attempt above the form
func (f *Form) SetError(msg string) {
	f.err = msg
}

// SetNotice shows an informational line above the form, such as a session expiry
func (f *Form) SetNotice(msg string) {
	f.notice = msg
}

// Init implements tea.Model
func (f *Form) Init() tea.Cmd {
	return f.form.Init()
}

// Update implements tea.Model
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return f, func() tea.Msg { return CancelledMsg{} }
	}
	if f.submitted {
		return f, nil
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	if f.form.State == huh.StateCompleted {
		f.submitted = true
		creds := SubmitMsg{Username: strings.TrimSpace(f.username), Password: f.password}
		return f, func() tea.Msg { return creds }
	}
	return f, cmd
}

// View implements tea.Model
func (f *Form) View() string {
	var sb strings.Builder
	if f.notice != "" {
		sb.WriteString(lipgloss.NewStyle().Foreground(styles.Warning).Render(f.notice))
		sb.WriteString("\n\n")
	}
	if f.err != "" {
		sb.WriteString(styles.ErrorText.Render(f.err))
		sb.WriteString("\n\n")
	}
	sb.WriteString(f.form.View())
	return sb.String()
}
