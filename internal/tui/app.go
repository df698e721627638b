// ABOUTME: Main TUI application model using bubbletea
// ABOUTME: Routes between screens through the route guards and reacts to forced logouts

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/adeebazad/react-homoeo/internal/client"
	"github.com/adeebazad/react-homoeo/internal/guard"
	"github.com/adeebazad/react-homoeo/internal/models"
	"github.com/adeebazad/react-homoeo/internal/services"
	"github.com/adeebazad/react-homoeo/internal/session"
	"github.com/adeebazad/react-homoeo/internal/tui/login"
	"github.com/adeebazad/react-homoeo/internal/tui/menu"
	"github.com/adeebazad/react-homoeo/internal/tui/styles"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenChecking Screen = iota
	ScreenLogin
	ScreenDashboard
	ScreenAppointments
	ScreenRecord
	ScreenUpdateRequests
	ScreenPatientRecords
	ScreenBlog
	ScreenBlogPost
)

const (
	minTerminalWidth = 80
	// header, footer and the blank lines around the content
	frameOverhead = 8
)

const sessionExpiredNotice = "Your session has expired. Please log in again."

// Session is the part of the session manager the TUI drives
type Session interface {
	guard.Reader
	CheckAuth(ctx context.Context) (session.State, error)
	Login(ctx context.Context, username, password string) (*models.User, error)
	Logout() error
}

// RedirectMsg is sent by the session navigator when the session ends underneath the UI
type RedirectMsg struct {
	Path string
}

type authCheckedMsg struct {
	err error
}

type loggedInMsg struct {
	username string
	err      error
}

type appointmentsLoadedMsg struct {
	appointments []models.Appointment
	err          error
}

type recordLoadedMsg struct {
	records []models.PatientRecord
	err     error
}

type updateRequestsLoadedMsg struct {
	requests []models.UpdateRequest
	err      error
}

type patientRecordsLoadedMsg struct {
	records []models.PatientRecord
	err     error
}

type postsLoadedMsg struct {
	posts []models.BlogPost
	err   error
}

type postLoadedMsg struct {
	post *models.BlogPost
	err  error
}

// actionDoneMsg reports a mutation; on success the current screen reloads
type actionDoneMsg struct {
	notice string
	err    error
}

// App is the root model for the TUI
type App struct {
	ctx     context.Context
	session Session
	svc     *services.Services

	screen   Screen
	location string
	// returnTo is reopened after a successful login
	returnTo string

	width      int
	height     int
	err        error
	notice     string
	loading    bool
	lastUpdate time.Time

	spinner   spinner.Model
	menu      *menu.Menu
	loginForm *login.Form
	table     table.Model

	appointments   []models.Appointment
	records        []models.PatientRecord
	updateRequests []models.UpdateRequest
	posts          []models.BlogPost
	post           *models.BlogPost
}

// New creates a new TUI application
func New(ctx context.Context, sess Session, svc *services.Services) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return &App{
		ctx:      ctx,
		session:  sess,
		svc:      svc,
		screen:   ScreenChecking,
		returnTo: guard.DashboardPath,
		spinner:  s,
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.checkAuth())
}

func (a *App) checkAuth() tea.Cmd {
	return func() tea.Msg {
		_, err := a.session.CheckAuth(a.ctx)
		return authCheckedMsg{err: err}
	}
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.table.SetHeight(a.tableHeight())
		if a.loginForm != nil {
			a.loginForm.Update(msg)
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.screen != ScreenLogin {
			a.notice = ""
		}
		return a.updateKeys(msg)

	case spinner.TickMsg:
		if a.screen != ScreenChecking && !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case authCheckedMsg:
		if a.screen != ScreenChecking {
			// a forced logout already moved us to the login screen
			return a, nil
		}
		if msg.err != nil {
			a.notice = sessionExpiredNotice
		}
		return a.navigate(a.returnTo)

	case RedirectMsg:
		return a.handleRedirect(msg)

	case login.SubmitMsg:
		a.loading = true
		return a, tea.Batch(a.spinner.Tick, a.login(msg.Username, msg.Password))

	case login.CancelledMsg:
		return a, tea.Quit

	case loggedInMsg:
		a.loading = false
		if msg.err != nil {
			return a.showLogin(msg.username, loginErrorText(msg.err))
		}
		target := a.returnTo
		a.returnTo = guard.DashboardPath
		return a.navigate(target)

	case menu.SelectedMsg:
		return a.navigate(msg.Path)

	case menu.LogoutMsg:
		a.clearData()
		a.returnTo = guard.DashboardPath
		a.notice = "You have been logged out."
		if err := a.session.Logout(); err != nil {
			a.notice = "Logged out, but the saved session could not be removed: " + err.Error()
		}
		return a.showLogin("", "")

	case menu.CancelledMsg:
		return a, tea.Quit

	case appointmentsLoadedMsg:
		if a.screen != ScreenAppointments {
			return a, nil
		}
		if msg.err != nil {
			return a.loadFailed(msg.err)
		}
		a.appointments = msg.appointments
		a.table = a.appointmentsTable()
		return a.loaded()

	case recordLoadedMsg:
		if a.screen != ScreenRecord {
			return a, nil
		}
		if msg.err != nil {
			return a.loadFailed(msg.err)
		}
		a.records = msg.records
		return a.loaded()

	case updateRequestsLoadedMsg:
		if a.screen != ScreenUpdateRequests {
			return a, nil
		}
		if msg.err != nil {
			return a.loadFailed(msg.err)
		}
		a.updateRequests = msg.requests
		a.table = a.updateRequestsTable()
		return a.loaded()

	case patientRecordsLoadedMsg:
		if a.screen != ScreenPatientRecords {
			return a, nil
		}
		if msg.err != nil {
			return a.loadFailed(msg.err)
		}
		a.records = msg.records
		a.table = a.patientRecordsTable()
		return a.loaded()

	case postsLoadedMsg:
		if a.screen != ScreenBlog {
			return a, nil
		}
		if msg.err != nil {
			return a.loadFailed(msg.err)
		}
		a.posts = msg.posts
		a.table = a.postsTable()
		return a.loaded()

	case postLoadedMsg:
		if a.screen != ScreenBlogPost {
			return a, nil
		}
		if msg.err != nil {
			return a.loadFailed(msg.err)
		}
		a.post = msg.post
		return a.loaded()

	case actionDoneMsg:
		if msg.err != nil {
			if errors.Is(msg.err, client.ErrSessionExpired) {
				return a, nil
			}
			a.err = msg.err
			return a, nil
		}
		a.notice = msg.notice
		return a, a.load(a.location)

	default:
		// huh forms need their internal messages
		if a.screen == ScreenLogin && a.loginForm != nil {
			return a.updateLogin(msg)
		}
	}

	return a, nil
}

func (a *App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.screen {
	case ScreenChecking:
		if msg.String() == "q" {
			return a, tea.Quit
		}
		return a, nil
	case ScreenLogin:
		if a.loading {
			return a, nil
		}
		return a.updateLogin(msg)
	case ScreenDashboard:
		if a.menu == nil {
			return a, nil
		}
		_, cmd := a.menu.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "b", "esc":
		if a.screen == ScreenBlogPost {
			return a.navigate("/blog")
		}
		return a.navigate(guard.DashboardPath)
	case "r":
		a.err = nil
		a.loading = true
		return a, tea.Batch(a.spinner.Tick, a.load(a.location))
	}

	switch a.screen {
	case ScreenAppointments:
		if act, ok := appointmentKeys[msg.String()]; ok {
			return a.appointmentAction(act)
		}
	case ScreenUpdateRequests:
		switch msg.String() {
		case "a":
			return a.updateRequestDecision(true)
		case "x":
			return a.updateRequestDecision(false)
		}
	case ScreenBlog:
		if msg.String() == "enter" {
			if row := a.table.SelectedRow(); row != nil {
				return a.navigate("/blog/" + row[1])
			}
			return a, nil
		}
	case ScreenRecord, ScreenBlogPost:
		return a, nil
	}

	var cmd tea.Cmd
	a.table, cmd = a.table.Update(msg)
	return a, cmd
}

func (a *App) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	_, cmd := a.loginForm.Update(msg)
	return a, cmd
}

// navigate applies the guard of path and switches to its screen
func (a *App) navigate(path string) (tea.Model, tea.Cmd) {
	if path == "" || path == guard.HomePath {
		path = guard.DashboardPath
	}

	d := guard.Check(a.session, path)
	switch d.Outcome {
	case guard.Pending:
		a.returnTo = path
		a.screen = ScreenChecking
		return a, a.spinner.Tick
	case guard.Redirect:
		switch d.To {
		case guard.LoginPath:
			if d.From != "" {
				a.returnTo = d.From
			}
			return a.showLogin("", "")
		case guard.DashboardPath:
			a.notice = "That screen is only available to doctors."
		}
		if d.To == path {
			return a, nil
		}
		return a.navigate(d.To)
	}

	screen, ok := screenFor(path)
	if !ok {
		a.notice = path + " is not available in the terminal UI."
		return a.navigate(guard.DashboardPath)
	}

	switch screen {
	case ScreenLogin:
		if a.session.Snapshot().Authenticated() {
			return a.navigate(guard.DashboardPath)
		}
		return a.showLogin("", "")
	case ScreenDashboard:
		a.location = path
		a.screen = screen
		a.err = nil
		a.loginForm = nil
		a.menu = menu.New(a.session.Snapshot().User)
		return a, nil
	}

	a.location = path
	a.screen = screen
	a.err = nil
	a.loginForm = nil
	a.loading = true
	a.table = table.Model{}
	return a, tea.Batch(a.spinner.Tick, a.load(path))
}

// screenFor maps a location to the screen rendering it
func screenFor(path string) (Screen, bool) {
	rt, _, ok := guard.Match(path)
	if !ok {
		return 0, false
	}
	switch rt.Pattern {
	case guard.LoginPath:
		return ScreenLogin, true
	case guard.DashboardPath:
		return ScreenDashboard, true
	case "/appointments":
		return ScreenAppointments, true
	case "/medical-records":
		return ScreenRecord, true
	case "/update-requests":
		return ScreenUpdateRequests, true
	case "/all-patient-records":
		return ScreenPatientRecords, true
	case "/blog":
		return ScreenBlog, true
	case "/blog/:slug":
		return ScreenBlogPost, true
	}
	return 0, false
}

func (a *App) showLogin(username, errText string) (tea.Model, tea.Cmd) {
	a.screen = ScreenLogin
	a.location = guard.LoginPath
	a.loading = false
	a.menu = nil
	a.loginForm = login.New(username)
	a.loginForm.SetError(errText)
	a.loginForm.SetNotice(a.notice)
	a.notice = ""
	return a, a.loginForm.Init()
}

func (a *App) handleRedirect(msg RedirectMsg) (tea.Model, tea.Cmd) {
	if msg.Path != guard.LoginPath {
		return a.navigate(msg.Path)
	}
	if a.screen != ScreenLogin && a.screen != ScreenChecking && a.location != "" {
		a.returnTo = a.location
	}
	a.clearData()
	a.notice = sessionExpiredNotice
	return a.showLogin("", "")
}

func (a *App) login(username, password string) tea.Cmd {
	return func() tea.Msg {
		_, err := a.session.Login(a.ctx, username, password)
		return loggedInMsg{username: username, err: err}
	}
}

func loginErrorText(err error) string {
	if errors.Is(err, client.ErrUnauthorized) {
		return "Invalid username or password."
	}
	return "Login failed: " + err.Error()
}

func (a *App) loaded() (tea.Model, tea.Cmd) {
	a.loading = false
	a.lastUpdate = time.Now()
	return a, nil
}

func (a *App) loadFailed(err error) (tea.Model, tea.Cmd) {
	a.loading = false
	if errors.Is(err, client.ErrSessionExpired) {
		// the navigator sends the redirect
		return a, nil
	}
	a.err = err
	return a, nil
}

func (a *App) clearData() {
	a.appointments = nil
	a.records = nil
	a.updateRequests = nil
	a.posts = nil
	a.post = nil
	a.table = table.Model{}
	a.err = nil
	a.lastUpdate = time.Time{}
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenChecking:
		content = a.spinner.View() + " Checking your session..."
	case ScreenLogin:
		content = a.viewLogin()
	case ScreenDashboard:
		content = a.viewDashboard()
	case ScreenAppointments:
		content = a.viewTable("Appointments", len(a.appointments) == 0, "No appointments found.")
	case ScreenRecord:
		content = a.viewRecord()
	case ScreenUpdateRequests:
		content = a.viewTable("Update requests", len(a.updateRequests) == 0, "No update requests.")
	case ScreenPatientRecords:
		content = a.viewTable("Patient records", len(a.records) == 0, "No patient records found.")
	case ScreenBlog:
		content = a.viewTable("Blog", len(a.posts) == 0, "No blog posts found.")
	case ScreenBlogPost:
		content = a.viewPost()
	}

	if a.notice != "" {
		content = lipgloss.NewStyle().Foreground(styles.Warning).Render(a.notice) + "\n\n" + content
	}
	return a.wrapWithFrame(content)
}

func (a *App) viewLogin() string {
	if a.loginForm == nil {
		return ""
	}
	if a.loading {
		return a.spinner.View() + " Signing in..."
	}
	return a.loginForm.View()
}

func (a *App) viewDashboard() string {
	if a.menu == nil {
		return ""
	}
	return styles.ActivePanel.Width(a.frameWidth() - 4).Render(a.menu.View())
}

// frameWidth is the drawn width of header and footer
func (a *App) frameWidth() int {
	if a.width-1 < minTerminalWidth {
		return minTerminalWidth
	}
	return a.width - 1
}

// tableHeight calculates the rows available to a table screen
func (a *App) tableHeight() int {
	h := a.height - frameOverhead - 4
	if h < 5 {
		return 5
	}
	return h
}

// renderHeader creates the header bar with app branding and the signed-in user
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftText := " " + titleStyle.Render("Homoeo Clinic") + " "

	rightText := ""
	if snap := a.session.Snapshot(); snap.Authenticated() && snap.User != nil {
		name := snap.User.FullName()
		if snap.User.IsDoctor() {
			name = "Dr. " + name
		}
		rightText = " " + contextStyle.Render(fmt.Sprintf("%s (%s)", name, strings.ToLower(string(snap.User.Role)))) + " "
	}

	fillWidth := width - 4 - lipgloss.Width(leftText) - lipgloss.Width(rightText) // -4 for ╭─ and ─╮
	if fillWidth < 0 {
		fillWidth = 0
	}

	return borderStyle.Render("╭─") + leftText + borderStyle.Render(strings.Repeat("─", fillWidth)) + rightText + borderStyle.Render("─╮")
}

// shortcuts returns the keyboard help for the current screen
func (a *App) shortcuts() []string {
	switch a.screen {
	case ScreenChecking:
		return []string{"q Quit"}
	case ScreenLogin:
		return []string{"Tab Next", "Enter Submit", "Esc Quit"}
	case ScreenDashboard:
		return []string{"↑↓ Navigate", "Enter Open", "l Logout", "q Quit"}
	case ScreenAppointments:
		if a.session.Snapshot().Role() == models.RoleDoctor {
			return []string{"a Approve", "x Reject", "d Done", "c Cancel", "r Refresh", "b Back"}
		}
		return []string{"c Cancel", "r Refresh", "b Back", "q Quit"}
	case ScreenUpdateRequests:
		return []string{"a Approve", "x Reject", "r Refresh", "b Back"}
	case ScreenBlog:
		return []string{"↑↓ Navigate", "Enter Read", "r Refresh", "b Back"}
	default:
		return []string{"r Refresh", "b Back", "q Quit"}
	}
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	shortcuts := a.shortcuts()
	styled := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		if key, label, ok := strings.Cut(s, " "); ok {
			styled = append(styled, keyStyle.Render(key)+" "+labelStyle.Render(label))
		} else {
			styled = append(styled, s)
		}
	}

	leftText := " " + strings.Join(styled, "  ")
	leftPlainText := " " + strings.Join(shortcuts, "  ")

	rightText := ""
	rightPlainText := ""
	if !a.lastUpdate.IsZero() && a.screen != ScreenLogin && a.screen != ScreenDashboard {
		elapsed := formatTimeSince(time.Since(a.lastUpdate))
		rightText = statusStyle.Render("Updated "+elapsed) + " "
		rightPlainText = "Updated " + elapsed + " "
	}

	fillWidth := width - 4 - lipgloss.Width(leftPlainText) - lipgloss.Width(rightPlainText) // -4 for ╰─ and ─╯
	if fillWidth < 0 {
		fillWidth = 0
	}

	return borderStyle.Render("╰─") + leftText + borderStyle.Render(strings.Repeat("─", fillWidth)) + rightText + borderStyle.Render("─╯")
}

// formatTimeSince formats an elapsed duration in human-readable form
func formatTimeSince(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 5 {
			return "just now"
		}
		return fmt.Sprintf("%ds ago", secs)
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh ago", int(d.Hours()))
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n\n")
	sb.WriteString(content)
	sb.WriteString("\n\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// Run starts the TUI on mgr and routes forced logouts into the program
func Run(ctx context.Context, mgr *session.Manager, svc *services.Services) error {
	app := New(ctx, mgr, svc)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	mgr.SetNavigator(session.NavigatorFunc(func(path string) {
		go p.Send(RedirectMsg{Path: path})
	}))

	_, err := p.Run()
	return err
}
