// ABOUTME: Data screens of the TUI: appointments, records, update requests and blog
// ABOUTME: Loads each screen through the services and renders tables and detail views

package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/adeebazad/react-homoeo/internal/guard"
	"github.com/adeebazad/react-homoeo/internal/models"
	"github.com/adeebazad/react-homoeo/internal/services"
	"github.com/adeebazad/react-homoeo/internal/tui/styles"
)

// load fetches the data behind path
func (a *App) load(path string) tea.Cmd {
	screen, ok := screenFor(path)
	if !ok {
		return nil
	}
	ctx := a.ctx

	switch screen {
	case ScreenAppointments:
		return func() tea.Msg {
			appts, err := a.svc.Appointments.List(ctx)
			return appointmentsLoadedMsg{appointments: appts, err: err}
		}
	case ScreenRecord:
		return func() tea.Msg {
			recs, err := a.svc.Patients.Record(ctx)
			return recordLoadedMsg{records: recs, err: err}
		}
	case ScreenUpdateRequests:
		return func() tea.Msg {
			reqs, err := a.svc.Patients.UpdateRequests(ctx)
			return updateRequestsLoadedMsg{requests: reqs, err: err}
		}
	case ScreenPatientRecords:
		return func() tea.Msg {
			recs, err := a.svc.Patients.AllRecords(ctx)
			return patientRecordsLoadedMsg{records: recs, err: err}
		}
	case ScreenBlog:
		q := services.PostQuery{PageSize: 20, Status: models.PostPublished, Ordering: "-created_at"}
		return func() tea.Msg {
			list, err := a.svc.Blog.Posts(ctx, q)
			if err != nil {
				return postsLoadedMsg{err: err}
			}
			return postsLoadedMsg{posts: list.Items()}
		}
	case ScreenBlogPost:
		_, params, _ := guard.Match(path)
		slug := params["slug"]
		return func() tea.Msg {
			post, err := a.svc.Blog.Post(ctx, slug)
			return postLoadedMsg{post: post, err: err}
		}
	}
	return nil
}

// appointmentAction is a workflow transition bound to a key
type appointmentAction struct {
	name       string
	past       string
	doctorOnly bool
	// from lists the statuses the transition applies to
	from []string
}

var appointmentKeys = map[string]appointmentAction{
	"a": {name: "approve", past: "approved", doctorOnly: true, from: []string{models.StatusPending}},
	"x": {name: "reject", past: "rejected", doctorOnly: true, from: []string{models.StatusPending}},
	"d": {name: "complete", past: "completed", doctorOnly: true, from: []string{models.StatusApproved}},
	"c": {name: "cancel", past: "cancelled", from: []string{models.StatusPending, models.StatusApproved}},
}

func (a *App) selectedAppointment() (*models.Appointment, bool) {
	row := a.table.SelectedRow()
	if row == nil {
		return nil, false
	}
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return nil, false
	}
	for i := range a.appointments {
		if a.appointments[i].ID == id {
			return &a.appointments[i], true
		}
	}
	return nil, false
}

func (a *App) appointmentAction(act appointmentAction) (tea.Model, tea.Cmd) {
	if act.doctorOnly && a.session.Snapshot().Role() != models.RoleDoctor {
		a.notice = fmt.Sprintf("Only doctors can %s appointments.", act.name)
		return a, nil
	}
	appt, ok := a.selectedAppointment()
	if !ok {
		return a, nil
	}
	allowed := false
	for _, s := range act.from {
		if appt.Status == s {
			allowed = true
		}
	}
	if !allowed {
		a.notice = fmt.Sprintf("A %s appointment cannot be %s.", strings.ToLower(appt.Status), act.past)
		return a, nil
	}

	svc := a.svc.Appointments
	do := map[string]func(context.Context, int64) (*models.Appointment, error){
		"approve":  svc.Approve,
		"reject":   svc.Reject,
		"complete": svc.Complete,
		"cancel":   svc.Cancel,
	}[act.name]

	id, ctx := appt.ID, a.ctx
	return a, func() tea.Msg {
		_, err := do(ctx, id)
		return actionDoneMsg{notice: fmt.Sprintf("Appointment %d %s.", id, act.past), err: err}
	}
}

func (a *App) updateRequestDecision(approve bool) (tea.Model, tea.Cmd) {
	row := a.table.SelectedRow()
	if row == nil {
		return a, nil
	}
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return a, nil
	}
	if status := row[len(row)-1]; status != models.StatusPending {
		a.notice = fmt.Sprintf("Request %d is already %s.", id, strings.ToLower(status))
		return a, nil
	}

	ctx, patients := a.ctx, a.svc.Patients
	return a, func() tea.Msg {
		if approve {
			err := patients.ApproveUpdateRequest(ctx, id)
			return actionDoneMsg{notice: fmt.Sprintf("Update request %d approved.", id), err: err}
		}
		err := patients.RejectUpdateRequest(ctx, id)
		return actionDoneMsg{notice: fmt.Sprintf("Update request %d rejected.", id), err: err}
	}
}

// newTable builds a focused table in the clinic palette
func (a *App) newTable(cols []table.Column, rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(a.tableHeight()),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.Text).
		Background(styles.Primary).
		Bold(false)
	t.SetStyles(s)
	return t
}

func (a *App) appointmentsTable() table.Model {
	asDoctor := a.session.Snapshot().Role() == models.RoleDoctor
	with := "Doctor"
	if asDoctor {
		with = "Patient"
	}
	cols := []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Date", Width: 10},
		{Title: "Time", Width: 8},
		{Title: with, Width: 20},
		{Title: "Reason", Width: 24},
		{Title: "Status", Width: 10},
	}
	rows := make([]table.Row, 0, len(a.appointments))
	for _, ap := range a.appointments {
		other := ap.DoctorName
		if asDoctor {
			other = ap.PatientName
		}
		rows = append(rows, table.Row{strconv.FormatInt(ap.ID, 10), ap.Date, ap.Time, other, ap.Reason, ap.Status})
	}
	return a.newTable(cols, rows)
}

func (a *App) updateRequestsTable() table.Model {
	cols := []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Patient", Width: 18},
		{Title: "Field", Width: 19},
		{Title: "Current", Width: 14},
		{Title: "Requested", Width: 14},
		{Title: "Status", Width: 10},
	}
	rows := make([]table.Row, 0, len(a.updateRequests))
	for _, r := range a.updateRequests {
		rows = append(rows, table.Row{
			strconv.FormatInt(r.ID, 10), r.PatientName, strings.ReplaceAll(r.FieldName, "_", " "), r.CurrentValue, r.RequestedValue, r.Status,
		})
	}
	return a.newTable(cols, rows)
}

func (a *App) patientRecordsTable() table.Model {
	cols := []table.Column{
		{Title: "Record", Width: 7},
		{Title: "Patient", Width: 20},
		{Title: "Blood group", Width: 11},
		{Title: "Allergies", Width: 20},
		{Title: "Medications", Width: 20},
	}
	rows := make([]table.Row, 0, len(a.records))
	for _, r := range a.records {
		rows = append(rows, table.Row{strconv.FormatInt(r.ID, 10), r.PatientName, r.BloodGroup, r.Allergies, r.CurrentMedications})
	}
	return a.newTable(cols, rows)
}

func (a *App) postsTable() table.Model {
	cols := []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Slug", Width: 22},
		{Title: "Title", Width: 30},
		{Title: "Author", Width: 20},
	}
	rows := make([]table.Row, 0, len(a.posts))
	for i := range a.posts {
		p := &a.posts[i]
		rows = append(rows, table.Row{strconv.FormatInt(p.ID, 10), p.Slug, p.Title, p.AuthorName()})
	}
	return a.newTable(cols, rows)
}

func (a *App) viewStatus() (string, bool) {
	if a.loading {
		return a.spinner.View() + " Loading...", true
	}
	if a.err != nil {
		return styles.ErrorText.Render("Error: " + a.err.Error()), true
	}
	return "", false
}

func (a *App) viewTable(title string, empty bool, emptyText string) string {
	heading := styles.Title.Render(title)
	if s, ok := a.viewStatus(); ok {
		return heading + "\n" + s
	}
	if empty {
		return heading + "\n" + styles.Subtitle.Render(emptyText)
	}
	return heading + "\n" + a.table.View()
}

func (a *App) viewRecord() string {
	heading := styles.Title.Render("Medical record")
	if s, ok := a.viewStatus(); ok {
		return heading + "\n" + s
	}
	if len(a.records) == 0 {
		return heading + "\n" + styles.Subtitle.Render("No medical record found.")
	}

	var blocks []string
	for _, r := range a.records {
		lines := []string{
			styles.Field("Blood group", r.BloodGroup),
			styles.Field("Allergies", r.Allergies),
			styles.Field("Medical history", r.MedicalHistory),
			styles.Field("Current medications", r.CurrentMedications),
		}
		if r.UpdatedAt != "" {
			lines = append(lines, styles.Field("Last updated", r.UpdatedAt))
		}
		blocks = append(blocks, styles.Panel.Render(strings.Join(lines, "\n")))
	}
	return heading + "\n" + strings.Join(blocks, "\n")
}

func (a *App) viewPost() string {
	if s, ok := a.viewStatus(); ok {
		return s
	}
	if a.post == nil {
		return ""
	}
	p := a.post

	var sb strings.Builder
	sb.WriteString(styles.Title.Render(p.Title))
	sb.WriteString("\n")
	meta := strings.TrimSpace(p.AuthorName() + "  " + p.CreatedAt)
	if meta != "" {
		sb.WriteString(styles.Subtitle.Render(meta))
		sb.WriteString("\n")
	}
	body := p.Content
	if w := a.frameWidth() - 4; w > 0 {
		body = lipgloss.NewStyle().Width(w).Render(body)
	}
	sb.WriteString(body)
	sb.WriteString("\n\n")
	sb.WriteString(styles.Subtitle.Render(fmt.Sprintf("Comments (%d)", len(p.Comments))))
	for _, c := range p.Comments {
		sb.WriteString("\n")
		sb.WriteString(styles.KeyStyle.Render(c.AuthorName) + ": " + c.Content)
	}
	return sb.String()
}
