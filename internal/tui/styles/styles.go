// ABOUTME: Shared lipgloss styles for consistent CLI and TUI appearance
// ABOUTME: Defines the clinic palette, status badges and table rendering

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/adeebazad/react-homoeo/internal/models"
)

var (
	// Colors - Core palette
	Primary   = lipgloss.Color("#388E3C") // Clinic green
	Secondary = lipgloss.Color("#81C784") // Light green
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Danger    = lipgloss.Color("#D32F2F") // Red
	Muted     = lipgloss.Color("#6B7280") // Gray
	Text      = lipgloss.Color("#F9FAFB") // Light
	Info      = lipgloss.Color("#1976D2") // Blue

	// Base styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			MarginBottom(1)

	ErrorText = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)

	SuccessText = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	// Panels
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(1, 2)

	ActivePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	// Help text
	Help = lipgloss.NewStyle().
		Foreground(Muted).
		MarginTop(1)

	// Key style for keyboard shortcuts
	KeyStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// Label and value styles for detail views
	Label = lipgloss.NewStyle().
		Foreground(Muted).
		Width(22)

	ValueStyle = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)

	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	headerCell = lipgloss.NewStyle().Bold(true).Foreground(Primary).Padding(0, 1)
	cell       = lipgloss.NewStyle().Padding(0, 1)
)

// Badge renders a colored inline badge
func Badge(text string, bg lipgloss.Color) string {
	return lipgloss.NewStyle().
		Background(bg).
		Foreground(lipgloss.Color("#FFFFFF")).
		Padding(0, 1).
		Bold(true).
		Render(text)
}

// StatusColor maps a workflow status to its badge color
func StatusColor(status string) lipgloss.Color {
	switch strings.ToUpper(status) {
	case models.StatusApproved, models.StatusCompleted, models.PostPublished:
		return Primary
	case models.StatusPending, models.PostDraft:
		return Warning
	case models.StatusRejected, models.StatusCancelled:
		return Danger
	default:
		return Muted
	}
}

// StatusBadge renders a workflow status such as PENDING or APPROVED
func StatusBadge(status string) string {
	if status == "" {
		status = "--"
	}
	return Badge(status, StatusColor(status))
}

// Field renders a "label  value" line for detail views
func Field(label, value string) string {
	if value == "" {
		value = "-"
	}
	return Label.Render(label) + value
}

// Table renders rows under headers with rounded borders
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Muted)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCell
			}
			return cell
		})
	return t.String()
}
