// ABOUTME: Appointment commands: doctors list, booking and the approval workflow
// ABOUTME: Approve, reject and complete are doctor actions; cancel is open to both roles

package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/adeebazad/react-homoeo/internal/models"
	"github.com/adeebazad/react-homoeo/internal/tui/styles"
)

const appointmentsRoute = "/appointments"

var (
	apptInput  models.AppointmentInput
	apptUpdate models.AppointmentUpdate
)

var doctorsCmd = &cobra.Command{
	Use:   "doctors",
	Short: "List doctors available for appointments",
	Run: func(cmd *cobra.Command, args []string) {
		run(runDoctors)
	},
}

var appointmentsCmd = &cobra.Command{
	Use:     "appointments",
	Aliases: []string{"appt"},
	Short:   "Manage appointments",
}

var appointmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your appointments",
	Run: func(cmd *cobra.Command, args []string) {
		run(runAppointmentsList)
	},
}

var appointmentsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Book an appointment",
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, a *app, w io.Writer) int {
			return runAppointmentCreate(ctx, a, w, apptInput)
		})
	},
}

var appointmentsUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change the date, time or reason of an appointment",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, a *app, w io.Writer) int {
			return runAppointmentUpdate(ctx, a, w, args[0], apptUpdate)
		})
	},
}

var appointmentsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an appointment",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, a *app, w io.Writer) int {
			return runAppointmentDelete(ctx, a, w, args[0])
		})
	},
}

// appointmentAction describes one workflow transition
type appointmentAction struct {
	name       string
	past       string
	doctorOnly bool
}

var appointmentActions = []appointmentAction{
	{name: "approve", past: "approved", doctorOnly: true},
	{name: "reject", past: "rejected", doctorOnly: true},
	{name: "complete", past: "completed", doctorOnly: true},
	{name: "cancel", past: "cancelled"},
}

func init() {
	rootCmd.AddCommand(doctorsCmd, appointmentsCmd)
	appointmentsCmd.AddCommand(appointmentsListCmd, appointmentsCreateCmd, appointmentsUpdateCmd, appointmentsDeleteCmd)

	cf := appointmentsCreateCmd.Flags()
	cf.Int64Var(&apptInput.Doctor, "doctor", 0, "Doctor ID (see 'clinic doctors')")
	cf.StringVar(&apptInput.Date, "date", "", "Date (YYYY-MM-DD)")
	cf.StringVar(&apptInput.Time, "time", "", "Time (HH:MM)")
	cf.StringVar(&apptInput.Reason, "reason", "", "Reason for the visit")

	uf := appointmentsUpdateCmd.Flags()
	uf.StringVar(&apptUpdate.Date, "date", "", "New date (YYYY-MM-DD)")
	uf.StringVar(&apptUpdate.Time, "time", "", "New time (HH:MM)")
	uf.StringVar(&apptUpdate.Reason, "reason", "", "New reason")

	for _, act := range appointmentActions {
		short := fmt.Sprintf("Mark an appointment as %s", act.past)
		if act.doctorOnly {
			short += " (doctors only)"
		}
		appointmentsCmd.AddCommand(&cobra.Command{
			Use:   act.name + " ID",
			Short: short,
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				run(func(ctx context.Context, a *app, w io.Writer) int {
					return runAppointmentAction(ctx, a, w, act, args[0])
				})
			},
		})
	}
}

func runDoctors(ctx context.Context, a *app, w io.Writer) int {
	if code, ok := authorize(ctx, a, w, appointmentsRoute); !ok {
		return code
	}
	doctors, err := a.svc.Appointments.Doctors(ctx)
	if err != nil {
		return reportError(w, err)
	}

	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(doctors))
		return exitOK
	}
	if len(doctors) == 0 {
		fmt.Fprintln(w, "No doctors available.")
		return exitOK
	}
	rows := make([][]string, 0, len(doctors))
	for _, d := range doctors {
		rows = append(rows, []string{strconv.FormatInt(d.ID, 10), "Dr. " + d.FullName(), d.Specialization})
	}
	fmt.Fprintln(w, styles.Table([]string{"ID", "Name", "Specialization"}, rows))
	return exitOK
}

func runAppointmentsList(ctx context.Context, a *app, w io.Writer) int {
	if code, ok := authorize(ctx, a, w, appointmentsRoute); !ok {
		return code
	}
	appts, err := a.svc.Appointments.List(ctx)
	if err != nil {
		return reportError(w, err)
	}

	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(appts))
	} else {
		fmt.Fprintln(w, formatAppointmentsHuman(appts, a.session.User().IsDoctor()))
	}
	return exitOK
}

// formatAppointmentsHuman renders appointments as a table, naming the other party
func formatAppointmentsHuman(appts []models.Appointment, asDoctor bool) string {
	if len(appts) == 0 {
		return "No appointments found."
	}
	with := "Doctor"
	if asDoctor {
		with = "Patient"
	}
	rows := make([][]string, 0, len(appts))
	for _, ap := range appts {
		other := ap.DoctorName
		if asDoctor {
			other = ap.PatientName
		}
		rows = append(rows, []string{
			strconv.FormatInt(ap.ID, 10), ap.Date, ap.Time, other, ap.Reason, styles.StatusBadge(ap.Status),
		})
	}
	return styles.Table([]string{"ID", "Date", "Time", with, "Reason", "Status"}, rows)
}

func runAppointmentCreate(ctx context.Context, a *app, w io.Writer, in models.AppointmentInput) int {
	if in.Doctor <= 0 {
		fmt.Fprintln(w, "Error: --doctor is required")
		return exitError
	}
	if strings.TrimSpace(in.Reason) == "" {
		fmt.Fprintln(w, "Error: --reason is required")
		return exitError
	}
	var err error
	if in.Date, err = normalizeDate(in.Date); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if in.Time, err = normalizeTime(in.Time); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if code, ok := authorize(ctx, a, w, appointmentsRoute); !ok {
		return code
	}

	appt, err := a.svc.Appointments.Create(ctx, in)
	if err != nil {
		return reportError(w, err)
	}
	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(appt))
	} else {
		fmt.Fprintf(w, "Appointment %d booked for %s at %s\n", appt.ID, appt.Date, appt.Time)
	}
	return exitOK
}

func runAppointmentUpdate(ctx context.Context, a *app, w io.Writer, rawID string, in models.AppointmentUpdate) int {
	id, err := parseID(rawID)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if in.Date != "" {
		if in.Date, err = normalizeDate(in.Date); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitError
		}
	}
	if in.Time != "" {
		if in.Time, err = normalizeTime(in.Time); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitError
		}
	}
	if in == (models.AppointmentUpdate{}) {
		fmt.Fprintln(w, "Error: nothing to update, pass --date, --time or --reason")
		return exitError
	}
	if code, ok := authorize(ctx, a, w, appointmentsRoute); !ok {
		return code
	}

	appt, err := a.svc.Appointments.Update(ctx, id, in)
	if err != nil {
		return reportError(w, err)
	}
	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(appt))
	} else {
		fmt.Fprintf(w, "Appointment %d updated\n", id)
	}
	return exitOK
}

func runAppointmentDelete(ctx context.Context, a *app, w io.Writer, rawID string) int {
	id, err := parseID(rawID)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if code, ok := authorize(ctx, a, w, appointmentsRoute); !ok {
		return code
	}
	if err := a.svc.Appointments.Delete(ctx, id); err != nil {
		return reportError(w, err)
	}
	fmt.Fprintf(w, "Appointment %d deleted\n", id)
	return exitOK
}

func runAppointmentAction(ctx context.Context, a *app, w io.Writer, act appointmentAction, rawID string) int {
	id, err := parseID(rawID)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if code, ok := authorize(ctx, a, w, appointmentsRoute); !ok {
		return code
	}
	if act.doctorOnly && !a.session.User().IsDoctor() {
		fmt.Fprintln(w, "Error: this action is only available to doctors")
		return exitRejected
	}

	svc := a.svc.Appointments
	do := map[string]func(context.Context, int64) (*models.Appointment, error){
		"approve":  svc.Approve,
		"reject":   svc.Reject,
		"complete": svc.Complete,
		"cancel":   svc.Cancel,
	}[act.name]

	appt, err := do(ctx, id)
	if err != nil {
		return reportError(w, err)
	}
	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(appt))
	} else {
		fmt.Fprintf(w, "Appointment %d %s\n", id, act.past)
	}
	return exitOK
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return id, nil
}

func normalizeDate(s string) (string, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d.Format(time.DateOnly), nil
}

// normalizeTime accepts HH:MM or HH:MM:SS and returns HH:MM:SS
func normalizeTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.TimeOnly, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.TimeOnly), nil
		}
	}
	return "", fmt.Errorf("invalid time %q, expected HH:MM", s)
}
