// ABOUTME: Medical record and record update request commands
// ABOUTME: Patients view records and request changes; doctors edit records and review requests

package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adeebazad/react-homoeo/internal/models"
	"github.com/adeebazad/react-homoeo/internal/tui/styles"
)

var (
	recordPatientID int64
	recordFields    = map[string]*string{}

	updateField  string
	updateValue  string
	updateReason string
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "View and edit medical records",
}

var recordsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your medical record, or a patient's record with --patient (doctors)",
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, a *app, w io.Writer) int {
			return runRecordShow(ctx, a, w, recordPatientID)
		})
	},
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all patient records (doctors only)",
	Run: func(cmd *cobra.Command, args []string) {
		run(runRecordsList)
	},
}

var recordsUpdateCmd = &cobra.Command{
	Use:   "update RECORD_ID",
	Short: "Edit fields of a patient record (doctors only)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fields := map[string]string{}
		for name, v := range recordFields {
			if cmd.Flags().Changed(flagName(name)) {
				fields[name] = *v
			}
		}
		run(func(ctx context.Context, a *app, w io.Writer) int {
			return runRecordUpdate(ctx, a, w, args[0], fields)
		})
	},
}

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "Record update requests",
}

var updatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List record update requests (doctors only)",
	Run: func(cmd *cobra.Command, args []string) {
		run(runUpdatesList)
	},
}

var updatesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Ask your doctor to change a field of your record",
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, a *app, w io.Writer) int {
			return runUpdateCreate(ctx, a, w, updateField, updateValue, updateReason)
		})
	},
}

var updatesApproveCmd = &cobra.Command{
	Use:   "approve ID",
	Short: "Approve an update request (doctors only)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, a *app, w io.Writer) int {
			return runUpdateDecision(ctx, a, w, args[0], true)
		})
	},
}

var updatesRejectCmd = &cobra.Command{
	Use:   "reject ID",
	Short: "Reject an update request (doctors only)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, a *app, w io.Writer) int {
			return runUpdateDecision(ctx, a, w, args[0], false)
		})
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd, updatesCmd)
	recordsCmd.AddCommand(recordsShowCmd, recordsListCmd, recordsUpdateCmd)
	updatesCmd.AddCommand(updatesListCmd, updatesCreateCmd, updatesApproveCmd, updatesRejectCmd)

	recordsShowCmd.Flags().Int64Var(&recordPatientID, "patient", 0, "Patient ID (doctors only)")

	for _, name := range models.RecordFields {
		v := new(string)
		recordFields[name] = v
		recordsUpdateCmd.Flags().StringVar(v, flagName(name), "", "New "+fieldLabel(name))
	}

	f := updatesCreateCmd.Flags()
	f.StringVar(&updateField, "field", "", "Field to change: "+strings.Join(models.RecordFields, ", "))
	f.StringVar(&updateValue, "value", "", "Requested value")
	f.StringVar(&updateReason, "reason", "", "Why the change is needed")
}

// flagName turns blood_group into blood-group
func flagName(field string) string {
	return strings.ReplaceAll(field, "_", "-")
}

// fieldLabel turns blood_group into "blood group"
func fieldLabel(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func runRecordShow(ctx context.Context, a *app, w io.Writer, patientID int64) int {
	if patientID > 0 {
		route := "/patient-record/" + strconv.FormatInt(patientID, 10)
		if code, ok := authorize(ctx, a, w, route); !ok {
			return code
		}
		rec, err := a.svc.Patients.RecordByPatient(ctx, patientID)
		if err != nil {
			return reportError(w, err)
		}
		return printRecords(a, w, []models.PatientRecord{*rec})
	}

	if code, ok := authorize(ctx, a, w, "/medical-records"); !ok {
		return code
	}
	recs, err := a.svc.Patients.Record(ctx)
	if err != nil {
		return reportError(w, err)
	}
	return printRecords(a, w, recs)
}

func printRecords(a *app, w io.Writer, recs []models.PatientRecord) int {
	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(recs))
		return exitOK
	}
	if len(recs) == 0 {
		fmt.Fprintln(w, "No medical record found.")
		return exitOK
	}
	for i := range recs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, formatRecordHuman(&recs[i]))
	}
	return exitOK
}

// formatRecordHuman formats a medical record for human readability
func formatRecordHuman(r *models.PatientRecord) string {
	lines := []string{styles.Title.Render(fmt.Sprintf("Medical record #%d", r.ID))}
	if r.PatientName != "" {
		lines = append(lines, styles.Field("Patient", r.PatientName))
	}
	lines = append(lines,
		styles.Field("Blood group", r.BloodGroup),
		styles.Field("Allergies", r.Allergies),
		styles.Field("Medical history", r.MedicalHistory),
		styles.Field("Current medications", r.CurrentMedications),
	)
	if r.UpdatedAt != "" {
		lines = append(lines, styles.Field("Last updated", r.UpdatedAt))
	}
	return strings.Join(lines, "\n")
}

func runRecordsList(ctx context.Context, a *app, w io.Writer) int {
	if code, ok := authorize(ctx, a, w, "/all-patient-records"); !ok {
		return code
	}
	recs, err := a.svc.Patients.AllRecords(ctx)
	if err != nil {
		return reportError(w, err)
	}

	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(recs))
		return exitOK
	}
	if len(recs) == 0 {
		fmt.Fprintln(w, "No patient records found.")
		return exitOK
	}
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10), strconv.FormatInt(r.Patient, 10), r.PatientName, r.BloodGroup, r.Allergies,
		})
	}
	fmt.Fprintln(w, styles.Table([]string{"Record", "Patient ID", "Patient", "Blood group", "Allergies"}, rows))
	return exitOK
}

func runRecordUpdate(ctx context.Context, a *app, w io.Writer, rawID string, fields map[string]string) int {
	id, err := parseID(rawID)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if len(fields) == 0 {
		fmt.Fprintln(w, "Error: nothing to update, pass at least one field flag")
		return exitError
	}
	if code, ok := authorize(ctx, a, w, "/all-patient-records"); !ok {
		return code
	}

	rec, err := a.svc.Patients.UpdateRecord(ctx, id, fields)
	if err != nil {
		return reportError(w, err)
	}
	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(rec))
	} else {
		fmt.Fprintf(w, "Record %d updated\n", id)
	}
	return exitOK
}

func runUpdatesList(ctx context.Context, a *app, w io.Writer) int {
	if code, ok := authorize(ctx, a, w, "/update-requests"); !ok {
		return code
	}
	reqs, err := a.svc.Patients.UpdateRequests(ctx)
	if err != nil {
		return reportError(w, err)
	}

	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(reqs))
	} else {
		fmt.Fprintln(w, formatUpdateRequestsHuman(reqs))
	}
	return exitOK
}

// formatUpdateRequestsHuman renders update requests as a table
func formatUpdateRequestsHuman(reqs []models.UpdateRequest) string {
	if len(reqs) == 0 {
		return "No update requests."
	}
	rows := make([][]string, 0, len(reqs))
	for _, r := range reqs {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10), r.PatientName, fieldLabel(r.FieldName), r.CurrentValue, r.RequestedValue, r.Reason, styles.StatusBadge(r.Status),
		})
	}
	return styles.Table([]string{"ID", "Patient", "Field", "Current", "Requested", "Reason", "Status"}, rows)
}

func runUpdateCreate(ctx context.Context, a *app, w io.Writer, field, value, reason string) int {
	if !slices.Contains(models.RecordFields, field) {
		fmt.Fprintf(w, "Error: --field must be one of %s\n", strings.Join(models.RecordFields, ", "))
		return exitError
	}
	if strings.TrimSpace(value) == "" {
		fmt.Fprintln(w, "Error: --value is required")
		return exitError
	}
	if code, ok := authorize(ctx, a, w, "/medical-records"); !ok {
		return code
	}

	recs, err := a.svc.Patients.Record(ctx)
	if err != nil {
		return reportError(w, err)
	}
	current := "Not specified"
	if len(recs) > 0 {
		if v := recs[0].Field(field); v != "" {
			current = v
		}
	}

	req, err := a.svc.Patients.CreateUpdateRequest(ctx, models.UpdateRequestInput{
		FieldName:      field,
		CurrentValue:   current,
		RequestedValue: value,
		Reason:         reason,
	})
	if err != nil {
		return reportError(w, err)
	}
	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(req))
	} else {
		fmt.Fprintln(w, "Update request submitted successfully")
	}
	return exitOK
}

func runUpdateDecision(ctx context.Context, a *app, w io.Writer, rawID string, approve bool) int {
	id, err := parseID(rawID)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if code, ok := authorize(ctx, a, w, "/update-requests"); !ok {
		return code
	}

	verb := "rejected"
	if approve {
		verb = "approved"
		err = a.svc.Patients.ApproveUpdateRequest(ctx, id)
	} else {
		err = a.svc.Patients.RejectUpdateRequest(ctx, id)
	}
	if err != nil {
		return reportError(w, err)
	}
	fmt.Fprintf(w, "Update request %d %s\n", id, verb)
	return exitOK
}
