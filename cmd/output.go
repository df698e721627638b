// ABOUTME: Output helpers shared by all commands
// ABOUTME: Maps errors to exit codes and enforces route guards before service calls

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/adeebazad/react-homoeo/internal/client"
	"github.com/adeebazad/react-homoeo/internal/guard"
	"github.com/adeebazad/react-homoeo/internal/session"
)

// formatJSON formats any value as indented JSON
func formatJSON(v any) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data)
}

// reportError prints err and returns the matching exit code
func reportError(w io.Writer, err error) int {
	if errors.Is(err, client.ErrSessionExpired) || errors.Is(err, session.ErrExpired) {
		// the session navigator has already told the user to log in again
		return exitRejected
	}

	fmt.Fprintf(w, "Error: %v\n", err)

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if fields := apiErr.FieldErrors(); len(fields) > 0 {
			names := make([]string, 0, len(fields))
			for name := range fields {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(w, "  %s: %s\n", name, strings.Join(fields[name], " "))
			}
		}
	}

	if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrForbidden) {
		return exitRejected
	}
	return exitError
}

// authorize restores the session and applies the guard of route.
// It returns false with an exit code when the command must stop.
func authorize(ctx context.Context, a *app, w io.Writer, route string) (int, bool) {
	if _, err := a.session.CheckAuth(ctx); err != nil {
		return reportError(w, err), false
	}

	d := guard.Check(a.session, route)
	switch {
	case d.Allowed():
		return exitOK, true
	case d.To == guard.LoginPath:
		fmt.Fprintln(w, "Not logged in. Run 'clinic login' first.")
		return exitRejected, false
	case d.To == guard.DashboardPath:
		fmt.Fprintln(w, "Error: this action is only available to doctors")
		return exitRejected, false
	default:
		fmt.Fprintf(w, "Error: %s is not available\n", route)
		return exitRejected, false
	}
}
