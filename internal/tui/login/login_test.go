// ABOUTME: Tests for the login form model
// ABOUTME: Validates submission, cancellation and error display

package login

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

type tickMsg struct{}

func TestForm_EscCancels(t *testing.T) {
	f := New("")

	_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected a command on esc")
	}
	if _, ok := cmd().(CancelledMsg); !ok {
		t.Errorf("expected CancelledMsg, got %T", cmd())
	}
}

func TestForm_CompletedFormSubmitsOnce(t *testing.T) {
	f := New("  alice ")
	f.password = "s3cret"
	f.form.State = huh.StateCompleted

	_, cmd := f.Update(tickMsg{})
	if cmd == nil {
		t.Fatal("expected submit command")
	}
	msg, ok := cmd().(SubmitMsg)
	if !ok {
		t.Fatalf("expected SubmitMsg, got %T", cmd())
	}
	if msg.Username != "alice" || msg.Password != "s3cret" {
		t.Errorf("unexpected credentials %+v", msg)
	}

	if _, cmd := f.Update(tickMsg{}); cmd != nil {
		t.Error("expected no second submission")
	}
}

func TestForm_ViewShowsErrorAndNotice(t *testing.T) {
	f := New("alice")
	f.SetNotice("Your session has expired")
	f.SetError("Invalid username or password")

	view := f.View()
	if !strings.Contains(view, "Your session has expired") {
		t.Error("expected notice in view")
	}
	if !strings.Contains(view, "Invalid username or password") {
		t.Error("expected error in view")
	}
}

func TestRequired(t *testing.T) {
	check := required("username")
	if err := check("   "); err == nil || err.Error() != "username is required" {
		t.Errorf("expected required error, got %v", err)
	}
	if err := check("bob"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
