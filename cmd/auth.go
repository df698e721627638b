// ABOUTME: Account commands: login, logout, whoami, register, profile and password
// ABOUTME: Prompts interactively with huh when credentials are not given as flags

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/adeebazad/react-homoeo/internal/models"
)

var (
	loginUsername string
	loginPassword string

	registerInput   models.RegisterInput
	registerRole    string
	registerConfirm string

	profileInput models.ProfileUpdate

	oldPassword     string
	newPassword     string
	confirmPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	Run: func(cmd *cobra.Command, args []string) {
		if err := promptCredentials(&loginUsername, &loginPassword); err != nil {
			fmt.Fprintf(os.Stdout, "Error: %v\n", err)
			os.Exit(exitError)
		}
		run(func(ctx context.Context, a *app, w io.Writer) int {
			return runLogin(ctx, a, w, loginUsername, loginPassword)
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the stored session",
	Run: func(cmd *cobra.Command, args []string) {
		run(runLogout)
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Run: func(cmd *cobra.Command, args []string) {
		run(runWhoami)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	Run: func(cmd *cobra.Command, args []string) {
		if registerInput.Password == "" && isInteractive() {
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&registerInput.Password),
				huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&registerConfirm),
			))
			if err := form.Run(); err != nil {
				fmt.Fprintf(os.Stdout, "Error: %v\n", err)
				os.Exit(exitError)
			}
		}
		run(func(ctx context.Context, a *app, w io.Writer) int {
			return runRegister(ctx, a, w, registerInput, registerRole, registerConfirm)
		})
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your profile",
	Run: func(cmd *cobra.Command, args []string) {
		run(runProfile)
	},
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields",
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, a *app, w io.Writer) int {
			return runProfileUpdate(ctx, a, w, profileInput)
		})
	},
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change your password",
	Run: func(cmd *cobra.Command, args []string) {
		if (oldPassword == "" || newPassword == "") && isInteractive() {
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("Current password").EchoMode(huh.EchoModePassword).Value(&oldPassword),
				huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).Value(&newPassword),
				huh.NewInput().Title("Confirm new password").EchoMode(huh.EchoModePassword).Value(&confirmPassword),
			))
			if err := form.Run(); err != nil {
				fmt.Fprintf(os.Stdout, "Error: %v\n", err)
				os.Exit(exitError)
			}
		}
		run(func(ctx context.Context, a *app, w io.Writer) int {
			return runPassword(ctx, a, w, oldPassword, newPassword, confirmPassword)
		})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, registerCmd, profileCmd, passwordCmd)
	profileCmd.AddCommand(profileUpdateCmd)

	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted when omitted)")

	f := registerCmd.Flags()
	f.StringVar(&registerInput.Username, "username", "", "Username")
	f.StringVar(&registerInput.Email, "email", "", "Email address")
	f.StringVar(&registerInput.Password, "password", "", "Password (prompted when omitted)")
	f.StringVar(&registerConfirm, "confirm-password", "", "Repeat the password")
	f.StringVar(&registerInput.FirstName, "first-name", "", "First name")
	f.StringVar(&registerInput.LastName, "last-name", "", "Last name")
	f.StringVar(&registerRole, "role", "PATIENT", "Account role")

	pf := profileUpdateCmd.Flags()
	pf.StringVar(&profileInput.FirstName, "first-name", "", "First name")
	pf.StringVar(&profileInput.LastName, "last-name", "", "Last name")
	pf.StringVar(&profileInput.Email, "email", "", "Email address")
	pf.StringVar(&profileInput.PhoneNumber, "phone", "", "Phone number")
	pf.StringVar(&profileInput.Address, "address", "", "Postal address")
	pf.StringVar(&profileInput.DateOfBirth, "date-of-birth", "", "Date of birth (YYYY-MM-DD)")

	passwordCmd.Flags().StringVar(&oldPassword, "old", "", "Current password")
	passwordCmd.Flags().StringVar(&newPassword, "new", "", "New password")
	passwordCmd.Flags().StringVar(&confirmPassword, "confirm", "", "Repeat the new password (defaults to --new)")
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// promptCredentials asks for whatever the flags left empty
func promptCredentials(username, password *string) error {
	if *username != "" && *password != "" {
		return nil
	}
	if !isInteractive() {
		return errors.New("--username and --password are required when not running in a terminal")
	}

	var fields []huh.Field
	if *username == "" {
		fields = append(fields, huh.NewInput().Title("Username").Value(username))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(password))
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

// runLogin authenticates and returns exit code
func runLogin(ctx context.Context, a *app, w io.Writer, username, password string) int {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		fmt.Fprintln(w, "Error: username and password are required")
		return exitError
	}

	user, err := a.session.Login(ctx, username, password)
	if err != nil {
		return reportError(w, err)
	}

	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(user))
	} else {
		fmt.Fprintf(w, "Logged in as %s (%s)\n", displayName(user), strings.ToLower(string(user.Role)))
	}
	return exitOK
}

func runLogout(ctx context.Context, a *app, w io.Writer) int {
	if err := a.session.Logout(); err != nil {
		return reportError(w, err)
	}
	fmt.Fprintln(w, "Logged out")
	return exitOK
}

func runWhoami(ctx context.Context, a *app, w io.Writer) int {
	if code, ok := authorize(ctx, a, w, "/dashboard"); !ok {
		return code
	}
	user := a.session.User()
	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(user))
	} else {
		fmt.Fprintf(w, "%s (%s)\n", displayName(user), strings.ToLower(string(user.Role)))
	}
	return exitOK
}

func runRegister(ctx context.Context, a *app, w io.Writer, in models.RegisterInput, role, confirm string) int {
	r, err := models.ParseRole(role)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	in.Role = r

	if in.Username == "" || in.Email == "" || in.Password == "" {
		fmt.Fprintln(w, "Error: --username, --email and a password are required")
		return exitError
	}
	if confirm != "" && confirm != in.Password {
		fmt.Fprintln(w, "Error: passwords do not match")
		return exitError
	}

	user, err := a.svc.Auth.Register(ctx, in)
	if err != nil {
		return reportError(w, err)
	}
	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(user))
	} else {
		fmt.Fprintln(w, "Registration successful. Please log in with 'clinic login'.")
	}
	return exitOK
}

func runProfile(ctx context.Context, a *app, w io.Writer) int {
	if code, ok := authorize(ctx, a, w, "/profile"); !ok {
		return code
	}
	user, err := a.svc.Auth.CurrentUser(ctx)
	if err != nil {
		return reportError(w, err)
	}
	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(user))
	} else {
		fmt.Fprintln(w, formatProfileHuman(user))
	}
	return exitOK
}

func runProfileUpdate(ctx context.Context, a *app, w io.Writer, in models.ProfileUpdate) int {
	if in.IsEmpty() {
		fmt.Fprintln(w, "Error: nothing to update, pass at least one field flag")
		return exitError
	}
	if code, ok := authorize(ctx, a, w, "/profile"); !ok {
		return code
	}

	user, err := a.svc.Auth.UpdateProfile(ctx, in)
	if err != nil {
		return reportError(w, err)
	}
	a.session.SetUser(user)

	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(user))
	} else {
		fmt.Fprintln(w, "Profile updated successfully")
	}
	return exitOK
}

func runPassword(ctx context.Context, a *app, w io.Writer, oldPw, newPw, confirm string) int {
	if oldPw == "" || newPw == "" {
		fmt.Fprintln(w, "Error: current and new password are required")
		return exitError
	}
	if confirm != "" && confirm != newPw {
		fmt.Fprintln(w, "Error: new passwords do not match")
		return exitError
	}
	if code, ok := authorize(ctx, a, w, "/profile"); !ok {
		return code
	}

	if err := a.svc.Auth.ChangePassword(ctx, oldPw, newPw); err != nil {
		return reportError(w, err)
	}
	fmt.Fprintln(w, "Password updated successfully")
	return exitOK
}

func displayName(u *models.User) string {
	if u == nil {
		return ""
	}
	if u.IsDoctor() {
		return "Dr. " + u.FullName()
	}
	return u.FullName()
}

// formatProfileHuman formats a user profile for human readability
func formatProfileHuman(u *models.User) string {
	s := fmt.Sprintf(`Username:       %s
Name:           %s
Email:          %s
Role:           %s
Phone:          %s
Address:        %s
Date of birth:  %s`,
		u.Username, u.FullName(), u.Email, u.Role, u.PhoneNumber, u.Address, u.DateOfBirth)
	if u.IsDoctor() {
		s += fmt.Sprintf("\nSpecialization: %s\nBio:            %s", u.Specialization, u.Bio)
	}
	return s
}
