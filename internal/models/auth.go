// ABOUTME: Account and credential types exchanged with the clinic backend
// ABOUTME: Covers users, roles, token pairs, registration and profile payloads

package models

import (
	"fmt"
	"strings"
)

// Role is the coarse-grained authorization tag attached to every account
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole normalizes a user-supplied role name
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return r, nil
	case "":
		return RolePatient, nil
	default:
		return "", fmt.Errorf("unknown role %q (expected PATIENT, DOCTOR or ADMIN)", s)
	}
}

// User is the account profile returned by /api/accounts/profile/
type User struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Role           Role   `json:"role"`
	PhoneNumber    string `json:"phone_number,omitempty"`
	Address        string `json:"address,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	Bio            string `json:"bio,omitempty"`
}

// FullName returns "First Last", falling back to the username
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// IsDoctor reports whether the user holds the DOCTOR role
func (u *User) IsDoctor() bool {
	return u != nil && u.Role == RoleDoctor
}

// TokenPair is the response of the token and token refresh endpoints.
// Refresh is empty on refresh responses unless the backend rotates it.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// Credentials is the body of POST /api/accounts/token/
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterInput is the body of POST /api/accounts/register/
type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      Role   `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ProfileUpdate is the PATCH body for /api/accounts/profile/.
// Only non-empty fields are sent.
type ProfileUpdate struct {
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Address     string `json:"address,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

// IsEmpty reports whether no field would be sent
func (p ProfileUpdate) IsEmpty() bool {
	return p == ProfileUpdate{}
}

// PasswordChange is the body of POST /api/accounts/change-password/
type PasswordChange struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}
