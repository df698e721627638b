// ABOUTME: Account endpoints: CSRF priming, registration, tokens and profile
// ABOUTME: Token endpoints are sent anonymously and never trigger a refresh

package services

import (
	"context"
	"net/http"

	"github.com/adeebazad/react-homoeo/internal/client"
	"github.com/adeebazad/react-homoeo/internal/models"
)

const (
	csrfPath           = "/api/accounts/csrf/"
	registerPath       = "/api/accounts/register/"
	tokenPath          = "/api/accounts/token/"
	tokenRefreshPath   = "/api/accounts/token/refresh/"
	profilePath        = "/api/accounts/profile/"
	changePasswordPath = "/api/accounts/change-password/"
)

// AuthService wraps /api/accounts/
type AuthService struct {
	c *client.Client
}

// FetchCSRF primes the csrftoken cookie
func (s *AuthService) FetchCSRF(ctx context.Context) error {
	return s.c.Do(ctx, &client.Request{Method: http.MethodGet, Path: csrfPath, SkipAuth: true}, nil)
}

// Register creates an account. An empty role registers a patient.
func (s *AuthService) Register(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	if in.Role == "" {
		in.Role = models.RolePatient
	}
	if err := s.FetchCSRF(ctx); err != nil {
		return nil, err
	}

	var user models.User
	err := s.c.Do(ctx, &client.Request{Method: http.MethodPost, Path: registerPath, Body: in, SkipAuth: true}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token pair
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.TokenPair, error) {
	if err := s.FetchCSRF(ctx); err != nil {
		return nil, err
	}

	var pair models.TokenPair
	req := &client.Request{
		Method:   http.MethodPost,
		Path:     tokenPath,
		Body:     models.Credentials{Username: username, Password: password},
		SkipAuth: true,
	}
	if err := s.c.Do(ctx, req, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Refresh redeems a refresh token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	var pair models.TokenPair
	req := &client.Request{
		Method:   http.MethodPost,
		Path:     tokenRefreshPath,
		Body:     map[string]string{"refresh": refreshToken},
		SkipAuth: true,
	}
	if err := s.c.Do(ctx, req, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Profile fetches the user that owns accessToken. A 401 is returned as-is.
func (s *AuthService) Profile(ctx context.Context, accessToken string) (*models.User, error) {
	var user models.User
	req := &client.Request{Method: http.MethodGet, Path: profilePath, Bearer: accessToken}
	if err := s.c.Do(ctx, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUser fetches the profile with the session token
func (s *AuthService) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := s.c.Get(ctx, profilePath, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile patches the profile and returns the stored result
func (s *AuthService) UpdateProfile(ctx context.Context, in models.ProfileUpdate) (*models.User, error) {
	var user models.User
	if err := s.c.Patch(ctx, profilePath, in, &user); err != nil {
		return nil, err
	}
	if user.Username == "" {
		return s.CurrentUser(ctx)
	}
	return &user, nil
}

// ChangePassword replaces the account password
func (s *AuthService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	in := models.PasswordChange{OldPassword: oldPassword, NewPassword: newPassword}
	return s.c.Post(ctx, changePasswordPath, in, nil)
}
