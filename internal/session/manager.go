// ABOUTME: Session state machine owning the current user and the token pair
// ABOUTME: Serializes refresh redemption and lets logout win over in-flight work

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/adeebazad/react-homoeo/internal/models"
)

// LoginPath is where a forced logout sends the user
const LoginPath = "/login"

var (
	// ErrExpired wraps every failure that ended the session
	ErrExpired = errors.New("session expired")
	// ErrNoRefreshToken is returned when a refresh is needed but none is held
	ErrNoRefreshToken = errors.New("no refresh token available")
	// ErrLoggedOut is returned when the session ended while work was in flight
	ErrLoggedOut = errors.New("logged out")
	// ErrInvalidTokenResponse is returned when the token endpoint omits a token
	ErrInvalidTokenResponse = errors.New("invalid response from server: missing token")
)

// AuthAPI is the subset of the auth service the session needs
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Profile(ctx context.Context, accessToken string) (*models.User, error)
}

// Navigator moves the user interface to another route
type Navigator interface {
	Redirect(path string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(path string)

func (f NavigatorFunc) Redirect(path string) { f(path) }

type noopNavigator struct{}

func (noopNavigator) Redirect(string) {}

// Manager is the single source of truth for who is logged in
type Manager struct {
	api    AuthAPI
	store  TokenStore
	nav    Navigator
	now    func() time.Time
	logger *slog.Logger

	mu     sync.RWMutex
	state  State
	user   *models.User
	tokens Tokens
	// epoch changes on every login and logout; results captured under an older epoch are stale
	epoch uint64

	refreshes singleflight.Group
}

// Option configures a Manager
type Option func(*Manager)

// WithNavigator sets the target of forced-logout redirects
func WithNavigator(n Navigator) Option {
	return func(m *Manager) {
		m.nav = n
	}
}

// WithClock replaces time.Now for expiry checks
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a Manager in the Uninitialized state
func NewManager(api AuthAPI, store TokenStore, opts ...Option) *Manager {
	m := &Manager{
		api:    api,
		store:  store,
		nav:    noopNavigator{},
		now:    time.Now,
		logger: slog.Default(),
		state:  Uninitialized,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetNavigator replaces the redirect target after construction
func (m *Manager) SetNavigator(n Navigator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nav = n
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// User returns a copy of the logged-in user, or nil
func (m *Manager) User() *models.User {
	return m.Snapshot().User
}

// Snapshot returns the state and user read under one lock
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{State: m.state}
	if m.state == Authenticated && m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

// AccessToken returns the bearer token for outgoing requests
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens.Access
}

// SetUser replaces the cached user after a profile update
func (m *Manager) SetUser(u *models.User) {
	if u == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Authenticated {
		return
	}
	cp := *u
	m.user = &cp
}

// CheckAuth restores the session from the persisted tokens.
// The returned error explains why the session could not be restored; the state is
// Anonymous in that case and the persisted tokens are gone. A cancelled ctx returns
// ctx.Err() and leaves the session as it was.
func (m *Manager) CheckAuth(ctx context.Context) (State, error) {
	// loaded under m.mu so a concurrent refresh is never overwritten with the pair it replaced
	m.mu.Lock()
	tokens, err := m.store.Load()
	if err != nil {
		m.logger.Warn("failed to load session", "error", err)
		tokens = Tokens{}
	}
	epoch, prev := m.epoch, m.state
	m.state = Checking
	m.tokens = tokens
	m.mu.Unlock()

	if tokens.Access == "" {
		m.mu.Lock()
		if m.epoch == epoch {
			m.state = Anonymous
			m.user = nil
		}
		st := m.state
		m.mu.Unlock()
		return st, nil
	}

	if m.usable(tokens.Access) {
		user, err := m.api.Profile(ctx, tokens.Access)
		if err == nil {
			return m.authenticate(epoch, user), nil
		}
		if ctx.Err() != nil {
			return m.abandonCheck(epoch, prev), ctx.Err()
		}
		m.logger.Debug("stored access token rejected", "error", err)
	}

	if tokens.Refresh == "" {
		m.forceLogout(epoch, ErrNoRefreshToken)
		return m.State(), fmt.Errorf("%w: %w", ErrExpired, ErrNoRefreshToken)
	}

	access, err := m.redeem(ctx, tokens.Access, epoch)
	if err == nil {
		var user *models.User
		user, err = m.api.Profile(ctx, access)
		if err == nil {
			return m.authenticate(epoch, user), nil
		}
	}
	switch {
	case errors.Is(err, ErrLoggedOut):
		return m.State(), nil
	case ctx.Err() != nil:
		// the caller gave up; keep the session for the next check
		return m.abandonCheck(epoch, prev), ctx.Err()
	}
	m.forceLogout(epoch, err)
	return m.State(), fmt.Errorf("%w: %w", ErrExpired, err)
}

// abandonCheck puts back the state CheckAuth replaced, keeping the tokens
func (m *Manager) abandonCheck(epoch uint64, prev State) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch == epoch && m.state == Checking {
		m.state = prev
	}
	return m.state
}

// usable reports whether the token is still worth presenting.
// An undecodable token is treated as expired.
func (m *Manager) usable(token string) bool {
	exp, err := ExpiresAt(token)
	if err != nil {
		m.logger.Debug("access token not decodable", "error", err)
		return false
	}
	return exp.After(m.now())
}

func (m *Manager) authenticate(epoch uint64, user *models.User) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		// a login or logout happened meanwhile and its outcome stands
		return m.state
	}
	cp := *user
	m.user = &cp
	m.state = Authenticated
	return m.state
}

// Login exchanges credentials for tokens and loads the profile.
// Nothing is persisted unless both steps succeed.
func (m *Manager) Login(ctx context.Context, username, password string) (*models.User, error) {
	pair, err := m.api.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if pair == nil || pair.Access == "" || pair.Refresh == "" {
		return nil, ErrInvalidTokenResponse
	}

	user, err := m.api.Profile(ctx, pair.Access)
	if err != nil {
		return nil, err
	}

	tokens := Tokens{Access: pair.Access, Refresh: pair.Refresh}
	if err := m.store.Save(tokens); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	m.mu.Lock()
	m.epoch++
	m.tokens = tokens
	cp := *user
	m.user = &cp
	m.state = Authenticated
	m.mu.Unlock()

	m.logger.Info("logged in", "user", user.Username, "role", user.Role)
	out := cp
	return &out, nil
}

// Logout clears the session unconditionally
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.epoch++
	m.tokens = Tokens{}
	m.user = nil
	m.state = Anonymous
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// RefreshAccess redeems the refresh token on behalf of a request that got a 401.
// On failure the session is torn down and the user is redirected to the login route.
func (m *Manager) RefreshAccess(ctx context.Context, stale string) (string, error) {
	m.mu.RLock()
	epoch := m.epoch
	m.mu.RUnlock()

	access, err := m.redeem(ctx, stale, epoch)
	if err == nil {
		return access, nil
	}

	switch {
	case errors.Is(err, ErrLoggedOut):
	case ctx.Err() != nil:
		// the caller gave up; the shared redemption may still succeed
		return "", ctx.Err()
	default:
		m.forceLogout(epoch, err)
	}
	return "", fmt.Errorf("%w: %w", ErrExpired, err)
}

// redeem exchanges the refresh token for a new access token. Concurrent callers
// in the same epoch share one redemption, and a caller whose stale token was
// already replaced gets the current token without redeeming again.
func (m *Manager) redeem(ctx context.Context, stale string, epoch uint64) (string, error) {
	ch := m.refreshes.DoChan(strconv.FormatUint(epoch, 10), func() (any, error) {
		m.mu.RLock()
		current, refresh, now := m.tokens.Access, m.tokens.Refresh, m.epoch
		m.mu.RUnlock()

		if now != epoch {
			return "", ErrLoggedOut
		}
		if current != "" && current != stale {
			return current, nil
		}
		if refresh == "" {
			return "", ErrNoRefreshToken
		}

		// detached so one caller's cancellation does not fail the others
		pair, err := m.api.Refresh(context.WithoutCancel(ctx), refresh)
		if err != nil {
			return "", err
		}
		if pair == nil || pair.Access == "" {
			return "", ErrInvalidTokenResponse
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.epoch != epoch {
			return "", ErrLoggedOut
		}
		m.tokens.Access = pair.Access
		if pair.Refresh != "" {
			m.tokens.Refresh = pair.Refresh
		}
		if err := m.store.Save(m.tokens); err != nil {
			m.logger.Warn("failed to persist refreshed token", "error", err)
		}
		m.logger.Debug("access token refreshed", "rotated", pair.Refresh != "")
		return pair.Access, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// forceLogout ends the session opened in epoch. A newer epoch means the user
// already logged out or back in, so the request is ignored.
func (m *Manager) forceLogout(epoch uint64, cause error) {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	m.epoch++
	m.tokens = Tokens{}
	m.user = nil
	m.state = Anonymous
	nav := m.nav
	err := m.store.Clear()
	m.mu.Unlock()

	m.logger.Warn("session ended", "reason", cause)
	if err != nil {
		m.logger.Error("failed to clear session", "error", err)
	}
	nav.Redirect(LoginPath)
}
