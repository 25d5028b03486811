// Package session owns the bearer token and the current user profile. It
// is the gatekeeper for every authenticated call: the API client reads the
// token through the Manager before each request, and any authentication
// failure invalidates the whole session at once.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/paisapredict/predictctl/internal/domain"
	"github.com/paisapredict/predictctl/internal/platform/paisa"
)

// State is the session lifecycle. A session is Unknown until the first
// RefreshUser resolves; callers that require authentication should wait for
// that rather than treating Unknown as Anonymous.
type State int

const (
	StateUnknown State = iota
	StateAnonymous
	StateAuthenticated
)

// Manager holds the token and profile for one session. It is the single
// owner of that state: the store is read once at Init and every mutation
// writes through.
type Manager struct {
	client *paisa.Client
	store  TokenStore
	logger *slog.Logger
	now    func() time.Time

	token string
	user  *domain.User
	state State
}

// NewManager creates a Manager over the given token store. Bind must be
// called with the API client before any network operation.
func NewManager(store TokenStore, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger.With(slog.String("component", "session")),
		now:    time.Now,
		state:  StateUnknown,
	}
}

// Bind attaches the API client. Separate from the constructor because the
// client in turn reads its bearer token from this Manager.
func (m *Manager) Bind(client *paisa.Client) {
	m.client = client
	client.SetTokenSource(m)
}

// Init loads the stored token into memory. It performs no network calls.
func (m *Manager) Init() error {
	token, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("session: init: %w", err)
	}
	m.token = token
	return nil
}

// Token implements paisa.TokenSource.
func (m *Manager) Token() string {
	return m.token
}

// Login exchanges credentials for a bearer token, persists it, and fetches
// the profile. Authentication failures propagate to the caller with the
// service's message intact.
func (m *Manager) Login(ctx context.Context, email, password string) (domain.User, error) {
	token, err := m.client.Signin(ctx, email, password)
	if err != nil {
		return domain.User{}, err
	}

	if err := m.store.Save(token); err != nil {
		return domain.User{}, err
	}
	m.token = token

	user, err := m.client.GetMe(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("session: fetch profile after login: %w", err)
	}
	m.user = &user
	m.state = StateAuthenticated

	m.logger.InfoContext(ctx, "logged in", slog.String("email", user.Email))
	return user, nil
}

// Signup registers a new account. It does not authenticate; the caller must
// still Login afterwards.
func (m *Manager) Signup(ctx context.Context, email, password string) error {
	return m.client.Signup(ctx, email, password)
}

// RefreshUser resolves the session state from the stored token. A missing
// or rejected token is an expected condition, not an error: the token is
// cleared and the session degrades to anonymous.
func (m *Manager) RefreshUser(ctx context.Context) (*domain.User, error) {
	if m.token == "" {
		m.setAnonymous()
		return nil, nil
	}

	// A token whose exp claim has already passed cannot succeed; clear it
	// without the doomed round-trip. The signature is the server's to
	// verify, so the claims are parsed unverified.
	if expired, err := tokenExpired(m.token, m.now()); err == nil && expired {
		m.logger.DebugContext(ctx, "stored token expired, clearing")
		m.clearToken()
		return nil, nil
	}

	user, err := m.client.GetMe(ctx)
	if err != nil {
		m.logger.DebugContext(ctx, "passive refresh failed, degrading to anonymous",
			slog.String("error", err.Error()),
		)
		m.clearToken()
		return nil, nil
	}

	m.user = &user
	m.state = StateAuthenticated
	return &user, nil
}

// Logout clears the token and profile unconditionally. It always succeeds
// locally; a store failure is logged but does not keep the session alive.
func (m *Manager) Logout() {
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("failed to clear stored token", slog.String("error", err.Error()))
	}
	m.token = ""
	m.user = nil
	m.state = StateAnonymous
}

// CurrentUser returns the cached profile, or nil when anonymous.
func (m *Manager) CurrentUser() *domain.User {
	return m.user
}

// IsAuthenticated reports whether a profile is loaded.
func (m *Manager) IsAuthenticated() bool {
	return m.user != nil
}

// IsAdmin reports whether the current user has the administrator flag.
func (m *Manager) IsAdmin() bool {
	return m.user != nil && m.user.IsAdmin
}

// State returns the session lifecycle state.
func (m *Manager) State() State {
	return m.state
}

func (m *Manager) setAnonymous() {
	m.user = nil
	m.state = StateAnonymous
}

func (m *Manager) clearToken() {
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("failed to clear stored token", slog.String("error", err.Error()))
	}
	m.token = ""
	m.setAnonymous()
}

// tokenExpired inspects the token's exp claim without verifying the
// signature. Tokens without an exp claim are treated as not expired.
func tokenExpired(token string, now time.Time) (bool, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, err
	}
	return exp.Before(now), nil
}
