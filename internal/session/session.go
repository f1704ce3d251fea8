// Package session holds the authentication state of the client: the token
// pair, the authenticated flag, the post-login redirect path and the seed
// phrase. Everything is persisted in a storage.Store and every change is
// announced on the event bus.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/neuropassword/npass/internal/api"
	"github.com/neuropassword/npass/internal/constants"
	"github.com/neuropassword/npass/internal/events"
	"github.com/neuropassword/npass/internal/logging"
	"github.com/neuropassword/npass/internal/storage"
)

// Reasons attached to session events.
const (
	ReasonLogin        = "login"
	ReasonLogout       = "logout"
	ReasonUnauthorized = "unauthorized"
)

// Session is the explicit session context shared by the API client, the
// route guard and the dashboard.
type Session struct {
	mu     sync.Mutex
	store  storage.Store
	bus    *events.EventBus
	logger *logging.Logger
}

// New creates a session over store. A nil bus gets a private one so that
// Subscribe always works.
func New(store storage.Store, bus *events.EventBus, logger *logging.Logger) *Session {
	if bus == nil {
		bus = events.NewEventBus(0)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Session{store: store, bus: bus, logger: logger}
}

// SetSession persists both tokens and marks the session authenticated in a
// single store update.
func (s *Session) SetSession(accessToken, refreshToken string) error {
	accessToken = strings.TrimSpace(accessToken)
	refreshToken = strings.TrimSpace(refreshToken)
	if accessToken == "" || refreshToken == "" {
		return &api.ValidationError{Field: "token", Message: "access and refresh tokens are required"}
	}

	s.mu.Lock()
	err := s.store.SetMany(map[string]string{
		constants.KeyAccessToken:   accessToken,
		constants.KeyRefreshToken:  refreshToken,
		constants.KeyAuthenticated: constants.AuthenticatedFlag,
	})
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.bus.PublishSession(true, ReasonLogin)
	return nil
}

// ClearSession removes the tokens, the authenticated flag and the redirect
// path.
func (s *Session) ClearSession() error {
	return s.clear(ReasonLogout)
}

// Invalidate clears the session after the server rejected it.
func (s *Session) Invalidate() error {
	return s.clear(ReasonUnauthorized)
}

func (s *Session) clear(reason string) error {
	s.mu.Lock()
	err := s.store.Delete(
		constants.KeyAccessToken,
		constants.KeyRefreshToken,
		constants.KeyAuthenticated,
		constants.KeyRedirectPath,
	)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.bus.PublishSession(false, reason)
	return nil
}

// IsAuthenticated reports whether both tokens are present and non-empty and
// the flag is set.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(constants.KeyAccessToken) != "" &&
		s.get(constants.KeyRefreshToken) != "" &&
		s.get(constants.KeyAuthenticated) == constants.AuthenticatedFlag
}

// AccessToken returns the stored access token or "".
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(constants.KeyAccessToken)
}

// RefreshToken returns the stored refresh token or "".
func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(constants.KeyRefreshToken)
}

// TokenExpiry returns the exp claim of the access token. The token is
// decoded without verification; the server remains the authority. Zero
// means no token or no readable expiry.
func (s *Session) TokenExpiry() time.Time {
	token := s.AccessToken()
	if token == "" {
		return time.Time{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// SetRedirectPath records where the user was headed before being sent to
// login.
func (s *Session) SetRedirectPath(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Set(constants.KeyRedirectPath, path)
}

// ConsumeRedirectPath returns the recorded redirect path and forgets it.
// Without a usable path it returns /dashboard.
func (s *Session) ConsumeRedirectPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.get(constants.KeyRedirectPath)
	if path != "" {
		if err := s.store.Delete(constants.KeyRedirectPath); err != nil {
			s.logger.Warn().Err(err).Msg("failed to clear redirect path")
		}
	}

	// Never bounce back into the login flow or off-site.
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") ||
		path == constants.RouteLogin || path == constants.RouteRegister {
		return constants.RouteDashboard
	}
	return path
}

// SetSeedPhrase remembers the seed phrase the user logged in with.
func (s *Session) SetSeedPhrase(phrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Set(constants.KeySeedPhrase, phrase)
}

// SeedPhrase returns the remembered seed phrase or "".
func (s *Session) SeedPhrase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(constants.KeySeedPhrase)
}

// ForgetSeedPhrase removes the remembered seed phrase.
func (s *Session) ForgetSeedPhrase() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Delete(constants.KeySeedPhrase)
}

// Subscribe returns a channel of session_changed events.
func (s *Session) Subscribe() <-chan events.Event {
	return s.bus.Subscribe(events.EventSessionChanged)
}

// Unsubscribe stops delivery to a channel returned by Subscribe.
func (s *Session) Unsubscribe(ch <-chan events.Event) {
	s.bus.Unsubscribe(events.EventSessionChanged, ch)
}

// get reads key; storage failures read as absent. Callers hold s.mu.
func (s *Session) get(key string) string {
	v, ok, err := s.store.Get(key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("session read failed")
		return ""
	}
	if !ok {
		return ""
	}
	return v
}
