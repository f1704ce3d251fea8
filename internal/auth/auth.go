// Package auth implements seed-phrase registration and login.
package auth

import (
	"context"
	"errors"
	nethttp "net/http"
	"strings"

	"github.com/neuropassword/npass/internal/api"
	"github.com/neuropassword/npass/internal/logging"
	"github.com/neuropassword/npass/internal/models"
)

// ErrInvalidSeed is returned when the server accepted the request but
// issued no access token.
var ErrInvalidSeed = errors.New("invalid seed phrase")

// Messages shown to the user.
const (
	EmptySeedMessage      = "Seed phrase cannot be empty"
	InvalidSeedMessage    = "Invalid seed phrase. Please try again."
	LoginFailedMessage    = "An error occurred. Please try again."
	RegisterFailedMessage = "Failed to generate seed phrase. Please try again."
)

// AuthAPI is the remote side of authentication.
type AuthAPI interface {
	GeneratePassPhrase(ctx context.Context) (string, error)
	GenerateToken(ctx context.Context, phrase string) (models.TokenPair, error)
}

// SessionStore is the part of the session that login and logout change.
type SessionStore interface {
	SetSession(accessToken, refreshToken string) error
	ClearSession() error
	IsAuthenticated() bool
	SetSeedPhrase(phrase string) error
	ForgetSeedPhrase() error
	ConsumeRedirectPath() string
}

// Clearer drops locally cached data on logout.
type Clearer interface {
	Clear() error
}

// Service runs the authentication flows.
type Service struct {
	remote  AuthAPI
	session SessionStore
	caches  []Clearer
	logger  *logging.Logger
}

// NewService creates an auth service. caches are cleared on logout.
func NewService(remote AuthAPI, session SessionStore, logger *logging.Logger, caches ...Clearer) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{remote: remote, session: session, caches: caches, logger: logger.Named("auth")}
}

// Register asks the server for a new seed phrase. The phrase is not stored;
// the user logs in with it afterwards.
func (s *Service) Register(ctx context.Context) (string, error) {
	phrase, err := s.remote.GeneratePassPhrase(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("seed phrase generation failed")
		return "", err
	}
	s.logger.Info().Int("words", len(strings.Fields(phrase))).Msg("seed phrase generated")
	return phrase, nil
}

// Login exchanges phrase for tokens and establishes the session. It returns
// the path to continue to, which is the path remembered before login or
// /dashboard.
func (s *Service) Login(ctx context.Context, phrase string) (string, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return "", &api.ValidationError{Field: "pass_phrase", Message: EmptySeedMessage}
	}

	pair, err := s.remote.GenerateToken(ctx, phrase)
	if err != nil {
		s.dropStaleSession()
		return "", err
	}

	if strings.TrimSpace(pair.Access) == "" {
		return "", ErrInvalidSeed
	}
	if strings.TrimSpace(pair.Refresh) == "" {
		return "", &api.RemoteError{
			Method: nethttp.MethodPost,
			Path:   "user/generate-token/",
			Status: nethttp.StatusOK,
			Err:    errors.New("response has no refresh token"),
		}
	}

	if err := s.session.SetSession(pair.Access, pair.Refresh); err != nil {
		return "", err
	}
	if err := s.session.SetSeedPhrase(phrase); err != nil {
		s.logger.Warn().Err(err).Msg("failed to remember seed phrase")
	}

	target := s.session.ConsumeRedirectPath()
	s.logger.Info().Str("redirect", target).Msg("logged in")
	return target, nil
}

// dropStaleSession clears tokens left over from an earlier login. With no
// session the remembered redirect path is kept for the next attempt.
func (s *Service) dropStaleSession() {
	if !s.session.IsAuthenticated() {
		return
	}
	if err := s.session.ClearSession(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear session after login error")
	}
}

// Logout forgets the session, the seed phrase and every cache. Every step
// runs even when an earlier one fails.
func (s *Service) Logout() error {
	var errs []error
	if err := s.session.ForgetSeedPhrase(); err != nil {
		errs = append(errs, err)
	}
	if err := s.session.ClearSession(); err != nil {
		errs = append(errs, err)
	}
	for _, c := range s.caches {
		if err := c.Clear(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		s.logger.Info().Msg("logged out")
	}
	return errors.Join(errs...)
}

// LoginMessage returns the line shown for a failed login.
func LoginMessage(err error) string {
	if errors.Is(err, ErrInvalidSeed) {
		return InvalidSeedMessage
	}
	return api.UserMessage(err, LoginFailedMessage)
}

// RegisterMessage returns the line shown for a failed registration.
func RegisterMessage(err error) string {
	return api.UserMessage(err, RegisterFailedMessage)
}
