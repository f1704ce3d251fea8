package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuropassword/npass/internal/api"
	"github.com/neuropassword/npass/internal/config"
	"github.com/neuropassword/npass/internal/constants"
	"github.com/neuropassword/npass/internal/folders"
	"github.com/neuropassword/npass/internal/mockapi"
	"github.com/neuropassword/npass/internal/models"
	"github.com/neuropassword/npass/internal/session"
	"github.com/neuropassword/npass/internal/storage"
)

type fixture struct {
	mock    *mockapi.Server
	session *session.Session
	cache   *folders.Cache
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mock := mockapi.New(nil)
	srv := httptest.NewServer(mock)
	t.Cleanup(srv.Close)

	store := storage.NewMemoryStore()
	sess := session.New(store, nil, nil)

	cfg := config.NewConfig()
	cfg.APIBaseURL = srv.URL + "/api/"
	client, err := api.NewClient(cfg, api.WithHTTPClient(srv.Client()), api.WithSession(sess))
	require.NoError(t, err)

	cache := folders.NewCache(store, nil)
	return &fixture{mock: mock, session: sess, cache: cache, svc: NewService(client, sess, nil, cache)}
}

func TestRegisterThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	phrase, err := f.svc.Register(ctx)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(phrase), 12)
	assert.False(t, f.session.IsAuthenticated(), "register does not log in")

	target, err := f.svc.Login(ctx, "  "+phrase+"\n")
	require.NoError(t, err)
	assert.Equal(t, constants.RouteDashboard, target)
	assert.True(t, f.session.IsAuthenticated())
	assert.Equal(t, phrase, f.session.SeedPhrase())
	assert.False(t, f.session.TokenExpiry().IsZero())
}

func TestLoginReturnsRememberedPath(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.session.SetRedirectPath("/dashboard/folders"))

	target, err := f.svc.Login(context.Background(), mockapi.DefaultSeedPhrase)
	require.NoError(t, err)
	assert.Equal(t, "/dashboard/folders", target)
}

func TestLoginEmptyPhrase(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Login(context.Background(), " \t ")
	assert.True(t, api.IsValidation(err))
	assert.Equal(t, EmptySeedMessage, LoginMessage(err))
	assert.Zero(t, f.mock.TotalCalls())
}

func TestLoginRejectedPhrase(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.session.SetRedirectPath("/dashboard/x"))

	_, err := f.svc.Login(context.Background(), "not a phrase")
	require.Error(t, err)
	assert.True(t, api.IsRemote(err))
	assert.Equal(t, "Invalid pass phrase.", LoginMessage(err))
	assert.False(t, f.session.IsAuthenticated())
	assert.Equal(t, "/dashboard/x", f.session.ConsumeRedirectPath(), "redirect kept for the next attempt")
}

func TestLoginFailureClearsStaleSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.session.SetSession("old-access", "old-refresh"))
	f.mock.FailNext(http.StatusInternalServerError)

	_, err := f.svc.Login(context.Background(), mockapi.DefaultSeedPhrase)
	require.Error(t, err)
	assert.Equal(t, LoginFailedMessage, LoginMessage(err))
	assert.False(t, f.session.IsAuthenticated())
	assert.Empty(t, f.session.AccessToken())
}

func TestRegisterFailure(t *testing.T) {
	f := newFixture(t)
	f.mock.FailNext(http.StatusBadGateway)

	_, err := f.svc.Register(context.Background())
	require.Error(t, err)
	assert.Equal(t, RegisterFailedMessage, RegisterMessage(err))
}

func TestLogoutClearsEverything(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Login(context.Background(), mockapi.DefaultSeedPhrase)
	require.NoError(t, err)
	require.NoError(t, f.cache.Save([]models.Folder{{ID: "1", Title: "Personal"}}))

	require.NoError(t, f.svc.Logout())

	assert.False(t, f.session.IsAuthenticated())
	assert.Empty(t, f.session.SeedPhrase())
	assert.Empty(t, f.cache.Load())
}

// tokenStub answers GenerateToken with a fixed pair.
type tokenStub struct {
	pair models.TokenPair
	err  error
}

func (s tokenStub) GeneratePassPhrase(ctx context.Context) (string, error) {
	return "", errors.New("not used")
}

func (s tokenStub) GenerateToken(ctx context.Context, phrase string) (models.TokenPair, error) {
	return s.pair, s.err
}

func TestLoginWithoutAccessToken(t *testing.T) {
	sess := session.New(storage.NewMemoryStore(), nil, nil)

	svc := NewService(tokenStub{pair: models.TokenPair{Refresh: "r"}}, sess, nil)
	_, err := svc.Login(context.Background(), "word")
	assert.ErrorIs(t, err, ErrInvalidSeed)
	assert.Equal(t, InvalidSeedMessage, LoginMessage(err))
	assert.False(t, sess.IsAuthenticated())

	svc = NewService(tokenStub{pair: models.TokenPair{Access: "a"}}, sess, nil)
	_, err = svc.Login(context.Background(), "word")
	assert.True(t, api.IsRemote(err))
	assert.False(t, sess.IsAuthenticated())
}
