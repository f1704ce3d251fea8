package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neuropassword/npass/internal/api"
	"github.com/neuropassword/npass/internal/auth"
	"github.com/neuropassword/npass/internal/config"
	"github.com/neuropassword/npass/internal/constants"
	"github.com/neuropassword/npass/internal/dashboard"
	"github.com/neuropassword/npass/internal/events"
	"github.com/neuropassword/npass/internal/folders"
	"github.com/neuropassword/npass/internal/http"
	"github.com/neuropassword/npass/internal/logging"
	"github.com/neuropassword/npass/internal/route"
	"github.com/neuropassword/npass/internal/session"
	"github.com/neuropassword/npass/internal/storage"
)

// app is everything one command invocation works with.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	store   storage.Store
	bus     *events.EventBus
	session *session.Session
	history *route.History
	client  *api.Client
	folders *folders.Service
	auth    *auth.Service
	guard   *route.Guard
	router  *route.Router

	trail   *eventTrail
	errOut  io.Writer
	closers []io.Closer
}

// loadConfig resolves configuration: flags > environment (.env included) >
// config file > defaults.
func loadConfig() (*config.Config, error) {
	log := GetLogger()

	if err := config.LoadDotEnv(""); err != nil {
		log.Warn().Err(err).Msg("Ignoring unreadable .env file")
	}

	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	config.ApplyEnv(cfg)

	url, source := config.ResolveAPIURL(apiBaseURL, cfg)
	cfg.APIBaseURL = url
	log.Debug().Str("api_url", url).Str("source", source).Msg("Resolved API URL")

	if storePath != "" {
		cfg.StorePath = storePath
	}
	if ephemeral {
		cfg.Ephemeral = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newApp loads configuration, opens the store and wires the client stack.
// Callers must Close the returned app.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	a := &app{cfg: cfg, logger: GetLogger(), errOut: cmd.ErrOrStderr()}

	if cfg.LogToFile {
		closer, err := a.logger.EnableFileOutput(config.LogDirectory())
		if err != nil {
			a.logger.Warn().Err(err).Msg("File logging disabled")
		} else {
			a.closers = append(a.closers, closer)
		}
	}

	if cfg.Ephemeral {
		a.store = storage.NewMemoryStore()
	} else {
		bolt, err := storage.OpenBolt(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		a.store = bolt
	}
	a.closers = append(a.closers, a.store)

	if http.NeedsProxyPassword(cfg) && cfg.ProxyPassword == "" {
		password, err := newPrompter(cmd).Secret(fmt.Sprintf("Proxy password for %s: ", cfg.ProxyUser))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to read proxy password: %w", err)
		}
		cfg.ProxyPassword = password
	}

	a.bus = events.NewEventBus(constants.EventBusDefaultBuffer)
	a.trail = newEventTrail(a.bus, a.logger.Named("events"))
	a.session = session.New(a.store, a.bus, a.logger.Named("session"))
	a.history = route.NewHistory(constants.RouteRoot, a.bus)

	a.client, err = api.NewClient(cfg,
		api.WithSession(a.session),
		api.WithNavigator(a.history),
		api.WithEventBus(a.bus),
		api.WithLogger(a.logger.Named("api")),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	cache := folders.NewCache(a.store, a.logger.Named("cache"))
	a.folders = folders.NewService(a.client, cache, a.bus, a.logger.Named("folders"))
	a.auth = auth.NewService(a.client, a.session, a.logger, a.folders)
	a.guard = route.NewGuard(a.session, a.history, a.logger.Named("route"))
	a.router = route.NewRouter(a.guard, a.history)

	return a, nil
}

// dashboard visits path and returns a mounted controller, or an error
// telling the user to log in when the guard redirected.
func (a *app) dashboard(cmd *cobra.Command, path string) (*dashboard.Controller, error) {
	if _, state := a.router.Visit(path); state != route.Allowed {
		return nil, errNotLoggedIn
	}

	ctrl := dashboard.NewController(a.folders, a.session, a.auth, a.history, a.bus, a.logger)
	if err := ctrl.Mount(GetContext()); err != nil {
		ctrl.Unmount()
		return nil, a.explain(err, dashboard.LoadFailedMessage)
	}
	if ctrl.FromCache() {
		printWarning(cmd.ErrOrStderr(), "Server unreachable, showing cached folders")
	}
	return ctrl, nil
}

// explain turns an operation error into the message shown to the user.
func (a *app) explain(err error, fallback string) error {
	if api.IsAuth(err) {
		return errSessionExpired
	}
	a.logger.Debug().Err(err).Msg("Command failed")
	return errors.New(api.UserMessage(err, fallback))
}

// Close reports what the command did, then releases the store and log files.
func (a *app) Close() {
	if a.trail != nil {
		a.trail.drain(a.errOut)
		a.trail = nil
	}
	if a.client != nil {
		a.logger.Debug().
			Strs("routes", a.history.Entries()).
			Int64("api_calls", a.client.CallCount()).
			Interface("calls", a.client.Calls()).
			Msg("Command finished")
	}
	if a.bus != nil {
		a.bus.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Cleanup failed")
		}
	}
	a.closers = nil
}

var (
	errNotLoggedIn    = errors.New("not logged in; run 'npass login' first")
	errSessionExpired = errors.New("session expired; run 'npass login' again")
)

func trimArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
