// Package dashboard holds the folder view behind the dashboard screen and
// routes user actions to folder synchronization.
package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/neuropassword/npass/internal/api"
	"github.com/neuropassword/npass/internal/constants"
	"github.com/neuropassword/npass/internal/events"
	"github.com/neuropassword/npass/internal/folders"
	"github.com/neuropassword/npass/internal/logging"
	"github.com/neuropassword/npass/internal/models"
	"github.com/neuropassword/npass/internal/route"
)

// Fallback messages shown when an error carries no text of its own.
const (
	LoadFailedMessage   = "Failed to load folders. Please try again."
	AddFailedMessage    = "Failed to add folder. Please try again."
	RenameFailedMessage = "Failed to rename folder. Please try again."
	DeleteFailedMessage = "Failed to delete folder. Please try again."
)

// SessionWatcher reports session changes.
type SessionWatcher interface {
	Subscribe() <-chan events.Event
	Unsubscribe(ch <-chan events.Event)
}

// LogoutRunner ends the session and drops local data.
type LogoutRunner interface {
	Logout() error
}

// Controller owns the in-memory folder collection shown on the dashboard.
// It is safe for concurrent use; remote calls are not serialized and the
// last response to arrive wins.
type Controller struct {
	service *folders.Service
	session SessionWatcher
	auth    LogoutRunner
	nav     route.Navigator
	bus     *events.EventBus
	logger  *logging.Logger

	mu        sync.Mutex
	folders   []models.Folder
	fromCache bool
	loading   bool
	busy      int
	errMsg    string
	mounted   bool
	unmounted bool

	sessionCh <-chan events.Event
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewController creates a dashboard controller.
func NewController(service *folders.Service, session SessionWatcher, auth LogoutRunner, nav route.Navigator, bus *events.EventBus, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Controller{
		service: service,
		session: session,
		auth:    auth,
		nav:     nav,
		bus:     bus,
		logger:  logger.Named("dashboard"),
		folders: []models.Folder{},
		done:    make(chan struct{}),
	}
}

// Mount shows the cached collection, starts watching the session and then
// refreshes from the server. A failed refresh leaves the cached view in
// place and is returned.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return nil
	}
	c.mounted = true
	c.folders = c.service.Cache().Load()
	c.fromCache = true
	c.loading = true
	c.sessionCh = c.session.Subscribe()
	c.mu.Unlock()

	c.wg.Add(1)
	go c.watchSession()

	return c.Refresh(ctx)
}

// Refresh reloads the collection from the server.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	list, fromCache, err := c.service.Fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if c.unmounted {
		return err
	}
	if err != nil {
		c.fail(folders.OpFetch, err, LoadFailedMessage)
		return err
	}
	c.folders = list
	c.fromCache = fromCache
	return nil
}

func (c *Controller) watchSession() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case ev, ok := <-c.sessionCh:
			if !ok {
				return
			}
			se, isSession := ev.(*events.SessionEvent)
			if !isSession || se.Authenticated {
				continue
			}
			c.mu.Lock()
			if !c.unmounted {
				c.folders = []models.Folder{}
				c.fromCache = false
			}
			c.mu.Unlock()
			c.logger.Debug().Str("reason", se.Reason).Msg("session cleared, folder view emptied")
		}
	}
}

// Unmount detaches the controller. Responses that arrive later no longer
// change the view; their cache writes still happen.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return
	}
	c.unmounted = true
	ch := c.sessionCh
	c.mu.Unlock()

	close(c.done)
	c.wg.Wait()
	if ch != nil {
		c.session.Unsubscribe(ch)
	}
}

// AddFolder creates a folder and appends it to the view.
func (c *Controller) AddFolder(ctx context.Context, title string) (models.Folder, error) {
	ch, err := c.service.Create(ctx, title)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if !c.unmounted {
			c.fail(folders.OpCreate, err, AddFailedMessage)
		}
		return models.Folder{}, err
	}
	c.apply(ch)
	return ch.Folder, nil
}

// RenameFolder retitles folder id. Busy reports true while it runs.
func (c *Controller) RenameFolder(ctx context.Context, id, title string) error {
	current := c.begin()

	ch, err := c.service.Rename(ctx, current, id, title)
	return c.finish(ch, err, folders.OpRename, RenameFailedMessage)
}

// DeleteFolder removes folder id. Busy reports true while it runs.
func (c *Controller) DeleteFolder(ctx context.Context, id string) error {
	current := c.begin()

	ch, err := c.service.Delete(ctx, current, id)
	return c.finish(ch, err, folders.OpDelete, DeleteFailedMessage)
}

func (c *Controller) finish(ch folders.Change, err error, op, fallback string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy--
	if err != nil {
		if !c.unmounted {
			c.fail(op, err, fallback)
		}
		return err
	}
	c.apply(ch)
	return nil
}

// apply merges a confirmed change into the view as it is now, not as it
// was when the request was sent. Callers hold c.mu.
func (c *Controller) apply(ch folders.Change) {
	if c.unmounted {
		return
	}
	c.folders = ch.Apply(c.folders)
	if ch.Op == folders.OpCreate {
		c.fromCache = false
	}
}

// Logout forgets the session, the seed phrase and the cached folders, then
// goes to /login. The view is emptied and the navigation happens even when
// clearing fails.
func (c *Controller) Logout() error {
	err := c.auth.Logout()

	c.mu.Lock()
	if !c.unmounted {
		c.folders = []models.Folder{}
		c.errMsg = ""
	}
	c.mu.Unlock()

	c.nav.Navigate(constants.RouteLogin, false)
	return err
}

// Folders returns a copy of the view.
func (c *Controller) Folders() []models.Folder {
	return c.snapshot()
}

// FromCache reports whether the view came from the local cache rather than
// the server.
func (c *Controller) FromCache() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fromCache
}

// Busy reports whether a rename or delete is outstanding.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy > 0
}

// Loading reports whether a refresh is outstanding.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the last error message or "".
func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// DismissError clears the last error message.
func (c *Controller) DismissError() {
	c.mu.Lock()
	c.errMsg = ""
	c.mu.Unlock()
}

func (c *Controller) snapshot() []models.Folder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CloneFolders(c.folders)
}

func (c *Controller) begin() []models.Folder {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy++
	return models.CloneFolders(c.folders)
}

// fail records err for display. A 401 already redirected to login, so it
// gets no message. Callers hold c.mu.
func (c *Controller) fail(op string, err error, fallback string) {
	if api.IsAuth(err) || errors.Is(err, context.Canceled) {
		c.logger.Debug().Err(err).Str("op", op).Msg("folder operation stopped")
		return
	}
	c.errMsg = api.UserMessage(err, fallback)
	c.logger.Warn().Err(err).Str("op", op).Msg("folder operation failed")
	c.bus.PublishError(op, c.errMsg, err)
}
