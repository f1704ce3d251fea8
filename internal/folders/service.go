package folders

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/neuropassword/npass/internal/api"
	"github.com/neuropassword/npass/internal/events"
	"github.com/neuropassword/npass/internal/logging"
	"github.com/neuropassword/npass/internal/models"
)

// Messages shown for rejected input.
const (
	EmptyTitleMessage = "Folder name cannot be empty"
	InvalidIDMessage  = "Invalid folder ID"
)

// Operation names used in events and logs.
const (
	OpFetch  = "fetch"
	OpCreate = "create"
	OpRename = "rename"
	OpDelete = "delete"
	OpClear  = "clear"
)

// FolderAPI is the remote side of folder synchronization.
type FolderAPI interface {
	ListFolders(ctx context.Context) ([]models.Folder, error)
	CreateFolder(ctx context.Context, title string) (models.Folder, error)
	UpdateFolder(ctx context.Context, id, title string) (models.Folder, error)
	DeleteFolder(ctx context.Context, id string) error
}

// Service runs folder operations: remote call first, then the cache is
// reconciled. Mutations return the server-confirmed Change so callers can
// apply it to their own view; on any failure the returned error is the only
// effect.
type Service struct {
	remote FolderAPI
	cache  *Cache
	bus    *events.EventBus
	logger *logging.Logger
	group  singleflight.Group
	mu     sync.Mutex // serializes cache writes
	now    func() time.Time
}

// NewService creates a folder service.
func NewService(remote FolderAPI, cache *Cache, bus *events.EventBus, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{
		remote: remote,
		cache:  cache,
		bus:    bus,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Cache returns the underlying folder cache.
func (s *Service) Cache() *Cache {
	return s.cache
}

type fetchResult struct {
	folders   []models.Folder
	fromCache bool
}

// Fetch loads the collection from the server and writes it through to the
// cache. When the server cannot be reached or answers with an error the
// cached collection is returned with fromCache set. An *api.AuthError or a
// canceled context is returned as an error.
//
// Concurrent calls share one request; they all observe its outcome.
func (s *Service) Fetch(ctx context.Context) ([]models.Folder, bool, error) {
	v, err, shared := s.group.Do(OpFetch, func() (interface{}, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		s.logger.Debug().Msg("folder fetch shared with concurrent caller")
	}
	res := v.(fetchResult)
	return models.CloneFolders(res.folders), res.fromCache, nil
}

func (s *Service) fetch(ctx context.Context) (fetchResult, error) {
	folders, err := s.remote.ListFolders(ctx)
	if err != nil {
		var remote *api.RemoteError
		if !errors.As(err, &remote) {
			return fetchResult{}, err
		}
		cached := s.cache.Load()
		s.logger.Warn().Err(err).Int("cached", len(cached)).Msg("folder fetch failed, using cache")
		s.bus.PublishFoldersChanged(OpFetch, "", len(cached), true)
		return fetchResult{folders: cached, fromCache: true}, nil
	}

	s.mu.Lock()
	s.persist(OpFetch, folders)
	s.mu.Unlock()
	s.bus.PublishFoldersChanged(OpFetch, "", len(folders), false)
	return fetchResult{folders: folders}, nil
}

// Create creates a folder titled strings.TrimSpace(title). On success the
// server's folder is appended to the cached collection and returned in the
// Change.
func (s *Service) Create(ctx context.Context, title string) (Change, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Change{}, &api.ValidationError{Field: "title", Message: EmptyTitleMessage}
	}

	created, err := s.remote.CreateFolder(ctx, title)
	if err != nil {
		return Change{}, err
	}

	ch := Change{Op: OpCreate, Folder: created}
	s.commit(ch)
	return ch, nil
}

// Rename sets the title of folder id. An id missing from current is
// rejected with *api.NotFoundError before the server is contacted.
func (s *Service) Rename(ctx context.Context, current []models.Folder, id, title string) (Change, error) {
	id = strings.TrimSpace(id)
	title = strings.TrimSpace(title)
	if id == "" {
		return Change{}, &api.ValidationError{Field: "id", Message: InvalidIDMessage}
	}
	if title == "" {
		return Change{}, &api.ValidationError{Field: "title", Message: EmptyTitleMessage}
	}

	idx := models.IndexOfFolder(current, id)
	if idx < 0 {
		return Change{}, &api.NotFoundError{ID: id}
	}

	updated, err := s.remote.UpdateFolder(ctx, id, title)
	if err != nil {
		return Change{}, err
	}

	if updated.Title != "" {
		title = updated.Title
	}
	updatedAt := updated.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}

	ch := Change{Op: OpRename, Folder: renamed(current[idx], title, updatedAt)}
	s.commit(ch)
	return ch, nil
}

// Delete removes folder id. An id missing from current is rejected with
// *api.NotFoundError before the server is contacted.
func (s *Service) Delete(ctx context.Context, current []models.Folder, id string) (Change, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Change{}, &api.ValidationError{Field: "id", Message: InvalidIDMessage}
	}

	idx := models.IndexOfFolder(current, id)
	if idx < 0 {
		return Change{}, &api.NotFoundError{ID: id}
	}

	if err := s.remote.DeleteFolder(ctx, id); err != nil {
		return Change{}, err
	}

	ch := Change{Op: OpDelete, Folder: current[idx]}
	s.commit(ch)
	return ch, nil
}

// Clear drops the cached collection.
func (s *Service) Clear() error {
	if err := s.cache.Clear(); err != nil {
		return err
	}
	s.bus.PublishFoldersChanged(OpClear, "", 0, false)
	return nil
}

// commit applies ch to the latest cached collection and writes the result.
func (s *Service) commit(ch Change) {
	s.mu.Lock()
	next := ch.Apply(s.cache.Load())
	s.persist(ch.Op, next)
	s.mu.Unlock()

	s.bus.PublishFoldersChanged(ch.Op, ch.ID(), len(next), false)
}

// persist writes the collection after a successful remote call. The server
// already holds the new state, so a failed write is logged, not returned;
// the next fetch repairs the cache. Callers hold s.mu.
func (s *Service) persist(op string, folders []models.Folder) {
	if err := s.cache.Save(folders); err != nil {
		s.logger.Error().Err(err).Str("op", op).Msg("folder cache write failed")
	}
}
