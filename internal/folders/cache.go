// Package folders keeps the local folder cache and the remote folder
// collection in step.
package folders

import (
	"encoding/json"
	"fmt"

	"github.com/neuropassword/npass/internal/constants"
	"github.com/neuropassword/npass/internal/logging"
	"github.com/neuropassword/npass/internal/models"
	"github.com/neuropassword/npass/internal/storage"
)

// Cache mirrors the last known server folder collection under a fixed key.
type Cache struct {
	store  storage.Store
	logger *logging.Logger
}

// NewCache creates a cache over store.
func NewCache(store storage.Store, logger *logging.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Cache{store: store, logger: logger}
}

// Load returns the cached collection. Missing, unreadable or malformed
// content yields an empty collection; Load never fails.
func (c *Cache) Load() []models.Folder {
	raw, ok, err := c.store.Get(constants.KeyFolders)
	if err != nil {
		c.logger.Warn().Err(err).Msg("folder cache unreadable, starting empty")
		return []models.Folder{}
	}
	if !ok {
		return []models.Folder{}
	}

	folders, err := decodeCollection(raw)
	if err != nil {
		c.logger.Warn().Err(err).Msg("folder cache malformed, starting empty")
		return []models.Folder{}
	}
	return folders
}

// Save replaces the cached collection in one store write.
func (c *Cache) Save(folders []models.Folder) error {
	if folders == nil {
		folders = []models.Folder{}
	}
	data, err := json.Marshal(folders)
	if err != nil {
		return fmt.Errorf("failed to encode folder cache: %w", err)
	}
	if err := c.store.Set(constants.KeyFolders, string(data)); err != nil {
		return fmt.Errorf("failed to write folder cache: %w", err)
	}
	return nil
}

// Clear removes the cached collection.
func (c *Cache) Clear() error {
	return c.store.Delete(constants.KeyFolders)
}

// decodeCollection parses a cached collection and checks that every entry
// has a unique, non-empty id.
func decodeCollection(raw string) ([]models.Folder, error) {
	var folders []models.Folder
	if err := json.Unmarshal([]byte(raw), &folders); err != nil {
		return nil, err
	}
	if folders == nil {
		return nil, fmt.Errorf("cached folder collection is null")
	}

	seen := make(map[string]bool, len(folders))
	for i, f := range folders {
		if f.ID == "" {
			return nil, fmt.Errorf("cached folder %d has no id", i)
		}
		if seen[f.ID] {
			return nil, fmt.Errorf("cached folder id %q is duplicated", f.ID)
		}
		seen[f.ID] = true
	}
	return folders, nil
}
