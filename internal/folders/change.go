package folders

import (
	"time"

	"github.com/neuropassword/npass/internal/models"
)

// Change is the server-confirmed effect of one folder mutation. It is
// applied to whatever collection is current when the response arrives, so
// mutations that completed in the meantime are kept.
type Change struct {
	Op     string
	Folder models.Folder
}

// ID returns the id of the folder the change touches.
func (ch Change) ID() string {
	return ch.Folder.ID
}

// Apply returns a copy of list with the change applied. list is not
// modified. A rename or delete of a folder that is no longer in list
// leaves it as is.
func (ch Change) Apply(list []models.Folder) []models.Folder {
	next := models.CloneFolders(list)
	idx := models.IndexOfFolder(next, ch.Folder.ID)

	switch ch.Op {
	case OpCreate:
		if idx >= 0 {
			next[idx] = ch.Folder
		} else {
			next = append(next, ch.Folder)
		}
	case OpRename:
		if idx >= 0 {
			next[idx].Title = ch.Folder.Title
			next[idx].UpdatedAt = ch.Folder.UpdatedAt
		}
	case OpDelete:
		if idx >= 0 {
			next = append(next[:idx], next[idx+1:]...)
		}
	}
	return next
}

func renamed(f models.Folder, title string, updatedAt time.Time) models.Folder {
	f.Title = title
	f.UpdatedAt = updatedAt
	return f
}
