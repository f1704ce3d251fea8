package models

import "time"

// Folder is a user-owned organizational container for credentials.
// The same JSON shape is used on the wire and in the local cache.
type Folder struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateFolderRequest is the body of POST folders/.
type CreateFolderRequest struct {
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateFolderRequest is the body of PUT folders/{id}/.
type UpdateFolderRequest struct {
	Title string `json:"title"`
}

// IndexOfFolder returns the position of the folder with id, or -1.
func IndexOfFolder(folders []Folder, id string) int {
	for i := range folders {
		if folders[i].ID == id {
			return i
		}
	}
	return -1
}

// CloneFolders returns a copy that shares no backing array with folders.
// A nil input yields an empty, non-nil slice.
func CloneFolders(folders []Folder) []Folder {
	out := make([]Folder, len(folders))
	copy(out, folders)
	return out
}
