package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/neuropassword/npass/internal/models"
)

const foldersPath = "folders/"

// folderPath returns the detail path of one folder.
func folderPath(id string) string {
	return foldersPath + url.PathEscape(id) + "/"
}

// wireFolder is the server representation of a folder. Ids may arrive as
// JSON numbers or strings; timestamps may be absent.
type wireFolder struct {
	ID        json.RawMessage `json:"id"`
	Title     *string         `json:"title"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

// normalizeID converts a raw JSON id into its string form. Null, missing,
// empty and non-scalar ids yield "".
func normalizeID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}

// parseTimestamp accepts RFC 3339 with or without fractional seconds.
// Anything else is treated as absent.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func (w wireFolder) toModel() models.Folder {
	f := models.Folder{
		ID:        normalizeID(w.ID),
		CreatedAt: parseTimestamp(w.CreatedAt),
		UpdatedAt: parseTimestamp(w.UpdatedAt),
	}
	if w.Title != nil {
		f.Title = *w.Title
	}
	return f
}

// ListFolders returns the user's folders.
func (c *Client) ListFolders(ctx context.Context) ([]models.Folder, error) {
	var raw json.RawMessage
	if err := c.doRequest(ctx, nethttp.MethodGet, foldersPath, nil, &raw); err != nil {
		return nil, err
	}

	var wire []wireFolder
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &RemoteError{
			Method: nethttp.MethodGet,
			Path:   foldersPath,
			Status: nethttp.StatusOK,
			Err:    errors.New("folder list is not an array"),
		}
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &RemoteError{
			Method: nethttp.MethodGet,
			Path:   foldersPath,
			Status: nethttp.StatusOK,
			Err:    fmt.Errorf("malformed folder list: %w", err),
		}
	}

	folders := make([]models.Folder, 0, len(wire))
	seen := make(map[string]bool, len(wire))
	for i, w := range wire {
		f := w.toModel()
		if f.ID == "" {
			return nil, &RemoteError{
				Method: nethttp.MethodGet,
				Path:   foldersPath,
				Status: nethttp.StatusOK,
				Err:    fmt.Errorf("folder at index %d has no id", i),
			}
		}
		if seen[f.ID] {
			return nil, &RemoteError{
				Method: nethttp.MethodGet,
				Path:   foldersPath,
				Status: nethttp.StatusOK,
				Err:    fmt.Errorf("duplicate folder id %q", f.ID),
			}
		}
		seen[f.ID] = true
		folders = append(folders, f)
	}

	return folders, nil
}

// CreateFolder creates a folder and returns it as the server stored it.
// A response without an id is a *RemoteError.
func (c *Client) CreateFolder(ctx context.Context, title string) (models.Folder, error) {
	now := time.Now().UTC()
	reqBody := models.CreateFolderRequest{Title: title, CreatedAt: now}

	var w wireFolder
	if err := c.doRequest(ctx, nethttp.MethodPost, foldersPath, reqBody, &w); err != nil {
		return models.Folder{}, err
	}

	f := w.toModel()
	if f.ID == "" {
		return models.Folder{}, &RemoteError{
			Method: nethttp.MethodPost,
			Path:   foldersPath,
			Status: nethttp.StatusCreated,
			Err:    errors.New("server did not assign a folder id"),
		}
	}
	if w.Title == nil {
		f.Title = title
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = f.CreatedAt
	}
	return f, nil
}

// UpdateFolder sets a folder's title. The returned folder holds only what
// the server sent back; ID is always set and Title falls back to title.
func (c *Client) UpdateFolder(ctx context.Context, id, title string) (models.Folder, error) {
	path := folderPath(id)

	var w wireFolder
	if err := c.doRequest(ctx, nethttp.MethodPut, path, models.UpdateFolderRequest{Title: title}, &w); err != nil {
		return models.Folder{}, err
	}

	f := w.toModel()
	if f.ID != "" && f.ID != id {
		return models.Folder{}, &RemoteError{
			Method: nethttp.MethodPut,
			Path:   path,
			Status: nethttp.StatusOK,
			Err:    fmt.Errorf("server returned folder %q for %q", f.ID, id),
		}
	}
	f.ID = id
	if w.Title == nil {
		f.Title = title
	}
	return f, nil
}

// DeleteFolder deletes a folder.
func (c *Client) DeleteFolder(ctx context.Context, id string) error {
	return c.doRequest(ctx, nethttp.MethodDelete, folderPath(id), nil, nil)
}
