package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestIndexOfFolder(t *testing.T) {
	folders := []Folder{{ID: "1", Title: "Personal"}, {ID: "2", Title: "Work"}}

	if got := IndexOfFolder(folders, "2"); got != 1 {
		t.Errorf("IndexOfFolder(2) = %d, want 1", got)
	}
	if got := IndexOfFolder(folders, "3"); got != -1 {
		t.Errorf("IndexOfFolder(3) = %d, want -1", got)
	}
	if got := IndexOfFolder(nil, "1"); got != -1 {
		t.Errorf("IndexOfFolder(nil) = %d, want -1", got)
	}
}

func TestCloneFolders(t *testing.T) {
	orig := []Folder{{ID: "1", Title: "Personal"}}
	clone := CloneFolders(orig)
	clone[0].Title = "Changed"

	if orig[0].Title != "Personal" {
		t.Error("mutating the clone changed the original")
	}
	if got := CloneFolders(nil); got == nil || len(got) != 0 {
		t.Errorf("CloneFolders(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestFolderWireNames(t *testing.T) {
	f := Folder{
		ID:        "7",
		Title:     "Banking",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 3, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"id":"7"`, `"title":"Banking"`, `"created_at":"2024-01-02T03:04:05Z"`, `"updated_at":"2024-01-03T03:04:05Z"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("encoded folder %s missing %s", data, key)
		}
	}
}
