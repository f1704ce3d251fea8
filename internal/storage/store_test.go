package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	bs, err := OpenBolt(filepath.Join(t.TempDir(), "nested", "store.db"))
	if err != nil {
		t.Fatalf("OpenBolt() error = %v", err)
	}
	t.Cleanup(func() { bs.Close() })

	return map[string]Store{
		"bolt":   bs,
		"memory": NewMemoryStore(),
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, found, err := s.Get("missing"); err != nil || found {
				t.Fatalf("Get(missing) = found %v, err %v; want not found", found, err)
			}

			if err := s.Set("access_token", "abc"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			v, found, err := s.Get("access_token")
			if err != nil || !found || v != "abc" {
				t.Fatalf("Get() = %q, %v, %v; want abc, true, nil", v, found, err)
			}

			if err := s.Delete("access_token", "never-set"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, found, _ := s.Get("access_token"); found {
				t.Error("key still present after Delete")
			}
		})
	}
}

func TestStore_SetManyWritesAllKeys(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			err := s.SetMany(map[string]string{
				"access_token":    "a",
				"refresh_token":   "r",
				"isAuthenticated": "true",
			})
			if err != nil {
				t.Fatalf("SetMany() error = %v", err)
			}
			for _, k := range []string{"access_token", "refresh_token", "isAuthenticated"} {
				if _, found, _ := s.Get(k); !found {
					t.Errorf("key %q missing after SetMany", k)
				}
			}
		})
	}
}

func TestStore_EmptyValueIsPresent(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Set("redirectPath", ""); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			v, found, err := s.Get("redirectPath")
			if err != nil || !found || v != "" {
				t.Errorf("Get() = %q, %v, %v; want \"\", true, nil", v, found, err)
			}
		})
	}
}

func TestStore_ClosedStoreFails(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
			if _, _, err := s.Get("k"); !errors.Is(err, ErrClosed) {
				t.Errorf("Get() after Close error = %v, want ErrClosed", err)
			}
			if err := s.Set("k", "v"); !errors.Is(err, ErrClosed) {
				t.Errorf("Set() after Close error = %v, want ErrClosed", err)
			}
		})
	}
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	s, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt() error = %v", err)
	}
	if err := s.Set("np_folders", `[{"id":"1"}]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	v, found, err := s.Get("np_folders")
	if err != nil || !found || v != `[{"id":"1"}]` {
		t.Errorf("Get() after reopen = %q, %v, %v", v, found, err)
	}
}

func TestOpenBolt_EmptyPath(t *testing.T) {
	if _, err := OpenBolt(""); err == nil {
		t.Fatal("OpenBolt(\"\") should fail")
	}
}
