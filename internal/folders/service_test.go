package folders

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuropassword/npass/internal/api"
	"github.com/neuropassword/npass/internal/config"
	"github.com/neuropassword/npass/internal/mockapi"
	"github.com/neuropassword/npass/internal/models"
	"github.com/neuropassword/npass/internal/storage"
)

// fakeRemote is a scripted FolderAPI.
type fakeRemote struct {
	mu      sync.Mutex
	calls   int
	list    []models.Folder
	created models.Folder
	updated models.Folder
	err     error
	block   chan struct{}
}

func (f *fakeRemote) record() error {
	f.mu.Lock()
	f.calls++
	err := f.err
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRemote) ListFolders(ctx context.Context) ([]models.Folder, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	return models.CloneFolders(f.list), nil
}

func (f *fakeRemote) CreateFolder(ctx context.Context, title string) (models.Folder, error) {
	if err := f.record(); err != nil {
		return models.Folder{}, err
	}
	c := f.created
	if c.Title == "" {
		c.Title = title
	}
	return c, nil
}

func (f *fakeRemote) UpdateFolder(ctx context.Context, id, title string) (models.Folder, error) {
	if err := f.record(); err != nil {
		return models.Folder{}, err
	}
	u := f.updated
	u.ID = id
	if u.Title == "" {
		u.Title = title
	}
	return u, nil
}

func (f *fakeRemote) DeleteFolder(ctx context.Context, id string) error {
	return f.record()
}

func newService(remote FolderAPI) (*Service, *Cache) {
	cache := NewCache(storage.NewMemoryStore(), nil)
	svc := NewService(remote, cache, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return svc, cache
}

func TestCreateAppendsTrimmedTitle(t *testing.T) {
	remote := &fakeRemote{created: models.Folder{ID: "3"}}
	svc, cache := newService(remote)
	current := sampleFolders()
	require.NoError(t, cache.Save(current))

	ch, err := svc.Create(context.Background(), "   Banking  ")
	require.NoError(t, err)
	assert.Equal(t, OpCreate, ch.Op)
	assert.Equal(t, "3", ch.ID())

	next := ch.Apply(current)
	assert.Len(t, next, len(current)+1)
	count := 0
	for _, f := range next {
		if f.Title == "Banking" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, next, cache.Load())
	assert.Len(t, current, 2, "caller's slice untouched")
}

func TestCreateEmptyTitleMakesNoRemoteCall(t *testing.T) {
	remote := &fakeRemote{}
	svc, cache := newService(remote)
	require.NoError(t, cache.Save(sampleFolders()))

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := svc.Create(context.Background(), title)
		var verr *api.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, EmptyTitleMessage, verr.Message)
	}
	assert.Equal(t, 0, remote.callCount())
	assert.Equal(t, sampleFolders(), cache.Load())
}

func TestCreateRemoteFailureLeavesCache(t *testing.T) {
	remote := &fakeRemote{err: &api.RemoteError{Method: "POST", Path: "folders/", Status: 500}}
	svc, cache := newService(remote)
	require.NoError(t, cache.Save(sampleFolders()))

	ch, err := svc.Create(context.Background(), "Banking")
	assert.True(t, api.IsRemote(err))
	assert.Equal(t, Change{}, ch)
	assert.Equal(t, sampleFolders(), cache.Load())
}

func TestCreateReplacesStaleEntryWithSameID(t *testing.T) {
	remote := &fakeRemote{created: models.Folder{ID: "2", Title: "Fresh"}}
	svc, cache := newService(remote)
	require.NoError(t, cache.Save(sampleFolders()))

	ch, err := svc.Create(context.Background(), "Fresh")
	require.NoError(t, err)
	next := cache.Load()
	assert.Len(t, next, 2)
	assert.Equal(t, "Fresh", next[1].Title)
	assert.Equal(t, next, ch.Apply(sampleFolders()))
}

func TestRenameAndDeleteMissingID(t *testing.T) {
	remote := &fakeRemote{}
	svc, cache := newService(remote)
	current := sampleFolders()
	require.NoError(t, cache.Save(current))

	_, err := svc.Rename(context.Background(), current, "99", "Anything")
	var nf *api.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "No folder matches the given query.", err.Error())

	_, err = svc.Delete(context.Background(), current, "99")
	require.ErrorAs(t, err, &nf)

	assert.Equal(t, 0, remote.callCount(), "rejected locally")
	assert.Equal(t, sampleFolders(), current)
	assert.Equal(t, sampleFolders(), cache.Load())
}

func TestRenameUpdatesTitleAndTimestamp(t *testing.T) {
	remote := &fakeRemote{}
	svc, cache := newService(remote)
	current := sampleFolders()
	require.NoError(t, cache.Save(current))

	ch, err := svc.Rename(context.Background(), current, "2", "  Office ")
	require.NoError(t, err)

	next := ch.Apply(current)
	assert.Equal(t, "Office", next[1].Title)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), next[1].UpdatedAt, "server sent no timestamp")
	assert.Equal(t, current[0], next[0])
	assert.Equal(t, "Work", current[1].Title, "caller's slice untouched")
	assert.Equal(t, next, cache.Load())
}

func TestRenameUsesServerTimestamp(t *testing.T) {
	stamp := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	remote := &fakeRemote{updated: models.Folder{UpdatedAt: stamp}}
	svc, _ := newService(remote)

	ch, err := svc.Rename(context.Background(), sampleFolders(), "1", "Home")
	require.NoError(t, err)
	assert.Equal(t, stamp, ch.Folder.UpdatedAt)
	assert.Equal(t, "Home", ch.Folder.Title)
}

func TestRenameValidation(t *testing.T) {
	remote := &fakeRemote{}
	svc, _ := newService(remote)

	_, err := svc.Rename(context.Background(), sampleFolders(), "1", "  ")
	assert.True(t, api.IsValidation(err))
	_, err = svc.Rename(context.Background(), sampleFolders(), " ", "Title")
	assert.True(t, api.IsValidation(err))
	_, err = svc.Delete(context.Background(), sampleFolders(), "")
	assert.True(t, api.IsValidation(err))
	assert.Equal(t, 0, remote.callCount())
}

func TestRenameServerErrorLeavesState(t *testing.T) {
	remote := &fakeRemote{err: &api.RemoteError{Method: "PUT", Path: "folders/42/", Status: 500}}
	svc, cache := newService(remote)
	current := []models.Folder{{ID: "42", Title: "Keep"}}
	require.NoError(t, cache.Save(current))

	ch, err := svc.Rename(context.Background(), current, "42", "Changed")
	assert.True(t, api.IsRemote(err))
	assert.Equal(t, Change{}, ch)
	assert.Equal(t, "Keep", current[0].Title)
	assert.Equal(t, current, cache.Load())
}

func TestDeleteTwice(t *testing.T) {
	remote := &fakeRemote{}
	svc, cache := newService(remote)
	require.NoError(t, cache.Save(sampleFolders()))

	ch, err := svc.Delete(context.Background(), sampleFolders(), "1")
	require.NoError(t, err)
	next := ch.Apply(sampleFolders())
	assert.Len(t, next, 1)
	assert.Equal(t, next, cache.Load())

	_, err = svc.Delete(context.Background(), next, "1")
	assert.True(t, api.IsNotFound(err))
	assert.Equal(t, 1, remote.callCount())
	assert.Equal(t, next, cache.Load())
}

// A mutation that finishes while another is in flight must survive the
// later one's cache write.
func TestInterleavedMutationsKeepEachOther(t *testing.T) {
	remote := &fakeRemote{created: models.Folder{ID: "3", Title: "Banking"}}
	svc, cache := newService(remote)
	stale := sampleFolders()
	require.NoError(t, cache.Save(stale))

	_, err := svc.Create(context.Background(), "Banking")
	require.NoError(t, err)

	// Rename computed from the view taken before the create landed.
	_, err = svc.Rename(context.Background(), stale, "1", "Home")
	require.NoError(t, err)

	got := cache.Load()
	require.Len(t, got, 3)
	assert.Equal(t, "Home", got[0].Title)
	assert.Equal(t, "Banking", got[2].Title)
}

func TestChangeApply(t *testing.T) {
	base := sampleFolders()
	tests := []struct {
		name string
		ch   Change
		want []string
	}{
		{"create appends", Change{Op: OpCreate, Folder: models.Folder{ID: "3", Title: "New"}}, []string{"Personal", "Work", "New"}},
		{"create replaces same id", Change{Op: OpCreate, Folder: models.Folder{ID: "1", Title: "Fresh"}}, []string{"Fresh", "Work"}},
		{"rename", Change{Op: OpRename, Folder: models.Folder{ID: "2", Title: "Office"}}, []string{"Personal", "Office"}},
		{"rename gone folder", Change{Op: OpRename, Folder: models.Folder{ID: "9", Title: "Ghost"}}, []string{"Personal", "Work"}},
		{"delete", Change{Op: OpDelete, Folder: models.Folder{ID: "1"}}, []string{"Work"}},
		{"delete gone folder", Change{Op: OpDelete, Folder: models.Folder{ID: "9"}}, []string{"Personal", "Work"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var titles []string
			for _, f := range tt.ch.Apply(base) {
				titles = append(titles, f.Title)
			}
			assert.Equal(t, tt.want, titles)
			assert.Equal(t, sampleFolders(), base, "input untouched")
		})
	}
}

func TestFetchWritesThrough(t *testing.T) {
	remote := &fakeRemote{list: sampleFolders()}
	svc, cache := newService(remote)

	got, fromCache, err := svc.Fetch(context.Background())
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, sampleFolders(), got)
	assert.Equal(t, sampleFolders(), cache.Load())
}

func TestFetchFallsBackToCache(t *testing.T) {
	remote := &fakeRemote{err: &api.RemoteError{Method: "GET", Path: "folders/", Err: errors.New("connection refused")}}
	svc, cache := newService(remote)
	require.NoError(t, cache.Save(sampleFolders()))

	got, fromCache, err := svc.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, sampleFolders(), got)
}

func TestFetchAuthErrorIsReturned(t *testing.T) {
	remote := &fakeRemote{err: &api.AuthError{Method: "GET", Path: "folders/"}}
	svc, cache := newService(remote)
	require.NoError(t, cache.Save(sampleFolders()))

	_, _, err := svc.Fetch(context.Background())
	assert.True(t, api.IsAuth(err))
}

func TestFetchDeduplicatesConcurrentCalls(t *testing.T) {
	remote := &fakeRemote{list: sampleFolders(), block: make(chan struct{})}
	svc, _ := newService(remote)

	var wg sync.WaitGroup
	var ok atomic.Int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, _, err := svc.Fetch(context.Background()); err == nil && len(got) == 2 {
				ok.Add(1)
			}
		}()
	}

	// Let the goroutines pile up behind the first request.
	time.Sleep(50 * time.Millisecond)
	close(remote.block)
	wg.Wait()

	assert.Equal(t, int32(5), ok.Load())
	assert.Equal(t, 1, remote.callCount())
}

func TestClear(t *testing.T) {
	svc, cache := newService(&fakeRemote{})
	require.NoError(t, cache.Save(sampleFolders()))
	require.NoError(t, svc.Clear())
	assert.Empty(t, cache.Load())
}

// TestServiceAgainstMockAPI runs the operations through the real HTTP client.
func TestServiceAgainstMockAPI(t *testing.T) {
	mock := mockapi.New(nil)
	srv := httptest.NewServer(mock)
	defer srv.Close()

	cfg := config.NewConfig()
	cfg.APIBaseURL = srv.URL + "/api/"
	client, err := api.NewClient(cfg, api.WithHTTPClient(srv.Client()), api.WithSession(staticToken(mock.IssueToken())))
	require.NoError(t, err)

	svc, cache := newService(client)
	ctx := context.Background()

	current, fromCache, err := svc.Fetch(ctx)
	require.NoError(t, err)
	require.False(t, fromCache)
	require.Len(t, current, 2)

	ch, err := svc.Create(ctx, "Banking")
	require.NoError(t, err)
	current = ch.Apply(current)
	created := ch.Folder

	mock.FailNextWith("PUT", http.StatusInternalServerError, `{"detail": "try later"}`)
	_, err = svc.Rename(ctx, current, created.ID, "Bank")
	assert.Equal(t, "try later", api.UserMessage(err, "fallback"))
	assert.Equal(t, "Banking", cache.Load()[2].Title)

	ch, err = svc.Rename(ctx, current, created.ID, "Bank")
	require.NoError(t, err)
	current = ch.Apply(current)
	ch, err = svc.Delete(ctx, current, "1")
	require.NoError(t, err)
	current = ch.Apply(current)

	assert.Equal(t, []string{"Work", "Bank"}, mock.FolderTitles())
	assert.Equal(t, current, cache.Load())

	mock.FailNext(http.StatusBadGateway)
	offline, fromCache, err := svc.Fetch(ctx)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, current, offline)
}

type staticToken string

func (s staticToken) AccessToken() string { return string(s) }
func (s staticToken) Invalidate() error   { return nil }
