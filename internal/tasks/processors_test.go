package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/biblion/internal/services"
)

type fakeGranter struct {
	calls chan [2]uint
	err   error
}

func (f *fakeGranter) BookFinished(_ context.Context, userID, bookID uint) (*services.Outcome, error) {
	if f.calls != nil {
		f.calls <- [2]uint{userID, bookID}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &services.Outcome{XPGained: 150, XP: 150, Level: 2}, nil
}

type fakeFetcher struct {
	found bool
	err   error
}

func (f fakeFetcher) FetchBiography(context.Context, uint) (bool, error) {
	return f.found, f.err
}

type fakeCleaner struct {
	retention time.Duration
	deleted   int64
}

func (f *fakeCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	f.retention = retention
	return f.deleted, nil
}

func (f *fakeCleaner) DeleteOrphanTags() (int64, error) {
	return f.deleted, nil
}

func TestAwardReadProcessor(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, AwardReadProcessor(&fakeGranter{})(ctx, AwardReadTask{UserID: 1, BookID: 2}))

	err := AwardReadProcessor(&fakeGranter{err: services.ErrBookNotFound})(ctx, AwardReadTask{UserID: 1, BookID: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrBookNotFound)

	assert.Error(t, AwardReadProcessor(nil)(ctx, AwardReadTask{}))
}

func TestFetchAuthorBioProcessor(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, FetchAuthorBioProcessor(fakeFetcher{found: true})(ctx, FetchAuthorBioTask{AuthorID: 1}))
	assert.NoError(t, FetchAuthorBioProcessor(fakeFetcher{})(ctx, FetchAuthorBioTask{AuthorID: 1}))
	assert.NoError(t, FetchAuthorBioProcessor(fakeFetcher{err: services.ErrAuthorNotFound})(ctx, FetchAuthorBioTask{AuthorID: 1}),
		"deleted authors are not retried")
	assert.Error(t, FetchAuthorBioProcessor(fakeFetcher{err: errors.New("offline")})(ctx, FetchAuthorBioTask{AuthorID: 1}))
}

func TestCleanupProcessors(t *testing.T) {
	ctx := context.Background()
	cleaner := &fakeCleaner{deleted: 4}

	require.NoError(t, CleanupAuditEventsProcessor(cleaner)(ctx, CleanupAuditEventsTask{}))
	assert.Equal(t, DefaultAuditRetentionDays*24*time.Hour, cleaner.retention)

	require.NoError(t, CleanupAuditEventsProcessor(cleaner)(ctx, CleanupAuditEventsTask{RetentionDays: 7}))
	assert.Equal(t, 7*24*time.Hour, cleaner.retention)

}

type failingPruner struct{}

func (failingPruner) DeleteOrphanTags() (int64, error) { return 0, errors.New("database is locked") }

func TestCleanupOrphanTagsProcessor(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, CleanupOrphanTagsProcessor(&fakeCleaner{deleted: 3})(ctx, CleanupOrphanTagsTask{DeletedBooks: 2}))
	require.NoError(t, CleanupOrphanTagsProcessor(&fakeCleaner{})(ctx, CleanupOrphanTagsTask{DeletedBooks: 1}),
		"nothing to prune is not a failure")

	err := CleanupOrphanTagsProcessor(failingPruner{})(ctx, CleanupOrphanTagsTask{DeletedBooks: 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after deleting 4 book(s)")

	assert.ErrorIs(t, CleanupOrphanTagsProcessor(nil)(ctx, CleanupOrphanTagsTask{}), errNoTagPruner)
}

func TestDispatcher_BookRead(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(t.TempDir(), "biblion.db"), cfg)
	require.NoError(t, err)
	defer client.Close()

	granter := &fakeGranter{calls: make(chan [2]uint, 1)}
	client.Register(NewAwardReadQueue(granter))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	NewDispatcher(client).BookRead(3, 9)

	select {
	case call := <-granter.calls:
		assert.Equal(t, [2]uint{3, 9}, call)
	case <-time.After(5 * time.Second):
		t.Fatal("reward task was not executed within timeout")
	}
}
