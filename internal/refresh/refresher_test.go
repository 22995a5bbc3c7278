package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celobazaar/groupbuyd/internal/domain"
)

type fakeSyncer struct {
	listings []domain.Listing
	err      error
	calls    int
}

func (f *fakeSyncer) RefreshAll(context.Context) ([]domain.Listing, error) {
	f.calls++
	return f.listings, f.err
}

type fakeArchiver struct {
	archived [][]domain.Listing
	err      error
}

func (f *fakeArchiver) Archive(_ context.Context, listings []domain.Listing) (string, error) {
	f.archived = append(f.archived, listings)
	return "snapshots/2026-08-30/120000.jsonl", f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunRefreshesAndArchives(t *testing.T) {
	syncer := &fakeSyncer{listings: []domain.Listing{{ID: 0}, {ID: 1}}}
	archiver := &fakeArchiver{}
	r := New(syncer, archiver, 0, testLogger())

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, 1, syncer.calls)
	require.Len(t, archiver.archived, 1)
	assert.Len(t, archiver.archived[0], 2)
}

func TestRunWithoutArchiver(t *testing.T) {
	syncer := &fakeSyncer{}
	r := New(syncer, nil, 0, testLogger())

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, 1, syncer.calls)
}

func TestRunPropagatesRefreshError(t *testing.T) {
	boom := errors.New("rpc down")
	syncer := &fakeSyncer{err: boom}
	archiver := &fakeArchiver{}
	r := New(syncer, archiver, 0, testLogger())

	err := r.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, archiver.archived, "failed refresh must not archive")
}

func TestArchiveFailureDoesNotFailRun(t *testing.T) {
	syncer := &fakeSyncer{listings: []domain.Listing{{ID: 0}}}
	archiver := &fakeArchiver{err: errors.New("bucket gone")}
	r := New(syncer, archiver, 0, testLogger())

	assert.NoError(t, r.Run(context.Background()))
}
