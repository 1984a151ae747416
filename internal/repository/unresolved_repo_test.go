package repository

import (
	"context"
	"testing"
	"time"

	"safaristay/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestUnresolvedRepository_RecordDedupesOpenEntries(t *testing.T) {
	ctx := context.Background()
	repo := NewUnresolvedRepository(testDB(t))

	first := &domain.UnresolvedNotification{
		OrderTrackingID: "trk-x",
		Payload:         datatypes.JSON(`{"OrderTrackingId":"trk-x"}`),
		LastError:       "booking not found",
	}
	require.NoError(t, repo.Record(ctx, first))

	second := &domain.UnresolvedNotification{
		OrderTrackingID: "trk-x",
		Payload:         datatypes.JSON(`{"OrderTrackingId":"trk-x","n":2}`),
		LastError:       "booking not found",
	}
	require.NoError(t, repo.Record(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	open, err := repo.ListOpen(ctx, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, 2, open[0].Attempts)

	require.NoError(t, repo.MarkFailed(ctx, first.ID, "still missing"))
	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Attempts)
	assert.Equal(t, "still missing", got.LastError)

	require.NoError(t, repo.MarkResolved(ctx, first.ID, 7))
	open, err = repo.ListOpen(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, open)

	got, err = repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ResolvedBookingID)
	assert.Equal(t, int64(7), *got.ResolvedBookingID)
}

func TestUnresolvedRepository_PurgeResolved(t *testing.T) {
	ctx := context.Background()
	repo := NewUnresolvedRepository(testDB(t))

	old := &domain.UnresolvedNotification{OrderTrackingID: "trk-old", LastError: "booking not found"}
	open := &domain.UnresolvedNotification{OrderTrackingID: "trk-open", LastError: "booking not found"}
	require.NoError(t, repo.Record(ctx, old))
	require.NoError(t, repo.Record(ctx, open))
	require.NoError(t, repo.MarkResolved(ctx, old.ID, 3))

	n, err := repo.PurgeResolved(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.PurgeResolved(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.GetByID(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	remaining, err := repo.ListOpen(ctx, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "trk-open", remaining[0].OrderTrackingID)
}
