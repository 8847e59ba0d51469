package interaction_test

import (
	"context"
	"sync"
	"testing"
	"time"

	apperr "matcha/backend/internal/errors"
	"matcha/backend/internal/logger"
	"matcha/backend/internal/models"
	"matcha/backend/internal/service/interaction"
	"matcha/backend/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// notifyRecorder captures dispatched notifications per target user.
type notifyRecorder struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (r *notifyRecorder) Notify(targetUserID uint64, n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.TargetUserID = targetUserID
	r.sent = append(r.sent, n)
}

func (r *notifyRecorder) byKind(kind string) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.sent {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func setupService(t *testing.T) (*interaction.Service, *storage.Service, *notifyRecorder) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := storage.NewService(db, rdb)
	require.NoError(t, db.AutoMigrate(
		&models.Interaction{}, &models.Conversation{}, &models.Message{}, &models.Report{},
	))

	rec := &notifyRecorder{}
	return interaction.New(store, rec, logger.L()), store, rec
}

func TestRecord_RejectsSelfInteraction(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.Record(context.Background(), 1, 1, models.InteractionLike)
	assert.ErrorIs(t, err, apperr.ErrSelfInteraction)
}

func TestRecord_OneWayLikeNotifiesTargetOnly(t *testing.T) {
	ctx := context.Background()
	svc, _, rec := setupService(t)

	res, err := svc.Record(ctx, 1, 2, models.InteractionLike)
	require.NoError(t, err)
	assert.False(t, res.Matched)

	likes := rec.byKind(models.NotificationNewLike)
	require.Len(t, likes, 1)
	assert.Equal(t, uint64(2), likes[0].TargetUserID)
	assert.Equal(t, uint64(1), likes[0].SenderID)
	assert.Empty(t, rec.byKind(models.NotificationNewMatch))
}

func TestRecord_MutualLikeCreatesSingleConversation(t *testing.T) {
	ctx := context.Background()
	svc, store, rec := setupService(t)

	res, err := svc.Record(ctx, 1, 2, models.InteractionLike)
	require.NoError(t, err)
	assert.False(t, res.Matched)

	res, err = svc.Record(ctx, 2, 1, models.InteractionLike)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.NotZero(t, res.ConversationID)

	var count int64
	require.NoError(t, store.DB.Model(&models.Conversation{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// the second liker is the actor, so only user 1 hears about the match
	matches := rec.byKind(models.NotificationNewMatch)
	require.Len(t, matches, 1)
	assert.Equal(t, uint64(1), matches[0].TargetUserID)
	assert.Equal(t, res.ConversationID, matches[0].ConversationID)
}

func TestRecord_RepeatedLikeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setupService(t)

	_, err := svc.Record(ctx, 1, 2, models.InteractionLike)
	require.NoError(t, err)
	res, err := svc.Record(ctx, 2, 1, models.InteractionLike)
	require.NoError(t, err)
	first := res.ConversationID

	// re-liking resolves to the same conversation, never a second one
	res, err = svc.Record(ctx, 1, 2, models.InteractionLike)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, first, res.ConversationID)

	var count int64
	require.NoError(t, store.DB.Model(&models.Conversation{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRecord_DislikeNeverMatches(t *testing.T) {
	ctx := context.Background()
	svc, store, rec := setupService(t)

	_, err := svc.Record(ctx, 1, 2, models.InteractionLike)
	require.NoError(t, err)
	res, err := svc.Record(ctx, 2, 1, models.InteractionDislike)
	require.NoError(t, err)
	assert.False(t, res.Matched)

	var count int64
	require.NoError(t, store.DB.Model(&models.Conversation{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, rec.byKind(models.NotificationNewMatch))
}

func TestUnmatch_CascadesAndNotifiesOtherParty(t *testing.T) {
	ctx := context.Background()
	svc, store, rec := setupService(t)

	_, err := svc.Record(ctx, 1, 2, models.InteractionLike)
	require.NoError(t, err)
	res, err := svc.Record(ctx, 2, 1, models.InteractionLike)
	require.NoError(t, err)

	_, err = store.InsertMessage(ctx, res.ConversationID, 1, "hi")
	require.NoError(t, err)

	require.NoError(t, svc.Unmatch(ctx, 1, 2))

	for _, model := range []any{&models.Conversation{}, &models.Message{}, &models.Interaction{}} {
		var count int64
		require.NoError(t, store.DB.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}

	unmatches := rec.byKind(models.NotificationUnmatch)
	require.Len(t, unmatches, 1)
	assert.Equal(t, uint64(2), unmatches[0].TargetUserID, "only the other party is told")

	assert.ErrorIs(t, svc.Unmatch(ctx, 1, 2), apperr.ErrNoSuchMatch)
}

func TestLikers_ListAndCount(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	for _, actor := range []uint64{2, 3, 4} {
		_, err := svc.Record(ctx, actor, 1, models.InteractionLike)
		require.NoError(t, err)
	}

	likers, err := svc.Likers(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, likers, 3)

	n, err := svc.CountLikers(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestCountLikers_ServesFromCache(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setupService(t)

	_, err := svc.Record(ctx, 2, 1, models.InteractionLike)
	require.NoError(t, err)

	// Record already incremented the counter, so the read skips the DB.
	// Poison the DB row set to prove it.
	require.NoError(t, store.DB.Exec("DELETE FROM interactions").Error)

	n, err := svc.CountLikers(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestReport_FileAndUndo(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	_, err := svc.Report(ctx, 1, 1, "self")
	assert.ErrorIs(t, err, apperr.ErrSelfInteraction)

	r, err := svc.Report(ctx, 1, 2, "spam")
	require.NoError(t, err)
	require.NotZero(t, r.ID)

	assert.Error(t, svc.UndoReport(ctx, r.ID, 3), "someone else cannot withdraw it")
	require.NoError(t, svc.UndoReport(ctx, r.ID, 1))
}
