package notifications

import (
	"context"
	"path/filepath"
	"testing"

	"rookery/internal/database"
	"rookery/internal/models"
	"rookery/internal/moderation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, store *database.MockStore) *Service {
	l, err := OpenLog(filepath.Join(t.TempDir(), "deliveries.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	return NewService(store, moderation.NewService(store), l)
}

// graphStore builds a MockStore with a fixed account set and follower map.
func graphStore(accounts map[int64]*models.Account, internalFollowers map[int64][]int64) *database.MockStore {
	return &database.MockStore{
		GetAccountByIDFunc: func(ctx context.Context, id int64) (*models.Account, error) {
			acc, ok := accounts[id]
			if !ok {
				return nil, database.ErrNotFound
			}
			return acc, nil
		},
		ListInternalFollowerIDsFunc: func(ctx context.Context, accountID int64) ([]int64, error) {
			return internalFollowers[accountID], nil
		},
	}
}

func TestRecordInteraction_FanOut(t *testing.T) {
	// Author 10 and actor 20 are internal; 30 and 31 follow the actor.
	accounts := map[int64]*models.Account{
		10: {ID: 10, Internal: true},
		20: {ID: 20, Internal: true},
	}
	followers := map[int64][]int64{20: {30, 31}}
	store := graphStore(accounts, followers)
	svc := newTestService(t, store)

	post := &models.Post{ID: 1, AuthorID: 10, ApID: "https://a.example/posts/1"}

	written, err := svc.RecordInteraction(context.Background(), post, TypeLike, 20)
	require.NoError(t, err)
	assert.Equal(t, 4, written) // author, two followers, the actor itself

	deliveries, err := svc.Drain(10)
	require.NoError(t, err)
	recipients := make([]int64, 0, len(deliveries))
	for _, d := range deliveries {
		recipients = append(recipients, d.RecipientID)
		assert.Equal(t, TypeLike, d.Type)
		assert.Equal(t, int64(20), d.ActorID)
		assert.Equal(t, post.ApID, d.PostApID)
		assert.NotEmpty(t, d.ID)
	}
	assert.ElementsMatch(t, []int64{10, 20, 30, 31}, recipients)
}

func TestRecordInteraction_AuthorNotNotifiedOfOwnAction(t *testing.T) {
	accounts := map[int64]*models.Account{10: {ID: 10, Internal: true}}
	store := graphStore(accounts, nil)
	svc := newTestService(t, store)

	post := &models.Post{ID: 1, AuthorID: 10, ApID: "https://a.example/posts/1"}

	written, err := svc.RecordInteraction(context.Background(), post, TypeRepost, 10)
	require.NoError(t, err)
	// The author acting on their own post still lands in their own inbox
	// once, not twice.
	assert.Equal(t, 1, written)

	deliveries, err := svc.Drain(10)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.Equal(t, int64(10), deliveries[0].RecipientID)
}

func TestRecordInteraction_RemoteAuthorSkipped(t *testing.T) {
	accounts := map[int64]*models.Account{
		10: {ID: 10, Internal: false},
		20: {ID: 20, Internal: true},
	}
	store := graphStore(accounts, nil)
	svc := newTestService(t, store)

	post := &models.Post{ID: 1, AuthorID: 10, ApID: "https://a.example/posts/1"}

	written, err := svc.RecordInteraction(context.Background(), post, TypeLike, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	deliveries, err := svc.Drain(10)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.Equal(t, int64(20), deliveries[0].RecipientID)
}

func TestRecordInteraction_BlockedInteractorOnlyReachesSelf(t *testing.T) {
	accounts := map[int64]*models.Account{
		10: {ID: 10, Internal: true},
		20: {ID: 20, Internal: true},
	}
	followers := map[int64][]int64{20: {30}}
	store := graphStore(accounts, followers)
	store.ListBlockedAccountIDsFunc = func(ctx context.Context, blockerID int64) ([]int64, error) {
		if blockerID == 10 {
			return []int64{20}, nil
		}
		return nil, nil
	}
	svc := newTestService(t, store)

	post := &models.Post{ID: 1, AuthorID: 10, ApID: "https://a.example/posts/1"}

	written, err := svc.RecordInteraction(context.Background(), post, TypeLike, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	deliveries, err := svc.Drain(10)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.Equal(t, int64(20), deliveries[0].RecipientID)
}

func TestRecordInteraction_ReplayedEventNotDuplicated(t *testing.T) {
	accounts := map[int64]*models.Account{
		10: {ID: 10, Internal: true},
		20: {ID: 20, Internal: true},
	}
	store := graphStore(accounts, nil)
	svc := newTestService(t, store)

	post := &models.Post{ID: 1, AuthorID: 10, ApID: "https://a.example/posts/1"}

	written, err := svc.RecordInteraction(context.Background(), post, TypeLike, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	written, err = svc.RecordInteraction(context.Background(), post, TypeLike, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, written)
}

func TestRecordInteraction_NoRecipients(t *testing.T) {
	// Everyone involved is remote; there is nothing to record.
	accounts := map[int64]*models.Account{
		10: {ID: 10, Internal: false},
		20: {ID: 20, Internal: false},
	}
	store := graphStore(accounts, nil)
	svc := newTestService(t, store)

	post := &models.Post{ID: 1, AuthorID: 10, ApID: "https://a.example/posts/1"}

	written, err := svc.RecordInteraction(context.Background(), post, TypeLike, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, written)
}
