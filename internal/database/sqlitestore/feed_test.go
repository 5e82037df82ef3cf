package sqlitestore

import (
	"context"
	"testing"
	"time"

	"rookery/internal/database"
	"rookery/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postIDs(rows []*models.FeedRow) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.Post.ID
	}
	return ids
}

func TestListFeedRows_Ordering(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	alice := createAccount(t, store, "alice", "example.com", true)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	oldest := createNote(t, store, alice, "oldest", base)
	newest := createNote(t, store, alice, "newest", base.Add(2*time.Hour))
	middle := createNote(t, store, alice, "middle", base.Add(time.Hour))

	rows, err := store.ListFeedRows(ctx, database.FeedQuery{
		SourceIDs: []int64{alice.ID},
		Limit:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{newest.ID, middle.ID, oldest.ID}, postIDs(rows))
}

func TestListFeedRows_TieBreakByIDDesc(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	alice := createAccount(t, store, "alice", "example.com", true)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := createNote(t, store, alice, "first", at)
	second := createNote(t, store, alice, "second", at)

	rows, err := store.ListFeedRows(ctx, database.FeedQuery{
		SourceIDs: []int64{alice.ID},
		Limit:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID, first.ID}, postIDs(rows))
}

func TestListFeedRows_RepliesExcluded(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	alice := createAccount(t, store, "alice", "example.com", true)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	root := createNote(t, store, alice, "root", base)
	createReply(t, store, alice, root, base.Add(time.Minute))

	rows, err := store.ListFeedRows(ctx, database.FeedQuery{
		SourceIDs: []int64{alice.ID},
		Limit:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{root.ID}, postIDs(rows))
}

func TestListFeedRows_RepostBranch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	alice := createAccount(t, store, "alice", "example.com", true)
	bob := createAccount(t, store, "bob", "remote.example", false)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// bob's post is not in alice's sources, but alice reposted it.
	post := createNote(t, store, bob, "from bob", base)
	repostedAt := base.Add(time.Hour)
	require.NoError(t, store.CreateRepost(ctx, alice.ID, post.ID, repostedAt))

	rows, err := store.ListFeedRows(ctx, database.FeedQuery{
		SourceIDs: []int64{alice.ID},
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, models.FeedRowRepost, row.Kind)
	assert.Equal(t, post.ID, row.Post.ID)
	assert.Equal(t, bob.ID, row.Author.ID)
	require.NotNil(t, row.RepostedBy)
	assert.Equal(t, alice.ID, row.RepostedBy.ID)
	require.NotNil(t, row.RepostedAt)
	assert.True(t, row.RepostedAt.Equal(repostedAt))
	assert.True(t, row.SortKey().Equal(repostedAt))
}

func TestListFeedRows_RepostSortsByRepostTime(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	alice := createAccount(t, store, "alice", "example.com", true)
	bob := createAccount(t, store, "bob", "example.com", true)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	old := createNote(t, store, bob, "old post", base)
	newer := createNote(t, store, alice, "newer post", base.Add(time.Hour))

	// Reposting the old post later surfaces it above the newer original.
	require.NoError(t, store.CreateRepost(ctx, alice.ID, old.ID, base.Add(2*time.Hour)))

	rows, err := store.ListFeedRows(ctx, database.FeedQuery{
		SourceIDs: []int64{alice.ID},
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.FeedRowRepost, rows[0].Kind)
	assert.Equal(t, old.ID, rows[0].Post.ID)
	assert.Equal(t, newer.ID, rows[1].Post.ID)
}

func TestListFeedRows_TypeFilter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	alice := createAccount(t, store, "alice", "example.com", true)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	createNote(t, store, alice, "a note", base)
	article, err := store.CreatePost(ctx, &models.Post{
		ApID:        "https://example.com/posts/article-1",
		AuthorID:    alice.ID,
		Type:        models.PostTypeArticle,
		Title:       "An Article",
		Content:     "long form",
		PublishedAt: base.Add(time.Minute),
	})
	require.NoError(t, err)

	articleType := models.PostTypeArticle
	rows, err := store.ListFeedRows(ctx, database.FeedQuery{
		SourceIDs: []int64{alice.ID},
		Type:      &articleType,
		Limit:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{article.ID}, postIDs(rows))
}

func TestListFeedRows_TypeFilterCoversReposts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	bob := createAccount(t, store, "bob", "example.com", true)
	dana := createAccount(t, store, "dana", "remote.example", false)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// bob publishes an article and later reposts dana's older note. With no
	// filter the repost sorts above the article; filtering by Article must
	// drop the reposted note too, not just original notes.
	note := createNote(t, store, dana, "from dana", base.Add(5*time.Minute))
	article, err := store.CreatePost(ctx, &models.Post{
		ApID:        "https://example.com/posts/article-x",
		AuthorID:    bob.ID,
		Type:        models.PostTypeArticle,
		Title:       "Article X",
		Content:     "long form",
		PublishedAt: base.Add(10 * time.Minute),
	})
	require.NoError(t, err)
	require.NoError(t, store.CreateRepost(ctx, bob.ID, note.ID, base.Add(12*time.Minute)))

	rows, err := store.ListFeedRows(ctx, database.FeedQuery{
		SourceIDs: []int64{bob.ID},
		Limit:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{note.ID, article.ID}, postIDs(rows))

	articleType := models.PostTypeArticle
	rows, err = store.ListFeedRows(ctx, database.FeedQuery{
		SourceIDs: []int64{bob.ID},
		Type:      &articleType,
		Limit:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{article.ID}, postIDs(rows))
}

func TestListFeedRows_Exclusions(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	alice := createAccount(t, store, "alice", "example.com", true)
	bob := createAccount(t, store, "bob", "example.com", true)
	spammer := createAccount(t, store, "spammer", "spam.example", false)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	fine := createNote(t, store, alice, "fine", base)
	fromBob := createNote(t, store, bob, "from bob", base.Add(time.Minute))
	fromSpam := createNote(t, store, spammer, "spam", base.Add(2*time.Minute))

	t.Run("account exclusion drops author and reposter rows", func(t *testing.T) {
		// bob also reposted alice's post; excluding bob must drop both his
		// original and his repost.
		require.NoError(t, store.CreateRepost(ctx, bob.ID, fine.ID, base.Add(3*time.Minute)))

		rows, err := store.ListFeedRows(ctx, database.FeedQuery{
			SourceIDs:         []int64{alice.ID, bob.ID, spammer.ID},
			Limit:             10,
			ExcludeAccountIDs: []int64{bob.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{fromSpam.ID, fine.ID}, postIDs(rows))
	})

	t.Run("domain exclusion", func(t *testing.T) {
		rows, err := store.ListFeedRows(ctx, database.FeedQuery{
			SourceIDs:           []int64{alice.ID, bob.ID, spammer.ID},
			Limit:               10,
			ExcludeDomainHashes: []string{models.HashDomain("spam.example")},
		})
		require.NoError(t, err)
		assert.NotContains(t, postIDs(rows), fromSpam.ID)
		assert.Contains(t, postIDs(rows), fromBob.ID)
	})
}

func TestListFeedRows_KeysetPagination(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	alice := createAccount(t, store, "alice", "example.com", true)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var all []int64
	for i := 0; i < 7; i++ {
		p := createNote(t, store, alice, "post", base.Add(time.Duration(i)*time.Minute))
		all = append(all, p.ID)
	}

	// Page through three at a time; every post must appear exactly once.
	var seen []int64
	var before *database.Position
	for {
		rows, err := store.ListFeedRows(ctx, database.FeedQuery{
			SourceIDs: []int64{alice.ID},
			Before:    before,
			Limit:     3,
		})
		require.NoError(t, err)
		if len(rows) == 0 {
			break
		}
		seen = append(seen, postIDs(rows)...)
		last := rows[len(rows)-1]
		before = &database.Position{SortKey: last.SortKey(), ID: last.Post.ID}
	}

	assert.ElementsMatch(t, all, seen)
	assert.Len(t, seen, len(all))
}

func TestListFeedRows_KeysetTieBreak(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	alice := createAccount(t, store, "alice", "example.com", true)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Five posts sharing one timestamp: pagination must fall back to the
	// id tie-break and still visit each exactly once.
	var all []int64
	for i := 0; i < 5; i++ {
		p := createNote(t, store, alice, "same instant", at)
		all = append(all, p.ID)
	}

	var seen []int64
	var before *database.Position
	for {
		rows, err := store.ListFeedRows(ctx, database.FeedQuery{
			SourceIDs: []int64{alice.ID},
			Before:    before,
			Limit:     2,
		})
		require.NoError(t, err)
		if len(rows) == 0 {
			break
		}
		seen = append(seen, postIDs(rows)...)
		last := rows[len(rows)-1]
		before = &database.Position{SortKey: last.SortKey(), ID: last.Post.ID}
	}

	assert.ElementsMatch(t, all, seen)
}

func TestListFeedRows_EmptySources(t *testing.T) {
	store := setupTestStore(t)

	rows, err := store.ListFeedRows(context.Background(), database.FeedQuery{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
