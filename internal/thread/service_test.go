package thread

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"rookery/internal/database"
	"rookery/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threadFixture is an in-memory post graph backing a MockStore, so tests
// can describe thread shapes declaratively.
type threadFixture struct {
	posts map[int64]*models.Post
}

func newThreadFixture() *threadFixture {
	return &threadFixture{posts: make(map[int64]*models.Post)}
}

// addPost registers a post replying to parentID (0 for a root). Publish
// times increase with the id so child ordering is deterministic.
func (f *threadFixture) addPost(id int64, parentID int64) *models.Post {
	p := &models.Post{
		ID:          id,
		ApID:        fmt.Sprintf("https://a.example/posts/%d", id),
		AuthorID:    1,
		Type:        models.PostTypeNote,
		Content:     fmt.Sprintf("post %d", id),
		PublishedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Minute),
	}
	if parentID != 0 {
		parent := f.posts[parentID]
		p.InReplyTo = &parent.ID
		root := parent.ID
		if parent.ThreadRoot != nil {
			root = *parent.ThreadRoot
		}
		p.ThreadRoot = &root
		parent.ReplyCount++
	}
	f.posts[id] = p
	return p
}

func (f *threadFixture) store() *database.MockStore {
	return &database.MockStore{
		GetPostByIDFunc: func(ctx context.Context, id int64) (*models.Post, error) {
			p, ok := f.posts[id]
			if !ok {
				return nil, database.ErrNotFound
			}
			return p, nil
		},
		GetPostByApIDFunc: func(ctx context.Context, apID string) (*models.Post, error) {
			for _, p := range f.posts {
				if p.ApID == apID {
					return p, nil
				}
			}
			return nil, database.ErrNotFound
		},
		ListChildrenFunc: func(ctx context.Context, parentID int64, limit int) ([]*models.Post, error) {
			var kids []*models.Post
			for _, p := range f.posts {
				if p.InReplyTo != nil && *p.InReplyTo == parentID {
					kids = append(kids, p)
				}
			}
			sort.Slice(kids, func(i, j int) bool { return kids[i].ID < kids[j].ID })
			if len(kids) > limit {
				kids = kids[:limit]
			}
			return kids, nil
		},
		GetAccountsByIDsFunc: func(ctx context.Context, ids []int64) (map[int64]*models.Account, error) {
			accounts := make(map[int64]*models.Account, len(ids))
			for _, id := range ids {
				accounts[id] = &models.Account{ID: id, Username: "author", Domain: "a.example"}
			}
			return accounts, nil
		},
	}
}

func newTestService(f *threadFixture) *Service {
	return NewService(f.store(), func(s string) string { return s })
}

func TestGetReplyChain_NotFound(t *testing.T) {
	svc := newTestService(newThreadFixture())

	_, err := svc.GetReplyChain(context.Background(), 1, "https://a.example/posts/404")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestGetReplyChain_RootWithoutReplies(t *testing.T) {
	f := newThreadFixture()
	f.addPost(1, 0)
	svc := newTestService(f)

	chain, err := svc.GetReplyChain(context.Background(), 9, "https://a.example/posts/1")
	require.NoError(t, err)

	assert.Equal(t, int64(1), chain.Post.ID)
	assert.Empty(t, chain.Ancestors.Chain)
	assert.False(t, chain.Ancestors.HasMore)
	assert.Empty(t, chain.Children)
	assert.False(t, chain.HasMore)
}

func TestGetReplyChain_AncestorsRootFirst(t *testing.T) {
	f := newThreadFixture()
	f.addPost(1, 0)
	f.addPost(2, 1)
	f.addPost(3, 2)
	f.addPost(4, 3)
	svc := newTestService(f)

	chain, err := svc.GetReplyChain(context.Background(), 9, "https://a.example/posts/4")
	require.NoError(t, err)

	require.Len(t, chain.Ancestors.Chain, 3)
	assert.Equal(t, int64(1), chain.Ancestors.Chain[0].ID)
	assert.Equal(t, int64(2), chain.Ancestors.Chain[1].ID)
	assert.Equal(t, int64(3), chain.Ancestors.Chain[2].ID)
	assert.False(t, chain.Ancestors.HasMore)
}

func TestGetReplyChain_AncestorDepthBounded(t *testing.T) {
	f := newThreadFixture()
	f.addPost(1, 0)
	for id := int64(2); id <= 13; id++ {
		f.addPost(id, id-1)
	}
	svc := newTestService(f)

	chain, err := svc.GetReplyChain(context.Background(), 9, "https://a.example/posts/13")
	require.NoError(t, err)

	// Only the 10 nearest ancestors, still ordered oldest first, with the
	// truncation reported.
	require.Len(t, chain.Ancestors.Chain, maxAncestorDepth)
	assert.Equal(t, int64(3), chain.Ancestors.Chain[0].ID)
	assert.Equal(t, int64(12), chain.Ancestors.Chain[maxAncestorDepth-1].ID)
	assert.True(t, chain.Ancestors.HasMore)
}

func TestGetReplyChain_MissingParentTruncates(t *testing.T) {
	f := newThreadFixture()
	f.addPost(1, 0)
	f.addPost(2, 1)
	delete(f.posts, 1)
	svc := newTestService(f)

	chain, err := svc.GetReplyChain(context.Background(), 9, "https://a.example/posts/2")
	require.NoError(t, err)
	assert.Empty(t, chain.Ancestors.Chain)
	assert.False(t, chain.Ancestors.HasMore)
}

func TestGetReplyChain_ChildrenBounded(t *testing.T) {
	f := newThreadFixture()
	f.addPost(1, 0)
	for id := int64(2); id <= 13; id++ {
		f.addPost(id, 1)
	}
	svc := newTestService(f)

	chain, err := svc.GetReplyChain(context.Background(), 9, "https://a.example/posts/1")
	require.NoError(t, err)

	require.Len(t, chain.Children, maxChildrenCount)
	assert.Equal(t, int64(2), chain.Children[0].Post.ID)
	assert.Equal(t, int64(11), chain.Children[maxChildrenCount-1].Post.ID)
	assert.True(t, chain.HasMore)
}

func TestGetReplyChain_LinearChainCollapsed(t *testing.T) {
	// 1 <- 2 <- 3 <- 4 <- 5: a two-party back-and-forth collapses into a
	// single flat chain under the one top-level reply.
	f := newThreadFixture()
	f.addPost(1, 0)
	for id := int64(2); id <= 5; id++ {
		f.addPost(id, id-1)
	}
	svc := newTestService(f)

	chain, err := svc.GetReplyChain(context.Background(), 9, "https://a.example/posts/1")
	require.NoError(t, err)

	require.Len(t, chain.Children, 1)
	child := chain.Children[0]
	assert.Equal(t, int64(2), child.Post.ID)
	require.Len(t, child.Chain, 3)
	assert.Equal(t, int64(3), child.Chain[0].ID)
	assert.Equal(t, int64(5), child.Chain[2].ID)
	assert.False(t, child.HasMore)
}

func TestGetReplyChain_ChainDepthBounded(t *testing.T) {
	// A linear chain deeper than the cap is trimmed and flagged.
	f := newThreadFixture()
	f.addPost(1, 0)
	for id := int64(2); id <= 12; id++ {
		f.addPost(id, id-1)
	}
	svc := newTestService(f)

	chain, err := svc.GetReplyChain(context.Background(), 9, "https://a.example/posts/1")
	require.NoError(t, err)

	require.Len(t, chain.Children, 1)
	child := chain.Children[0]
	require.Len(t, child.Chain, maxChildrenDepth)
	assert.Equal(t, int64(3), child.Chain[0].ID)
	assert.Equal(t, int64(7), child.Chain[maxChildrenDepth-1].ID)
	assert.True(t, child.HasMore)
}

func TestGetReplyChain_BranchRepliesPromoted(t *testing.T) {
	// 1 <- 2 <- 3, with 3 having two replies. The chain under child 2
	// stops at 3, and both of 3's replies surface as their own top-level
	// entries instead of being flattened into the chain.
	f := newThreadFixture()
	f.addPost(1, 0)
	f.addPost(2, 1)
	f.addPost(3, 2)
	f.addPost(4, 3)
	f.addPost(5, 3)
	svc := newTestService(f)

	chain, err := svc.GetReplyChain(context.Background(), 9, "https://a.example/posts/1")
	require.NoError(t, err)

	require.Len(t, chain.Children, 3)
	child := chain.Children[0]
	assert.Equal(t, int64(2), child.Post.ID)
	require.Len(t, child.Chain, 1)
	assert.Equal(t, int64(3), child.Chain[0].ID)
	assert.False(t, child.HasMore)

	assert.Equal(t, int64(4), chain.Children[1].Post.ID)
	assert.Equal(t, int64(5), chain.Children[2].Post.ID)
	assert.Empty(t, chain.Children[1].Chain)
	assert.Empty(t, chain.Children[2].Chain)
	assert.False(t, chain.HasMore)
}

func TestGetReplyChain_BranchPromotionRespectsCap(t *testing.T) {
	// Nine direct replies plus a branch under the first one's chain. The
	// promoted branch replies only fill up to the top-level cap; the rest
	// is reported as truncation.
	f := newThreadFixture()
	f.addPost(1, 0)
	for id := int64(2); id <= 10; id++ {
		f.addPost(id, 1)
	}
	f.addPost(20, 2)
	f.addPost(21, 20)
	f.addPost(22, 20)
	svc := newTestService(f)

	chain, err := svc.GetReplyChain(context.Background(), 9, "https://a.example/posts/1")
	require.NoError(t, err)

	require.Len(t, chain.Children, maxChildrenCount)
	assert.Equal(t, int64(2), chain.Children[0].Post.ID)
	require.Len(t, chain.Children[0].Chain, 1)
	assert.Equal(t, int64(20), chain.Children[0].Chain[0].ID)
	assert.Equal(t, int64(21), chain.Children[maxChildrenCount-1].Post.ID)
	assert.True(t, chain.HasMore)
}

func TestGetReplyChain_CounterDriftStopsChain(t *testing.T) {
	// Federation can leave reply_count ahead of the actual rows; the walk
	// must stop cleanly instead of erroring.
	f := newThreadFixture()
	f.addPost(1, 0)
	drifted := f.addPost(2, 1)
	drifted.ReplyCount = 1
	svc := newTestService(f)

	chain, err := svc.GetReplyChain(context.Background(), 9, "https://a.example/posts/1")
	require.NoError(t, err)

	require.Len(t, chain.Children, 1)
	assert.Empty(t, chain.Children[0].Chain)
	assert.False(t, chain.Children[0].HasMore)
}

func TestGetReplyChain_ViewerFlags(t *testing.T) {
	f := newThreadFixture()
	f.addPost(1, 0)
	store := f.store()
	store.FilterLikedPostIDsFunc = func(ctx context.Context, accountID int64, postIDs []int64) ([]int64, error) {
		return []int64{1}, nil
	}
	store.FilterFollowedAccountIDsFunc = func(ctx context.Context, followerID int64, accountIDs []int64) ([]int64, error) {
		return []int64{1}, nil
	}
	svc := NewService(store, func(s string) string { return s })

	chain, err := svc.GetReplyChain(context.Background(), 9, "https://a.example/posts/1")
	require.NoError(t, err)
	assert.True(t, chain.Post.LikedByMe)
	assert.True(t, chain.Post.FollowedByMe)
	assert.False(t, chain.Post.RepostedByMe)
}
