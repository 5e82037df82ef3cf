package handlers

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"rookery/internal/database"
	"rookery/internal/feed"
	"rookery/internal/models"
	"rookery/internal/moderation"
	"rookery/internal/notifications"
	"rookery/internal/thread"

	"github.com/stretchr/testify/require"
)

// TestContext bundles a Handler wired to a MockStore and shared fixtures.
type TestContext struct {
	Handler   *Handler
	MockStore *database.MockStore
	Fixtures  *TestFixtures
}

// TestFixtures contains sample data for testing
type TestFixtures struct {
	Viewer *models.Account
	Author *models.Account
	Post   *models.Post
	Row    *models.FeedRow
}

// NewTestFixtures creates a set of sample test data
func NewTestFixtures() *TestFixtures {
	viewer := &models.Account{
		ID:       1,
		ApID:     "https://rookery.local/users/viewer",
		Username: "viewer",
		Domain:   "rookery.local",
		Internal: true,
		Name:     "The Viewer",
	}

	author := &models.Account{
		ID:       2,
		ApID:     "https://remote.example/users/author",
		Username: "author",
		Domain:   "remote.example",
		Name:     "Remote Author",
	}

	post := &models.Post{
		ID:          100,
		ApID:        "https://remote.example/posts/100",
		AuthorID:    author.ID,
		Type:        models.PostTypeNote,
		Content:     "<p>hello fediverse</p>",
		URL:         "https://remote.example/@author/100",
		PublishedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		LikeCount:   3,
	}

	return &TestFixtures{
		Viewer: viewer,
		Author: author,
		Post:   post,
		Row:    &models.FeedRow{Kind: models.FeedRowOriginal, Post: post, Author: author},
	}
}

// NewTestContext builds a Handler over a MockStore preloaded with the
// fixture viewer, plus a throwaway delivery log.
func NewTestContext(t *testing.T) *TestContext {
	fixtures := NewTestFixtures()

	store := &database.MockStore{}
	mod := moderation.NewService(store)
	identity := func(s string) string { return s }
	feedSvc := feed.NewService(store, mod, identity)
	threadSvc := thread.NewService(store, identity)

	deliveryLog, err := notifications.OpenLog(filepath.Join(t.TempDir(), "deliveries.db"))
	require.NoError(t, err)
	t.Cleanup(func() { deliveryLog.Close() })
	notifSvc := notifications.NewService(store, mod, deliveryLog)

	return &TestContext{
		Handler:   NewHandler(feedSvc, threadSvc, notifSvc),
		MockStore: store,
		Fixtures:  fixtures,
	}
}

// NewViewerRequest builds a request carrying the fixture viewer's id.
func NewViewerRequest(method, target string, viewerID int64) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(viewerHeader, strconv.FormatInt(viewerID, 10))
	return req
}
