// Package database defines the persistence interface consumed by the feed,
// thread, moderation and notification services. The core read paths never
// mutate counters or edges; the write methods exist for the federation
// ingest and provisioning collaborators (and for test fixtures).
package database

import (
	"context"
	"errors"
	"time"

	"rookery/internal/models"
)

// ErrNotFound is returned when a lookup matches no row. Callers map it to a
// 404-equivalent; it is the only domain error the store surfaces.
var ErrNotFound = errors.New("database: not found")

// Position is a point in the feed ordering: the sort key and post id of the
// last row already returned. A query with a Position resumes strictly after
// it under (sort key desc, id desc).
type Position struct {
	SortKey time.Time
	ID      int64
}

// FeedQuery describes one page of the merged authored+reposted candidate
// set. Exclusions are the viewer's block and domain-block sets; applying
// them inside the query keeps pagination windows stable, because filtering
// after paging would silently shrink pages.
type FeedQuery struct {
	// SourceIDs are the accounts whose posts and reposts are candidates:
	// the viewer plus everyone the viewer follows.
	SourceIDs []int64

	// Type restricts candidates to one post type before the window is
	// computed. Nil means no restriction.
	Type *models.PostType

	// Before resumes pagination strictly after this position. Nil means
	// start from the newest row.
	Before *Position

	// Limit is the maximum number of rows to return.
	Limit int

	// ExcludeAccountIDs drops rows authored or reposted by these accounts.
	ExcludeAccountIDs []int64

	// ExcludeDomainHashes drops rows whose author or reposter resolves to
	// one of these domain hashes.
	ExcludeDomainHashes []string
}

// Store is the relational store behind the timeline and thread engine.
// All methods accept a context.Context to support cancellation and
// request-scoped tracing. Implementations must be safe for concurrent use.
type Store interface {
	// Accounts
	UpsertAccount(ctx context.Context, acc *models.Account) (*models.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	GetAccountByApID(ctx context.Context, apID string) (*models.Account, error)
	GetAccountsByIDs(ctx context.Context, ids []int64) (map[int64]*models.Account, error)

	// Posts
	CreatePost(ctx context.Context, post *models.Post) (*models.Post, error)
	GetPostByID(ctx context.Context, id int64) (*models.Post, error)
	GetPostByApID(ctx context.Context, apID string) (*models.Post, error)
	ListChildren(ctx context.Context, parentID int64, limit int) ([]*models.Post, error)

	// Social graph edges
	CreateFollow(ctx context.Context, followerID, followingID int64) error
	CreateRepost(ctx context.Context, accountID, postID int64, createdAt time.Time) error
	CreateLike(ctx context.Context, accountID, postID int64) error
	CreateBlock(ctx context.Context, blockerID, blockedID int64) error
	CreateDomainBlock(ctx context.Context, blockerID int64, domainHash string) error

	ListFollowingIDs(ctx context.Context, accountID int64) ([]int64, error)
	ListInternalFollowerIDs(ctx context.Context, accountID int64) ([]int64, error)

	// Moderation sets, loaded per call and never cached across requests
	ListBlockedAccountIDs(ctx context.Context, blockerID int64) ([]int64, error)
	ListBlockedDomainHashes(ctx context.Context, blockerID int64) ([]string, error)
	ListBlockerIDs(ctx context.Context, accountID int64) ([]int64, error)

	// Feed candidates
	ListFeedRows(ctx context.Context, q FeedQuery) ([]*models.FeedRow, error)

	// Viewer flag sets: each returns the subset of the given ids the
	// account has liked / reposted / follows.
	FilterLikedPostIDs(ctx context.Context, accountID int64, postIDs []int64) ([]int64, error)
	FilterRepostedPostIDs(ctx context.Context, accountID int64, postIDs []int64) ([]int64, error)
	FilterFollowedAccountIDs(ctx context.Context, followerID int64, accountIDs []int64) ([]int64, error)

	Close() error
}
