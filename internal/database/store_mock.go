package database

import (
	"context"
	"time"

	"rookery/internal/models"
)

// MockStore is a mock implementation of the Store interface for testing.
// Uses function fields to allow tests to inject custom behavior; methods
// whose function field is unset return zero values.
type MockStore struct {
	UpsertAccountFunc    func(ctx context.Context, acc *models.Account) (*models.Account, error)
	GetAccountByIDFunc   func(ctx context.Context, id int64) (*models.Account, error)
	GetAccountByApIDFunc func(ctx context.Context, apID string) (*models.Account, error)
	GetAccountsByIDsFunc func(ctx context.Context, ids []int64) (map[int64]*models.Account, error)

	CreatePostFunc    func(ctx context.Context, post *models.Post) (*models.Post, error)
	GetPostByIDFunc   func(ctx context.Context, id int64) (*models.Post, error)
	GetPostByApIDFunc func(ctx context.Context, apID string) (*models.Post, error)
	ListChildrenFunc  func(ctx context.Context, parentID int64, limit int) ([]*models.Post, error)

	CreateFollowFunc      func(ctx context.Context, followerID, followingID int64) error
	CreateRepostFunc      func(ctx context.Context, accountID, postID int64, createdAt time.Time) error
	CreateLikeFunc        func(ctx context.Context, accountID, postID int64) error
	CreateBlockFunc       func(ctx context.Context, blockerID, blockedID int64) error
	CreateDomainBlockFunc func(ctx context.Context, blockerID int64, domainHash string) error

	ListFollowingIDsFunc        func(ctx context.Context, accountID int64) ([]int64, error)
	ListInternalFollowerIDsFunc func(ctx context.Context, accountID int64) ([]int64, error)

	ListBlockedAccountIDsFunc   func(ctx context.Context, blockerID int64) ([]int64, error)
	ListBlockedDomainHashesFunc func(ctx context.Context, blockerID int64) ([]string, error)
	ListBlockerIDsFunc          func(ctx context.Context, accountID int64) ([]int64, error)

	ListFeedRowsFunc func(ctx context.Context, q FeedQuery) ([]*models.FeedRow, error)

	FilterLikedPostIDsFunc       func(ctx context.Context, accountID int64, postIDs []int64) ([]int64, error)
	FilterRepostedPostIDsFunc    func(ctx context.Context, accountID int64, postIDs []int64) ([]int64, error)
	FilterFollowedAccountIDsFunc func(ctx context.Context, followerID int64, accountIDs []int64) ([]int64, error)

	CloseFunc func() error
}

var _ Store = (*MockStore)(nil)

func (m *MockStore) UpsertAccount(ctx context.Context, acc *models.Account) (*models.Account, error) {
	if m.UpsertAccountFunc != nil {
		return m.UpsertAccountFunc(ctx, acc)
	}
	return acc, nil
}

func (m *MockStore) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	if m.GetAccountByIDFunc != nil {
		return m.GetAccountByIDFunc(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *MockStore) GetAccountByApID(ctx context.Context, apID string) (*models.Account, error) {
	if m.GetAccountByApIDFunc != nil {
		return m.GetAccountByApIDFunc(ctx, apID)
	}
	return nil, ErrNotFound
}

func (m *MockStore) GetAccountsByIDs(ctx context.Context, ids []int64) (map[int64]*models.Account, error) {
	if m.GetAccountsByIDsFunc != nil {
		return m.GetAccountsByIDsFunc(ctx, ids)
	}
	return map[int64]*models.Account{}, nil
}

func (m *MockStore) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	if m.CreatePostFunc != nil {
		return m.CreatePostFunc(ctx, post)
	}
	return post, nil
}

func (m *MockStore) GetPostByID(ctx context.Context, id int64) (*models.Post, error) {
	if m.GetPostByIDFunc != nil {
		return m.GetPostByIDFunc(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *MockStore) GetPostByApID(ctx context.Context, apID string) (*models.Post, error) {
	if m.GetPostByApIDFunc != nil {
		return m.GetPostByApIDFunc(ctx, apID)
	}
	return nil, ErrNotFound
}

func (m *MockStore) ListChildren(ctx context.Context, parentID int64, limit int) ([]*models.Post, error) {
	if m.ListChildrenFunc != nil {
		return m.ListChildrenFunc(ctx, parentID, limit)
	}
	return nil, nil
}

func (m *MockStore) CreateFollow(ctx context.Context, followerID, followingID int64) error {
	if m.CreateFollowFunc != nil {
		return m.CreateFollowFunc(ctx, followerID, followingID)
	}
	return nil
}

func (m *MockStore) CreateRepost(ctx context.Context, accountID, postID int64, createdAt time.Time) error {
	if m.CreateRepostFunc != nil {
		return m.CreateRepostFunc(ctx, accountID, postID, createdAt)
	}
	return nil
}

func (m *MockStore) CreateLike(ctx context.Context, accountID, postID int64) error {
	if m.CreateLikeFunc != nil {
		return m.CreateLikeFunc(ctx, accountID, postID)
	}
	return nil
}

func (m *MockStore) CreateBlock(ctx context.Context, blockerID, blockedID int64) error {
	if m.CreateBlockFunc != nil {
		return m.CreateBlockFunc(ctx, blockerID, blockedID)
	}
	return nil
}

func (m *MockStore) CreateDomainBlock(ctx context.Context, blockerID int64, domainHash string) error {
	if m.CreateDomainBlockFunc != nil {
		return m.CreateDomainBlockFunc(ctx, blockerID, domainHash)
	}
	return nil
}

func (m *MockStore) ListFollowingIDs(ctx context.Context, accountID int64) ([]int64, error) {
	if m.ListFollowingIDsFunc != nil {
		return m.ListFollowingIDsFunc(ctx, accountID)
	}
	return nil, nil
}

func (m *MockStore) ListInternalFollowerIDs(ctx context.Context, accountID int64) ([]int64, error) {
	if m.ListInternalFollowerIDsFunc != nil {
		return m.ListInternalFollowerIDsFunc(ctx, accountID)
	}
	return nil, nil
}

func (m *MockStore) ListBlockedAccountIDs(ctx context.Context, blockerID int64) ([]int64, error) {
	if m.ListBlockedAccountIDsFunc != nil {
		return m.ListBlockedAccountIDsFunc(ctx, blockerID)
	}
	return nil, nil
}

func (m *MockStore) ListBlockedDomainHashes(ctx context.Context, blockerID int64) ([]string, error) {
	if m.ListBlockedDomainHashesFunc != nil {
		return m.ListBlockedDomainHashesFunc(ctx, blockerID)
	}
	return nil, nil
}

func (m *MockStore) ListBlockerIDs(ctx context.Context, accountID int64) ([]int64, error) {
	if m.ListBlockerIDsFunc != nil {
		return m.ListBlockerIDsFunc(ctx, accountID)
	}
	return nil, nil
}

func (m *MockStore) ListFeedRows(ctx context.Context, q FeedQuery) ([]*models.FeedRow, error) {
	if m.ListFeedRowsFunc != nil {
		return m.ListFeedRowsFunc(ctx, q)
	}
	return nil, nil
}

func (m *MockStore) FilterLikedPostIDs(ctx context.Context, accountID int64, postIDs []int64) ([]int64, error) {
	if m.FilterLikedPostIDsFunc != nil {
		return m.FilterLikedPostIDsFunc(ctx, accountID, postIDs)
	}
	return nil, nil
}

func (m *MockStore) FilterRepostedPostIDs(ctx context.Context, accountID int64, postIDs []int64) ([]int64, error) {
	if m.FilterRepostedPostIDsFunc != nil {
		return m.FilterRepostedPostIDsFunc(ctx, accountID, postIDs)
	}
	return nil, nil
}

func (m *MockStore) FilterFollowedAccountIDs(ctx context.Context, followerID int64, accountIDs []int64) ([]int64, error) {
	if m.FilterFollowedAccountIDsFunc != nil {
		return m.FilterFollowedAccountIDsFunc(ctx, followerID, accountIDs)
	}
	return nil, nil
}

func (m *MockStore) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
