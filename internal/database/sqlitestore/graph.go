package sqlitestore

import (
	"context"
	"fmt"
	"time"
)

// CreateFollow inserts a follow edge. Duplicate pairs are ignored;
// self-follows are rejected before touching the table.
func (s *Store) CreateFollow(ctx context.Context, followerID, followingID int64) error {
	if followerID == followingID {
		return fmt.Errorf("create follow: account %d cannot follow itself", followerID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO follows (follower_id, following_id, created_at) VALUES (?, ?, ?)
	`, followerID, followingID, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("create follow: %w", err)
	}
	return nil
}

// CreateRepost records a repost reference. One row per (account, post);
// the post's repost counter is bumped only when the row is new.
func (s *Store) CreateRepost(ctx context.Context, accountID, postID int64, createdAt time.Time) error {
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create repost: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO reposts (account_id, post_id, created_at) VALUES (?, ?, ?)
	`, accountID, postID, formatTime(createdAt))
	if err != nil {
		return fmt.Errorf("create repost: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE posts SET repost_count = repost_count + 1 WHERE id = ?`, postID); err != nil {
			return fmt.Errorf("create repost: bump repost count: %w", err)
		}
	}
	return tx.Commit()
}

// CreateLike records a like. Unique per (account, post); the like counter
// is bumped only when the row is new.
func (s *Store) CreateLike(ctx context.Context, accountID, postID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create like: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO likes (account_id, post_id, created_at) VALUES (?, ?, ?)
	`, accountID, postID, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("create like: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE posts SET like_count = like_count + 1 WHERE id = ?`, postID); err != nil {
			return fmt.Errorf("create like: bump like count: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) CreateBlock(ctx context.Context, blockerID, blockedID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO blocks (blocker_id, blocked_id, created_at) VALUES (?, ?, ?)
	`, blockerID, blockedID, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("create block: %w", err)
	}
	return nil
}

func (s *Store) CreateDomainBlock(ctx context.Context, blockerID int64, domainHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO domain_blocks (blocker_id, domain_hash, created_at) VALUES (?, ?, ?)
	`, blockerID, domainHash, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("create domain block: %w", err)
	}
	return nil
}

func (s *Store) ListFollowingIDs(ctx context.Context, accountID int64) ([]int64, error) {
	return s.listIDs(ctx, `SELECT following_id FROM follows WHERE follower_id = ?`, accountID)
}

// ListInternalFollowerIDs returns the locally hosted followers of an
// account. The notification fan-out only delivers to internal accounts;
// remote followers learn about activity through federation delivery instead.
func (s *Store) ListInternalFollowerIDs(ctx context.Context, accountID int64) ([]int64, error) {
	return s.listIDs(ctx, `
		SELECT f.follower_id FROM follows f
		JOIN accounts a ON a.id = f.follower_id
		WHERE f.following_id = ? AND a.internal = 1
	`, accountID)
}

func (s *Store) ListBlockedAccountIDs(ctx context.Context, blockerID int64) ([]int64, error) {
	return s.listIDs(ctx, `SELECT blocked_id FROM blocks WHERE blocker_id = ?`, blockerID)
}

func (s *Store) ListBlockerIDs(ctx context.Context, accountID int64) ([]int64, error) {
	return s.listIDs(ctx, `SELECT blocker_id FROM blocks WHERE blocked_id = ?`, accountID)
}

func (s *Store) ListBlockedDomainHashes(ctx context.Context, blockerID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT domain_hash FROM domain_blocks WHERE blocker_id = ?`, blockerID)
	if err != nil {
		return nil, fmt.Errorf("list blocked domains: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}

func (s *Store) FilterLikedPostIDs(ctx context.Context, accountID int64, postIDs []int64) ([]int64, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	args := append([]any{accountID}, int64Args(postIDs)...)
	return s.listIDs(ctx,
		`SELECT post_id FROM likes WHERE account_id = ? AND post_id IN (`+placeholders(len(postIDs))+`)`,
		args...)
}

func (s *Store) FilterRepostedPostIDs(ctx context.Context, accountID int64, postIDs []int64) ([]int64, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	args := append([]any{accountID}, int64Args(postIDs)...)
	return s.listIDs(ctx,
		`SELECT post_id FROM reposts WHERE account_id = ? AND post_id IN (`+placeholders(len(postIDs))+`)`,
		args...)
}

func (s *Store) FilterFollowedAccountIDs(ctx context.Context, followerID int64, accountIDs []int64) ([]int64, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	args := append([]any{followerID}, int64Args(accountIDs)...)
	return s.listIDs(ctx,
		`SELECT following_id FROM follows WHERE follower_id = ? AND following_id IN (`+placeholders(len(accountIDs))+`)`,
		args...)
}

func (s *Store) listIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
