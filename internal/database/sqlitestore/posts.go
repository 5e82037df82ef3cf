package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rookery/internal/database"
	"rookery/internal/models"
)

const postCols = `id, ap_id, author_id, type, title, excerpt, content, url, published_at,
	like_count, reply_count, repost_count, in_reply_to, thread_root`

// CreatePost inserts a post. When the post is a reply, the thread root is
// derived from the parent (the parent's root, or the parent itself when the
// parent is a root) and the parent's reply counter is bumped, keeping the
// inReplyTo/threadRoot invariant without a recursive query at read time.
func (s *Store) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	if post.PublishedAt.IsZero() {
		post.PublishedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	defer tx.Rollback()

	if post.InReplyTo != nil {
		var root sql.NullInt64
		var parentID int64
		err := tx.QueryRowContext(ctx, `SELECT id, thread_root FROM posts WHERE id = ?`, *post.InReplyTo).
			Scan(&parentID, &root)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("create post: parent %d: %w", *post.InReplyTo, database.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("create post: load parent: %w", err)
		}
		threadRoot := parentID
		if root.Valid {
			threadRoot = root.Int64
		}
		post.ThreadRoot = &threadRoot
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO posts (ap_id, author_id, type, title, excerpt, content, url, published_at, in_reply_to, thread_root)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, post.ApID, post.AuthorID, string(post.Type), post.Title, post.Excerpt, post.Content,
		post.URL, formatTime(post.PublishedAt), nullableID(post.InReplyTo), nullableID(post.ThreadRoot))
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	post.ID = id

	if post.InReplyTo != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE posts SET reply_count = reply_count + 1 WHERE id = ?`, *post.InReplyTo); err != nil {
			return nil, fmt.Errorf("create post: bump reply count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id int64) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postCols+` FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

func (s *Store) GetPostByApID(ctx context.Context, apID string) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postCols+` FROM posts WHERE ap_id = ?`, apID)
	return scanPost(row)
}

// ListChildren returns the immediate replies to a post ordered by creation
// time ascending, ties broken by id ascending so the order is stable.
func (s *Store) ListChildren(ctx context.Context, parentID int64, limit int) ([]*models.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postCols+` FROM posts
		WHERE in_reply_to = ?
		ORDER BY published_at ASC, id ASC
		LIMIT ?
	`, parentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func scanPost(sc scanner) (*models.Post, error) {
	var p models.Post
	var typ, publishedAt string
	var inReplyTo, threadRoot sql.NullInt64
	err := sc.Scan(&p.ID, &p.ApID, &p.AuthorID, &typ, &p.Title, &p.Excerpt, &p.Content, &p.URL,
		&publishedAt, &p.LikeCount, &p.ReplyCount, &p.RepostCount, &inReplyTo, &threadRoot)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan post: %w", err)
	}
	p.Type = models.PostType(typ)
	p.PublishedAt = parseTime(publishedAt)
	if inReplyTo.Valid {
		p.InReplyTo = &inReplyTo.Int64
	}
	if threadRoot.Valid {
		p.ThreadRoot = &threadRoot.Int64
	}
	return &p, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
