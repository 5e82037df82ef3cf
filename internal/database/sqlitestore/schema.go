package sqlitestore

import "fmt"

// Schema statements, applied in order at Open. All statements are
// idempotent so reopening an existing database is a no-op.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts(
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		ap_id        TEXT NOT NULL UNIQUE,
		username     TEXT NOT NULL,
		domain       TEXT NOT NULL,
		domain_hash  TEXT NOT NULL,
		internal     INTEGER NOT NULL DEFAULT 0,
		name         TEXT NOT NULL DEFAULT '',
		bio          TEXT NOT NULL DEFAULT '',
		avatar_url   TEXT NOT NULL DEFAULT '',
		url          TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL,
		disabled_at  TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_accounts_domain_hash ON accounts(domain_hash)`,

	`CREATE TABLE IF NOT EXISTS posts(
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		ap_id        TEXT NOT NULL UNIQUE,
		author_id    INTEGER NOT NULL REFERENCES accounts(id),
		type         TEXT NOT NULL,
		title        TEXT NOT NULL DEFAULT '',
		excerpt      TEXT NOT NULL DEFAULT '',
		content      TEXT NOT NULL DEFAULT '',
		url          TEXT NOT NULL DEFAULT '',
		published_at TEXT NOT NULL,
		like_count   INTEGER NOT NULL DEFAULT 0,
		reply_count  INTEGER NOT NULL DEFAULT 0,
		repost_count INTEGER NOT NULL DEFAULT 0,
		in_reply_to  INTEGER REFERENCES posts(id),
		thread_root  INTEGER REFERENCES posts(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_author_published ON posts(author_id, published_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_parent ON posts(in_reply_to, published_at)`,

	`CREATE TABLE IF NOT EXISTS follows(
		follower_id  INTEGER NOT NULL REFERENCES accounts(id),
		following_id INTEGER NOT NULL REFERENCES accounts(id),
		created_at   TEXT NOT NULL,
		PRIMARY KEY (follower_id, following_id),
		CHECK (follower_id <> following_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_follows_following ON follows(following_id)`,

	`CREATE TABLE IF NOT EXISTS reposts(
		account_id INTEGER NOT NULL REFERENCES accounts(id),
		post_id    INTEGER NOT NULL REFERENCES posts(id),
		created_at TEXT NOT NULL,
		PRIMARY KEY (account_id, post_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reposts_account_created ON reposts(account_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS likes(
		account_id INTEGER NOT NULL REFERENCES accounts(id),
		post_id    INTEGER NOT NULL REFERENCES posts(id),
		created_at TEXT NOT NULL,
		PRIMARY KEY (account_id, post_id)
	)`,

	`CREATE TABLE IF NOT EXISTS blocks(
		blocker_id INTEGER NOT NULL REFERENCES accounts(id),
		blocked_id INTEGER NOT NULL REFERENCES accounts(id),
		created_at TEXT NOT NULL,
		PRIMARY KEY (blocker_id, blocked_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_blocks_blocked ON blocks(blocked_id)`,

	`CREATE TABLE IF NOT EXISTS domain_blocks(
		blocker_id  INTEGER NOT NULL REFERENCES accounts(id),
		domain_hash TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		PRIMARY KEY (blocker_id, domain_hash)
	)`,
}

func (s *Store) applySchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
