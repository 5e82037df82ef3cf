package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"rookery/internal/database"
	"rookery/internal/models"
)

// feedSelectCols is the shared column list of both union branches: the
// post, its author, and the reposter (NULLs in the original branch).
const feedSelectCols = `
	p.id, p.ap_id, p.author_id, p.type, p.title, p.excerpt, p.content, p.url, p.published_at,
	p.like_count, p.reply_count, p.repost_count, p.in_reply_to, p.thread_root,
	a.id, a.ap_id, a.username, a.domain, a.internal, a.name, a.bio, a.avatar_url, a.url, a.created_at, a.disabled_at`

// ListFeedRows returns one page of the merged candidate set: original posts
// authored by the sources unioned with their reposts, replies excluded,
// ordered by sort key descending with post id descending as the tie-break.
// The viewer's block and domain-block exclusions and the optional type
// filter are part of the query so the pagination window is computed over
// the already-filtered set.
func (s *Store) ListFeedRows(ctx context.Context, q database.FeedQuery) ([]*models.FeedRow, error) {
	if len(q.SourceIDs) == 0 || q.Limit <= 0 {
		return nil, nil
	}

	var sb strings.Builder
	var args []any

	// Original posts branch.
	sb.WriteString(`SELECT 'original' AS kind, p.published_at AS sort_key,`)
	sb.WriteString(feedSelectCols)
	sb.WriteString(`,
		NULL, NULL, NULL, NULL, NULL, NULL, NULL, NULL, NULL, NULL, NULL
		FROM posts p
		JOIN accounts a ON a.id = p.author_id
		WHERE p.author_id IN (` + placeholders(len(q.SourceIDs)) + `)
		  AND p.in_reply_to IS NULL`)
	args = append(args, int64Args(q.SourceIDs)...)
	args = s.appendFeedFilters(&sb, args, q, "p.published_at", false)

	sb.WriteString(`
		UNION ALL
		SELECT 'repost', r.created_at,`)
	sb.WriteString(feedSelectCols)
	sb.WriteString(`,
		rb.id, rb.ap_id, rb.username, rb.domain, rb.internal, rb.name, rb.bio, rb.avatar_url, rb.url, rb.created_at, rb.disabled_at
		FROM reposts r
		JOIN posts p ON p.id = r.post_id
		JOIN accounts a ON a.id = p.author_id
		JOIN accounts rb ON rb.id = r.account_id
		WHERE r.account_id IN (` + placeholders(len(q.SourceIDs)) + `)
		  AND p.in_reply_to IS NULL`)
	args = append(args, int64Args(q.SourceIDs)...)
	args = s.appendFeedFilters(&sb, args, q, "r.created_at", true)

	// Ordinals: column 2 is sort_key, column 3 is the post id.
	sb.WriteString(` ORDER BY 2 DESC, 3 DESC LIMIT ?`)
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list feed rows: %w", err)
	}
	defer rows.Close()

	var result []*models.FeedRow
	for rows.Next() {
		fr, err := scanFeedRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, fr)
	}
	return result, rows.Err()
}

// appendFeedFilters adds the per-branch filters shared by the two union
// arms: type restriction, block exclusions, domain-block exclusions and the
// keyset cursor over (sortCol, post id).
func (s *Store) appendFeedFilters(sb *strings.Builder, args []any, q database.FeedQuery, sortCol string, repost bool) []any {
	if q.Type != nil {
		sb.WriteString(` AND p.type = ?`)
		args = append(args, string(*q.Type))
	}

	if len(q.ExcludeAccountIDs) > 0 {
		ph := placeholders(len(q.ExcludeAccountIDs))
		sb.WriteString(` AND p.author_id NOT IN (` + ph + `)`)
		args = append(args, int64Args(q.ExcludeAccountIDs)...)
		if repost {
			sb.WriteString(` AND r.account_id NOT IN (` + ph + `)`)
			args = append(args, int64Args(q.ExcludeAccountIDs)...)
		}
	}

	if len(q.ExcludeDomainHashes) > 0 {
		ph := placeholders(len(q.ExcludeDomainHashes))
		sb.WriteString(` AND a.domain_hash NOT IN (` + ph + `)`)
		args = append(args, stringArgs(q.ExcludeDomainHashes)...)
		if repost {
			sb.WriteString(` AND rb.domain_hash NOT IN (` + ph + `)`)
			args = append(args, stringArgs(q.ExcludeDomainHashes)...)
		}
	}

	if q.Before != nil {
		// Resume strictly after the last returned position. Sort keys are
		// fixed-width UTC text, so < compares chronologically.
		key := formatTime(q.Before.SortKey)
		sb.WriteString(` AND (` + sortCol + ` < ? OR (` + sortCol + ` = ? AND p.id < ?))`)
		args = append(args, key, key, q.Before.ID)
	}

	return args
}

func scanFeedRow(sc scanner) (*models.FeedRow, error) {
	var kind, sortKey string
	var p models.Post
	var typ, publishedAt string
	var inReplyTo, threadRoot sql.NullInt64
	var a models.Account
	var aInternal int
	var aCreatedAt string
	var aDisabledAt sql.NullString

	var rbID sql.NullInt64
	var rbApID, rbUsername, rbDomain, rbName, rbBio, rbAvatarURL, rbURL, rbCreatedAt sql.NullString
	var rbInternal sql.NullInt64
	var rbDisabledAt sql.NullString

	err := sc.Scan(&kind, &sortKey,
		&p.ID, &p.ApID, &p.AuthorID, &typ, &p.Title, &p.Excerpt, &p.Content, &p.URL, &publishedAt,
		&p.LikeCount, &p.ReplyCount, &p.RepostCount, &inReplyTo, &threadRoot,
		&a.ID, &a.ApID, &a.Username, &a.Domain, &aInternal, &a.Name, &a.Bio, &a.AvatarURL, &a.URL, &aCreatedAt, &aDisabledAt,
		&rbID, &rbApID, &rbUsername, &rbDomain, &rbInternal, &rbName, &rbBio, &rbAvatarURL, &rbURL, &rbCreatedAt, &rbDisabledAt)
	if err != nil {
		return nil, fmt.Errorf("scan feed row: %w", err)
	}

	p.Type = models.PostType(typ)
	p.PublishedAt = parseTime(publishedAt)
	if inReplyTo.Valid {
		p.InReplyTo = &inReplyTo.Int64
	}
	if threadRoot.Valid {
		p.ThreadRoot = &threadRoot.Int64
	}

	a.Internal = aInternal == 1
	a.CreatedAt = parseTime(aCreatedAt)
	if aDisabledAt.Valid {
		t := parseTime(aDisabledAt.String)
		a.DisabledAt = &t
	}

	fr := &models.FeedRow{
		Kind:   models.FeedRowKind(kind),
		Post:   &p,
		Author: &a,
	}

	if fr.Kind == models.FeedRowRepost && rbID.Valid {
		rb := &models.Account{
			ID:        rbID.Int64,
			ApID:      rbApID.String,
			Username:  rbUsername.String,
			Domain:    rbDomain.String,
			Internal:  rbInternal.Int64 == 1,
			Name:      rbName.String,
			Bio:       rbBio.String,
			AvatarURL: rbAvatarURL.String,
			URL:       rbURL.String,
			CreatedAt: parseTime(rbCreatedAt.String),
		}
		if rbDisabledAt.Valid {
			t := parseTime(rbDisabledAt.String)
			rb.DisabledAt = &t
		}
		repostedAt := parseTime(sortKey)
		fr.RepostedBy = rb
		fr.RepostedAt = &repostedAt
	}

	return fr, nil
}
