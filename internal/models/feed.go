package models

import "time"

// FeedRowKind tags the source a feed row came from.
type FeedRowKind string

const (
	FeedRowOriginal FeedRowKind = "original"
	FeedRowRepost   FeedRowKind = "repost"
)

// FeedRow is one candidate timeline entry before DTO projection: either an
// original post or a repost reference, joined with the accounts needed to
// render it. Modeling the two sources as a tagged union keeps the
// merge-sort and moderation code free of ad hoc nullable fields.
type FeedRow struct {
	Kind   FeedRowKind
	Post   *Post
	Author *Account

	// RepostedBy and RepostedAt are set only when Kind == FeedRowRepost.
	RepostedBy *Account
	RepostedAt *time.Time
}

// SortKey is the timestamp the row is merge-sorted on: the publish time for
// originals, the repost time for reposts. Ties are broken by post id
// descending; that tie-break is what makes pagination cursors reproducible.
func (r *FeedRow) SortKey() time.Time {
	if r.Kind == FeedRowRepost && r.RepostedAt != nil {
		return *r.RepostedAt
	}
	return r.Post.PublishedAt
}
