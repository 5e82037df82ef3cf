// Package models defines the relational entities and the viewer-scoped
// output shapes (DTOs) shared by the feed and thread services.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// PostType distinguishes short notes from long-form articles.
type PostType string

const (
	PostTypeNote    PostType = "Note"
	PostTypeArticle PostType = "Article"
)

// FeedType selects which timeline a viewer is looking at.
// The feed shows everything followed accounts publish or repost;
// the reader is restricted to long-form articles.
type FeedType string

const (
	FeedTypeFeed   FeedType = "feed"
	FeedTypeReader FeedType = "reader"
)

// Account is a local or remote actor. Accounts are created on first
// federation contact or local provisioning and are never deleted
// (soft-disabled at most).
type Account struct {
	ID         int64
	ApID       string // federated identity URI
	Username   string
	Domain     string
	Internal   bool // locally hosted, as opposed to a remote account
	Name       string
	Bio        string
	AvatarURL  string
	URL        string
	CreatedAt  time.Time
	DisabledAt *time.Time
}

// Handle returns the fediverse-style handle, e.g. "@alice@example.com".
func (a *Account) Handle() string {
	return "@" + a.Username + "@" + a.Domain
}

// DomainHash returns the hash under which this account's domain is matched
// against domain blocks.
func (a *Account) DomainHash() string {
	return HashDomain(a.Domain)
}

// HashDomain hashes a domain for domain-block matching. Domains are
// case-insensitive per RFC 4343, so the input is lowercased first.
func HashDomain(domain string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(domain)))
	return hex.EncodeToString(sum[:])
}

// Post is a published note or article. Content is immutable after creation
// except via an explicit federated Update. The denormalized counters are
// mutated only by the interaction-recording write paths, never by the
// feed/thread read core.
type Post struct {
	ID          int64
	ApID        string // federated object URI
	AuthorID    int64
	Type        PostType
	Title       string
	Excerpt     string
	Content     string
	URL         string
	PublishedAt time.Time
	LikeCount   int
	ReplyCount  int
	RepostCount int

	// InReplyTo points at the direct parent post. When it is set,
	// ThreadRoot is set too and names the ultimate ancestor of the thread.
	InReplyTo  *int64
	ThreadRoot *int64
}

// IsReply reports whether the post is part of a thread rather than a root.
func (p *Post) IsReply() bool {
	return p.InReplyTo != nil
}

// Follow is a directed edge: follower sees what following publishes.
type Follow struct {
	FollowerID  int64
	FollowingID int64
	CreatedAt   time.Time
}

// Repost is a reference to an existing post, not a copy. One row per
// (account, post) pair; CreatedAt is the repost's feed sort key.
type Repost struct {
	AccountID int64
	PostID    int64
	CreatedAt time.Time
}

// Like is a unique (account, post) pair.
type Like struct {
	AccountID int64
	PostID    int64
	CreatedAt time.Time
}

// Block is a one-directional visibility suppression of blocked by blocker.
type Block struct {
	BlockerID int64
	BlockedID int64
	CreatedAt time.Time
}

// DomainBlock suppresses every account resolving to the hashed domain.
type DomainBlock struct {
	BlockerID  int64
	DomainHash string
	CreatedAt  time.Time
}
