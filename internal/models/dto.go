package models

import "time"

// SanitizeFunc cleans untrusted HTML before it is emitted in a DTO.
// The concrete policy lives in the sanitize package; the mapper takes a
// function so it stays a pure projection with no package dependencies.
type SanitizeFunc func(string) string

// AccountDTO is the author/reposter sub-object embedded in a PostDTO.
type AccountDTO struct {
	ID           int64  `json:"id"`
	Handle       string `json:"handle"`
	Name         string `json:"name"`
	AvatarURL    string `json:"avatarUrl"`
	URL          string `json:"url"`
	FollowedByMe bool   `json:"followedByMe"`
}

// PostDTO is the flat, JSON-serializable projection of a feed or thread row.
// The four *ByMe flags are relative to the requesting viewer and are never
// cached across requests.
type PostDTO struct {
	ID          int64      `json:"id"`
	ApID        string     `json:"apId"`
	Type        PostType   `json:"type"`
	Title       string     `json:"title,omitempty"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Content     string     `json:"content"`
	URL         string     `json:"url"`
	PublishedAt time.Time  `json:"publishedAt"`
	LikeCount   int        `json:"likeCount"`
	ReplyCount  int        `json:"replyCount"`
	RepostCount int        `json:"repostCount"`
	Author      AccountDTO `json:"author"`

	RepostedBy *AccountDTO `json:"repostedBy,omitempty"`
	RepostedAt *time.Time  `json:"repostedAt,omitempty"`

	LikedByMe    bool `json:"likedByMe"`
	RepostedByMe bool `json:"repostedByMe"`
	FollowedByMe bool `json:"followedByMe"`
	AuthoredByMe bool `json:"authoredByMe"`
}

// ViewerFlags carries the viewer-relative facts the mapper cannot derive
// from the row itself. Callers compute them from the viewer's like, repost
// and follow sets.
type ViewerFlags struct {
	Liked           bool
	Reposted        bool
	FollowsAuthor   bool
	FollowsReposter bool
}

// NewAccountDTO projects an account into its embedded DTO form.
func NewAccountDTO(a *Account, followedByMe bool) AccountDTO {
	return AccountDTO{
		ID:           a.ID,
		Handle:       a.Handle(),
		Name:         a.Name,
		AvatarURL:    a.AvatarURL,
		URL:          a.URL,
		FollowedByMe: followedByMe,
	}
}

// NewPostDTO projects a joined row into the stable output shape. It performs
// no I/O and no filtering, which keeps it unit-testable against literal row
// fixtures. Post content and excerpts are remote/user input and pass through
// the sanitizer; titles are plain text and do not.
func NewPostDTO(row *FeedRow, viewerID int64, flags ViewerFlags, sanitize SanitizeFunc) PostDTO {
	p := row.Post
	dto := PostDTO{
		ID:          p.ID,
		ApID:        p.ApID,
		Type:        p.Type,
		Title:       p.Title,
		Excerpt:     sanitize(p.Excerpt),
		Content:     sanitize(p.Content),
		URL:         p.URL,
		PublishedAt: p.PublishedAt,
		LikeCount:   p.LikeCount,
		ReplyCount:  p.ReplyCount,
		RepostCount: p.RepostCount,

		Author: NewAccountDTO(row.Author, flags.FollowsAuthor),

		LikedByMe:    flags.Liked,
		RepostedByMe: flags.Reposted,
		FollowedByMe: flags.FollowsAuthor,
		AuthoredByMe: p.AuthorID == viewerID,
	}

	if row.Kind == FeedRowRepost && row.RepostedBy != nil {
		reposter := NewAccountDTO(row.RepostedBy, flags.FollowsReposter)
		dto.RepostedBy = &reposter
		dto.RepostedAt = row.RepostedAt
	}

	return dto
}
