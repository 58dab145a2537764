package linkedin

import "time"

// Reaction is one reaction on a post, with the reactor's profile stitched
// in from the voyager included-entity sidecar.
type Reaction struct {
	Type             string `json:"type"`
	ProfileURN       string `json:"profile_urn"`
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	PublicIdentifier string `json:"public_identifier,omitempty"`
	Headline         string `json:"headline,omitempty"`
}

// Comment is one comment on a post.
type Comment struct {
	URN        string    `json:"urn"`
	Text       string    `json:"text"`
	AuthorURN  string    `json:"author_urn,omitempty"`
	AuthorName string    `json:"author_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Post is one feed update authored by a profile.
type Post struct {
	URN       string    `json:"urn"`
	Text      string    `json:"text"`
	Likes     int       `json:"likes"`
	Comments  int       `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
}

// PostMeta is the OpenGraph metadata of a public post page.
type PostMeta struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// PublicPost is a post as read from its public permalink page, the HTML
// fallback for callers without voyager access.
type PublicPost struct {
	URN         string `json:"urn"`
	Text        string `json:"text"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Source-imposed page sizes. Voyager rejects larger counts on these
// endpoints rather than clamping them.
const (
	ReactionsPageSize = 10
	CommentsPageSize  = 20
	PostsPageSize     = 20
)
