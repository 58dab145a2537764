package linkedin

import (
	"fmt"
	"net/url"
	"strconv"
)

// URLs builds voyager endpoint URLs. Offsets and counts map to the API's
// start/count paging params; the pagination token, when present, is
// threaded through verbatim.
type URLs struct {
	base string
}

// NewURLs creates a URL builder rooted at base (e.g. https://www.linkedin.com).
func NewURLs(base string) *URLs {
	return &URLs{base: base}
}

// Reactions returns the reactions endpoint for a post thread.
func (u *URLs) Reactions(threadURN string, start, count int) string {
	q := url.Values{}
	q.Set("q", "reactionType")
	q.Set("threadUrn", threadURN)
	q.Set("start", strconv.Itoa(start))
	q.Set("count", strconv.Itoa(count))
	return fmt.Sprintf("%s/voyager/api/feed/reactions?%s", u.base, q.Encode())
}

// Comments returns the comments endpoint for a post thread.
func (u *URLs) Comments(threadURN string, start, count int, token string) string {
	q := url.Values{}
	q.Set("q", "comments")
	q.Set("sortOrder", "CHRONOLOGICAL")
	q.Set("threadUrn", threadURN)
	q.Set("start", strconv.Itoa(start))
	q.Set("count", strconv.Itoa(count))
	if token != "" {
		q.Set("paginationToken", token)
	}
	return fmt.Sprintf("%s/voyager/api/feed/comments?%s", u.base, q.Encode())
}

// Posts returns the member-shares feed endpoint for a profile.
func (u *URLs) Posts(profileURN string, start, count int, token string) string {
	q := url.Values{}
	q.Set("q", "memberShareFeed")
	q.Set("profileUrn", profileURN)
	q.Set("moduleKey", "member-shares:phone")
	q.Set("start", strconv.Itoa(start))
	q.Set("count", strconv.Itoa(count))
	if token != "" {
		q.Set("paginationToken", token)
	}
	return fmt.Sprintf("%s/voyager/api/identity/profileUpdatesV2?%s", u.base, q.Encode())
}

// PublicPost returns the public permalink of a post for HTML fallback.
func (u *URLs) PublicPost(activityURN string) string {
	return fmt.Sprintf("%s/feed/update/%s/", u.base, url.PathEscape(activityURN))
}
