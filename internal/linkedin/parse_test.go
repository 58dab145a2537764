package linkedin

import (
	"testing"
	"time"
)

const reactionsPage = `{
  "elements": [
    {"reactionType": "LIKE", "actorUrn": "urn:li:fsd_profile:AAA"},
    {"reactionType": "PRAISE", "actorUrn": "urn:li:fsd_profile:BBB"},
    {"reactionType": "EMPATHY", "actorUrn": "urn:li:fsd_profile:CCC"}
  ],
  "included": [
    {"entityUrn": "urn:li:fsd_profile:AAA", "firstName": "Ada", "lastName": "Lovelace", "publicIdentifier": "ada-lovelace", "occupation": "Analyst"},
    {"entityUrn": "urn:li:fsd_profile:BBB", "firstName": "Alan", "lastName": "Turing", "publicIdentifier": "alan-turing", "occupation": "Mathematician"}
  ],
  "paging": {"start": 0, "count": 10, "total": 3},
  "metadata": {"paginationToken": "next-abc"}
}`

func TestParseReactions(t *testing.T) {
	reactions, token, err := ParseReactions(reactionsPage)
	if err != nil {
		t.Fatalf("ParseReactions failed: %v", err)
	}
	if token != "next-abc" {
		t.Errorf("token %q, want next-abc", token)
	}
	if len(reactions) != 3 {
		t.Fatalf("expected 3 reactions, got %d", len(reactions))
	}

	first := reactions[0]
	if first.Type != "LIKE" || first.FirstName != "Ada" || first.PublicIdentifier != "ada-lovelace" {
		t.Errorf("profile not stitched: %+v", first)
	}
	if first.Headline != "Analyst" {
		t.Errorf("headline not mapped: %q", first.Headline)
	}

	// The third actor has no included profile; the urn alone survives.
	third := reactions[2]
	if third.ProfileURN != "urn:li:fsd_profile:CCC" || third.FirstName != "" {
		t.Errorf("unmatched actor handled wrong: %+v", third)
	}
}

const commentsPage = `{
  "elements": [
    {
      "entityUrn": "urn:li:comment:(urn:li:activity:7210001,111)",
      "commentary": {"text": "Great post, <a href=\"https://spam.example\">click here</a>!"},
      "commenterProfileUrn": "urn:li:fsd_profile:AAA",
      "createdTime": 1718000000000
    }
  ],
  "included": [
    {"entityUrn": "urn:li:fsd_profile:AAA", "firstName": "Ada", "lastName": "Lovelace"}
  ],
  "paging": {"start": 0, "count": 20, "total": 1},
  "metadata": {"paginationToken": ""}
}`

func TestParseComments(t *testing.T) {
	comments, token, err := ParseComments(commentsPage)
	if err != nil {
		t.Fatalf("ParseComments failed: %v", err)
	}
	if token != "" {
		t.Errorf("expected empty token on the last page, got %q", token)
	}
	if len(comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(comments))
	}

	c := comments[0]
	if c.Text != "Great post, click here!" {
		t.Errorf("markup not sanitized: %q", c.Text)
	}
	if c.AuthorName != "Ada Lovelace" {
		t.Errorf("author not stitched: %q", c.AuthorName)
	}
	want := time.UnixMilli(1718000000000).UTC()
	if !c.CreatedAt.Equal(want) {
		t.Errorf("created_at %v, want %v", c.CreatedAt, want)
	}
}

const postsPage = `{
  "elements": [
    {
      "entityUrn": "urn:li:fsd_update:(urn:li:activity:7210002)",
      "commentary": {"text": {"text": "Shipping day."}},
      "socialDetail": {"totalSocialActivityCounts": {"numLikes": 42, "numComments": 7}},
      "createdAt": 1718100000000
    }
  ],
  "paging": {"start": 0, "count": 20, "total": 1},
  "metadata": {"paginationToken": "posts-tok"}
}`

func TestParsePosts(t *testing.T) {
	posts, token, err := ParsePosts(postsPage)
	if err != nil {
		t.Fatalf("ParsePosts failed: %v", err)
	}
	if token != "posts-tok" {
		t.Errorf("token %q, want posts-tok", token)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	p := posts[0]
	if p.Text != "Shipping day." || p.Likes != 42 || p.Comments != 7 {
		t.Errorf("post fields wrong: %+v", p)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, _, err := ParseReactions("<html>rate limited</html>"); err == nil {
		t.Error("expected error for non-JSON reactions body")
	}
	if _, _, err := ParseComments("{"); err == nil {
		t.Error("expected error for truncated comments body")
	}
}

func TestParseEmptyPage(t *testing.T) {
	reactions, token, err := ParseReactions(`{"elements": [], "paging": {"start": 90, "count": 10, "total": 90}}`)
	if err != nil {
		t.Fatalf("empty page should parse: %v", err)
	}
	if len(reactions) != 0 || token != "" {
		t.Errorf("expected empty result, got %d items token %q", len(reactions), token)
	}
}
