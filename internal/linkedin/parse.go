package linkedin

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// voyagerPage is the envelope shape shared by the voyager collection
// endpoints: elements plus an included-entity sidecar plus paging metadata.
type voyagerPage struct {
	Elements []json.RawMessage `json:"elements"`
	Included []included `json:"included"`
	Paging   struct {
		Start int `json:"start"`
		Count int `json:"count"`
		Total int `json:"total"`
	} `json:"paging"`
	Metadata struct {
		PaginationToken string `json:"paginationToken"`
	} `json:"metadata"`
}

type included struct {
	EntityURN        string `json:"entityUrn"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	PublicIdentifier string `json:"publicIdentifier"`
	Occupation       string `json:"occupation"`
}

type reactionElement struct {
	ReactionType string `json:"reactionType"`
	ActorURN     string `json:"actorUrn"`
}

type commentElement struct {
	EntityURN  string `json:"entityUrn"`
	Commentary struct {
		Text string `json:"text"`
	} `json:"commentary"`
	CommenterProfileURN string `json:"commenterProfileUrn"`
	CreatedTime         int64  `json:"createdTime"`
}

type postElement struct {
	EntityURN  string `json:"entityUrn"`
	Commentary struct {
		Text struct {
			Text string `json:"text"`
		} `json:"text"`
	} `json:"commentary"`
	SocialDetail struct {
		TotalSocialActivityCounts struct {
			NumLikes    int `json:"numLikes"`
			NumComments int `json:"numComments"`
		} `json:"totalSocialActivityCounts"`
	} `json:"socialDetail"`
	CreatedAt int64 `json:"createdAt"`
}

func decodePage(body string) (*voyagerPage, error) {
	var page voyagerPage
	if err := sonic.UnmarshalString(body, &page); err != nil {
		return nil, fmt.Errorf("decode voyager page: %w", err)
	}
	return &page, nil
}

func (p *voyagerPage) profiles() map[string]included {
	out := make(map[string]included, len(p.Included))
	for _, inc := range p.Included {
		if inc.EntityURN != "" {
			out[inc.EntityURN] = inc
		}
	}
	return out
}

// ParseReactions decodes one reactions page, stitching reactor profiles in
// from the included sidecar. Returns the items and the next-page token.
func ParseReactions(body string) ([]Reaction, string, error) {
	page, err := decodePage(body)
	if err != nil {
		return nil, "", err
	}
	profiles := page.profiles()

	reactions := make([]Reaction, 0, len(page.Elements))
	for _, raw := range page.Elements {
		var el reactionElement
		if err := sonic.Unmarshal(raw, &el); err != nil {
			return nil, "", fmt.Errorf("decode reaction element: %w", err)
		}
		r := Reaction{Type: el.ReactionType, ProfileURN: el.ActorURN}
		if profile, ok := profiles[el.ActorURN]; ok {
			r.FirstName = profile.FirstName
			r.LastName = profile.LastName
			r.PublicIdentifier = profile.PublicIdentifier
			r.Headline = profile.Occupation
		}
		reactions = append(reactions, r)
	}
	return reactions, page.Metadata.PaginationToken, nil
}

// ParseComments decodes one comments page. Comment HTML is sanitized down
// to plain text.
func ParseComments(body string) ([]Comment, string, error) {
	page, err := decodePage(body)
	if err != nil {
		return nil, "", err
	}
	profiles := page.profiles()

	comments := make([]Comment, 0, len(page.Elements))
	for _, raw := range page.Elements {
		var el commentElement
		if err := sonic.Unmarshal(raw, &el); err != nil {
			return nil, "", fmt.Errorf("decode comment element: %w", err)
		}
		c := Comment{
			URN:       el.EntityURN,
			Text:      SanitizeText(el.Commentary.Text),
			AuthorURN: el.CommenterProfileURN,
		}
		if el.CreatedTime > 0 {
			c.CreatedAt = time.UnixMilli(el.CreatedTime).UTC()
		}
		if profile, ok := profiles[el.CommenterProfileURN]; ok {
			c.AuthorName = strings.TrimSpace(profile.FirstName + " " + profile.LastName)
		}
		comments = append(comments, c)
	}
	return comments, page.Metadata.PaginationToken, nil
}

// ParsePosts decodes one member-shares page.
func ParsePosts(body string) ([]Post, string, error) {
	page, err := decodePage(body)
	if err != nil {
		return nil, "", err
	}

	posts := make([]Post, 0, len(page.Elements))
	for _, raw := range page.Elements {
		var el postElement
		if err := sonic.Unmarshal(raw, &el); err != nil {
			return nil, "", fmt.Errorf("decode post element: %w", err)
		}
		p := Post{
			URN:      el.EntityURN,
			Text:     SanitizeText(el.Commentary.Text.Text),
			Likes:    el.SocialDetail.TotalSocialActivityCounts.NumLikes,
			Comments: el.SocialDetail.TotalSocialActivityCounts.NumComments,
		}
		if el.CreatedAt > 0 {
			p.CreatedAt = time.UnixMilli(el.CreatedAt).UTC()
		}
		posts = append(posts, p)
	}
	return posts, page.Metadata.PaginationToken, nil
}
