package linkedin

import (
	"strings"
	"testing"
)

const publicPostPage = `<!DOCTYPE html>
<html>
<head>
  <meta property="og:title" content="Ada Lovelace on LinkedIn" />
  <meta property="og:description" content="Shipping day." />
  <meta property="og:image" content="https://media.example/img.png" />
</head>
<body>
  <nav>navigation junk</nav>
  <article data-test-id="main-feed-activity-card">
    <p class="attributed-text-segment-list__content">
      Shipping day. Huge thanks to the team.
    </p>
  </article>
  <footer>footer junk</footer>
  <script>window.track()</script>
</body>
</html>`

func TestExtractPostText(t *testing.T) {
	text, err := ExtractPostText(publicPostPage)
	if err != nil {
		t.Fatalf("ExtractPostText failed: %v", err)
	}
	if !strings.Contains(text, "Shipping day") {
		t.Errorf("post body missing: %q", text)
	}
	if strings.Contains(text, "navigation") || strings.Contains(text, "track()") {
		t.Errorf("chrome leaked into the extraction: %q", text)
	}
}

func TestExtractPostTextMissing(t *testing.T) {
	if _, err := ExtractPostText("<html><body><div>nothing here</div></body></html>"); err == nil {
		t.Error("expected error when no post container is present")
	}
}

func TestExtractPostMeta(t *testing.T) {
	meta, err := ExtractPostMeta(publicPostPage)
	if err != nil {
		t.Fatalf("ExtractPostMeta failed: %v", err)
	}
	if meta.Title != "Ada Lovelace on LinkedIn" {
		t.Errorf("title %q", meta.Title)
	}
	if meta.Description != "Shipping day." {
		t.Errorf("description %q", meta.Description)
	}
	if meta.Image != "https://media.example/img.png" {
		t.Errorf("image %q", meta.Image)
	}
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"<b>bold</b> claim", "bold claim"},
		{"  padded  ", "padded"},
		{"<script>alert(1)</script>hi", "hi"},
	}
	for _, tt := range tests {
		if got := SanitizeText(tt.in); got != tt.want {
			t.Errorf("SanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
