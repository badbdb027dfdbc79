package markup

import (
	"strings"
	"testing"
)

func TestStrip(t *testing.T) {
	tests := []struct{ in, want string }{
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"plain text", "plain text"},
		{"", ""},
		{"<p>a</p><p>b</p>", "a b"},
		{"  lots\n\nof\twhitespace  ", "lots of whitespace"},
		{"&amp; &lt;tags&gt;", "& <tags>"},
		{`<script>alert("x")</script>visible`, "visible"},
		{"<style>p { color: red }</style>visible", "visible"},
		{`<img src="x.jpg" alt="pic">caption`, "caption"},
	}
	for _, tt := range tests {
		if got := Strip(tt.in); got != tt.want {
			t.Errorf("Strip(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("<p>short</p>", 100); got != "short" {
		t.Fatalf("Excerpt = %q", got)
	}
	got := Excerpt("<p>one two three four five</p>", 12)
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("Excerpt = %q, want ellipsis", got)
	}
	if strings.Contains(got, "thr") && !strings.Contains(got, "three") {
		t.Fatalf("Excerpt = %q, cut mid-word", got)
	}
	if len([]rune(got)) > 13 {
		t.Fatalf("Excerpt = %q, too long", got)
	}
}
