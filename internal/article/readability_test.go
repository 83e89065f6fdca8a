package article

import (
	"strings"
	"testing"
)

const sampleArticle = `<!doctype html>
<html><head><title>How Bridges Stand Up</title>
<style>p { color: red }</style><script>var tracking = "x";</script></head>
<body>
<header><nav><a href="/">Home</a> <a href="/about">About</a></nav></header>
<div class="sidebar"><ul><li><a href="/a">Related story one</a></li><li><a href="/b">Related story two</a></li></ul></div>
<article class="post-content">
  <h1>How Bridges Stand Up</h1>
  <p>Bridges carry loads by moving forces into the ground, through a mix of tension and compression.</p>
  <p>An arch bridge pushes outward on its supports, so the abutments must resist that thrust &amp; stay put.</p>
  <p>Suspension bridges hang the deck from cables, which are anchored at each end of the span.</p>
</article>
<footer><p>Copyright 2024 Example Media, all rights reserved worldwide.</p></footer>
</body></html>`

func TestExtractReadable(t *testing.T) {
	r, err := ExtractReadable(strings.NewReader(sampleArticle))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "How Bridges Stand Up" {
		t.Errorf("unexpected title %q", r.Title)
	}

	paras := strings.Split(r.Text, "\n\n")
	if len(paras) != 4 {
		t.Fatalf("expected heading + 3 paragraphs, got %d: %q", len(paras), paras)
	}
	if !strings.Contains(paras[2], "thrust & stay put") {
		t.Errorf("entity not decoded: %q", paras[2])
	}
	for _, bad := range []string{"tracking", "Related story", "Copyright", "Home"} {
		if strings.Contains(r.Text, bad) {
			t.Errorf("boilerplate %q leaked into text", bad)
		}
	}
}

func TestExtractReadableNoParagraphs(t *testing.T) {
	doc := `<html><body><div>Short.</div><div>This loose text is long enough to count as a paragraph.</div></body></html>`
	r, err := ExtractReadable(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Text != "This loose text is long enough to count as a paragraph." {
		t.Errorf("unexpected text %q", r.Text)
	}
}

func TestExtractReadableChunks(t *testing.T) {
	r, err := ExtractReadable(strings.NewReader(sampleArticle))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chunks, err := Chunk(r.Text)
	if err != nil {
		t.Fatalf("unexpected chunk error: %v", err)
	}
	if len(chunks) != 4 {
		t.Errorf("expected 4 chunks, got %d", len(chunks))
	}
}
