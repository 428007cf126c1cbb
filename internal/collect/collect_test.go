package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TobiSchelling/feedbacklens/internal/config"
)

func TestLoadFormats(t *testing.T) {
	cases := []struct {
		name  string
		input string
		ids   []string
	}{
		{"array", `[{"id":"a","content":"one"},{"id":"b","content":"two"}]`, []string{"a", "b"}},
		{"object", `{"id":"a","content":"one","metadata":{"team":"ops"}}`, []string{"a"}},
		{"ndjson", "{\"id\":\"a\",\"content\":\"one\"}\n\n{\"id\":\"b\",\"content\":\"two\"}\n", []string{"a", "b"}},
		{"ndjson with bad line", "{\"id\":\"a\",\"content\":\"one\"}\nnot json\n{\"id\":\"c\",\"content\":\"three\"}", []string{"a", "c"}},
		{"empty", "   \n", nil},
	}
	for _, c := range cases {
		docs, err := Load(strings.NewReader(c.input))
		if err != nil {
			t.Errorf("%s: unexpected error %v", c.name, err)
			continue
		}
		if len(docs) != len(c.ids) {
			t.Errorf("%s: expected %d docs, got %d", c.name, len(c.ids), len(docs))
			continue
		}
		for i, id := range c.ids {
			if docs[i].ID != id {
				t.Errorf("%s: doc %d id = %q, want %q", c.name, i, docs[i].ID, id)
			}
		}
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(strings.NewReader(`[{"id": 1`)); err == nil {
		t.Error("expected error for broken array")
	}
	if _, err := Load(strings.NewReader("garbage\nmore garbage")); err == nil {
		t.Error("expected error when no line parses")
	}
}

func TestLoadSubmittedAtAndHTML(t *testing.T) {
	input := `[{"id":"a","content":"<p>Hello <b>there</b></p><p>friend</p>","content_type":"text/html","submitted_at":"2024-05-01T10:00:00Z"}]`
	docs, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if docs[0].SubmittedAt == nil || docs[0].SubmittedAt.Year() != 2024 {
		t.Errorf("expected parsed timestamp, got %v", docs[0].SubmittedAt)
	}
	if docs[0].Content != "Hello there friend" {
		t.Errorf("expected html reduced to text, got %q", docs[0].Content)
	}
}

func TestHTMLText(t *testing.T) {
	got, err := HTMLText(`<html><head><title>x</title><style>p{}</style></head><body><h1>Title</h1><script>alert(1)</script><p>Body text.</p></body></html>`)
	if err != nil {
		t.Fatalf("HTMLText: %v", err)
	}
	if got != "Title Body text." {
		t.Errorf("unexpected text %q", got)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "peer_notes.txt")
	os.WriteFile(txt, []byte("The review process was slow."), 0o644)
	page := filepath.Join(dir, "survey.html")
	os.WriteFile(page, []byte("<body><p>Survey answer</p></body>"), 0o644)
	js := filepath.Join(dir, "batch.json")
	os.WriteFile(js, []byte(`[{"id":"x","content":"hi"}]`), 0o644)

	docs, err := LoadFile(txt)
	if err != nil || len(docs) != 1 {
		t.Fatalf("LoadFile txt: %v, %d docs", err, len(docs))
	}
	if docs[0].ID != "peer_notes" || docs[0].Filename != "peer_notes.txt" {
		t.Errorf("unexpected id/filename %q/%q", docs[0].ID, docs[0].Filename)
	}

	docs, err = LoadFile(page)
	if err != nil || docs[0].Content != "Survey answer" {
		t.Errorf("LoadFile html: %v, %+v", err, docs)
	}

	docs, err = LoadFile(js)
	if err != nil || len(docs) != 1 || docs[0].ID != "x" {
		t.Errorf("LoadFile json: %v, %+v", err, docs)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

const testFeed = `<?xml version="1.0"?>
<rss version="2.0">
<channel>
<title>Support Feedback</title>
<item>
  <title>Export broken</title>
  <link>https://example.com/fb/1</link>
  <description>&lt;p&gt;The export &lt;b&gt;fails&lt;/b&gt; every time.&lt;/p&gt;</description>
  <pubDate>Mon, 06 May 2024 10:00:00 GMT</pubDate>
</item>
<item>
  <title>Great onboarding</title>
  <link>https://example.com/fb/2</link>
</item>
<item>
  <title>No link here</title>
</item>
</channel>
</rss>`

func TestFeedParser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	fp := NewFeedParser([]FeedConfig{{URL: srv.URL, Name: "support"}, {URL: "http://127.0.0.1:0/none"}}, 5)
	docs := fp.ParseAll(context.Background())
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	first := docs[0]
	if first.Content != "Export broken. The export fails every time." {
		t.Errorf("unexpected content %q", first.Content)
	}
	if first.URL != "https://example.com/fb/1" || first.Metadata["feed"] != "support" {
		t.Errorf("unexpected url/metadata %q %v", first.URL, first.Metadata)
	}
	if first.SubmittedAt == nil {
		t.Error("expected submitted_at from pubDate")
	}
	if first.ID == "" || first.ID == docs[1].ID {
		t.Errorf("expected stable distinct ids, got %q and %q", first.ID, docs[1].ID)
	}

	again := fp.ParseAll(context.Background())
	if again[0].ID != first.ID {
		t.Error("expected the same item to keep its id across runs")
	}

	capped := NewFeedParser([]FeedConfig{{URL: srv.URL}}, 1).ParseAll(context.Background())
	if len(capped) != 1 {
		t.Errorf("expected cap of 1, got %d", len(capped))
	}
}

func TestExtractSourceName(t *testing.T) {
	cases := map[string]string{
		"https://blog.example.com/feed.xml": "Example",
		"https://www.acme.io/rss":           "Acme",
		"https://localhost/rss":             "Localhost",
	}
	for in, want := range cases {
		if got := extractSourceName(in); got != want {
			t.Errorf("extractSourceName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCollector(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.json")
	os.WriteFile(good, []byte(`{"id":"a","content":"text"}`), 0o644)

	c := NewCollector(&config.Config{})
	docs, res := c.Collect(context.Background(), []string{good, filepath.Join(dir, "nope.json")}, true)
	if len(docs) != 1 || res.TotalFound != 1 {
		t.Errorf("expected 1 document, got %d", len(docs))
	}
	if res.FilesFailed != 1 {
		t.Errorf("expected 1 failed file, got %d", res.FilesFailed)
	}
}
