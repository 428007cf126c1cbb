package clean

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

func TestNormalizeText(t *testing.T) {
	in := "Contact   me at jane.doe@example.com or see https://example.com/page?id=1 â€™ok\t\tthanks ★"
	got := NormalizeText(in)

	if strings.Contains(got, "@") || strings.Contains(got, "example.com") {
		t.Errorf("expected email and URL removed, got %q", got)
	}
	if strings.Contains(got, "★") {
		t.Errorf("expected unsupported symbol stripped, got %q", got)
	}
	if strings.Contains(got, "  ") {
		t.Errorf("expected whitespace collapsed, got %q", got)
	}
	if !strings.Contains(got, "'ok") {
		t.Errorf("expected mojibake repaired, got %q", got)
	}
}

func TestDedupeSentences(t *testing.T) {
	text := "The login page is slow. the login page is slow! Too short. Reports load fine now?"
	got, kept := DedupeSentences(text)
	want := "The login page is slow. Reports load fine now."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if kept != 2 {
		t.Errorf("expected 2 sentences kept, got %d", kept)
	}
}

func TestCleanDocument(t *testing.T) {
	c := NewCleaner(50)
	doc := feedback.Document{
		ID:      "doc-1",
		Content: `The "Release Train" process has a bottleneck in QA. The workflow needs an API2 upgrade.`,
	}
	cleaned, err := c.CleanDocument(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cleaned.ID != "doc-1" {
		t.Errorf("expected id preserved, got %q", cleaned.ID)
	}
	for _, want := range []string{"Release Train", "QA", "API2", "process", "workflow"} {
		if !slices.Contains(cleaned.Entities, want) {
			t.Errorf("expected entity %q in %v", want, cleaned.Entities)
		}
	}
	if slices.Contains(cleaned.Entities, "The") {
		t.Errorf("stopword leaked into entities: %v", cleaned.Entities)
	}
	if cleaned.Language != "en" {
		t.Errorf("expected en, got %q", cleaned.Language)
	}
	if cleaned.WordCount != 15 {
		t.Errorf("expected 15 words, got %d", cleaned.WordCount)
	}
	if cleaned.QualityScore <= 0 || cleaned.QualityScore > 1 {
		t.Errorf("quality out of range: %v", cleaned.QualityScore)
	}
	if !slices.Contains(cleaned.Notes, "Removed duplicate content") {
		t.Errorf("missing dedupe note: %v", cleaned.Notes)
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	c := NewCleaner(50)
	doc := feedback.Document{ID: "x", Content: "Great   support team!! Great support team. Response times improved a lot."}
	first, err := c.CleanDocument(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.CleanDocument(feedback.Document{ID: "x", Content: first.Content})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Content != second.Content {
		t.Errorf("cleaning not idempotent: %q vs %q", first.Content, second.Content)
	}
}

func TestCleanRejectsDocumentsWithoutSentences(t *testing.T) {
	c := NewCleaner(50)
	b := c.Clean([]feedback.Document{
		{ID: "short", Content: "ok. fine. yes."},
		{ID: "good", Content: "The dashboard is easy to use."},
	})
	if len(b.Accepted) != 1 || b.Accepted[0].ID != "good" {
		t.Fatalf("expected only 'good' accepted, got %s", b.Summary())
	}
	if b.Rejected[0].ID != "short" {
		t.Errorf("expected 'short' rejected, got %v", b.Rejected)
	}
	_, err := c.CleanDocument(feedback.Document{ID: "short", Content: "ok. fine."})
	if !errors.Is(err, feedback.ErrEmptyContent) {
		t.Errorf("expected ErrEmptyContent, got %v", err)
	}
}

func TestCleanEmptyInput(t *testing.T) {
	b := NewCleaner(50).Clean(nil)
	if len(b.Accepted) != 0 || len(b.Rejected) != 0 {
		t.Errorf("expected empty batch, got %s", b.Summary())
	}
}

func TestEntityCap(t *testing.T) {
	c := NewCleaner(3)
	cleaned, err := c.CleanDocument(feedback.Document{
		ID:      "cap",
		Content: "Alice Bob Carol Dave Erin Frank reviewed the release process carefully.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cleaned.Entities) != 3 {
		t.Errorf("expected 3 entities, got %v", cleaned.Entities)
	}
}

func TestQualityScoreBounds(t *testing.T) {
	cases := []struct{ cleaned, original string }{
		{"", "anything"},
		{"word", "word"},
		{"This is a well formed sentence, with punctuation and enough words to count.", "This is a well formed sentence, with punctuation and enough words to count."},
	}
	for _, c := range cases {
		q := QualityScore(c.cleaned, c.original)
		if q < 0 || q > 1 {
			t.Errorf("QualityScore(%q) = %v out of range", c.cleaned, q)
		}
	}
	if QualityScore("", "x") != 0 {
		t.Error("expected 0 for empty cleaned text")
	}
	// 0.2 length + 0.3 sentences + 0.2 diversity + 0.15 punctuation + 0.15 words
	full := "This is a well formed sentence, with punctuation and enough words to count."
	if q := QualityScore(full, full); q < 0.999 {
		t.Errorf("expected full score, got %v", q)
	}
}

func TestDetectLanguage(t *testing.T) {
	if DetectLanguage("The team is doing well with the rollout.") != "en" {
		t.Error("expected en")
	}
	if DetectLanguage("Lorem ipsum dolor sit amet consectetur") != "unknown" {
		t.Error("expected unknown")
	}
	if DetectLanguage("") != "unknown" {
		t.Error("expected unknown for empty text")
	}
}
