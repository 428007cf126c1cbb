package sentiment

import (
	"slices"
	"testing"

	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(DefaultLexicon())
}

func TestScoreNegativeBugReport(t *testing.T) {
	r := newTestAnalyzer().Score("This system crashes constantly and the bug is never fixed.")
	if r.Sentiment != feedback.SentimentNegative {
		t.Errorf("expected negative, got %s", r.Sentiment)
	}
	if r.Score >= 0 {
		t.Errorf("expected score < 0, got %v", r.Score)
	}
	if r.Breakdown.LexiconScore != -1 {
		t.Errorf("expected lexicon score -1, got %v", r.Breakdown.LexiconScore)
	}
}

func TestScorePositivePraise(t *testing.T) {
	r := newTestAnalyzer().Score("Excellent work, the team delivered outstanding results, highly recommend this approach.")
	if r.Sentiment != feedback.SentimentPositive {
		t.Errorf("expected positive, got %s", r.Sentiment)
	}
	if r.Score <= 0 || r.Score > 1 {
		t.Errorf("expected score in (0,1], got %v", r.Score)
	}
	// intensified lexicon score would exceed 1 without clamping
	if r.Breakdown.LexiconScore != 1 {
		t.Errorf("expected clamped lexicon score 1, got %v", r.Breakdown.LexiconScore)
	}
	if r.Breakdown.PatternScore != 0.8 {
		t.Errorf("expected pattern score 0.8, got %v", r.Breakdown.PatternScore)
	}
}

func TestScoreNoSignal(t *testing.T) {
	r := newTestAnalyzer().Score("The meeting happened on Tuesday afternoon.")
	if r.Score != 0 || r.Confidence != 0 {
		t.Errorf("expected zero score and confidence, got %v / %v", r.Score, r.Confidence)
	}
	if r.Sentiment != feedback.SentimentNeutral {
		t.Errorf("expected neutral, got %s", r.Sentiment)
	}
}

func TestScoreNegation(t *testing.T) {
	r := newTestAnalyzer().Score("The rollout was not good.")
	if r.Sentiment != feedback.SentimentNegative {
		t.Errorf("expected negated praise to be negative, got %s (%v)", r.Sentiment, r.Score)
	}
}

func TestScoreMixed(t *testing.T) {
	r := newTestAnalyzer().Score("great and fair service if it gets worse than before maybe")
	if r.Sentiment != feedback.SentimentMixed {
		t.Errorf("expected mixed, got %s (score %v, breakdown %+v)", r.Sentiment, r.Score, r.Breakdown)
	}
}

func TestContextScore(t *testing.T) {
	cases := []struct {
		text      string
		wantScore float64
		wantConf  float64
	}{
		{"it is clearly better now", 0.6, 0.2},
		{"if the tool declined less often", -0.5, 0.2},
		{"plain statement here", 0, 0},
		{"ok", 0, 0},
	}
	for _, c := range cases {
		s, conf := contextScore(c.text)
		if round3(s) != c.wantScore || round3(conf) != c.wantConf {
			t.Errorf("contextScore(%q) = %v, %v; want %v, %v", c.text, s, conf, c.wantScore, c.wantConf)
		}
	}
}

func TestPatternScore(t *testing.T) {
	s, conf := patternScore("we found a serious problem and the data show a failure in deployment")
	// two negative matches and one neutral match
	if round3(s) != round3(-1.6/3) {
		t.Errorf("unexpected pattern score %v", s)
	}
	if conf != 0.3 {
		t.Errorf("expected confidence 0.3, got %v", conf)
	}
}

func TestScoreRanges(t *testing.T) {
	a := newTestAnalyzer()
	texts := []string{
		"extremely excellent extremely outstanding extremely brilliant",
		"absolutely terrible, completely broken, totally unacceptable",
		"not bad not poor not awful",
		"",
	}
	for _, text := range texts {
		r := a.Score(text)
		if r.Score < -1 || r.Score > 1 {
			t.Errorf("score out of range for %q: %v", text, r.Score)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			t.Errorf("confidence out of range for %q: %v", text, r.Confidence)
		}
	}
}

func TestKeyPhrasesAndEmotions(t *testing.T) {
	r := newTestAnalyzer().Score("Very helpful staff, but a major issue with billing. I am frustrated and Disappointed but hopeful.")
	if !slices.Equal(r.KeyPhrases, []string{"Very helpful", "major issue"}) {
		t.Errorf("unexpected key phrases %v", r.KeyPhrases)
	}
	want := []string{"frustrated", "disappointed", "hopeful"}
	if !slices.Equal(r.EmotionalIndicators, want) {
		t.Errorf("expected %v, got %v", want, r.EmotionalIndicators)
	}
}

func TestAnalyzeBatch(t *testing.T) {
	a := newTestAnalyzer()
	b := a.Analyze([]feedback.CleanedDocument{
		{ID: "a", Content: "Great onboarding experience."},
		{ID: "b", Content: "   "},
	})
	if len(b.Accepted) != 1 || b.Accepted[0].DocumentID != "a" {
		t.Fatalf("expected only 'a' accepted, got %s", b.Summary())
	}
	if len(b.Rejected) != 1 || b.Rejected[0].ID != "b" {
		t.Errorf("expected 'b' rejected, got %v", b.Rejected)
	}

	empty := a.Analyze(nil)
	if len(empty.Accepted) != 0 || len(empty.Rejected) != 0 {
		t.Errorf("expected empty batch, got %s", empty.Summary())
	}
}

func TestLexiconCounts(t *testing.T) {
	counts := DefaultLexicon().Counts()
	if counts["positive_words"] != 40 {
		t.Errorf("expected 40 positive words, got %d", counts["positive_words"])
	}
	if counts["intensifiers"] != 12 || counts["negators"] != 7 {
		t.Errorf("unexpected counts %v", counts)
	}
}
