package validate

import (
	"fmt"
	"log"
	"maps"
	"math"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/TobiSchelling/feedbacklens/internal/config"
	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

const agentVersion = "1.0.0"

var (
	sentenceEnd = regexp.MustCompile(`[.!?]+`)
	wordRe      = regexp.MustCompile(`\b\w+\b`)
)

var contentTypes = map[string]string{
	".txt":  "text/plain",
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".csv":  "text/csv",
	".json": "application/json",
	".html": "text/html",
	".htm":  "text/html",
}

var englishWords = toSet(
	"the", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with",
	"by", "from", "up", "about", "into", "through", "during", "before",
	"after", "above", "below", "between", "among", "is", "are", "was",
	"were", "be", "been", "being", "have", "has", "had", "do", "does",
	"did", "will", "would", "could", "should", "may", "might", "must",
	"can", "this", "that", "these", "those", "a", "an",
)

type sourceRule struct {
	terms  []string
	source feedback.Source
}

var filenameRules = []sourceRule{
	{[]string{"expert", "specialist", "review"}, feedback.SourceExpertReport},
	{[]string{"internal", "assessment"}, feedback.SourceInternalAssessment},
	{[]string{"peer", "colleague"}, feedback.SourcePeerReview},
	{[]string{"technical", "tech"}, feedback.SourceTechnicalReview},
	{[]string{"process", "procedure"}, feedback.SourceProcessEvaluation},
	{[]string{"quality", "audit"}, feedback.SourceQualityAudit},
}

var contentRules = []sourceRule{
	{[]string{"technical issue", "bug", "error", "system"}, feedback.SourceTechnicalReview},
	{[]string{"process", "procedure", "workflow"}, feedback.SourceProcessEvaluation},
	{[]string{"quality", "standard", "compliance"}, feedback.SourceQualityAudit},
	{[]string{"expert opinion", "specialist view"}, feedback.SourceExpertReport},
}

// Validator rejects malformed documents and enriches the rest with metadata.
type Validator struct {
	minLength     int
	maxLength     int
	minAlnumRatio float64
	now           func() time.Time
}

// NewValidator creates a validator from the validation config section.
func NewValidator(cfg config.Validation) *Validator {
	return &Validator{
		minLength:     cfg.MinLength,
		maxLength:     cfg.MaxLength,
		minAlnumRatio: cfg.MinAlnumRatio,
		now:           time.Now,
	}
}

// Validate checks every document and returns enriched copies of the valid ones.
func (v *Validator) Validate(docs []feedback.Document) feedback.Batch[feedback.Document] {
	var b feedback.Batch[feedback.Document]
	log.Printf("Validating %d documents", len(docs))

	for _, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		if err := v.check(doc); err != nil {
			log.Printf("Document %s failed validation: %v", doc.ID, err)
			b.Reject(doc.ID, err)
			continue
		}
		b.Accept(v.enrich(doc))
	}

	log.Printf("Validated %d out of %d documents", len(b.Accepted), len(docs))
	return b
}

func (v *Validator) check(doc feedback.Document) error {
	n := utf8.RuneCountInString(doc.Content)
	if n < v.minLength {
		return fmt.Errorf("%w: content too short: %d characters", feedback.ErrInvalidDocument, n)
	}
	if n > v.maxLength {
		return fmt.Errorf("%w: content too long: %d characters", feedback.ErrInvalidDocument, n)
	}

	trimmed := strings.TrimSpace(doc.Content)
	if trimmed == "" {
		return fmt.Errorf("%w: %w", feedback.ErrInvalidDocument, feedback.ErrEmptyContent)
	}

	var alnum, total int
	for _, r := range trimmed {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if ratio := float64(alnum) / float64(total); ratio < v.minAlnumRatio {
		return fmt.Errorf("%w: only %.0f%% alphanumeric characters", feedback.ErrInvalidDocument, ratio*100)
	}
	return nil
}

// enrich returns a copy of doc with source, content type and text statistics filled in.
func (v *Validator) enrich(doc feedback.Document) feedback.Document {
	if strings.TrimSpace(doc.Filename) == "" {
		doc.Filename = doc.ID + ".txt"
	}
	if doc.Source == "" || doc.Source == feedback.SourceOther {
		doc.Source = DetectSource(doc.Filename, doc.Content)
	}
	if doc.ContentType == "" {
		doc.ContentType = ContentType(doc.Filename)
	}

	meta := make(map[string]any, len(doc.Metadata)+11)
	maps.Copy(meta, doc.Metadata)

	words := wordRe.FindAllString(strings.ToLower(doc.Content), -1)
	sentences := len(sentenceEnd.FindAllString(doc.Content, -1))
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}

	paragraphs := 0
	for _, p := range strings.Split(doc.Content, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs++
		}
	}

	meta["word_count"] = len(strings.Fields(doc.Content))
	meta["character_count"] = utf8.RuneCountInString(doc.Content)
	meta["line_count"] = countLines(doc.Content)
	meta["processed_at"] = v.now().UTC().Format(time.RFC3339)
	meta["agent_version"] = agentVersion
	meta["sentence_count"] = sentences
	meta["paragraph_count"] = paragraphs
	meta["unique_words"] = len(unique)
	meta["avg_sentence_length"] = round(float64(len(words))/float64(max(sentences, 1)), 2)
	meta["vocabulary_richness"] = round(float64(len(unique))/float64(max(len(words), 1)), 3)
	meta["detected_language"] = detectLanguage(words)
	doc.Metadata = meta

	return doc
}

// DetectSource guesses the source type from filename terms, then content terms.
func DetectSource(filename, content string) feedback.Source {
	if s, ok := matchRules(strings.ToLower(filename), filenameRules); ok {
		return s
	}
	if s, ok := matchRules(strings.ToLower(content), contentRules); ok {
		return s
	}
	return feedback.SourceOther
}

// ContentType maps a filename extension to a MIME type, defaulting to text/plain.
func ContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "text/plain"
}

func matchRules(s string, rules []sourceRule) (feedback.Source, bool) {
	for _, rule := range rules {
		for _, term := range rule.terms {
			if strings.Contains(s, term) {
				return rule.source, true
			}
		}
	}
	return "", false
}

func detectLanguage(words []string) string {
	if len(words) == 0 {
		return "unknown"
	}
	hits := 0
	for _, w := range words {
		if _, ok := englishWords[w]; ok {
			hits++
		}
	}
	if float64(hits)/float64(len(words)) > 0.1 {
		return "en"
	}
	return "unknown"
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return len(strings.Split(strings.TrimRight(strings.ReplaceAll(s, "\r\n", "\n"), "\n"), "\n"))
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
