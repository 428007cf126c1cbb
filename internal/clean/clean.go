package clean

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

const minSentenceLength = 10

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	urlRe        = regexp.MustCompile(`https?://(?:[a-zA-Z0-9$-_@.&+!*(),]|%[0-9a-fA-F]{2})+`)
	emailRe      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	sentenceRe   = regexp.MustCompile(`[.!?]+`)
	terminalRe   = regexp.MustCompile(`[.!?]`)
	clauseRe     = regexp.MustCompile(`[,;:]`)
	tokenRe      = regexp.MustCompile(`\b\w+\b`)

	capitalizedRe = regexp.MustCompile(`\b[A-Z][a-z]+\b`)
	technicalRe   = regexp.MustCompile(`\b[a-zA-Z]+[0-9]+[a-zA-Z]*\b|\b[A-Z]{2,}\b`)
	quotedRe      = regexp.MustCompile(`"([^"]*)"`)
)

var mojibake = strings.NewReplacer(
	"â€™", "'",
	"â€œ", `"`,
	"â€", `"`,
)

var domainFamilies = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:process|procedure|workflow|methodology)\b`),
	regexp.MustCompile(`\b(?:quality|standard|compliance|audit)\b`),
	regexp.MustCompile(`\b(?:technical|system|software|hardware)\b`),
	regexp.MustCompile(`\b(?:performance|efficiency|optimization)\b`),
	regexp.MustCompile(`\b(?:recommendation|suggestion|improvement)\b`),
	regexp.MustCompile(`\b(?:issue|problem|concern|challenge)\b`),
	regexp.MustCompile(`\b(?:resource|allocation|budget|cost)\b`),
	regexp.MustCompile(`\b(?:training|skill|competency|knowledge)\b`),
	regexp.MustCompile(`\b(?:communication|collaboration|coordination)\b`),
	regexp.MustCompile(`\b(?:policy|guideline|framework|structure)\b`),
}

var stopWords = toSet(
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
	"has", "he", "in", "is", "it", "its", "of", "on", "that", "the",
	"to", "was", "will", "with", "this", "but", "they", "have",
	"had", "what", "said", "each", "which", "she", "do", "how", "their",
	"if", "up", "out", "many", "then", "them", "these", "so", "some",
	"her", "would", "make", "like", "into", "him", "time", "two", "more",
	"go", "no", "way", "could", "my", "than", "first", "been", "call",
	"who", "oil", "sit", "now", "find", "down", "day", "did", "get",
	"come", "made", "may", "part",
)

var englishIndicators = toSet(
	"the", "and", "or", "but", "in", "on", "at", "to", "for", "of",
	"with", "by", "from", "is", "are", "was", "were", "be", "been",
	"have", "has", "had", "do", "does", "did", "will", "would",
	"could", "should", "this", "that", "these", "those",
)

// Cleaner normalizes document text and scores its quality.
type Cleaner struct {
	maxEntities int
}

// NewCleaner creates a Cleaner that keeps at most maxEntities entities per document.
func NewCleaner(maxEntities int) *Cleaner {
	if maxEntities <= 0 {
		maxEntities = 50
	}
	return &Cleaner{maxEntities: maxEntities}
}

// Clean processes each document independently. Documents that cannot be
// cleaned are rejected without affecting the rest.
func (c *Cleaner) Clean(docs []feedback.Document) feedback.Batch[feedback.CleanedDocument] {
	var b feedback.Batch[feedback.CleanedDocument]
	log.Printf("Cleaning %d documents", len(docs))

	for _, doc := range docs {
		cleaned, err := c.CleanDocument(doc)
		if err != nil {
			log.Printf("Error cleaning document %s: %v", doc.ID, err)
			b.Reject(doc.ID, err)
			continue
		}
		b.Accept(*cleaned)
	}

	log.Printf("Cleaned %d documents", len(b.Accepted))
	return b
}

// CleanDocument runs the full cleaning sequence on one document.
func (c *Cleaner) CleanDocument(doc feedback.Document) (*feedback.CleanedDocument, error) {
	var notes []string
	originalLength := utf8.RuneCountInString(doc.Content)

	text := NormalizeText(doc.Content)
	if utf8.RuneCountInString(text) != originalLength {
		notes = append(notes, "Applied basic text cleaning")
	}

	text, kept := DedupeSentences(text)
	if kept == 0 {
		return nil, fmt.Errorf("%w: no sentences longer than %d characters", feedback.ErrEmptyContent, minSentenceLength)
	}
	notes = append(notes, "Removed duplicate content")

	entities := c.extractEntities(text)
	notes = append(notes, fmt.Sprintf("Extracted %d entities", len(entities)))

	return &feedback.CleanedDocument{
		ID:           doc.ID,
		Content:      text,
		Entities:     entities,
		Language:     DetectLanguage(text),
		WordCount:    len(strings.Fields(text)),
		QualityScore: QualityScore(text, doc.Content),
		Notes:        notes,
		Source:       doc.Source,
		SubmittedAt:  doc.SubmittedAt,
	}, nil
}

// NormalizeText collapses whitespace, repairs mojibake, removes URLs and
// e-mail addresses and strips characters outside words and common punctuation.
func NormalizeText(s string) string {
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = mojibake.Replace(s)
	s = urlRe.ReplaceAllString(s, "")
	s = emailRe.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if keepRune(r) {
			return r
		}
		return -1
	}, s)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func keepRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
		return true
	}
	return strings.ContainsRune(`.,!?;:()[]{}"'/\-`, r)
}

// DedupeSentences splits on terminal punctuation, drops short and repeated
// sentences and rejoins the rest. It returns the number of sentences kept.
func DedupeSentences(s string) (string, int) {
	seen := make(map[string]struct{})
	var unique []string
	for _, sentence := range sentenceRe.Split(s, -1) {
		sentence = strings.TrimSpace(sentence)
		if utf8.RuneCountInString(sentence) <= minSentenceLength {
			continue
		}
		key := strings.ToLower(sentence)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, sentence)
	}
	return strings.Join(unique, ". ") + ".", len(unique)
}

func (c *Cleaner) extractEntities(text string) []string {
	var candidates []string
	candidates = append(candidates, capitalizedRe.FindAllString(text, -1)...)
	candidates = append(candidates, technicalRe.FindAllString(text, -1)...)
	for _, m := range quotedRe.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	lower := strings.ToLower(text)
	for _, re := range domainFamilies {
		candidates = append(candidates, re.FindAllString(lower, -1)...)
	}

	seen := make(map[string]struct{}, len(candidates))
	var entities []string
	for _, e := range candidates {
		if utf8.RuneCountInString(e) <= 2 {
			continue
		}
		if _, stop := stopWords[strings.ToLower(e)]; stop {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		entities = append(entities, e)
		if len(entities) == c.maxEntities {
			break
		}
	}
	return entities
}

// QualityScore rates cleaned text in [0,1] from five capped sub-scores.
func QualityScore(cleaned, original string) float64 {
	if cleaned == "" || original == "" {
		return 0
	}
	score := 0.0

	// length preservation, 0-0.2
	ratio := float64(utf8.RuneCountInString(cleaned)) / float64(utf8.RuneCountInString(original))
	switch {
	case ratio >= 0.7 && ratio <= 1.0:
		score += 0.2
	case ratio >= 0.5 && ratio < 0.7:
		score += 0.1
	}

	// sentence length, 0-0.3
	var sentences, sentenceWords int
	for _, s := range sentenceRe.Split(cleaned, -1) {
		if utf8.RuneCountInString(strings.TrimSpace(s)) > 5 {
			sentences++
			sentenceWords += len(strings.Fields(s))
		}
	}
	if sentences > 0 {
		avg := float64(sentenceWords) / float64(sentences)
		switch {
		case avg >= 5 && avg <= 30:
			score += 0.3
		case (avg >= 3 && avg < 5) || (avg > 30 && avg <= 50):
			score += 0.2
		default:
			score += 0.1
		}
	}

	// lexical diversity, 0-0.2
	words := strings.Fields(strings.ToLower(cleaned))
	if len(words) > 0 {
		diversity := float64(len(toSet(words...))) / float64(len(words))
		switch {
		case diversity > 0.5:
			score += 0.2
		case diversity > 0.3:
			score += 0.15
		default:
			score += 0.1
		}
	}

	// punctuation, 0-0.15
	if terminalRe.MatchString(cleaned) {
		score += 0.1
	}
	if clauseRe.MatchString(cleaned) {
		score += 0.05
	}

	// word count, 0-0.15
	switch n := len(words); {
	case n >= 10:
		score += 0.15
	case n >= 5:
		score += 0.1
	default:
		score += 0.05
	}

	return min(score, 1.0)
}

// DetectLanguage returns "en" when common English words make up more than
// 5% of the tokens, otherwise "unknown".
func DetectLanguage(text string) string {
	words := tokenRe.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		return "unknown"
	}
	hits := 0
	for _, w := range words {
		if _, ok := englishIndicators[w]; ok {
			hits++
		}
	}
	if float64(hits)/float64(len(words)) > 0.05 {
		return "en"
	}
	return "unknown"
}

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
