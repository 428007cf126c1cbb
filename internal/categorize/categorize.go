package categorize

import (
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

const (
	maxReported    = 5
	maxSecondaries = 2
	maxKeywords    = 20
	maxTopics      = 10
	maxTopicWords  = 5
	minTopicLength = 3
)

var (
	keywordRe  = regexp.MustCompile(`\b[a-z]{3,}\b`)
	edgeJunkRe = regexp.MustCompile(`^\W+|\W+$`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// Categorizer assigns documents to the feedback taxonomy.
type Categorizer struct {
	taxonomy      Taxonomy
	minConfidence float64
}

// NewCategorizer creates a Categorizer. Categories below minConfidence are
// left out of the reported confidences but can still be primary.
func NewCategorizer(taxonomy Taxonomy, minConfidence float64) *Categorizer {
	return &Categorizer{taxonomy: taxonomy, minConfidence: minConfidence}
}

// Categorize assigns a category result to every document with content.
func (c *Categorizer) Categorize(docs []feedback.CleanedDocument) feedback.Batch[feedback.CategoryResult] {
	var b feedback.Batch[feedback.CategoryResult]
	log.Printf("Categorizing %d documents", len(docs))

	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			log.Printf("Error categorizing document %s: empty content", doc.ID)
			b.Reject(doc.ID, feedback.ErrEmptyContent)
			continue
		}
		r := c.CategorizeText(doc.ID, doc.Content)
		b.Accept(r)
	}

	log.Printf("Categorized %d documents", len(b.Accepted))
	return b
}

// CategorizeText categorizes a single text.
func (c *Categorizer) CategorizeText(id, text string) feedback.CategoryResult {
	content := strings.ToLower(text)
	raw := c.RawScores(content)

	primary := feedback.CategoryOther
	best := 0.0
	for _, cat := range c.taxonomy.order {
		if raw[cat] > best {
			best = raw[cat]
			primary = cat
		}
	}

	reported := c.confidences(raw)

	var secondaries []feedback.Category
	for _, cs := range reported {
		if cs.Category == primary {
			continue
		}
		if len(secondaries) == maxSecondaries {
			break
		}
		secondaries = append(secondaries, cs.Category)
	}

	return feedback.CategoryResult{
		DocumentID:          id,
		PrimaryCategory:     primary,
		SecondaryCategories: secondaries,
		Confidence:          reported,
		Keywords:            Keywords(content),
		Topics:              Topics(content),
	}
}

// RawScores sums match count times weight for every category.
func (c *Categorizer) RawScores(content string) map[feedback.Category]float64 {
	scores := make(map[feedback.Category]float64, len(c.taxonomy.order))
	for _, cat := range c.taxonomy.order {
		for _, r := range c.taxonomy.rules[cat] {
			scores[cat] += float64(len(r.Pattern.FindAllStringIndex(content, -1))) * r.Weight
		}
	}
	return scores
}

// confidences normalizes raw scores by their maximum, renormalizes them to sum
// to one, drops low-confidence categories and returns the top five.
func (c *Categorizer) confidences(raw map[feedback.Category]float64) []feedback.CategoryScore {
	maxScore := 0.0
	for _, s := range raw {
		maxScore = max(maxScore, s)
	}
	if maxScore == 0 {
		return nil
	}

	normalized := make(map[feedback.Category]float64, len(raw))
	total := 0.0
	for _, cat := range c.taxonomy.order {
		n := raw[cat] / maxScore
		normalized[cat] = n
		total += n
	}

	var out []feedback.CategoryScore
	for _, cat := range c.taxonomy.order {
		conf := normalized[cat] / total
		if conf == 0 || conf < c.minConfidence {
			continue
		}
		out = append(out, feedback.CategoryScore{Category: cat, Confidence: conf})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if len(out) > maxReported {
		out = out[:maxReported]
	}
	return out
}

// Topics extracts short noun phrases that follow cue words, ranked by
// summed pattern confidence.
func Topics(content string) []string {
	scores := make(map[string]float64)
	var order []string

	for _, tr := range topicRules {
		for _, m := range tr.pattern.FindAllStringSubmatch(content, -1) {
			topic := strings.TrimSpace(m[1])
			if topic == "" || len(strings.Fields(topic)) > maxTopicWords {
				continue
			}
			topic = edgeJunkRe.ReplaceAllString(topic, "")
			topic = strings.TrimSpace(spaceRe.ReplaceAllString(topic, " "))
			if len(topic) < minTopicLength {
				continue
			}
			if _, seen := scores[topic]; !seen {
				order = append(order, topic)
			}
			scores[topic] += tr.confidence
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return scores[order[i]] > scores[order[j]] })
	if len(order) > maxTopics {
		order = order[:maxTopics]
	}
	return order
}

// Keywords returns the most frequent non-common words of three or more letters.
func Keywords(content string) []string {
	counts := make(map[string]int)
	var order []string
	for _, w := range keywordRe.FindAllString(strings.ToLower(content), -1) {
		if _, common := commonWords[w]; common {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}
