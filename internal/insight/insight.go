package insight

import (
	"fmt"
	"log"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/TobiSchelling/feedbacklens/internal/cluster"
	"github.com/TobiSchelling/feedbacklens/internal/config"
	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

const (
	negativeDominance = 0.5
	positiveDominance = 0.6
	categoryDominance = 0.6
	topCategoryShare  = 0.3
	diversityShare    = 0.1
	minDiversity      = 3
	shortFeedback     = 50
	maxImprovements   = 3
	simulatedWeekly   = 0.4

	week  = 7 * 24 * time.Hour
	month = 30 * 24 * time.Hour
)

var (
	issueIndicators = []string{"issue", "problem", "error", "bug", "fix", "broken", "not working"}
	frequentTermRe  = regexp.MustCompile(`\b\w{4,}\b`)
	emergingTermRe  = regexp.MustCompile(`\b\w{5,}\b`)
)

// Miner derives batch-level insights from per-document results.
type Miner struct {
	minSupport      int
	impactThreshold float64
	clusterer       *cluster.Clusterer
}

// NewMiner creates a Miner from the analysis config.
func NewMiner(cfg config.Analysis) *Miner {
	m := &Miner{
		minSupport:      cfg.MinSupport,
		impactThreshold: cfg.ImpactThreshold,
		clusterer:       cluster.NewClusterer(cfg.ClusterThreshold),
	}
	if m.minSupport < 1 {
		m.minSupport = 3
	}
	return m
}

// row is one document joined with its sentiment and category by ID.
type row struct {
	doc      feedback.CleanedDocument
	sent     *feedback.SentimentResult
	category *feedback.CategoryResult
}

// batch holds the joined rows plus the category order they were first seen in.
type batch struct {
	rows       []row
	categories []feedback.Category
}

// Mine returns deduplicated insights sorted by severity then frequency.
// Any empty input yields no insights.
func (m *Miner) Mine(docs []feedback.CleanedDocument, sentiments []feedback.SentimentResult, categories []feedback.CategoryResult) []feedback.Insight {
	if len(docs) == 0 || len(sentiments) == 0 || len(categories) == 0 {
		log.Println("Insufficient data for insight generation")
		return nil
	}
	log.Printf("Generating insights from %d documents", len(docs))

	b := join(docs, sentiments, categories)

	var all []feedback.Insight
	all = append(all, m.sentimentInsights(b)...)
	all = append(all, m.categoryInsights(b)...)
	all = append(all, m.temporalInsights(b)...)
	all = append(all, m.contentInsights(b)...)
	all = append(all, m.crossCuttingInsights(b)...)
	all = append(all, m.clusterInsights(b)...)

	unique := Dedupe(all)
	log.Printf("Generated %d unique insights", len(unique))
	return unique
}

func join(docs []feedback.CleanedDocument, sentiments []feedback.SentimentResult, categories []feedback.CategoryResult) batch {
	sentByID := make(map[string]*feedback.SentimentResult, len(sentiments))
	for i := range sentiments {
		sentByID[sentiments[i].DocumentID] = &sentiments[i]
	}
	catByID := make(map[string]*feedback.CategoryResult, len(categories))
	for i := range categories {
		catByID[categories[i].DocumentID] = &categories[i]
	}

	var b batch
	seen := make(map[feedback.Category]bool)
	for _, doc := range docs {
		r := row{doc: doc, sent: sentByID[doc.ID], category: catByID[doc.ID]}
		if r.category != nil && !seen[r.category.PrimaryCategory] {
			seen[r.category.PrimaryCategory] = true
			b.categories = append(b.categories, r.category.PrimaryCategory)
		}
		b.rows = append(b.rows, r)
	}
	return b
}

// categoryCounts returns primary category counts and the categories sorted
// by descending count, first-seen order breaking ties.
func (b batch) categoryCounts() (map[feedback.Category]int, []feedback.Category, int) {
	counts := make(map[feedback.Category]int)
	total := 0
	for _, r := range b.rows {
		if r.category == nil {
			continue
		}
		counts[r.category.PrimaryCategory]++
		total++
	}
	ranked := append([]feedback.Category(nil), b.categories...)
	sort.SliceStable(ranked, func(i, j int) bool { return counts[ranked[i]] > counts[ranked[j]] })
	return counts, ranked, total
}

func (m *Miner) sentimentInsights(b batch) []feedback.Insight {
	var out []feedback.Insight

	counts := make(map[feedback.Sentiment]int)
	total := 0
	for _, r := range b.rows {
		if r.sent == nil {
			continue
		}
		counts[r.sent.Sentiment]++
		total++
	}

	_, ranked, _ := b.categoryCounts()
	areas := categoryNames(ranked)

	if total > 0 {
		positive := float64(counts[feedback.SentimentPositive]) / float64(total)
		negative := float64(counts[feedback.SentimentNegative]) / float64(total)

		if negative > negativeDominance {
			out = append(out, feedback.Insight{
				Type:        feedback.InsightSentimentShift,
				Description: fmt.Sprintf("Negative sentiment is dominant in %s of feedback", percent(negative)),
				Evidence: []string{
					fmt.Sprintf("%d out of %d feedback items are negative", counts[feedback.SentimentNegative], total),
					fmt.Sprintf("Positive feedback ratio: %s", percent(positive)),
				},
				Frequency:     asPercent(negative),
				Severity:      pick(negative > 0.6, feedback.SeverityHigh, feedback.SeverityMedium),
				Trend:         pick(negative > 0.4, feedback.TrendIncreasing, feedback.TrendStable),
				AffectedAreas: areas,
				Sentiment:     feedback.SentimentNegative,
			})
		}
		if positive > positiveDominance {
			out = append(out, feedback.Insight{
				Type:        feedback.InsightSuccessStory,
				Description: fmt.Sprintf("Positive sentiment is strong with %s of feedback being positive", percent(positive)),
				Evidence: []string{
					fmt.Sprintf("%d out of %d feedback items are positive", counts[feedback.SentimentPositive], total),
					fmt.Sprintf("Negative feedback ratio: %s", percent(negative)),
				},
				Frequency:     asPercent(positive),
				Severity:      feedback.SeverityLow,
				Trend:         pick(positive > 0.5, feedback.TrendIncreasing, feedback.TrendStable),
				AffectedAreas: areas,
				Sentiment:     feedback.SentimentPositive,
			})
		}
	}

	// Per-category dominance of a single sentiment class.
	perCategory := make(map[feedback.Category]map[feedback.Sentiment]int)
	for _, r := range b.rows {
		if r.sent == nil || r.category == nil {
			continue
		}
		c := r.category.PrimaryCategory
		if perCategory[c] == nil {
			perCategory[c] = make(map[feedback.Sentiment]int)
		}
		perCategory[c][r.sent.Sentiment]++
	}
	for _, c := range b.categories {
		dist := perCategory[c]
		n := 0
		for _, v := range dist {
			n += v
		}
		if n < m.minSupport {
			continue
		}
		for _, s := range sentimentOrder {
			ratio := float64(dist[s]) / float64(n)
			if ratio <= categoryDominance {
				continue
			}
			out = append(out, feedback.Insight{
				Type: feedback.InsightSentimentShift,
				Description: fmt.Sprintf("%s sentiment is particularly strong in the '%s' category (%s of feedback)",
					capitalize(string(s)), c, percent(ratio)),
				Evidence: []string{
					fmt.Sprintf("%d out of %d items in this category are %s", dist[s], n, s),
					fmt.Sprintf("Sentiment distribution: %s", distribution(dist, n)),
				},
				Frequency:     dist[s],
				Severity:      pick(ratio > 0.7, feedback.SeverityHigh, feedback.SeverityMedium),
				Trend:         pick(ratio > 0.5, feedback.TrendIncreasing, feedback.TrendStable),
				AffectedAreas: []string{string(c)},
				Sentiment:     s,
			})
		}
	}
	return out
}

func (m *Miner) categoryInsights(b batch) []feedback.Insight {
	var out []feedback.Insight

	counts, ranked, total := b.categoryCounts()
	if total > 0 {
		top := ranked[0]
		share := float64(counts[top]) / float64(total)
		if share > topCategoryShare {
			var top3 []string
			for _, c := range ranked[:min(3, len(ranked))] {
				top3 = append(top3, fmt.Sprintf("%s (%s)", c, percent(float64(counts[c])/float64(total))))
			}
			out = append(out, feedback.Insight{
				Type:        feedback.InsightTrend,
				Description: fmt.Sprintf("The most common feedback category is '%s' (%s of all feedback)", top, percent(share)),
				Evidence: []string{
					fmt.Sprintf("%d out of %d feedback items are in this category", counts[top], total),
					fmt.Sprintf("Top 3 categories: %s", strings.Join(top3, ", ")),
				},
				Frequency:     counts[top],
				Severity:      feedback.SeverityMedium,
				Trend:         pick(share > 0.4, feedback.TrendIncreasing, feedback.TrendStable),
				AffectedAreas: []string{string(top)},
			})
		}

		if len(ranked) >= minDiversity {
			diversity := 0
			var parts []string
			for _, c := range ranked {
				s := float64(counts[c]) / float64(total)
				if s >= diversityShare {
					diversity++
				}
				parts = append(parts, fmt.Sprintf("%s: %s", c, percent(s)))
			}
			if diversity >= minDiversity {
				out = append(out, feedback.Insight{
					Type:        feedback.InsightPattern,
					Description: fmt.Sprintf("Feedback is distributed across %d major categories, indicating diverse concerns", diversity),
					Evidence: []string{
						fmt.Sprintf("Categories with at least 10%% of feedback: %d", diversity),
						fmt.Sprintf("Category distribution: %s", strings.Join(parts, ", ")),
					},
					Frequency:     diversity,
					Severity:      feedback.SeverityLow,
					Trend:         feedback.TrendStable,
					AffectedAreas: categoryNames(ranked),
				})
			}
		}
	}

	scores := b.categoryScores()
	for _, c := range b.categories {
		s := scores[c]
		if len(s) < m.minSupport {
			continue
		}
		avg := mean(s)
		if math.Abs(avg) < m.impactThreshold {
			continue
		}
		polarity := pick(avg > 0, feedback.SentimentPositive, feedback.SentimentNegative)
		out = append(out, feedback.Insight{
			Type:        feedback.InsightSentimentShift,
			Description: fmt.Sprintf("Feedback in the '%s' category shows %s sentiment on average", c, polarity),
			Evidence: []string{
				fmt.Sprintf("Average sentiment score: %.2f (range: -1 to 1)", avg),
				fmt.Sprintf("Based on %d feedback items in this category", len(s)),
			},
			Frequency:     len(s),
			Severity:      pick(math.Abs(avg) > 0.5, feedback.SeverityHigh, feedback.SeverityMedium),
			Trend:         pick(math.Abs(avg) > 0.4, feedback.TrendIncreasing, feedback.TrendStable),
			AffectedAreas: []string{string(c)},
			Sentiment:     polarity,
		})
	}
	return out
}

// temporalInsights compares last-week volume with the rest of the month.
// Batches where fewer than minSupport documents carry a timestamp fall back
// to a fixed 40% weekly share.
func (m *Miner) temporalInsights(b batch) []feedback.Insight {
	n := len(b.rows)
	if n == 0 {
		return nil
	}

	lastWeek, lastMonth := m.volumeSplit(b)
	ratio := float64(lastWeek) / float64(lastMonth-lastWeek+1)
	if ratio <= 0.5 {
		return nil
	}
	return []feedback.Insight{{
		Type:        feedback.InsightTrend,
		Description: fmt.Sprintf("Significant increase in feedback volume in the last week (%d items)", lastWeek),
		Evidence: []string{
			fmt.Sprintf("%d feedback items in the last week", lastWeek),
			fmt.Sprintf("%d items in the last month", lastMonth),
		},
		Frequency:     lastWeek,
		Severity:      pick(ratio > 1.0, feedback.SeverityHigh, feedback.SeverityMedium),
		Trend:         feedback.TrendIncreasing,
		AffectedAreas: []string{"All categories"},
	}}
}

func (m *Miner) volumeSplit(b batch) (int, int) {
	var stamps []time.Time
	for _, r := range b.rows {
		if r.doc.SubmittedAt != nil {
			stamps = append(stamps, *r.doc.SubmittedAt)
		}
	}
	if len(stamps) < m.minSupport {
		n := len(b.rows)
		return int(float64(n) * simulatedWeekly), n
	}

	newest := stamps[0]
	for _, t := range stamps[1:] {
		if t.After(newest) {
			newest = t
		}
	}
	lastWeek, lastMonth := 0, 0
	for _, t := range stamps {
		age := newest.Sub(t)
		if age <= week {
			lastWeek++
		}
		if age <= month {
			lastMonth++
		}
	}
	return lastWeek, lastMonth
}

func (m *Miner) contentInsights(b batch) []feedback.Insight {
	var out []feedback.Insight

	var issueCats []feedback.Category
	issueDocs := 0
	for _, r := range b.rows {
		lower := strings.ToLower(r.doc.Content)
		if !containsAny(lower, issueIndicators) {
			continue
		}
		issueDocs++
		if r.category != nil {
			issueCats = append(issueCats, r.category.PrimaryCategory)
		}
	}
	if issueDocs >= m.minSupport && len(issueCats) > 0 {
		counts, ranked := rankCategories(issueCats)
		top := ranked[0]
		terms := frequentTerms(b, 10)
		out = append(out, feedback.Insight{
			Type: feedback.InsightFrequentIssue,
			Description: fmt.Sprintf("Identified %d documents mentioning issues, primarily in the '%s' category",
				issueDocs, top),
			Evidence: []string{
				fmt.Sprintf("%d issues in '%s' category", counts[top], top),
				fmt.Sprintf("Common issue indicators: %s", strings.Join(issueIndicators[:3], ", ")),
				fmt.Sprintf("Most frequent terms: %s", strings.Join(terms, ", ")),
			},
			Frequency:     issueDocs,
			Severity:      pick(issueDocs > 10, feedback.SeverityHigh, feedback.SeverityMedium),
			Trend:         pick(issueDocs > 5, feedback.TrendIncreasing, feedback.TrendStable),
			AffectedAreas: categoryNames(ranked[:min(3, len(ranked))]),
		})
	}

	short := 0
	totalWords := 0
	for _, r := range b.rows {
		words := len(strings.Fields(r.doc.Content))
		totalWords += words
		if words < shortFeedback {
			short++
		}
	}
	avg := float64(totalWords) / float64(len(b.rows))
	if avg < shortFeedback {
		out = append(out, feedback.Insight{
			Type:        feedback.InsightFeedbackQuality,
			Description: "Feedback items are relatively short, which may indicate lack of detail",
			Evidence: []string{
				fmt.Sprintf("Average feedback length: %.1f words", avg),
				fmt.Sprintf("Total feedback items analyzed: %d", len(b.rows)),
			},
			Frequency:     short,
			Severity:      feedback.SeverityLow,
			Trend:         feedback.TrendStable,
			AffectedAreas: []string{"Feedback quality"},
		})
	}
	return out
}

func (m *Miner) crossCuttingInsights(b batch) []feedback.Insight {
	var out []feedback.Insight

	type negativeArea struct {
		category feedback.Category
		avg      float64
		count    int
	}
	var negatives []negativeArea
	scores := b.categoryScores()
	for _, c := range b.categories {
		s := scores[c]
		if len(s) < m.minSupport {
			continue
		}
		if avg := mean(s); avg < -m.impactThreshold {
			negatives = append(negatives, negativeArea{c, avg, len(s)})
		}
	}
	sort.SliceStable(negatives, func(i, j int) bool { return negatives[i].avg < negatives[j].avg })
	if len(negatives) > maxImprovements {
		negatives = negatives[:maxImprovements]
	}
	for _, n := range negatives {
		out = append(out, feedback.Insight{
			Type: feedback.InsightImprovementArea,
			Description: fmt.Sprintf("The '%s' category shows consistently negative sentiment (avg score: %.2f)",
				n.category, n.avg),
			Evidence: []string{
				fmt.Sprintf("Based on %d feedback items in this category", n.count),
				fmt.Sprintf("Average sentiment score: %.2f (range: -1 to 1)", n.avg),
			},
			Frequency:     n.count,
			Severity:      pick(n.avg < -0.5, feedback.SeverityHigh, feedback.SeverityMedium),
			Trend:         pick(n.avg < -0.3, feedback.TrendDecreasing, feedback.TrendStable),
			AffectedAreas: []string{string(n.category)},
			Sentiment:     feedback.SentimentNegative,
		})
	}

	counts := make(map[string]int)
	var order []string
	for _, r := range b.rows {
		for _, t := range emergingTermRe.FindAllString(strings.ToLower(r.doc.Content), -1) {
			if counts[t] == 0 {
				order = append(order, t)
			}
			counts[t]++
		}
	}
	var emerging []string
	for _, t := range order {
		if c := counts[t]; c >= 2 && c <= 5 {
			emerging = append(emerging, t)
		}
	}
	if len(emerging) > 0 {
		out = append(out, feedback.Insight{
			Type:        feedback.InsightEmergingTopic,
			Description: "Potential emerging topics detected in feedback",
			Evidence: []string{
				fmt.Sprintf("Terms appearing multiple times: %s", strings.Join(emerging[:min(5, len(emerging))], ", ")),
				fmt.Sprintf("Total unique terms: %d", len(order)),
			},
			Frequency:     len(emerging),
			Severity:      feedback.SeverityLow,
			Trend:         feedback.TrendIncreasing,
			AffectedAreas: []string{"Content analysis"},
		})
	}
	return out
}

// Dedupe keeps the first insight per (type, description before the first
// parenthesis) and sorts by severity rank, then descending frequency.
func Dedupe(insights []feedback.Insight) []feedback.Insight {
	seen := make(map[string]bool)
	var out []feedback.Insight
	for _, in := range insights {
		k := Key(in)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, in)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Severity.Rank(), out[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].Frequency > out[j].Frequency
	})
	return out
}

// Key is the deduplication key of an insight.
func Key(in feedback.Insight) string {
	desc, _, _ := strings.Cut(in.Description, "(")
	return string(in.Type) + "|" + strings.TrimSpace(desc)
}

func (b batch) categoryScores() map[feedback.Category][]float64 {
	scores := make(map[feedback.Category][]float64)
	for _, r := range b.rows {
		if r.sent == nil || r.category == nil {
			continue
		}
		c := r.category.PrimaryCategory
		scores[c] = append(scores[c], r.sent.Score)
	}
	return scores
}

func frequentTerms(b batch, limit int) []string {
	counts := make(map[string]int)
	var order []string
	for _, r := range b.rows {
		for _, t := range frequentTermRe.FindAllString(strings.ToLower(r.doc.Content), -1) {
			if counts[t] == 0 {
				order = append(order, t)
			}
			counts[t]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	return order[:min(limit, len(order))]
}

func rankCategories(cats []feedback.Category) (map[feedback.Category]int, []feedback.Category) {
	counts := make(map[feedback.Category]int)
	var order []feedback.Category
	for _, c := range cats {
		if counts[c] == 0 {
			order = append(order, c)
		}
		counts[c]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	return counts, order
}

var sentimentOrder = []feedback.Sentiment{
	feedback.SentimentPositive,
	feedback.SentimentNegative,
	feedback.SentimentNeutral,
	feedback.SentimentMixed,
}

func distribution(dist map[feedback.Sentiment]int, n int) string {
	var parts []string
	for _, s := range sentimentOrder {
		if dist[s] == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", s, percent(float64(dist[s])/float64(n))))
	}
	return strings.Join(parts, ", ")
}

func categoryNames(cats []feedback.Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// asPercent truncates.
func asPercent(ratio float64) int {
	return int(ratio * 100)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func pick[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
