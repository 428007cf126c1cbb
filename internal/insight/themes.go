package insight

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/feedbacklens/internal/cluster"
	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

const (
	maxOutlierShare    = 0.2
	minPairShare       = 1.0 / 3
	maxOutlierEvidence = 5
)

// clusterInsights groups documents by keyword overlap. Singleton groups in
// an otherwise cohesive batch become an anomaly; a supported group that
// splits between two primary categories becomes a correlation. Documents
// without keywords take no part.
func (m *Miner) clusterInsights(b batch) []feedback.Insight {
	var items []cluster.Item
	var rows []row
	for _, r := range b.rows {
		if r.category == nil || len(r.category.Keywords) == 0 {
			continue
		}
		items = append(items, cluster.Item{ID: r.doc.ID, Terms: r.category.Keywords})
		rows = append(rows, r)
	}
	if len(items) < 2*m.minSupport {
		return nil
	}

	groups := m.clusterer.Cluster(items)
	var out []feedback.Insight
	var outliers []row
	for _, g := range groups {
		if len(g.Members) == 1 {
			outliers = append(outliers, rows[g.Members[0]])
			continue
		}
		if len(g.Members) < m.minSupport {
			continue
		}
		if in, ok := m.correlation(g, rows); ok {
			out = append(out, in)
		}
	}

	if len(outliers) > 0 && float64(len(outliers)) <= maxOutlierShare*float64(len(items)) {
		out = append(out, anomaly(outliers, len(items)))
	}
	return out
}

func (m *Miner) correlation(g cluster.Group, rows []row) (feedback.Insight, bool) {
	cats := make([]feedback.Category, 0, len(g.Members))
	var scores []float64
	for _, i := range g.Members {
		cats = append(cats, rows[i].category.PrimaryCategory)
		if rows[i].sent != nil {
			scores = append(scores, rows[i].sent.Score)
		}
	}
	counts, ranked := rankCategories(cats)
	if len(ranked) < 2 {
		return feedback.Insight{}, false
	}
	n := float64(len(g.Members))
	first, second := ranked[0], ranked[1]
	if float64(counts[first]) < minPairShare*n || float64(counts[second]) < minPairShare*n {
		return feedback.Insight{}, false
	}

	avg := mean(scores)
	negative := len(scores) > 0 && avg < -m.impactThreshold
	in := feedback.Insight{
		Type: feedback.InsightCorrelation,
		Description: fmt.Sprintf("Feedback about '%s' and '%s' shares the same vocabulary (%d items)",
			first, second, len(g.Members)),
		Evidence: []string{
			fmt.Sprintf("Shared terms: %s", strings.Join(g.Terms, ", ")),
			fmt.Sprintf("%d items in '%s', %d in '%s'", counts[first], first, counts[second], second),
			fmt.Sprintf("Average sentiment score: %.2f", avg),
		},
		Frequency:     len(g.Members),
		Severity:      pick(negative, feedback.SeverityMedium, feedback.SeverityLow),
		Trend:         feedback.TrendStable,
		AffectedAreas: []string{string(first), string(second)},
	}
	if negative {
		in.Sentiment = feedback.SentimentNegative
	}
	return in, true
}

func anomaly(outliers []row, total int) feedback.Insight {
	ids := make([]string, 0, len(outliers))
	cats := make([]feedback.Category, 0, len(outliers))
	negative := false
	for _, r := range outliers {
		ids = append(ids, r.doc.ID)
		cats = append(cats, r.category.PrimaryCategory)
		if r.sent != nil && r.sent.Sentiment == feedback.SentimentNegative {
			negative = true
		}
	}
	_, ranked := rankCategories(cats)

	shown := ids[:min(maxOutlierEvidence, len(ids))]
	evidence := []string{
		fmt.Sprintf("Outlying documents: %s", strings.Join(shown, ", ")),
		fmt.Sprintf("%d of %d documents did not group with any other", len(outliers), total),
	}
	return feedback.Insight{
		Type:          feedback.InsightAnomaly,
		Description:   fmt.Sprintf("%d feedback items stand apart from the rest of the batch", len(outliers)),
		Evidence:      evidence,
		Frequency:     len(outliers),
		Severity:      pick(negative, feedback.SeverityMedium, feedback.SeverityLow),
		Trend:         feedback.TrendStable,
		AffectedAreas: categoryNames(ranked),
	}
}
