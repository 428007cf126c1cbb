package recommend

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

const (
	maxAreas   = 3
	maxActions = 3
	maxMetrics = 3
	dedupeSpan = 50
)

// Synthesizer turns insights into actionable recommendations.
type Synthesizer struct{}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

// Synthesize expands every insight into recommendations, one per affected
// area and action, then deduplicates and sorts them.
func (s *Synthesizer) Synthesize(insights []feedback.Insight) []feedback.Recommendation {
	if len(insights) == 0 {
		log.Println("No insights provided for recommendation generation")
		return nil
	}
	log.Printf("Generating recommendations from %d insights", len(insights))

	var all []feedback.Recommendation
	for _, in := range insights {
		all = append(all, s.forInsight(in)...)
	}

	out := Dedupe(all)
	log.Printf("Generated %d recommendations", len(out))
	return out
}

func (s *Synthesizer) forInsight(in feedback.Insight) []feedback.Recommendation {
	tmpl := templateFor(in.Type)
	base := paramsFor(in)

	areas := in.AffectedAreas
	if len(areas) == 0 {
		areas = []string{"general"}
	}
	if len(areas) > maxAreas {
		areas = areas[:maxAreas]
	}

	sentiment := in.Sentiment
	if sentiment == "" {
		sentiment = feedback.SentimentNeutral
	}

	var out []feedback.Recommendation
	for _, area := range areas {
		for _, act := range actionsFor(sentiment, area) {
			f := base
			f.Category = area
			f.Action = act.verb
			f.Objective = act.objective

			title, err := tmpl.title(f)
			if err != nil {
				log.Printf("Skipping recommendation for %s insight: %v", in.Type, err)
				continue
			}
			desc, err := tmpl.description(f)
			if err != nil {
				log.Printf("Skipping recommendation for %s insight: %v", in.Type, err)
				continue
			}

			priority := tmpl.resolvePriority(f)
			effort := tmpl.resolveEffort(f)
			out = append(out, feedback.Recommendation{
				Title:           title,
				Description:     desc,
				Priority:        priority,
				Category:        string(in.Type),
				Effort:          effort,
				ExpectedImpact:  string(priority),
				Timeline:        Timeline(priority, effort),
				Resources:       Resources(priority, effort, area),
				SuccessMetrics:  successMetrics(in, area),
				RelatedInsights: []feedback.InsightType{in.Type},
			})
		}
	}
	return out
}

func paramsFor(in feedback.Insight) fields {
	f := fields{
		TrendDirection: string(in.Trend),
		Sentiment:      string(in.Sentiment),
		PatternType:    strings.ReplaceAll(string(in.Type), "_", " "),
		Area:           "the identified area",
	}
	if f.TrendDirection == "" {
		f.TrendDirection = string(feedback.TrendStable)
	}
	if f.Sentiment == "" {
		f.Sentiment = string(feedback.SentimentNeutral)
	}
	if len(in.AffectedAreas) > 0 {
		f.Area = in.AffectedAreas[0]
	}

	switch in.Type {
	case feedback.InsightCorrelation:
		if len(in.AffectedAreas) >= 2 {
			f.Category1 = in.AffectedAreas[0]
			f.Category2 = in.AffectedAreas[1]
		}
	case feedback.InsightEmergingTopic:
		f.Topic = "an emerging topic"
		if len(in.AffectedAreas) > 0 {
			f.Topic = in.AffectedAreas[0]
		}
	case feedback.InsightPattern:
		desc := strings.ToLower(in.Description)
		switch {
		case strings.Contains(desc, "recurring") || strings.Contains(desc, "frequent"):
			f.PatternType = "recurring issues"
		case strings.Contains(desc, "increasing") || strings.Contains(desc, "growing"):
			f.PatternType = "increasing concerns"
		case strings.Contains(desc, "consistent"):
			f.PatternType = "consistent feedback"
		default:
			f.PatternType = "identified patterns"
		}
	}
	return f
}

// Timeline buckets a recommendation by its priority and effort.
func Timeline(p feedback.Priority, e feedback.Effort) feedback.Timeline {
	switch {
	case p == feedback.PriorityCritical || (p == feedback.PriorityHigh && e == feedback.EffortHigh):
		return feedback.TimelineImmediate
	case p == feedback.PriorityHigh || (p == feedback.PriorityMedium && e == feedback.EffortHigh):
		return feedback.TimelineShortTerm
	case p == feedback.PriorityMedium || (p == feedback.PriorityLow && e == feedback.EffortHigh):
		return feedback.TimelineMediumTerm
	}
	return feedback.TimelineLongTerm
}

// Resources lists what acting on a recommendation needs.
func Resources(p feedback.Priority, e feedback.Effort, area string) []string {
	var out []string
	if p == feedback.PriorityHigh || p == feedback.PriorityCritical {
		out = append(out, "cross-functional team")
	}
	switch e {
	case feedback.EffortHigh:
		out = append(out, "dedicated development time", "budget allocation")
	case feedback.EffortMedium:
		out = append(out, "dedicated development time")
	}

	lower := strings.ToLower(area)
	if strings.Contains(lower, "technical") {
		out = append(out, "technical expertise")
	}
	if strings.Contains(lower, "process") || strings.Contains(lower, "procedural") {
		out = append(out, "process improvement team")
	}
	if len(out) == 0 {
		out = []string{"standard team resources"}
	}
	return out
}

func successMetrics(in feedback.Insight, area string) []string {
	var out []string
	if in.Sentiment != "" {
		out = append(out, fmt.Sprintf("Improvement in %s sentiment score", area))
	}
	switch in.Type {
	case feedback.InsightFrequentIssue, feedback.InsightImprovementArea:
		out = append(out, fmt.Sprintf("Reduction in %s related issues", area))
	case feedback.InsightSuccessStory:
		out = append(out, fmt.Sprintf("Replication of %s success in other areas", area))
	}
	out = append(out,
		fmt.Sprintf("Stakeholder satisfaction with %s improvements", area),
		fmt.Sprintf("Time to resolution for %s related items", area),
	)
	return out[:min(maxMetrics, len(out))]
}

// Dedupe keeps the highest-priority recommendation per key and sorts the
// result by priority, then effort with high effort first.
func Dedupe(recs []feedback.Recommendation) []feedback.Recommendation {
	index := make(map[string]int)
	var out []feedback.Recommendation
	for _, r := range recs {
		k := Key(r)
		i, seen := index[k]
		if !seen {
			index[k] = len(out)
			out = append(out, r)
			continue
		}
		if r.Priority.Rank() < out[i].Priority.Rank() {
			out[i] = r
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Priority.Rank(), out[j].Priority.Rank()
		if pi != pj {
			return pi < pj
		}
		return out[i].Effort.Rank() < out[j].Effort.Rank()
	})
	return out
}

// Key is the deduplication key of a recommendation: the title up to the
// first colon and the first 50 characters of the description.
func Key(r feedback.Recommendation) string {
	title, _, _ := strings.Cut(r.Title, ":")
	desc := []rune(r.Description)
	if len(desc) > dedupeSpan {
		desc = desc[:dedupeSpan]
	}
	return title + "|" + string(desc)
}
