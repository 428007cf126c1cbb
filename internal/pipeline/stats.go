package pipeline

import "time"

// Stats aggregates counts and averages for one batch.
type Stats struct {
	DocumentsReceived     int            `json:"documents_received"`
	DocumentsProcessed    int            `json:"documents_processed"`
	RejectedByStage       map[string]int `json:"rejected_by_stage"`
	ElapsedSeconds        float64        `json:"elapsed_seconds"`
	SentimentDistribution map[string]int `json:"sentiment_distribution"`
	CategoryDistribution  map[string]int `json:"category_distribution"`
	AverageConfidence     float64        `json:"average_confidence"`
	AverageQuality        float64        `json:"average_quality"`
	InsightCount          int            `json:"insight_count"`
	RecommendationCount   int            `json:"recommendation_count"`
}

// Rejected returns the number of documents dropped across all stages.
func (s Stats) Rejected() int {
	n := 0
	for _, c := range s.RejectedByStage {
		n += c
	}
	return n
}

func (o *Outputs) stats(received int, elapsed time.Duration) Stats {
	s := Stats{
		DocumentsReceived:     received,
		DocumentsProcessed:    len(o.Cleaned),
		RejectedByStage:       make(map[string]int),
		ElapsedSeconds:        elapsed.Seconds(),
		SentimentDistribution: make(map[string]int),
		CategoryDistribution:  make(map[string]int),
		InsightCount:          len(o.Insights),
		RecommendationCount:   len(o.Recommendations),
	}
	for stage, rej := range o.Rejected {
		if len(rej) > 0 {
			s.RejectedByStage[stage] = len(rej)
		}
	}

	// Confidence averages sentiment confidences together with each
	// document's top reported category confidence.
	var confSum float64
	confCount := 0
	for _, r := range o.Sentiments {
		s.SentimentDistribution[string(r.Sentiment)]++
		confSum += r.Confidence
		confCount++
	}
	for _, c := range o.Categories {
		s.CategoryDistribution[string(c.PrimaryCategory)]++
		if len(c.Confidence) > 0 {
			confSum += c.Confidence[0].Confidence
			confCount++
		}
	}
	if confCount > 0 {
		s.AverageConfidence = confSum / float64(confCount)
	}

	if len(o.Cleaned) > 0 {
		var q float64
		for _, d := range o.Cleaned {
			q += d.QualityScore
		}
		s.AverageQuality = q / float64(len(o.Cleaned))
	}
	return s
}
