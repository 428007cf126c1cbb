package report

import (
	"fmt"
	"time"

	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

// Input is everything the pipeline produced for one batch.
type Input struct {
	BatchID         string
	Received        int
	Documents       []feedback.CleanedDocument
	Sentiments      []feedback.SentimentResult
	Categories      []feedback.CategoryResult
	Insights        []feedback.Insight
	Recommendations []feedback.Recommendation
}

// Assemble merges the stage outputs into a Report.
func Assemble(in Input) *Report {
	r := &Report{
		ReportID:            feedback.NewID(),
		BatchID:             in.BatchID,
		GeneratedAt:         time.Now().UTC(),
		DocumentCount:       len(in.Documents),
		InsightCount:        len(in.Insights),
		RecommendationCount: len(in.Recommendations),
		Summary:             summarize(in),
		SentimentAnalysis:   make([]SentimentEntry, 0, len(in.Sentiments)),
		Categorization:      make([]CategoryEntry, 0, len(in.Categories)),
		Insights:            make([]InsightEntry, 0, len(in.Insights)),
		Recommendations:     make([]RecommendationEntry, 0, len(in.Recommendations)),
	}

	for _, s := range in.Sentiments {
		r.SentimentAnalysis = append(r.SentimentAnalysis, SentimentEntry{
			DocumentID: s.DocumentID,
			Sentiment:  s.Sentiment,
			Score:      s.Score,
			Confidence: s.Confidence,
			KeyPhrases: nonNil(s.KeyPhrases),
		})
	}

	for _, c := range in.Categories {
		conf := make(map[string]float64, len(c.Confidence))
		for _, cs := range c.Confidence {
			conf[string(cs.Category)] = cs.Confidence
		}
		secondaries := c.SecondaryCategories
		if secondaries == nil {
			secondaries = []feedback.Category{}
		}
		r.Categorization = append(r.Categorization, CategoryEntry{
			DocumentID:          c.DocumentID,
			PrimaryCategory:     c.PrimaryCategory,
			SecondaryCategories: secondaries,
			CategoryConfidence:  conf,
			Keywords:            nonNil(c.Keywords),
			Topics:              nonNil(c.Topics),
		})
	}

	for i, ins := range in.Insights {
		var trend *feedback.Trend
		if ins.Trend != feedback.TrendNone {
			t := ins.Trend
			trend = &t
		}
		r.Insights = append(r.Insights, InsightEntry{
			ID:                 fmt.Sprintf("insight_%d", i),
			Type:               ins.Type,
			Description:        ins.Description,
			Severity:           ins.Severity,
			Frequency:          ins.Frequency,
			TrendDirection:     trend,
			AffectedAreas:      nonNil(ins.AffectedAreas),
			SupportingEvidence: nonNil(ins.Evidence),
		})
	}

	for i, rec := range in.Recommendations {
		r.Recommendations = append(r.Recommendations, RecommendationEntry{
			ID:              fmt.Sprintf("recommendation_%d", i),
			Title:           rec.Title,
			Description:     rec.Description,
			Priority:        rec.Priority,
			Category:        rec.Category,
			Effort:          rec.Effort,
			ExpectedImpact:  rec.ExpectedImpact,
			Timeline:        rec.Timeline,
			Resources:       nonNil(rec.Resources),
			SuccessMetrics:  nonNil(rec.SuccessMetrics),
			RelatedInsights: rec.RelatedInsights,
		})
	}
	return r
}

func summarize(in Input) Summary {
	s := Summary{
		SentimentDistribution:  make(map[string]int),
		CategoryDistribution:   make(map[string]int),
		InsightSeverity:        make(map[string]int),
		RecommendationPriority: make(map[string]int),
		TotalDocuments:         len(in.Documents),
		TotalInsights:          len(in.Insights),
		TotalRecommendations:   len(in.Recommendations),
		CleanedPercentage:      100,
	}
	if in.Received > 0 {
		s.CleanedPercentage = float64(len(in.Documents)) / float64(in.Received) * 100
	}

	var confSum float64
	for _, r := range in.Sentiments {
		s.SentimentDistribution[string(r.Sentiment)]++
		confSum += r.Confidence
	}
	if len(in.Sentiments) > 0 {
		avg := confSum / float64(len(in.Sentiments))
		s.AvgSentimentConfidence = &avg
	}

	var probSum float64
	probCount := 0
	for _, c := range in.Categories {
		s.CategoryDistribution[string(c.PrimaryCategory)]++
		// primary may have been filtered from the reported confidences
		if p, ok := c.ConfidenceFor(c.PrimaryCategory); ok {
			probSum += p
			probCount++
		}
	}
	if probCount > 0 {
		avg := probSum / float64(probCount)
		s.AvgPrimaryCategoryProbability = &avg
	}

	for _, ins := range in.Insights {
		s.InsightSeverity[string(ins.Severity)]++
	}
	for _, rec := range in.Recommendations {
		s.RecommendationPriority[string(rec.Priority)]++
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
