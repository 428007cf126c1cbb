package feedback

import "time"

// Source identifies where a feedback document came from.
type Source string

const (
	SourceExpertReport       Source = "expert_report"
	SourceInternalAssessment Source = "internal_assessment"
	SourcePeerReview         Source = "peer_review"
	SourceTechnicalReview    Source = "technical_review"
	SourceProcessEvaluation  Source = "process_evaluation"
	SourceQualityAudit       Source = "quality_audit"
	SourceOther              Source = "other"
)

// Category is a label from the fixed feedback taxonomy.
type Category string

const (
	CategoryTechnicalIssues          Category = "technical_issues"
	CategoryProceduralInefficiencies Category = "procedural_inefficiencies"
	CategoryResourceAllocation       Category = "resource_allocation"
	CategoryCommunication            Category = "communication"
	CategoryTrainingNeeds            Category = "training_needs"
	CategorySystemImprovements       Category = "system_improvements"
	CategoryPolicyRecommendations    Category = "policy_recommendations"
	CategoryOther                    Category = "other"
)

// Sentiment is the overall polarity of a document.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
)

// Severity ranks how urgent an insight is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for sorting, most severe first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	}
	return 4
}

// Trend is the direction an insight is moving in. TrendNone means unknown.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
	TrendNone       Trend = ""
)

// InsightType is one of the fixed kinds of batch-level findings.
type InsightType string

const (
	InsightTrend           InsightType = "trend"
	InsightPattern         InsightType = "pattern"
	InsightAnomaly         InsightType = "anomaly"
	InsightCorrelation     InsightType = "correlation"
	InsightSentimentShift  InsightType = "sentiment_shift"
	InsightEmergingTopic   InsightType = "emerging_topic"
	InsightFrequentIssue   InsightType = "frequent_issue"
	InsightImprovementArea InsightType = "improvement_area"
	InsightSuccessStory    InsightType = "success_story"
	InsightFeedbackQuality InsightType = "feedback_quality"
)

// Priority of a recommendation. Shares its scale with Severity.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank orders priorities for sorting, most urgent first.
func (p Priority) Rank() int {
	return Severity(p).Rank()
}

// Effort estimates the work needed to act on a recommendation.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// Rank orders effort with high first.
func (e Effort) Rank() int {
	switch e {
	case EffortHigh:
		return 0
	case EffortMedium:
		return 1
	case EffortLow:
		return 2
	}
	return 3
}

// Timeline buckets when a recommendation should be acted on.
type Timeline string

const (
	TimelineImmediate  Timeline = "immediate"
	TimelineShortTerm  Timeline = "short-term"
	TimelineMediumTerm Timeline = "medium-term"
	TimelineLongTerm   Timeline = "long-term"
)

// Status is the lifecycle state of a batch.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Document is a raw feedback record as ingested.
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename,omitempty"`
	Content     string         `json:"content"`
	ContentType string         `json:"content_type,omitempty"`
	Source      Source         `json:"source,omitempty"`
	URL         string         `json:"url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	SubmittedAt *time.Time     `json:"submitted_at,omitempty"`
}

// CleanedDocument is the normalized form of a Document. ID matches the source.
type CleanedDocument struct {
	ID           string     `json:"document_id"`
	Content      string     `json:"cleaned_content"`
	Entities     []string   `json:"extracted_entities"`
	Language     string     `json:"language"`
	WordCount    int        `json:"word_count"`
	QualityScore float64    `json:"quality_score"`
	Notes        []string   `json:"processing_notes"`
	Source       Source     `json:"source,omitempty"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
}

// Breakdown holds the three sub-scores behind a SentimentResult.
type Breakdown struct {
	LexiconScore      float64 `json:"lexicon_score"`
	PatternScore      float64 `json:"pattern_score"`
	ContextScore      float64 `json:"context_score"`
	LexiconConfidence float64 `json:"lexicon_confidence"`
	PatternConfidence float64 `json:"pattern_confidence"`
	ContextConfidence float64 `json:"context_confidence"`
}

// SentimentResult is the sentiment verdict for one document.
type SentimentResult struct {
	DocumentID          string    `json:"document_id"`
	Sentiment           Sentiment `json:"overall_sentiment"`
	Score               float64   `json:"sentiment_score"`
	Confidence          float64   `json:"confidence"`
	Breakdown           Breakdown `json:"sentiment_breakdown"`
	KeyPhrases          []string  `json:"key_phrases"`
	EmotionalIndicators []string  `json:"emotional_indicators"`
}

// CategoryScore pairs a category with its confidence.
type CategoryScore struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
}

// CategoryResult is the taxonomy assignment for one document.
// Confidence is ordered by descending confidence.
type CategoryResult struct {
	DocumentID          string          `json:"document_id"`
	PrimaryCategory     Category        `json:"primary_category"`
	SecondaryCategories []Category      `json:"secondary_categories"`
	Confidence          []CategoryScore `json:"category_confidence"`
	Keywords            []string        `json:"keywords"`
	Topics              []string        `json:"topics"`
}

// ConfidenceFor returns the reported confidence of a category. The second
// result is false when the category was filtered out.
func (r CategoryResult) ConfidenceFor(c Category) (float64, bool) {
	for _, cs := range r.Confidence {
		if cs.Category == c {
			return cs.Confidence, true
		}
	}
	return 0, false
}

// Insight is a batch-level finding derived from aggregate statistics.
type Insight struct {
	Type          InsightType `json:"insight_type"`
	Description   string      `json:"description"`
	Evidence      []string    `json:"supporting_evidence"`
	Frequency     int         `json:"frequency"`
	Severity      Severity    `json:"severity"`
	Trend         Trend       `json:"trend_direction,omitempty"`
	AffectedAreas []string    `json:"affected_areas"`
	Sentiment     Sentiment   `json:"sentiment,omitempty"`
}

// Recommendation is an actionable suggestion derived from one insight and area.
type Recommendation struct {
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Priority        Priority      `json:"priority"`
	Category        string        `json:"category"`
	Effort          Effort        `json:"estimated_effort"`
	ExpectedImpact  string        `json:"expected_impact"`
	Timeline        Timeline      `json:"timeline"`
	Resources       []string      `json:"resources_required"`
	SuccessMetrics  []string      `json:"success_metrics"`
	RelatedInsights []InsightType `json:"related_insights"`
}
