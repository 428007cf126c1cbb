package report

import (
	"time"

	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

// Report is the serializable outcome of one batch.
type Report struct {
	ReportID            string                `json:"report_id"`
	BatchID             string                `json:"batch_id,omitempty"`
	GeneratedAt         time.Time             `json:"generated_at"`
	DocumentCount       int                   `json:"document_count"`
	InsightCount        int                   `json:"insight_count"`
	RecommendationCount int                   `json:"recommendation_count"`
	Summary             Summary               `json:"summary"`
	SentimentAnalysis   []SentimentEntry      `json:"sentiment_analysis"`
	Categorization      []CategoryEntry       `json:"categorization"`
	Insights            []InsightEntry        `json:"insights"`
	Recommendations     []RecommendationEntry `json:"recommendations"`
}

// Summary holds distributions and averages over the whole batch.
// Averages are nil when nothing contributed to them.
type Summary struct {
	SentimentDistribution         map[string]int `json:"sentiment_distribution"`
	CategoryDistribution          map[string]int `json:"category_distribution"`
	InsightSeverity               map[string]int `json:"insight_severity"`
	RecommendationPriority        map[string]int `json:"recommendation_priority"`
	TotalDocuments                int            `json:"total_documents"`
	TotalInsights                 int            `json:"total_insights"`
	TotalRecommendations          int            `json:"total_recommendations"`
	CleanedPercentage             float64        `json:"cleaned_percentage"`
	AvgSentimentConfidence        *float64       `json:"avg_sentiment_confidence"`
	AvgPrimaryCategoryProbability *float64       `json:"avg_primary_category_probability"`
}

type SentimentEntry struct {
	DocumentID string             `json:"document_id"`
	Sentiment  feedback.Sentiment `json:"sentiment"`
	Score      float64            `json:"score"`
	Confidence float64            `json:"confidence"`
	KeyPhrases []string           `json:"key_phrases"`
}

type CategoryEntry struct {
	DocumentID          string              `json:"document_id"`
	PrimaryCategory     feedback.Category   `json:"primary_category"`
	SecondaryCategories []feedback.Category `json:"secondary_categories"`
	CategoryConfidence  map[string]float64  `json:"category_confidence"`
	Keywords            []string            `json:"keywords"`
	Topics              []string            `json:"topics"`
}

type InsightEntry struct {
	ID                 string               `json:"id"`
	Type               feedback.InsightType `json:"type"`
	Description        string               `json:"description"`
	Severity           feedback.Severity    `json:"severity"`
	Frequency          int                  `json:"frequency"`
	TrendDirection     *feedback.Trend      `json:"trend_direction"`
	AffectedAreas      []string             `json:"affected_areas"`
	SupportingEvidence []string             `json:"supporting_evidence"`
}

type RecommendationEntry struct {
	ID              string                 `json:"id"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	Priority        feedback.Priority      `json:"priority"`
	Category        string                 `json:"category"`
	Effort          feedback.Effort        `json:"effort"`
	ExpectedImpact  string                 `json:"expected_impact"`
	Timeline        feedback.Timeline      `json:"timeline"`
	Resources       []string               `json:"resources"`
	SuccessMetrics  []string               `json:"success_metrics"`
	RelatedInsights []feedback.InsightType `json:"related_insights"`
}
