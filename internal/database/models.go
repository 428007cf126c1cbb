package database

// Batch is the persisted lifecycle record of one pipeline run.
type Batch struct {
	ID             string
	Status         string
	Error          *string
	DocumentCount  int
	ProcessedCount int
	RejectedCount  int
	StartedAt      *string
	FinishedAt     *string
	StatsJSON      *string
}

// Rejection is a document dropped by a stage of a batch.
type Rejection struct {
	BatchID    string
	Stage      string
	DocumentID string
	Reason     string
}

// StoredReport is a generated report with its rendered markdown.
type StoredReport struct {
	ReportID            string
	BatchID             string
	GeneratedAt         string
	DocumentCount       int
	InsightCount        int
	RecommendationCount int
	ReportJSON          string
	Markdown            string
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalBatches       int
	CompletedBatches   int
	FailedBatches      int
	Reports            int
	DocumentsReceived  int
	DocumentsProcessed int
	Rejections         int
}
