package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TobiSchelling/feedbacklens/internal/config"
	"github.com/TobiSchelling/feedbacklens/internal/database"
	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

const (
	negativeText = "This system crashes constantly and the bug is never fixed."
	positiveText = "Excellent work, the team delivered outstanding results, highly recommend this approach."
)

func mixedBatch() []feedback.Document {
	var docs []feedback.Document
	for i := 0; i < 10; i++ {
		text := positiveText
		if i < 6 {
			text = negativeText
		}
		docs = append(docs, feedback.Document{ID: fmt.Sprintf("doc-%d", i+1), Content: text})
	}
	return docs
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunEndToEnd(t *testing.T) {
	p := New(config.Default(), nil)
	r := p.Run(context.Background(), mixedBatch())

	if r.Err != nil || r.Status != feedback.StatusCompleted {
		t.Fatalf("expected completed batch, got %s: %v", r.Status, r.Err)
	}
	if len(r.Steps) != len(stages) {
		t.Errorf("expected %d steps, got %d", len(stages), len(r.Steps))
	}
	if r.Report == nil || r.Report.DocumentCount != 10 || r.Report.BatchID != r.BatchID {
		t.Fatalf("unexpected report %+v", r.Report)
	}

	var shift *feedback.Insight
	for i := range r.Insights {
		if r.Insights[i].Type == feedback.InsightSentimentShift &&
			strings.HasPrefix(r.Insights[i].Description, "Negative sentiment is dominant") {
			shift = &r.Insights[i]
		}
	}
	if shift == nil {
		t.Fatal("expected a batch-wide negative sentiment_shift insight")
	}
	if shift.Severity != feedback.SeverityMedium {
		t.Errorf("expected medium severity at a 0.6 negative ratio, got %s", shift.Severity)
	}
	if len(r.Recommendations) == 0 {
		t.Error("expected recommendations")
	}

	for _, c := range r.Categories {
		if c.DocumentID == "doc-1" && c.PrimaryCategory != feedback.CategoryTechnicalIssues {
			t.Errorf("expected technical_issues for the crash report, got %s", c.PrimaryCategory)
		}
	}

	s := r.Stats
	if s.DocumentsReceived != 10 || s.DocumentsProcessed != 10 || s.Rejected() != 0 {
		t.Errorf("unexpected stats %+v", s)
	}
	if s.SentimentDistribution["negative"] != 6 || s.SentimentDistribution["positive"] != 4 {
		t.Errorf("unexpected sentiment distribution %v", s.SentimentDistribution)
	}
	if s.AverageQuality <= 0 || s.AverageQuality > 1 {
		t.Errorf("average quality out of range: %v", s.AverageQuality)
	}

	status, ok := p.Tracker().Get(r.BatchID)
	if !ok || status.Status != feedback.StatusCompleted || status.ReportID != r.Report.ReportID {
		t.Errorf("unexpected tracked status %+v", status)
	}
	if status.FinishedAt == nil {
		t.Error("expected finished_at")
	}
}

func TestRunEmptyInput(t *testing.T) {
	r := New(config.Default(), nil).Run(context.Background(), nil)
	if r.Status != feedback.StatusCompleted || r.Err != nil {
		t.Fatalf("expected empty batch to complete, got %s: %v", r.Status, r.Err)
	}
	if r.Report == nil || r.Report.DocumentCount != 0 || len(r.Report.Insights) != 0 {
		t.Errorf("expected empty report, got %+v", r.Report)
	}
}

func TestRunNoValidDocuments(t *testing.T) {
	p := New(config.Default(), nil)
	r := p.Run(context.Background(), []feedback.Document{
		{ID: "a", Content: "short"},
		{ID: "b", Content: "!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!"},
	})

	if r.Status != feedback.StatusFailed || !errors.Is(r.Err, feedback.ErrNoValidDocuments) {
		t.Fatalf("expected failure with ErrNoValidDocuments, got %s: %v", r.Status, r.Err)
	}
	if len(r.Steps) != 1 {
		t.Errorf("expected the batch to stop after validation, got %d steps", len(r.Steps))
	}
	if r.Stats.RejectedByStage["Validate"] != 2 {
		t.Errorf("expected 2 validation rejections, got %v", r.Stats.RejectedByStage)
	}

	status, _ := p.Tracker().Get(r.BatchID)
	if status.Status != feedback.StatusFailed || !strings.Contains(status.Error, "no valid documents") {
		t.Errorf("unexpected tracked status %+v", status)
	}
}

func TestRunNothingSurvivesCleaning(t *testing.T) {
	r := New(config.Default(), nil).Run(context.Background(), []feedback.Document{
		{ID: "a", Content: "Ok. Fine. Yes. No. Sure."},
	})
	if r.Status != feedback.StatusFailed || !errors.Is(r.Err, feedback.ErrEmptyContent) {
		t.Fatalf("expected cleaning failure, got %s: %v", r.Status, r.Err)
	}
	if len(r.Validated) != 1 {
		t.Error("expected validation output to remain available")
	}
	if r.Steps[len(r.Steps)-1].Name != "Clean" {
		t.Errorf("expected Clean to be the last step, got %s", r.Steps[len(r.Steps)-1].Name)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(config.Default(), nil).Run(ctx, mixedBatch())
	if r.Status != feedback.StatusFailed || !errors.Is(r.Err, context.Canceled) {
		t.Fatalf("expected cancelled batch to fail, got %s: %v", r.Status, r.Err)
	}
	if len(r.Steps) != 0 {
		t.Errorf("expected no steps, got %d", len(r.Steps))
	}
}

func TestRunStageRecoversPanic(t *testing.T) {
	p := New(config.Default(), nil)
	boom := stage{name: "Boom", run: func(*Pipeline, *Outputs) (string, error) {
		panic("index out of range")
	}}
	step := p.runStage(boom, &Outputs{})
	if step.Err == nil || !strings.Contains(step.Err.Error(), "Boom stage panicked") {
		t.Errorf("expected recovered panic, got %v", step.Err)
	}
}

func TestRunPersists(t *testing.T) {
	db := openTestDB(t)
	p := New(config.Default(), db)

	docs := append(mixedBatch(), feedback.Document{ID: "junk", Content: "##########################"})
	r := p.Run(context.Background(), docs)
	if r.Err != nil {
		t.Fatalf("unexpected error: %v", r.Err)
	}

	b, err := db.GetBatch(r.BatchID)
	if err != nil || b == nil {
		t.Fatalf("GetBatch: %v, %v", b, err)
	}
	if b.Status != "COMPLETED" || b.DocumentCount != 11 || b.ProcessedCount != 10 || b.RejectedCount != 1 {
		t.Errorf("unexpected stored batch %+v", b)
	}
	if b.StatsJSON == nil || !strings.Contains(*b.StatsJSON, `"documents_received":11`) {
		t.Errorf("expected stats json, got %v", b.StatsJSON)
	}

	rej, err := db.GetRejections(r.BatchID)
	if err != nil || len(rej) != 1 || rej[0].DocumentID != "junk" || rej[0].Stage != "Validate" {
		t.Errorf("unexpected rejections %+v, %v", rej, err)
	}

	rep, err := db.GetReportForBatch(r.BatchID)
	if err != nil || rep == nil {
		t.Fatalf("GetReportForBatch: %v, %v", rep, err)
	}
	if rep.ReportID != r.Report.ReportID || !strings.Contains(rep.ReportJSON, r.BatchID) {
		t.Errorf("unexpected stored report %+v", rep)
	}
	if !strings.HasPrefix(rep.Markdown, "# Feedback Analysis Report") {
		t.Errorf("expected markdown body, got %q", rep.Markdown[:min(40, len(rep.Markdown))])
	}
}

func TestRunWritesReportFiles(t *testing.T) {
	dir := t.TempDir()
	p := New(config.Default(), nil)
	p.SetOutput(dir, []string{"json", "md"})

	r := p.Run(context.Background(), mixedBatch())
	if r.Err != nil {
		t.Fatalf("unexpected error: %v", r.Err)
	}
	if len(r.ReportPaths) != 3 {
		t.Fatalf("expected 3 report files, got %v", r.ReportPaths)
	}
	if _, err := os.Stat(filepath.Join(dir, r.Report.ReportID+"_report.md")); err != nil {
		t.Errorf("expected markdown report: %v", err)
	}
}

func TestRunUnknownFormatFailsBatch(t *testing.T) {
	p := New(config.Default(), nil)
	p.SetOutput(t.TempDir(), []string{"pdf"})

	r := p.Run(context.Background(), mixedBatch())
	if r.Status != feedback.StatusFailed {
		t.Fatalf("expected failure for unsupported format, got %s", r.Status)
	}
	if len(r.Insights) == 0 || r.Report == nil {
		t.Error("expected earlier outputs to remain on the result")
	}
}

func TestSubmit(t *testing.T) {
	p := New(config.Default(), openTestDB(t))
	id := p.Submit(context.Background(), mixedBatch())
	if id == "" {
		t.Fatal("expected batch id")
	}
	if _, ok := p.Tracker().Get(id); !ok {
		t.Fatal("expected batch to be tracked immediately")
	}

	p.Wait()
	status, _ := p.Tracker().Get(id)
	if status.Status != feedback.StatusCompleted || status.ReportID == "" {
		t.Errorf("unexpected status after wait %+v", status)
	}
}

func TestDryRun(t *testing.T) {
	p := New(config.Default(), nil)
	docs := append(mixedBatch(), feedback.Document{ID: "bad", Content: "tiny"})

	r := p.DryRun(docs)
	if r.Err != nil {
		t.Fatalf("unexpected error: %v", r.Err)
	}
	if len(r.Steps) != len(stages) {
		t.Errorf("expected %d planned steps, got %d", len(stages), len(r.Steps))
	}
	if r.Steps[0].Summary != "[dry-run] 10 of 11 documents pass validation" {
		t.Errorf("unexpected validation summary %q", r.Steps[0].Summary)
	}
	if len(r.Cleaned) != 0 || r.Report != nil {
		t.Error("dry run must not analyze documents")
	}
	if len(p.Tracker().All()) != 0 {
		t.Error("dry run must not register a batch")
	}

	r = p.DryRun([]feedback.Document{{ID: "bad", Content: "tiny"}})
	if !errors.Is(r.Err, feedback.ErrNoValidDocuments) {
		t.Errorf("expected ErrNoValidDocuments, got %v", r.Err)
	}
}

func TestStatsAverageConfidence(t *testing.T) {
	o := &Outputs{
		Cleaned: []feedback.CleanedDocument{{ID: "a", QualityScore: 0.4}, {ID: "b", QualityScore: 0.8}},
		Sentiments: []feedback.SentimentResult{
			{DocumentID: "a", Sentiment: feedback.SentimentNegative, Confidence: 0.2},
			{DocumentID: "b", Sentiment: feedback.SentimentNeutral, Confidence: 0.4},
		},
		Categories: []feedback.CategoryResult{
			{DocumentID: "a", PrimaryCategory: feedback.CategoryCommunication, Confidence: []feedback.CategoryScore{{Category: feedback.CategoryCommunication, Confidence: 0.6}}},
			{DocumentID: "b", PrimaryCategory: feedback.CategoryOther},
		},
		Rejected: map[string][]feedback.Rejection{"Clean": {{ID: "c", Reason: "empty"}}, "Sentiment": nil},
	}
	s := o.stats(3, 0)

	if got := s.AverageConfidence; got < 0.3999 || got > 0.4001 {
		t.Errorf("expected average confidence 0.4, got %v", got)
	}
	if got := s.AverageQuality; got < 0.5999 || got > 0.6001 {
		t.Errorf("expected average quality 0.6, got %v", got)
	}
	if s.Rejected() != 1 || len(s.RejectedByStage) != 1 {
		t.Errorf("unexpected rejections %v", s.RejectedByStage)
	}
	if s.CategoryDistribution["other"] != 1 {
		t.Errorf("unexpected category distribution %v", s.CategoryDistribution)
	}
}
