package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/TobiSchelling/feedbacklens/internal/categorize"
	"github.com/TobiSchelling/feedbacklens/internal/clean"
	"github.com/TobiSchelling/feedbacklens/internal/config"
	"github.com/TobiSchelling/feedbacklens/internal/database"
	"github.com/TobiSchelling/feedbacklens/internal/feedback"
	"github.com/TobiSchelling/feedbacklens/internal/insight"
	"github.com/TobiSchelling/feedbacklens/internal/recommend"
	"github.com/TobiSchelling/feedbacklens/internal/report"
	"github.com/TobiSchelling/feedbacklens/internal/sentiment"
	"github.com/TobiSchelling/feedbacklens/internal/validate"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Outputs holds what each stage produced. Stages that did not run leave
// their fields empty.
type Outputs struct {
	Validated       []feedback.Document
	Cleaned         []feedback.CleanedDocument
	Sentiments      []feedback.SentimentResult
	Categories      []feedback.CategoryResult
	Insights        []feedback.Insight
	Recommendations []feedback.Recommendation
	Rejected        map[string][]feedback.Rejection
	Report          *report.Report
	ReportPaths     []string

	batchID  string
	received int
}

// Result holds the results of a full pipeline run.
type Result struct {
	BatchID string
	Status  feedback.Status
	Err     error
	Steps   []StepResult
	Stats   Stats
	Outputs
}

type stage struct {
	name string
	run  func(p *Pipeline, o *Outputs) (string, error)
}

// stages run in order; each needs the full output of the one before it.
var stages = []stage{
	{"Validate", (*Pipeline).runValidate},
	{"Clean", (*Pipeline).runClean},
	{"Sentiment", (*Pipeline).runSentiment},
	{"Categorize", (*Pipeline).runCategorize},
	{"Insights", (*Pipeline).runInsights},
	{"Recommendations", (*Pipeline).runRecommendations},
	{"Report", (*Pipeline).runReport},
}

// Pipeline orchestrates the 7-step feedback analysis pipeline.
type Pipeline struct {
	db      *database.DB
	tracker *Tracker

	validator   *validate.Validator
	cleaner     *clean.Cleaner
	analyzer    *sentiment.Analyzer
	categorizer *categorize.Categorizer
	miner       *insight.Miner
	synth       *recommend.Synthesizer

	reportDir string
	formats   []string

	wg  sync.WaitGroup
	now func() time.Time
}

// New creates a new pipeline. db may be nil, in which case batches are
// only tracked in memory.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	return &Pipeline{
		db:          db,
		tracker:     NewTracker(),
		validator:   validate.NewValidator(cfg.Validation),
		cleaner:     clean.NewCleaner(cfg.Analysis.MaxEntities),
		analyzer:    sentiment.NewAnalyzer(sentiment.DefaultLexicon()),
		categorizer: categorize.NewCategorizer(categorize.DefaultTaxonomy(), cfg.Analysis.MinCategoryConfidence),
		miner:       insight.NewMiner(cfg.Analysis),
		synth:       recommend.NewSynthesizer(),
		now:         time.Now,
	}
}

// SetOutput makes the Report step write report files to dir.
func (p *Pipeline) SetOutput(dir string, formats []string) {
	p.reportDir = dir
	p.formats = formats
}

// Tracker returns the tracker holding the status of every batch this
// pipeline has seen.
func (p *Pipeline) Tracker() *Tracker {
	return p.tracker
}

// Run executes the full pipeline over docs as a new batch.
func (p *Pipeline) Run(ctx context.Context, docs []feedback.Document) *Result {
	id := p.register(len(docs))
	return p.run(ctx, id, docs)
}

// Submit registers a new batch and runs it in the background. It returns
// the batch ID immediately.
func (p *Pipeline) Submit(ctx context.Context, docs []feedback.Document) string {
	id := p.register(len(docs))
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx, id, docs)
	}()
	return id
}

// Wait blocks until every submitted batch has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) register(n int) string {
	id := feedback.NewID()
	p.tracker.Set(BatchStatus{
		ID:            id,
		Status:        feedback.StatusPending,
		DocumentCount: n,
		StartedAt:     p.now().UTC(),
	})
	p.persistBatch(id, nil)
	return id
}

func (p *Pipeline) run(ctx context.Context, id string, docs []feedback.Document) *Result {
	start := p.now()
	log.Printf("Starting batch %s with %d documents", id, len(docs))

	r := &Result{BatchID: id, Status: feedback.StatusProcessing}
	r.Outputs = Outputs{
		Validated: docs,
		Rejected:  make(map[string][]feedback.Rejection),
		batchID:   id,
		received:  len(docs),
	}
	p.tracker.Update(id, func(s *BatchStatus) { s.Status = feedback.StatusProcessing })
	p.persistBatch(id, nil)

	// Each stage reads the previous stage's output from r.Outputs.
	for i, s := range stages {
		if err := ctx.Err(); err != nil {
			r.Err = fmt.Errorf("batch cancelled before %s: %w", s.name, err)
			break
		}
		log.Printf("Step %d/%d: %s...", i+1, len(stages), s.name)
		step := p.runStage(s, &r.Outputs)
		r.Steps = append(r.Steps, step)
		if step.Err != nil {
			r.Err = step.Err
			break
		}
	}

	r.Stats = r.Outputs.stats(len(docs), p.now().Sub(start))
	if r.Err != nil {
		r.Status = feedback.StatusFailed
		log.Printf("Batch %s failed: %v", id, r.Err)
	} else {
		r.Status = feedback.StatusCompleted
		log.Printf("Batch %s completed in %.2fs", id, r.Stats.ElapsedSeconds)
	}

	p.finish(r)
	return r
}

func (p *Pipeline) runStage(s stage, o *Outputs) (res StepResult) {
	defer func() {
		if rec := recover(); rec != nil {
			res = StepResult{Name: s.name, Err: fmt.Errorf("%s stage panicked: %v", s.name, rec)}
		}
	}()
	summary, err := s.run(p, o)
	return StepResult{Name: s.name, Summary: summary, Err: err}
}

func (p *Pipeline) runValidate(o *Outputs) (string, error) {
	b := p.validator.Validate(o.Validated)
	o.Validated = b.Accepted
	o.Rejected["Validate"] = b.Rejected
	if o.received > 0 && len(b.Accepted) == 0 {
		return "", fmt.Errorf("%w: all %d documents were rejected", feedback.ErrNoValidDocuments, o.received)
	}
	return fmt.Sprintf("Validated %d documents: %s", o.received, b.Summary()), nil
}

func (p *Pipeline) runClean(o *Outputs) (string, error) {
	b := p.cleaner.Clean(o.Validated)
	o.Cleaned = b.Accepted
	o.Rejected["Clean"] = b.Rejected
	if len(o.Validated) > 0 && len(b.Accepted) == 0 {
		return "", fmt.Errorf("%w: no documents survived cleaning", feedback.ErrEmptyContent)
	}
	return fmt.Sprintf("Cleaned documents: %s", b.Summary()), nil
}

func (p *Pipeline) runSentiment(o *Outputs) (string, error) {
	b := p.analyzer.Analyze(o.Cleaned)
	o.Sentiments = b.Accepted
	o.Rejected["Sentiment"] = b.Rejected
	return fmt.Sprintf("Scored sentiment: %s", b.Summary()), nil
}

func (p *Pipeline) runCategorize(o *Outputs) (string, error) {
	b := p.categorizer.Categorize(o.Cleaned)
	o.Categories = b.Accepted
	o.Rejected["Categorize"] = b.Rejected
	return fmt.Sprintf("Categorized documents: %s", b.Summary()), nil
}

func (p *Pipeline) runInsights(o *Outputs) (string, error) {
	o.Insights = p.miner.Mine(o.Cleaned, o.Sentiments, o.Categories)
	return fmt.Sprintf("Generated %d insights", len(o.Insights)), nil
}

func (p *Pipeline) runRecommendations(o *Outputs) (string, error) {
	o.Recommendations = p.synth.Synthesize(o.Insights)
	return fmt.Sprintf("Generated %d recommendations", len(o.Recommendations)), nil
}

func (p *Pipeline) runReport(o *Outputs) (string, error) {
	o.Report = report.Assemble(report.Input{
		BatchID:         o.batchID,
		Received:        o.received,
		Documents:       o.Cleaned,
		Sentiments:      o.Sentiments,
		Categories:      o.Categories,
		Insights:        o.Insights,
		Recommendations: o.Recommendations,
	})
	if p.reportDir == "" {
		return fmt.Sprintf("Assembled report %s", o.Report.ReportID), nil
	}
	paths, err := report.Save(p.reportDir, o.Report, p.formats)
	o.ReportPaths = paths
	if err != nil {
		return "", fmt.Errorf("saving report: %w", err)
	}
	return fmt.Sprintf("Assembled report %s, wrote %d files", o.Report.ReportID, len(paths)), nil
}

// DryRun validates docs and lists the steps that would run, without
// analyzing anything or recording a batch.
func (p *Pipeline) DryRun(docs []feedback.Document) *Result {
	r := &Result{Status: feedback.StatusPending}

	b := p.validator.Validate(docs)
	r.Outputs.Validated = b.Accepted
	r.Outputs.Rejected = map[string][]feedback.Rejection{"Validate": b.Rejected}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Validate",
		Summary: fmt.Sprintf("[dry-run] %d of %d documents pass validation", len(b.Accepted), len(docs)),
	})
	if len(docs) > 0 && len(b.Accepted) == 0 {
		r.Err = fmt.Errorf("%w: all %d documents were rejected", feedback.ErrNoValidDocuments, len(docs))
		r.Steps[0].Err = r.Err
		return r
	}

	for _, s := range stages[1:] {
		summary := fmt.Sprintf("[dry-run] Would run %s over %d documents", s.name, len(b.Accepted))
		if s.name == "Report" && p.reportDir != "" {
			summary = fmt.Sprintf("[dry-run] Would write %v report to %s", p.formats, p.reportDir)
		}
		r.Steps = append(r.Steps, StepResult{Name: s.name, Summary: summary})
	}
	return r
}

func (p *Pipeline) finish(r *Result) {
	finished := p.now().UTC()
	p.tracker.Update(r.BatchID, func(s *BatchStatus) {
		s.Status = r.Status
		s.FinishedAt = &finished
		if r.Err != nil {
			s.Error = r.Err.Error()
		}
		if r.Report != nil {
			s.ReportID = r.Report.ReportID
		}
	})

	if p.db == nil {
		return
	}
	p.persistBatch(r.BatchID, &r.Stats)

	var rejections []database.Rejection
	for stage, rej := range r.Rejected {
		for _, x := range rej {
			rejections = append(rejections, database.Rejection{
				BatchID: r.BatchID, Stage: stage, DocumentID: x.ID, Reason: x.Reason,
			})
		}
	}
	if err := p.db.InsertRejections(rejections); err != nil {
		log.Printf("Failed to store rejections for batch %s: %v", r.BatchID, err)
	}

	if r.Report == nil {
		return
	}
	if err := p.storeReport(r.Report); err != nil {
		log.Printf("Failed to store report %s: %v", r.Report.ReportID, err)
	}
}

func (p *Pipeline) persistBatch(id string, stats *Stats) {
	if p.db == nil {
		return
	}
	s, ok := p.tracker.Get(id)
	if !ok {
		return
	}

	started := s.StartedAt.Format(time.RFC3339)
	b := &database.Batch{
		ID:            id,
		Status:        string(s.Status),
		DocumentCount: s.DocumentCount,
		StartedAt:     &started,
	}
	if s.Error != "" {
		b.Error = &s.Error
	}
	if s.FinishedAt != nil {
		f := s.FinishedAt.Format(time.RFC3339)
		b.FinishedAt = &f
	}
	if stats != nil {
		b.ProcessedCount = stats.DocumentsProcessed
		b.RejectedCount = stats.Rejected()
		if data, err := json.Marshal(stats); err == nil {
			js := string(data)
			b.StatsJSON = &js
		}
	}
	if err := p.db.UpsertBatch(b); err != nil {
		log.Printf("Failed to store batch %s: %v", id, err)
	}
}

func (p *Pipeline) storeReport(rep *report.Report) error {
	var buf bytes.Buffer
	if err := report.WriteJSON(&buf, rep); err != nil {
		return err
	}
	return p.db.InsertReport(&database.StoredReport{
		ReportID:            rep.ReportID,
		BatchID:             rep.BatchID,
		GeneratedAt:         rep.GeneratedAt.Format(time.RFC3339),
		DocumentCount:       rep.DocumentCount,
		InsightCount:        rep.InsightCount,
		RecommendationCount: rep.RecommendationCount,
		ReportJSON:          buf.String(),
		Markdown:            report.Markdown(rep),
	})
}
