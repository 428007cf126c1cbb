package server

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/TobiSchelling/feedbacklens/internal/collect"
	"github.com/TobiSchelling/feedbacklens/internal/database"
	"github.com/TobiSchelling/feedbacklens/internal/pipeline"
	"github.com/TobiSchelling/feedbacklens/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

const maxBatchBytes = 32 << 20

// Server is the HTTP server for submitting batches and browsing reports.
type Server struct {
	db    *database.DB
	pipe  *pipeline.Pipeline
	pages map[string]*template.Template
	mux   *http.ServeMux
}

// New creates a new Server. Batches submitted over HTTP run on pipe.
func New(db *database.DB, pipe *pipeline.Pipeline) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown":   report.RenderMarkdown,
		"formatTime": formatTime,
		"lower": func(v any) string {
			return strings.ToLower(fmt.Sprint(v))
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "report.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, pipe: pipe, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Pages
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/report/", s.handleReport)

	// API
	s.mux.HandleFunc("/api/batches", s.handleBatches)
	s.mux.HandleFunc("/api/batches/", s.handleBatchStatus)
	s.mux.HandleFunc("/api/reports/", s.handleReportJSON)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	reports, err := s.db.GetAllReports()
	if err != nil {
		log.Printf("Error listing reports: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Reports": reports,
		"Batches": s.pipe.Tracker().All(),
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	reportID := strings.TrimPrefix(r.URL.Path, "/report/")
	if reportID == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	rep, err := s.db.GetReport(reportID)
	if err != nil {
		log.Printf("Error loading report %s: %v", reportID, err)
	}
	if rep == nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
	}

	s.render(w, "report.html", map[string]any{
		"Report":   rep,
		"ReportID": reportID,
	})
}

// handleBatches accepts a JSON array, a single JSON object or NDJSON and
// starts the batch in the background.
func (s *Server) handleBatches(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.pipe.Tracker().All())
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	docs, err := collect.Load(http.MaxBytesReader(w, r.Body, maxBatchBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid batch: %v", err))
		return
	}

	// The batch outlives the request.
	id := s.pipe.Submit(context.Background(), docs)
	log.Printf("Accepted batch %s with %d documents", id, len(docs))

	w.Header().Set("Location", "/api/batches/"+id)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"batch_id":       id,
		"status":         "PENDING",
		"document_count": len(docs),
	})
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/batches/")
	if id == "" {
		s.handleBatches(w, r)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if batchID, ok := strings.CutSuffix(id, "/rejections"); ok {
		s.handleRejections(w, batchID)
		return
	}

	if status, ok := s.pipe.Tracker().Get(id); ok {
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Batches from earlier runs are only in the database.
	b, err := s.db.GetBatch(id)
	if err != nil {
		log.Printf("Error loading batch %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("batch %s not found", id))
		return
	}

	resp := map[string]any{
		"batch_id":        b.ID,
		"status":          b.Status,
		"document_count":  b.DocumentCount,
		"processed_count": b.ProcessedCount,
		"rejected_count":  b.RejectedCount,
	}
	if b.Error != nil {
		resp["error"] = *b.Error
	}
	if b.StartedAt != nil {
		resp["started_at"] = *b.StartedAt
	}
	if b.FinishedAt != nil {
		resp["finished_at"] = *b.FinishedAt
	}
	if rep, _ := s.db.GetReportForBatch(b.ID); rep != nil {
		resp["report_id"] = rep.ReportID
	}
	writeJSON(w, http.StatusOK, resp)
}

type rejectionJSON struct {
	Stage      string `json:"stage"`
	DocumentID string `json:"document_id"`
	Reason     string `json:"reason"`
}

// handleRejections lists the documents a finished batch dropped, per stage.
func (s *Server) handleRejections(w http.ResponseWriter, id string) {
	b, err := s.db.GetBatch(id)
	if err != nil {
		log.Printf("Error loading batch %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("batch %s not found", id))
		return
	}

	rows, err := s.db.GetRejections(id)
	if err != nil {
		log.Printf("Error loading rejections for %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	out := make([]rejectionJSON, len(rows))
	for i, r := range rows {
		out[i] = rejectionJSON{Stage: r.Stage, DocumentID: r.DocumentID, Reason: r.Reason}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReportJSON(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/reports/")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rep, err := s.db.GetReport(id)
	if err != nil {
		log.Printf("Error loading report %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if rep == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("report %s not found", id))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rep.ReportJSON))
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func formatTime(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Format("Jan 02, 2006 15:04")
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, pipe *pipeline.Pipeline, port int) error {
	srv, err := New(db, pipe)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
