package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TobiSchelling/feedbacklens/internal/config"
	"github.com/TobiSchelling/feedbacklens/internal/database"
	"github.com/TobiSchelling/feedbacklens/internal/pipeline"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestServer(t *testing.T) (*Server, *database.DB, *pipeline.Pipeline) {
	t.Helper()
	db := openTestDB(t)
	pipe := pipeline.New(config.Default(), db)
	srv, err := New(db, pipe)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv, db, pipe
}

func do(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

const batchBody = `[
{"id":"f1","content":"This system crashes constantly and the bug is never fixed."},
{"id":"f2","content":"Excellent work, the team delivered outstanding results, highly recommend this approach."},
{"id":"f3","content":"The deployment process is slow and the approval workflow causes long delays."}
]`

func TestIndexRoute(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := do(srv, "GET", "/", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Feedback Reports") {
		t.Error("expected 'Feedback Reports' in response body")
	}
}

func TestUnknownPage(t *testing.T) {
	srv, _, _ := newTestServer(t)
	if rec := do(srv, "GET", "/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSubmitBatchAndFetchReport(t *testing.T) {
	srv, _, pipe := newTestServer(t)

	rec := do(srv, "POST", "/api/batches", batchBody)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		BatchID       string `json:"batch_id"`
		Status        string `json:"status"`
		DocumentCount int    `json:"document_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if accepted.BatchID == "" || accepted.DocumentCount != 3 {
		t.Fatalf("unexpected response %+v", accepted)
	}

	pipe.Wait()

	rec = do(srv, "GET", "/api/batches/"+accepted.BatchID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status pipeline.BatchStatus
	json.Unmarshal(rec.Body.Bytes(), &status)
	if status.Status != "COMPLETED" || status.ReportID == "" {
		t.Fatalf("unexpected status %+v", status)
	}

	rec = do(srv, "GET", "/api/reports/"+status.ReportID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var rep map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if rep["report_id"] != status.ReportID || rep["document_count"] != float64(3) {
		t.Errorf("unexpected report %v", rep)
	}

	rec = do(srv, "GET", "/report/"+status.ReportID, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<h1>Feedback Analysis Report</h1>") {
		t.Errorf("expected rendered report page, got %d", rec.Code)
	}

	rec = do(srv, "GET", "/", "")
	if !strings.Contains(rec.Body.String(), "/report/"+status.ReportID) {
		t.Error("expected report link on index")
	}
}

func TestSubmitNDJSON(t *testing.T) {
	srv, _, pipe := newTestServer(t)
	body := "{\"id\":\"a\",\"content\":\"The onboarding documentation is unclear and confusing.\"}\n" +
		"{\"id\":\"b\",\"content\":\"Communication between teams has improved a lot lately.\"}\n"

	rec := do(srv, "POST", "/api/batches", body)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	pipe.Wait()
}

func TestBatchRejections(t *testing.T) {
	srv, _, pipe := newTestServer(t)
	body := `[
{"id":"ok","content":"The deployment process is slow and the approval workflow causes long delays."},
{"id":"noise","content":"#### $$$$ %%%% &&&& **** !!!! ???? ////"}
]`
	rec := do(srv, "POST", "/api/batches", body)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var accepted struct {
		BatchID string `json:"batch_id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &accepted)
	pipe.Wait()

	rec = do(srv, "GET", "/api/batches/"+accepted.BatchID+"/rejections", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got []rejectionJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding rejections: %v", err)
	}
	if len(got) != 1 || got[0].DocumentID != "noise" || got[0].Stage != "Validate" {
		t.Errorf("expected the symbol-only document rejected at validation, got %+v", got)
	}

	if rec := do(srv, "GET", "/api/batches/nope/rejections", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown batch, got %d", rec.Code)
	}
}

func TestSubmitInvalidBody(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := do(srv, "POST", "/api/batches", `[{"id": 1`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestBatchesMethodNotAllowed(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := do(srv, "DELETE", "/api/batches", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestFailedBatchStatus(t *testing.T) {
	srv, _, pipe := newTestServer(t)
	rec := do(srv, "POST", "/api/batches", `[{"id":"x","content":"tiny"}]`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var accepted map[string]any
	json.Unmarshal(rec.Body.Bytes(), &accepted)
	pipe.Wait()

	rec = do(srv, "GET", "/api/batches/"+accepted["batch_id"].(string), "")
	var status pipeline.BatchStatus
	json.Unmarshal(rec.Body.Bytes(), &status)
	if status.Status != "FAILED" || !strings.Contains(status.Error, "no valid documents") {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestBatchStatusFromDatabase(t *testing.T) {
	srv, db, _ := newTestServer(t)
	finished := "2026-02-06T10:00:05Z"
	db.UpsertBatch(&database.Batch{ID: "old", Status: "COMPLETED", DocumentCount: 4, ProcessedCount: 4, FinishedAt: &finished})

	rec := do(srv, "GET", "/api/batches/old", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"processed_count":4`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	if rec := do(srv, "GET", "/api/batches/unknown", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown batch, got %d", rec.Code)
	}
	if rec := do(srv, "GET", "/api/reports/unknown", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown report, got %d", rec.Code)
	}
	rec := do(srv, "GET", "/report/unknown", "")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "Report not found") {
		t.Errorf("expected not-found page, got %d", rec.Code)
	}
}

func TestStaticRoute(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := do(srv, "GET", "/static/style.css", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "font-sans") {
		t.Error("expected CSS content")
	}
}
