package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

const articlePage = `<html><head><title>Feedback</title></head><body>
<nav>Home | About</nav>
<article>
<h1>Quarterly feedback</h1>
<p>The deployment process has improved a lot this quarter, and the team responded quickly to every incident that was raised.</p>
<p>However the documentation is still unclear in several places and new hires struggle with the onboarding steps for the billing system.</p>
</article>
</body></html>`

func TestFetchMissingContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/article":
			w.Write([]byte(articlePage))
		case "/short":
			w.Write([]byte("<html><body><p>tiny</p></body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	docs := []feedback.Document{
		{ID: "has-content", URL: srv.URL + "/article", Content: "already here"},
		{ID: "article", URL: srv.URL + "/article"},
		{ID: "short", URL: srv.URL + "/short"},
		{ID: "no-url"},
	}

	f := NewContentFetcher(5 * time.Second)
	out, res := f.FetchMissingContent(context.Background(), docs)

	if res.Fetched != 1 || res.AlreadyHadContent != 1 || res.Failed() != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if !strings.Contains(out[1].Content, "documentation is still unclear") {
		t.Errorf("expected extracted article text, got %q", out[1].Content)
	}
	if out[0].Content != "already here" {
		t.Error("existing content must not be replaced")
	}
	if docs[1].Content != "" {
		t.Error("input documents must not be mutated")
	}
	if res.Failures[0].ID != "short" {
		t.Errorf("expected the short page to be reported, got %+v", res.Failures)
	}
}

func TestFetchRejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte(strings.Repeat("x", 500)))
	}))
	defer srv.Close()

	out, res := NewContentFetcher(time.Second).FetchMissingContent(context.Background(),
		[]feedback.Document{{ID: "pdf", URL: srv.URL + "/report.pdf"}, {ID: "bad", URL: "::not a url"}})
	if res.Failed() != 2 || out[0].Content != "" {
		t.Fatalf("expected both documents to fail, got %+v", res)
	}
	if !strings.Contains(res.Failures[0].Reason, "unsupported content type application/pdf") {
		t.Errorf("unexpected reason %q", res.Failures[0].Reason)
	}
	if res.Failures[1].Reason != "invalid url" {
		t.Errorf("unexpected reason %q", res.Failures[1].Reason)
	}
}

func TestFetchSkipsFailedDomain(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	docs := []feedback.Document{
		{ID: "a", URL: srv.URL + "/a"},
		{ID: "b", URL: srv.URL + "/b"},
		{ID: "c", URL: srv.URL + "/c"},
	}
	_, res := NewContentFetcher(0).FetchMissingContent(context.Background(), docs)
	if res.Failed() != 3 {
		t.Errorf("expected 3 failures, got %d", res.Failed())
	}
	if !strings.Contains(res.Failures[2].Reason, "skipped after HTTP 410") {
		t.Errorf("expected later documents to be skipped, got %q", res.Failures[2].Reason)
	}
	if hits != 1 {
		t.Errorf("expected one request before the domain was skipped, got %d", hits)
	}
}
