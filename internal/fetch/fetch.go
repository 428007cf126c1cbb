package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

const (
	minContentLength = 100
	maxBodyBytes     = 5 << 20
	defaultTimeout   = 15 * time.Second
	maxRedirects     = 10
)

var errNoContent = errors.New("no extractable content")

// Result counts the outcome of a fetch run. Failures lists every document
// that had a URL but still has no content, with the reason.
type Result struct {
	Fetched           int
	AlreadyHadContent int
	Failures          []feedback.Rejection
}

// Failed is the number of documents left without content.
func (r *Result) Failed() int { return len(r.Failures) }

// ContentFetcher fills in document text from the page at the document URL.
type ContentFetcher struct {
	client *http.Client
}

// NewContentFetcher creates a fetcher. A zero timeout uses 15 seconds.
func NewContentFetcher(timeout time.Duration) *ContentFetcher {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &ContentFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FetchMissingContent returns a copy of docs where every document that has a
// URL but no content carries the extracted page text. After an HTTP status
// error the remaining documents from that host are skipped.
func (f *ContentFetcher) FetchMissingContent(ctx context.Context, docs []feedback.Document) ([]feedback.Document, *Result) {
	out := make([]feedback.Document, len(docs))
	copy(out, docs)

	result := &Result{}
	blocked := make(map[string]int)
	fail := func(id, reason string) {
		result.Failures = append(result.Failures, feedback.Rejection{ID: id, Reason: reason})
	}

	for i := range out {
		doc := &out[i]
		if doc.URL == "" {
			continue
		}
		if strings.TrimSpace(doc.Content) != "" {
			result.AlreadyHadContent++
			continue
		}
		if err := ctx.Err(); err != nil {
			fail(doc.ID, err.Error())
			continue
		}

		u, err := url.Parse(doc.URL)
		if err != nil || u.Host == "" {
			fail(doc.ID, "invalid url")
			continue
		}
		host := strings.ToLower(u.Host)
		if code, ok := blocked[host]; ok {
			fail(doc.ID, fmt.Sprintf("skipped after HTTP %d from %s", code, host))
			continue
		}

		content, err := f.fetchContent(ctx, u)
		var status *statusError
		switch {
		case errors.As(err, &status):
			blocked[host] = status.code
			log.Printf("HTTP %d for %s, skipping remaining from %s", status.code, doc.URL, host)
			fail(doc.ID, err.Error())
		case err != nil:
			log.Printf("No content for document %s from %s: %v", doc.ID, doc.URL, err)
			fail(doc.ID, err.Error())
		default:
			doc.Content = content
			if doc.ContentType == "" {
				doc.ContentType = "text/plain"
			}
			result.Fetched++
			log.Printf("Fetched content for document %s", doc.ID)
		}
	}

	log.Printf("Content fetch complete: %d fetched, %d failed", result.Fetched, result.Failed())
	return out, result
}

func (f *ContentFetcher) fetchContent(ctx context.Context, u *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "feedbacklens/1.0 (feedback analyzer)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &statusError{code: resp.StatusCode}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); mt != "" && !strings.Contains(mt, "html") {
			return "", fmt.Errorf("unsupported content type %s", mt)
		}
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxBodyBytes), u)
	if err != nil {
		return "", fmt.Errorf("extracting page: %w", err)
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	if len(text) <= minContentLength {
		return "", errNoContent
	}
	return text, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.code, http.StatusText(e.code))
}
