package collect

import (
	"context"
	"log"

	"github.com/TobiSchelling/feedbacklens/internal/config"
	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

// Result holds the results of a collection run.
type Result struct {
	TotalFound  int
	FilesFailed int
	Sources     map[string]int
}

// Collector gathers feedback documents from files and configured feeds.
type Collector struct {
	feedParser *FeedParser
}

// NewCollector creates a new document collector.
func NewCollector(cfg *config.Config) *Collector {
	c := &Collector{}
	if len(cfg.Input.Feeds) > 0 {
		feeds := make([]FeedConfig, len(cfg.Input.Feeds))
		for i, f := range cfg.Input.Feeds {
			feeds[i] = FeedConfig{URL: f.URL, Name: f.Name}
		}
		c.feedParser = NewFeedParser(feeds, cfg.Input.MaxPerFeed)
	}
	return c
}

// Collect loads every file in paths and, when includeFeeds is set, every
// configured feed. Files that cannot be read are logged and counted.
func (c *Collector) Collect(ctx context.Context, paths []string, includeFeeds bool) ([]feedback.Document, *Result) {
	r := &Result{Sources: make(map[string]int)}
	var docs []feedback.Document

	for _, path := range paths {
		loaded, err := LoadFile(path)
		if err != nil {
			log.Printf("Failed to load %s: %v", path, err)
			r.FilesFailed++
			continue
		}
		docs = append(docs, loaded...)
		r.Sources[path] += len(loaded)
	}

	if includeFeeds && c.feedParser != nil {
		log.Println("Collecting from RSS feeds...")
		for _, doc := range c.feedParser.ParseAll(ctx) {
			docs = append(docs, doc)
			if name, ok := doc.Metadata["feed"].(string); ok {
				r.Sources[name]++
			}
		}
	}

	r.TotalFound = len(docs)
	log.Printf("Collection complete: %d documents, %d files failed", r.TotalFound, r.FilesFailed)
	return docs, r
}
