package collect

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

const defaultMaxPerFeed = 20

// FeedConfig represents a single feed configuration.
type FeedConfig struct {
	URL  string
	Name string
}

// FeedParser turns RSS/Atom feed items into feedback documents.
type FeedParser struct {
	feeds      []FeedConfig
	maxPerFeed int
	parser     *gofeed.Parser
}

// NewFeedParser creates a new FeedParser.
func NewFeedParser(feeds []FeedConfig, maxPerFeed int) *FeedParser {
	if maxPerFeed <= 0 {
		maxPerFeed = defaultMaxPerFeed
	}
	return &FeedParser{feeds: feeds, maxPerFeed: maxPerFeed, parser: gofeed.NewParser()}
}

// ParseAll parses all configured feeds. A feed that fails is logged and skipped.
func (fp *FeedParser) ParseAll(ctx context.Context) []feedback.Document {
	var all []feedback.Document
	for _, fc := range fp.feeds {
		name := fc.Name
		if name == "" {
			name = extractSourceName(fc.URL)
		}

		docs, err := fp.parseFeed(ctx, fc.URL, name)
		if err != nil {
			log.Printf("Failed to parse feed %s: %v", fc.URL, err)
			continue
		}
		all = append(all, docs...)
		log.Printf("Parsed %d entries from %s", len(docs), name)
	}
	return all
}

func (fp *FeedParser) parseFeed(ctx context.Context, feedURL, sourceName string) ([]feedback.Document, error) {
	feed, err := fp.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	var docs []feedback.Document
	for _, item := range feed.Items {
		if len(docs) >= fp.maxPerFeed {
			break
		}
		if doc := parseItem(item, sourceName); doc != nil {
			docs = append(docs, *doc)
		}
	}
	return docs, nil
}

func parseItem(item *gofeed.Item, feedName string) *feedback.Document {
	itemURL := item.Link
	if itemURL == "" {
		itemURL = item.GUID
	}
	if itemURL == "" {
		return nil
	}

	var body string
	switch {
	case item.Content != "":
		body = item.Content
	case item.Description != "":
		body = item.Description
	}
	if body != "" {
		if text, err := HTMLText(body); err == nil {
			body = text
		}
	}

	title := strings.TrimSpace(item.Title)
	content := body
	switch {
	case title != "" && body != "":
		content = title + ". " + body
	case title != "":
		content = title
	}
	if content == "" {
		return nil
	}

	var submitted *time.Time
	if item.PublishedParsed != nil {
		submitted = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		submitted = item.UpdatedParsed
	}

	metadata := map[string]any{"feed": feedName}
	if title != "" {
		metadata["title"] = title
	}
	if item.Author != nil && item.Author.Name != "" {
		metadata["author"] = item.Author.Name
	}

	return &feedback.Document{
		ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(itemURL)).String(),
		Content:     content,
		URL:         itemURL,
		Metadata:    metadata,
		SubmittedAt: submitted,
	}
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		name := parts[len(parts)-2]
		return strings.ToUpper(name[:1]) + name[1:]
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
