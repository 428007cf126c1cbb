package collect

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

// Load reads documents from a JSON array, a single JSON object or
// newline-delimited JSON. Malformed NDJSON lines are logged and skipped.
func Load(r io.Reader) ([]feedback.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var docs []feedback.Document
	switch {
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, fmt.Errorf("decoding document array: %w", err)
		}
	default:
		var single feedback.Document
		if err := json.Unmarshal(trimmed, &single); err == nil {
			docs = []feedback.Document{single}
			break
		}
		docs, err = loadLines(trimmed)
		if err != nil {
			return nil, err
		}
	}

	textFromHTML(docs)
	return docs, nil
}

func loadLines(data []byte) ([]feedback.Document, error) {
	var docs []feedback.Document
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	skipped := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var doc feedback.Document
		if err := json.Unmarshal(text, &doc); err != nil {
			log.Printf("Skipping malformed line %d: %v", line, err)
			skipped++
			continue
		}
		docs = append(docs, doc)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning input: %w", err)
	}
	if len(docs) == 0 && skipped > 0 {
		return nil, fmt.Errorf("no parseable documents in %d lines", skipped)
	}
	return docs, nil
}

// LoadFile reads documents from path. JSON files hold document records;
// any other file becomes a single document named after the file.
func LoadFile(path string) ([]feedback.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	base := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".ndjson", ".jsonl":
		docs, err := Load(f)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		return docs, nil
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	docs := []feedback.Document{{
		ID:       strings.TrimSuffix(base, filepath.Ext(base)),
		Filename: base,
		Content:  string(data),
	}}
	textFromHTML(docs)
	return docs, nil
}
