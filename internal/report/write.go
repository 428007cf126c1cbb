package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
)

var md = goldmark.New()

var htmlPage = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Feedback Analysis Report - {{.ID}}</title>
<style>
body { font-family: system-ui, sans-serif; line-height: 1.6; max-width: 960px; margin: 0 auto; padding: 20px; color: #333; }
h1, h2 { border-bottom: 1px solid #eee; padding-bottom: 6px; }
li { margin: 4px 0; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// Markdown renders the report as a Markdown document.
func Markdown(r *Report) string {
	var b strings.Builder
	s := r.Summary

	fmt.Fprintf(&b, "# Feedback Analysis Report\n\n")
	fmt.Fprintf(&b, "Report `%s` generated %s.\n\n", r.ReportID, r.GeneratedAt.Format("2006-01-02 15:04 MST"))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- **Documents analyzed:** %d\n", s.TotalDocuments)
	fmt.Fprintf(&b, "- **Insights:** %d\n", s.TotalInsights)
	fmt.Fprintf(&b, "- **Recommendations:** %d\n", s.TotalRecommendations)
	fmt.Fprintf(&b, "- **Cleaned:** %.1f%%\n", s.CleanedPercentage)
	fmt.Fprintf(&b, "- **Avg sentiment confidence:** %s\n", percentOrNA(s.AvgSentimentConfidence))
	fmt.Fprintf(&b, "- **Avg primary category probability:** %s\n\n", percentOrNA(s.AvgPrimaryCategoryProbability))

	writeDistribution(&b, "Sentiment distribution", s.SentimentDistribution)
	writeDistribution(&b, "Category distribution", s.CategoryDistribution)

	b.WriteString("## Insights\n\n")
	if len(r.Insights) == 0 {
		b.WriteString("No insights were generated.\n\n")
	}
	for _, in := range r.Insights {
		fmt.Fprintf(&b, "### %s\n\n", in.Description)
		fmt.Fprintf(&b, "*%s* · severity **%s** · frequency %d", in.Type, in.Severity, in.Frequency)
		if in.TrendDirection != nil {
			fmt.Fprintf(&b, " · trend %s", *in.TrendDirection)
		}
		b.WriteString("\n\n")
		for _, e := range in.SupportingEvidence {
			fmt.Fprintf(&b, "- %s\n", e)
		}
		if len(in.AffectedAreas) > 0 {
			fmt.Fprintf(&b, "- Affected areas: %s\n", strings.Join(in.AffectedAreas, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Recommendations\n\n")
	if len(r.Recommendations) == 0 {
		b.WriteString("No recommendations were generated.\n\n")
	}
	for _, rec := range r.Recommendations {
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", rec.Title, rec.Description)
		fmt.Fprintf(&b, "- **Priority:** %s\n", rec.Priority)
		fmt.Fprintf(&b, "- **Effort:** %s\n", rec.Effort)
		fmt.Fprintf(&b, "- **Timeline:** %s\n", rec.Timeline)
		if len(rec.Resources) > 0 {
			fmt.Fprintf(&b, "- **Resources:** %s\n", strings.Join(rec.Resources, ", "))
		}
		if len(rec.SuccessMetrics) > 0 {
			fmt.Fprintf(&b, "- **Success metrics:** %s\n", strings.Join(rec.SuccessMetrics, "; "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeDistribution(b *strings.Builder, title string, dist map[string]int) {
	if len(dist) == 0 {
		return
	}
	keys := make([]string, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if dist[keys[i]] != dist[keys[j]] {
			return dist[keys[i]] > dist[keys[j]]
		}
		return keys[i] < keys[j]
	})

	fmt.Fprintf(b, "### %s\n\n", title)
	for _, k := range keys {
		fmt.Fprintf(b, "- %s: %d\n", k, dist[k])
	}
	b.WriteString("\n")
}

func percentOrNA(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

// RenderMarkdown converts Markdown to HTML, falling back to escaped text.
func RenderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// WriteHTML writes a standalone HTML page for the report.
func WriteHTML(w io.Writer, r *Report) error {
	data := struct {
		ID   string
		Body template.HTML
	}{r.ReportID, RenderMarkdown(Markdown(r))}
	if err := htmlPage.Execute(w, data); err != nil {
		return fmt.Errorf("rendering report html: %w", err)
	}
	return nil
}

// Save writes the report to dir in each requested format and returns the
// written paths. Supported formats are json, markdown and html.
func Save(dir string, r *Report, formats []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report dir: %w", err)
	}

	var paths []string
	write := func(name string, fn func(io.Writer) error) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", name, err)
		}
		if err := fn(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", name, err)
		}
		paths = append(paths, path)
		return nil
	}

	for _, format := range formats {
		var err error
		switch strings.ToLower(format) {
		case "json":
			err = write(r.ReportID+"_report.json", func(w io.Writer) error { return WriteJSON(w, r) })
			if err == nil {
				err = write(r.ReportID+"_recommendations.json", func(w io.Writer) error {
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					return enc.Encode(r.Recommendations)
				})
			}
		case "md", "markdown":
			err = write(r.ReportID+"_report.md", func(w io.Writer) error {
				_, err := io.WriteString(w, Markdown(r))
				return err
			})
		case "html":
			err = write(r.ReportID+"_report.html", func(w io.Writer) error { return WriteHTML(w, r) })
		default:
			err = fmt.Errorf("unknown report format %q", format)
		}
		if err != nil {
			return paths, err
		}
	}

	log.Printf("Saved report %s: %d files", r.ReportID, len(paths))
	return paths, nil
}
