// ABOUTME: Report export: downloadable text, clipboard text, markdown, standalone HTML and JSON.
// ABOUTME: Export writes a dated file into a directory; Copy places the short form on the system clipboard.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/2389-research/accessdoc/analysis"
	"github.com/atotto/clipboard"
	"github.com/yuin/goldmark"
)

// Format selects an export encoding.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// ParseFormat maps a user-supplied name onto a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "txt", "text":
		return FormatText, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want txt, md, html or json)", s)
	}
}

// generatedLayout matches the en-US locale date-time string.
const generatedLayout = "1/2/2006, 3:04:05 PM"

// PlainText renders the downloadable text report.
func PlainText(r *analysis.Report, now time.Time) string {
	items := make([]string, len(r.Scores))
	for i, s := range r.Scores {
		items[i] = fmt.Sprintf("\n%s: %d/100 %s\nFeedback: %s\n", s.Category, s.Score, Emoji(s.Score), s.Feedback)
	}

	var b strings.Builder
	b.WriteString("Accessibility Analysis Report\n")
	b.WriteString("=============================\n\n")
	b.WriteString("Overall Scores:\n")
	b.WriteString(strings.Join(items, "\n"))
	b.WriteString("\n\nImplementation Plan:\n")
	b.WriteString("--------------------\n")
	b.WriteString(r.ImplementationPlan)
	b.WriteString("\n\nGenerated on: ")
	b.WriteString(now.Format(generatedLayout))
	b.WriteString("\n")
	return b.String()
}

// ClipboardText renders the compact form placed on the clipboard.
func ClipboardText(r *analysis.Report) string {
	lines := make([]string, len(r.Scores))
	for i, s := range r.Scores {
		lines[i] = fmt.Sprintf("%s: %d/100 - %s", s.Category, s.Score, s.Feedback)
	}
	return "Accessibility Analysis Report\n\nOverall Scores:\n" +
		strings.Join(lines, "\n") +
		"\n\nImplementation Plan:\n" +
		r.ImplementationPlan
}

// Filename returns the dated export file name for format, using the UTC date.
func Filename(now time.Time, format Format) string {
	if format == "" {
		format = FormatText
	}
	return fmt.Sprintf("accessibility-report-%s.%s", now.UTC().Format("2006-01-02"), format)
}

// Markdown renders the report as a markdown document: header, score table
// and the implementation plan verbatim.
func Markdown(r *analysis.Report, target string) string {
	var b strings.Builder
	b.WriteString("# Accessibility Report\n\n")
	if target != "" {
		fmt.Fprintf(&b, "Analyzed: <%s>\n\n", target)
	}
	avg := Average(r.Scores)
	fmt.Fprintf(&b, "**Average Score: %d/100 %s**\n\n", avg, Emoji(avg))

	if len(r.Scores) > 0 {
		b.WriteString("| Category | Score | Feedback |\n")
		b.WriteString("|---|---|---|\n")
		for _, s := range r.Scores {
			fmt.Fprintf(&b, "| %s | %d %s | %s |\n", cell(s.Category), s.Score, Emoji(s.Score), cell(s.Feedback))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Implementation Plan\n\n")
	b.WriteString(strings.TrimSpace(r.ImplementationPlan))
	b.WriteString("\n")
	return b.String()
}

// cell escapes text for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

var htmlPage = template.Must(template.New("report").Funcs(template.FuncMap{
	"emoji": Emoji,
	"class": func(score int) string { return string(Class(score)) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Accessibility Report{{if .Target}} - {{.Target}}{{end}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
.score-card { border: 1px solid #ddd; border-radius: 6px; padding: 0.75rem 1rem; margin: 0.5rem 0; }
.score-badge { float: right; font-weight: bold; padding: 0.1rem 0.5rem; border-radius: 4px; }
.excellent { background: #d1fae5; } .good { background: #dbeafe; }
.needs-improvement { background: #fef3c7; } .poor { background: #fee2e2; }
</style>
</head>
<body>
<h1>Accessibility Report</h1>
{{if .Target}}<p>Analyzed: <a href="{{.Target}}">{{.Target}}</a></p>{{end}}
<p>Average Score: {{.Average}}/100 {{emoji .Average}}</p>
{{range .Scores}}<div class="score-card">
<span class="score-badge {{class .Score}}">{{.Score}}</span>
<h3>{{.Category}}</h3>
<p>{{.Feedback}}</p>
</div>
{{end}}<h2>Implementation Plan</h2>
<div class="implementation-content">
{{.Plan}}
</div>
<p><small>Generated on {{.Generated}}</small></p>
</body>
</html>
`))

// HTML renders a standalone HTML page. The plan is converted with goldmark;
// raw HTML inside it is omitted.
func HTML(r *analysis.Report, target string, now time.Time) (string, error) {
	var plan bytes.Buffer
	if err := goldmark.New().Convert([]byte(r.ImplementationPlan), &plan); err != nil {
		return "", fmt.Errorf("render plan: %w", err)
	}

	data := struct {
		Target    string
		Average   int
		Scores    []analysis.ScoreEntry
		Plan      template.HTML
		Generated string
	}{
		Target:    target,
		Average:   Average(r.Scores),
		Scores:    r.Scores,
		Plan:      template.HTML(plan.String()),
		Generated: now.Format(generatedLayout),
	}

	var out bytes.Buffer
	if err := htmlPage.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return out.String(), nil
}

// Render encodes the report in format.
func Render(r *analysis.Report, target string, format Format, now time.Time) ([]byte, error) {
	switch format {
	case FormatText, "":
		return []byte(PlainText(r, now)), nil
	case FormatMarkdown:
		return []byte(Markdown(r, target)), nil
	case FormatHTML:
		page, err := HTML(r, target, now)
		if err != nil {
			return nil, err
		}
		return []byte(page), nil
	case FormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode report: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// Export writes the report into dir under its dated file name and returns
// the path written. An existing file of the same name is replaced.
func Export(dir string, r *analysis.Report, target string, format Format, now time.Time) (string, error) {
	data, err := Render(r, target, format, now)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, Filename(now, format))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// Copy places ClipboardText(r) on the system clipboard.
func Copy(r *analysis.Report) error {
	if err := writeClipboard(ClipboardText(r)); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
