package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
)

// maxReportDomains caps the per-domain table so a wide crawl does not
// produce a thousand-row report.
const maxReportDomains = 25

// MarkdownWriter renders a crawl summary as GitHub-flavored markdown.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that writes to output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write renders the full report.
func (w *MarkdownWriter) Write(s *Summary) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Link Extraction Report")
	md.PlainText("")

	w.writeSession(md, s)
	w.writeStats(md, s)
	w.writeDomains(md, s)

	return md.Build()
}

func (w *MarkdownWriter) writeSession(md *markdown.Markdown, s *Summary) {
	scope := s.ScopeMode
	if s.ScopeRoot != "" {
		scope += " (" + s.ScopeRoot + ")"
	}

	rows := [][]string{
		{"Seed URL", "`" + s.Seed + "`"},
		{"Scope", scope},
		{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Duration", s.Duration.Round(time.Second).String()},
		{"Output", "`" + s.OutputPath + "`"},
		{"Status", statusText(s)},
	}
	if s.SessionID != "" {
		rows = append(rows, []string{"Session", "`" + s.SessionID + "`"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if s.Interrupted {
		md.Warning("The crawl was interrupted; results are partial.")
		md.PlainText("")
	}
}

func statusText(s *Summary) string {
	if s.Interrupted {
		return "interrupted (partial results)"
	}
	return "complete"
}

func (w *MarkdownWriter) writeStats(md *markdown.Markdown, s *Summary) {
	md.H2("Crawl Statistics")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Links found", strconv.FormatInt(s.Stats.LinksFound, 10)},
			{"Pages processed", strconv.FormatInt(s.Stats.URLsProcessed, 10)},
			{"Fetch errors", strconv.FormatInt(s.Stats.FetchErrors, 10)},
			{"Retries", strconv.FormatInt(s.Stats.Retries, 10)},
			{"Proxy rotations", strconv.FormatInt(s.Stats.ProxyRotations, 10)},
			{"Proxies blacklisted", strconv.FormatInt(s.Stats.ProxyFailures, 10)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeDomains(md *markdown.Markdown, s *Summary) {
	md.H2("Links by Domain")
	md.PlainText("")

	if len(s.Domains) == 0 {
		md.PlainText("No links collected.")
		md.PlainText("")
		return
	}

	domains := s.Domains
	if len(domains) > maxReportDomains {
		domains = domains[:maxReportDomains]
	}

	rows := make([][]string, 0, len(domains))
	for _, d := range domains {
		rows = append(rows, []string{d.Domain, strconv.Itoa(d.Links)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Links"},
		Rows:   rows,
	})
	md.PlainText("")
}
