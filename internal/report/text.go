package report

import (
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TextWriter prints the short terminal summary shown when a crawl ends.
// Counts go through a locale-aware printer so large crawls print readable
// totals (1,234,567 rather than 1234567).
type TextWriter struct {
	output  io.Writer
	printer *message.Printer
}

// NewTextWriter creates a TextWriter that writes to output.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{
		output:  output,
		printer: message.NewPrinter(language.English),
	}
}

// Write prints the summary.
func (w *TextWriter) Write(s *Summary) error {
	status := "complete"
	if s.Interrupted {
		status = "interrupted"
	}

	_, err := w.printer.Fprintf(w.output,
		"\nCrawl %s in %s\n"+
			"  links found:     %d\n"+
			"  pages processed: %d\n"+
			"  fetch errors:    %d\n"+
			"  output:          %s\n",
		status,
		s.Duration.Round(time.Second).String(),
		s.Stats.LinksFound,
		s.Stats.URLsProcessed,
		s.Stats.FetchErrors,
		s.OutputPath,
	)
	return err
}
