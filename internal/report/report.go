// Package report prints the console summary of a run: where the data went,
// a preview of the stored table, and stream statistics.
package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/couchcryptid/streams-chart-etl/internal/domain"
)

// Printer writes reports to w. It implements pipeline.Reporter.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Saved reports the outcome of the persist stage.
func (p *Printer) Saved(location string, rows int, err error) {
	if err != nil {
		_, _ = fmt.Fprintf(p.w, "Error saving to DB: %v\n", err)
		return
	}
	_, _ = fmt.Fprintf(p.w, "Data saved to %s. Rows: %d\n", location, rows)
}

// PreviewFailed reports a failed read-back of the stored table.
func (p *Printer) PreviewFailed(err error) {
	_, _ = fmt.Fprintf(p.w, "Error verifying DB: %v\n", err)
}

// Preview renders the first rows of the stored table.
func (p *Printer) Preview(preview domain.TablePreview) {
	if len(preview.Rows) == 0 {
		_, _ = fmt.Fprintln(p.w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(preview.Columns))
	for i, col := range preview.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, r := range preview.Rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		t.AppendRow(row)
	}
	t.Render()
}

// Summary prints total, mean and top song over rows with a numeric stream count.
func (p *Printer) Summary(songs []domain.Song) {
	st, err := domain.ComputeStats(songs)
	if errors.Is(err, domain.ErrNoNumericStreams) {
		_, _ = fmt.Fprintln(p.w, "No numeric stream counts; statistics skipped.")
		return
	}
	_, _ = fmt.Fprintf(p.w, "Total streams (billions): %.2f\n", st.Total)
	_, _ = fmt.Fprintf(p.w, "Average streams: %.2f\n", st.Mean)
	_, _ = fmt.Fprintf(p.w, "Top: '%s' by %s\n", st.Top.Title, st.Top.Artist)
}

// Runs renders the run log, newest first.
func (p *Printer) Runs(runs []domain.Run) {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(p.w, "(no runs recorded)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"run", "started", "captured", "parsed", "stored", "status", "error"})
	for _, r := range runs {
		captured := ""
		if !r.CapturedOn.IsZero() {
			captured = r.CapturedOn.Format(domain.DateLayout)
		}
		t.AppendRow(table.Row{
			shortID(r.ID),
			r.StartedAt.UTC().Format("2006-01-02 15:04:05"),
			captured,
			r.RowsParsed,
			r.RowsStored,
			string(r.Status),
			r.Error,
		})
	}
	t.Render()
}

// Checks prints a pass/fail line per check followed by the errors of each
// failed check, and returns the number of failed checks.
func (p *Printer) Checks(checks []domain.Check) int {
	failed := 0
	for _, c := range checks {
		status := "PASS"
		if !c.Passed() {
			failed++
			status = fmt.Sprintf("FAIL (%d errors)", len(c.Errors))
		}
		_, _ = fmt.Fprintf(p.w, "  %-42s %s\n", c.Name, status)
	}
	for _, c := range checks {
		if c.Passed() {
			continue
		}
		_, _ = fmt.Fprintf(p.w, "\n--- %s ---\n", c.Name)
		for i, e := range c.Errors {
			_, _ = fmt.Fprintf(p.w, "  [%d] %s\n", i+1, e)
		}
	}
	return failed
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
