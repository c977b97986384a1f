// Package htmltable parses HTML tables into untyped rows of text.
package htmltable

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/couchcryptid/streams-chart-etl/internal/domain"
)

// ErrNoTable is returned when the document contains no table with rows.
var ErrNoTable = errors.New("no table found")

// maxSpan caps colspan/rowspan so a malformed attribute cannot blow up a row.
const maxSpan = 1000

var hiddenStyle = regexp.MustCompile(`(?i)display\s*:\s*none`)

// Extractor selects the first table of a document.
type Extractor struct{}

// Extract implements the pipeline extractor.
func (Extractor) Extract(html string) (domain.RawTable, error) {
	return First(html)
}

// First parses the first table that has at least one row.
func First(html string) (domain.RawTable, error) {
	tables, err := All(html)
	if err != nil {
		return domain.RawTable{}, err
	}
	if len(tables) == 0 {
		return domain.RawTable{}, ErrNoTable
	}
	return tables[0], nil
}

// All parses every table with at least one row, in document order. Rows of
// nested tables belong to the nested table only.
func All(html string) ([]domain.RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	// Line breaks separate words in header cells like "Streams<br>(billions)".
	doc.Find("br").ReplaceWithHtml(" ")
	// Sort keys hidden with display:none are not part of the visible value.
	doc.Find("[style]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return hiddenStyle.MatchString(s.AttrOr("style", ""))
	}).Remove()

	var tables []domain.RawTable
	doc.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		if t, ok := parseTable(tbl); ok {
			tables = append(tables, t)
		}
	})
	return tables, nil
}

type sourceRow struct {
	sel     *goquery.Selection
	inHead  bool
	allTh   bool
	hasCell bool
}

func parseTable(tbl *goquery.Selection) (domain.RawTable, bool) {
	node := tbl.Get(0)
	var rows []sourceRow
	tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Closest("table").Get(0) != node {
			return
		}
		cells := tr.ChildrenFiltered("th, td")
		rows = append(rows, sourceRow{
			sel:     tr,
			inHead:  tr.Parent().Is("thead"),
			allTh:   cells.Length() > 0 && cells.Length() == cells.Filter("th").Length(),
			hasCell: cells.Length() > 0,
		})
	})
	if len(rows) == 0 {
		return domain.RawTable{}, false
	}

	grid := expandSpans(rows)
	nHead := headerRowCount(rows)

	width := 0
	for _, r := range grid {
		width = max(width, len(r))
	}

	headers := make([]string, width)
	for j := range headers {
		headers[j] = strconv.Itoa(j)
		for i := nHead - 1; i >= 0; i-- {
			if c := cellAt(grid[i], j); c.Valid {
				headers[j] = c.Value
				break
			}
		}
	}

	var body [][]domain.Cell
	for i := nHead; i < len(grid); i++ {
		if !rows[i].hasCell {
			continue
		}
		r := grid[i]
		for len(r) < width {
			r = append(r, domain.Cell{})
		}
		body = append(body, r)
	}
	return domain.RawTable{Headers: headers, Rows: body}, true
}

// headerRowCount returns the number of leading header rows: the thead rows
// when there are any, otherwise the leading rows made only of th cells.
func headerRowCount(rows []sourceRow) int {
	n := 0
	for _, r := range rows {
		if r.inHead {
			n++
		}
	}
	if n > 0 {
		// thead rows always precede body rows once the parser is done.
		return n
	}
	for _, r := range rows {
		if !r.allTh {
			break
		}
		n++
	}
	return n
}

type pendingSpan struct {
	cell domain.Cell
	left int
}

// expandSpans lays out rows on a grid, repeating colspan cells across
// columns and rowspan cells into the rows below.
func expandSpans(rows []sourceRow) [][]domain.Cell {
	grid := make([][]domain.Cell, 0, len(rows))
	pending := make(map[int]*pendingSpan)

	for _, r := range rows {
		var out []domain.Cell
		fillPending := func() {
			for {
				p, ok := pending[len(out)]
				if !ok {
					return
				}
				col := len(out)
				out = append(out, p.cell)
				if p.left--; p.left == 0 {
					delete(pending, col)
				}
			}
		}

		r.sel.ChildrenFiltered("th, td").Each(func(_ int, td *goquery.Selection) {
			cell := domain.TextCell(cellText(td))
			colspan := spanAttr(td, "colspan")
			rowspan := spanAttr(td, "rowspan")
			for range colspan {
				fillPending()
				if rowspan > 1 {
					pending[len(out)] = &pendingSpan{cell: cell, left: rowspan - 1}
				}
				out = append(out, cell)
			}
		})

		// Spans continuing past the last explicit cell, possibly after a gap.
		cols := make([]int, 0, len(pending))
		for col := range pending {
			if col >= len(out) {
				cols = append(cols, col)
			}
		}
		sort.Ints(cols)
		for _, col := range cols {
			for len(out) < col {
				out = append(out, domain.Cell{})
			}
			fillPending()
		}
		grid = append(grid, out)
	}
	return grid
}

func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func spanAttr(s *goquery.Selection, name string) int {
	v, ok := s.Attr(name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	return min(n, maxSpan)
}

func cellAt(row []domain.Cell, j int) domain.Cell {
	if j >= len(row) {
		return domain.Cell{}
	}
	return row[j]
}
