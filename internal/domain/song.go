package domain

import "time"

// Canonical column names written to the destination table.
const (
	ColumnTitle        = "title"
	ColumnArtist       = "artist"
	ColumnStreams      = "streams_billions"
	ColumnReleaseDate  = "release_date"
	ColumnScrapingDate = "scraping_date"
)

// DateLayout is the calendar-date format used for scraping dates.
const DateLayout = "2006-01-02"

// Cell is one source table value. Valid is false for an empty source cell.
type Cell struct {
	Value string
	Valid bool
}

// TextCell builds a cell from already-trimmed text; empty text is absent.
func TextCell(s string) Cell {
	return Cell{Value: s, Valid: s != ""}
}

// RawTable is the first HTML table of the page before any cleaning.
// Rows may be shorter than Headers; missing trailing cells are absent.
type RawTable struct {
	Headers []string
	Rows    [][]Cell
}

// Song is one cleaned chart entry.
type Song struct {
	ID           int
	Title        string
	Artist       string
	Streams      *float64 // nil when the source value could not be parsed
	ReleaseDate  *string
	ScrapingDate time.Time

	// Extra holds passthrough values aligned with Snapshot.ExtraColumns.
	Extra []Cell
}

// HasStreams reports whether the song carries a numeric stream count.
func (s Song) HasStreams() bool {
	return s.Streams != nil
}

// DropCounts records how many source rows each cleaning step removed.
type DropCounts struct {
	MissingRequired int // title, artist or streams absent
	Footnote        int // "As of" rows
	Unparsed        int // streams did not parse; dropped only when configured
	Duplicate       int
}

// Total returns the number of rows removed across all steps.
func (d DropCounts) Total() int {
	return d.MissingRequired + d.Footnote + d.Unparsed + d.Duplicate
}

// Snapshot is the cleaned chart as captured on one date.
type Snapshot struct {
	Songs        []Song
	ExtraColumns []string
	CapturedOn   time.Time
	Collisions   []Collision
	SourceRows   int
	Dropped      DropCounts

	// UnparsedKept counts retained songs whose streams are absent.
	UnparsedKept int
}

// Columns returns the destination column order for this snapshot.
func (s Snapshot) Columns() []string {
	cols := []string{ColumnTitle, ColumnArtist, ColumnStreams, ColumnReleaseDate, ColumnScrapingDate}
	return append(cols, s.ExtraColumns...)
}

// TablePreview is a generic view of the first rows of a stored table.
type TablePreview struct {
	Columns []string
	Rows    [][]string
}

// OutputEvent is the serialized form of a song destined for a message topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
