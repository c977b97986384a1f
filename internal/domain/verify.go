package domain

import "fmt"

// Check is one named integrity check over a snapshot.
type Check struct {
	Name   string
	Errors []string
}

func (c *Check) errorf(format string, args ...any) {
	c.Errors = append(c.Errors, fmt.Sprintf(format, args...))
}

// Passed reports whether the check found no problems.
func (c Check) Passed() bool { return len(c.Errors) == 0 }

// VerifySnapshot re-checks the cleaning guarantees on stored data.
func VerifySnapshot(snap Snapshot) []Check {
	required := &Check{Name: "title and artist present"}
	footnotes := &Check{Name: "no footnote rows"}
	dupes := &Check{Name: "no duplicate rows"}
	dates := &Check{Name: "single scraping date"}

	seen := make(map[string]int, len(snap.Songs))
	for i, s := range snap.Songs {
		if s.Title == "" {
			required.errorf("row %d: empty title", i)
		}
		if s.Artist == "" {
			required.errorf("row %d: empty artist", i)
		}
		if IsFootnote(s.Title) {
			footnotes.errorf("row %d: footnote title %q", i, s.Title)
		}
		key := rowKey(s)
		if first, ok := seen[key]; ok {
			dupes.errorf("row %d duplicates row %d", i, first)
		} else {
			seen[key] = i
		}
		if !s.ScrapingDate.Equal(snap.CapturedOn) {
			dates.errorf("row %d: scraping date %s, want %s",
				i, s.ScrapingDate.Format(DateLayout), snap.CapturedOn.Format(DateLayout))
		}
	}
	return []Check{*required, *footnotes, *dupes, *dates}
}
