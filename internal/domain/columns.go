package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// headerStripRe matches every character a canonical header may not contain.
var headerStripRe = regexp.MustCompile(`[^a-z0-9_]`)

// CanonicalHeader lowercases, trims, replaces spaces with underscores and
// strips everything outside [a-z0-9_]. Applying it twice is a no-op.
func CanonicalHeader(h string) string {
	h = strings.TrimSpace(strings.ToLower(h))
	h = strings.ReplaceAll(h, " ", "_")
	return headerStripRe.ReplaceAllString(h, "")
}

// RenameRule maps a canonical header to a canonical column when Match reports true.
type RenameRule struct {
	Column string
	Match  func(header string) bool
}

// DefaultRenameRules is the ordered rule list applied to the chart table.
// The first matching rule wins for each header.
var DefaultRenameRules = []RenameRule{
	{Column: ColumnTitle, Match: containsAny("song", "title")},
	{Column: ColumnArtist, Match: containsAny("artist")},
	{Column: ColumnStreams, Match: containsAny("stream")},
	{Column: ColumnReleaseDate, Match: containsAny("publish", "release")},
}

func containsAny(subs ...string) func(string) bool {
	return func(h string) bool {
		for _, sub := range subs {
			if strings.Contains(h, sub) {
				return true
			}
		}
		return false
	}
}

// requiredColumns must each be fed by a source column.
var requiredColumns = []string{ColumnTitle, ColumnArtist, ColumnStreams}

// Collision records two source headers mapping to the same canonical column.
// Kept feeds the column; Shadowed is carried as a passthrough column.
type Collision struct {
	Column   string
	Kept     string
	Shadowed string
}

// CollisionError is returned when header collisions are rejected.
type CollisionError struct {
	Collisions []Collision
}

func (e *CollisionError) Error() string {
	parts := make([]string, 0, len(e.Collisions))
	for _, c := range e.Collisions {
		parts = append(parts, fmt.Sprintf("%q and %q both map to %s", c.Shadowed, c.Kept, c.Column))
	}
	return "header collision: " + strings.Join(parts, "; ")
}

// ColumnMap locates canonical and passthrough columns in a RawTable.
type ColumnMap struct {
	// Index maps a canonical column to its source column index.
	Index map[string]int

	// Extra lists passthrough source indexes in source order, with their
	// destination names in ExtraNames.
	Extra      []int
	ExtraNames []string

	Collisions []Collision
}

// ResolveColumns applies rules to headers. Later headers win collisions.
func ResolveColumns(headers []string, rules []RenameRule) ColumnMap {
	canon := make([]string, len(headers))
	for i, h := range headers {
		canon[i] = CanonicalHeader(h)
	}

	cm := ColumnMap{Index: make(map[string]int)}
	for i, h := range canon {
		for _, rule := range rules {
			if !rule.Match(h) {
				continue
			}
			if prev, ok := cm.Index[rule.Column]; ok {
				cm.Collisions = append(cm.Collisions, Collision{
					Column:   rule.Column,
					Kept:     headers[i],
					Shadowed: headers[prev],
				})
			}
			cm.Index[rule.Column] = i
			break
		}
	}

	mapped := make(map[int]bool, len(cm.Index))
	for _, i := range cm.Index {
		mapped[i] = true
	}

	used := map[string]bool{
		ColumnTitle:        true,
		ColumnArtist:       true,
		ColumnStreams:      true,
		ColumnReleaseDate:  true,
		ColumnScrapingDate: true,
	}
	for i := range canon {
		if mapped[i] {
			continue
		}
		name := uniqueName(passthroughName(canon[i], i), used)
		used[name] = true
		cm.Extra = append(cm.Extra, i)
		cm.ExtraNames = append(cm.ExtraNames, name)
	}
	return cm
}

// missing returns the required columns with no source column.
func (cm ColumnMap) missing() []string {
	var out []string
	for _, col := range requiredColumns {
		if _, ok := cm.Index[col]; !ok {
			out = append(out, col)
		}
	}
	return out
}

func passthroughName(canon string, idx int) string {
	if canon == "" {
		return "column_" + strconv.Itoa(idx)
	}
	return canon
}

func uniqueName(name string, used map[string]bool) string {
	if !used[name] {
		return name
	}
	for n := 2; ; n++ {
		candidate := name + "_" + strconv.Itoa(n)
		if !used[candidate] {
			return candidate
		}
	}
}
