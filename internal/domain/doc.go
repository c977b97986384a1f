// Package domain models the Wikipedia "most-streamed songs on Spotify" chart.
//
// # Data Source
//
// The chart is the first table on
// https://en.wikipedia.org/wiki/List_of_most-streamed_songs_on_Spotify. The
// page is edited by hand, so header wording drifts between revisions
// ("Song", "Song title", "Streams (billions)", "Artist(s)"). Columns are
// matched by substring after canonicalization rather than by exact name.
//
// # Header Canonicalization
//
//	lowercase -> trim -> spaces to "_" -> drop everything outside [a-z0-9_]
//	"Streams (billions)" -> "streams_billions"
//	"Artist(s)"          -> "artists"
//
// Canonical headers are then matched against an ordered rule list (see
// [DefaultRenameRules]); the first rule whose substring appears wins. When
// two source columns map to the same canonical name the later column is kept
// and the earlier one survives as a passthrough column. [CollisionError] is
// returned instead when collisions are rejected.
//
// # Stream Counts
//
// Stream counts are billions, written with "." as the decimal point and ","
// as a thousands separator ("3.21", "1,234.5"). A lone comma followed by one
// or two trailing digits in a value without "." is read as a decimal comma
// ("3,2" -> 3.2). Anything that does not parse ("N/A", "—") becomes an
// absent value rather than an error. See [ParseStreams].
//
// # Footnote Rows
//
// The table ends with rows like "As of 1 June 2024" that carry no data.
// Rows whose title contains "As of" under Unicode case folding are removed.
//
// # Identity
//
// Row IDs are positional (0..N-1) and only meaningful within one snapshot.
// Published messages are keyed by a SHA-256 of title|artist instead so
// consumers can correlate the same song across runs. See [SongKey].
package domain
