package pipeline

import "fmt"

// NetworkError wraps a failure to download the source page. It aborts the run.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError wraps a failure to find or clean the source table. It aborts the run.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse table: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed write to the destination table.
// Reporting and plotting still run after it.
type PersistenceError struct {
	Location string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save to %s: %v", e.Location, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
