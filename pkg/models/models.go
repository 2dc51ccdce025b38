package models

import "time"

// Event is one row of an entity's participation history, as read from an events table.
// Events live only long enough to be summarized into the owning Record.
type Event struct {
	Games string `json:"games"` // Edition label, e.g. "1996 Summer Olympics"
	Year  string `json:"year"`  // First four-digit run in Games, "" if none
	Sport string `json:"sport"` // Discipline/sport carried from the edition row
	Medal string `json:"medal"` // Outcome cell text (5th column)
	NOC   string `json:"noc"`   // Committee code carried from the edition row
}

// AttemptEntry stores the result of the last attempt for an identifier in the ledger
type AttemptEntry struct {
	Status      AttemptStatus `json:"status"`                 // found, miss or error
	ErrorType   string        `json:"error_type,omitempty"`   // Error category (on miss/error)
	Name        string        `json:"name,omitempty"`         // Extracted name (on found)
	ContentHash string        `json:"content_hash,omitempty"` // SHA-256 of the raw document (on found)
	LastAttempt time.Time     `json:"last_attempt"`           // Timestamp of the attempt
	Attempts    int           `json:"attempts"`               // How many runs have tried this identifier
}

// LedgerStats summarizes the ledger contents
type LedgerStats struct {
	Found   int `json:"found"`
	Missed  int `json:"missed"`
	Errored int `json:"errored"`
	Highest int `json:"highest_id"`
}

// Total returns the number of identifiers with a recorded attempt
func (s LedgerStats) Total() int {
	return s.Found + s.Missed + s.Errored
}
