package storage

import (
	"context"
	"time"

	"github.com/Sriram-PR/olympedia-scraper/pkg/models"
)

// AttemptLedger records the outcome of the last attempt for each identifier
type AttemptLedger interface {
	// RecordAttempt stores entry as the latest attempt for id, bumping its attempt counter
	RecordAttempt(id int, entry *models.AttemptEntry) error

	// GetAttempt retrieves the latest attempt for id
	// Returns status (AttemptStatusFound, AttemptStatusMiss, AttemptStatusError,
	// AttemptStatusNotFound, AttemptStatusDBError), the entry if found and parsed, and any error
	GetAttempt(id int) (status models.AttemptStatus, entry *models.AttemptEntry, err error)
}

// LedgerAdmin handles reporting, lifecycle and administrative operations
type LedgerAdmin interface {
	// GetAttemptCount returns the number of identifiers with a recorded attempt
	GetAttemptCount() int

	// Stats scans the ledger and tallies entries by status
	Stats(ctx context.Context) (models.LedgerStats, error)

	// ListMisses returns identifiers whose last attempt was a miss or error, ascending.
	// limit <= 0 means no limit
	ListMisses(ctx context.Context, limit int) ([]int, error)

	// WriteMissLog writes one missed identifier per line to filePath
	WriteMissLog(ctx context.Context, filePath string) (int, error)

	// RunGC runs periodic garbage collection. Should be run in a goroutine
	RunGC(ctx context.Context, interval time.Duration)

	// Close cleanly closes the database connection
	Close() error
}

// Ledger combines all ledger interfaces for components that need full access
type Ledger interface {
	AttemptLedger
	LedgerAdmin
}
