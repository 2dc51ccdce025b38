package models

// AttemptStatus represents the outcome of the last attempt for an identifier in the ledger
type AttemptStatus string

const (
	AttemptStatusUnset    AttemptStatus = ""          // Zero value = unset/unknown
	AttemptStatusFound    AttemptStatus = "found"     // Document fetched, record appended
	AttemptStatusMiss     AttemptStatus = "miss"      // Non-200 response or retries exhausted
	AttemptStatusError    AttemptStatus = "error"     // Persistence or internal failure, counted as a miss
	AttemptStatusNotFound AttemptStatus = "not_found" // Identifier not in ledger
	AttemptStatusDBError  AttemptStatus = "db_error"  // Ledger read failed
)

// String implements fmt.Stringer for logging
func (s AttemptStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status is one a worker writes
func (s AttemptStatus) IsValid() bool {
	switch s {
	case AttemptStatusFound, AttemptStatusMiss, AttemptStatusError:
		return true
	}
	return false
}

// CountsAsMiss reports whether the status feeds the consecutive-miss counter
func (s AttemptStatus) CountsAsMiss() bool {
	return s == AttemptStatusMiss || s == AttemptStatusError
}
