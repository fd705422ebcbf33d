package trace

import "fmt"

// StorageError represents an error from a storage backend.
type StorageError struct {
	Backend   string // Backend name ("sqlite", "memory")
	Operation string // Operation that failed ("save", "query", "prune", ...)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("trace storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// RecorderError represents an error during trace recording.
type RecorderError struct {
	RecordID string // Trace record ID, may be empty
	Cause    error  // Underlying error
}

// Error implements the error interface.
func (e *RecorderError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("trace recorder error [record_id=%s]: %v", e.RecordID, e.Cause)
	}
	return fmt.Sprintf("trace recorder error: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RecorderError) Unwrap() error {
	return e.Cause
}

// NewRecorderError creates a new RecorderError.
func NewRecorderError(recordID string, cause error) *RecorderError {
	return &RecorderError{
		RecordID: recordID,
		Cause:    cause,
	}
}

// RetentionError represents an error during retention enforcement.
type RetentionError struct {
	MaxAge     string // Configured age limit, empty when count-based
	MaxRecords int64  // Configured record limit, 0 when age-based
	Cause      error  // Underlying error
}

// Error implements the error interface.
func (e *RetentionError) Error() string {
	if e.MaxAge != "" {
		return fmt.Sprintf("trace retention error [max_age=%s]: %v", e.MaxAge, e.Cause)
	}
	return fmt.Sprintf("trace retention error [max_records=%d]: %v", e.MaxRecords, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RetentionError) Unwrap() error {
	return e.Cause
}

// NewRetentionError creates a new RetentionError.
func NewRetentionError(maxAge string, maxRecords int64, cause error) *RetentionError {
	return &RetentionError{
		MaxAge:     maxAge,
		MaxRecords: maxRecords,
		Cause:      cause,
	}
}
