package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
)

// Op names used for error context.
const (
	OpPing       = "ping"
	OpFind       = "find"
	OpFindOne    = "findOne"
	OpCount      = "countDocuments"
	OpInsert     = "insertMany"
	OpAggregate  = "aggregate"
	OpMaxVersion = "maxVersion"
	OpComplete   = "completeVersion"
	OpStats      = "filterStats"
	OpGet        = "GET"
	OpSet        = "SET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
