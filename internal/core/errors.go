package core

import (
	"errors"
	"fmt"
)

// Predefined errors returned (or raised) by quill.
var (
	// ErrInvalidBindingType is raised when a binding is added to an unknown bucket.
	ErrInvalidBindingType = errors.New("invalid binding type")
	// ErrInvalidDirection is raised when an order direction is neither asc nor desc.
	ErrInvalidDirection = errors.New("order direction must be \"asc\" or \"desc\"")
	// ErrInvalidSubquery is raised when a subquery argument is not a builder, callback or string.
	ErrInvalidSubquery = errors.New("invalid argument")
	// ErrNonNumericAmount is raised when increment or decrement receives a non-numeric amount.
	ErrNonNumericAmount = errors.New("non-numeric value passed to increment method")
	// ErrUnsupportedDialect is raised when the active grammar cannot compile an operation.
	ErrUnsupportedDialect = errors.New("unsupported by this database engine")
	// ErrMismatchedRecords is raised when batch insert records do not share the same columns.
	ErrMismatchedRecords = errors.New("insert records must share the same columns")
	// ErrRowValuesMismatch is raised when a row-values where has a different number of columns and values.
	ErrRowValuesMismatch = errors.New("the number of columns must match the number of values")
	// ErrInvalidJSONValue is raised when a JSON-contains value cannot be encoded as JSON.
	ErrInvalidJSONValue = errors.New("value cannot be encoded as JSON")
	// ErrNoConnection is returned when a terminal method runs on a builder without a connection.
	ErrNoConnection = errors.New("builder has no connection")
	// ErrTxDone is returned when operating on an already committed or rolled back transaction.
	ErrTxDone = errors.New("transaction has already been committed or rolled back")
)

// fail raises a configuration error. Builders panic on programmer errors
// instead of threading an error through every fluent call.
func fail(sentinel error, format string, args ...interface{}) {
	panic(fmt.Errorf("%w: "+format, append([]interface{}{sentinel}, args...)...))
}

// unsupported raises ErrUnsupportedDialect for the named operation.
func unsupported(operation string) {
	fail(ErrUnsupportedDialect, "%s", operation)
}
