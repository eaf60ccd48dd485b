package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when a lookup by id has no match.
var ErrNotFound = errors.New("not found")

// ValidationError wraps a user-facing validation message. Fields maps input
// field names to the rule they broke.
type ValidationError struct {
	Msg    string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Msg
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return e.Msg + ": " + strings.Join(parts, ", ")
}

// StoreError marks a failure of the persistent store. It is not retried.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
