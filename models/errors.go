package models

import (
	"fmt"
	"strings"
)

// ValidationError reports a missing or malformed request field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports an id that does not resolve to a stored entity
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %v not found", e.Entity, e.ID)
}

// ParseError reports generator output that does not match the expected shape
type ParseError struct {
	Kind    string
	Missing []string
	Message string
}

func (e *ParseError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("invalid %s response format", e.Kind)
	}
	if len(e.Missing) > 0 {
		msg += " (missing " + strings.Join(e.Missing, ", ") + ")"
	}
	return msg
}

// NameMismatchError reports that the generator answered about another entity
type NameMismatchError struct {
	Kind     string
	Expected string
	Got      string
}

func (e *NameMismatchError) Error() string {
	return fmt.Sprintf("%s name mismatch: expected %s, got %s", e.Kind, e.Expected, e.Got)
}

// GenerationError reports that no model produced usable text
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed on model %s: %v", e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a failed store read or write
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
