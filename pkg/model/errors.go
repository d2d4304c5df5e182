package model

import (
	"errors"
	"fmt"
)

// Defining possible error
var (
	ErrDuplicateAssignment = errors.New("duplicate sequence id")
	ErrUnsupportedFormat   = errors.New("unsupported file format")
	ErrUnknownTarget       = errors.New("unknown reference target")
	ErrMalformedRecord     = errors.New("malformed record")
	ErrOutputNotProduced   = errors.New("output file was not produced")
)

// RecordError points at the offending part of an input file: a line for
// line oriented text, otherwise the ordinal of the record.
type RecordError struct {
	Source string
	Line   int
	Record int
	Msg    string
}

func (e *RecordError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("%s: %s:%d: %s", ErrMalformedRecord, e.Source, e.Line, e.Msg)
	case e.Record > 0:
		return fmt.Sprintf("%s: %s: record %d: %s", ErrMalformedRecord, e.Source, e.Record, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", ErrMalformedRecord, e.Source, e.Msg)
}

func (e *RecordError) Unwrap() error {
	return ErrMalformedRecord
}
