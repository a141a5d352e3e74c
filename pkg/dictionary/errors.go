package dictionary

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedRecord         = errors.New("malformed record")
	ErrMissingCorrespondence   = errors.New("missing correspondence")
	ErrReferenceSourceNotFound = errors.New("reference source not found")
	ErrUnknownMapType          = errors.New("unknown map type")

	// ErrDuplicateDefinition marks an insert that found its row already
	// present. It never leaves this package: callers count it as a no-op.
	ErrDuplicateDefinition = errors.New("duplicate definition")

	ErrNoCorrespondenceTable = errors.New("mapping import requires a correspondence table")
)

type ErrorKind string

const (
	KindMalformedRecord         ErrorKind = "malformed_record"
	KindMissingCorrespondence   ErrorKind = "missing_correspondence"
	KindReferenceSourceNotFound ErrorKind = "reference_source_not_found"
	KindUnknownMapType          ErrorKind = "unknown_map_type"
	KindStore                   ErrorKind = "store_error"
)

// KindOf classifies a per-record error. Anything that is not one of the
// import sentinels is attributed to the store.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrMalformedRecord):
		return KindMalformedRecord
	case errors.Is(err, ErrMissingCorrespondence):
		return KindMissingCorrespondence
	case errors.Is(err, ErrReferenceSourceNotFound):
		return KindReferenceSourceNotFound
	case errors.Is(err, ErrUnknownMapType):
		return KindUnknownMapType
	default:
		return KindStore
	}
}

// RecordError attaches the failing record's foreign id (concept or source id)
// and input line to a per-record failure.
type RecordError struct {
	Kind      ErrorKind
	ForeignID int
	Line      int
	Err       error
}

func (e *RecordError) Error() string {
	if e.ForeignID > 0 {
		return fmt.Sprintf("%s (foreign id %d): %v", e.Kind, e.ForeignID, e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d): %v", e.Kind, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

func newRecordError(foreignID int, err error) *RecordError {
	var re *RecordError
	if errors.As(err, &re) {
		return re
	}
	return &RecordError{Kind: KindOf(err), ForeignID: foreignID, Err: err}
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedRecord, fmt.Sprintf(format, args...))
}

func missingCorrespondence(foreignID int) error {
	return fmt.Errorf("%w for foreign concept %d", ErrMissingCorrespondence, foreignID)
}
