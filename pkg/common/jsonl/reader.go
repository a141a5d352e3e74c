package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const maxLineBytes = 16 * 1024 * 1024

// Preparer is implemented by records that derive fields after decoding.
type Preparer interface {
	Prepare() error
}

// LineError reports a single undecodable line. It is not fatal: callers
// count it and keep reading.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// ErrLineTooLong marks a line over the size cap. The line is skipped and
// reading continues with the next one.
var ErrLineTooLong = errors.New("line exceeds size limit")

// Reader lazily decodes one JSON object per line.
type Reader[T any] struct {
	br      *bufio.Reader
	line    int
	maxLine int
}

func NewReader[T any](r io.Reader) *Reader[T] {
	return &Reader[T]{br: bufio.NewReaderSize(r, 64*1024), maxLine: maxLineBytes}
}

// Next returns the next record. It returns io.EOF at the end of input, a
// *LineError for a bad or oversized line, and any other error when the
// stream itself cannot be read.
func (r *Reader[T]) Next() (*T, error) {
	for {
		raw, tooLong, err := r.readLine()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", r.line+1, err)
		}
		r.line++
		if tooLong {
			return nil, &LineError{Line: r.line, Err: fmt.Errorf("%w (%d bytes)", ErrLineTooLong, r.maxLine)}
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}

		rec := new(T)
		if err := json.Unmarshal(raw, rec); err != nil {
			return nil, &LineError{Line: r.line, Err: err}
		}
		if p, ok := any(rec).(Preparer); ok {
			if err := p.Prepare(); err != nil {
				return nil, &LineError{Line: r.line, Err: err}
			}
		}
		return rec, nil
	}
}

// readLine returns one line without its terminator. A line longer than the
// cap is drained and reported with tooLong set instead of being buffered.
func (r *Reader[T]) readLine() ([]byte, bool, error) {
	var (
		buf     []byte
		tooLong bool
		started bool
	)
	for {
		chunk, isPrefix, err := r.br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && started {
				return buf, tooLong, nil
			}
			return nil, false, err
		}
		started = true
		if !tooLong {
			if len(buf)+len(chunk) > r.maxLine {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return buf, tooLong, nil
		}
	}
}

// Line is the number of the line most recently read.
func (r *Reader[T]) Line() int {
	return r.line
}
