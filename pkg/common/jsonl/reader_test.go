package jsonl

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type checked struct {
	ID int `json:"id"`
}

func (c *checked) Prepare() error {
	if c.ID < 0 {
		return errors.New("negative id")
	}
	return nil
}

func TestReaderSkipsBlankLinesAndReportsBadOnes(t *testing.T) {
	input := "{\"id\":1,\"name\":\"a\"}\n\n   \n{broken\n{\"id\":2,\"name\":\"b\"}\n"
	r := NewReader[item](strings.NewReader(input))

	first, err := r.Next()
	if err != nil || first.ID != 1 {
		t.Fatalf("expected first record, got %+v %v", first, err)
	}

	_, err = r.Next()
	var le *LineError
	if !errors.As(err, &le) || le.Line != 4 {
		t.Fatalf("expected line error on line 4, got %v", err)
	}

	second, err := r.Next()
	if err != nil || second.Name != "b" || r.Line() != 5 {
		t.Fatalf("expected second record on line 5, got %+v %v line=%d", second, err, r.Line())
	}

	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestReaderRunsPrepare(t *testing.T) {
	r := NewReader[checked](strings.NewReader(`{"id":-1}` + "\n" + `{"id":3}`))
	_, err := r.Next()
	var le *LineError
	if !errors.As(err, &le) || le.Line != 1 {
		t.Fatalf("expected prepare failure as line error, got %v", err)
	}
	rec, err := r.Next()
	if err != nil || rec.ID != 3 {
		t.Fatalf("expected record 3, got %+v %v", rec, err)
	}
}

func TestReaderStreamErrorIsNotALineError(t *testing.T) {
	r := NewReader[item](iotest.ErrReader(errors.New("disk gone")))
	_, err := r.Next()
	if err == nil || err == io.EOF {
		t.Fatalf("expected stream error, got %v", err)
	}
	var le *LineError
	if errors.As(err, &le) {
		t.Fatalf("stream error must not be a line error: %v", err)
	}
}

func TestReaderSkipsOversizedLine(t *testing.T) {
	input := `{"id":1,"name":"short"}` + "\n" +
		`{"id":2,"name":"` + strings.Repeat("x", 200) + `"}` + "\n" +
		`{"id":3,"name":"after"}` + "\n"
	r := NewReader[item](strings.NewReader(input))
	r.maxLine = 64

	first, err := r.Next()
	if err != nil || first.ID != 1 {
		t.Fatalf("expected record 1, got %+v %v", first, err)
	}

	_, err = r.Next()
	var le *LineError
	if !errors.As(err, &le) || le.Line != 2 || !errors.Is(err, ErrLineTooLong) {
		t.Fatalf("expected oversized line error on line 2, got %v", err)
	}

	third, err := r.Next()
	if err != nil || third.ID != 3 {
		t.Fatalf("expected record 3 after oversized line, got %+v %v", third, err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestReaderLastLineWithoutNewline(t *testing.T) {
	r := NewReader[item](strings.NewReader(`{"id":7,"name":"tail"}`))
	rec, err := r.Next()
	if err != nil || rec.ID != 7 {
		t.Fatalf("expected record 7, got %+v %v", rec, err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}
