package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Flag accepts the boolean spellings found in dictionary exports: JSON
// booleans, 0/1 tinyints and their string forms.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = false
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	switch strings.ToLower(raw) {
	case "true", "1", "t", "yes":
		*f = true
	case "false", "0", "f", "no", "":
		*f = false
	default:
		return fmt.Errorf("invalid flag value %s", data)
	}
	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(f))
}

// IntID accepts numeric ids written either as numbers or strings.
type IntID int

func (i *IntID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*i = 0
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	if raw == "" {
		*i = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid id value %s", data)
	}
	*i = IntID(n)
	return nil
}

// Or returns the id, or fallback when it is unset.
func (i IntID) Or(fallback int) int {
	if i <= 0 {
		return fallback
	}
	return int(i)
}
