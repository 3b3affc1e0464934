package spec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrTrailingData is returned when a document has content after the spec
var ErrTrailingData = errors.New("unexpected data after specification")

// Marshal encodes a specification in its wire format
func Marshal(s *ReportSpecification) ([]byte, error) {
	return json.Marshal(s)
}

// MarshalIndent is Marshal with two-space indentation
func MarshalIndent(s *ReportSpecification) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Unmarshal decodes exactly one specification document. Unknown fields are
// ignored; missing fields are left empty for the validator to report.
func Unmarshal(data []byte) (*ReportSpecification, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var s ReportSpecification
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode specification: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, ErrTrailingData
	}
	return &s, nil
}

// UnmarshalJSON rejects items that are not a JSON object, which plain
// decoding would otherwise turn into an empty item silently.
func (i *Item) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("item must be an object, got %s", truncate(trimmed, 20))
	}
	type plain Item
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*i = Item(p)
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
