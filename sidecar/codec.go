package sidecar

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding is the character set a sidecar file was read with.
type Encoding int

const (
	UTF8 Encoding = iota
	Latin1
)

func (e Encoding) String() string {
	if e == Latin1 {
		return "ISO-8859-1"
	}
	return "UTF-8"
}

// decodeText returns the content as a Go string. Bytes that are not valid
// UTF-8 are read as ISO-8859-1, which accepts every byte.
func decodeText(b []byte) (string, Encoding, error) {
	if utf8.Valid(b) {
		return string(b), UTF8, nil
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", Latin1, err
	}
	return string(s), Latin1, nil
}

func encodeText(s string, enc Encoding) ([]byte, error) {
	if enc != Latin1 {
		return []byte(s), nil
	}
	return charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
}

// decodeProperties parses key/value lines. Comment and blank lines are
// ignored, the first '=' splits key from value, pairs whose trimmed key or
// value is empty are dropped and lines without '=' are recorded as malformed.
func decodeProperties(r io.Reader, rec *Record) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	text, enc, err := decodeText(raw)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", rec.Path, err)
	}
	rec.Encoding = enc

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			rec.Malformed = append(rec.Malformed, Malformed{Line: i + 1, Text: line})
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		rec.Set(key, value)
	}
	return nil
}

// encodeProperties writes one "key = value" line per pair in insertion order.
func encodeProperties(w io.Writer, rec *Record) error {
	var sb strings.Builder
	for key, value := range rec.All {
		sb.WriteString(key)
		sb.WriteString(" = ")
		sb.WriteString(value)
		sb.WriteByte('\n')
	}
	b, err := encodeText(sb.String(), rec.Encoding)
	if err != nil {
		return fmt.Errorf("encoding %s as %s: %w", rec.Path, rec.Encoding, err)
	}
	_, err = w.Write(b)
	return err
}
