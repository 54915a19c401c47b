package sidecar

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// Kind is one of the sidecar formats packrepair understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindProperties
)

// ErrUnsupportedKind is returned when decoding with a kind outside the registry.
var ErrUnsupportedKind = errors.New("unsupported sidecar kind")

// registry is fixed at build time: extension (lower case) to kind.
var registry = map[string]Kind{
	".properties": KindProperties,
}

// Lookup returns the kind registered for a file extension.
func Lookup(ext string) (Kind, bool) {
	k, ok := registry[strings.ToLower(ext)]
	return k, ok
}

// KindOf returns the kind for a file path based on its extension.
func KindOf(p string) (Kind, bool) {
	return Lookup(path.Ext(p))
}

func (k Kind) String() string {
	switch k {
	case KindProperties:
		return "properties"
	default:
		return "unknown"
	}
}

// Decode reads a record of kind k.
func (k Kind) Decode(r io.Reader, entry int, packPath string) (*Record, error) {
	rec := NewRecord(entry, packPath, k)
	switch k {
	case KindProperties:
		if err := decodeProperties(r, rec); err != nil {
			return nil, err
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedKind, k)
	}
}

// Encode writes rec in its own kind's format.
func Encode(w io.Writer, rec *Record) error {
	switch rec.Kind {
	case KindProperties:
		return encodeProperties(w, rec)
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedKind, rec.Kind)
	}
}

// ReadFile decodes the file name on fsys. packPath identifies the file in logs.
func ReadFile(fsys afero.Fs, name string, k Kind, entry int, packPath string) (*Record, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return k.Decode(f, entry, packPath)
}

// WriteFile replaces the file name on fsys with the encoded record.
func WriteFile(fsys afero.Fs, name string, rec *Record) error {
	var buf bytes.Buffer
	if err := Encode(&buf, rec); err != nil {
		return err
	}
	return afero.WriteFile(fsys, name, buf.Bytes(), 0o644)
}
