// Package abif reads the container header of ABIF (.ab1) chromatogram files.
// Only the directory is decoded; trace data is left to the analysis tools.
package abif

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	headerSize     = 34 // magic(4) + version(2) + root entry(28)
	entrySize      = 28
	dirElementType = 1023
)

var magic = []byte("ABIF")

// ErrNotABIF is returned for files without the ABIF signature.
var ErrNotABIF = errors.New("abif: not an ABIF file")

// Entry is one directory record.
type Entry struct {
	Name        string
	Number      int32
	ElementType int16
	ElementSize int16
	NumElements int32
	DataSize    int32
	DataOffset  int32
}

// File is the decoded directory of an ABIF file.
type File struct {
	Version int
	Entries []Entry
}

// Has reports whether the directory contains a tag name/number pair.
func (f *File) Has(name string, number int32) bool {
	for _, e := range f.Entries {
		if e.Name == name && e.Number == number {
			return true
		}
	}
	return false
}

// ReadFile decodes the directory of the file at path.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("abif: %w", err)
	}
	return Parse(data)
}

// Validate reports whether path is a structurally sound ABIF file.
func Validate(path string) error {
	_, err := ReadFile(path)
	return err
}

// Parse decodes the ABIF directory from an in-memory file.
func Parse(data []byte) (*File, error) {
	if len(data) < headerSize || !bytes.Equal(data[:4], magic) {
		return nil, ErrNotABIF
	}
	version := int(binary.BigEndian.Uint16(data[4:6]))
	root, err := readEntry(bytes.NewReader(data[6:headerSize]))
	if err != nil {
		return nil, fmt.Errorf("abif: root entry: %w", err)
	}
	if root.ElementType != dirElementType || root.ElementSize != entrySize {
		return nil, fmt.Errorf("abif: unexpected directory element type %d size %d", root.ElementType, root.ElementSize)
	}
	if root.NumElements <= 0 {
		return nil, fmt.Errorf("abif: empty directory")
	}
	end := int64(root.DataOffset) + int64(root.NumElements)*entrySize
	if root.DataOffset < headerSize || end > int64(len(data)) {
		return nil, fmt.Errorf("abif: directory out of bounds (offset %d, %d entries, file %d bytes)", root.DataOffset, root.NumElements, len(data))
	}

	r := bytes.NewReader(data[root.DataOffset:end])
	f := &File{Version: version, Entries: make([]Entry, 0, root.NumElements)}
	for i := int32(0); i < root.NumElements; i++ {
		e, err := readEntry(r)
		if err != nil {
			return nil, fmt.Errorf("abif: entry %d: %w", i, err)
		}
		// Payloads of 4 bytes or less are stored inline in DataOffset.
		if e.DataSize > 4 && int64(e.DataOffset)+int64(e.DataSize) > int64(len(data)) {
			return nil, fmt.Errorf("abif: entry %s%d data out of bounds", e.Name, e.Number)
		}
		f.Entries = append(f.Entries, e)
	}
	return f, nil
}

func readEntry(r io.Reader) (Entry, error) {
	var raw struct {
		Name        [4]byte
		Number      int32
		ElementType int16
		ElementSize int16
		NumElements int32
		DataSize    int32
		DataOffset  int32
		DataHandle  int32
	}
	if err := binary.Read(r, binary.BigEndian, &raw); err != nil {
		return Entry{}, err
	}
	return Entry{
		Name:        string(raw.Name[:]),
		Number:      raw.Number,
		ElementType: raw.ElementType,
		ElementSize: raw.ElementSize,
		NumElements: raw.NumElements,
		DataSize:    raw.DataSize,
		DataOffset:  raw.DataOffset,
	}, nil
}
