// Package loader handles ROM file loading operations.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/chip8vm/internal/memory"
)

// ErrShortRead is returned when fewer bytes could be read than the file size
// reported.
var ErrShortRead = errors.New("short read")

// Loader handles loading ROM files from disk.
type Loader struct{}

// New creates a new ROM loader.
func New() *Loader {
	return &Loader{}
}

// Load reads the complete program image of a ROM file. Empty files and files
// that do not fit into memory are rejected before any data is read.
func (l *Loader) Load(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("reading file info %s: %w", path, err)
	}

	size := info.Size()
	switch {
	case size == 0:
		return nil, fmt.Errorf("loading %s: %w", path, memory.ErrEmptyRom)
	case size > memory.MaxProgramSize:
		return nil, fmt.Errorf("loading %s: %w: %d bytes exceed the maximum of %d bytes",
			path, memory.ErrRomTooLarge, size, memory.MaxProgramSize)
	}

	return read(file, int(size))
}

func read(reader io.Reader, size int) ([]byte, error) {
	data := make([]byte, size)
	n, err := io.ReadFull(reader, data)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: read %d of %d bytes", ErrShortRead, n, size)
		}
		return nil, fmt.Errorf("reading data: %w", err)
	}
	return data, nil
}
