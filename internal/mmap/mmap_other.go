//go:build !unix

package mmap

import (
	"io"
	"os"
)

// Fallback for platforms without mmap(2): read the whole file.
func open(f *os.File, size int) (*Mapping, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return &Mapping{data: data}, nil
}
