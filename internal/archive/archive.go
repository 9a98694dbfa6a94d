// Package archive stores and extracts named byte blobs in a zip container.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ErrEntryNotFound is returned when a named entry is not in the archive.
var ErrEntryNotFound = errors.New("archive entry not found")

// Writer writes entries into a new archive file.
type Writer struct {
	f  *os.File
	zw *zip.Writer
}

// Create creates the archive at path, truncating any existing file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive %s: %w", path, err)
	}
	return &Writer{f: f, zw: zip.NewWriter(f)}, nil
}

// WriteEntry adds one entry. Uncompressed entries use the Store method.
func (w *Writer) WriteEntry(name string, data []byte, compressed bool) error {
	method := zip.Store
	if compressed {
		method = zip.Deflate
	}

	ew, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: method,
	})
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", name, err)
	}
	if _, err := ew.Write(data); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", name, err)
	}
	return nil
}

// Close flushes the central directory and closes the file.
func (w *Writer) Close() error {
	zerr := w.zw.Close()
	ferr := w.f.Close()
	if zerr != nil {
		return fmt.Errorf("failed to finalize archive: %w", zerr)
	}
	return ferr
}

// Reader provides access to the entries of an existing archive.
type Reader struct {
	zr    *zip.ReadCloser
	files map[string]*zip.File
	names []string
}

// Open opens the archive at path.
func Open(path string) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	r := &Reader{
		zr:    zr,
		files: make(map[string]*zip.File),
	}
	for _, f := range zr.File {
		name := normalizePath(f.Name)
		if _, dup := r.files[name]; !dup {
			r.names = append(r.names, name)
		}
		r.files[name] = f
	}

	return r, nil
}

// Close closes the archive.
func (r *Reader) Close() error {
	return r.zr.Close()
}

// Entries returns the entry names in central-directory order.
func (r *Reader) Entries() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Stored reports whether the named entry exists and is uncompressed.
func (r *Reader) Stored(name string) (stored, ok bool) {
	f, ok := r.files[normalizePath(name)]
	if !ok {
		return false, false
	}
	return f.Method == zip.Store, true
}

// ReadEntry reads the full contents of the named entry.
func (r *Reader) ReadEntry(name string) ([]byte, error) {
	name = normalizePath(name)
	f, ok := r.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open entry %s: %w", name, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// normalizePath removes a leading ./ from entry names.
func normalizePath(path string) string {
	return strings.TrimPrefix(path, "./")
}
