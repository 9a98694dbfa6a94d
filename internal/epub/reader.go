package epub

import (
	"encoding/xml"
	"errors"
	"fmt"
	"path"

	"github.com/yuanying/epubbook/internal/archive"
)

// Reader provides access to EPUB container contents
type Reader struct {
	archive *archive.Reader
	opfPath string
}

var (
	ErrInvalidMimetype    = errors.New("invalid mimetype: must be 'application/epub+zip'")
	ErrMimetypeCompressed = errors.New("mimetype must not be compressed")
	ErrMimetypeNotFound   = errors.New("mimetype file not found")
	ErrContainerNotFound  = errors.New("META-INF/container.xml not found")
	ErrOPFPathNotFound    = errors.New("OPF path not found in container.xml")
)

// Open opens an EPUB file and validates its structure
func Open(filePath string) (*Reader, error) {
	ar, err := archive.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB: %w", err)
	}

	r := &Reader{archive: ar}

	if err := r.validateMimetype(); err != nil {
		ar.Close()
		return nil, err
	}

	if err := r.parseContainer(); err != nil {
		ar.Close()
		return nil, err
	}

	return r, nil
}

// Close closes the EPUB reader
func (r *Reader) Close() error {
	return r.archive.Close()
}

// OPFPath returns the path to the OPF file
func (r *Reader) OPFPath() string {
	return r.opfPath
}

// ContentDir returns the directory holding the OPF file.
func (r *Reader) ContentDir() string {
	return path.Dir(r.opfPath)
}

// Entries returns every entry name in archive order.
func (r *Reader) Entries() []string {
	return r.archive.Entries()
}

// ReadFile reads the contents of a file from the EPUB
func (r *Reader) ReadFile(name string) ([]byte, error) {
	return r.archive.ReadEntry(name)
}

// Package reads and parses the OPF file.
func (r *Reader) Package() (*OPF, error) {
	data, err := r.ReadFile(r.opfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read OPF: %w", err)
	}
	return ParseOPF(data, r.ContentDir())
}

// NCX reads and parses the navigation document declared by opf.
func (r *Reader) NCX(opf *OPF) (*NCX, error) {
	if opf.NCXPath == "" {
		return nil, fmt.Errorf("no NCX declared in spine: %w", archive.ErrEntryNotFound)
	}
	data, err := r.ReadFile(opf.NCXPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read NCX: %w", err)
	}
	return ParseNCX(data, path.Dir(opf.NCXPath))
}

// validateMimetype checks that the mimetype file exists and is valid
func (r *Reader) validateMimetype() error {
	stored, ok := r.archive.Stored(mimetypeName)
	if !ok {
		return ErrMimetypeNotFound
	}
	if !stored {
		return ErrMimetypeCompressed
	}

	content, err := r.ReadFile(mimetypeName)
	if err != nil {
		return fmt.Errorf("failed to read mimetype: %w", err)
	}
	if string(content) != MimeType {
		return ErrInvalidMimetype
	}

	return nil
}

// parseContainer parses container.xml to extract OPF path
func (r *Reader) parseContainer() error {
	content, err := r.ReadFile(containerName)
	if err != nil {
		return ErrContainerNotFound
	}

	var c container
	if err := xml.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("failed to parse container.xml: %w", err)
	}

	for _, rf := range c.Rootfiles.Rootfile {
		if rf.MediaType == opfMediaType || rf.MediaType == "" {
			r.opfPath = rf.FullPath
			return nil
		}
	}

	// no media-type match: use the first rootfile
	if len(c.Rootfiles.Rootfile) > 0 {
		r.opfPath = c.Rootfiles.Rootfile[0].FullPath
		return nil
	}

	return ErrOPFPathNotFound
}
