package epub

import (
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/yuanying/epubbook/internal/book"
)

// ImportOptions holds options for reading a container back into a book.
type ImportOptions struct {
	Logger *slog.Logger
	// SortByOrder re-sorts the chapters by their parsed order. By default
	// they keep archive order.
	SortByOrder bool
}

func (o ImportOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Import reads the container at path into a new book. Title, author and
// language come from the package document; chapters come from every .xml
// document under the package directory, in archive order.
//
// Images, the cover reference, the modification time, the identifier and
// chapter folders are not recovered. Any missing metadata field or chapter
// element aborts the import.
func Import(filePath string, opts ImportOptions) (*book.Book, error) {
	logger := opts.logger()

	r, err := Open(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := r.ReadFile(r.OPFPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read OPF: %w", err)
	}
	pkg, err := unmarshalPackage(data)
	if err != nil {
		return nil, err
	}
	title, author, language, err := bookMetadata(pkg)
	if err != nil {
		return nil, err
	}

	b := book.New(title)
	b.Author = author
	b.Language = language

	chapters, err := readChapters(r, logger)
	if err != nil {
		return nil, err
	}
	if opts.SortByOrder {
		sort.SliceStable(chapters, func(i, j int) bool {
			return chapters[i].Order < chapters[j].Order
		})
	}
	b.SetChapters(chapters)

	logger.Info("imported book", "path", filePath, "title", title, "chapters", len(chapters))
	return b, nil
}

// readChapters parses every chapter document under the package directory.
func readChapters(r *Reader, logger *slog.Logger) ([]*book.Chapter, error) {
	prefix := r.ContentDir() + "/"
	if prefix == "./" {
		prefix = ""
	}

	var chapters []*book.Chapter
	for _, name := range r.Entries() {
		if !strings.HasPrefix(name, prefix) || path.Ext(name) != chapterExt {
			continue
		}

		data, err := r.ReadFile(name)
		if err != nil {
			return nil, err
		}
		content, err := LoadContent(strings.TrimSuffix(path.Base(name), chapterExt), name, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		c, err := content.Chapter()
		if err != nil {
			return nil, err
		}

		logger.Debug("read chapter", "entry", name, "title", c.Title, "order", c.Order)
		chapters = append(chapters, c)
	}
	return chapters, nil
}
