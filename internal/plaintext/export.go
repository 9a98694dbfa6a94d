// Package plaintext writes a book as a plain zip archive: one text file per
// chapter, named by its title, plus the raw image assets. There is no
// manifest, navigation or XML.
package plaintext

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/yuanying/epubbook/internal/archive"
	"github.com/yuanying/epubbook/internal/book"
)

// Supported output formats.
const (
	FormatText     = "txt"
	FormatMarkdown = "md"
)

const imagesDir = "images"

// Options holds options for the plain export.
type Options struct {
	// Format is FormatText (bodies as stored) or FormatMarkdown (bodies
	// converted from inline HTML). Empty means FormatText.
	Format string
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Export writes b to a zip archive at filePath, replacing any existing file.
// Chapters become <title>.<format> at the archive root in sequence order and
// assets become images/<name>. Section markers are skipped.
func Export(b *book.Book, filePath string, opts Options) (err error) {
	logger := opts.logger()

	format := opts.Format
	if format == "" {
		format = FormatText
	}
	if format != FormatText && format != FormatMarkdown {
		return fmt.Errorf("unsupported format %q: must be %s or %s", format, FormatText, FormatMarkdown)
	}

	w, err := archive.Create(filePath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(filePath)
		}
	}()

	for _, c := range b.Chapters() {
		body := c.Content
		if format == FormatMarkdown {
			if body, err = htmltomarkdown.ConvertString(c.Content); err != nil {
				return fmt.Errorf("failed to convert chapter %q to markdown: %w", c.Title, err)
			}
		}

		name := entryName(c.Title) + "." + format
		if err := w.WriteEntry(name, []byte(body), true); err != nil {
			return err
		}
		logger.Debug("wrote chapter", "name", name, "order", c.Order)
	}

	for _, name := range b.ImageNames() {
		data, _ := b.Image(name)
		if err := w.WriteEntry(path.Join(imagesDir, name), data, true); err != nil {
			return err
		}
	}

	logger.Info("exported plain archive", "path", filePath, "format", format, "chapters", len(b.Chapters()))
	return nil
}

// entryName turns a chapter title into a single path element.
func entryName(title string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(title))
	if name == "" || name == "." || name == ".." {
		return "untitled"
	}
	return name
}
