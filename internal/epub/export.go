package epub

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/yuanying/epubbook/internal/archive"
	"github.com/yuanying/epubbook/internal/book"
)

// ExportOptions holds options for writing a container.
type ExportOptions struct {
	Logger        *slog.Logger
	MaxImageWidth int // downscale wider raster assets; 0 keeps them as-is
	JPEGQuality   int
	Identifier    string // dc:identifier; a fresh urn:uuid when empty
}

func (o ExportOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// asset is an image ready to be packaged.
type asset struct {
	id        string
	name      string
	href      string // relative to contentDir
	mediaType string
	data      []byte
}

// entry is one file of the container.
type entry struct {
	name       string
	data       []byte
	compressed bool
}

// Export writes b as an EPUB container at path, replacing any existing file.
// On failure the partially written file is removed.
func Export(b *book.Book, path string, opts ExportOptions) (err error) {
	logger := opts.logger()

	entries, err := buildEntries(b, opts, logger)
	if err != nil {
		return err
	}

	w, err := archive.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	for _, e := range entries {
		if err := w.WriteEntry(e.name, e.data, e.compressed); err != nil {
			return err
		}
		logger.Debug("wrote entry", "name", e.name, "bytes", len(e.data))
	}

	logger.Info("exported book", "path", path, "chapters", len(b.Chapters()), "images", len(b.ImageNames()))
	return nil
}

// buildEntries renders every container file in packaging order.
func buildEntries(b *book.Book, opts ExportOptions, logger *slog.Logger) ([]entry, error) {
	identifier := opts.Identifier
	if identifier == "" {
		identifier = "urn:uuid:" + uuid.NewString()
	}

	assets, err := buildAssets(b, opts, logger)
	if err != nil {
		return nil, err
	}

	containerXML, err := buildContainer()
	if err != nil {
		return nil, fmt.Errorf("failed to build container.xml: %w", err)
	}

	entries := []entry{
		{name: mimetypeName, data: []byte(MimeType)},
		{name: containerName, data: containerXML, compressed: true},
		{name: inContentDir(styleHref), data: []byte(stylesheet), compressed: true},
	}

	written := make(map[string]string)
	for _, c := range b.Chapters() {
		id := c.ID()
		if prev, dup := written[id]; dup {
			logger.Warn("chapter title collides with an earlier chapter; its document is skipped", "title", c.Title, "order", c.Order, "previous", prev)
			continue
		}
		written[id] = strconv.Itoa(c.Order)

		data, err := renderChapter(c)
		if err != nil {
			return nil, fmt.Errorf("failed to render chapter %q: %w", c.Title, err)
		}
		entries = append(entries, entry{name: inContentDir(chapterHref(id)), data: data, compressed: true})
	}

	contents, err := renderContents(b)
	if err != nil {
		return nil, fmt.Errorf("failed to render contents page: %w", err)
	}
	entries = append(entries, entry{name: inContentDir(contentsHref), data: contents, compressed: true})

	for _, a := range assets {
		entries = append(entries, entry{name: inContentDir(a.href), data: a.data, compressed: true})
	}

	opf, err := buildOPF(b, identifier, assets)
	if err != nil {
		return nil, fmt.Errorf("failed to build content.opf: %w", err)
	}
	ncx, err := buildNCX(b, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to build toc.ncx: %w", err)
	}
	entries = append(entries,
		entry{name: inContentDir(opfName), data: opf, compressed: true},
		entry{name: inContentDir(ncxName), data: ncx, compressed: true},
	)

	return entries, nil
}

// buildAssets prepares the book's images in name order. The cover asset gets
// the fixed cover id; the rest are numbered.
func buildAssets(b *book.Book, opts ExportOptions, logger *slog.Logger) ([]asset, error) {
	optimizer := NewImageOptimizer(opts)
	names := b.ImageNames()

	if b.Cover != "" {
		if _, ok := b.Image(b.Cover); !ok {
			logger.Warn("cover image not found among assets", "cover", b.Cover)
		}
	}

	assets := make([]asset, 0, len(names))
	for i, name := range names {
		data, _ := b.Image(name)

		img, err := optimizer.Optimize(name, data)
		if err != nil {
			return nil, err
		}
		if img.Warning != "" {
			logger.Warn("image passed through unchanged", "name", name, "reason", img.Warning)
		}
		if img.Resized {
			logger.Debug("resized image", "name", name, "width", img.Width, "height", img.Height)
		}

		id := "image-" + strconv.Itoa(i+1)
		if name == b.Cover {
			id = coverID
		}
		assets = append(assets, asset{
			id:        id,
			name:      name,
			href:      imageHref(name),
			mediaType: imageMediaType(name, img.Data),
			data:      img.Data,
		})
	}
	return assets, nil
}
