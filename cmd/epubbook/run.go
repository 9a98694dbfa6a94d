package main

import (
	"fmt"
	"html"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuanying/epubbook/internal/book"
	"github.com/yuanying/epubbook/internal/epub"
	"github.com/yuanying/epubbook/internal/plaintext"
)

var orderPrefixRe = regexp.MustCompile(`^\d+[-_. ]+`)

func runBuild(opts buildOptions) error {
	logger := opts.Export.Logger

	b, err := loadSource(opts.SourceDir, opts.Title, logger)
	if err != nil {
		return err
	}
	b.Author = opts.Author
	b.Language = opts.Language

	if opts.Cover != "" {
		if _, ok := b.Image(opts.Cover); !ok {
			return fmt.Errorf("invalid --cover %q: no such image in %s", opts.Cover, opts.SourceDir)
		}
		b.Cover = opts.Cover
	}

	logger.Info("building", "source", opts.SourceDir, "output", opts.OutputPath, "chapters", len(b.Chapters()))
	if err := epub.Export(b, opts.OutputPath, opts.Export); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	logger.Info("done", "output", opts.OutputPath)
	return nil
}

// loadSource reads a directory of chapter and image files into a book.
// Chapters are numbered from 1 in file name order.
func loadSource(dir, title string, logger *slog.Logger) (*book.Book, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}

	b := book.New(title)
	order := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))

		var kind string
		switch ext {
		case ".html", ".xhtml", ".txt":
			kind = "chapter"
		case ".png", ".jpg", ".jpeg", ".gif":
			kind = "image"
		default:
			logger.Debug("skipping file", "name", name)
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		if kind == "image" {
			b.AddImage(name, data)
			if b.Cover == "" && strings.EqualFold(strings.TrimSuffix(name, filepath.Ext(name)), "cover") {
				b.Cover = name
			}
			continue
		}

		order++
		content := string(data)
		if ext == ".txt" {
			content = textToMarkup(content)
		}
		b.AddChapter(chapterTitle(name), strings.TrimSpace(content), order)
	}
	return b, nil
}

// chapterTitle derives a chapter title from its file name.
func chapterTitle(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if t := orderPrefixRe.ReplaceAllString(base, ""); t != "" {
		return t
	}
	return base
}

// textToMarkup escapes plain text and keeps its line breaks.
func textToMarkup(s string) string {
	lines := strings.Split(strings.ReplaceAll(strings.TrimSpace(s), "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = html.EscapeString(l)
	}
	return strings.Join(lines, "<br/>")
}

func runInfo(w io.Writer, path string, logger *slog.Logger) error {
	r, err := epub.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	opf, err := r.Package()
	if err != nil {
		return err
	}

	b, err := epub.Import(path, epub.ImportOptions{Logger: logger})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Title:      %s\n", b.Title)
	fmt.Fprintf(w, "Author:     %s\n", b.Author)
	fmt.Fprintf(w, "Language:   %s\n", b.Language)
	fmt.Fprintf(w, "Identifier: %s\n", opf.Metadata.Identifier)
	if opf.Metadata.Modified != "" {
		fmt.Fprintf(w, "Modified:   %s\n", opf.Metadata.Modified)
	}
	if cover := opf.DetectCover(); cover != nil {
		fmt.Fprintf(w, "Cover:      %s (%s)\n", cover.Href, cover.DetectionMethod)
	}

	if ncx, err := r.NCX(opf); err == nil {
		fmt.Fprintf(w, "Navigation: %d entries\n", len(ncx.NavPoints))
	} else {
		logger.Warn("no navigation document", "error", err)
	}

	chapters := b.Chapters()
	fmt.Fprintf(w, "Chapters:   %d\n", len(chapters))
	for _, c := range chapters {
		fmt.Fprintf(w, "  %3d  %s\n", c.Order, c.Title)
	}
	return nil
}

func runText(opts textOptions) error {
	b, err := epub.Import(opts.InputPath, epub.ImportOptions{
		Logger:      opts.Logger,
		SortByOrder: opts.SortOrder,
	})
	if err != nil {
		return err
	}

	if err := plaintext.Export(b, opts.OutputPath, plaintext.Options{
		Format: opts.Format,
		Logger: opts.Logger,
	}); err != nil {
		return fmt.Errorf("text export failed: %w", err)
	}
	opts.Logger.Info("done", "output", opts.OutputPath)
	return nil
}
