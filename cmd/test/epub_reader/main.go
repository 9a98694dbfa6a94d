// Test program for the EPUB reader and importer
//
// Usage:
//
//	go run ./cmd/test/epub_reader/main.go <epub-file-path> (<entry-name> ...)
//
// This program exercises:
// - Opening and validating the container
// - Parsing the package and navigation documents
// - Cover detection
// - Importing chapters
// - Dumping individual entries
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/yuanying/epubbook/internal/epub"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/test/epub_reader/main.go <epub-file> (<entry-name> ...)")
		os.Exit(1)
	}

	epubPath := os.Args[1]
	entryNames := os.Args[2:]

	fmt.Printf("Opening EPUB file: %s\n", epubPath)
	reader, err := epub.Open(epubPath)
	if err != nil {
		log.Fatalf("Failed to open EPUB: %v", err)
	}
	defer reader.Close()

	fmt.Printf("✓ EPUB opened successfully\n")
	fmt.Printf("OPF Path: %s\n\n", reader.OPFPath())

	entries := reader.Entries()
	fmt.Printf("Total entries: %d\n", len(entries))
	for _, name := range entries {
		fmt.Printf("  - %s\n", name)
	}

	fmt.Println("\nParsing OPF...")
	opf, err := reader.Package()
	if err != nil {
		log.Fatalf("Failed to parse OPF: %v", err)
	}
	fmt.Printf("✓ %q, %d manifest items, %d spine items\n", opf.Metadata.Title, len(opf.Manifest), len(opf.Spine))
	for _, c := range opf.Metadata.Creators {
		fmt.Printf("  creator: %s (file-as %q, role %q)\n", c.Name, c.FileAs, c.Role)
	}
	if cover := opf.DetectCover(); cover != nil {
		fmt.Printf("  cover: %s via %s\n", cover.Href, cover.DetectionMethod)
	}

	fmt.Println("\nParsing NCX...")
	if ncx, err := reader.NCX(opf); err != nil {
		fmt.Printf("✗ %v\n", err)
	} else {
		for _, p := range ncx.NavPoints {
			fmt.Printf("  %2d  %-30s %s\n", p.PlayOrder, p.Label, p.ContentPath)
		}
	}

	fmt.Println("\nImporting chapters...")
	b, err := epub.Import(epubPath, epub.ImportOptions{})
	if err != nil {
		log.Fatalf("Failed to import: %v", err)
	}
	for _, c := range b.Chapters() {
		fmt.Printf("  %3d  %s (%d bytes)\n", c.Order, c.Title, len(c.Content))
	}

	for _, name := range entryNames {
		fmt.Printf("\nReading entry: %s\n", name)
		content, err := reader.ReadFile(name)
		if err != nil {
			log.Fatalf("Failed to read entry %s: %v", name, err)
		}
		fmt.Printf("Content:\n%s\n", string(content))
	}

	fmt.Println("\n✓ All checks passed!")
}
