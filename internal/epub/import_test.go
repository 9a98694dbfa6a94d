package epub

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/yuanying/epubbook/internal/book"
)

func TestImport_RoundTrip(t *testing.T) {
	b := sampleBook()
	b.Modified = 42
	b.AddImage("front.png", testPNG(t, 2, 2))
	b.Cover = "front.png"

	path := filepath.Join(t.TempDir(), "book.epub")
	if err := Export(b, path, ExportOptions{}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	got, err := Import(path, ImportOptions{})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if got.Title != "T" || got.Author != "Jane Doe" || got.Language != "en" {
		t.Errorf("metadata = (%q, %q, %q)", got.Title, got.Author, got.Language)
	}

	chapters := got.Chapters()
	if len(chapters) != 2 {
		t.Fatalf("len(Chapters()) = %d, want 2", len(chapters))
	}
	for _, want := range b.Chapters() {
		content, ok := got.ChapterContent(want.Order)
		if !ok {
			t.Errorf("chapter %d missing after import", want.Order)
			continue
		}
		if content != want.Content {
			t.Errorf("chapter %d content = %q, want %q", want.Order, content, want.Content)
		}
	}

	// assets, the cover and the timestamp are not carried back
	if names := got.ImageNames(); len(names) != 0 {
		t.Errorf("ImageNames() = %v, want none", names)
	}
	if got.Cover != "" {
		t.Errorf("Cover = %q, want empty", got.Cover)
	}
	if got.Modified == 42 {
		t.Error("Modified survived the round trip")
	}
}

func TestImport_MarkupSurvives(t *testing.T) {
	b := sampleBook()
	body := `Line with <i>italics</i> &amp; a "quote"`
	b.SetChapterContent(1, body)

	path := filepath.Join(t.TempDir(), "book.epub")
	if err := Export(b, path, ExportOptions{}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	got, err := Import(path, ImportOptions{})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if content, _ := got.ChapterContent(1); content != body {
		t.Errorf("content = %q, want %q", content, body)
	}
}

func TestImport_ArchiveOrderAndSort(t *testing.T) {
	b := book.New("T")
	b.Author = "A"
	b.Language = "en"
	b.AddChapter("Late", "l", 9)
	b.AddChapter("Early", "e", 1)

	path := filepath.Join(t.TempDir(), "book.epub")
	if err := Export(b, path, ExportOptions{}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	tests := []struct {
		name string
		opts ImportOptions
		want []int
	}{
		{"archive order", ImportOptions{}, []int{9, 1}},
		{"sorted", ImportOptions{SortByOrder: true}, []int{1, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Import(path, tt.opts)
			if err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			var orders []int
			for _, c := range got.Chapters() {
				orders = append(orders, c.Order)
			}
			if len(orders) != len(tt.want) || orders[0] != tt.want[0] || orders[1] != tt.want[1] {
				t.Errorf("orders = %v, want %v", orders, tt.want)
			}
		})
	}
}

func TestImport_SectionsDropped(t *testing.T) {
	b := sampleBook()
	b.AddSection("Appendix")

	path := filepath.Join(t.TempDir(), "book.epub")
	if err := Export(b, path, ExportOptions{}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	got, err := Import(path, ImportOptions{})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if got.Len() != 2 {
		t.Errorf("Len() = %d, want only the two chapters", got.Len())
	}
}

func TestImport_MissingMetadata(t *testing.T) {
	opf := strings.Replace(testOPF, "<dc:language>en</dc:language>", "", 1)
	files := validEPUBFiles()
	files[2].body = opf
	path := createTestEPUB(t, t.TempDir(), "nolang.epub", files...)

	_, err := Import(path, ImportOptions{})
	if !errors.Is(err, ErrMissingMetadata) {
		t.Fatalf("Import() error = %v, want ErrMissingMetadata", err)
	}
	if !strings.Contains(err.Error(), "dc:language") {
		t.Errorf("error %q does not name the field", err)
	}
}

func TestImport_MissingChapterElement(t *testing.T) {
	broken := strings.Replace(testChapter, `<p class="ps1">First body</p>`, "", 1)
	path := createTestEPUB(t, t.TempDir(), "broken.epub",
		validEPUBFiles(testFile{name: "OPS/ch2.xml", body: broken})...)

	if _, err := Import(path, ImportOptions{}); !errors.Is(err, ErrMissingElement) {
		t.Errorf("Import() error = %v, want ErrMissingElement", err)
	}
}

func TestImport_IgnoresNonChapterEntries(t *testing.T) {
	path := createTestEPUB(t, t.TempDir(), "extra.epub", validEPUBFiles(
		testFile{name: "OPS/contents.xhtml", body: "<html/>"},
		testFile{name: "OPS/images/a.png", body: "png"},
		testFile{name: "META-INF/extra.xml", body: "<x/>"},
	)...)

	got, err := Import(path, ImportOptions{})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if got.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", got.Len())
	}
	c := got.Chapters()[0]
	if c.Title != "One" || c.Order != 1 || c.Content != "First body" {
		t.Errorf("chapter = %+v", c)
	}
}

func TestImport_NotAnEPUB(t *testing.T) {
	path := createTestEPUB(t, t.TempDir(), "plain.zip",
		testFile{name: "readme.txt", body: "hi", method: zip.Deflate})

	if _, err := Import(path, ImportOptions{}); !errors.Is(err, ErrMimetypeNotFound) {
		t.Errorf("Import() error = %v, want ErrMimetypeNotFound", err)
	}
	if _, err := Import(filepath.Join(t.TempDir(), "nope.epub"), ImportOptions{}); err == nil {
		t.Error("Import() expected error for a missing file")
	}
}
