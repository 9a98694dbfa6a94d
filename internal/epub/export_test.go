package epub

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/yuanying/epubbook/internal/book"
)

func sampleBook() *book.Book {
	b := book.New("T")
	b.Author = "Jane Doe"
	b.Language = "en"
	b.AddChapter("Intro", "Hello", 1)
	b.AddChapter("End", "Bye", 2)
	return b
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func exportAndOpen(t *testing.T, b *book.Book, opts ExportOptions) (*Reader, *OPF) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.epub")
	if err := Export(b, path, opts); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { r.Close() })

	opf, err := r.Package()
	if err != nil {
		t.Fatalf("Package() error = %v", err)
	}
	return r, opf
}

func TestExport_Layout(t *testing.T) {
	b := sampleBook()
	b.AddImage("front.png", testPNG(t, 4, 4))
	b.Cover = "front.png"

	r, _ := exportAndOpen(t, b, ExportOptions{})

	intro, end := book.TitleHash("Intro"), book.TitleHash("End")
	want := []string{
		"mimetype",
		"META-INF/container.xml",
		"OPS/css/style.css",
		"OPS/" + intro + ".xml",
		"OPS/" + end + ".xml",
		"OPS/contents.xhtml",
		"OPS/images/front.png",
		"OPS/content.opf",
		"OPS/toc.ncx",
	}
	if got := r.Entries(); strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("Entries() = %v, want %v", got, want)
	}

	stored, ok := r.archive.Stored("mimetype")
	if !ok || !stored {
		t.Errorf("mimetype stored = %v, %v; want stored entry", stored, ok)
	}
	data, err := r.ReadFile("mimetype")
	if err != nil || string(data) != MimeType {
		t.Errorf("mimetype = %q, %v", data, err)
	}
}

func TestExport_HashConsistency(t *testing.T) {
	b := sampleBook()
	b.AddSection("Part Two")
	r, opf := exportAndOpen(t, b, ExportOptions{})

	data, err := r.ReadFile(opf.NCXPath)
	if err != nil {
		t.Fatalf("ReadFile(ncx) error = %v", err)
	}
	ncx, err := ParseNCX(data, r.ContentDir())
	if err != nil {
		t.Fatalf("ParseNCX() error = %v", err)
	}

	xhtml := 0
	for _, id := range opf.ManifestOrder {
		if opf.Manifest[id].MediaType == xhtmlMediaType && id != contentsID {
			xhtml++
		}
	}
	if xhtml != 2 {
		t.Errorf("chapter manifest items = %d, want 2", xhtml)
	}
	if len(opf.Spine) != 2 {
		t.Fatalf("len(Spine) = %d, want 2", len(opf.Spine))
	}
	if len(ncx.NavPoints) != 3 {
		t.Fatalf("len(NavPoints) = %d, want 3", len(ncx.NavPoints))
	}
	if first := ncx.NavPoints[0]; first.Label != "Contents" || first.PlayOrder != 1 {
		t.Errorf("first NavPoint = %+v, want Contents at playOrder 1", first)
	}

	for i, title := range []string{"Intro", "End"} {
		hash := book.TitleHash(title)
		item, ok := opf.Manifest[hash]
		if !ok {
			t.Fatalf("manifest lacks %s (%s)", hash, title)
		}
		if opf.Spine[i].IDRef != hash {
			t.Errorf("Spine[%d].IDRef = %q, want %q", i, opf.Spine[i].IDRef, hash)
		}
		if ncx.NavPoints[i+1].ContentPath != item.Href {
			t.Errorf("NavPoint %d targets %q, manifest says %q", i+1, ncx.NavPoints[i+1].ContentPath, item.Href)
		}
		if _, err := r.ReadFile(item.Href); err != nil {
			t.Errorf("chapter document %s missing: %v", item.Href, err)
		}
	}
}

func TestExport_Metadata(t *testing.T) {
	b := sampleBook()
	b.Modified = 1700000000
	b.AddImage("front.png", testPNG(t, 2, 2))
	b.Cover = "front.png"

	_, opf := exportAndOpen(t, b, ExportOptions{Identifier: "urn:isbn:123"})

	md := opf.Metadata
	if md.Title != "T" || md.Language != "en" || md.Identifier != "urn:isbn:123" {
		t.Errorf("Metadata = %+v", md)
	}
	if len(md.Creators) != 1 || md.Creators[0].FileAs != "Doe, Jane" {
		t.Errorf("Creators = %+v", md.Creators)
	}
	if md.Date != "2023-11-14T22:13:20Z" {
		t.Errorf("Date = %q", md.Date)
	}
	cover := opf.DetectCover()
	if cover == nil || cover.ManifestID != coverID || cover.MediaType != "image/png" {
		t.Errorf("DetectCover() = %+v", cover)
	}
}

func TestExport_FreshIdentifier(t *testing.T) {
	_, first := exportAndOpen(t, sampleBook(), ExportOptions{})
	_, second := exportAndOpen(t, sampleBook(), ExportOptions{})

	if !strings.HasPrefix(first.Metadata.Identifier, "urn:uuid:") {
		t.Errorf("Identifier = %q, want urn:uuid prefix", first.Metadata.Identifier)
	}
	if first.Metadata.Identifier == second.Metadata.Identifier {
		t.Error("two exports share an identifier")
	}
}

func TestExport_OverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.epub")
	if err := os.WriteFile(path, bytes.Repeat([]byte("junk"), 4096), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Export(sampleBook(), path, ExportOptions{}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("overwritten file is not a zip: %v", err)
	}
	zr.Close()
}

func TestExport_EmptyBook(t *testing.T) {
	b := book.New("Empty")
	b.Author = "Nobody"
	b.Language = "en"

	r, opf := exportAndOpen(t, b, ExportOptions{})
	if len(opf.Spine) != 0 {
		t.Errorf("Spine = %+v, want empty", opf.Spine)
	}
	if len(r.Entries()) != 6 {
		t.Errorf("Entries() = %v, want six fixed entries", r.Entries())
	}
}

func TestExport_DuplicateTitleWritesOneDocument(t *testing.T) {
	b := sampleBook()
	b.AddChapter("Intro", "Again", 3)

	r, _ := exportAndOpen(t, b, ExportOptions{})

	name := "OPS/" + book.TitleHash("Intro") + ".xml"
	count := 0
	for _, e := range r.Entries() {
		if e == name {
			count++
		}
	}
	if count != 1 {
		t.Errorf("%s written %d times, want 1", name, count)
	}
	data, err := r.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Hello") {
		t.Error("the first chapter with the title should win")
	}
}

func TestExport_UnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "book.epub")
	if err := Export(sampleBook(), path, ExportOptions{}); err == nil {
		t.Error("Export() expected error for missing directory")
	}
}

func TestExport_ResizesImages(t *testing.T) {
	b := sampleBook()
	b.AddImage("wide.png", testPNG(t, 200, 100))

	r, _ := exportAndOpen(t, b, ExportOptions{MaxImageWidth: 50})

	data, err := r.ReadFile("OPS/images/wide.png")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}
	if format != "png" || cfg.Width != 50 || cfg.Height != 25 {
		t.Errorf("packaged image = %s %dx%d, want png 50x25", format, cfg.Width, cfg.Height)
	}
}
