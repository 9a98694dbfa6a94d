package archive

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/klauspost/compress/zip"
)

func writeArchive(t *testing.T, path string, entries map[string]bool, order []string) {
	t.Helper()
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for _, name := range order {
		if err := w.WriteEntry(name, []byte("data:"+name), entries[name]); err != nil {
			t.Fatalf("WriteEntry(%s) error = %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestWriterReader_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.zip")
	order := []string{"mimetype", "b/second.txt", "a/first.txt"}
	writeArchive(t, path, map[string]bool{
		"mimetype":     false,
		"b/second.txt": true,
		"a/first.txt":  true,
	}, order)

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	if got := r.Entries(); !reflect.DeepEqual(got, order) {
		t.Errorf("Entries() = %v, want %v", got, order)
	}

	for _, name := range order {
		data, err := r.ReadEntry(name)
		if err != nil {
			t.Fatalf("ReadEntry(%s) error = %v", name, err)
		}
		if string(data) != "data:"+name {
			t.Errorf("ReadEntry(%s) = %q", name, data)
		}
	}

	stored, ok := r.Stored("mimetype")
	if !ok || !stored {
		t.Errorf("Stored(mimetype) = %v, %v; want true, true", stored, ok)
	}
	stored, ok = r.Stored("a/first.txt")
	if !ok || stored {
		t.Errorf("Stored(a/first.txt) = %v, %v; want false, true", stored, ok)
	}
	if _, ok := r.Stored("missing"); ok {
		t.Error("Stored(missing) ok = true, want false")
	}
}

func TestReadEntry_NotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.zip")
	writeArchive(t, path, map[string]bool{"x": true}, []string{"x"})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	_, err = r.ReadEntry("y")
	if !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("ReadEntry(y) error = %v, want ErrEntryNotFound", err)
	}
}

func TestReadEntry_NormalizesDotSlash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("os.Create() error = %v", err)
	}
	zw := zip.NewWriter(f)
	ew, err := zw.Create("./OPS/a.xml")
	if err != nil {
		t.Fatalf("Create entry error = %v", err)
	}
	ew.Write([]byte("a"))
	zw.Close()
	f.Close()

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	if got := r.Entries(); !reflect.DeepEqual(got, []string{"OPS/a.xml"}) {
		t.Errorf("Entries() = %v", got)
	}
	if _, err := r.ReadEntry("OPS/a.xml"); err != nil {
		t.Errorf("ReadEntry() error = %v", err)
	}
}

func TestCreate_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.zip")
	if err := os.WriteFile(path, []byte("not a zip at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	writeArchive(t, path, map[string]bool{"only": true}, []string{"only"})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()
	if got := r.Entries(); !reflect.DeepEqual(got, []string{"only"}) {
		t.Errorf("Entries() = %v, want [only]", got)
	}
}

func TestCreate_BadPath(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing-dir", "x.zip"))
	if err == nil {
		t.Fatal("Create() error = nil, want error")
	}
}

func TestOpen_NotAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.zip")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("Open() error = nil, want error")
	}
}
