package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xonecas/stree/internal/lsp"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func writeTestFile(t *testing.T, content string) (string, os.FileInfo) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "file.py")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return path, fi
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	path, fi := writeTestFile(t, "def foo(): pass\n")

	symbols := []lsp.SymbolNode{
		{Name: "MyClass", Kind: "cls:", Children: []lsp.SymbolNode{
			{Name: "my_method (self)", Kind: "fn:"},
		}},
		{Name: "CONST", Kind: "var:"},
	}
	s.Put(path, fi, symbols)

	got, ok := s.Get(path, fi)
	if !ok {
		t.Fatal("Get() miss after Put()")
	}
	if len(got) != 2 || got[0].Name != "MyClass" || got[1].Kind != "var:" {
		t.Errorf("Get() = %+v, want stored symbols back", got)
	}
	if len(got[0].Children) != 1 || got[0].Children[0].Name != "my_method (self)" {
		t.Errorf("Get() children = %+v, want nested child preserved", got[0].Children)
	}
}

func TestGetMissUnknownPath(t *testing.T) {
	s := openTestStore(t)
	_, fi := writeTestFile(t, "x = 1\n")

	if _, ok := s.Get("/nowhere/else.py", fi); ok {
		t.Error("Get() hit for a path that was never stored")
	}
}

func TestGetInvalidatedByModification(t *testing.T) {
	s := openTestStore(t)
	path, fi := writeTestFile(t, "x = 1\n")
	s.Put(path, fi, []lsp.SymbolNode{{Name: "x", Kind: "var:"}})

	// Change size and mtime.
	if err := os.WriteFile(path, []byte("x = 1\ny = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
	fi2, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := s.Get(path, fi2); ok {
		t.Error("Get() hit for a stale entry after file changed")
	}
}

func TestPutReplacesExisting(t *testing.T) {
	s := openTestStore(t)
	path, fi := writeTestFile(t, "x = 1\n")

	s.Put(path, fi, []lsp.SymbolNode{{Name: "old", Kind: "var:"}})
	s.Put(path, fi, []lsp.SymbolNode{{Name: "new", Kind: "fn:"}})

	got, ok := s.Get(path, fi)
	if !ok {
		t.Fatal("Get() miss after second Put()")
	}
	if len(got) != 1 || got[0].Name != "new" {
		t.Errorf("Get() = %+v, want the replaced entry", got)
	}
}

func TestEmptySymbolsCached(t *testing.T) {
	s := openTestStore(t)
	path, fi := writeTestFile(t, "# nothing here\n")

	s.Put(path, fi, nil)
	got, ok := s.Get(path, fi)
	if !ok {
		t.Fatal("Get() miss for a cached empty result")
	}
	if len(got) != 0 {
		t.Errorf("Get() = %+v, want no symbols", got)
	}
}

func TestNilStoreIsNoop(t *testing.T) {
	var s *Store
	path, fi := writeTestFile(t, "x = 1\n")

	s.Put(path, fi, []lsp.SymbolNode{{Name: "x", Kind: "var:"}})
	if _, ok := s.Get(path, fi); ok {
		t.Error("nil store returned a hit")
	}
	if err := s.Close(); err != nil {
		t.Errorf("nil store Close() error = %v", err)
	}
}
