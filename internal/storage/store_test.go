package storage

import (
	"os"
	"strings"
	"testing"
)

func TestSaveOpenRemove(t *testing.T) {
	s := New(t.TempDir())

	if err := s.Save("imports", "abc/source.pdf", strings.NewReader("dummy-pdf")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	r, err := s.Open("imports", "abc/source.pdf")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	r.Close()

	if err := s.Remove("imports", []string{"abc/source.pdf"}); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := s.Open("imports", "abc/source.pdf"); err == nil {
		t.Error("expected open to fail after removal")
	}
}

func TestRemove_MissingObjectIsNotAnError(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Remove("imports", []string{"nope/gone.png"}); err != nil {
		t.Errorf("expected nil for missing object, got %v", err)
	}
}

func TestResolve_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	for _, path := range []string{"../escape.txt", "a/../../escape.txt", "a/../../../escape.txt"} {
		if err := s.Save("imports", path, strings.NewReader("x")); err == nil {
			t.Errorf("expected traversal path %q to be rejected", path)
		}
	}
	if err := s.Save("..", "escape.txt", strings.NewReader("x")); err == nil {
		t.Error("expected traversal bucket to be rejected")
	}
	if _, err := os.Stat(dir + "/../escape.txt"); err == nil {
		t.Error("traversal file was written outside the root")
	}
	if _, err := os.Stat(dir + "/escape.txt"); err == nil {
		t.Error("traversal file was cleaned into the root")
	}
}
