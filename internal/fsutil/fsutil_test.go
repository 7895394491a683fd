package fsutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.md")

	if err := WriteFileAtomic(path, []byte("first"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), TempFilePrefix) {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "log.md")
	if err := WriteFileAtomic(path, []byte("x"), 0644); err == nil {
		t.Fatal("expected error for missing parent directory")
	}
}

func TestModTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")

	if _, ok := ModTime(path); ok {
		t.Fatal("ModTime() ok = true for missing file")
	}

	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, want, want); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	got, ok := ModTime(path)
	if !ok {
		t.Fatal("ModTime() ok = false for existing file")
	}
	if !got.Equal(want) {
		t.Errorf("ModTime() = %v, want %v", got, want)
	}
}

func TestReadIfExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inbox.md")

	content, ok, err := ReadIfExists(path)
	if err != nil || ok || content != "" {
		t.Fatalf("ReadIfExists(missing) = (%q, %v, %v), want (\"\", false, nil)", content, ok, err)
	}

	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	content, ok, err = ReadIfExists(path)
	if err != nil || !ok || content != "hello" {
		t.Fatalf("ReadIfExists() = (%q, %v, %v), want (\"hello\", true, nil)", content, ok, err)
	}
}

func TestAge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := Age(now.Add(-90*time.Second), now); got != 90*time.Second {
		t.Errorf("Age() = %v, want 90s", got)
	}
	if got := Age(now.Add(time.Minute), now); got != 0 {
		t.Errorf("Age() of future time = %v, want 0", got)
	}
}
