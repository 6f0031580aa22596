package versionfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	_, ok, err := Load(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("Missing file is not an error: %v", err)
	}
	if ok {
		t.Error("Missing file should report ok=false")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "version")

	if err := Save(path, 42); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	version, ok, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ok || version != 42 {
		t.Errorf("Expected (42, true), got (%d, %v)", version, ok)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "version")
	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	_, ok, err := Load(path)
	if err != nil {
		t.Fatalf("Empty file is not an error: %v", err)
	}
	if ok {
		t.Error("Empty file should report ok=false")
	}
}

func TestLoadGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "version")
	if err := os.WriteFile(path, []byte("not-a-number"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := Load(path); err == nil {
		t.Error("Garbage content should be an error")
	}
}

func TestMoveIfExists(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "old")
	dst := filepath.Join(dir, "nested", "new")

	// Missing source: nothing moved
	moved, err := MoveIfExists(src, dst)
	if err != nil || moved {
		t.Errorf("Expected no move for missing source, got (%v, %v)", moved, err)
	}

	if err := os.WriteFile(src, []byte("5"), 0644); err != nil {
		t.Fatal(err)
	}
	moved, err = MoveIfExists(src, dst)
	if err != nil {
		t.Fatalf("MoveIfExists failed: %v", err)
	}
	if !moved {
		t.Error("Expected the file to be moved")
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("Source should be gone after the move")
	}

	// Destination now exists: a second source must not clobber it
	if err := os.WriteFile(src, []byte("6"), 0644); err != nil {
		t.Fatal(err)
	}
	moved, err = MoveIfExists(src, dst)
	if err != nil || moved {
		t.Errorf("Expected no move onto an existing destination, got (%v, %v)", moved, err)
	}
}
