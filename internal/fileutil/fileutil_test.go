package fileutil

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "nested", "dst.txt")
	if err := os.WriteFile(src, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Fatalf("mode = %o, want 644", info.Mode().Perm())
	}
}

func TestCopyFileVerifiedReturnsDigest(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	if err := os.WriteFile(src, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	sum, err := CopyFileVerified(src, dst)
	if err != nil {
		t.Fatalf("CopyFileVerified: %v", err)
	}
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if sum != want {
		t.Fatalf("digest = %s, want %s", sum, want)
	}
	fileSum, err := SHA256File(dst)
	if err != nil || fileSum != want {
		t.Fatalf("SHA256File = %s, %v", fileSum, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Fatalf("expected no temp files left, got %d entries", len(entries))
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst")); err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, err := os.Stat(filepath.Join(dir, "dst")); !os.IsNotExist(err) {
		t.Fatal("destination should not exist after failed copy")
	}
}

func TestRemoveExcept(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"movie.es.mp4", "utterance_metadata.db", "chunk_0.0_1.0.wav"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "htdemucs", "movie"), 0o755); err != nil {
		t.Fatal(err)
	}
	removed, err := RemoveExcept(dir, filepath.Join(dir, "movie.es.mp4"), "utterance_metadata.db")
	if err != nil {
		t.Fatalf("RemoveExcept: %v", err)
	}
	slices.Sort(removed)
	if !slices.Equal(removed, []string{"chunk_0.0_1.0.wav", "htdemucs"}) {
		t.Fatalf("unexpected removed set %v", removed)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries left, got %d", len(entries))
	}
}
