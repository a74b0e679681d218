package separation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"redub/internal/services"
)

func TestSeparateProducesStems(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "movie.mp3")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	sep := New(Config{}, nil)
	var gotArgs []string
	sep.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		if name != UVXCommand {
			t.Fatalf("unexpected command %s", name)
		}
		gotArgs = args
		stemDir := filepath.Join(dir, DefaultModel, "movie")
		if err := os.MkdirAll(stemDir, 0o755); err != nil {
			return err
		}
		for _, stem := range []string{"vocals.wav", "no_vocals.wav"} {
			if err := os.WriteFile(filepath.Join(stemDir, stem), []byte("RIFF"), 0o644); err != nil {
				return err
			}
		}
		return nil
	})

	result, err := sep.Separate(context.Background(), input, dir)
	if err != nil {
		t.Fatalf("Separate returned error: %v", err)
	}
	if result.Vocals != filepath.Join(dir, DefaultModel, "movie", "vocals.wav") {
		t.Fatalf("unexpected vocals path %s", result.Vocals)
	}
	if result.Background != filepath.Join(dir, DefaultModel, "movie", "no_vocals.wav") {
		t.Fatalf("unexpected background path %s", result.Background)
	}
	for _, want := range []string{"--two-stems", "vocals", "-d", "cpu", input} {
		if !slices.Contains(gotArgs, want) {
			t.Fatalf("expected %q in args %v", want, gotArgs)
		}
	}
}

func TestSeparateMissingStemsIsExternalToolError(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "movie.mp3")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	sep := New(Config{Model: "mdx", CUDAEnabled: true}, nil)
	sep.WithCommandRunner(func(context.Context, string, ...string) error { return nil })
	if _, err := sep.Separate(context.Background(), input, dir); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestSeparateMissingInput(t *testing.T) {
	sep := New(Config{}, nil)
	_, err := sep.Separate(context.Background(), filepath.Join(t.TempDir(), "none.mp3"), t.TempDir())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildArgsCUDA(t *testing.T) {
	sep := New(Config{CUDAEnabled: true}, nil)
	args := sep.buildArgs("in.mp3", "out")
	if args[0] != "--index-url" || args[1] != CUDAIndexURL {
		t.Fatalf("expected CUDA index first, got %v", args)
	}
	if !slices.Contains(args, "cuda") {
		t.Fatalf("expected cuda device in %v", args)
	}
}
