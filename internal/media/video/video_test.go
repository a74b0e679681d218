package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"redub/internal/services"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// lastArgRunner creates the output file named by the final argument.
func lastArgRunner(calls *[][]string) CommandRunner {
	return func(_ context.Context, name string, args ...string) error {
		*calls = append(*calls, append([]string{name}, args...))
		return os.WriteFile(args[len(args)-1], []byte("media"), 0o644)
	}
}

func TestExtractAudio(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "movie.mp4")
	touch(t, videoPath)
	var calls [][]string
	muxer := NewMuxer("", nil)
	muxer.WithCommandRunner(lastArgRunner(&calls))

	out, err := muxer.ExtractAudio(context.Background(), videoPath, filepath.Join(dir, "work"))
	if err != nil {
		t.Fatalf("ExtractAudio returned error: %v", err)
	}
	if out != filepath.Join(dir, "work", "movie.mp3") {
		t.Fatalf("unexpected output %s", out)
	}
	if calls[0][0] != "ffmpeg" || !slices.Contains(calls[0], "0:a:0") {
		t.Fatalf("unexpected command %v", calls[0])
	}
}

func TestExtractAudioMissingVideo(t *testing.T) {
	muxer := NewMuxer("ffmpeg", nil)
	_, err := muxer.ExtractAudio(context.Background(), filepath.Join(t.TempDir(), "none.mp4"), t.TempDir())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRemuxWithSubtitles(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "movie.mp4")
	audioPath := filepath.Join(dir, "dubbed_audio.mp3")
	subPath := filepath.Join(dir, "movie.es.srt")
	for _, p := range []string{videoPath, audioPath, subPath} {
		touch(t, p)
	}
	var calls [][]string
	muxer := NewMuxer("ffmpeg", nil)
	muxer.WithCommandRunner(lastArgRunner(&calls))

	out, err := muxer.Remux(context.Background(), RemuxRequest{
		VideoPath: videoPath,
		AudioPath: audioPath,
		Language:  "es-ES",
		OutputDir: filepath.Join(dir, "out"),
		Subtitles: []Subtitle{{Path: subPath, Language: "es", Title: "Dubbed"}},
	})
	if err != nil {
		t.Fatalf("Remux returned error: %v", err)
	}
	if out != filepath.Join(dir, "out", "movie.es.mp4") {
		t.Fatalf("unexpected output %s", out)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	joined := strings.Join(calls[0], " ")
	for _, want := range []string{"-map 0:v:0", "-map 1:a:0", "-map 2:0", "-c:v copy", "-c:a aac", "-c:s mov_text", "language=spa", "title=Dubbed"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in %s", want, joined)
		}
	}
}

func TestRemuxFailureCleansTemp(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "movie.mp4")
	audioPath := filepath.Join(dir, "a.wav")
	touch(t, videoPath)
	touch(t, audioPath)
	muxer := NewMuxer("ffmpeg", nil)
	muxer.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		_ = os.WriteFile(args[len(args)-1], []byte("partial"), 0o644)
		return errors.New("encoder exploded")
	})
	_, err := muxer.Remux(context.Background(), RemuxRequest{VideoPath: videoPath, AudioPath: audioPath, Language: "fr"})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".remux-") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}
