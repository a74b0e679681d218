package dubbing

import (
	"context"

	"redub/internal/media/ffprobe"
	"redub/internal/media/video"
	"redub/internal/preflight"
	"redub/internal/separation"
	"redub/internal/services/whisperx"
)

// Prober validates the input video.
type Prober interface {
	ValidateVideo(ctx context.Context, path string) (ffprobe.Result, error)
}

// Muxer extracts the soundtrack and writes the dubbed video.
type Muxer interface {
	ExtractAudio(ctx context.Context, videoPath, outputDir string) (string, error)
	Remux(ctx context.Context, req video.RemuxRequest) (string, error)
}

// Separator splits a soundtrack into vocals and background.
type Separator interface {
	Separate(ctx context.Context, audioPath, outputDir string) (separation.Result, error)
}

// Transcriber turns a chunk into source-language text.
type Transcriber interface {
	Transcribe(ctx context.Context, source, outputDir, language string) (whisperx.TranscribeResult, error)
}

// Translator translates texts in order. Empty inputs yield empty outputs.
type Translator interface {
	Name() string
	Translate(ctx context.Context, source, target string, texts []string) ([]string, error)
}

// pairChecker is implemented by translators with a fixed language pair list.
type pairChecker interface {
	Supports(ctx context.Context, source, target string) (bool, error)
}

// Publisher delivers finished artifacts.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, files []string) ([]string, error)
}

// PreflightFunc runs readiness checks.
type PreflightFunc func(ctx context.Context) []preflight.Result
