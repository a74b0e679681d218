package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"redub/internal/config"
	"redub/internal/services"
)

// Requirement is an executable a dubbing run shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// ExitCode is reported when the command is missing.
	ExitCode int
}

// Status is a Requirement after PATH lookup.
type Status struct {
	Requirement
	Available bool
	// Path is the resolved executable when Available.
	Path   string
	Detail string
}

// Requirements lists the binaries a dubbing run needs for cfg. ffmpeg and
// ffprobe handle all media IO; uvx launches every Python model (Demucs,
// WhisperX, pyannote, edge-tts).
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Description: "audio extraction, transcoding and remuxing", ExitCode: services.ExitNoFFmpeg},
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Description: "input validation", ExitCode: services.ExitNoFFmpeg},
		{Name: "uv", Command: "uvx", Description: "runs Demucs, WhisperX, pyannote and edge-tts", ExitCode: services.ExitFailure},
	}
}

// CheckBinaries resolves each requirement on PATH.
func CheckBinaries(requirements []Requirement) []Status {
	statuses := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		status := Status{Requirement: req}
		switch path, err := exec.LookPath(req.Command); {
		case req.Command == "":
			status.Detail = "command not configured"
		case err != nil:
			status.Detail = fmt.Sprintf("binary %q not found", req.Command)
		default:
			status.Available = true
			status.Path = path
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// Missing returns the statuses whose command could not be found.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available {
			missing = append(missing, status)
		}
	}
	return missing
}
