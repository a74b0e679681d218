package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"redub/internal/config"
	"redub/internal/deps"
	"redub/internal/services"
	"redub/internal/services/llm"
	"redub/internal/services/tts"
)

const (
	llmCheckTimeout  = 30 * time.Second
	httpCheckTimeout = 5 * time.Second
)

func pass(name, detail string) Result {
	return Result{Name: name, Passed: true, Detail: detail}
}

func fail(name string, code int, format string, args ...any) Result {
	return Result{Name: name, Detail: fmt.Sprintf(format, args...), Code: code}
}

// CheckLLM sends one health-check completion, without retries.
func CheckLLM(ctx context.Context, name string, cfg config.LLM) Result {
	if cfg.APIKey == "" {
		return fail(name, services.ExitFailure, "API key missing (set llm.api_key or OPENROUTER_API_KEY)")
	}
	ctx, cancel := context.WithTimeout(ctx, llmCheckTimeout)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(ctx); err != nil {
		return fail(name, services.ExitFailure, "%s", describeNetError(err))
	}
	return pass(name, "API reachable")
}

// CheckHTTPService expects GET baseURL+probePath to answer 200. A failure
// reports code.
func CheckHTTPService(ctx context.Context, name, baseURL, probePath string, code int) Result {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return fail(name, code, "server not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, httpCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+probePath, nil)
	if err != nil {
		return fail(name, code, "check failed (%v)", err)
	}
	resp, err := (&http.Client{Timeout: httpCheckTimeout}).Do(req)
	if err != nil {
		return fail(name, code, "unreachable (%s)", describeNetError(err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fail(name, code, "%s answered %d", probePath, resp.StatusCode)
	}
	return pass(name, "Reachable")
}

// CheckHFToken requires a Hugging Face token for pyannote.
func CheckHFToken(token string) Result {
	const name = "Hugging Face token"
	if strings.TrimSpace(token) == "" {
		return fail(name, services.ExitMissingHFToken, "missing (set diarization.hf_token, HF_TOKEN or --hugging-face-token)")
	}
	return pass(name, "present")
}

// CheckCLIConfig loads the command-line synthesizer definition.
func CheckCLIConfig(path string) Result {
	const name = "TTS CLI config"
	if strings.TrimSpace(path) == "" {
		return fail(name, services.ExitNoCLIConfigFile, "tts.cli_config_file not set")
	}
	cfg, err := tts.LoadCLIConfig(path)
	if err != nil {
		return fail(name, services.ExitNoCLIConfigFile, "%v", err)
	}
	return pass(name, fmt.Sprintf("%s (%d voices)", path, len(cfg.Voices)))
}

// CheckDirectoryAccess requires path to be a directory the process can list
// and write.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fail(name, services.ExitFailure, "%s (error: does not exist)", path)
	case err != nil:
		return fail(name, services.ExitFailure, "%s (error: stat: %v)", path, err)
	case !info.IsDir():
		return fail(name, services.ExitFailure, "%s (error: is not a directory)", path)
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fail(name, services.ExitFailure, "%s (error: insufficient permissions: %v)", path, err)
	}
	return pass(name, path+" (read/write ok)")
}

// CheckSystemDeps looks up every required binary.
func CheckSystemDeps(cfg *config.Config) []Result {
	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		if status.Available {
			results = append(results, pass(status.Name, status.Path))
			continue
		}
		results = append(results, fail(status.Name, status.ExitCode, "%s (%s)", status.Detail, status.Description))
	}
	return results
}

func describeNetError(err error) string {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return "timed out"
	}
	return err.Error()
}
