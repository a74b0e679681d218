package preflight

import (
	"context"

	"redub/internal/config"
	"redub/internal/services"
)

// Result reports the outcome of a single preflight check. Code is the process
// exit code a failed check maps to.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
	Code   int    `json:"code,omitempty"`
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run for the configured backends.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := CheckSystemDeps(cfg)

	results = append(results,
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
	)
	if cfg.Publish.Target == config.PublishLocal {
		results = append(results, CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir))
	}

	if cfg.Diarization.Engine == config.DiarizationPyannote {
		results = append(results, CheckHFToken(cfg.Diarization.HFToken))
	}

	switch cfg.Translation.Provider {
	case config.TranslationLLM:
		results = append(results, CheckLLM(ctx, "Translation LLM", cfg.LLM))
	case config.TranslationApertium:
		results = append(results, CheckHTTPService(ctx, "Apertium server", cfg.Translation.ApertiumServer, "/listPairs", services.ExitNoApertiumServer))
	}

	switch cfg.TTS.Provider {
	case config.TTSCLI:
		results = append(results, CheckCLIConfig(cfg.TTS.CLIConfigFile))
	case config.TTSAPI:
		results = append(results, CheckHTTPService(ctx, "TTS API server", cfg.TTS.APIServer, "/voices", services.ExitNoTTSAPIServer))
	}

	return results
}

// FirstFailure returns the first failed result.
func FirstFailure(results []Result) (Result, bool) {
	for _, result := range results {
		if !result.Passed {
			return result, true
		}
	}
	return Result{}, false
}
