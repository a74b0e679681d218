package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"redub/internal/config"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"HF_TOKEN", "HUGGING_FACE_HUB_TOKEN", "OPENROUTER_API_KEY", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearCredentialEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Paths.CacheDir != filepath.Join(tempHome, ".cache", "redub") {
		t.Fatalf("unexpected cache dir: %q", cfg.Paths.CacheDir)
	}
	if !filepath.IsAbs(cfg.Paths.OutputDir) {
		t.Fatalf("expected absolute output dir, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Dubbing.ChunkPrefix != "chunk" {
		t.Fatalf("unexpected chunk prefix: %q", cfg.Dubbing.ChunkPrefix)
	}
	if cfg.Dubbing.AssemblyMode != config.AssemblyMerge {
		t.Fatalf("unexpected assembly mode: %q", cfg.Dubbing.AssemblyMode)
	}
	if cfg.Loudness.Threshold != 0.1 || cfg.Loudness.TargetPeak != 0.5 {
		t.Fatalf("unexpected loudness defaults: %+v", cfg.Loudness)
	}
	if cfg.Diarization.Engine != config.DiarizationPyannote {
		t.Fatalf("unexpected diarization engine: %q", cfg.Diarization.Engine)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadUsesEnvTokens(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HUGGING_FACE_HUB_TOKEN", "hf-secondary")
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Diarization.HFToken != "hf-secondary" {
		t.Fatalf("expected HF token from env, got %q", cfg.Diarization.HFToken)
	}
	if cfg.LLM.APIKey != "or-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}

	t.Setenv("HF_TOKEN", "hf-primary")
	cfg, _, _, err = config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Diarization.HFToken != "hf-primary" {
		t.Fatalf("expected HF_TOKEN to take precedence, got %q", cfg.Diarization.HFToken)
	}
}

func TestLoadCustomPathCanonicalisesLanguages(t *testing.T) {
	clearCredentialEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"output_dir": "~/dubbed",
		},
		"dubbing": map[string]any{
			"source_language":        "en_us",
			"target_language":        "CA",
			"target_language_region": "es",
			"assembly_mode":          "DIRECT",
		},
		"tts": map[string]any{
			"provider":        "cli",
			"cli_config_file": "~/tts.json",
		},
		"logging": map[string]any{
			"format": "JSON",
			"level":  "DEBUG",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "dubbed") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Dubbing.SourceLanguage != "en-US" {
		t.Fatalf("unexpected source language: %q", cfg.Dubbing.SourceLanguage)
	}
	if cfg.Dubbing.TargetLanguage != "ca" {
		t.Fatalf("unexpected target language: %q", cfg.Dubbing.TargetLanguage)
	}
	if cfg.Dubbing.TargetLanguageRegion != "ES" {
		t.Fatalf("unexpected region: %q", cfg.Dubbing.TargetLanguageRegion)
	}
	if cfg.Dubbing.AssemblyMode != config.AssemblyDirect {
		t.Fatalf("unexpected assembly mode: %q", cfg.Dubbing.AssemblyMode)
	}
	if cfg.TTS.CLIConfigFile != filepath.Join(tempHome, "tts.json") {
		t.Fatalf("unexpected tts config path: %q", cfg.TTS.CLIConfigFile)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"same languages", func(c *config.Config) { c.Dubbing.SourceLanguage = "en"; c.Dubbing.TargetLanguage = "en" }, "must differ"},
		{"prefix separator", func(c *config.Config) { c.Dubbing.ChunkPrefix = "a/b" }, "chunk_prefix"},
		{"assembly mode", func(c *config.Config) { c.Dubbing.AssemblyMode = "stretch" }, "assembly_mode"},
		{"diarization engine", func(c *config.Config) { c.Diarization.Engine = "webrtc" }, "diarization.engine"},
		{"translation provider", func(c *config.Config) { c.Translation.Provider = "nllb" }, "translation.provider"},
		{"tts provider", func(c *config.Config) { c.TTS.Provider = "mms" }, "tts.provider"},
		{"threshold range", func(c *config.Config) { c.Loudness.Threshold = 1.5 }, "loudness.threshold"},
		{"target peak", func(c *config.Config) { c.Loudness.TargetPeak = 0 }, "loudness.target_peak"},
		{"s3 bucket", func(c *config.Config) { c.Publish.Target = config.PublishS3 }, "publish.bucket"},
		{"s3 credentials", func(c *config.Config) { c.Publish.Target = config.PublishS3; c.Publish.Bucket = "dubs" }, "access_key_id"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestLoadRejectsInvalidLanguage(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[dubbing]\ntarget_language = \"not a language\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil || !strings.Contains(err.Error(), "dubbing.target_language") {
		t.Fatalf("expected target language error, got %v", err)
	}
}

func TestLoadReportsParsePosition(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[dubbing]\ntarget_language = \"es\"\nsubtitles = yes\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(configPath)
	if err == nil || !strings.Contains(err.Error(), configPath+":3:") {
		t.Fatalf("expected error with line 3 position, got %v", err)
	}
}

func TestExpandPathHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	for in, want := range map[string]string{
		"~":        home,
		"~/a/../b": filepath.Join(home, "b"),
		"":         "",
	} {
		got, err := config.ExpandPath(in)
		if err != nil || got != want {
			t.Fatalf("ExpandPath(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.TTS.Provider != config.TTSEdge {
		t.Fatalf("unexpected tts provider from sample: %q", cfg.TTS.Provider)
	}
}

func TestEnsureDirectoriesCreatesOutputAndCache(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.CacheDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
