package config

import (
	"fmt"
	"os"
	"strings"

	"redub/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDubbing(); err != nil {
		return err
	}
	c.normalizeDiarization()
	c.normalizeTranscription()
	c.normalizeTranslation()
	c.normalizeLLM()
	if err := c.normalizeTTS(); err != nil {
		return err
	}
	c.normalizePublish()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = ExpandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LibraryDir, err = ExpandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = ExpandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDubbing() error {
	var err error
	if c.Dubbing.SourceLanguage, err = canonicalLanguage(c.Dubbing.SourceLanguage); err != nil {
		return fmt.Errorf("dubbing.source_language: %w", err)
	}
	if strings.TrimSpace(c.Dubbing.TargetLanguage) == "" {
		c.Dubbing.TargetLanguage = defaultTargetLanguage
	}
	if c.Dubbing.TargetLanguage, err = canonicalLanguage(c.Dubbing.TargetLanguage); err != nil {
		return fmt.Errorf("dubbing.target_language: %w", err)
	}
	c.Dubbing.TargetLanguageRegion = strings.ToUpper(strings.TrimSpace(c.Dubbing.TargetLanguageRegion))
	c.Dubbing.ChunkPrefix = strings.TrimSpace(c.Dubbing.ChunkPrefix)
	if c.Dubbing.ChunkPrefix == "" {
		c.Dubbing.ChunkPrefix = defaultChunkPrefix
	}
	c.Dubbing.AssemblyMode = strings.ToLower(strings.TrimSpace(c.Dubbing.AssemblyMode))
	if c.Dubbing.AssemblyMode == "" {
		c.Dubbing.AssemblyMode = defaultAssemblyMode
	}
	return nil
}

// canonicalLanguage parses a BCP 47 tag and returns its canonical form. An
// empty value stays empty.
func canonicalLanguage(value string) (string, error) {
	return language.Canonical(value)
}

func (c *Config) normalizeDiarization() {
	c.Diarization.Engine = strings.ToLower(strings.TrimSpace(c.Diarization.Engine))
	if c.Diarization.Engine == "" {
		c.Diarization.Engine = defaultDiarizationEngine
	}
	c.Diarization.Model = strings.TrimSpace(c.Diarization.Model)
	if c.Diarization.Model == "" {
		c.Diarization.Model = defaultDiarizationModel
	}
	c.Diarization.HFToken = strings.TrimSpace(c.Diarization.HFToken)
	if c.Diarization.HFToken == "" {
		for _, key := range []string{"HF_TOKEN", "HUGGING_FACE_HUB_TOKEN"} {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				c.Diarization.HFToken = strings.TrimSpace(value)
				break
			}
		}
	}
	if c.Diarization.MinSilenceMS <= 0 {
		c.Diarization.MinSilenceMS = defaultMinSilenceMS
	}
	if c.Diarization.MinSpeechMS <= 0 {
		c.Diarization.MinSpeechMS = defaultMinSpeechMS
	}
	if strings.TrimSpace(c.Separation.Model) == "" {
		c.Separation.Model = defaultSeparationModel
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultTranscriptionModel
	}
	c.Transcription.VADMethod = strings.ToLower(strings.TrimSpace(c.Transcription.VADMethod))
	if c.Transcription.VADMethod == "" {
		c.Transcription.VADMethod = defaultTranscriptionVAD
	}
}

func (c *Config) normalizeTranslation() {
	c.Translation.Provider = strings.ToLower(strings.TrimSpace(c.Translation.Provider))
	if c.Translation.Provider == "" {
		c.Translation.Provider = defaultTranslationProvider
	}
	c.Translation.ApertiumServer = strings.TrimRight(strings.TrimSpace(c.Translation.ApertiumServer), "/")
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeTTS() error {
	c.TTS.Provider = strings.ToLower(strings.TrimSpace(c.TTS.Provider))
	if c.TTS.Provider == "" {
		c.TTS.Provider = defaultTTSProvider
	}
	c.TTS.APIServer = strings.TrimRight(strings.TrimSpace(c.TTS.APIServer), "/")
	c.TTS.Voice = strings.TrimSpace(c.TTS.Voice)
	if strings.TrimSpace(c.TTS.CLIConfigFile) != "" {
		expanded, err := ExpandPath(c.TTS.CLIConfigFile)
		if err != nil {
			return fmt.Errorf("tts.cli_config_file: %w", err)
		}
		c.TTS.CLIConfigFile = expanded
	}
	return nil
}

func (c *Config) normalizePublish() {
	c.Publish.Target = strings.ToLower(strings.TrimSpace(c.Publish.Target))
	if c.Publish.Target == "" {
		c.Publish.Target = defaultPublishTarget
	}
	c.Publish.Bucket = strings.TrimSpace(c.Publish.Bucket)
	c.Publish.Prefix = strings.Trim(strings.TrimSpace(c.Publish.Prefix), "/")
	c.Publish.Region = strings.TrimSpace(c.Publish.Region)
	if c.Publish.Region == "" {
		c.Publish.Region = defaultPublishRegion
	}
	c.Publish.Endpoint = strings.TrimSpace(c.Publish.Endpoint)
	if c.Publish.AccessKeyID == "" {
		c.Publish.AccessKeyID = strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))
	}
	if c.Publish.SecretAccessKey == "" {
		c.Publish.SecretAccessKey = strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY"))
	}
}

func (c *Config) normalizeLogging() error {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text":
		c.Logging.Format = "console"
	case "json":
		c.Logging.Format = "json"
	default:
		c.Logging.Format = format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Dir) != "" {
		dir, err := ExpandPath(c.Logging.Dir)
		if err != nil {
			return fmt.Errorf("logging.dir: %w", err)
		}
		c.Logging.Dir = dir
	}
	return nil
}
