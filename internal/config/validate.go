package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Credentials that only matter
// for a particular run (the HF token for pyannote, the LLM key) are checked by
// the pipeline when that backend is actually constructed.
func (c *Config) Validate() error {
	if err := c.validateDubbing(); err != nil {
		return err
	}
	if err := c.validateDiarization(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateLoudness(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDubbing() error {
	if c.Dubbing.TargetLanguage == "" {
		return errors.New("dubbing.target_language must be set")
	}
	if c.Dubbing.SourceLanguage != "" && c.Dubbing.SourceLanguage == c.Dubbing.TargetLanguage {
		return fmt.Errorf("dubbing.source_language and dubbing.target_language must differ (both %q)", c.Dubbing.TargetLanguage)
	}
	if strings.ContainsAny(c.Dubbing.ChunkPrefix, `/\`) {
		return errors.New("dubbing.chunk_prefix must not contain path separators")
	}
	switch c.Dubbing.AssemblyMode {
	case AssemblyMerge, AssemblyDirect:
	default:
		return fmt.Errorf("dubbing.assembly_mode must be %q or %q", AssemblyMerge, AssemblyDirect)
	}
	return nil
}

func (c *Config) validateDiarization() error {
	switch c.Diarization.Engine {
	case DiarizationPyannote, DiarizationEnergy:
	default:
		return fmt.Errorf("diarization.engine must be %q or %q", DiarizationPyannote, DiarizationEnergy)
	}
	return nil
}

func (c *Config) validateTranslation() error {
	switch c.Translation.Provider {
	case TranslationLLM, TranslationApertium:
	default:
		return fmt.Errorf("translation.provider must be %q or %q", TranslationLLM, TranslationApertium)
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateTTS() error {
	switch c.TTS.Provider {
	case TTSEdge, TTSCLI, TTSAPI:
	default:
		return fmt.Errorf("tts.provider must be one of %q, %q, %q", TTSEdge, TTSCLI, TTSAPI)
	}
	return nil
}

func (c *Config) validateLoudness() error {
	if c.Loudness.Threshold < 0 || c.Loudness.Threshold > 1 {
		return errors.New("loudness.threshold must be between 0 and 1")
	}
	if c.Loudness.TargetPeak <= 0 || c.Loudness.TargetPeak > 1 {
		return errors.New("loudness.target_peak must be greater than 0 and at most 1")
	}
	return nil
}

func (c *Config) validatePublish() error {
	switch c.Publish.Target {
	case PublishNone:
		return nil
	case PublishLocal:
		if strings.TrimSpace(c.Paths.LibraryDir) == "" {
			return errors.New("paths.library_dir must be set when publish.target is local")
		}
		return nil
	case PublishS3:
		if c.Publish.Bucket == "" {
			return errors.New("publish.bucket must be set when publish.target is s3")
		}
		if c.Publish.AccessKeyID == "" || c.Publish.SecretAccessKey == "" {
			return errors.New("publish.access_key_id and publish.secret_access_key must be set when publish.target is s3 (or export AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY)")
		}
		return nil
	default:
		return fmt.Errorf("publish.target must be one of %q, %q, %q", PublishNone, PublishLocal, PublishS3)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error (got %q)", c.Logging.Level)
	}
	return nil
}
