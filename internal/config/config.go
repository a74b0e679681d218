package config

// Paths contains directory configuration.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	LibraryDir string `toml:"library_dir"`
	CacheDir   string `toml:"cache_dir"`
}

// Dubbing contains the per-run pipeline switches.
type Dubbing struct {
	SourceLanguage         string `toml:"source_language"`
	TargetLanguage         string `toml:"target_language"`
	TargetLanguageRegion   string `toml:"target_language_region"`
	ChunkPrefix            string `toml:"chunk_prefix"`
	AssemblyMode           string `toml:"assembly_mode"`
	OriginalSubtitles      bool   `toml:"original_subtitles"`
	DubbedSubtitles        bool   `toml:"dubbed_subtitles"`
	CleanIntermediateFiles bool   `toml:"clean_intermediate_files"`
}

// Diarization contains configuration for speaker segmentation.
type Diarization struct {
	// Engine selects the diarization backend ("pyannote" or "energy").
	Engine string `toml:"engine"`
	// Model is the pyannote pipeline identifier.
	Model       string `toml:"model"`
	HFToken     string `toml:"hf_token"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
	// MinSilenceMS and MinSpeechMS tune the energy engine.
	MinSilenceMS int `toml:"min_silence_ms"`
	MinSpeechMS  int `toml:"min_speech_ms"`
}

// Separation contains configuration for vocal/background separation.
type Separation struct {
	Model       string `toml:"model"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
}

// Transcription contains configuration for WhisperX speech-to-text.
type Transcription struct {
	Model       string `toml:"model"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
	VADMethod   string `toml:"vad_method"`
}

// Translation selects the machine translation backend.
type Translation struct {
	// Provider is "llm" or "apertium".
	Provider       string `toml:"provider"`
	ApertiumServer string `toml:"apertium_server"`
}

// LLM contains LLM connection settings used by the llm translation provider.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TTS selects the speech synthesis backend.
type TTS struct {
	// Provider is "edge", "cli" or "api".
	Provider      string `toml:"provider"`
	CLIConfigFile string `toml:"cli_config_file"`
	APIServer     string `toml:"api_server"`
	// Voice overrides automatic voice selection when set.
	Voice string `toml:"voice"`
}

// Loudness contains background normalization tuning.
type Loudness struct {
	// Threshold is the peak fraction of full scale above which the background
	// is normalized.
	Threshold float64 `toml:"threshold"`
	// TargetPeak is the peak fraction of full scale a normalized background is
	// scaled to.
	TargetPeak float64 `toml:"target_peak"`
}

// Publish contains configuration for delivering finished dubs.
type Publish struct {
	// Target is "none", "local" or "s3".
	Target          string `toml:"target"`
	Bucket          string `toml:"bucket"`
	Prefix          string `toml:"prefix"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	UsePathStyle    bool   `toml:"use_path_style"`
}

// Notifications contains ntfy delivery settings. An empty topic disables
// notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for redub.
//
// Configuration sections by subsystem:
//   - Paths: output, library and cache directories
//   - Dubbing: languages, subtitle and cleanup switches
//   - Diarization: speaker segmentation engine and credentials
//   - Separation: Demucs vocal/background split
//   - Transcription: WhisperX speech-to-text
//   - Translation / LLM: machine translation backend
//   - TTS: speech synthesis backend
//   - Loudness: background normalization thresholds
//   - Publish: optional upload of the finished dub
//   - Notifications: ntfy messages when a run finishes or fails
//   - Logging: log format, level, and file sink
type Config struct {
	Paths         Paths         `toml:"paths"`
	Dubbing       Dubbing       `toml:"dubbing"`
	Diarization   Diarization   `toml:"diarization"`
	Separation    Separation    `toml:"separation"`
	Transcription Transcription `toml:"transcription"`
	Translation   Translation   `toml:"translation"`
	LLM           LLM           `toml:"llm"`
	TTS           TTS           `toml:"tts"`
	Loudness      Loudness      `toml:"loudness"`
	Publish       Publish       `toml:"publish"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}
