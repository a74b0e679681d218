package config

// Provider and mode identifiers accepted in the configuration.
const (
	DiarizationPyannote = "pyannote"
	DiarizationEnergy   = "energy"

	TranslationLLM      = "llm"
	TranslationApertium = "apertium"

	TTSEdge = "edge"
	TTSCLI  = "cli"
	TTSAPI  = "api"

	AssemblyMerge  = "merge"
	AssemblyDirect = "direct"

	PublishNone  = "none"
	PublishLocal = "local"
	PublishS3    = "s3"
)

const (
	defaultConfigPath          = "~/.config/redub/config.toml"
	defaultOutputDir           = "./output"
	defaultLibraryDir          = "~/dubs"
	defaultCacheDir            = "~/.cache/redub"
	defaultTargetLanguage      = "en"
	defaultChunkPrefix         = "chunk"
	defaultAssemblyMode        = AssemblyMerge
	defaultDiarizationEngine   = DiarizationPyannote
	defaultDiarizationModel    = "pyannote/speaker-diarization-3.1"
	defaultMinSilenceMS        = 500
	defaultMinSpeechMS         = 250
	defaultSeparationModel     = "htdemucs"
	defaultTranscriptionModel  = "large-v3"
	defaultTranscriptionVAD    = "silero"
	defaultTranslationProvider = TranslationLLM
	defaultLLMBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel            = "google/gemini-3-flash-preview"
	defaultLLMTitle            = "redub translator"
	defaultLLMTimeoutSeconds   = 60
	defaultTTSProvider         = TTSEdge
	defaultLoudnessThreshold   = 0.1
	defaultLoudnessTargetPeak  = 0.5
	defaultPublishTarget       = PublishNone
	defaultPublishRegion       = "us-east-1"
	defaultNtfyTimeout         = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			LibraryDir: defaultLibraryDir,
			CacheDir:   defaultCacheDir,
		},
		Dubbing: Dubbing{
			TargetLanguage: defaultTargetLanguage,
			ChunkPrefix:    defaultChunkPrefix,
			AssemblyMode:   defaultAssemblyMode,
		},
		Diarization: Diarization{
			Engine:       defaultDiarizationEngine,
			Model:        defaultDiarizationModel,
			MinSilenceMS: defaultMinSilenceMS,
			MinSpeechMS:  defaultMinSpeechMS,
		},
		Separation: Separation{
			Model: defaultSeparationModel,
		},
		Transcription: Transcription{
			Model:     defaultTranscriptionModel,
			VADMethod: defaultTranscriptionVAD,
		},
		Translation: Translation{
			Provider: defaultTranslationProvider,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		TTS: TTS{
			Provider: defaultTTSProvider,
		},
		Loudness: Loudness{
			Threshold:  defaultLoudnessThreshold,
			TargetPeak: defaultLoudnessTargetPeak,
		},
		Publish: Publish{
			Target: defaultPublishTarget,
			Region: defaultPublishRegion,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
