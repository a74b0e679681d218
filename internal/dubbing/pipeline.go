package dubbing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"redub/internal/config"
	"redub/internal/diarization"
	"redub/internal/logging"
	"redub/internal/manifest"
	"redub/internal/media/codec"
	"redub/internal/media/ffprobe"
	"redub/internal/media/video"
	"redub/internal/notifications"
	"redub/internal/preflight"
	"redub/internal/publish"
	"redub/internal/separation"
	"redub/internal/services"
	"redub/internal/services/apertium"
	"redub/internal/services/llm"
	"redub/internal/services/tts"
	"redub/internal/services/whisperx"
	"redub/internal/utterance"
)

// Request describes one dubbing run.
type Request struct {
	VideoPath string
	// Update reuses the manifest of an earlier run in the same output
	// directory and resumes at translation.
	Update bool
}

// Result summarizes a finished run.
type Result struct {
	RunID       string
	RunDir      string
	VideoPath   string
	AudioPath   string
	Subtitles   []string
	Published   []string
	Utterances  int
	Dubbed      int
	PassThrough int
}

// Pipeline wires the stage collaborators for a configuration.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger

	codec       *codec.Codec
	prober      Prober
	muxer       Muxer
	separator   Separator
	engine      diarization.Engine
	transcriber Transcriber
	translator  Translator
	synthesizer tts.Provider
	publisher   Publisher
	notifier    notifications.Service
	preflight   PreflightFunc
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithProber overrides input validation.
func WithProber(p Prober) Option { return func(pl *Pipeline) { pl.prober = p } }

// WithMuxer overrides audio extraction and remuxing.
func WithMuxer(m Muxer) Option { return func(pl *Pipeline) { pl.muxer = m } }

// WithSeparator overrides source separation.
func WithSeparator(s Separator) Option { return func(pl *Pipeline) { pl.separator = s } }

// WithDiarizationEngine overrides the diarization engine.
func WithDiarizationEngine(e diarization.Engine) Option { return func(pl *Pipeline) { pl.engine = e } }

// WithTranscriber overrides speech-to-text.
func WithTranscriber(t Transcriber) Option { return func(pl *Pipeline) { pl.transcriber = t } }

// WithTranslator overrides machine translation.
func WithTranslator(t Translator) Option { return func(pl *Pipeline) { pl.translator = t } }

// WithSynthesizer overrides text-to-speech.
func WithSynthesizer(s tts.Provider) Option { return func(pl *Pipeline) { pl.synthesizer = s } }

// WithPublisher overrides artifact delivery. A nil publisher disables it.
func WithPublisher(p Publisher) Option {
	return func(pl *Pipeline) {
		pl.publisher = p
		if p == nil {
			pl.publisher = noPublisher{}
		}
	}
}

// WithNotifier overrides run outcome notifications.
func WithNotifier(n notifications.Service) Option { return func(pl *Pipeline) { pl.notifier = n } }

// WithPreflight overrides readiness checks.
func WithPreflight(fn PreflightFunc) Option { return func(pl *Pipeline) { pl.preflight = fn } }

type noPublisher struct{}

func (noPublisher) Name() string { return "none" }

func (noPublisher) Publish(context.Context, []string) ([]string, error) { return nil, nil }

// New builds a pipeline for cfg. Collaborators not supplied through options
// are constructed from the configuration; a backend missing its required
// server or config file fails with the matching exit code.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("dubbing: config required")
	}
	p := &Pipeline{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "dubbing"),
		codec:  codec.New(cfg.FFmpegBinary()),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.prober == nil {
		p.prober = ffprobe.New(cfg.FFprobeBinary())
	}
	if p.muxer == nil {
		p.muxer = video.NewMuxer(cfg.FFmpegBinary(), logger)
	}
	if p.separator == nil {
		p.separator = separation.New(separation.Config{
			Model:       cfg.Separation.Model,
			CUDAEnabled: cfg.Separation.CUDAEnabled,
		}, logger)
	}
	if p.engine == nil {
		p.engine = newEngine(cfg, p.codec)
	}
	if p.transcriber == nil {
		p.transcriber = whisperx.NewService(whisperx.Config{
			Model:       cfg.Transcription.Model,
			CUDAEnabled: cfg.Transcription.CUDAEnabled,
			VADMethod:   cfg.Transcription.VADMethod,
			HFToken:     cfg.Diarization.HFToken,
		})
	}
	if p.translator == nil {
		translator, err := newTranslator(cfg)
		if err != nil {
			return nil, err
		}
		p.translator = translator
	}
	if p.synthesizer == nil {
		synthesizer, err := newSynthesizer(cfg)
		if err != nil {
			return nil, err
		}
		p.synthesizer = synthesizer
	}
	if p.publisher == nil {
		if pub := publish.New(cfg, logger); pub != nil {
			p.publisher = pub
		} else {
			p.publisher = noPublisher{}
		}
	}
	if p.notifier == nil {
		p.notifier = notifications.NewService(cfg)
	}
	if p.preflight == nil {
		p.preflight = func(ctx context.Context) []preflight.Result {
			return preflight.RunAll(ctx, cfg)
		}
	}
	return p, nil
}

func newEngine(cfg *config.Config, decoder diarization.Decoder) diarization.Engine {
	if cfg.Diarization.Engine == config.DiarizationEnergy {
		return diarization.NewEnergy(diarization.EnergyConfig{
			MinSilenceMS: cfg.Diarization.MinSilenceMS,
			MinSpeechMS:  cfg.Diarization.MinSpeechMS,
		}, decoder)
	}
	return diarization.NewPyannote(diarization.PyannoteConfig{
		Model:       cfg.Diarization.Model,
		HFToken:     cfg.Diarization.HFToken,
		CUDAEnabled: cfg.Diarization.CUDAEnabled,
		WorkDir:     cfg.Paths.CacheDir,
	})
}

func newTranslator(cfg *config.Config) (Translator, error) {
	if cfg.Translation.Provider == config.TranslationApertium {
		if cfg.Translation.ApertiumServer == "" {
			return nil, services.WithExitCode(
				services.Wrap(services.ErrConfiguration, "dubbing", "translator", "translation.apertium_server is required for the apertium provider", nil),
				services.ExitNoApertiumServer)
		}
		return apertium.NewClient(cfg.Translation.ApertiumServer, nil), nil
	}
	settings := cfg.LLM
	return llm.NewClient(llm.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Referer:        settings.Referer,
		Title:          settings.Title,
		TimeoutSeconds: settings.TimeoutSeconds,
	}), nil
}

func newSynthesizer(cfg *config.Config) (tts.Provider, error) {
	switch cfg.TTS.Provider {
	case config.TTSCLI:
		if cfg.TTS.CLIConfigFile == "" {
			return nil, services.WithExitCode(
				services.Wrap(services.ErrConfiguration, "dubbing", "synthesizer", "tts.cli_config_file is required for the cli provider", nil),
				services.ExitNoCLIConfigFile)
		}
		cliConfig, err := tts.LoadCLIConfig(cfg.TTS.CLIConfigFile)
		if err != nil {
			return nil, services.WithExitCode(err, services.ExitNoCLIConfigFile)
		}
		return tts.NewCLI(cliConfig), nil
	case config.TTSAPI:
		if cfg.TTS.APIServer == "" {
			return nil, services.WithExitCode(
				services.Wrap(services.ErrConfiguration, "dubbing", "synthesizer", "tts.api_server is required for the api provider", nil),
				services.ExitNoTTSAPIServer)
		}
		return tts.NewAPI(cfg.TTS.APIServer, nil), nil
	default:
		return tts.NewEdge(), nil
	}
}

// runState is owned by a single Run call.
type runState struct {
	id             string
	req            Request
	dir            string
	source         string
	target         string
	retranslateAll bool
	videoSeconds   float64

	audioPath      string
	vocalsPath     string
	backgroundPath string
	dubbedAudio    string
	outputVideo    string
	subtitles      []video.Subtitle
	published      []string

	voices   []tts.Voice
	store    *utterance.Store
	manifest *manifest.Store
}

type stage struct {
	name string
	run  func(context.Context, *runState) error
}

// RunDir returns the directory a run for videoPath writes into.
func (p *Pipeline) RunDir(videoPath string) string {
	base := filepath.Base(videoPath)
	return filepath.Join(p.cfg.Paths.OutputDir, strings.TrimSuffix(base, filepath.Ext(base)))
}

// Run executes a dubbing run.
func (p *Pipeline) Run(ctx context.Context, req Request) (result Result, err error) {
	state := &runState{
		id:     uuid.NewString(),
		req:    req,
		dir:    p.RunDir(req.VideoPath),
		source: p.cfg.Dubbing.SourceLanguage,
		target: p.cfg.Dubbing.TargetLanguage,
	}
	ctx = services.WithRun(ctx, state.id, state.target)
	logger := logging.WithContext(ctx, p.logger)

	if err := os.MkdirAll(state.dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("dubbing: ensure run dir: %w", err)
	}
	lock, err := lockDir(state.dir)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		_ = lock.Unlock()
	}()
	defer func() {
		if err == nil {
			return
		}
		if notifyErr := p.notifier.NotifyDubFailed(context.WithoutCancel(ctx), req.VideoPath, err); notifyErr != nil {
			logging.WarnWithContext(logger, "failure notification not sent", "notification_failed",
				logging.Error(notifyErr),
				logging.String(logging.FieldImpact, "no ntfy message for this failure"),
			)
		}
	}()
	defer func() {
		if state.manifest == nil {
			return
		}
		if err != nil && state.store != nil {
			if saveErr := p.persist(context.WithoutCancel(ctx), state, manifest.StatusFailed); saveErr != nil {
				logger.Error("failed to record run failure", logging.Error(saveErr))
			}
		}
		_ = state.manifest.Close()
	}()

	logger.Info("dubbing run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("video_path", req.VideoPath),
		logging.String("run_dir", state.dir),
		logging.Bool("update", req.Update),
	)
	started := time.Now()

	for _, st := range p.stages(req) {
		if err := p.runStage(ctx, st, state); err != nil {
			return Result{}, err
		}
	}

	result = Result{
		RunID:      state.id,
		RunDir:     state.dir,
		VideoPath:  state.outputVideo,
		AudioPath:  state.dubbedAudio,
		Published:  state.published,
		Utterances: state.store.Len(),
	}
	for _, sub := range state.subtitles {
		result.Subtitles = append(result.Subtitles, sub.Path)
	}
	for _, record := range state.store.Records() {
		if record.ForDubbing {
			result.Dubbed++
		} else {
			result.PassThrough++
		}
	}
	elapsed := time.Since(started)
	if notifyErr := p.notifier.NotifyDubCompleted(ctx, req.VideoPath, result.VideoPath, result.Dubbed, result.Utterances, elapsed); notifyErr != nil {
		logging.WarnWithContext(logger, "completion notification not sent", "notification_failed",
			logging.Error(notifyErr),
			logging.String(logging.FieldImpact, "no ntfy message for this run"),
		)
	}
	logger.Info("dubbing run complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("output_path", result.VideoPath),
		logging.Int("utterances", result.Utterances),
		logging.Int("dubbed", result.Dubbed),
		logging.Int("pass_through", result.PassThrough),
		logging.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (p *Pipeline) stages(req Request) []stage {
	stages := []stage{
		{"validate", p.validateInput},
		{"preflight", p.runPreflight},
		{"languages", p.checkLanguages},
		{"manifest", p.openManifest},
	}
	if req.Update {
		stages = append(stages, stage{"restore", p.restore})
	} else {
		stages = append(stages,
			stage{"extract", p.extract},
			stage{"separate", p.separate},
			stage{"diarize", p.diarize},
			stage{"chunk", p.chunk},
			stage{"transcribe", p.transcribe},
		)
	}
	return append(stages,
		stage{"translate", p.translate},
		stage{"synthesize", p.synthesize},
		stage{"assemble", p.assemble},
		stage{"subtitles", p.writeSubtitles},
		stage{"remux", p.remux},
		stage{"finish", p.finish},
		stage{"cleanup", p.cleanup},
		stage{"publish", p.publish},
	)
}

func (p *Pipeline) runStage(ctx context.Context, st stage, state *runState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stageCtx := services.WithStage(ctx, st.name)
	logger := logging.WithContext(stageCtx, p.logger)
	started := time.Now()
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	if err := st.run(stageCtx, state); err != nil {
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String(logging.FieldErrorHint, services.FailureHint(err)),
			logging.Error(err),
		)
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func (p *Pipeline) persist(ctx context.Context, state *runState, status string) error {
	return state.manifest.SaveRun(ctx, manifest.Run{
		ID:             state.id,
		VideoPath:      state.req.VideoPath,
		SourceLanguage: state.source,
		TargetLanguage: state.target,
		BackgroundPath: state.backgroundPath,
		Status:         status,
		OutputPath:     state.outputVideo,
	}, state.store.Records())
}
