package dubbing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"redub/internal/assembly"
	"redub/internal/chunker"
	"redub/internal/config"
	"redub/internal/diarization"
	"redub/internal/fileutil"
	"redub/internal/language"
	"redub/internal/logging"
	"redub/internal/loudness"
	"redub/internal/manifest"
	"redub/internal/media/video"
	"redub/internal/preflight"
	"redub/internal/services"
	"redub/internal/services/tts"
	"redub/internal/subtitles"
	"redub/internal/utterance"
)

func (p *Pipeline) validateInput(ctx context.Context, state *runState) error {
	if !strings.EqualFold(filepath.Ext(state.req.VideoPath), ".mp4") {
		return services.WithExitCode(
			services.Wrap(services.ErrValidation, "dubbing", "validate input",
				fmt.Sprintf("%s is not an mp4 file", state.req.VideoPath), nil),
			services.ExitInvalidFileFormat)
	}
	if _, err := os.Stat(state.req.VideoPath); err != nil {
		return services.WithExitCode(
			services.Wrap(services.ErrNotFound, "dubbing", "validate input", "input video not readable", err),
			services.ExitInvalidFileFormat)
	}
	return nil
}

func (p *Pipeline) runPreflight(ctx context.Context, state *runState) error {
	logger := logging.WithContext(ctx, p.logger)
	results := p.preflight(ctx)
	for _, result := range results {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failure",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "fix the reported dependency and rerun"),
			logging.String(logging.FieldImpact, "run aborted before processing"),
		)
	}
	if failed, ok := preflight.FirstFailure(results); ok {
		code := failed.Code
		if code == 0 {
			code = services.ExitFailure
		}
		return services.WithExitCode(
			services.Wrap(services.ErrConfiguration, "preflight", failed.Name, failed.Detail, nil),
			code)
	}

	probe, err := p.prober.ValidateVideo(ctx, state.req.VideoPath)
	if err != nil {
		return services.WithExitCode(err, services.ExitInvalidFileFormat)
	}
	state.videoSeconds = probe.DurationSeconds()
	return nil
}

// checkLanguages fails early when the synthesizer has no voice for the
// target language or a pair-based translator lacks the pair.
func (p *Pipeline) checkLanguages(ctx context.Context, state *runState) error {
	voices, err := p.synthesizer.Voices(ctx)
	if err != nil {
		return err
	}
	state.voices = voices
	if p.cfg.TTS.Voice == "" && len(tts.VoicesFor(voices, state.target, p.cfg.Dubbing.TargetLanguageRegion)) == 0 {
		return services.WithExitCode(
			services.Wrap(services.ErrValidation, "dubbing", "check languages",
				fmt.Sprintf("%s has no voice for %s", p.synthesizer.Name(), language.DisplayName(state.target)), nil),
			services.ExitUnsupportedLanguage)
	}
	if state.source != "" {
		return p.checkTranslationPair(ctx, state)
	}
	return nil
}

func (p *Pipeline) checkTranslationPair(ctx context.Context, state *runState) error {
	if language.SameLanguage(state.source, state.target) {
		return services.Wrap(services.ErrValidation, "dubbing", "check languages",
			fmt.Sprintf("source and target language are both %s", language.DisplayName(state.target)), nil)
	}
	checker, ok := p.translator.(pairChecker)
	if !ok {
		return nil
	}
	supported, err := checker.Supports(ctx, state.source, state.target)
	if err != nil {
		return err
	}
	if !supported {
		return services.WithExitCode(
			services.Wrap(services.ErrValidation, "dubbing", "check languages",
				fmt.Sprintf("%s cannot translate %s to %s", p.translator.Name(), state.source, state.target), nil),
			services.ExitUnsupportedLanguage)
	}
	return nil
}

func (p *Pipeline) openManifest(ctx context.Context, state *runState) error {
	store, err := manifest.Open(ctx, state.dir)
	if err != nil {
		return err
	}
	state.manifest = store
	return nil
}

// restore loads the newest run recorded in the output directory so edited
// translations can be re-synthesized without repeating the audio analysis.
func (p *Pipeline) restore(ctx context.Context, state *runState) error {
	logger := logging.WithContext(ctx, p.logger)
	previous, records, err := state.manifest.LatestRun(ctx)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return services.Wrap(services.ErrNotFound, "dubbing", "restore",
				"no earlier run recorded; run once without update mode", err)
		}
		return err
	}
	store, err := utterance.Restore(records)
	if err != nil {
		return services.Wrap(services.ErrValidation, "dubbing", "restore", "recorded utterances are invalid", err)
	}
	if previous.BackgroundPath == "" {
		return services.Wrap(services.ErrNotFound, "dubbing", "restore", "earlier run recorded no background track", nil)
	}
	if _, err := os.Stat(previous.BackgroundPath); err != nil {
		return services.Wrap(services.ErrNotFound, "dubbing", "restore",
			"background track of the earlier run is missing; rerun without update mode", err)
	}
	state.store = store
	state.backgroundPath = previous.BackgroundPath
	if state.source == "" {
		state.source = previous.SourceLanguage
	}
	if !language.SameLanguage(previous.TargetLanguage, state.target) {
		state.retranslateAll = true
	}
	logger.Info("restored earlier run",
		append(logging.Args(logging.DecisionAttrs("update_mode", "restored", "manifest found")...),
			logging.String("previous_run", previous.ID),
			logging.Int("utterances", store.Len()),
			logging.Bool("retranslate_all", state.retranslateAll),
		)...,
	)
	if state.source == "" {
		return services.Wrap(services.ErrValidation, "dubbing", "restore", "earlier run recorded no source language", nil)
	}
	return p.checkTranslationPair(ctx, state)
}

func (p *Pipeline) extract(ctx context.Context, state *runState) error {
	audioPath, err := p.muxer.ExtractAudio(ctx, state.req.VideoPath, state.dir)
	if err != nil {
		return err
	}
	state.audioPath = audioPath
	return nil
}

func (p *Pipeline) separate(ctx context.Context, state *runState) error {
	result, err := p.separator.Separate(ctx, state.audioPath, state.dir)
	if err != nil {
		return err
	}
	state.vocalsPath = result.Vocals
	state.backgroundPath = result.Background
	return nil
}

func (p *Pipeline) diarize(ctx context.Context, state *runState) error {
	intervals, err := diarization.NewExtractor(p.engine, p.logger).Extract(ctx, state.vocalsPath)
	if err != nil {
		return err
	}
	if len(intervals) == 0 {
		return services.Wrap(services.ErrValidation, "dubbing", "diarize", "no speech detected in the soundtrack", nil)
	}
	store, err := utterance.NewStore(intervals)
	if err != nil {
		return err
	}
	state.store = store
	return nil
}

func (p *Pipeline) chunk(ctx context.Context, state *runState) error {
	return chunker.New(p.codec, p.logger).ChunkStore(ctx, state.store, state.vocalsPath, state.dir, p.cfg.Dubbing.ChunkPrefix)
}

func (p *Pipeline) transcribe(ctx context.Context, state *runState) error {
	logger := logging.WithContext(ctx, p.logger)
	transcriptDir := filepath.Join(state.dir, "transcripts")
	for i, record := range state.store.Records() {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := p.transcriber.Transcribe(ctx, record.Path, transcriptDir, state.source)
		if err != nil {
			return err
		}
		if state.source == "" && result.Language != "" {
			detected, err := language.Canonical(language.ToISO2(result.Language))
			if err == nil && detected != "" {
				state.source = detected
				logger.Info("source language detected",
					append(logging.Args(logging.DecisionAttrs("source_language", detected, "detected by transcription")...),
						logging.String("chunk", filepath.Base(record.Path)),
					)...,
				)
			}
		}
		if err := state.store.SetText(i, result.Text); err != nil {
			return err
		}
	}
	if state.source == "" {
		return services.Wrap(services.ErrValidation, "dubbing", "transcribe",
			"source language could not be detected; set dubbing.source_language", nil)
	}
	if err := p.checkTranslationPair(ctx, state); err != nil {
		return err
	}
	return p.persist(ctx, state, manifest.StatusRunning)
}

func (p *Pipeline) translate(ctx context.Context, state *runState) error {
	logger := logging.WithContext(ctx, p.logger)
	records := state.store.Records()
	var (
		indices []int
		texts   []string
	)
	for i, record := range records {
		if strings.TrimSpace(record.Text) == "" {
			continue
		}
		if state.req.Update && !state.retranslateAll && strings.TrimSpace(record.Translation) != "" {
			continue
		}
		indices = append(indices, i)
		texts = append(texts, record.Text)
	}
	logger.Info("translating utterances",
		logging.String("translator", p.translator.Name()),
		logging.Int("pending", len(texts)),
		logging.Int("kept", len(records)-len(texts)),
	)
	if len(texts) > 0 {
		translated, err := p.translator.Translate(ctx, state.source, state.target, texts)
		if err != nil {
			return err
		}
		if len(translated) != len(texts) {
			return services.Wrap(services.ErrExternalTool, "dubbing", "translate",
				fmt.Sprintf("%s returned %d translations for %d texts", p.translator.Name(), len(translated), len(texts)), nil)
		}
		for k, i := range indices {
			if err := state.store.SetTranslation(i, strings.TrimSpace(translated[k])); err != nil {
				return err
			}
		}
	}
	return p.persist(ctx, state, manifest.StatusRunning)
}

func (p *Pipeline) synthesize(ctx context.Context, state *runState) error {
	logger := logging.WithContext(ctx, p.logger)
	assigned, err := tts.AssignVoices(state.voices, state.store.Speakers(), state.target,
		p.cfg.Dubbing.TargetLanguageRegion, p.cfg.TTS.Voice)
	if err != nil {
		return services.WithExitCode(err, services.ExitUnsupportedLanguage)
	}
	for speaker, voice := range assigned {
		logger.Debug("voice assigned",
			logging.String("speaker", speaker),
			logging.String("voice", voice.ID),
			logging.String("gender", voice.Gender),
		)
	}

	prefix := "dubbed_" + p.cfg.Dubbing.ChunkPrefix
	for i, record := range state.store.Records() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.TrimSpace(record.Translation) == "" {
			if err := state.store.MarkPassThrough(i); err != nil {
				return err
			}
			continue
		}
		voice := assigned[record.SpeakerID]
		outputPath := filepath.Join(state.dir, utterance.FileName(prefix, record.Start, record.End, p.synthesizer.OutputExt()))
		if err := p.synthesizer.Synthesize(ctx, record.Translation, voice, outputPath); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.WarnWithContext(logger, "speech synthesis failed; keeping original audio", "synthesis_pass_through",
				logging.String("speaker", record.SpeakerID),
				logging.Float64("start", record.Start),
				logging.Float64("end", record.End),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the tts provider output"),
				logging.String(logging.FieldImpact, "utterance keeps its original voice"),
			)
			if err := state.store.MarkPassThrough(i); err != nil {
				return err
			}
			continue
		}
		if err := state.store.MarkDubbed(i, outputPath, voice.ID, voice.Gender); err != nil {
			return err
		}
	}
	return p.persist(ctx, state, manifest.StatusRunning)
}

func (p *Pipeline) assemble(ctx context.Context, state *runState) error {
	analyzer := loudness.NewAnalyzer(p.cfg.Loudness.Threshold, p.cfg.Loudness.TargetPeak, p.codec)
	assembler := assembly.New(p.codec, analyzer, p.logger)
	records := state.store.Records()

	if p.cfg.Dubbing.AssemblyMode == config.AssemblyDirect {
		output, err := assembler.Assemble(ctx, records, state.backgroundPath, state.dir)
		if err != nil {
			return err
		}
		state.dubbedAudio = output
		return nil
	}
	vocals, err := assembler.RenderVocals(ctx, records, state.backgroundPath, state.dir)
	if err != nil {
		return err
	}
	output, err := assembler.Merge(ctx, state.backgroundPath, vocals, state.dir, state.target)
	if err != nil {
		return err
	}
	state.dubbedAudio = output
	return nil
}

func (p *Pipeline) writeSubtitles(ctx context.Context, state *runState) error {
	logger := logging.WithContext(ctx, p.logger)
	records := state.store.Records()
	tracks := []struct {
		enabled bool
		source  subtitles.Source
		lang    string
	}{
		{p.cfg.Dubbing.OriginalSubtitles, subtitles.Original, state.source},
		{p.cfg.Dubbing.DubbedSubtitles, subtitles.Dubbed, state.target},
	}
	for _, track := range tracks {
		if !track.enabled {
			continue
		}
		cues := subtitles.FromRecords(records, track.source)
		if len(cues) == 0 {
			logging.WarnWithContext(logger, "no subtitle cues; skipping track", "subtitles_empty",
				logging.String("language", track.lang),
				logging.String(logging.FieldImpact, "output has no subtitles in this language"),
			)
			continue
		}
		path := filepath.Join(state.dir, subtitles.FileName(state.req.VideoPath, track.lang))
		if err := subtitles.Write(path, cues); err != nil {
			return services.Wrap(services.ErrExternalTool, "dubbing", "write subtitles", "failed to write srt", err)
		}
		if issues := subtitles.Validate(path, state.videoSeconds); len(issues) > 0 {
			logging.WarnWithContext(logger, "subtitle validation reported issues", "subtitles_invalid",
				logging.String("path", path),
				logging.String("issues", strings.Join(issues, "; ")),
				logging.String(logging.FieldImpact, "players may mistime cues"),
			)
		}
		state.subtitles = append(state.subtitles, video.Subtitle{
			Path:     path,
			Language: track.lang,
			Title:    language.DisplayName(track.lang),
		})
	}
	return nil
}

func (p *Pipeline) remux(ctx context.Context, state *runState) error {
	output, err := p.muxer.Remux(ctx, video.RemuxRequest{
		VideoPath: state.req.VideoPath,
		AudioPath: state.dubbedAudio,
		Language:  state.target,
		OutputDir: state.dir,
		Subtitles: state.subtitles,
	})
	if err != nil {
		return err
	}
	state.outputVideo = output
	return nil
}

func (p *Pipeline) finish(ctx context.Context, state *runState) error {
	return state.manifest.FinishRun(ctx, state.id, manifest.StatusFinished, state.outputVideo)
}

// cleanup removes intermediate artifacts while keeping the outputs, the
// manifest and the lock file.
func (p *Pipeline) cleanup(ctx context.Context, state *runState) error {
	if !p.cfg.Dubbing.CleanIntermediateFiles {
		return nil
	}
	keep := []string{
		filepath.Base(state.outputVideo),
		filepath.Base(state.dubbedAudio),
		manifest.FileName,
		manifest.FileName + "-wal",
		manifest.FileName + "-shm",
		LockFileName,
	}
	for _, sub := range state.subtitles {
		keep = append(keep, filepath.Base(sub.Path))
	}
	removed, err := fileutil.RemoveExcept(state.dir, keep...)
	if err != nil {
		return err
	}
	logging.WithContext(ctx, p.logger).Info("intermediate files removed",
		logging.Int("removed", len(removed)),
	)
	return nil
}

func (p *Pipeline) publish(ctx context.Context, state *runState) error {
	if _, disabled := p.publisher.(noPublisher); disabled {
		return nil
	}
	files := []string{state.outputVideo, state.dubbedAudio}
	for _, sub := range state.subtitles {
		files = append(files, sub.Path)
	}
	destinations, err := p.publisher.Publish(ctx, files)
	if err != nil {
		return err
	}
	state.published = destinations
	logging.WithContext(ctx, p.logger).Info("dub published",
		logging.String("publisher", p.publisher.Name()),
		logging.Int("files", len(destinations)),
	)
	return nil
}
