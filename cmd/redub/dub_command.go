package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"redub/internal/config"
	"redub/internal/dubbing"
	"redub/internal/language"
	"redub/internal/services"
)

type dubFlags struct {
	sourceLanguage    string
	targetLanguage    string
	targetRegion      string
	hfToken           string
	assemblyMode      string
	ttsProvider       string
	translator        string
	voice             string
	outputDir         string
	update            bool
	originalSubtitles bool
	dubbedSubtitles   bool
	clean             bool
}

func newDubCommand(ctx *commandContext) *cobra.Command {
	var flags dubFlags

	cmd := &cobra.Command{
		Use:   "dub <video.mp4>",
		Short: "Dub a video into the target language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCfg := *cfg
			if err := flags.apply(cmd, &runCfg); err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			pipeline, err := dubbing.New(&runCfg, logger)
			if err != nil {
				return err
			}
			videoPath, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve video path: %w", err)
			}
			result, err := pipeline.Run(cmd.Context(), dubbing.Request{VideoPath: videoPath, Update: flags.update})
			if err != nil {
				return err
			}
			printDubResult(cmd, result)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.sourceLanguage, "source-language", "s", "", "Source language (detected when empty)")
	f.StringVarP(&flags.targetLanguage, "target-language", "t", "", "Target language")
	f.StringVar(&flags.targetRegion, "target-region", "", "Preferred voice region for the target language (e.g. US)")
	f.StringVar(&flags.hfToken, "hugging-face-token", "", "Hugging Face token for pyannote and WhisperX alignment")
	f.StringVar(&flags.assemblyMode, "assembly-mode", "", "merge or direct")
	f.StringVar(&flags.ttsProvider, "tts", "", "TTS provider: edge, cli or api")
	f.StringVar(&flags.translator, "translator", "", "Translation provider: llm or apertium")
	f.StringVar(&flags.voice, "voice", "", "Use this voice for every speaker")
	f.StringVarP(&flags.outputDir, "output-dir", "o", "", "Override paths.output_dir")
	f.BoolVar(&flags.update, "update", false, "Reuse the earlier run's utterances and re-synthesize edited translations")
	f.BoolVar(&flags.originalSubtitles, "original-subtitles", false, "Embed source-language subtitles")
	f.BoolVar(&flags.dubbedSubtitles, "dubbed-subtitles", false, "Embed target-language subtitles")
	f.BoolVar(&flags.clean, "clean-intermediate-files", false, "Remove intermediate files after a successful run")
	return cmd
}

// apply copies explicitly set flags onto cfg and revalidates it.
func (f dubFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	var err error
	if changed("source-language") {
		if cfg.Dubbing.SourceLanguage, err = language.Canonical(f.sourceLanguage); err != nil {
			return flagError("--source-language", err)
		}
	}
	if changed("target-language") {
		if cfg.Dubbing.TargetLanguage, err = language.Canonical(f.targetLanguage); err != nil {
			return flagError("--target-language", err)
		}
	}
	if changed("target-region") {
		cfg.Dubbing.TargetLanguageRegion = strings.ToUpper(strings.TrimSpace(f.targetRegion))
	}
	if changed("hugging-face-token") {
		cfg.Diarization.HFToken = strings.TrimSpace(f.hfToken)
	}
	if changed("assembly-mode") {
		cfg.Dubbing.AssemblyMode = strings.ToLower(strings.TrimSpace(f.assemblyMode))
	}
	if changed("tts") {
		cfg.TTS.Provider = strings.ToLower(strings.TrimSpace(f.ttsProvider))
	}
	if changed("translator") {
		cfg.Translation.Provider = strings.ToLower(strings.TrimSpace(f.translator))
	}
	if changed("voice") {
		cfg.TTS.Voice = strings.TrimSpace(f.voice)
	}
	if changed("output-dir") {
		if cfg.Paths.OutputDir, err = config.ExpandPath(f.outputDir); err != nil {
			return flagError("--output-dir", err)
		}
	}
	if changed("original-subtitles") {
		cfg.Dubbing.OriginalSubtitles = f.originalSubtitles
	}
	if changed("dubbed-subtitles") {
		cfg.Dubbing.DubbedSubtitles = f.dubbedSubtitles
	}
	if changed("clean-intermediate-files") {
		cfg.Dubbing.CleanIntermediateFiles = f.clean
	}
	if err := cfg.Validate(); err != nil {
		return services.Wrap(services.ErrConfiguration, "cli", "dub flags", "invalid flag combination", err)
	}
	return cfg.EnsureDirectories()
}

func flagError(flag string, err error) error {
	return services.Wrap(services.ErrValidation, "cli", "dub flags", "invalid "+flag, err)
}

func printDubResult(cmd *cobra.Command, result dubbing.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dubbed video: %s\n", result.VideoPath)
	fmt.Fprintf(out, "Dubbed audio: %s\n", result.AudioPath)
	for _, path := range result.Subtitles {
		fmt.Fprintf(out, "Subtitles:    %s\n", path)
	}
	for _, dest := range result.Published {
		fmt.Fprintf(out, "Published:    %s\n", dest)
	}
	fmt.Fprintf(out, "Utterances:   %d (%d dubbed, %d original)\n", result.Utterances, result.Dubbed, result.PassThrough)
	fmt.Fprintf(out, "Run ID:       %s\n", result.RunID)
}
