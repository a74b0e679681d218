package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"redub/internal/config"
	"redub/internal/manifest"
	"redub/internal/utterance"
)

type utteranceView struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Speaker     string  `json:"speaker"`
	Text        string  `json:"text"`
	Translation string  `json:"translation"`
	Voice       string  `json:"voice,omitempty"`
	Dubbed      bool    `json:"dubbed"`
	DubbedPath  string  `json:"dubbed_path,omitempty"`
}

type runView struct {
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	VideoPath      string          `json:"video_path"`
	SourceLanguage string          `json:"source_language"`
	TargetLanguage string          `json:"target_language"`
	OutputPath     string          `json:"output_path,omitempty"`
	UpdatedAt      string          `json:"updated_at"`
	Utterances     []utteranceView `json:"utterances,omitempty"`
}

func newUtterancesCommand(ctx *commandContext) *cobra.Command {
	var runID string
	var listRuns bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "utterances <video.mp4|run-dir>",
		Short: "Show the utterances recorded for a dubbed video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir, err := resolveRunDir(cfg, args[0])
			if err != nil {
				return err
			}
			store, err := manifest.Open(cmd.Context(), dir)
			if err != nil {
				return err
			}
			defer store.Close()

			if listRuns {
				runs, err := store.Runs(cmd.Context())
				if err != nil {
					return err
				}
				views := make([]runView, 0, len(runs))
				for _, run := range runs {
					views = append(views, newRunView(run, nil))
				}
				if jsonOutput {
					return writeJSON(cmd, views)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderRuns(views))
				return nil
			}

			var (
				run     manifest.Run
				records []utterance.Record
			)
			if runID != "" {
				run, records, err = store.LoadRun(cmd.Context(), runID)
			} else {
				run, records, err = store.LatestRun(cmd.Context())
			}
			if err != nil {
				return err
			}
			view := newRunView(run, records)
			if jsonOutput {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s (%s) %s -> %s\n", view.ID, view.Status, view.SourceLanguage, view.TargetLanguage)
			fmt.Fprintln(out, renderUtterances(view.Utterances))
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Show a specific run instead of the latest")
	cmd.Flags().BoolVar(&listRuns, "runs", false, "List recorded runs")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}

// resolveRunDir accepts a run directory or the input video, which maps to
// <output_dir>/<video stem>.
func resolveRunDir(cfg *config.Config, arg string) (string, error) {
	path, err := config.ExpandPath(strings.TrimSpace(arg))
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path, nil
	}
	base := filepath.Base(path)
	dir := filepath.Join(cfg.Paths.OutputDir, strings.TrimSuffix(base, filepath.Ext(base)))
	if _, err := os.Stat(filepath.Join(dir, manifest.FileName)); err != nil {
		return "", fmt.Errorf("no manifest for %s in %s", base, dir)
	}
	return dir, nil
}

func newRunView(run manifest.Run, records []utterance.Record) runView {
	view := runView{
		ID:             run.ID,
		Status:         run.Status,
		VideoPath:      run.VideoPath,
		SourceLanguage: run.SourceLanguage,
		TargetLanguage: run.TargetLanguage,
		OutputPath:     run.OutputPath,
		UpdatedAt:      run.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
	}
	for _, record := range records {
		view.Utterances = append(view.Utterances, utteranceView{
			Start:       record.Start,
			End:         record.End,
			Speaker:     record.SpeakerID,
			Text:        record.Text,
			Translation: record.Translation,
			Voice:       record.Voice,
			Dubbed:      record.ForDubbing,
			DubbedPath:  record.DubbedPath,
		})
	}
	return view
}

func renderUtterances(views []utteranceView) string {
	headers := []string{"#", "Start", "End", "Speaker", "Text", "Translation", "Voice", "Dubbed"}
	rows := make([][]string, 0, len(views))
	for i, v := range views {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			utterance.FormatSeconds(v.Start),
			utterance.FormatSeconds(v.End),
			v.Speaker,
			truncate(v.Text, 40),
			truncate(v.Translation, 40),
			v.Voice,
			yesNo(v.Dubbed),
		})
	}
	return renderTable(headers, rows, 1, 2, 3)
}

func renderRuns(views []runView) string {
	headers := []string{"Run", "Status", "Languages", "Updated", "Output"}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		output := "-"
		if v.OutputPath != "" {
			output = filepath.Base(v.OutputPath)
		}
		rows = append(rows, []string{
			v.ID,
			v.Status,
			v.SourceLanguage + " -> " + v.TargetLanguage,
			v.UpdatedAt,
			output,
		})
	}
	return renderTable(headers, rows)
}

func truncate(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}
