package services

import "context"

type runInfoKey struct{}

// RunInfo identifies the dubbing run and stage a context belongs to.
type RunInfo struct {
	ID             string
	TargetLanguage string
	Stage          string
}

// WithRun stores the run identifier and target language on ctx. Any stage
// already recorded is kept.
func WithRun(ctx context.Context, id, targetLanguage string) context.Context {
	info := RunInfoFromContext(ctx)
	info.ID, info.TargetLanguage = id, targetLanguage
	return context.WithValue(ctx, runInfoKey{}, info)
}

// WithStage records the pipeline stage on ctx. A blank stage returns ctx
// unchanged.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	info := RunInfoFromContext(ctx)
	info.Stage = stage
	return context.WithValue(ctx, runInfoKey{}, info)
}

// RunInfoFromContext returns the run information stored on ctx, or the zero
// value.
func RunInfoFromContext(ctx context.Context) RunInfo {
	if ctx == nil {
		return RunInfo{}
	}
	info, _ := ctx.Value(runInfoKey{}).(RunInfo)
	return info
}
