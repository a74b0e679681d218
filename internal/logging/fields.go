package logging

import (
	"context"
	"log/slog"

	"redub/internal/services"
)

// Structured keys shared by every component. FieldLanguage carries the
// dubbing target language, FieldErrorHint the next step an operator should
// take and FieldImpact the user-facing consequence of a warning.
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldStage     = "stage"
	FieldLanguage  = "target_language"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldImpact    = "impact"

	FieldDecisionType   = "decision_type"
	FieldDecisionResult = "decision_result"
	FieldDecisionReason = "decision_reason"
)

// ContextFields returns the run, stage and language attributes stored in ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	info := services.RunInfoFromContext(ctx)
	var fields []slog.Attr
	if info.ID != "" {
		fields = append(fields, slog.String(FieldRunID, info.ID))
	}
	if info.Stage != "" {
		fields = append(fields, slog.String(FieldStage, info.Stage))
	}
	if info.TargetLanguage != "" {
		fields = append(fields, slog.String(FieldLanguage, info.TargetLanguage))
	}
	return fields
}

// WithContext tags logger with the fields from ContextFields.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
