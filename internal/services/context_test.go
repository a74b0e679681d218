package services_test

import (
	"context"
	"testing"

	"redub/internal/services"
)

func TestRunInfoRoundTrip(t *testing.T) {
	ctx := services.WithStage(context.Background(), "chunking")
	ctx = services.WithRun(ctx, "run-123", "ca")

	info := services.RunInfoFromContext(ctx)
	want := services.RunInfo{ID: "run-123", TargetLanguage: "ca", Stage: "chunking"}
	if info != want {
		t.Fatalf("RunInfoFromContext = %+v, want %+v", info, want)
	}

	next := services.RunInfoFromContext(services.WithStage(ctx, "assembly"))
	if next.Stage != "assembly" || next.ID != "run-123" {
		t.Fatalf("stage update lost run fields: %+v", next)
	}
	if services.RunInfoFromContext(ctx).Stage != "chunking" {
		t.Fatal("parent context was modified")
	}
}

func TestBlankStageKeepsContext(t *testing.T) {
	ctx := context.Background()
	if got := services.WithStage(ctx, ""); got != ctx {
		t.Fatal("expected the same context for a blank stage")
	}
	if info := services.RunInfoFromContext(ctx); info != (services.RunInfo{}) {
		t.Fatalf("expected zero info, got %+v", info)
	}
}
