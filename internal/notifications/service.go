package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"redub/internal/config"
)

const (
	userAgent      = "redub/0.1.0"
	defaultTimeout = 10 * time.Second
	// maxErrorBody caps how much of a rejected publish is quoted in errors.
	maxErrorBody = 2048
)

// Service reports run outcomes.
type Service interface {
	NotifyDubCompleted(ctx context.Context, videoPath, outputPath string, dubbed, total int, elapsed time.Duration) error
	NotifyDubFailed(ctx context.Context, videoPath string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService returns an ntfy-backed Service, or one that does nothing when
// cfg has no topic.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return disabled{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return disabled{}
	}
	timeout := defaultTimeout
	if seconds := cfg.Notifications.RequestTimeout; seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}
	return &ntfy{topic: topic, client: &http.Client{Timeout: timeout}}
}

// ntfy publishes plain-text messages to a topic URL, with title, tags and
// priority carried in headers.
type ntfy struct {
	topic  string
	client *http.Client
}

func (n *ntfy) NotifyDubCompleted(ctx context.Context, videoPath, outputPath string, dubbed, total int, elapsed time.Duration) error {
	return n.publish(ctx, dubCompleted(videoPath, outputPath, dubbed, total, elapsed))
}

func (n *ntfy) NotifyDubFailed(ctx context.Context, videoPath string, err error) error {
	return n.publish(ctx, dubFailed(videoPath, err))
}

func (n *ntfy) TestNotification(ctx context.Context) error {
	return n.publish(ctx, testMessage())
}

func (n *ntfy) publish(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.topic, strings.NewReader(msg.Body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	header := req.Header
	header.Set("User-Agent", userAgent)
	header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.Title != "" {
		header.Set("Title", msg.Title)
	}
	if len(msg.Tags) > 0 {
		header.Set("Tags", strings.Join(msg.Tags, ","))
	}
	if msg.Priority != "" && msg.Priority != "default" {
		header.Set("Priority", msg.Priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("publish to ntfy: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type disabled struct{}

func (disabled) NotifyDubCompleted(context.Context, string, string, int, int, time.Duration) error {
	return nil
}

func (disabled) NotifyDubFailed(context.Context, string, error) error { return nil }

func (disabled) TestNotification(context.Context) error { return nil }
