package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"redub/internal/services"
)

// API synthesizes speech through an HTTP server.
//
// GET /voices returns a JSON array of voices. POST /speak accepts
// {"text": "...", "voice": "..."} and responds with audio bytes.
type API struct {
	baseURL    string
	httpClient *http.Client
	outputExt  string
}

// NewAPI returns a provider for baseURL. A nil httpClient uses a client with a
// two minute timeout.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		outputExt:  "wav",
	}
}

// Name identifies the provider.
func (a *API) Name() string { return "api" }

// OutputExt is the format the server is expected to return.
func (a *API) OutputExt() string { return a.outputExt }

// Voices fetches the server's voice catalogue.
func (a *API) Voices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/voices", nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "tts", "api voices", "build request", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "tts", "api voices", a.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("api voices", resp)
	}
	var voices []Voice
	if err := json.NewDecoder(resp.Body).Decode(&voices); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "tts", "api voices", "decode response", err)
	}
	return voices, nil
}

// Synthesize posts text to /speak and writes the response body to outputPath.
func (a *API) Synthesize(ctx context.Context, text string, voice Voice, outputPath string) error {
	body, err := json.Marshal(map[string]string{"text": text, "voice": voice.ID})
	if err != nil {
		return services.Wrap(services.ErrValidation, "tts", "api speak", "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/speak", bytes.NewReader(body))
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "tts", "api speak", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "tts", "api speak", a.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError("api speak", resp)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "tts", "api speak", "create output", err)
	}
	written, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if copyErr != nil {
		return services.Wrap(services.ErrTransient, "tts", "api speak", "read audio", copyErr)
	}
	if closeErr != nil {
		return services.Wrap(services.ErrExternalTool, "tts", "api speak", "close output", closeErr)
	}
	if written == 0 {
		_ = os.Remove(outputPath)
		return services.Wrap(services.ErrExternalTool, "tts", "api speak", "empty audio response", nil)
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	marker := services.ErrExternalTool
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		marker = services.ErrTransient
	}
	return services.Wrap(marker, "tts", op, fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
}
