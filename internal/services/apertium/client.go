package apertium

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	langpkg "redub/internal/language"
	"redub/internal/services"
)

const defaultHTTPTimeout = 30 * time.Second

// Pair is a supported translation direction.
type Pair struct {
	Source string `json:"sourceLanguage"`
	Target string `json:"targetLanguage"`
}

// Client is an APy HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the APy server at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"), httpClient: httpClient}
}

// Name identifies the translator.
func (c *Client) Name() string { return "apertium" }

type pairsResponse struct {
	ResponseData   []Pair `json:"responseData"`
	ResponseStatus int    `json:"responseStatus"`
}

type translateResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  int    `json:"responseStatus"`
	ResponseDetails string `json:"responseDetails"`
}

// Pairs lists the language pairs installed on the server.
func (c *Client) Pairs(ctx context.Context) ([]Pair, error) {
	var payload pairsResponse
	if err := c.get(ctx, "/listPairs", nil, &payload); err != nil {
		return nil, err
	}
	return payload.ResponseData, nil
}

// Supports reports whether the server can translate from source to target.
// An empty source matches any pair into target.
func (c *Client) Supports(ctx context.Context, source, target string) (bool, error) {
	pairs, err := c.Pairs(ctx)
	if err != nil {
		return false, err
	}
	src, tgt := langpkg.ToISO3(source), langpkg.ToISO3(target)
	for _, pair := range pairs {
		if !langpkg.SameLanguage(pair.Target, tgt) {
			continue
		}
		if source == "" || langpkg.SameLanguage(pair.Source, src) {
			return true, nil
		}
	}
	return false, nil
}

// Translate translates each text from source to target, one request per
// non-empty line.
func (c *Client) Translate(ctx context.Context, source, target string, texts []string) ([]string, error) {
	if strings.TrimSpace(source) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "translation", "apertium", "source language must be known", nil)
	}
	langpair := langpkg.ToISO3(source) + "|" + langpkg.ToISO3(target)
	out := make([]string, len(texts))
	for i, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		var payload translateResponse
		query := url.Values{"langpair": {langpair}, "q": {text}, "markUnknown": {"no"}}
		if err := c.get(ctx, "/translate", query, &payload); err != nil {
			return nil, err
		}
		if payload.ResponseStatus != 0 && payload.ResponseStatus != http.StatusOK {
			return nil, services.Wrap(services.ErrExternalTool, "translation", "apertium", payload.ResponseDetails, nil)
		}
		out[i] = strings.TrimSpace(payload.ResponseData.TranslatedText)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, target any) error {
	if c.baseURL == "" {
		return services.Wrap(services.ErrConfiguration, "translation", "apertium", "server url not configured", nil)
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("apertium request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "translation", "apertium", path, err)
		}
		return services.Wrap(services.ErrTransient, "translation", "apertium", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return services.Wrap(services.ErrTransient, "translation", "apertium", "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(services.ErrExternalTool, "translation", "apertium",
			fmt.Sprintf("%s: http %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return services.Wrap(services.ErrExternalTool, "translation", "apertium", "decode "+path, err)
	}
	return nil
}
