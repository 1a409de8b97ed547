// Package gemini wraps the generateContent-style vision API used to read
// photographed equipment tags: one call extracts free text from an image,
// a second structures that text into inventory rows.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// DefaultEndpoint and DefaultModel are the public API base URL and model
// used when Options leaves them blank. The /v1beta path segment is part of
// the base URL; model paths are appended beneath it.
const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel    = "gemini-1.5-flash"
)

// APIError reports a non-success response from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini: API returned %d: %s", e.StatusCode, e.Body)
}

// Options configures the client.
type Options struct {
	Endpoint string        // base URL; default is the public API
	Model    string        // default gemini-1.5-flash
	Timeout  time.Duration // per-request transport timeout; default 60s
	// RequestsPerSecond throttles outgoing calls client-side.
	// Zero disables throttling.
	RequestsPerSecond float64
}

// Client calls the extraction and structuring endpoints. The API key is
// passed per call so the caller can rotate credentials between attempts.
type Client struct {
	endpoint string
	model    string
	client   *http.Client
	limiter  *rate.Limiter
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Client{
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		model:    opts.Model,
		client:   &http.Client{Timeout: opts.Timeout},
		limiter:  limiter,
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// ExtractText sends the image to the vision model and returns the raw text
// it reads, exactly as it appears on the tag.
func (c *Client) ExtractText(ctx context.Context, image []byte, apiKey string) (string, error) {
	req := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: extractPrompt},
				{InlineData: &inlineData{
					MimeType: "image/jpeg",
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		GenerationConfig: defaultGenerationConfig(),
	}

	text, err := c.generate(ctx, req, apiKey)
	if err != nil {
		return "", eris.Wrap(err, "gemini: extract text")
	}
	return text, nil
}

// Structure asks the model to reshape extracted free text into inventory
// rows. It returns the decoded rows as loosely-keyed maps; key spellings are
// resolved by the caller's alias tables. Zero rows is a valid result.
func (c *Client) Structure(ctx context.Context, text, apiKey string) ([]map[string]any, error) {
	req := generateRequest{
		Contents: []content{{
			Parts: []part{{Text: fmt.Sprintf(structurePrompt, text)}},
		}},
		GenerationConfig: defaultGenerationConfig(),
	}

	raw, err := c.generate(ctx, req, apiKey)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: structure text")
	}

	var rows []map[string]any
	if err := json.Unmarshal([]byte(stripFences(raw)), &rows); err != nil {
		return nil, eris.Wrap(err, "gemini: parse structured response")
	}
	return rows, nil
}

func defaultGenerationConfig() generationConfig {
	return generationConfig{
		Temperature:     0.1,
		TopK:            32,
		TopP:            1,
		MaxOutputTokens: 4096,
	}
}

func (c *Client) generate(ctx context.Context, reqBody generateRequest, apiKey string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "rate limit wait")
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", eris.Wrap(err, "marshal request")
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.endpoint, c.model, apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "API call")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", eris.Wrap(err, "unmarshal response")
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", eris.New("empty response: no candidates")
	}

	return gr.Candidates[0].Content.Parts[0].Text, nil
}

// stripFences removes a surrounding markdown code fence from a model reply.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
