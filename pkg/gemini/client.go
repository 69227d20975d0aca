// Package gemini implements the hosted multimodal endpoint client.
// HTTP status codes are mapped onto the shared error taxonomy so
// callers can react without parsing prose.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/courtsight/volleycoach/pkg/client"
	"github.com/courtsight/volleycoach/pkg/errs"
)

// DefaultBaseURL is the model-inference API root.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// DefaultModel is used when none is configured.
const DefaultModel = "gemini-1.5-flash"

// Generation policy constants; fixed rather than user-configurable so
// responses stay bounded and roughly deterministic.
const (
	genTemperature     = 0.4
	genTopK            = 32
	genTopP            = 1.0
	genMaxOutputTokens = 2048
)

// Client calls the generateContent endpoint of a single model. The API
// key is injected here and nowhere else.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a client for the given API key. Empty baseURL and
// model fall back to the defaults.
func NewClient(apiKey, baseURL, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errs.New(errs.KindInvalidCredential, "API key is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

// Request/response wire shapes for generateContent.

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
	MIMEType string `json:"mime_type"`
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

type errorResponse struct {
	Error struct {
		Message string          `json:"message"`
		Code    json.RawMessage `json:"code"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

// Analyze sends the base64 image payload with an instruction and
// returns the first candidate's first text part.
func (c *Client) Analyze(ctx context.Context, mimeType, imageB64, instruction string) (string, error) {
	if instruction == "" {
		instruction = client.DefaultPrompt
	}

	reqBody := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: instruction},
				{InlineData: &inlineData{MIMEType: mimeType, Data: imageB64}},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:     genTemperature,
			TopK:            genTopK,
			TopP:            genTopP,
			MaxOutputTokens: genMaxOutputTokens,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", errs.Wrap(errs.KindUnknown, "failed to build request", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, c.model, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", errs.Wrap(errs.KindUnknown, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.KindNetwork, "could not reach analysis service", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.Wrap(errs.KindNetwork, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classifyStatus(resp.StatusCode, body)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errs.Wrap(errs.KindMalformedResponse, "unexpected response from analysis service", err)
	}
	if len(parsed.Candidates) == 0 ||
		len(parsed.Candidates[0].Content.Parts) == 0 ||
		parsed.Candidates[0].Content.Parts[0].Text == "" {
		return "", errs.New(errs.KindMalformedResponse, "unexpected response from analysis service")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// classifyStatus maps a non-2xx status onto the error taxonomy,
// carrying through the service's own message when it parses.
func classifyStatus(status int, body []byte) error {
	var svc errorResponse
	_ = json.Unmarshal(body, &svc)

	var e *errs.Error
	switch status {
	case http.StatusBadRequest:
		e = errs.New(errs.KindInvalidRequest, "the service rejected the request: check the image and its format")
	case http.StatusUnauthorized:
		e = errs.New(errs.KindInvalidCredential, "the API key was rejected: check your credentials")
	case http.StatusForbidden:
		e = errs.New(errs.KindForbidden, "access denied: check the key's permissions")
	case http.StatusTooManyRequests:
		e = errs.New(errs.KindRateLimited, "rate limit exceeded: wait a moment and resubmit")
	default:
		msg := svc.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("analysis service returned status %d", status)
		}
		e = errs.New(errs.KindServerError, msg)
	}
	return e.WithCode(rawToString(svc.Error.Code), rawToString(svc.Error.Details))
}

func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
