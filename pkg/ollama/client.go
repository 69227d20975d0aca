// Package ollama provides a local vision-model backend behind the same
// analysis interface as the hosted endpoint, for running the pipeline
// entirely offline.
package ollama

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/courtsight/volleycoach/pkg/client"
	"github.com/courtsight/volleycoach/pkg/errs"
)

// DefaultModel is used when none is configured.
const DefaultModel = "llama3.2-vision"

// Client wraps the Ollama API client.
type Client struct {
	client *api.Client
	model  string
}

// NewClient creates a client for the Ollama server at ollamaURL. Only
// scheme and host are used; any path (like /api/chat) is dropped.
func NewClient(ollamaURL, model string) (*Client, error) {
	parsed, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid server URL", err)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		client: api.NewClient(base, http.DefaultClient),
		model:  model,
	}, nil
}

// Analyze sends the image and instruction to the local model and
// returns its free-text reply. The generation options mirror the
// hosted endpoint's fixed policy.
func (c *Client) Analyze(ctx context.Context, mimeType, imageB64, instruction string) (string, error) {
	if instruction == "" {
		instruction = client.DefaultPrompt
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second) // CPU inference is slow
		defer cancel()
	}

	imgBytes, err := base64.StdEncoding.DecodeString(imageB64)
	if err != nil {
		return "", errs.Wrap(errs.KindEncoding, "invalid base64 image payload", err)
	}

	stream := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: instruction,
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream: &stream,
		Options: map[string]any{
			"temperature": 0.4,
			"top_k":       32,
			"top_p":       1.0,
			"num_predict": 2048,
		},
	}

	var reply string
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", errs.Wrap(errs.KindNetwork, "could not reach local model", err)
	}
	if reply == "" {
		return "", errs.New(errs.KindMalformedResponse, "empty response from local model")
	}
	return reply, nil
}
