package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/yanqian/paper-summarizer/internal/infra/inference"
	"github.com/yanqian/paper-summarizer/pkg/metrics"
)

// Client runs raw-prompt completions against an OpenAI compatible server
// such as vLLM or text-generation-inference.
type Client struct {
	client openai.Client
}

// NewClient builds a completions client for baseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("openai base url cannot be empty")
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if key := strings.TrimSpace(apiKey); key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}
	return &Client{client: openai.NewClient(opts...)}, nil
}

// Describe confirms the model is served. Compatible servers do not expose
// the device, so the returned info is empty.
func (c *Client) Describe(ctx context.Context, model string) (inference.DeviceInfo, error) {
	if _, err := c.client.Models.Get(ctx, model); err != nil {
		return inference.DeviceInfo{}, fmt.Errorf("get model %s: %w", model, err)
	}
	return inference.DeviceInfo{}, nil
}

// Generate sends the prompt as a single completion. Beam search settings are
// not part of the completions API and are ignored.
func (c *Client) Generate(ctx context.Context, req inference.Request) (inference.Generation, error) {
	params := openai.CompletionNewParams{
		Model: openai.CompletionNewParamsModel(req.Model),
		Prompt: openai.CompletionNewParamsPromptUnion{
			OfString: openai.String(req.Prompt),
		},
		N: openai.Int(1),
	}
	cfg := req.Config
	if cfg.MaxLength > 0 {
		params.MaxTokens = openai.Int(int64(cfg.MaxLength))
	}
	if cfg.DoSample {
		params.Temperature = openai.Float(cfg.Temperature)
		params.TopP = openai.Float(cfg.TopP)
	} else {
		params.Temperature = openai.Float(0)
	}

	resp, err := c.client.Completions.New(ctx, params, extraOptions(cfg)...)
	if err != nil {
		return inference.Generation{}, fmt.Errorf("create completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return inference.Generation{}, errors.New("openai returned no choices")
	}

	return inference.Generation{
		Text: resp.Choices[0].Text,
		Usage: metrics.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// extraOptions carries sampling knobs that compatible servers accept outside
// the official schema.
func extraOptions(cfg inference.GenerationConfig) []option.RequestOption {
	var opts []option.RequestOption
	if cfg.MinLength > 0 {
		opts = append(opts, option.WithJSONSet("min_tokens", cfg.MinLength))
	}
	if cfg.DoSample && cfg.TopK > 0 {
		opts = append(opts, option.WithJSONSet("top_k", cfg.TopK))
	}
	if cfg.RepetitionPenalty > 0 {
		opts = append(opts, option.WithJSONSet("repetition_penalty", cfg.RepetitionPenalty))
	}
	return opts
}

var _ inference.Backend = (*Client)(nil)
