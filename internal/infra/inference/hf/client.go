package hf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/paper-summarizer/internal/infra/inference"
)

// generateRequest mirrors the Hugging Face inference payload.
type generateRequest struct {
	Inputs     string     `json:"inputs"`
	Parameters parameters `json:"parameters"`
	Options    options    `json:"options"`
}

// parameters are forwarded to the model's generate call.
type parameters struct {
	MaxLength         int     `json:"max_length,omitempty"`
	MinLength         int     `json:"min_length,omitempty"`
	NumBeams          int     `json:"num_beams,omitempty"`
	LengthPenalty     float64 `json:"length_penalty,omitempty"`
	EarlyStopping     bool    `json:"early_stopping,omitempty"`
	NoRepeatNgramSize int     `json:"no_repeat_ngram_size,omitempty"`
	DoSample          bool    `json:"do_sample"`
	Temperature       float64 `json:"temperature,omitempty"`
	TopK              int     `json:"top_k,omitempty"`
	TopP              float64 `json:"top_p,omitempty"`
	RepetitionPenalty float64 `json:"repetition_penalty,omitempty"`
}

type options struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

// output covers both the summarization and text generation task shapes.
type output struct {
	SummaryText   string `json:"summary_text"`
	GeneratedText string `json:"generated_text"`
}

type infoResponse struct {
	ModelID         string `json:"model_id"`
	ModelDType      string `json:"model_dtype"`
	ModelDeviceType string `json:"model_device_type"`
}

// Client performs HTTP requests to a Hugging Face inference endpoint.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewClient constructs a client for the model served at endpoint.
func NewClient(apiKey, endpoint string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("hf endpoint cannot be empty")
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		apiKey:   strings.TrimSpace(apiKey),
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Describe reads the device the endpoint loaded the model on.
func (c *Client) Describe(ctx context.Context, _ string) (inference.DeviceInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/info", nil)
	if err != nil {
		return inference.DeviceInfo{}, fmt.Errorf("build info request: %w", err)
	}
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return inference.DeviceInfo{}, fmt.Errorf("request info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return inference.DeviceInfo{}, fmt.Errorf("hf info failed: status=%d", resp.StatusCode)
	}

	var info infoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return inference.DeviceInfo{}, fmt.Errorf("decode info: %w", err)
	}
	return inference.DeviceInfo{
		Device: info.ModelDeviceType,
		DType:  strings.TrimPrefix(info.ModelDType, "torch."),
	}, nil
}

// Generate runs one generate call on the endpoint.
func (c *Client) Generate(ctx context.Context, req inference.Request) (inference.Generation, error) {
	payload := generateRequest{
		Inputs:     req.Prompt,
		Parameters: toParameters(req.Config),
		Options:    options{WaitForModel: true},
	}
	body, err := c.doRequest(ctx, payload)
	if err != nil {
		return inference.Generation{}, err
	}
	text, err := decodeOutput(body)
	if err != nil {
		return inference.Generation{}, err
	}
	return inference.Generation{Text: text}, nil
}

func toParameters(cfg inference.GenerationConfig) parameters {
	p := parameters{
		MaxLength:         cfg.MaxLength,
		MinLength:         cfg.MinLength,
		NumBeams:          cfg.NumBeams,
		LengthPenalty:     cfg.LengthPenalty,
		EarlyStopping:     cfg.EarlyStopping,
		NoRepeatNgramSize: cfg.NoRepeatNgramSize,
		DoSample:          cfg.DoSample,
		RepetitionPenalty: cfg.RepetitionPenalty,
	}
	if cfg.DoSample {
		p.Temperature = cfg.Temperature
		p.TopK = cfg.TopK
		p.TopP = cfg.TopP
	}
	return p
}

func decodeOutput(body []byte) (string, error) {
	var list []output
	if err := json.Unmarshal(body, &list); err != nil {
		var single output
		if singleErr := json.Unmarshal(body, &single); singleErr != nil {
			return "", fmt.Errorf("decode generation: %w", err)
		}
		list = []output{single}
	}
	if len(list) == 0 {
		return "", errors.New("hf returned no generations")
	}
	if list[0].SummaryText != "" {
		return list[0].SummaryText, nil
	}
	return list[0].GeneratedText, nil
}

func (c *Client) doRequest(ctx context.Context, payload generateRequest) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode generate request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	c.authorize(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("hf request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

var _ inference.Backend = (*Client)(nil)
