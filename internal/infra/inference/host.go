package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/yanqian/paper-summarizer/pkg/telemetry"
)

var tracer = telemetry.Tracer("inference")

// Device names.
const (
	DeviceAuto = "auto"
	DeviceCUDA = "cuda"
	DeviceCPU  = "cpu"
)

// HostConfig configures the model host.
type HostConfig struct {
	Model          string
	Variant        string
	Backend        string
	Device         string
	MaxInputTokens int
	MaxConcurrent  int64
	QueueTimeout   time.Duration
}

// Status is the read-only description of the loaded model.
type Status struct {
	Model   string `json:"model"`
	Variant string `json:"variant"`
	Backend string `json:"backend"`
	Device  string `json:"device"`
	DType   string `json:"dtype"`
}

// Host owns the inference capability for the whole process. It is fully
// initialized by NewHost and never mutated afterwards.
type Host struct {
	cfg       HostConfig
	backend   Backend
	tokenizer Tokenizer
	gate      *semaphore.Weighted
	status    Status
	logger    *slog.Logger
}

// NewHost selects the compute device once and prepares the inference gate.
func NewHost(ctx context.Context, cfg HostConfig, backend Backend, tokenizer Tokenizer, logger *slog.Logger) (*Host, error) {
	if backend == nil {
		return nil, errors.New("inference backend is required")
	}
	if tokenizer == nil {
		return nil, errors.New("tokenizer is required")
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.QueueTimeout <= 0 {
		cfg.QueueTimeout = time.Minute
	}
	h := &Host{
		cfg:       cfg,
		backend:   backend,
		tokenizer: tokenizer,
		gate:      semaphore.NewWeighted(cfg.MaxConcurrent),
		logger:    logger.With("component", "inference.host"),
	}

	device := strings.ToLower(strings.TrimSpace(cfg.Device))
	reported, reportedDType := "", ""
	if device == "" || device == DeviceAuto {
		info, err := backend.Describe(ctx, cfg.Model)
		if err != nil {
			h.logger.Warn("backend did not describe its device, assuming cpu", "error", err)
		}
		reported = strings.ToLower(info.Device)
		device = DeviceCPU
		if strings.Contains(reported, DeviceCUDA) || strings.Contains(reported, "gpu") {
			device = DeviceCUDA
		}
		reportedDType = strings.ToLower(strings.TrimSpace(info.DType))
	}
	dtype := reportedDType
	if dtype == "" {
		dtype = dtypeFor(device)
	}
	h.status = Status{
		Model:   cfg.Model,
		Variant: cfg.Variant,
		Backend: cfg.Backend,
		Device:  device,
		DType:   dtype,
	}
	h.logger.Info("model host ready",
		"model", cfg.Model,
		"variant", cfg.Variant,
		"device", h.status.Device,
		"dtype", h.status.DType,
		"reported_device", reported,
		"max_concurrent", cfg.MaxConcurrent,
	)
	return h, nil
}

func dtypeFor(device string) string {
	if device == DeviceCUDA {
		return "float16"
	}
	return "float32"
}

// Status reports the device selection made at startup.
func (h *Host) Status() Status {
	return h.status
}

// Generate truncates input so that the rendered prompt fits the token budget,
// then runs one backend call while holding the inference gate. The template
// itself is never cut.
func (h *Host) Generate(ctx context.Context, input string, tmpl Template, cfg GenerationConfig) (out Generation, err error) {
	ctx, span := tracer.Start(ctx, "inference.generate", trace.WithAttributes(
		attribute.String("model.name", h.cfg.Model),
		attribute.Int("generation.max_length", cfg.MaxLength),
		attribute.Int("generation.num_beams", cfg.NumBeams),
	))
	defer func() { telemetry.End(span, err) }()

	prompt, promptTokens := h.render(input, tmpl)
	span.SetAttributes(attribute.Int("prompt.tokens", promptTokens))

	waitCtx, cancel := context.WithTimeout(ctx, h.cfg.QueueTimeout)
	defer cancel()
	if err := h.gate.Acquire(waitCtx, 1); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Generation{}, ctxErr
		}
		return Generation{}, fmt.Errorf("wait %s: %w", h.cfg.QueueTimeout, ErrBusy)
	}
	defer h.gate.Release(1)

	start := time.Now()
	out, err = h.backend.Generate(ctx, Request{Model: h.cfg.Model, Prompt: prompt, Config: cfg})
	if err != nil {
		return Generation{}, err
	}
	if out.Usage.PromptTokens == 0 {
		out.Usage.PromptTokens = promptTokens
	}
	if out.Usage.TotalTokens == 0 {
		out.Usage.TotalTokens = out.Usage.PromptTokens + out.Usage.CompletionTokens
	}
	h.logger.Debug("generation finished",
		"prompt_tokens", out.Usage.PromptTokens,
		"completion_tokens", out.Usage.CompletionTokens,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (h *Host) render(input string, tmpl Template) (string, int) {
	if tmpl == nil {
		tmpl = func(text string) string { return text }
	}
	if limit := h.cfg.MaxInputTokens; limit > 0 {
		budget := max(limit-len(h.tokenizer.Encode(tmpl(""))), 1)
		ids := h.tokenizer.Encode(input)
		if len(ids) > budget {
			h.logger.Debug("input truncated", "tokens", len(ids), "budget", budget, "limit", limit)
			// A token boundary can split a multi-byte rune.
			input = strings.ToValidUTF8(h.tokenizer.Decode(ids[:budget]), "")
		}
	}
	prompt := tmpl(input)
	return prompt, len(h.tokenizer.Encode(prompt))
}
