package hf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/paper-summarizer/internal/infra/inference"
)

func TestGenerateForwardsDecodingPolicy(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"summary_text":"A short summary."}]`))
	}))
	defer server.Close()

	client, err := NewClient("secret", server.URL, time.Second)
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), inference.Request{
		Model:  "facebook/bart-large-cnn",
		Prompt: "long article",
		Config: inference.GenerationConfig{
			MaxLength:         150,
			MinLength:         60,
			NumBeams:          8,
			LengthPenalty:     2.0,
			EarlyStopping:     true,
			NoRepeatNgramSize: 3,
			Temperature:       0.9,
			TopK:              50,
		},
	})
	require.NoError(t, err)
	require.Equal(t, "A short summary.", out.Text)

	require.Equal(t, "long article", got.Inputs)
	require.True(t, got.Options.WaitForModel)
	require.Equal(t, 150, got.Parameters.MaxLength)
	require.Equal(t, 60, got.Parameters.MinLength)
	require.Equal(t, 8, got.Parameters.NumBeams)
	require.Equal(t, 2.0, got.Parameters.LengthPenalty)
	require.True(t, got.Parameters.EarlyStopping)
	require.Equal(t, 3, got.Parameters.NoRepeatNgramSize)
	require.False(t, got.Parameters.DoSample)
	require.Zero(t, got.Parameters.Temperature, "sampling knobs are dropped for deterministic decoding")
	require.Zero(t, got.Parameters.TopK)
}

func TestGenerateSurfacesHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Model is loading"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewClient("", server.URL, time.Second)
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), inference.Request{Prompt: "x"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=503")
}

func TestDecodeOutput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "summarization list", body: `[{"summary_text":"sum"}]`, want: "sum"},
		{name: "generation list", body: `[{"generated_text":"gen"}]`, want: "gen"},
		{name: "single object", body: `{"generated_text":"one"}`, want: "one"},
		{name: "empty list", body: `[]`, wantErr: true},
		{name: "garbage", body: `not json`, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := decodeOutput([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDescribeReadsDevice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/info", r.URL.Path)
		_, _ = w.Write([]byte(`{"model_id":"facebook/bart-large-cnn","model_dtype":"torch.float16","model_device_type":"cuda"}`))
	}))
	defer server.Close()

	client, err := NewClient("", server.URL+"/", time.Second)
	require.NoError(t, err)

	info, err := client.Describe(context.Background(), "facebook/bart-large-cnn")
	require.NoError(t, err)
	require.Equal(t, "cuda", info.Device)
	require.Equal(t, "float16", info.DType)
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	_, err := NewClient("key", "  ", time.Second)
	require.EqualError(t, err, "hf endpoint cannot be empty")
}
