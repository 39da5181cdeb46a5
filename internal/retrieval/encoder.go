package retrieval

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Encoder turns query text into a fixed-dimension vector. The encoder's
// model and dimensionality must match whatever built the knowledge index.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// EncoderFactory materializes an encoder on demand. The retrieval service
// calls it lazily on first use and drops the result on idle unload.
type EncoderFactory func() (Encoder, error)

type embeddingClient interface {
	CreateEmbeddings(ctx context.Context, request openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIEncoder encodes text through an OpenAI-compatible embeddings
// endpoint (base URL configurable, e.g. a local sentence-transformer server).
type OpenAIEncoder struct {
	client embeddingClient
	model  string
}

// OpenAIEncoderConfig configures the embeddings endpoint.
type OpenAIEncoderConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// NewOpenAIEncoder builds an encoder client for the configured endpoint.
func NewOpenAIEncoder(cfg OpenAIEncoderConfig) (*OpenAIEncoder, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("retrieval: embedding base URL required")
	}
	if cfg.Model == "" {
		return nil, errors.New("retrieval: embedding model required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	return &OpenAIEncoder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// Encode embeds a single text.
func (e *OpenAIEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, &openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieval: embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("retrieval: embedding response was empty")
	}
	return resp.Data[0].Embedding, nil
}
