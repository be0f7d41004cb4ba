package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/kritsada/procure-agent/agent/contract"
)

const defaultEmbeddingModel = "text-embedding-3-small"

type EmbedderConfig struct {
	Model string `envconfig:"MODEL" split_words:"true" default:"text-embedding-3-small"`
}

// OpenAIEmbedder computes embeddings through the OpenAI-compatible endpoint
// of the configured client.
type OpenAIEmbedder struct {
	client *openaisdk.Client
	model  string
}

var _ contractx.Embedder = (*OpenAIEmbedder)(nil)

func NewOpenAIEmbedder(client *openaisdk.Client, cfg EmbedderConfig) (*OpenAIEmbedder, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultEmbeddingModel
	}
	return &OpenAIEmbedder{
		client: client,
		model:  model,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is empty", contractx.ErrValidation)
	}

	resp, err := e.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(e.model),
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfString: openaisdk.String(text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embeddings response is empty")
	}

	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}
