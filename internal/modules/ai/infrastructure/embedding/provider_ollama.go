package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	ollamaAPI "github.com/eino-contrib/ollama/api"
)

const (
	DefaultOllamaModel   = "nomic-embed-text"
	DefaultOllamaBaseURL = "http://localhost:11434"
)

type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OllamaEmbedder 调用 Ollama 的 /api/embed，一次请求批量向量化
type OllamaEmbedder struct {
	cli   *ollamaAPI.Client
	model string
}

func NewOllamaEmbedder(cfg OllamaConfig) (*OllamaEmbedder, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: invalid base url: %w", err)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultOllamaModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaEmbedder{
		cli:   ollamaAPI.NewClient(base, &http.Client{Timeout: timeout}),
		model: model,
	}, nil
}

func (e *OllamaEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	resp, err := e.cli.Embed(ctx, &ollamaAPI.EmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		var se ollamaAPI.StatusError
		if errors.As(err, &se) {
			return nil, fmt.Errorf("ollama embed: status %d: %s", se.StatusCode, se.ErrorMessage)
		}
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	out := make([][]float64, len(resp.Embeddings))
	for i, v := range resp.Embeddings {
		f := make([]float64, len(v))
		for j := range v {
			f[j] = float64(v[j])
		}
		out[i] = f
	}
	return out, nil
}

var _ embedding.Embedder = (*OllamaEmbedder)(nil)
