package embedding

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"VectorOps/internal/config"

	arkEmbed "github.com/cloudwego/eino-ext/components/embedding/ark"
	dashscopeEmbed "github.com/cloudwego/eino-ext/components/embedding/dashscope"
	openaIEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"
)

const defaultDim = 256

type EmbedderMeta struct {
	Provider string
	Model    string
	Dim      int
}

// NewEmbedderFromConfig 按 aiConfig.embedding.provider 构造 Embedder；
// 所有集合共用同一个 Embedder，进程内不会更换
func NewEmbedderFromConfig(ctx context.Context, conf *config.Config) (embedding.Embedder, EmbedderMeta, error) {
	if conf == nil {
		return nil, EmbedderMeta{}, fmt.Errorf("nil config")
	}

	ec := conf.AIConfig.Embedding
	dim := ec.Dimensions
	if dim <= 0 {
		dim = defaultDim
	}
	provider := strings.ToLower(strings.TrimSpace(ec.Provider))
	model := strings.TrimSpace(ec.Model)

	timeout := 30 * time.Second
	if ec.TimeoutSeconds > 0 {
		timeout = time.Duration(ec.TimeoutSeconds) * time.Second
	}

	switch provider {
	case "", "hash", "mock":
		return NewHashEmbedder(dim), EmbedderMeta{Provider: "hash", Model: "feature-hash", Dim: dim}, nil

	case "ollama":
		em, err := NewOllamaEmbedder(OllamaConfig{
			BaseURL: firstNonEmpty(ec.BaseURL, os.Getenv("OLLAMA_BASE_URL")),
			Model:   model,
			Timeout: timeout,
		})
		if err != nil {
			return nil, EmbedderMeta{}, err
		}
		return em, EmbedderMeta{Provider: "ollama", Model: em.model, Dim: dim}, nil

	case "openai":
		apiKey := firstNonEmpty(ec.APIKey, os.Getenv("OPENAI_API_KEY"))
		model = firstNonEmpty(model, os.Getenv("OPENAI_EMBED_MODEL"))
		baseURL := firstNonEmpty(ec.BaseURL, os.Getenv("OPENAI_BASE_URL"))
		if apiKey == "" || model == "" {
			return nil, EmbedderMeta{}, fmt.Errorf("openai embedding missing apiKey/model")
		}

		localDim := dim
		cfg := &openaIEmbed.EmbeddingConfig{
			APIKey:     apiKey,
			Model:      model,
			BaseURL:    baseURL,
			Timeout:    timeout,
			ByAzure:    ec.ByAzure,
			APIVersion: strings.TrimSpace(ec.AzureAPIVersion),
			Dimensions: &localDim,
		}
		em, err := openaIEmbed.NewEmbedder(ctx, cfg)
		if err != nil {
			return nil, EmbedderMeta{}, err
		}
		return em, EmbedderMeta{Provider: "openai", Model: model, Dim: dim}, nil

	case "ark":
		apiKey := firstNonEmpty(ec.APIKey, os.Getenv("ARK_API_KEY"))
		model = firstNonEmpty(model, os.Getenv("ARK_EMBED_MODEL"))
		baseURL := firstNonEmpty(ec.BaseURL, os.Getenv("ARK_BASE_URL"))
		if apiKey == "" || model == "" {
			return nil, EmbedderMeta{}, fmt.Errorf("ark embedding missing apiKey/model")
		}

		em, err := arkEmbed.NewEmbedder(ctx, &arkEmbed.EmbeddingConfig{
			APIKey:  apiKey,
			Model:   model,
			BaseURL: baseURL,
		})
		if err != nil {
			return nil, EmbedderMeta{}, err
		}
		return em, EmbedderMeta{Provider: "ark", Model: model, Dim: dim}, nil

	case "dashscope":
		apiKey := firstNonEmpty(ec.APIKey, os.Getenv("DASHSCOPE_API_KEY"))
		model = firstNonEmpty(model, os.Getenv("DASHSCOPE_EMBED_MODEL"))
		if apiKey == "" || model == "" {
			return nil, EmbedderMeta{}, fmt.Errorf("dashscope embedding missing apiKey/model")
		}

		localDim := dim
		de, err := dashscopeEmbed.NewEmbedder(ctx, &dashscopeEmbed.EmbeddingConfig{
			Model:      model,
			APIKey:     apiKey,
			Dimensions: &localDim,
		})
		if err != nil {
			return nil, EmbedderMeta{}, err
		}
		return de, EmbedderMeta{Provider: "dashscope", Model: model, Dim: dim}, nil

	default:
		return nil, EmbedderMeta{}, fmt.Errorf("unknown embedding provider: %s", provider)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// ToFloat32 eino 返回 float64，向量库统一使用 float32
func ToFloat32(vecs [][]float64) [][]float32 {
	out := make([][]float32, len(vecs))
	for i, v := range vecs {
		f := make([]float32, len(v))
		for j := range v {
			f[j] = float32(v[j])
		}
		out[i] = f
	}
	return out
}
