package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"VectorOps/internal/config"

	arkModel "github.com/cloudwego/eino-ext/components/model/ark"
	ollamaModel "github.com/cloudwego/eino-ext/components/model/ollama"
	openaiModel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// ErrNotConfigured 没有配置聊天模型，调用方应降级处理
var ErrNotConfigured = errors.New("chat model provider not configured")

type ChatModelMeta struct {
	Provider string
	Model    string
}

const defaultOllamaBaseURL = "http://localhost:11434"

func NewChatModelFromConfig(ctx context.Context, conf *config.Config) (model.BaseChatModel, ChatModelMeta, error) {
	if conf == nil {
		return nil, ChatModelMeta{}, fmt.Errorf("nil config")
	}

	c := conf.AIConfig.ChatModel
	provider := strings.ToLower(strings.TrimSpace(c.Provider))
	modelName := strings.TrimSpace(c.Model)

	timeout := 2 * time.Minute
	if c.TimeoutSeconds > 0 {
		timeout = time.Duration(c.TimeoutSeconds) * time.Second
	}
	var temperature *float32
	if c.Temperature > 0 {
		t := c.Temperature
		temperature = &t
	}

	switch provider {
	case "", "disabled", "none":
		return nil, ChatModelMeta{}, ErrNotConfigured

	case "openai":
		apiKey := firstNonEmpty(c.APIKey, os.Getenv("OPENAI_API_KEY"))
		modelName = firstNonEmpty(modelName, os.Getenv("OPENAI_MODEL"))
		baseURL := firstNonEmpty(c.BaseURL, os.Getenv("OPENAI_BASE_URL"))
		if apiKey == "" || modelName == "" {
			return nil, ChatModelMeta{}, fmt.Errorf("openai chat model missing apiKey/model")
		}

		cm, err := openaiModel.NewChatModel(ctx, &openaiModel.ChatModelConfig{
			APIKey:      apiKey,
			Model:       modelName,
			BaseURL:     baseURL,
			ByAzure:     c.ByAzure,
			APIVersion:  strings.TrimSpace(c.AzureAPIVersion),
			Timeout:     timeout,
			Temperature: temperature,
		})
		if err != nil {
			return nil, ChatModelMeta{}, err
		}
		return cm, ChatModelMeta{Provider: "openai", Model: modelName}, nil

	case "ollama":
		modelName = firstNonEmpty(modelName, os.Getenv("OLLAMA_MODEL"), "llama3.2")
		baseURL := firstNonEmpty(c.BaseURL, os.Getenv("OLLAMA_BASE_URL"), defaultOllamaBaseURL)
		var opts *ollamaModel.Options
		if temperature != nil {
			opts = &ollamaModel.Options{Temperature: *temperature}
		}
		cm, err := ollamaModel.NewChatModel(ctx, &ollamaModel.ChatModelConfig{
			BaseURL: baseURL,
			Model:   modelName,
			Timeout: timeout,
			Options: opts,
		})
		if err != nil {
			return nil, ChatModelMeta{}, err
		}
		return cm, ChatModelMeta{Provider: "ollama", Model: modelName}, nil

	case "ark":
		apiKey := firstNonEmpty(c.APIKey, os.Getenv("ARK_API_KEY"))
		accessKey := firstNonEmpty(c.AccessKey, os.Getenv("ARK_ACCESS_KEY"))
		secretKey := firstNonEmpty(c.SecretKey, os.Getenv("ARK_SECRET_KEY"))
		modelName = firstNonEmpty(modelName, os.Getenv("ARK_MODEL_ID"))
		baseURL := firstNonEmpty(c.BaseURL, os.Getenv("ARK_BASE_URL"))
		region := firstNonEmpty(c.Region, os.Getenv("ARK_REGION"))

		if apiKey == "" && (accessKey == "" || secretKey == "") {
			return nil, ChatModelMeta{}, fmt.Errorf("ark chat model missing apiKey or accessKey/secretKey")
		}
		if modelName == "" {
			return nil, ChatModelMeta{}, fmt.Errorf("ark chat model missing model")
		}

		retryTimes := 2
		if c.RetryTimes > 0 {
			retryTimes = c.RetryTimes
		}

		cm, err := arkModel.NewChatModel(ctx, &arkModel.ChatModelConfig{
			APIKey:      apiKey,
			AccessKey:   accessKey,
			SecretKey:   secretKey,
			Model:       modelName,
			BaseURL:     baseURL,
			Region:      region,
			Timeout:     &timeout,
			RetryTimes:  &retryTimes,
			Temperature: temperature,
		})
		if err != nil {
			return nil, ChatModelMeta{}, err
		}
		return cm, ChatModelMeta{Provider: "ark", Model: modelName}, nil

	default:
		return nil, ChatModelMeta{}, fmt.Errorf("unknown chat model provider: %s", provider)
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
