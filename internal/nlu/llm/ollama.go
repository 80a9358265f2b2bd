package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	apphttp "assistant-nlu/internal/common/http"
)

type OllamaBackend struct {
	baseURL string
	model   string
	client  *apphttp.Client
}

func NewOllamaBackend(baseURL, model string, timeout time.Duration) *OllamaBackend {
	return &OllamaBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  apphttp.NewClient(timeout),
	}
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func (b *OllamaBackend) Name() string { return "ollama" }

func (b *OllamaBackend) GenerateText(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	req := ollamaRequest{
		Model:  b.model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: temperature,
			NumPredict:  maxTokens,
		},
	}

	var resp ollamaResponse
	if err := b.client.PostJSON(ctx, b.baseURL+"/api/generate", nil, req, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}
	return strings.TrimSpace(resp.Response), nil
}
