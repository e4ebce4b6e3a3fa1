package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// openAIProvider wraps the vendor SDK for hosted OpenAI (or any compatible
// service reachable through a base-URL override, e.g. Azure OpenAI).
type openAIProvider struct {
	client *openai.Client
	model  string
}

func newOpenAIProvider(cfg ProviderConfig) *openAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &openAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

func (p *openAIProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	wire := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		wire[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    wire,
		Temperature: generationTemperature,
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &TransientError{Err: fmt.Errorf("openai returned no choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyOpenAIError sorts SDK errors into the taxonomy using the HTTP
// status embedded in APIError. Anything without a status (network trouble,
// a ctx deadline) is transient.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 400 {
		return classifyHTTPStatus(apiErr.HTTPStatusCode, fmt.Errorf("openai request: %w", err))
	}
	return &TransientError{Err: fmt.Errorf("openai request: %w", err)}
}
