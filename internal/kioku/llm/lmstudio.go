package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// lmStudioProvider talks to a local OpenAI-compatible chat-completions
// endpoint (LM Studio, Ollama's compatibility server, llama.cpp). No
// credential is involved; the endpoint lives on a trusted network.
type lmStudioProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

func newLMStudioProvider(cfg ProviderConfig) *lmStudioProvider {
	return &lmStudioProvider{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		// Per-attempt deadlines come from ctx; no client-level timeout on
		// top of it.
		client: &http.Client{},
	}
}

// --- minimal chat-completions wire types ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (p *lmStudioProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	wire := make([]chatMessage, len(messages))
	for i, m := range messages {
		wire[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	body, err := json.Marshal(chatRequest{
		Model:       p.model,
		Messages:    wire,
		Temperature: generationTemperature,
		MaxTokens:   lmStudioMaxTokens,
	})
	if err != nil {
		return "", &TransientError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &TransientError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		// Connection refused, DNS failure, ctx deadline: all retryable.
		return "", &TransientError{Err: fmt.Errorf("lmstudio request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransientError{Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode >= 400 {
		return "", classifyHTTPStatus(resp.StatusCode,
			fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &TransientError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if parsed.Error != nil {
		return "", &TransientError{Err: fmt.Errorf("lmstudio error: %s", parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 {
		return "", &TransientError{Err: fmt.Errorf("lmstudio returned no choices")}
	}
	return parsed.Choices[0].Message.Content, nil
}

// classifyHTTPStatus maps a failing HTTP status to the error taxonomy:
// permanent for credential/quota statuses, transient for everything else
// (5xx and any 4xx that only retrying or a fixed request can resolve).
func classifyHTTPStatus(status int, cause error) error {
	switch status {
	case http.StatusUnauthorized:
		return &PermanentError{Reason: ReasonAuth, Err: cause}
	case http.StatusForbidden:
		return &PermanentError{Reason: ReasonPermission, Err: cause}
	case http.StatusTooManyRequests:
		return &PermanentError{Reason: ReasonRateLimit, Err: cause}
	default:
		return &TransientError{Err: cause}
	}
}
