package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// geminiProvider adapts Gemini's different conversation schema: no system
// role, alternating user/model turns, and a chat-session API that replays
// history separately from the live message.
type geminiProvider struct {
	client *genai.Client
	model  string
}

func newGeminiProvider(ctx context.Context, cfg ProviderConfig) (*geminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("llm: gemini init: %w", err)
	}
	return &geminiProvider{client: client, model: cfg.Model}, nil
}

// geminiTurn is one role-mapped entry of the converted conversation.
type geminiTurn struct {
	role string // "user" or "model"
	text string
}

// foldMessages converts the shared message schema into Gemini's: all
// system-role content is concatenated into one preamble, remaining turns
// are role-mapped (user→user, assistant→model), and a non-empty preamble
// is prepended to the first user turn's text. When no user/assistant turn
// exists the preamble itself becomes the only turn.
func foldMessages(messages []Message) []geminiTurn {
	var preamble strings.Builder
	var turns []geminiTurn

	for _, m := range messages {
		if m.Role == RoleSystem {
			preamble.WriteString(m.Content)
			preamble.WriteString("\n")
			continue
		}
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		turns = append(turns, geminiTurn{role: role, text: m.Content})
	}

	if pre := preamble.String(); pre != "" {
		if len(turns) > 0 && turns[0].role == "user" {
			turns[0].text = fmt.Sprintf("%s\n\nUser message:\n%s", pre, turns[0].text)
		} else if len(turns) == 0 {
			turns = []geminiTurn{{role: "user", text: pre}}
		}
	}
	return turns
}

func (p *geminiProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	turns := foldMessages(messages)
	if len(turns) == 0 {
		return "", &TransientError{Err: fmt.Errorf("no content to send")}
	}

	model := p.client.GenerativeModel(p.model)
	model.SetTemperature(generationTemperature)
	model.SetTopP(1)
	model.SetTopK(1)
	model.SetMaxOutputTokens(geminiMaxTokens)

	// Everything up to the penultimate turn replays as session state; the
	// final turn is the live call.
	session := model.StartChat()
	for _, turn := range turns[:len(turns)-1] {
		session.History = append(session.History, &genai.Content{
			Role:  turn.role,
			Parts: []genai.Part{genai.Text(turn.text)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(turns[len(turns)-1].text))
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := responseText(resp)
	if text == "" {
		// An empty body counts as a failed call, not an empty answer.
		return "", &TransientError{Err: fmt.Errorf("empty response from Gemini API")}
	}
	return text, nil
}

// responseText flattens the first candidate's text parts.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

// classifyGeminiError prefers the structured googleapi status code, then
// falls back to pattern-matching the status embedded in the error text,
// since the SDK stringifies some failures before they reach us.
func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return classifyHTTPStatus(apiErr.Code, fmt.Errorf("gemini request: %w", err))
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "429"):
		return &PermanentError{Reason: ReasonRateLimit, Err: fmt.Errorf("gemini request: %w", err)}
	case strings.Contains(msg, "403"):
		return &PermanentError{Reason: ReasonPermission, Err: fmt.Errorf("gemini request: %w", err)}
	default:
		return &TransientError{Err: fmt.Errorf("gemini request: %w", err)}
	}
}
