package ai

import (
	"context"
	"errors"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/virtudoc/virtudoc-engine/models"
)

// OpenAIGenerator calls the OpenAI chat completion API. API credentials and
// the model name are loaded from environment variables.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator constructs an OpenAI-backed generator. With no API key
// in the environment the generator reports itself unavailable and the chain
// moves on.
func NewOpenAIGenerator() *OpenAIGenerator {
	apiKey := os.Getenv("OPENAI_API_KEY")

	model := os.Getenv("OPENAI_MODEL_CHAT")
	if model == "" {
		// default to a modern small model; can be overridden via env
		model = "gpt-4o-mini"
	}

	g := &OpenAIGenerator{model: model}
	if apiKey != "" {
		g.client = openai.NewClient(apiKey)
	}
	return g
}

// Name identifies this capability in logs
func (g *OpenAIGenerator) Name() string { return "openai" }

// Available reports whether the client was configured
func (g *OpenAIGenerator) Available() bool { return g.client != nil }

// Generate sends the system preamble, the full turn history and the new
// input to the chat completion API and returns the assistant's reply.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if g.client == nil {
		return "", errors.New("openai client not initialized")
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: SystemPrompt,
	})
	for _, turn := range req.History {
		role := openai.ChatMessageRoleUser
		if turn.Speaker == models.SpeakerAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
	}

	text := req.Text
	if req.HasImages {
		text += "\n\n" + ImageNote
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    msgs,
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
