package ai

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/virtudoc/virtudoc-engine/models"
)

// GeminiGenerator calls the Google Gemini API and sits first in the provider
// chain when configured.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator constructs a Gemini-backed generator from the
// GEMINI_API_KEY environment variable. A missing key or a client
// construction failure leaves the generator unavailable rather than failing
// startup.
func NewGeminiGenerator(ctx context.Context) *GeminiGenerator {
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.0-flash"
	}

	g := &GeminiGenerator{model: model}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return g
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		zap.S().Warnw("failed to create gemini client, provider disabled", "error", err)
		return g
	}
	g.client = client
	return g
}

// Name identifies this capability in logs
func (g *GeminiGenerator) Name() string { return "gemini" }

// Available reports whether the client was configured
func (g *GeminiGenerator) Available() bool { return g.client != nil }

// Generate sends the turn history and the new input to Gemini with the fixed
// system preamble and returns the reply text.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if g.client == nil {
		return "", errors.New("gemini client not initialized")
	}

	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := genai.Role(genai.RoleUser)
		if turn.Speaker == models.SpeakerAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}

	text := req.Text
	if req.HasImages {
		text += "\n\n" + ImageNote
	}
	contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.7),
		MaxOutputTokens:   1000,
	})
	if err != nil {
		return "", err
	}
	text = result.Text()
	if text == "" {
		return "", errors.New("gemini returned empty response")
	}
	return text, nil
}
