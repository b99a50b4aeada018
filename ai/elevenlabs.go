package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io/v1"

// MediaStore persists generated media and returns a durable reference for it
type MediaStore interface {
	Save(ctx context.Context, name string, data io.Reader) (string, error)
}

// ElevenLabsSynthesizer renders reply text to speech through the ElevenLabs
// API and stores the resulting audio in a MediaStore.
type ElevenLabsSynthesizer struct {
	apiKey  string
	voiceID string
	modelID string
	baseURL string
	client  *http.Client
	store   MediaStore
}

type elevenLabsRequest struct {
	Text          string             `json:"text"`
	ModelID       string             `json:"model_id"`
	VoiceSettings elevenLabsSettings `json:"voice_settings"`
}

type elevenLabsSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// NewElevenLabsSynthesizer builds the speech capability from environment
// configuration. Without an API key it reports unavailable and enrichment is
// skipped.
func NewElevenLabsSynthesizer(store MediaStore) *ElevenLabsSynthesizer {
	voiceID := os.Getenv("ELEVENLABS_VOICE_ID")
	if voiceID == "" {
		voiceID = "21m00Tcm4TlvDq8ikWAM" // Rachel
	}
	modelID := os.Getenv("ELEVENLABS_MODEL_ID")
	if modelID == "" {
		modelID = "eleven_monolingual_v1"
	}
	return &ElevenLabsSynthesizer{
		apiKey:  os.Getenv("ELEVENLABS_API_KEY"),
		voiceID: voiceID,
		modelID: modelID,
		baseURL: elevenLabsBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		store:   store,
	}
}

// Name identifies this capability in logs
func (s *ElevenLabsSynthesizer) Name() string { return "elevenlabs" }

// Available reports whether an API key and media store are configured
func (s *ElevenLabsSynthesizer) Available() bool {
	return s.apiKey != "" && s.store != nil
}

// Synthesize renders text to speech and returns the stored audio reference
func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(elevenLabsRequest{
		Text:    text,
		ModelID: s.modelID,
		VoiceSettings: elevenLabsSettings{
			Stability:       0.5,
			SimilarityBoost: 0.5,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal speech request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", s.baseURL, s.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create speech request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("elevenlabs returned status %d", resp.StatusCode)
	}

	name := fmt.Sprintf("replies/%s.mp3", uuid.New().String())
	ref, err := s.store.Save(ctx, name, resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to store audio: %w", err)
	}
	return ref, nil
}
