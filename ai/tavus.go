package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const tavusBaseURL = "https://tavusapi.com/v2"

// TavusVideoGenerator requests an avatar video rendering of the reply from
// the Tavus API. Generation is asynchronous on their side; the returned
// reference is the Tavus video id.
type TavusVideoGenerator struct {
	apiKey   string
	avatarID string
	baseURL  string
	client   *http.Client
}

type tavusVideoRequest struct {
	Script    string `json:"script"`
	ReplicaID string `json:"replica_id"`
}

type tavusVideoResponse struct {
	VideoID string `json:"video_id"`
}

// NewTavusVideoGenerator builds the video capability from environment
// configuration
func NewTavusVideoGenerator() *TavusVideoGenerator {
	return &TavusVideoGenerator{
		apiKey:   os.Getenv("TAVUS_API_KEY"),
		avatarID: os.Getenv("TAVUS_AVATAR_ID"),
		baseURL:  tavusBaseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Name identifies this capability in logs
func (g *TavusVideoGenerator) Name() string { return "tavus" }

// Available reports whether an API key and avatar are configured
func (g *TavusVideoGenerator) Available() bool {
	return g.apiKey != "" && g.avatarID != ""
}

// Render submits the script for avatar rendering and returns the video id
func (g *TavusVideoGenerator) Render(ctx context.Context, script string) (string, error) {
	body, err := json.Marshal(tavusVideoRequest{
		Script:    script,
		ReplicaID: g.avatarID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal video request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/videos", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create video request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("video request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tavus returned status %d", resp.StatusCode)
	}

	var out tavusVideoResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode video response: %w", err)
	}
	if out.VideoID == "" {
		return "", fmt.Errorf("tavus returned no video id")
	}
	return out.VideoID, nil
}
