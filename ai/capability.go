package ai

import (
	"context"

	"github.com/virtudoc/virtudoc-engine/models"
)

// Request is one user turn handed to the orchestrator
type Request struct {
	History   []models.ChatTurn
	Text      string
	HasImages bool
}

// Reply is the finalized text/urgency result. Enrichment references arrive
// separately and later, if at all.
type Reply struct {
	Text     string
	Urgency  models.Urgency
	Entities []models.MedicalEntity
	Provider string
}

// Enrichment carries a best-effort audio or video rendering reference
type Enrichment struct {
	AudioRef string
	VideoRef string
}

// Capability is the common surface of every upstream service the
// orchestrator can call: present or not, reachable or not. The orchestrator
// treats all of them as independently failable.
type Capability interface {
	Name() string
	Available() bool
}

// TextGenerator produces the assistant reply for a user turn
type TextGenerator interface {
	Capability
	Generate(ctx context.Context, req Request) (string, error)
}

// SpeechSynthesizer renders reply text to audio and returns a reference
type SpeechSynthesizer interface {
	Capability
	Synthesize(ctx context.Context, text string) (string, error)
}

// VideoGenerator renders reply text to an avatar video and returns a reference
type VideoGenerator interface {
	Capability
	Render(ctx context.Context, script string) (string, error)
}
