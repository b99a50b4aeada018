package ai

import "context"

// TemplateResponder is the deterministic local responder at the end of the
// provider chain. It is always available, never errors, and always returns
// non-empty text, so a patient gets a reply no matter how many upstream
// backends are down.
type TemplateResponder struct{}

// NewTemplateResponder creates the canned-reply responder
func NewTemplateResponder() *TemplateResponder {
	return &TemplateResponder{}
}

// Name identifies this capability in logs
func (t *TemplateResponder) Name() string { return "template" }

// Available always reports true; this is the floor of the fallback chain
func (t *TemplateResponder) Available() bool { return true }

// Generate picks a canned reply. The choice is a pure function of the
// request: image submissions get the image acknowledgment, text-only turns
// rotate through the generic replies by conversation length.
func (t *TemplateResponder) Generate(_ context.Context, req Request) (string, error) {
	if req.HasImages {
		return fallbackImageReply, nil
	}
	return fallbackReplies[len(req.History)/2%len(fallbackReplies)], nil
}
