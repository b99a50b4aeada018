package ai

import (
	"context"

	"go.uber.org/zap"
)

// Orchestrator turns one user turn into one assistant turn plus an urgency
// classification. Generation walks the provider chain and ends at the
// template responder, so it cannot fail; audio/video enrichment runs
// afterwards, independently, and a failure there never touches the finalized
// text/urgency result.
type Orchestrator struct {
	providers []TextGenerator
	fallback  *TemplateResponder
	speech    SpeechSynthesizer
	video     VideoGenerator

	onEnrichFailure func(kind string)
}

// NewOrchestrator assembles the chain. Providers are tried in the given
// order; speech and video may be nil when the platform runs without
// enrichment.
func NewOrchestrator(providers []TextGenerator, speech SpeechSynthesizer, video VideoGenerator) *Orchestrator {
	return &Orchestrator{
		providers: providers,
		fallback:  NewTemplateResponder(),
		speech:    speech,
		video:     video,
	}
}

// OnEnrichmentFailure registers a hook called with "audio" or "video" each
// time an enrichment attempt fails. Used for counting; must not block.
func (o *Orchestrator) OnEnrichmentFailure(fn func(kind string)) {
	o.onEnrichFailure = fn
}

// Respond produces the reply and urgency for one user turn. Provider errors
// are absorbed: the next provider is tried, and the template responder
// guarantees some text. Urgency is classified the same way no matter which
// path produced the text.
func (o *Orchestrator) Respond(ctx context.Context, req Request) Reply {
	text, provider := o.generate(ctx, req)
	return Reply{
		Text:     text,
		Urgency:  ClassifyUrgency(text, req.Text),
		Entities: ExtractEntities(req.Text),
		Provider: provider,
	}
}

func (o *Orchestrator) generate(ctx context.Context, req Request) (string, string) {
	for _, p := range o.providers {
		if !p.Available() {
			continue
		}
		text, err := p.Generate(ctx, req)
		if err != nil {
			zap.S().Warnw("generation provider failed, trying next",
				"provider", p.Name(),
				"error", err,
			)
			continue
		}
		if text == "" {
			zap.S().Warnw("generation provider returned empty reply, trying next", "provider", p.Name())
			continue
		}
		return text, p.Name()
	}
	text, _ := o.fallback.Generate(ctx, req)
	return text, o.fallback.Name()
}

// Enrich requests audio and video renderings of a finalized reply. Each runs
// in its own goroutine; apply is invoked once per successful rendering and
// never on failure. Callers gate apply on their own version token so late
// results for a closed session are discarded, not applied.
func (o *Orchestrator) Enrich(ctx context.Context, text string, apply func(Enrichment)) {
	if o.speech != nil && o.speech.Available() {
		go func() {
			ref, err := o.speech.Synthesize(ctx, text)
			if err != nil {
				zap.S().Warnw("speech enrichment failed", "provider", o.speech.Name(), "error", err)
				o.reportFailure("audio")
				return
			}
			apply(Enrichment{AudioRef: ref})
		}()
	}
	if o.video != nil && o.video.Available() {
		go func() {
			ref, err := o.video.Render(ctx, text)
			if err != nil {
				zap.S().Warnw("video enrichment failed", "provider", o.video.Name(), "error", err)
				o.reportFailure("video")
				return
			}
			apply(Enrichment{VideoRef: ref})
		}()
	}
}

func (o *Orchestrator) reportFailure(kind string) {
	if o.onEnrichFailure != nil {
		o.onEnrichFailure(kind)
	}
}
