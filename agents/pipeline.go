package agents

import (
	"context"
	"fmt"
	"log"
	"time"

	"worksphere/models"
)

// Step records one stage of a pipeline run for response debugging.
type Step struct {
	Agent     string    `json:"agent"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatResult is what one user turn produces.
type ChatResult struct {
	Content     string               `json:"content"`
	Venues      []models.ScoredVenue `json:"venues"`
	MapUpdates  *models.MapUpdates   `json:"map_updates,omitempty"`
	Suggestions []string             `json:"suggestions,omitempty"`
	Steps       []Step               `json:"agent_steps"`
}

// Pipeline wires the five stages for one request-scoped run. All state
// lives in the run itself; concurrent runs share nothing mutable.
type Pipeline struct {
	classifier Classifier
	extractor  Extractor
	source     VenueSource
	enricher   Enricher
	chat       ChatCompleter
}

// NewPipeline builds a pipeline. enricher and chat may be nil: without an
// enricher crowdsourced overrides are skipped, without a chat backend the
// skip path answers with a canned reply.
func NewPipeline(classifier Classifier, extractor Extractor, source VenueSource, enricher Enricher, chat ChatCompleter) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		extractor:  extractor,
		source:     source,
		enricher:   enricher,
		chat:       chat,
	}
}

const assistantSystemPrompt = "You are WorkSphere, a friendly assistant for finding work-friendly venues. Be helpful and conversational."

const fallbackReply = "Hello! I can help you find cafes, coworking spaces and libraries to work from. Try asking for a quiet cafe with WiFi nearby."

// Run executes one user turn: Orchestrator -> [direct reply] or
// Context -> Data -> Reasoning -> Action. Stage failures resolve to the
// stage's documented fallback; Run itself never returns an error.
func (p *Pipeline) Run(ctx context.Context, userMessage string, location *models.LatLng, filters *models.VenueFilters) ChatResult {
	var steps []Step
	record := func(agent, detail string) {
		steps = append(steps, Step{Agent: agent, Detail: detail, Timestamp: time.Now()})
	}

	var prior map[string]any
	if location != nil {
		prior = map[string]any{"location": *location}
	}
	decision := p.classifier.Route(ctx, userMessage, prior)
	record("Orchestrator", decision.Reasoning)

	if !decision.RunPipeline {
		return ChatResult{
			Content: p.directReply(ctx, userMessage),
			Venues:  []models.ScoredVenue{},
			Steps:   steps,
		}
	}

	params := p.extractor.Extract(ctx, userMessage, location)
	record("Context", fmt.Sprintf("workType=%s radius=%dm categories=%v", params.WorkType, params.Radius, params.Category))

	result := p.source.FetchVenues(ctx, params, filters)
	record("Data", fmt.Sprintf("%d venues from %s", len(result.Venues), result.Meta.Source))

	venues := result.Venues
	if p.enricher != nil && len(venues) > 0 {
		venues = p.enricher.Enrich(ctx, venues)
	}

	ranking := Score(venues, Preferences{WorkType: params.WorkType, Amenities: params.Amenities})
	record("Reasoning", ranking.Summary)

	presentation := Present(ranking.RankedVenues, userMessage, location)
	record("Action", fmt.Sprintf("%d markers, %d suggestions", len(presentation.MapUpdates.Markers), len(presentation.Suggestions)))

	return ChatResult{
		Content:     presentation.Message,
		Venues:      ranking.RankedVenues,
		MapUpdates:  &presentation.MapUpdates,
		Suggestions: presentation.Suggestions,
		Steps:       steps,
	}
}

func (p *Pipeline) directReply(ctx context.Context, userMessage string) string {
	if p.chat == nil || !p.chat.Configured() {
		return fallbackReply
	}
	reply, err := p.chat.Complete(ctx, assistantSystemPrompt, userMessage)
	if err != nil {
		log.Printf("Direct reply error: %v", err)
		return fallbackReply
	}
	return reply
}
