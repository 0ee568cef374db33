package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worksphere/models"
)

// stubSource returns canned venues and counts calls so the skip path can
// assert no fetch happened.
type stubSource struct {
	result models.VenueResult
	calls  int
	params models.SearchParameters
}

func (s *stubSource) FetchVenues(_ context.Context, params models.SearchParameters, _ *models.VenueFilters) models.VenueResult {
	s.calls++
	s.params = params
	return s.result
}

type stubEnricher struct {
	calls int
}

func (s *stubEnricher) Enrich(_ context.Context, venues []models.Venue) []models.Venue {
	s.calls++
	return venues
}

func TestPipelineFullRun(t *testing.T) {
	wifi := 5
	outlets := true
	rating := 4.5
	dist := 300.0
	source := &stubSource{result: models.VenueResult{
		Venues: []models.Venue{{
			ID:          "osm-1",
			Name:        "Quiet Beans",
			Category:    models.CategoryCafe,
			Position:    models.LatLng{Lat: 37.776, Lng: -122.418},
			WifiQuality: &wifi,
			HasOutlets:  &outlets,
			NoiseLevel:  models.NoiseQuiet,
			Rating:      &rating,
			Distance:    &dist,
		}},
		Meta: models.VenueMeta{Source: "overpass", Total: 1},
	}}
	enricher := &stubEnricher{}
	pipeline := NewPipeline(NewRuleClassifier(), NewRuleExtractor(), source, enricher, nil)

	loc := &models.LatLng{Lat: 37.7749, Lng: -122.4194}
	result := pipeline.Run(context.Background(), "Find a quiet cafe with WiFi near me", loc, nil)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, 1, enricher.calls)
	assert.Equal(t, models.WorkTypeFocus, source.params.WorkType)
	assert.Equal(t, []string{models.CategoryCafe}, source.params.Category)

	require.Len(t, result.Venues, 1)
	top := result.Venues[0]
	assert.Equal(t, "Quiet Beans", top.Name)
	// All sub-scores known and strong, so the total lands in the top half.
	assert.Greater(t, top.Score, 7.0)
	assert.LessOrEqual(t, top.Score, 10.0)

	assert.Contains(t, result.Content, "Quiet Beans")
	assert.Contains(t, result.Content, "Top Pick")
	require.NotNil(t, result.MapUpdates)
	assert.Len(t, result.MapUpdates.Markers, 1)
	assert.NotEmpty(t, result.Suggestions)

	// Every stage leaves a step record.
	stages := make([]string, 0, len(result.Steps))
	for _, step := range result.Steps {
		stages = append(stages, step.Agent)
	}
	assert.Equal(t, []string{"Orchestrator", "Context", "Data", "Reasoning", "Action"}, stages)
}

func TestPipelineNoResults(t *testing.T) {
	source := &stubSource{result: models.VenueResult{
		Venues: []models.Venue{},
		Meta:   models.VenueMeta{Source: "overpass"},
	}}
	pipeline := NewPipeline(NewRuleClassifier(), NewRuleExtractor(), source, nil, nil)

	result := pipeline.Run(context.Background(), "find a cafe in the middle of the ocean", nil, nil)

	assert.Contains(t, result.Content, "couldn't find")
	assert.Empty(t, result.Venues)
	require.NotNil(t, result.MapUpdates)
	assert.Empty(t, result.MapUpdates.Markers)
	assert.NotEmpty(t, result.Suggestions)
}

func TestPipelineSkipsSearchForSmallTalk(t *testing.T) {
	source := &stubSource{}
	pipeline := NewPipeline(NewRuleClassifier(), NewRuleExtractor(), source, nil, nil)

	result := pipeline.Run(context.Background(), "hi there, how are you?", nil, nil)

	assert.Equal(t, 0, source.calls)
	assert.Equal(t, fallbackReply, result.Content)
	assert.Empty(t, result.Venues)
	assert.Nil(t, result.MapUpdates)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, "Orchestrator", result.Steps[0].Agent)
}

func TestPipelineDirectReplyUsesChatBackend(t *testing.T) {
	llm := &stubLLM{reply: "Hey! Ready to find you a great workspace."}
	pipeline := NewPipeline(NewRuleClassifier(), NewRuleExtractor(), &stubSource{}, nil, llm)

	result := pipeline.Run(context.Background(), "hello", nil, nil)

	assert.Equal(t, "Hey! Ready to find you a great workspace.", result.Content)
	assert.Equal(t, 1, llm.calls)
}

func TestPipelineDirectReplyFallsBackOnChatError(t *testing.T) {
	llm := &stubLLM{err: context.DeadlineExceeded}
	pipeline := NewPipeline(NewRuleClassifier(), NewRuleExtractor(), &stubSource{}, nil, llm)

	result := pipeline.Run(context.Background(), "hello", nil, nil)
	assert.Equal(t, fallbackReply, result.Content)
}

func TestPipelineSourceFailureStillAnswers(t *testing.T) {
	source := &stubSource{result: models.VenueResult{
		Venues: []models.Venue{},
		Meta:   models.VenueMeta{Source: "error"},
	}}
	pipeline := NewPipeline(NewRuleClassifier(), NewRuleExtractor(), source, nil, nil)

	result := pipeline.Run(context.Background(), "find a coworking space nearby",
		&models.LatLng{Lat: 37.7749, Lng: -122.4194}, nil)

	assert.NotEmpty(t, result.Content)
	assert.Empty(t, result.Venues)
	assert.NotEmpty(t, result.Suggestions)
}
