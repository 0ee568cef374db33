package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"worksphere/models"
)

// stubLLM satisfies ChatCompleter with a canned reply.
type stubLLM struct {
	reply string
	err   error
	calls int
}

func (s *stubLLM) Complete(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func (s *stubLLM) Configured() bool { return true }

func TestParseRadius(t *testing.T) {
	cases := []struct {
		message string
		want    int
	}{
		{"find a cafe within 2 miles", 3218},
		{"something within 1 mile", 1609},
		{"coworking within 3 km", 3000},
		{"library within 1.5 km", 1500},
		{"cafe within 800 meters", 800},
		{"cafe within 500m", 500},
		{"anything nearby", 1000},
		{"somewhere close to the office", 2000},
		{"a quiet cafe with wifi", 2000},
		// Clamped to the allowed range.
		{"within 50 m", 100},
		{"within 100 km", 50000},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseRadius(tc.message), "message %q", tc.message)
	}
}

func TestRuleExtractorQuietCafe(t *testing.T) {
	loc := &models.LatLng{Lat: 37.7749, Lng: -122.4194}
	extractor := NewRuleExtractor()

	params := extractor.Extract(context.Background(), "Find a quiet cafe with WiFi near me", loc)

	assert.Equal(t, models.WorkTypeFocus, params.WorkType)
	assert.Contains(t, params.Amenities, "wifi")
	assert.Contains(t, params.Amenities, "quiet")
	assert.Equal(t, []string{models.CategoryCafe}, params.Category)
	assert.Equal(t, loc, params.Location)
	assert.Equal(t, defaultRadius, params.Radius)
}

func TestRuleExtractorWorkTypes(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"somewhere to take video calls", models.WorkTypeCalls},
		{"a spot for a team brainstorm", models.WorkTypeCollaboration},
		{"good place to collaborate with my cofounder", models.WorkTypeCollaboration},
		{"casual spot to hang out and read", models.WorkTypeCasual},
		{"I need deep focus", models.WorkTypeFocus},
		{"find me a workspace", models.WorkTypeFocus},
	}
	extractor := NewRuleExtractor()
	for _, tc := range cases {
		params := extractor.Extract(context.Background(), tc.message, nil)
		assert.Equal(t, tc.want, params.WorkType, "message %q", tc.message)
	}
}

func TestRuleExtractorAmenities(t *testing.T) {
	extractor := NewRuleExtractor()

	params := extractor.Extract(context.Background(), "cafe with outlets to charge my laptop, outdoor seating", nil)
	assert.Contains(t, params.Amenities, "outlets")
	assert.Contains(t, params.Amenities, "outdoor")

	// No recognizable amenity words fall back to wifi.
	params = extractor.Extract(context.Background(), "find me a workspace", nil)
	assert.Equal(t, []string{"wifi"}, params.Amenities)
}

func TestDefaultParameters(t *testing.T) {
	loc := &models.LatLng{Lat: 1, Lng: 2}
	params := DefaultParameters("whatever", loc)

	assert.Equal(t, "whatever", params.Intent)
	assert.Equal(t, models.WorkTypeFocus, params.WorkType)
	assert.Equal(t, []string{"wifi"}, params.Amenities)
	assert.Equal(t, defaultRadius, params.Radius)
	assert.ElementsMatch(t,
		[]string{models.CategoryCafe, models.CategoryCoworking, models.CategoryLibrary},
		params.Category)
	assert.Equal(t, loc, params.Location)
}

func TestLLMExtractorFallsBackOnError(t *testing.T) {
	llm := &stubLLM{err: errors.New("upstream timeout")}
	extractor := NewLLMExtractor(llm)

	params := extractor.Extract(context.Background(), "quiet cafe", nil)
	assert.Equal(t, DefaultParameters("quiet cafe", nil), params)
}

func TestLLMExtractorFallsBackOnGarbage(t *testing.T) {
	llm := &stubLLM{reply: "sorry, I can't help with that"}
	extractor := NewLLMExtractor(llm)

	params := extractor.Extract(context.Background(), "quiet cafe", nil)
	assert.Equal(t, DefaultParameters("quiet cafe", nil), params)
}

func TestLLMExtractorParsesAndSanitizes(t *testing.T) {
	loc := &models.LatLng{Lat: 37.7749, Lng: -122.4194}
	llm := &stubLLM{reply: `Here you go:
{"intent": "quiet cafe", "work_type": "focus", "amenities": ["wifi", "jacuzzi"], "radius": 999999, "category": ["cafe"], "reasoning": "needs quiet"}`}
	extractor := NewLLMExtractor(llm)

	params := extractor.Extract(context.Background(), "quiet cafe with wifi", loc)

	assert.Equal(t, models.WorkTypeFocus, params.WorkType)
	// Unknown amenity values are dropped, known ones kept.
	assert.Equal(t, []string{"wifi"}, params.Amenities)
	assert.Equal(t, []string{models.CategoryCafe}, params.Category)
	assert.Equal(t, maxRadius, params.Radius)
	// Coordinates always come from the caller, never the model.
	assert.Equal(t, loc, params.Location)
}

func TestSanitizeParametersInvalidEnums(t *testing.T) {
	raw := models.SearchParameters{
		WorkType:  "party",
		Amenities: []string{"pool"},
		Category:  []string{"nightclub"},
		Radius:    -5,
	}
	clean := sanitizeParameters(raw, "find a workspace", nil)

	assert.Equal(t, models.WorkTypeFocus, clean.WorkType)
	assert.Equal(t, []string{"wifi"}, clean.Amenities)
	assert.ElementsMatch(t,
		[]string{models.CategoryCafe, models.CategoryCoworking, models.CategoryLibrary},
		clean.Category)
	assert.Equal(t, defaultRadius, clean.Radius)
	assert.Equal(t, "find a workspace", clean.Intent)
}
