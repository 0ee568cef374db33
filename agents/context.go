package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"worksphere/models"
)

// Extractor turns a free-text message plus an optional user location into
// structured search parameters. Implementations never abort the pipeline:
// on any failure they return DefaultParameters.
type Extractor interface {
	Extract(ctx context.Context, userMessage string, userLocation *models.LatLng) models.SearchParameters
}

const (
	defaultRadius = 2000
	radiusNearby  = 1000
	radiusClose   = 2000
	metersPerMile = 1609
	minRadius     = 100
	maxRadius     = 50000
)

// DefaultParameters is the documented fallback for failed extraction.
func DefaultParameters(userMessage string, userLocation *models.LatLng) models.SearchParameters {
	return models.SearchParameters{
		Intent:    userMessage,
		WorkType:  models.WorkTypeFocus,
		Amenities: []string{"wifi"},
		Location:  userLocation,
		Radius:    defaultRadius,
		Category:  []string{models.CategoryCafe, models.CategoryCoworking, models.CategoryLibrary},
		Reasoning: "default parameters",
	}
}

// RuleExtractor is the deterministic keyword/regex extractor.
type RuleExtractor struct{}

func NewRuleExtractor() *RuleExtractor {
	return &RuleExtractor{}
}

var distancePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(miles?|mi|kilometers?|kilometres?|km|meters?|metres?|m)\b`)

func (e *RuleExtractor) Extract(_ context.Context, userMessage string, userLocation *models.LatLng) models.SearchParameters {
	msg := strings.ToLower(userMessage)

	params := models.SearchParameters{
		Intent:    userMessage,
		WorkType:  extractWorkType(msg),
		Amenities: extractAmenities(msg),
		Location:  userLocation,
		Radius:    ParseRadius(msg),
		Category:  extractCategories(msg),
		Reasoning: "rule-based extraction",
	}
	if len(params.Amenities) == 0 {
		params.Amenities = []string{"wifi"}
	}
	return params
}

func extractWorkType(msg string) string {
	switch {
	case containsAny(msg, "call", "calls", "video call", "phone"):
		return models.WorkTypeCalls
	case strings.Contains(msg, "collaborat") || containsAny(msg, "meeting", "team", "group", "brainstorm"):
		return models.WorkTypeCollaboration
	case containsAny(msg, "casual", "relax", "chill", "hang out"):
		return models.WorkTypeCasual
	default:
		return models.WorkTypeFocus
	}
}

func extractAmenities(msg string) []string {
	var amenities []string
	if containsAny(msg, "wifi", "wi-fi", "internet") {
		amenities = append(amenities, "wifi")
	}
	if strings.Contains(msg, "charg") || containsAny(msg, "outlet", "outlets", "power", "plug", "plugs", "socket", "sockets") {
		amenities = append(amenities, "outlets")
	}
	if containsAny(msg, "quiet", "silent", "peaceful") {
		amenities = append(amenities, "quiet")
	}
	if containsAny(msg, "parking", "park my car") {
		amenities = append(amenities, "parking")
	}
	if containsAny(msg, "outdoor", "outside", "patio", "terrace") {
		amenities = append(amenities, "outdoor")
	}
	return amenities
}

func extractCategories(msg string) []string {
	var categories []string
	if containsAny(msg, "cafe", "cafes", "coffee") {
		categories = append(categories, models.CategoryCafe)
	}
	if containsAny(msg, "coworking", "co-working") {
		categories = append(categories, models.CategoryCoworking)
	}
	if containsAny(msg, "library", "libraries") {
		categories = append(categories, models.CategoryLibrary)
	}
	if len(categories) == 0 {
		categories = []string{models.CategoryCafe, models.CategoryCoworking, models.CategoryLibrary}
	}
	return categories
}

// ParseRadius converts natural-language distance phrases to meters.
// Explicit distances ("2 miles", "3 km") win over the word table
// ("nearby" -> 1000m, "close" -> 2000m).
func ParseRadius(msg string) int {
	if m := distancePattern.FindStringSubmatch(msg); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			var meters float64
			switch {
			case strings.HasPrefix(m[2], "mi"):
				meters = value * metersPerMile
			case strings.HasPrefix(m[2], "k"):
				meters = value * 1000
			default:
				meters = value
			}
			return clampRadius(int(meters))
		}
	}
	if containsPhrase(msg, "nearby") {
		return radiusNearby
	}
	if containsPhrase(msg, "close") {
		return radiusClose
	}
	return defaultRadius
}

func clampRadius(radius int) int {
	if radius < minRadius {
		return minRadius
	}
	if radius > maxRadius {
		return maxRadius
	}
	return radius
}

func containsAny(msg string, phrases ...string) bool {
	for _, phrase := range phrases {
		if containsPhrase(msg, phrase) {
			return true
		}
	}
	return false
}

const extractorSystemPrompt = `You are the context extractor for WorkSphere, a workspace finder.
Extract structured search parameters from the user query.

Fields:
1. work_type: "focus" | "calls" | "collaboration" | "casual"
2. amenities: subset of ["wifi", "outlets", "quiet", "parking", "outdoor"]
3. radius: meters (nearby=1000, close=2000, "2 miles"=3218)
4. category: subset of ["cafe", "coworking", "library"]

Output ONLY valid JSON:
{"intent": "Find quiet cafe", "work_type": "focus", "amenities": ["wifi", "quiet"], "radius": 2000, "category": ["cafe"], "reasoning": "user needs a quiet focus space"}`

// LLMExtractor extracts parameters via a chat-completions call, falling
// back to DefaultParameters on any failure.
type LLMExtractor struct {
	llm ChatCompleter
}

func NewLLMExtractor(llm ChatCompleter) *LLMExtractor {
	return &LLMExtractor{llm: llm}
}

func (e *LLMExtractor) Extract(ctx context.Context, userMessage string, userLocation *models.LatLng) models.SearchParameters {
	location := "unknown"
	if userLocation != nil {
		location = fmt.Sprintf("%f, %f", userLocation.Lat, userLocation.Lng)
	}
	prompt := fmt.Sprintf("Message: %q\nUser location: %s", userMessage, location)

	text, err := e.llm.Complete(ctx, extractorSystemPrompt, prompt)
	if err != nil {
		log.Printf("Context LLM error: %v", err)
		return DefaultParameters(userMessage, userLocation)
	}

	blob := jsonBlobPattern.FindString(text)
	if blob == "" {
		return DefaultParameters(userMessage, userLocation)
	}
	var parsed models.SearchParameters
	if err := json.Unmarshal([]byte(blob), &parsed); err != nil {
		log.Printf("Context parse error: %v", err)
		return DefaultParameters(userMessage, userLocation)
	}
	return sanitizeParameters(parsed, userMessage, userLocation)
}

// sanitizeParameters keeps model output inside the documented enums and
// bounds; anything out of range reverts to the matching default.
func sanitizeParameters(p models.SearchParameters, userMessage string, userLocation *models.LatLng) models.SearchParameters {
	defaults := DefaultParameters(userMessage, userLocation)

	if p.Intent == "" {
		p.Intent = userMessage
	}
	switch p.WorkType {
	case models.WorkTypeFocus, models.WorkTypeCalls, models.WorkTypeCollaboration, models.WorkTypeCasual:
	default:
		p.WorkType = defaults.WorkType
	}

	var amenities []string
	for _, a := range p.Amenities {
		switch a {
		case "wifi", "outlets", "quiet", "parking", "outdoor":
			amenities = append(amenities, a)
		}
	}
	if len(amenities) == 0 {
		amenities = defaults.Amenities
	}
	p.Amenities = amenities

	var categories []string
	for _, c := range p.Category {
		switch c {
		case models.CategoryCafe, models.CategoryCoworking, models.CategoryLibrary:
			categories = append(categories, c)
		}
	}
	if len(categories) == 0 {
		categories = defaults.Category
	}
	p.Category = categories

	if p.Radius <= 0 {
		p.Radius = defaults.Radius
	}
	p.Radius = clampRadius(p.Radius)

	// The model never supplies coordinates; "near me" and friends always
	// resolve to the caller-provided location.
	p.Location = userLocation
	return p
}
