package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"worksphere/agents"
	"worksphere/middleware"
	"worksphere/models"
	"worksphere/utils/errors"
)

// PipelineRunner is the agent pipeline as the handler sees it.
type PipelineRunner interface {
	Run(ctx context.Context, userMessage string, location *models.LatLng, filters *models.VenueFilters) agents.ChatResult
}

// TranscriptSaver persists a chat exchange, best effort.
type TranscriptSaver interface {
	SaveExchange(ctx context.Context, conversationID, userMessage, assistantMessage string)
}

type ChatHandler struct {
	pipeline    PipelineRunner
	transcripts TranscriptSaver
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages       []ChatMessage        `json:"messages"`
	Location       *models.LatLng       `json:"location,omitempty"`
	Filters        *models.VenueFilters `json:"filters,omitempty"`
	ConversationID string               `json:"conversation_id,omitempty"`
}

type ChatResponse struct {
	Content     string               `json:"content"`
	Venues      []models.ScoredVenue `json:"venues"`
	MapUpdates  *models.MapUpdates   `json:"map_updates,omitempty"`
	Suggestions []string             `json:"suggestions,omitempty"`
	AgentSteps  []agents.Step        `json:"agent_steps"`
}

// NewChatHandler builds the chat endpoint. transcripts may be nil when
// conversation persistence is disabled.
func NewChatHandler(pipeline PipelineRunner, transcripts TranscriptSaver) *ChatHandler {
	return &ChatHandler{pipeline: pipeline, transcripts: transcripts}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var input ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	if len(input.Messages) == 0 {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	// The pipeline consumes the most recent user turn; assistant messages
	// at the tail (e.g. replayed transcripts) are skipped.
	var userMessage string
	for i := len(input.Messages) - 1; i >= 0; i-- {
		if input.Messages[i].Role == "user" {
			userMessage = input.Messages[i].Content
			break
		}
	}
	if userMessage == "" {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	location := input.Location
	if location != nil && !validCoordinates(location.Lat, location.Lng) {
		location = nil
	}

	result := h.pipeline.Run(r.Context(), userMessage, location, input.Filters)

	if h.transcripts != nil && input.ConversationID != "" {
		h.transcripts.SaveExchange(r.Context(), input.ConversationID, userMessage, result.Content)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ChatResponse{
		Content:     result.Content,
		Venues:      result.Venues,
		MapUpdates:  result.MapUpdates,
		Suggestions: result.Suggestions,
		AgentSteps:  result.Steps,
	})
}

func validCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
