package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"worksphere/middleware"
	"worksphere/models"
	"worksphere/services"
	"worksphere/utils/errors"
)

type ConversationHandler struct {
	conversationService *services.ConversationService
}

type ConversationDetailResponse struct {
	Conversation models.Conversation `json:"conversation"`
	Messages     []models.Message    `json:"messages"`
}

func NewConversationHandler(conversationService *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

func (h *ConversationHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	var input struct {
		Title string `json:"title"`
	}
	if r.Body != nil {
		// Title is optional; a bad body just means no title.
		_ = json.NewDecoder(r.Body).Decode(&input)
	}

	conversation, err := h.conversationService.CreateConversation(r.Context(), userID, input.Title)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(conversation)
}

func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	conversations, err := h.conversationService.ListConversations(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(conversations)
}

func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	conversationID := mux.Vars(r)["id"]

	conversation, messages, err := h.conversationService.GetConversation(r.Context(), userID, conversationID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ConversationDetailResponse{Conversation: conversation, Messages: messages})
}

func (h *ConversationHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	conversationID := mux.Vars(r)["id"]

	if err := h.conversationService.DeleteConversation(r.Context(), userID, conversationID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
