package handlers

import (
	"encoding/json"
	"net/http"

	"worksphere/middleware"
	"worksphere/services"
	"worksphere/utils/errors"
)

type FavoriteHandler struct {
	userService *services.UserService
}

type FavoritesResponse struct {
	Favorites []string `json:"favorites"`
	Count     int      `json:"count"`
}

func NewFavoriteHandler(userService *services.UserService) *FavoriteHandler {
	return &FavoriteHandler{userService: userService}
}

func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.userService.ListFavorites(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(FavoritesResponse{Favorites: favorites, Count: len(favorites)})
}

func (h *FavoriteHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	var input struct {
		VenueID string `json:"venue_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.VenueID == "" {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	if err := h.userService.AddFavorite(r.Context(), input.VenueID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"venue_id": input.VenueID})
}

func (h *FavoriteHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	var input struct {
		VenueID string `json:"venue_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.VenueID == "" {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	if err := h.userService.RemoveFavorite(r.Context(), input.VenueID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
