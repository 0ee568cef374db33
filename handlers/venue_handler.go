package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"worksphere/agents"
	"worksphere/middleware"
	"worksphere/models"
	"worksphere/utils/errors"
)

// VenueStore is the crowdsourced store and cache as the handler sees it.
type VenueStore interface {
	NearbyCached(ctx context.Context, lat, lng float64, radius int, categories []string) ([]models.Venue, error)
	Enrich(ctx context.Context, venues []models.Venue) []models.Venue
	CacheVenues(ctx context.Context, venues []models.Venue)
	RateVenue(ctx context.Context, userID, venueID string, rating models.VenueRating, seed *models.Venue) (models.VenueRating, error)
	GetUserRating(ctx context.Context, userID, venueID string) (models.VenueRating, error)
}

type VenueHandler struct {
	source       agents.VenueSource
	venueService VenueStore
}

type NearbyVenuesResponse struct {
	Venues []models.Venue   `json:"venues"`
	Count  int              `json:"count"`
	Meta   models.VenueMeta `json:"meta"`
	Lat    float64          `json:"lat"`
	Lng    float64          `json:"lng"`
	Radius int              `json:"radius"`
}

func NewVenueHandler(source agents.VenueSource, venueService VenueStore) *VenueHandler {
	return &VenueHandler{source: source, venueService: venueService}
}

// GetNearbyVenues serves GET /venues: cached results from the Redis geo
// set when available, otherwise a fresh upstream fetch that then warms
// the cache.
func (h *VenueHandler) GetNearbyVenues(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	radius := 2000
	if raw := r.URL.Query().Get("radius"); raw != "" {
		radius, err = strconv.Atoi(raw)
		if err != nil || radius < 100 || radius > 50000 {
			middleware.WriteError(w, errors.ErrInvalidInput)
			return
		}
	}

	var categories []string
	switch category := r.URL.Query().Get("category"); category {
	case "", "all":
		categories = []string{models.CategoryCafe, models.CategoryCoworking, models.CategoryLibrary}
	case models.CategoryCafe, models.CategoryCoworking, models.CategoryLibrary:
		categories = []string{category}
	default:
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	filters := parseVenueFilters(r)

	meta := models.VenueMeta{Source: "cache"}
	venues, err := h.venueService.NearbyCached(r.Context(), lat, lng, radius, categories)
	// Amenity filters apply to cached venues too, not just fresh fetches.
	// An empty filtered cache falls through to the upstream source.
	if err == nil && len(venues) > 0 {
		venues = agents.ApplyFilters(venues, filters)
	}
	if err != nil || len(venues) == 0 {
		params := models.SearchParameters{
			Location: &models.LatLng{Lat: lat, Lng: lng},
			Radius:   radius,
			Category: categories,
		}
		result := h.source.FetchVenues(r.Context(), params, filters)
		venues = h.venueService.Enrich(r.Context(), result.Venues)
		meta = result.Meta
		if len(venues) > 0 {
			h.venueService.CacheVenues(r.Context(), venues)
		}
	}
	meta.Total = len(venues)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(NearbyVenuesResponse{
		Venues: venues,
		Count:  len(venues),
		Meta:   meta,
		Lat:    lat,
		Lng:    lng,
		Radius: radius,
	})
}

func parseVenueFilters(r *http.Request) *models.VenueFilters {
	filters := &models.VenueFilters{
		Wifi:    r.URL.Query().Get("wifi") == "true",
		Outlets: r.URL.Query().Get("outlets") == "true",
		Quiet:   r.URL.Query().Get("quiet") == "true",
	}
	if !filters.Wifi && !filters.Outlets && !filters.Quiet {
		return nil
	}
	return filters
}

type rateVenueRequest struct {
	WifiQuality int           `json:"wifi_quality"`
	HasOutlets  *bool         `json:"has_outlets"`
	NoiseLevel  string        `json:"noise_level"`
	Comment     string        `json:"comment,omitempty"`
	Venue       *models.Venue `json:"venue,omitempty"`
}

// RateVenue serves POST /venues/{venueId}/rate (JWT protected).
func (h *VenueHandler) RateVenue(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	venueID := mux.Vars(r)["venueId"]
	if venueID == "" {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	var input rateVenueRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	if input.WifiQuality < 1 || input.WifiQuality > 5 || input.HasOutlets == nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	switch input.NoiseLevel {
	case models.NoiseQuiet, models.NoiseModerate, models.NoiseLoud:
	default:
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	rating := models.VenueRating{
		WifiQuality: input.WifiQuality,
		HasOutlets:  *input.HasOutlets,
		NoiseLevel:  input.NoiseLevel,
		Comment:     input.Comment,
	}
	saved, err := h.venueService.RateVenue(r.Context(), userID, venueID, rating, input.Venue)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]models.VenueRating{"rating": saved})
}

// GetUserRating serves GET /venues/{venueId}/rate: the caller's own rating.
func (h *VenueHandler) GetUserRating(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	venueID := mux.Vars(r)["venueId"]

	rating, err := h.venueService.GetUserRating(r.Context(), userID, venueID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]models.VenueRating{"rating": rating})
}
