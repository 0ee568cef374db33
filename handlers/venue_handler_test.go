package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worksphere/models"
)

type stubVenueStore struct {
	cached      []models.Venue
	cachedErr   error
	cacheCalls  int
	enrichCalls int
	storedCalls int
}

func (s *stubVenueStore) NearbyCached(context.Context, float64, float64, int, []string) ([]models.Venue, error) {
	s.cacheCalls++
	return s.cached, s.cachedErr
}

func (s *stubVenueStore) Enrich(_ context.Context, venues []models.Venue) []models.Venue {
	s.enrichCalls++
	return venues
}

func (s *stubVenueStore) CacheVenues(context.Context, []models.Venue) {
	s.storedCalls++
}

func (s *stubVenueStore) RateVenue(_ context.Context, userID, venueID string, rating models.VenueRating, _ *models.Venue) (models.VenueRating, error) {
	rating.UserID = userID
	rating.VenueID = venueID
	return rating, nil
}

func (s *stubVenueStore) GetUserRating(context.Context, string, string) (models.VenueRating, error) {
	return models.VenueRating{}, nil
}

type stubVenueSource struct {
	result models.VenueResult
	calls  int
}

func (s *stubVenueSource) FetchVenues(context.Context, models.SearchParameters, *models.VenueFilters) models.VenueResult {
	s.calls++
	return s.result
}

func cachedVenue(id, noise string, wifi int) models.Venue {
	return models.Venue{
		ID:          id,
		PlaceID:     "osm-" + id,
		Name:        "Venue " + id,
		Category:    models.CategoryCafe,
		Position:    models.LatLng{Lat: 37.77, Lng: -122.41},
		NoiseLevel:  noise,
		WifiQuality: &wifi,
	}
}

func getVenues(t *testing.T, handler *VenueHandler, query string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/venues?"+query, nil)
	handler.GetNearbyVenues(rec, req)
	return rec
}

func TestGetNearbyVenuesCacheHitAppliesFilters(t *testing.T) {
	store := &stubVenueStore{cached: []models.Venue{
		cachedVenue("quiet", models.NoiseQuiet, 4),
		cachedVenue("loud", models.NoiseLoud, 4),
	}}
	source := &stubVenueSource{}
	handler := NewVenueHandler(source, store)

	rec := getVenues(t, handler, "lat=37.7749&lng=-122.4194&quiet=true")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp NearbyVenuesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// The quiet filter trims the cached result; the upstream source is
	// never consulted on a cache hit.
	require.Len(t, resp.Venues, 1)
	assert.Equal(t, "quiet", resp.Venues[0].ID)
	assert.Equal(t, "cache", resp.Meta.Source)
	assert.Equal(t, 1, resp.Meta.Total)
	assert.Equal(t, 0, source.calls)
}

func TestGetNearbyVenuesCacheFilteredEmptyFallsThrough(t *testing.T) {
	store := &stubVenueStore{cached: []models.Venue{
		cachedVenue("loud", models.NoiseLoud, 4),
	}}
	source := &stubVenueSource{result: models.VenueResult{
		Venues: []models.Venue{cachedVenue("fresh-quiet", models.NoiseQuiet, 4)},
		Meta:   models.VenueMeta{Source: "overpass", Total: 1},
	}}
	handler := NewVenueHandler(source, store)

	rec := getVenues(t, handler, "lat=37.7749&lng=-122.4194&quiet=true")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp NearbyVenuesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// Nothing in the cache survives the filter, so the handler fetches
	// upstream and reports that source.
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, "overpass", resp.Meta.Source)
	require.Len(t, resp.Venues, 1)
	assert.Equal(t, "fresh-quiet", resp.Venues[0].ID)
	assert.Equal(t, 1, store.storedCalls)
}

func TestGetNearbyVenuesCacheMissFetchesAndWarms(t *testing.T) {
	store := &stubVenueStore{}
	source := &stubVenueSource{result: models.VenueResult{
		Venues: []models.Venue{cachedVenue("fresh", "", 4)},
		Meta:   models.VenueMeta{Source: "overpass", Total: 1},
	}}
	handler := NewVenueHandler(source, store)

	rec := getVenues(t, handler, "lat=37.7749&lng=-122.4194")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, 1, store.enrichCalls)
	assert.Equal(t, 1, store.storedCalls)
}

func TestGetNearbyVenuesValidation(t *testing.T) {
	handler := NewVenueHandler(&stubVenueSource{}, &stubVenueStore{})

	assert.Equal(t, http.StatusBadRequest, getVenues(t, handler, "lng=-122.4194").Code)
	assert.Equal(t, http.StatusBadRequest, getVenues(t, handler, "lat=37.7&lng=-122.4&radius=50").Code)
	assert.Equal(t, http.StatusBadRequest, getVenues(t, handler, "lat=37.7&lng=-122.4&category=nightclub").Code)
}
