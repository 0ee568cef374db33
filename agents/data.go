package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"worksphere/models"
)

// VenueSource fetches candidate venues for structured search parameters.
// It never returns an error across the pipeline boundary: a nil location
// yields Meta.Source "none", a total upstream failure yields "error",
// both with an empty venue list.
type VenueSource interface {
	FetchVenues(ctx context.Context, params models.SearchParameters, filters *models.VenueFilters) models.VenueResult
}

// Enricher merges crowdsourced amenity overrides into fetched venues.
type Enricher interface {
	Enrich(ctx context.Context, venues []models.Venue) []models.Venue
}

const (
	maxVenues       = 20
	overpassTimeout = 20 * time.Second
)

var defaultOverpassEndpoints = []string{
	"https://overpass-api.de/api/interpreter",
	"https://lz4.overpass-api.de/api/interpreter",
}

// OverpassSource queries the Overpass (OpenStreetMap) API with failover
// between candidate endpoints.
type OverpassSource struct {
	endpoints []string
	client    *http.Client
}

func NewOverpassSource(endpoints ...string) *OverpassSource {
	if len(endpoints) == 0 {
		endpoints = defaultOverpassEndpoints
	}
	return &OverpassSource{
		endpoints: endpoints,
		client:    &http.Client{Timeout: overpassTimeout},
	}
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center,omitempty"`
	Tags map[string]string `json:"tags"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

func (s *OverpassSource) FetchVenues(ctx context.Context, params models.SearchParameters, filters *models.VenueFilters) models.VenueResult {
	if params.Location == nil {
		return models.VenueResult{Venues: []models.Venue{}, Meta: models.VenueMeta{Source: "none"}}
	}

	origin := *params.Location
	query := buildOverpassQuery(origin, params.Radius, params.Category)

	for _, endpoint := range s.endpoints {
		resp, err := s.post(ctx, endpoint, query)
		if err != nil {
			log.Printf("Overpass endpoint %s failed: %v", endpoint, err)
			continue
		}

		venues := normalizeElements(resp.Elements, origin)
		venues = ApplyFilters(venues, filters)
		sort.Slice(venues, func(i, j int) bool {
			return *venues[i].Distance < *venues[j].Distance
		})
		if len(venues) > maxVenues {
			venues = venues[:maxVenues]
		}
		return models.VenueResult{
			Venues: venues,
			Meta:   models.VenueMeta{Source: "overpass", Total: len(venues)},
		}
	}

	return models.VenueResult{Venues: []models.Venue{}, Meta: models.VenueMeta{Source: "error"}}
}

func (s *OverpassSource) post(ctx context.Context, endpoint, query string) (*overpassResponse, error) {
	body := "data=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("overpass status %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}
	return &parsed, nil
}

func buildOverpassQuery(origin models.LatLng, radius int, categories []string) string {
	around := fmt.Sprintf("(around:%d,%f,%f)", radius, origin.Lat, origin.Lng)

	var selectors []string
	for _, category := range categories {
		switch category {
		case models.CategoryCafe:
			selectors = append(selectors, `["amenity"="cafe"]`)
		case models.CategoryCoworking:
			selectors = append(selectors, `["office"="coworking"]`, `["amenity"="coworking_space"]`)
		case models.CategoryLibrary:
			selectors = append(selectors, `["amenity"="library"]`)
		}
	}
	if len(selectors) == 0 {
		selectors = []string{`["amenity"~"cafe|coworking_space|library"]`}
	}

	var clauses []string
	for _, sel := range selectors {
		clauses = append(clauses, fmt.Sprintf("node%s%s;", sel, around))
		clauses = append(clauses, fmt.Sprintf("way%s%s;", sel, around))
	}

	return fmt.Sprintf("[out:json][timeout:25];\n(\n%s\n);\nout center body;", strings.Join(clauses, "\n"))
}

// normalizeElements maps heterogeneous OSM records into the Venue shape.
// Unknown amenity fields stay nil, and malformed records are dropped
// without aborting the batch.
func normalizeElements(elements []overpassElement, origin models.LatLng) []models.Venue {
	venues := make([]models.Venue, 0, len(elements))
	for _, el := range elements {
		lat, lng := el.Lat, el.Lon
		if lat == 0 && lng == 0 {
			if el.Center == nil {
				continue
			}
			lat, lng = el.Center.Lat, el.Center.Lon
		}
		if lat == 0 && lng == 0 {
			continue
		}

		category := osmCategory(el.Tags)
		name := el.Tags["name"]
		if name == "" {
			name = "Unnamed " + category
		}

		distance := Haversine(origin.Lat, origin.Lng, lat, lng)
		venue := models.Venue{
			ID:           strconv.FormatInt(el.ID, 10),
			PlaceID:      fmt.Sprintf("osm-%d", el.ID),
			Name:         name,
			Position:     models.LatLng{Lat: lat, Lng: lng},
			Category:     category,
			Address:      osmAddress(el.Tags),
			WifiQuality:  osmWifiQuality(el.Tags),
			HasOutlets:   osmOutlets(el.Tags),
			NoiseLevel:   "",
			Rating:       osmRating(el.Tags),
			OpeningHours: el.Tags["opening_hours"],
			Distance:     &distance,
		}
		venues = append(venues, venue)
	}
	return venues
}

func osmCategory(tags map[string]string) string {
	switch {
	case tags["office"] == "coworking" || tags["amenity"] == "coworking_space":
		return models.CategoryCoworking
	case tags["amenity"] == "library":
		return models.CategoryLibrary
	case tags["amenity"] == "cafe" || tags["amenity"] == "coffee_shop":
		return models.CategoryCafe
	default:
		return models.CategoryOther
	}
}

func osmAddress(tags map[string]string) string {
	parts := make([]string, 0, 3)
	for _, key := range []string{"addr:housenumber", "addr:street", "addr:city"} {
		if v := tags[key]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

// osmWifiQuality maps the OSM internet_access tag to a coarse quality
// estimate. Absence of the tag means unknown, not "no wifi".
func osmWifiQuality(tags map[string]string) *int {
	switch tags["internet_access"] {
	case "wlan", "yes":
		quality := 4
		return &quality
	case "no":
		quality := 1
		return &quality
	default:
		return nil
	}
}

func osmOutlets(tags map[string]string) *bool {
	switch tags["power_supply"] {
	case "yes":
		v := true
		return &v
	case "no":
		v := false
		return &v
	}
	for key := range tags {
		if strings.HasPrefix(key, "socket") {
			v := true
			return &v
		}
	}
	return nil
}

func osmRating(tags map[string]string) *float64 {
	raw, ok := tags["rating"]
	if !ok {
		return nil
	}
	rating, err := strconv.ParseFloat(raw, 64)
	if err != nil || rating < 0 || rating > 5 {
		return nil
	}
	return &rating
}

// ApplyFilters drops venues failing each requested boolean filter. It
// runs after normalization regardless of upstream filtering, and callers
// serving cached venues apply it the same way.
func ApplyFilters(venues []models.Venue, filters *models.VenueFilters) []models.Venue {
	if filters == nil {
		return venues
	}
	filtered := venues[:0]
	for _, v := range venues {
		if filters.Wifi && (v.WifiQuality == nil || *v.WifiQuality < 3) {
			continue
		}
		if filters.Outlets && (v.HasOutlets == nil || !*v.HasOutlets) {
			continue
		}
		if filters.Quiet && v.NoiseLevel != models.NoiseQuiet {
			continue
		}
		filtered = append(filtered, v)
	}
	return filtered
}

// Haversine returns the great-circle distance in meters.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadius = 6371000.0
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return math.Round(earthRadius * c)
}
