package agents

import (
	"fmt"
	"math"
	"strings"

	"worksphere/models"
)

// Presentation is the action stage output: a user-facing message, map
// renderer payloads, and follow-up suggestion chips.
type Presentation struct {
	Message     string            `json:"message"`
	MapUpdates  models.MapUpdates `json:"map_updates"`
	Suggestions []string          `json:"suggestions"`
}

const (
	maxMarkers     = 10
	centroidVenues = 5
	defaultMapZoom = 14
	runnerUpCount  = 3
)

// Present converts ranked venues into map updates, a summary message and
// suggestion chips. It is pure formatting: a malformed venue (missing
// coordinates) is skipped rather than aborting the response.
func Present(rankedVenues []models.ScoredVenue, userQuery string, userLocation *models.LatLng) Presentation {
	valid := make([]models.ScoredVenue, 0, len(rankedVenues))
	for _, v := range rankedVenues {
		if v.Position.Lat == 0 && v.Position.Lng == 0 {
			continue
		}
		valid = append(valid, v)
	}

	markers := make([]models.Marker, 0, maxMarkers)
	for _, v := range valid {
		if len(markers) == maxMarkers {
			break
		}
		markers = append(markers, models.Marker{
			ID:          v.ID,
			Position:    v.Position,
			Name:        v.Name,
			Category:    v.Category,
			Score:       v.Score,
			WifiQuality: v.WifiQuality,
			HasOutlets:  v.HasOutlets,
			NoiseLevel:  v.NoiseLevel,
			Address:     v.Address,
			Distance:    FormatDistance(v.Distance),
		})
	}

	return Presentation{
		Message: buildMessage(valid, userQuery),
		MapUpdates: models.MapUpdates{
			Markers: markers,
			View:    buildView(valid, userLocation),
		},
		Suggestions: buildSuggestions(len(valid) > 0),
	}
}

// buildView centers on the centroid of the top venues, falls back to the
// user location, and omits the view entirely when neither exists so the
// caller keeps its previous viewport.
func buildView(venues []models.ScoredVenue, userLocation *models.LatLng) *models.MapView {
	if len(venues) > 0 {
		n := len(venues)
		if n > centroidVenues {
			n = centroidVenues
		}
		var sumLat, sumLng float64
		for _, v := range venues[:n] {
			sumLat += v.Position.Lat
			sumLng += v.Position.Lng
		}
		return &models.MapView{
			Center:  models.LatLng{Lat: sumLat / float64(n), Lng: sumLng / float64(n)},
			Zoom:    defaultMapZoom,
			Animate: true,
		}
	}
	if userLocation != nil {
		return &models.MapView{Center: *userLocation, Zoom: defaultMapZoom, Animate: true}
	}
	return nil
}

func buildMessage(venues []models.ScoredVenue, userQuery string) string {
	if len(venues) == 0 {
		return fmt.Sprintf("I couldn't find any workspaces matching %q. Try expanding your search radius or adjusting your criteria.", userQuery)
	}

	top := venues[0]
	var sb strings.Builder

	plural := "s"
	if len(venues) == 1 {
		plural = ""
	}
	fmt.Fprintf(&sb, "Found **%d** workspace%s for you!\n\n", len(venues), plural)

	fmt.Fprintf(&sb, "### Top Pick: %s\n", top.Name)
	address := top.Address
	if address == "" {
		address = "Address not available"
	}
	fmt.Fprintf(&sb, "%s\n", address)
	fmt.Fprintf(&sb, "Score: %.1f/10\n", top.Score)
	fmt.Fprintf(&sb, "%s away\n\n", FormatDistance(top.Distance))

	if badges := amenityBadges(top); len(badges) > 0 {
		sb.WriteString(strings.Join(badges, " • "))
		sb.WriteString("\n\n")
	}

	fmt.Fprintf(&sb, "*%s*\n\n", top.Reasoning)

	if len(venues) > 1 {
		sb.WriteString("### Other great options:\n\n")
		runnersUp := venues[1:]
		if len(runnersUp) > runnerUpCount {
			runnersUp = runnersUp[:runnerUpCount]
		}
		for i, v := range runnersUp {
			fmt.Fprintf(&sb, "**%d. %s** (%.1f/10) - %s\n", i+2, v.Name, v.Score, FormatDistance(v.Distance))
		}
	}

	return sb.String()
}

func amenityBadges(v models.ScoredVenue) []string {
	var badges []string
	if v.WifiQuality != nil && *v.WifiQuality >= 4 {
		badges = append(badges, "Strong WiFi")
	}
	if v.HasOutlets != nil && *v.HasOutlets {
		badges = append(badges, "Power outlets")
	}
	if v.NoiseLevel == models.NoiseQuiet {
		badges = append(badges, "Quiet")
	}
	return badges
}

func buildSuggestions(haveResults bool) []string {
	if haveResults {
		return []string{
			"Show me directions to the top spot",
			"Find somewhere closer",
			"Show quieter options",
			"Show coworking spaces only",
		}
	}
	return []string{
		"Search in a different area",
		"Try a wider search radius",
		"Show coworking spaces only",
	}
}

// FormatDistance renders meters as "420m" below one kilometer and a
// one-decimal "1.3km" above it.
func FormatDistance(meters *float64) string {
	if meters == nil {
		return "unknown distance"
	}
	m := *meters
	if m < 1000 {
		return fmt.Sprintf("%dm", int(math.Round(m)))
	}
	return fmt.Sprintf("%.1fkm", m/1000)
}
