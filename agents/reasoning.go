package agents

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"worksphere/models"
)

// Preferences select the weight row and mark explicitly requested amenities.
type Preferences struct {
	WorkType  string
	Amenities []string
}

// Ranking is the reasoning stage output.
type Ranking struct {
	RankedVenues []models.ScoredVenue
	Summary      string
}

// CriterionWeights for one work type. Every row sums to exactly 1.0 so
// the weighted total stays inside the 0-10 sub-score range; collaboration
// drops the distance criterion entirely.
type CriterionWeights struct {
	Wifi     float64
	Noise    float64
	Outlets  float64
	Rating   float64
	Distance float64
}

func (w CriterionWeights) Sum() float64 {
	return w.Wifi + w.Noise + w.Outlets + w.Rating + w.Distance
}

var workTypeWeights = map[string]CriterionWeights{
	models.WorkTypeFocus:         {Wifi: 0.25, Noise: 0.35, Outlets: 0.20, Rating: 0.10, Distance: 0.10},
	models.WorkTypeCalls:         {Wifi: 0.35, Noise: 0.30, Outlets: 0.15, Rating: 0.10, Distance: 0.10},
	models.WorkTypeCollaboration: {Wifi: 0.30, Noise: 0.20, Outlets: 0.25, Rating: 0.25, Distance: 0},
	models.WorkTypeCasual:        {Wifi: 0.30, Noise: 0.25, Outlets: 0.20, Rating: 0.15, Distance: 0.10},
}

// WeightsFor returns the weight row for a work type, defaulting to casual.
func WeightsFor(workType string) CriterionWeights {
	if w, ok := workTypeWeights[workType]; ok {
		return w
	}
	return workTypeWeights[models.WorkTypeCasual]
}

const neutralScore = 5.0

// Score computes a weighted multi-criterion score per venue, sorts
// descending, and attaches human-readable reasoning. Ties keep input
// order (stable sort). An empty input returns an empty ranking with a
// "no results" summary, never an error.
func Score(venues []models.Venue, prefs Preferences) Ranking {
	if len(venues) == 0 {
		return Ranking{
			RankedVenues: []models.ScoredVenue{},
			Summary:      "No suitable workspaces found",
		}
	}

	weights := WeightsFor(prefs.WorkType)
	outletsRequired := hasAmenity(prefs.Amenities, "outlets")

	ranked := make([]models.ScoredVenue, 0, len(venues))
	for _, venue := range venues {
		breakdown := models.ScoreBreakdown{
			Wifi:     scoreWifi(venue.WifiQuality),
			Noise:    scoreNoise(venue.NoiseLevel, prefs.WorkType),
			Outlets:  scoreOutlets(venue.HasOutlets, outletsRequired),
			Rating:   scoreRating(venue.Rating),
			Distance: scoreDistance(venue.Distance),
		}

		total := breakdown.Wifi*weights.Wifi +
			breakdown.Noise*weights.Noise +
			breakdown.Outlets*weights.Outlets +
			breakdown.Rating*weights.Rating +
			breakdown.Distance*weights.Distance

		ranked = append(ranked, models.ScoredVenue{
			Venue:          venue,
			Score:          math.Round(total*100) / 100,
			ScoreBreakdown: breakdown,
			Reasoning:      reasoningText(breakdown, prefs.WorkType),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	top := ranked[0]
	plural := "s"
	if len(ranked) == 1 {
		plural = ""
	}
	summary := fmt.Sprintf("Found %d workspace%s. Top pick: %s (score: %.1f/10)",
		len(ranked), plural, top.Name, top.Score)

	return Ranking{RankedVenues: ranked, Summary: summary}
}

// Per-criterion scoring, each on a 0-10 scale. Unknown attributes score
// the neutral 5 so missing data neither helps nor hurts a venue.

func scoreWifi(quality *int) float64 {
	if quality == nil {
		return neutralScore
	}
	return float64(*quality) * 2
}

func scoreNoise(level, workType string) float64 {
	if level == "" {
		return neutralScore
	}
	var score float64
	switch level {
	case models.NoiseQuiet:
		score = 10
	case models.NoiseModerate:
		score = 6
	case models.NoiseLoud:
		score = 3
	default:
		score = neutralScore
	}

	if level == models.NoiseLoud && (workType == models.WorkTypeFocus || workType == models.WorkTypeCalls) {
		score -= 2
	}
	if level == models.NoiseQuiet && workType == models.WorkTypeCasual {
		score += 1
	}
	return math.Max(0, math.Min(10, score))
}

func scoreOutlets(hasOutlets *bool, required bool) float64 {
	if hasOutlets == nil {
		return neutralScore
	}
	if *hasOutlets {
		return 10
	}
	if required {
		return 2
	}
	return neutralScore
}

func scoreRating(rating *float64) float64 {
	if rating == nil {
		return neutralScore
	}
	return *rating * 2
}

// scoreDistance bands distance to the search origin; closer is better.
func scoreDistance(distance *float64) float64 {
	if distance == nil {
		return neutralScore
	}
	switch d := *distance; {
	case d < 500:
		return 10
	case d < 1000:
		return 8
	case d < 2000:
		return 6
	default:
		return 4
	}
}

// reasoningText derives strength/weakness phrases from sub-score
// thresholds: >=8 is a strength, <=4 a weakness. All mid-range scores
// produce the generic fallback instead of an empty string.
func reasoningText(b models.ScoreBreakdown, workType string) string {
	var strengths, weaknesses []string

	if b.Wifi >= 8 {
		strengths = append(strengths, "excellent WiFi")
	} else if b.Wifi <= 4 {
		weaknesses = append(weaknesses, "weak WiFi")
	}
	if b.Noise >= 8 {
		strengths = append(strengths, "very quiet")
	} else if b.Noise <= 4 {
		weaknesses = append(weaknesses, "noisy environment")
	}
	if b.Outlets >= 8 {
		strengths = append(strengths, "plenty of outlets")
	} else if b.Outlets <= 4 {
		weaknesses = append(weaknesses, "limited outlets")
	}
	if b.Distance >= 8 {
		strengths = append(strengths, "very close")
	} else if b.Distance <= 4 {
		weaknesses = append(weaknesses, "a bit far")
	}

	if workType == "" {
		workType = "work"
	}

	var sb strings.Builder
	if len(strengths) > 0 {
		fmt.Fprintf(&sb, "Great for %s - %s.", workType, strings.Join(strengths, ", "))
	}
	if len(weaknesses) > 0 {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "Note: %s.", strings.Join(weaknesses, ", "))
	}
	if sb.Len() == 0 {
		return fmt.Sprintf("Decent option for %s.", workType)
	}
	return sb.String()
}

func hasAmenity(amenities []string, amenity string) bool {
	for _, a := range amenities {
		if a == amenity {
			return true
		}
	}
	return false
}
