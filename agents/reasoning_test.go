package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worksphere/models"
)

func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestWeightRowsSumToOne(t *testing.T) {
	for workType, weights := range workTypeWeights {
		assert.InDelta(t, 1.0, weights.Sum(), 1e-9, "weights for %s must sum to 1.0", workType)
	}
}

func TestUnknownAttributesScoreNeutral(t *testing.T) {
	venue := models.Venue{ID: "1", Name: "Mystery Cafe", Category: models.CategoryCafe}

	for _, workType := range []string{
		models.WorkTypeFocus, models.WorkTypeCalls,
		models.WorkTypeCollaboration, models.WorkTypeCasual,
	} {
		ranking := Score([]models.Venue{venue}, Preferences{WorkType: workType})
		require.Len(t, ranking.RankedVenues, 1)

		b := ranking.RankedVenues[0].ScoreBreakdown
		assert.Equal(t, neutralScore, b.Wifi, "wifi for %s", workType)
		assert.Equal(t, neutralScore, b.Noise, "noise for %s", workType)
		assert.Equal(t, neutralScore, b.Outlets, "outlets for %s", workType)
		assert.Equal(t, neutralScore, b.Rating, "rating for %s", workType)
		assert.Equal(t, neutralScore, b.Distance, "distance for %s", workType)
		assert.InDelta(t, neutralScore, ranking.RankedVenues[0].Score, 1e-9)
	}
}

func TestScoreBoundedByTen(t *testing.T) {
	best := models.Venue{
		ID:          "1",
		Name:        "Perfect Spot",
		Category:    models.CategoryCoworking,
		WifiQuality: intPtr(5),
		HasOutlets:  boolPtr(true),
		NoiseLevel:  models.NoiseQuiet,
		Rating:      floatPtr(5),
		Distance:    floatPtr(100),
	}

	for workType := range workTypeWeights {
		ranking := Score([]models.Venue{best}, Preferences{WorkType: workType})
		score := ranking.RankedVenues[0].Score
		assert.LessOrEqual(t, score, 10.0, "score for %s", workType)
		assert.Greater(t, score, 9.0, "a perfect venue should score near the top for %s", workType)
	}
}

func TestDistanceScoringMonotonic(t *testing.T) {
	distances := []float64{100, 499, 500, 999, 1000, 1999, 2000, 5000}
	previous := 11.0
	for _, d := range distances {
		score := scoreDistance(&d)
		assert.LessOrEqual(t, score, previous, "distance %v must not score above a closer venue", d)
		previous = score
	}
}

func TestDistanceBands(t *testing.T) {
	cases := []struct {
		meters float64
		want   float64
	}{
		{300, 10},
		{750, 8},
		{1500, 6},
		{3000, 4},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, scoreDistance(&tc.meters), "distance %v", tc.meters)
	}
	assert.Equal(t, neutralScore, scoreDistance(nil))
}

func TestNoiseScoreWorkTypeAdjustments(t *testing.T) {
	assert.Equal(t, 10.0, scoreNoise(models.NoiseQuiet, models.WorkTypeFocus))
	assert.Equal(t, 6.0, scoreNoise(models.NoiseModerate, models.WorkTypeFocus))
	// Loud venues take an extra penalty for focus and calls.
	assert.Equal(t, 1.0, scoreNoise(models.NoiseLoud, models.WorkTypeFocus))
	assert.Equal(t, 1.0, scoreNoise(models.NoiseLoud, models.WorkTypeCalls))
	assert.Equal(t, 3.0, scoreNoise(models.NoiseLoud, models.WorkTypeCollaboration))
	// Casual gets a quiet bonus, clamped to 10.
	assert.Equal(t, 10.0, scoreNoise(models.NoiseQuiet, models.WorkTypeCasual))
	assert.Equal(t, neutralScore, scoreNoise("", models.WorkTypeFocus))
}

func TestOutletScoring(t *testing.T) {
	assert.Equal(t, 10.0, scoreOutlets(boolPtr(true), false))
	assert.Equal(t, 10.0, scoreOutlets(boolPtr(true), true))
	// Known-false only hurts when outlets were explicitly requested.
	assert.Equal(t, 2.0, scoreOutlets(boolPtr(false), true))
	assert.Equal(t, neutralScore, scoreOutlets(boolPtr(false), false))
	assert.Equal(t, neutralScore, scoreOutlets(nil, true))
}

func TestSortDescendingStable(t *testing.T) {
	quiet := models.Venue{ID: "good", Name: "Good", NoiseLevel: models.NoiseQuiet}
	loud := models.Venue{ID: "bad", Name: "Bad", NoiseLevel: models.NoiseLoud}
	tiedA := models.Venue{ID: "tie-a", Name: "Tie A"}
	tiedB := models.Venue{ID: "tie-b", Name: "Tie B"}

	ranking := Score([]models.Venue{loud, tiedA, quiet, tiedB}, Preferences{WorkType: models.WorkTypeFocus})
	require.Len(t, ranking.RankedVenues, 4)

	for i := 1; i < len(ranking.RankedVenues); i++ {
		assert.GreaterOrEqual(t, ranking.RankedVenues[i-1].Score, ranking.RankedVenues[i].Score)
	}

	// Equal scores keep input order.
	var tieOrder []string
	for _, v := range ranking.RankedVenues {
		if v.ID == "tie-a" || v.ID == "tie-b" {
			tieOrder = append(tieOrder, v.ID)
		}
	}
	assert.Equal(t, []string{"tie-a", "tie-b"}, tieOrder)
}

func TestScoreEmptyInput(t *testing.T) {
	ranking := Score(nil, Preferences{WorkType: models.WorkTypeFocus})
	assert.Empty(t, ranking.RankedVenues)
	assert.NotEmpty(t, ranking.Summary)
	assert.Contains(t, ranking.Summary, "No suitable workspaces")
}

func TestReasoningText(t *testing.T) {
	strong := models.ScoreBreakdown{Wifi: 10, Noise: 10, Outlets: 10, Rating: 9, Distance: 10}
	text := reasoningText(strong, models.WorkTypeFocus)
	assert.Contains(t, text, "excellent WiFi")
	assert.Contains(t, text, "very quiet")

	weak := models.ScoreBreakdown{Wifi: 2, Noise: 3, Outlets: 2, Rating: 4, Distance: 4}
	text = reasoningText(weak, models.WorkTypeCalls)
	assert.Contains(t, text, "weak WiFi")
	assert.Contains(t, text, "noisy environment")

	// All mid-range sub-scores still produce a non-empty phrase.
	mid := models.ScoreBreakdown{Wifi: 5, Noise: 5, Outlets: 5, Rating: 5, Distance: 5}
	assert.Equal(t, "Decent option for focus.", reasoningText(mid, models.WorkTypeFocus))
}

func TestWeightsForUnknownWorkType(t *testing.T) {
	assert.Equal(t, workTypeWeights[models.WorkTypeCasual], WeightsFor("unknown"))
	assert.Equal(t, workTypeWeights[models.WorkTypeFocus], WeightsFor(models.WorkTypeFocus))
}
