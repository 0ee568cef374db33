package models

// Venue categories (closed set).
const (
	CategoryCafe      = "cafe"
	CategoryCoworking = "coworking"
	CategoryLibrary   = "library"
	CategoryOther     = "other"
)

// Noise levels. An empty string means unknown.
const (
	NoiseQuiet    = "quiet"
	NoiseModerate = "moderate"
	NoiseLoud     = "loud"
)

// Work types drive the scoring weight selection.
const (
	WorkTypeFocus         = "focus"
	WorkTypeCalls         = "calls"
	WorkTypeCollaboration = "collaboration"
	WorkTypeCasual        = "casual"
)

type LatLng struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Venue is a candidate workspace. Amenity fields use pointers so that
// "unknown" stays distinct from a known negative value; scoring treats
// nil as neutral, never as a downside.
type Venue struct {
	ID           string   `json:"id" bson:"_id,omitempty"`
	PlaceID      string   `json:"place_id" bson:"place_id"`
	Name         string   `json:"name" bson:"name"`
	Position     LatLng   `json:"position" bson:"position"`
	Category     string   `json:"category" bson:"category"`
	Address      string   `json:"address,omitempty" bson:"address,omitempty"`
	WifiQuality  *int     `json:"wifi_quality,omitempty" bson:"wifi_quality,omitempty"`
	HasOutlets   *bool    `json:"has_outlets,omitempty" bson:"has_outlets,omitempty"`
	NoiseLevel   string   `json:"noise_level,omitempty" bson:"noise_level,omitempty"`
	Rating       *float64 `json:"rating,omitempty" bson:"rating,omitempty"`
	OpeningHours string   `json:"opening_hours,omitempty" bson:"opening_hours,omitempty"`
	Crowdsourced bool     `json:"crowdsourced" bson:"crowdsourced"`

	// Distance in meters from the search origin. Always computed
	// server-side via great-circle distance, never taken from an
	// upstream source. Nil when no search origin was involved.
	Distance *float64 `json:"distance,omitempty" bson:"-"`
}

// ScoreBreakdown carries the per-criterion sub-scores, each on a 0-10 scale.
type ScoreBreakdown struct {
	Wifi     float64 `json:"wifi"`
	Noise    float64 `json:"noise"`
	Outlets  float64 `json:"outlets"`
	Rating   float64 `json:"rating"`
	Distance float64 `json:"distance"`
}

// ScoredVenue is produced by the reasoning stage and lives for a single
// request/response cycle; it is never persisted.
type ScoredVenue struct {
	Venue
	Score          float64        `json:"score"`
	ScoreBreakdown ScoreBreakdown `json:"score_breakdown"`
	Reasoning      string         `json:"reasoning"`
}

// SearchParameters is the context stage output: one per user turn,
// consumed once by the data fetcher, then discarded.
type SearchParameters struct {
	Intent    string   `json:"intent"`
	WorkType  string   `json:"work_type"`
	Amenities []string `json:"amenities"`
	Location  *LatLng  `json:"location,omitempty"`
	Radius    int      `json:"radius"`
	Category  []string `json:"category"`
	Reasoning string   `json:"reasoning,omitempty"`
}

// VenueFilters are caller-supplied boolean constraints applied after
// normalization, regardless of what the upstream source already filtered.
type VenueFilters struct {
	Wifi    bool `json:"wifi,omitempty"`
	Outlets bool `json:"outlets,omitempty"`
	Quiet   bool `json:"quiet,omitempty"`
}

// VenueMeta reports where the venues came from. Source is "none" when no
// location was available, "error" when every upstream endpoint failed.
type VenueMeta struct {
	Source string `json:"source"`
	Total  int    `json:"total"`
}

type VenueResult struct {
	Venues []Venue   `json:"venues"`
	Meta   VenueMeta `json:"meta"`
}

// VenueRating is a single user's crowdsourced rating of a venue.
type VenueRating struct {
	ID          string `json:"id" bson:"_id,omitempty"`
	UserID      string `json:"user_id" bson:"user_id"`
	VenueID     string `json:"venue_id" bson:"venue_id"`
	WifiQuality int    `json:"wifi_quality" bson:"wifi_quality"`
	HasOutlets  bool   `json:"has_outlets" bson:"has_outlets"`
	NoiseLevel  string `json:"noise_level" bson:"noise_level"`
	Comment     string `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt   int64  `json:"created_at" bson:"created_at"`
	UpdatedAt   int64  `json:"updated_at" bson:"updated_at"`
}

// Marker is the map-renderer payload shape for one venue.
type Marker struct {
	ID          string  `json:"id"`
	Position    LatLng  `json:"position"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Score       float64 `json:"score"`
	WifiQuality *int    `json:"wifi_quality,omitempty"`
	HasOutlets  *bool   `json:"has_outlets,omitempty"`
	NoiseLevel  string  `json:"noise_level,omitempty"`
	Address     string  `json:"address,omitempty"`
	Distance    string  `json:"distance"`
}

// MapView suggests a viewport. A nil View in MapUpdates means "keep the
// previous viewport" - there is no default-coordinate sentinel.
type MapView struct {
	Center  LatLng `json:"center"`
	Zoom    int    `json:"zoom"`
	Animate bool   `json:"animate"`
}

type MapUpdates struct {
	Markers []Marker `json:"markers"`
	View    *MapView `json:"view,omitempty"`
}
