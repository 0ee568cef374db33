package services

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"worksphere/models"
	"worksphere/utils/errors"
)

// enrichConcurrency bounds parallel crowdsourced lookups per request so a
// large venue batch cannot overwhelm the store.
const enrichConcurrency = 10

const venueCacheTTL = 24 * time.Hour

// VenueService owns crowdsourced venue data in MongoDB and a Redis geo
// cache of recently fetched venues.
type VenueService struct {
	venues      *mongo.Collection
	ratings     *mongo.Collection
	RedisClient *redis.Client
}

func NewVenueService() *VenueService {
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		log.Fatal("MONGODB_URI environment variable is not set")
	}
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("MongoDB connection failed: %v", err)
	}
	if err := client.Ping(context.Background(), nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	log.Println("Connected to MongoDB")
	db := client.Database("worksphere")

	service := &VenueService{
		venues:  db.Collection("venues"),
		ratings: db.Collection("venue_ratings"),
	}

	// One rating per user and venue.
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "venue_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := service.ratings.Indexes().CreateOne(context.Background(), indexModel); err != nil {
		log.Printf("Failed to create unique index on venue_ratings: %v", err)
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		log.Fatal("REDIS_ADDR environment variable is not set")
	}
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		redisDB, err = strconv.Atoi(redisDBStr)
		if err != nil {
			log.Fatalf("Invalid REDIS_DB value: %v", err)
		}
	}
	service.RedisClient = redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   redisDB,
	})
	if err := service.RedisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	return service
}

// Enrich merges crowdsourced amenity overrides into fetched venues.
// Lookups run concurrently but bounded; a failed lookup leaves the venue
// untouched rather than failing the batch.
func (s *VenueService) Enrich(ctx context.Context, venues []models.Venue) []models.Venue {
	enriched := make([]models.Venue, len(venues))
	copy(enriched, venues)

	sem := make(chan struct{}, enrichConcurrency)
	var wg sync.WaitGroup
	for i := range enriched {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			var stored models.Venue
			err := s.venues.FindOne(ctx, bson.M{"place_id": enriched[i].PlaceID}).Decode(&stored)
			if err != nil {
				if err != mongo.ErrNoDocuments {
					log.Printf("Crowdsourced lookup failed for %s: %v", enriched[i].PlaceID, err)
				}
				return
			}
			if !stored.Crowdsourced {
				return
			}
			if stored.WifiQuality != nil {
				enriched[i].WifiQuality = stored.WifiQuality
			}
			if stored.HasOutlets != nil {
				enriched[i].HasOutlets = stored.HasOutlets
			}
			if stored.NoiseLevel != "" {
				enriched[i].NoiseLevel = stored.NoiseLevel
			}
			if stored.Rating != nil {
				enriched[i].Rating = stored.Rating
			}
			enriched[i].Crowdsourced = true
		}(i)
	}
	wg.Wait()
	return enriched
}

// RateVenue upserts one user's rating and recomputes the venue's
// crowdsourced aggregates: mean WiFi quality (rounded), outlets by
// majority, dominant noise level.
func (s *VenueService) RateVenue(ctx context.Context, userID, venueID string, rating models.VenueRating, seed *models.Venue) (models.VenueRating, error) {
	now := time.Now().Unix()
	rating.UserID = userID
	rating.VenueID = venueID
	rating.UpdatedAt = now

	filter := bson.M{"user_id": userID, "venue_id": venueID}
	update := bson.M{
		"$set": bson.M{
			"wifi_quality": rating.WifiQuality,
			"has_outlets":  rating.HasOutlets,
			"noise_level":  rating.NoiseLevel,
			"comment":      rating.Comment,
			"updated_at":   now,
		},
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"venue_id":   venueID,
			"created_at": now,
		},
	}
	if _, err := s.ratings.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return models.VenueRating{}, errors.Wrap(err, "DB_ERROR", "failed to save rating", http.StatusInternalServerError)
	}

	if err := s.ensureVenue(ctx, venueID, seed); err != nil {
		return models.VenueRating{}, err
	}
	if err := s.recomputeAggregates(ctx, venueID); err != nil {
		return models.VenueRating{}, err
	}
	return rating, nil
}

func (s *VenueService) ensureVenue(ctx context.Context, venueID string, seed *models.Venue) error {
	doc := bson.M{
		"place_id": venueID,
		"name":     "Unknown Venue",
		"category": models.CategoryOther,
	}
	if seed != nil {
		doc["name"] = seed.Name
		doc["category"] = seed.Category
		doc["position"] = seed.Position
		if seed.Address != "" {
			doc["address"] = seed.Address
		}
	}
	update := bson.M{"$setOnInsert": doc}
	_, err := s.venues.UpdateOne(ctx, bson.M{"place_id": venueID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return errors.Wrap(err, "DB_ERROR", "failed to create venue", http.StatusInternalServerError)
	}
	return nil
}

func (s *VenueService) recomputeAggregates(ctx context.Context, venueID string) error {
	cursor, err := s.ratings.Find(ctx, bson.M{"venue_id": venueID})
	if err != nil {
		return errors.Wrap(err, "DB_ERROR", "failed to load ratings", http.StatusInternalServerError)
	}
	defer cursor.Close(ctx)

	var ratings []models.VenueRating
	if err := cursor.All(ctx, &ratings); err != nil {
		return errors.Wrap(err, "DB_ERROR", "failed to decode ratings", http.StatusInternalServerError)
	}
	if len(ratings) == 0 {
		return nil
	}

	var wifiSum, outletCount int
	noiseCounts := map[string]int{}
	for _, r := range ratings {
		wifiSum += r.WifiQuality
		if r.HasOutlets {
			outletCount++
		}
		noiseCounts[r.NoiseLevel]++
	}

	avgWifi := int(math.Round(float64(wifiSum) / float64(len(ratings))))
	hasOutlets := outletCount*2 > len(ratings)
	dominantNoise := ""
	best := 0
	for level, count := range noiseCounts {
		if count > best {
			best = count
			dominantNoise = level
		}
	}

	update := bson.M{"$set": bson.M{
		"wifi_quality": avgWifi,
		"has_outlets":  hasOutlets,
		"noise_level":  dominantNoise,
		"crowdsourced": true,
	}}
	if _, err := s.venues.UpdateOne(ctx, bson.M{"place_id": venueID}, update); err != nil {
		return errors.Wrap(err, "DB_ERROR", "failed to update venue aggregates", http.StatusInternalServerError)
	}
	return nil
}

// GetUserRating returns one user's rating for a venue.
func (s *VenueService) GetUserRating(ctx context.Context, userID, venueID string) (models.VenueRating, error) {
	var rating models.VenueRating
	err := s.ratings.FindOne(ctx, bson.M{"user_id": userID, "venue_id": venueID}).Decode(&rating)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.VenueRating{}, errors.ErrNotFound
		}
		return models.VenueRating{}, errors.Wrap(err, "DB_ERROR", "failed to load rating", http.StatusInternalServerError)
	}
	return rating, nil
}

// CacheVenues stores venues in Redis: one hash entry per venue plus a
// geo-set entry for radius queries.
func (s *VenueService) CacheVenues(ctx context.Context, venues []models.Venue) {
	for _, venue := range venues {
		venueJSON, err := json.Marshal(venue)
		if err != nil {
			log.Printf("Failed to marshal venue %s: %v", venue.Name, err)
			continue
		}
		key := "venue:" + venue.PlaceID
		if err := s.RedisClient.HSet(ctx, key, "data", venueJSON).Err(); err != nil {
			log.Printf("Failed to cache venue %s: %v", venue.Name, err)
			continue
		}
		s.RedisClient.Expire(ctx, key, venueCacheTTL)

		err = s.RedisClient.GeoAdd(ctx, "venues:geo", &redis.GeoLocation{
			Name:      venue.PlaceID,
			Longitude: venue.Position.Lng,
			Latitude:  venue.Position.Lat,
		}).Err()
		if err != nil {
			log.Printf("Failed to add venue %s to geo set: %v", venue.Name, err)
		}
	}
}

// NearbyCached queries the Redis geo cache. Distances are recomputed
// from the query origin, never taken from the cached record.
func (s *VenueService) NearbyCached(ctx context.Context, lat, lng float64, radius int, categories []string) ([]models.Venue, error) {
	geoResults, err := s.RedisClient.GeoRadius(ctx, "venues:geo", lng, lat, &redis.GeoRadiusQuery{
		Radius:    float64(radius),
		Unit:      "m",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
		Count:     50,
	}).Result()
	if err != nil {
		log.Printf("Redis GeoRadius error: %v", err)
		return nil, err
	}

	wanted := map[string]bool{}
	for _, c := range categories {
		wanted[c] = true
	}

	var results []models.Venue
	for _, geoResult := range geoResults {
		venueJSON, err := s.RedisClient.HGet(ctx, "venue:"+geoResult.Name, "data").Result()
		if err != nil {
			continue
		}
		var venue models.Venue
		if err := json.Unmarshal([]byte(venueJSON), &venue); err != nil {
			log.Printf("Failed to unmarshal cached venue %s: %v", geoResult.Name, err)
			continue
		}
		if len(wanted) > 0 && !wanted[venue.Category] {
			continue
		}
		distance := geoResult.Dist
		venue.Distance = &distance
		results = append(results, venue)
	}
	return results, nil
}
