package services

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"worksphere/models"
	"worksphere/utils/errors"
)

type UserService struct {
	collection  *mongo.Collection
	redisClient *redis.Client
	jwtSecret   string
}

func NewUserService(redisClient *redis.Client, jwtSecret string) *UserService {
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		log.Fatal("MONGODB_URI environment variable is not set")
	}
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("MongoDB connection failed: %v", err)
	}
	collection := client.Database("worksphere").Collection("users")

	// Ensure unique index on username and email
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}, {Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err = collection.Indexes().CreateOne(context.Background(), indexModel)
	if err != nil {
		log.Printf("Failed to create unique index on users: %v", err)
	}

	return &UserService{
		collection:  collection,
		redisClient: redisClient,
		jwtSecret:   jwtSecret,
	}
}

// GetUser retrieves a user from Redis or MongoDB
func (s *UserService) GetUser(ctx context.Context, userID string) (models.User, error) {
	var user models.User

	// Check Redis first
	userJSON, err := s.redisClient.Get(ctx, "user:"+userID).Result()
	if err == nil {
		if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
			log.Printf("Failed to unmarshal user %s: %v", userID, err)
		} else {
			return user, nil
		}
	}

	err = s.collection.FindOne(ctx, bson.M{"public_id": bson.M{"$eq": userID}}).Decode(&user)
	if err != nil {
		return models.User{}, err
	}

	// Cache in Redis
	userJSONBytes, err := json.Marshal(user)
	if err != nil {
		return user, err
	}
	s.redisClient.Set(ctx, "user:"+userID, userJSONBytes, 24*time.Hour)

	return user, nil
}

// AddFavorite marks a venue as one of the user's favorites.
func (s *UserService) AddFavorite(ctx context.Context, venueID string) error {
	userID, ok := ctx.Value("userID").(string)
	if !ok || userID == "" {
		return errors.ErrUnauthorized
	}
	if venueID == "" {
		return errors.ErrInvalidInput
	}

	update := bson.M{
		"$addToSet": bson.M{
			"favorite_venues": venueID,
		},
	}
	_, err := s.collection.UpdateOne(ctx, bson.M{"public_id": userID}, update)
	if err != nil {
		log.Printf("Failed to add favorite for user %s: %v", userID, err)
		return err
	}
	s.invalidateUserCache(ctx, userID)
	return nil
}

// RemoveFavorite drops a venue from the user's favorites.
func (s *UserService) RemoveFavorite(ctx context.Context, venueID string) error {
	userID, ok := ctx.Value("userID").(string)
	if !ok || userID == "" {
		return errors.ErrUnauthorized
	}
	if venueID == "" {
		return errors.ErrInvalidInput
	}

	update := bson.M{
		"$pull": bson.M{
			"favorite_venues": venueID,
		},
	}
	_, err := s.collection.UpdateOne(ctx, bson.M{"public_id": userID}, update)
	if err != nil {
		log.Printf("Failed to remove favorite for user %s: %v", userID, err)
		return err
	}
	s.invalidateUserCache(ctx, userID)
	return nil
}

// ListFavorites returns the user's favorite venue IDs.
func (s *UserService) ListFavorites(ctx context.Context) ([]string, error) {
	userID, ok := ctx.Value("userID").(string)
	if !ok || userID == "" {
		return nil, errors.ErrUnauthorized
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, errors.ErrNotFound
	}
	if user.FavoriteVenues == nil {
		return []string{}, nil
	}
	return user.FavoriteVenues, nil
}

func (s *UserService) invalidateUserCache(ctx context.Context, userID string) {
	if err := s.redisClient.Del(ctx, "user:"+userID).Err(); err != nil {
		log.Printf("Failed to invalidate user cache for %s: %v", userID, err)
	}
}
