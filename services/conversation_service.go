package services

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"worksphere/models"
	"worksphere/utils/errors"
)

// ConversationService persists chat transcripts in MongoDB. The pipeline
// itself never writes here; handlers save transcripts around it.
type ConversationService struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
}

func NewConversationService() *ConversationService {
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		log.Fatal("MONGODB_URI environment variable is not set")
	}
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("MongoDB connection failed: %v", err)
	}
	db := client.Database("worksphere")
	return &ConversationService{
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
	}
}

func (s *ConversationService) CreateConversation(ctx context.Context, userID, title string) (models.Conversation, error) {
	if title == "" {
		title = "New conversation"
	}
	now := time.Now()
	conversation := models.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.conversations.InsertOne(ctx, conversation); err != nil {
		return models.Conversation{}, errors.Wrap(err, "DB_ERROR", "failed to create conversation", http.StatusInternalServerError)
	}
	return conversation, nil
}

func (s *ConversationService) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := s.conversations.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "failed to list conversations", http.StatusInternalServerError)
	}
	defer cursor.Close(ctx)

	conversations := []models.Conversation{}
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "failed to decode conversations", http.StatusInternalServerError)
	}
	return conversations, nil
}

// GetConversation returns one conversation with its messages, oldest first.
func (s *ConversationService) GetConversation(ctx context.Context, userID, conversationID string) (models.Conversation, []models.Message, error) {
	var conversation models.Conversation
	err := s.conversations.FindOne(ctx, bson.M{"_id": conversationID, "user_id": userID}).Decode(&conversation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Conversation{}, nil, errors.ErrNotFound
		}
		return models.Conversation{}, nil, errors.Wrap(err, "DB_ERROR", "failed to load conversation", http.StatusInternalServerError)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.messages.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return conversation, nil, errors.Wrap(err, "DB_ERROR", "failed to load messages", http.StatusInternalServerError)
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return conversation, nil, errors.Wrap(err, "DB_ERROR", "failed to decode messages", http.StatusInternalServerError)
	}
	return conversation, messages, nil
}

func (s *ConversationService) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	result, err := s.conversations.DeleteOne(ctx, bson.M{"_id": conversationID, "user_id": userID})
	if err != nil {
		return errors.Wrap(err, "DB_ERROR", "failed to delete conversation", http.StatusInternalServerError)
	}
	if result.DeletedCount == 0 {
		return errors.ErrNotFound
	}
	if _, err := s.messages.DeleteMany(ctx, bson.M{"conversation_id": conversationID}); err != nil {
		log.Printf("Failed to delete messages for conversation %s: %v", conversationID, err)
	}
	return nil
}

// AppendMessage stores one message and bumps the conversation timestamp.
func (s *ConversationService) AppendMessage(ctx context.Context, conversationID, role, content, agentName string) error {
	message := models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		AgentName:      agentName,
		CreatedAt:      time.Now(),
	}
	if _, err := s.messages.InsertOne(ctx, message); err != nil {
		return errors.Wrap(err, "DB_ERROR", "failed to save message", http.StatusInternalServerError)
	}
	update := bson.M{"$set": bson.M{"updated_at": time.Now()}}
	if _, err := s.conversations.UpdateOne(ctx, bson.M{"_id": conversationID}, update); err != nil {
		log.Printf("Failed to bump conversation %s: %v", conversationID, err)
	}
	return nil
}

// SaveExchange persists one user turn and the assistant reply. Best
// effort: transcript loss must never fail the chat response.
func (s *ConversationService) SaveExchange(ctx context.Context, conversationID, userMessage, assistantMessage string) {
	if conversationID == "" {
		return
	}
	if err := s.AppendMessage(ctx, conversationID, "user", userMessage, ""); err != nil {
		log.Printf("Failed to save user message: %v", err)
		return
	}
	if err := s.AppendMessage(ctx, conversationID, "assistant", assistantMessage, "ActionAgent"); err != nil {
		log.Printf("Failed to save assistant message: %v", err)
	}
}
