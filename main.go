package main

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"worksphere/agents"
	"worksphere/handlers"
	"worksphere/middleware"
	"worksphere/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment configuration")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	// Initialize services
	venueService := services.NewVenueService()
	userService := services.NewUserService(venueService.RedisClient, jwtSecret)
	conversationService := services.NewConversationService()
	llmService := services.NewLLMService()

	// Agent pipeline: LLM-backed classification when a key is configured,
	// deterministic rule matching otherwise. Failure defaults are the
	// same either way.
	var classifier agents.Classifier = agents.NewRuleClassifier()
	var extractor agents.Extractor = agents.NewRuleExtractor()
	if llmService.Configured() {
		log.Println("LLM backend configured, using model-backed classification")
		classifier = agents.NewLLMClassifier(llmService)
		extractor = agents.NewLLMExtractor(llmService)
	}

	var overpassEndpoints []string
	if raw := os.Getenv("OVERPASS_ENDPOINTS"); raw != "" {
		overpassEndpoints = strings.Split(raw, ",")
	}
	venueSource := agents.NewOverpassSource(overpassEndpoints...)

	pipeline := agents.NewPipeline(classifier, extractor, venueSource, venueService, llmService)

	// Initialize handlers
	chatHandler := handlers.NewChatHandler(pipeline, conversationService)
	venueHandler := handlers.NewVenueHandler(venueSource, venueService)
	authHandler := handlers.NewAuthHandler(userService, jwtSecret)
	conversationHandler := handlers.NewConversationHandler(conversationService)
	favoriteHandler := handlers.NewFavoriteHandler(userService)

	chatLimiter := middleware.NewRedisRateLimiter(venueService.RedisClient, 20, time.Minute)

	r := mux.NewRouter()

	// CORS middleware
	allowedOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	r.Use(middleware.CORSMiddleware(allowedOrigins))
	r.Use(middleware.ErrorMiddleware())

	// Auth routes
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.RegisterUser).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/login", authHandler.LoginUser).Methods("POST", "OPTIONS")

	// Chat route (rate limited, anonymous access allowed). The optional
	// JWT pass runs first so authenticated callers are limited per user
	// rather than per IP.
	chatRouter := r.PathPrefix("/chat").Subrouter()
	chatRouter.Use(middleware.OptionalJWTMiddleware(jwtSecret))
	chatRouter.Use(middleware.RateLimitMiddleware(chatLimiter))
	chatRouter.HandleFunc("", chatHandler.Chat).Methods("POST", "OPTIONS")

	// Venue routes
	r.HandleFunc("/venues", venueHandler.GetNearbyVenues).Methods("GET", "OPTIONS")
	ratingRouter := r.PathPrefix("/venues/{venueId}/rate").Subrouter()
	ratingRouter.Use(middleware.JWTMiddleware(jwtSecret))
	ratingRouter.HandleFunc("", venueHandler.RateVenue).Methods("POST", "OPTIONS")
	ratingRouter.HandleFunc("", venueHandler.GetUserRating).Methods("GET", "OPTIONS")

	// Conversation routes
	conversationRouter := r.PathPrefix("/conversations").Subrouter()
	conversationRouter.Use(middleware.JWTMiddleware(jwtSecret))
	conversationRouter.HandleFunc("", conversationHandler.ListConversations).Methods("GET", "OPTIONS")
	conversationRouter.HandleFunc("", conversationHandler.CreateConversation).Methods("POST", "OPTIONS")
	conversationRouter.HandleFunc("/{id}", conversationHandler.GetConversation).Methods("GET", "OPTIONS")
	conversationRouter.HandleFunc("/{id}", conversationHandler.DeleteConversation).Methods("DELETE", "OPTIONS")

	// Favorite routes
	favoriteRouter := r.PathPrefix("/favorites").Subrouter()
	favoriteRouter.Use(middleware.JWTMiddleware(jwtSecret))
	favoriteRouter.HandleFunc("", favoriteHandler.ListFavorites).Methods("GET", "OPTIONS")
	favoriteRouter.HandleFunc("", favoriteHandler.AddFavorite).Methods("POST", "OPTIONS")
	favoriteRouter.HandleFunc("", favoriteHandler.RemoveFavorite).Methods("DELETE", "OPTIONS")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on :%s", port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
