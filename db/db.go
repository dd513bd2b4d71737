package db

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UserCollection            *mongo.Collection
	BuildingsCollection       *mongo.Collection
	BuildingDetailsCollection *mongo.Collection
	PricingCollection         *mongo.Collection
	ReviewsCollection         *mongo.Collection
	LikesCollection           *mongo.Collection
	BookingsCollection        *mongo.Collection
	ChatsCollection           *mongo.Collection
	MessagesCollection        *mongo.Collection
	Client                    *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	var err error
	Client, err = mongo.Connect(context.TODO(), options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := Client.Database("nestadb")
	UserCollection = database.Collection("users")
	BuildingsCollection = database.Collection("buildings")
	BuildingDetailsCollection = database.Collection("buildingdetails")
	PricingCollection = database.Collection("pricing")
	ReviewsCollection = database.Collection("reviews")
	LikesCollection = database.Collection("likes")
	BookingsCollection = database.Collection("bookings")
	ChatsCollection = database.Collection("chats")
	MessagesCollection = database.Collection("messages")
}
