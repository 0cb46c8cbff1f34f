package repository

import (
	"context"
	"fmt"
	"time"

	"shopsheet-sync/internal/domain"
	"shopsheet-sync/internal/infrastructure/repository/entity"
	"shopsheet-sync/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoStateRepository implements StateRepository using MongoDB
type MongoStateRepository struct {
	collection *mongo.Collection
}

// NewMongoStateRepository creates a new MongoDB OAuth state repository
func NewMongoStateRepository(db *mongo.Database) ports.StateRepository {
	return &MongoStateRepository{
		collection: db.Collection("oauth_states"),
	}
}

// Create stores a new state session
func (r *MongoStateRepository) Create(ctx context.Context, session *domain.StateSession) error {
	doc := entity.MongoStateSessionDocFromDomain(session)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create state session: %w", err)
	}

	return nil
}

// Consume atomically retrieves and deletes the session for a state token.
// Expired sessions are treated as absent.
func (r *MongoStateRepository) Consume(ctx context.Context, state string) (*domain.StateSession, error) {
	var doc entity.MongoStateSessionDoc
	filter := bson.M{"state": state}

	err := r.collection.FindOneAndDelete(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume state session: %w", err)
	}

	if time.Now().After(doc.ExpiresAt) {
		return nil, nil
	}

	return doc.ToDomain(), nil
}
