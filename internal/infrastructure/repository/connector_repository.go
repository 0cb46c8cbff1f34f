package repository

import (
	"context"
	"fmt"
	"time"

	"shopsheet-sync/internal/domain"
	"shopsheet-sync/internal/infrastructure/repository/entity"
	"shopsheet-sync/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConnectorRepository implements ConnectorRepository using MongoDB
type MongoConnectorRepository struct {
	collection *mongo.Collection
}

// NewMongoConnectorRepository creates a new MongoDB connector repository
func NewMongoConnectorRepository(db *mongo.Database) ports.ConnectorRepository {
	return &MongoConnectorRepository{
		collection: db.Collection("connectors"),
	}
}

// Get retrieves the connector for a shop and provider
func (r *MongoConnectorRepository) Get(ctx context.Context, shopDomain string, provider domain.Provider) (*domain.Connector, error) {
	var doc entity.MongoConnectorDoc
	filter := bson.M{"shopDomain": shopDomain, "provider": string(provider)}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connector: %w", err)
	}

	return doc.ToDomain(), nil
}

// Upsert applies a partial update to the connector for the key, creating
// it when absent. The unique index on (shopDomain, provider) plus the
// single conditional update serialize concurrent writers: two racing
// upserts for the same key can never produce two records.
func (r *MongoConnectorRepository) Upsert(ctx context.Context, shopDomain string, provider domain.Provider, fields domain.ConnectorUpdate) (*domain.Connector, error) {
	// Create unique index on (shopDomain, provider) if it doesn't exist
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "shopDomain", Value: 1}, {Key: "provider", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = r.collection.Indexes().CreateOne(ctx, indexModel)

	set := bson.M{"updatedAt": time.Now()}
	if fields.AccessToken != nil {
		set["accessToken"] = *fields.AccessToken
	}
	if fields.RefreshToken != nil {
		set["refreshToken"] = *fields.RefreshToken
	}
	if fields.TokenType != nil {
		set["tokenType"] = *fields.TokenType
	}
	if fields.ExpiresAt != nil {
		set["expiresAt"] = *fields.ExpiresAt
	}
	if fields.SpreadsheetURL != nil {
		set["spreadsheetUrl"] = *fields.SpreadsheetURL
	}

	filter := bson.M{"shopDomain": shopDomain, "provider": string(provider)}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"shopDomain": shopDomain,
			"provider":   string(provider),
			"createdAt":  time.Now(),
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc entity.MongoConnectorDoc
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to upsert connector: %w", err)
	}

	return doc.ToDomain(), nil
}

// Delete removes all connectors for the key
func (r *MongoConnectorRepository) Delete(ctx context.Context, shopDomain string, provider domain.Provider) (int64, error) {
	filter := bson.M{"shopDomain": shopDomain, "provider": string(provider)}
	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete connector: %w", err)
	}
	return result.DeletedCount, nil
}
