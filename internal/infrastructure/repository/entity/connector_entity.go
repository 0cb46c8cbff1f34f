package entity

import (
	"time"

	"shopsheet-sync/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoConnectorDoc represents a connector in MongoDB
type MongoConnectorDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	ShopDomain     string             `bson:"shopDomain"`
	Provider       string             `bson:"provider"`
	AccessToken    string             `bson:"accessToken"`
	RefreshToken   string             `bson:"refreshToken,omitempty"`
	TokenType      string             `bson:"tokenType,omitempty"`
	ExpiresAt      time.Time          `bson:"expiresAt,omitempty"`
	SpreadsheetURL string             `bson:"spreadsheetUrl,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoConnectorDoc) ToDomain() *domain.Connector {
	return &domain.Connector{
		ID:             d.ID.Hex(),
		ShopDomain:     d.ShopDomain,
		Provider:       domain.Provider(d.Provider),
		AccessToken:    d.AccessToken,
		RefreshToken:   d.RefreshToken,
		TokenType:      d.TokenType,
		ExpiresAt:      d.ExpiresAt,
		SpreadsheetURL: d.SpreadsheetURL,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// MongoStateSessionDoc represents an OAuth state session in MongoDB
type MongoStateSessionDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	State      string             `bson:"state"`
	ShopDomain string             `bson:"shopDomain"`
	Provider   string             `bson:"provider"`
	ExpiresAt  time.Time          `bson:"expiresAt"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoStateSessionDoc) ToDomain() *domain.StateSession {
	return &domain.StateSession{
		ID:         d.ID.Hex(),
		State:      d.State,
		ShopDomain: d.ShopDomain,
		Provider:   domain.Provider(d.Provider),
		ExpiresAt:  d.ExpiresAt,
		CreatedAt:  d.CreatedAt,
	}
}

// MongoStateSessionDocFromDomain converts a domain entity to a MongoDB document
func MongoStateSessionDocFromDomain(session *domain.StateSession) *MongoStateSessionDoc {
	doc := &MongoStateSessionDoc{
		State:      session.State,
		ShopDomain: session.ShopDomain,
		Provider:   string(session.Provider),
		ExpiresAt:  session.ExpiresAt,
		CreatedAt:  session.CreatedAt,
	}

	if session.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(session.ID); err == nil {
			doc.ID = objID
		}
	}

	return doc
}
