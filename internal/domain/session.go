package domain

import "time"

// StateSession is a short-lived anti-replay record for one OAuth
// round-trip. The state token is generated at redirect time and consumed
// exactly once by the callback.
type StateSession struct {
	ID         string    `json:"id" bson:"_id"`
	State      string    `json:"state" bson:"state"`
	ShopDomain string    `json:"shop_domain" bson:"shop_domain"`
	Provider   Provider  `json:"provider" bson:"provider"`
	ExpiresAt  time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}
