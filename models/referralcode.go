package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReferralCode holds the structure for the referralCodes collection in mongo.
// A code maps to exactly one owning user and is immutable after creation,
// except for deactivation by an admin.
type ReferralCode struct {
	ID            primitive.ObjectID  `json:"_id" bson:"_id"`
	Code          string              `json:"code" bson:"code"`
	OwnerID       primitive.ObjectID  `json:"ownerId" bson:"ownerId"`
	Active        bool                `json:"active" bson:"active"`
	UsedCount     int64               `json:"usedCount" bson:"usedCount"`
	CreatedAt     primitive.DateTime  `json:"createdAt" bson:"createdAt"`
	DeactivatedAt *primitive.DateTime `json:"deactivatedAt,omitempty" bson:"deactivatedAt,omitempty"`
}
