package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReferralEvent is the immutable audit record of one successful crediting
// action. Written once per registration-with-code, never updated or deleted.
type ReferralEvent struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id"`
	ReferrerID primitive.ObjectID `json:"referrerId" bson:"referrerId"`
	NewUserID  primitive.ObjectID `json:"newUserId" bson:"newUserId"`
	Code       string             `json:"code" bson:"code"`
	CreatedAt  primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
