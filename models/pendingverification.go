package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// PendingVerification holds the structure for the pending verification collection in MongoDB
type PendingVerification struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	Phone     string             `json:"phone" bson:"phone"`
	Code      string             `json:"code" bson:"code"`
	Attempts  int                `json:"attempts" bson:"attempts"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
