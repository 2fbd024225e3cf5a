package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User holds the structure for the user collection in mongo
type User struct {
	ID              primitive.ObjectID   `json:"_id" bson:"_id"`
	Phone           string               `json:"phone" bson:"phone"`
	Name            string               `json:"name" bson:"name"`
	Password        string               `json:"-" bson:"password"`
	ReferralCode    string               `json:"referralCode" bson:"referralCode"`
	ReferredBy      string               `json:"referredBy,omitempty" bson:"referredBy,omitempty"`
	ReferrerID      *primitive.ObjectID  `json:"referrerId,omitempty" bson:"referrerId,omitempty"`
	ReferralChain   []primitive.ObjectID `json:"referralChain" bson:"referralChain"`
	DirectReferrals int64                `json:"directReferrals" bson:"directReferrals"`
	TeamSize        int64                `json:"teamSize" bson:"teamSize"`
	Rank            int                  `json:"rank" bson:"rank"`
	RankName        string               `json:"rankName" bson:"rankName"`
	CreatedAt       primitive.DateTime   `json:"createdAt" bson:"createdAt"`
	UpdatedAt       primitive.DateTime   `json:"updatedAt" bson:"updatedAt"`
}

// HasReferrer reports whether this user has already been credited to a
// referrer. Crediting is one-shot: once the link is set it never changes.
func (u *User) HasReferrer() bool {
	return u.ReferrerID != nil
}
