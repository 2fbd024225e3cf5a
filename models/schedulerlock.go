package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// SchedulerLock is a short-lived distributed lock document so that cron jobs
// run on exactly one instance at a time.
type SchedulerLock struct {
	ID        string             `json:"_id" bson:"_id"`
	Instance  string             `json:"instance" bson:"instance"`
	ExpiresAt primitive.DateTime `json:"expiresAt" bson:"expiresAt"`
}
