package databases

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the registration transaction relies on.
// Session transactions only conflict on overlapping document writes, so two
// concurrent registrations can both pass the read-side existence checks; the
// unique indexes on phone and code turn that race into a duplicate key abort
// instead of committed duplicates.
func EnsureIndexes(ctx context.Context, db DatabaseHelper) error {
	if err := db.Collection(userName).CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "referrerId", Value: 1}}},
	}); err != nil {
		return err
	}
	if err := db.Collection(referralCodeName).CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return err
	}
	return db.Collection(pendingVerificationName).CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
}
