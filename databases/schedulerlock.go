package databases

// go generate: mockery --name SchedulerLockDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const schedulerLockName = "schedulerLocks"

// SchedulerLockDatabase provides a best-effort distributed lock so that a
// scheduled job runs on only one instance at a time.
type SchedulerLockDatabase interface {
	TryAcquireLock(ctx context.Context, job, instance string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, job, instance string) error
}

type schedulerLockDatabase struct {
	db DatabaseHelper
}

// NewSchedulerLockDatabase initializes a new instance of schedulerLock database with the provided db connection
func NewSchedulerLockDatabase(db DatabaseHelper) SchedulerLockDatabase {
	return &schedulerLockDatabase{
		db: db,
	}
}

// TryAcquireLock upserts the lock document keyed by job name. The upsert only
// matches a free or expired lock; a live lock held elsewhere makes the upsert
// collide on _id, which we treat as "not acquired".
func (s *schedulerLockDatabase) TryAcquireLock(ctx context.Context, job, instance string, ttl time.Duration) (bool, error) {
	now := time.Now()
	filter := bson.M{
		"_id":       job,
		"expiresAt": bson.M{"$lt": primitive.NewDateTimeFromTime(now)},
	}
	update := bson.M{"$set": bson.M{
		"instance":  instance,
		"expiresAt": primitive.NewDateTimeFromTime(now.Add(ttl)),
	}}
	opts := options.Update().SetUpsert(true)

	_, err := s.db.Collection(schedulerLockName).UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *schedulerLockDatabase) ReleaseLock(ctx context.Context, job, instance string) error {
	return s.db.Collection(schedulerLockName).DeleteOne(ctx, bson.M{"_id": job, "instance": instance})
}
