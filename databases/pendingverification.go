package databases

// go generate: mockery --name PendingVerificationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/talowa/referral-api/models"
)

const pendingVerificationName = "pendingVerifications"

// PendingVerificationDatabase contains the methods to use with the pendingVerification database
type PendingVerificationDatabase interface {
	FindByPhone(ctx context.Context, phone string) (*models.PendingVerification, error)
	InsertOne(ctx context.Context, pendingVerification models.PendingVerification, opts ...*options.InsertOneOptions) error
	IncrementAttempts(ctx context.Context, phone string) error
	DeleteByPhone(ctx context.Context, phone string) error
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
}

type pendingVerificationDatabase struct {
	db DatabaseHelper
}

// NewPendingVerificationDatabase initializes a new instance of pendingVerification database with the provided db connection
func NewPendingVerificationDatabase(db DatabaseHelper) PendingVerificationDatabase {
	return &pendingVerificationDatabase{
		db: db,
	}
}

func (c *pendingVerificationDatabase) FindByPhone(ctx context.Context, phone string) (*models.PendingVerification, error) {
	pendingVerification := &models.PendingVerification{}
	err := c.db.Collection(pendingVerificationName).FindOne(ctx, bson.M{"phone": phone}).Decode(pendingVerification)
	if err != nil {
		return nil, err
	}
	return pendingVerification, nil
}

func (c *pendingVerificationDatabase) InsertOne(ctx context.Context, pendingVerification models.PendingVerification, opts ...*options.InsertOneOptions) error {
	_, err := c.db.Collection(pendingVerificationName).InsertOne(ctx, pendingVerification, opts...)
	return err
}

func (c *pendingVerificationDatabase) IncrementAttempts(ctx context.Context, phone string) error {
	_, err := c.db.Collection(pendingVerificationName).UpdateOne(ctx, bson.M{"phone": phone}, bson.M{"$inc": bson.M{"attempts": 1}})
	return err
}

func (c *pendingVerificationDatabase) DeleteByPhone(ctx context.Context, phone string) error {
	return c.db.Collection(pendingVerificationName).DeleteOne(ctx, bson.M{"phone": phone})
}

func (c *pendingVerificationDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return c.db.Collection(pendingVerificationName).DeleteMany(ctx, filter, opts...)
}
