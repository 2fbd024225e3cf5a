package databases

// go generate: mockery --name ReferralEventDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/talowa/referral-api/models"
)

const referralEventName = "referralEvents"

// ReferralEventDatabase contains the methods to use with the referralEvent database
type ReferralEventDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ReferralEvent, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, referralEvent models.ReferralEvent, opts ...*options.InsertOneOptions) error
}

type referralEventDatabase struct {
	db DatabaseHelper
}

// NewReferralEventDatabase initializes a new instance of referralEvent database with the provided db connection
func NewReferralEventDatabase(db DatabaseHelper) ReferralEventDatabase {
	return &referralEventDatabase{
		db: db,
	}
}

func (e *referralEventDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ReferralEvent, error) {
	var referralEvents []models.ReferralEvent
	cur, err := e.db.Collection(referralEventName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &referralEvents)
	if err != nil {
		return nil, err
	}
	return referralEvents, nil
}

func (e *referralEventDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	count, err := e.db.Collection(referralEventName).CountDocuments(ctx, filter, opts...)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (e *referralEventDatabase) InsertOne(ctx context.Context, referralEvent models.ReferralEvent, opts ...*options.InsertOneOptions) error {
	_, err := e.db.Collection(referralEventName).InsertOne(ctx, referralEvent, opts...)
	return err
}
