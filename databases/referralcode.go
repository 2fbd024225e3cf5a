package databases

// go generate: mockery --name ReferralCodeDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/talowa/referral-api/models"
)

const referralCodeName = "referralCodes"

// ReferralCodeDatabase contains the methods to use with the referralCode database
type ReferralCodeDatabase interface {
	FindByCode(ctx context.Context, code string) (*models.ReferralCode, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ReferralCode, error)
	Exists(ctx context.Context, code string) (bool, error)
	InsertOne(ctx context.Context, referralCode models.ReferralCode, opts ...*options.InsertOneOptions) error
	IncrementUsedCount(ctx context.Context, code string) error
	SetActive(ctx context.Context, code string, active bool) error
}

type referralCodeDatabase struct {
	db DatabaseHelper
}

// NewReferralCodeDatabase initializes a new instance of referralCode database with the provided db connection
func NewReferralCodeDatabase(db DatabaseHelper) ReferralCodeDatabase {
	return &referralCodeDatabase{
		db: db,
	}
}

func (c *referralCodeDatabase) FindByCode(ctx context.Context, code string) (*models.ReferralCode, error) {
	referralCode := &models.ReferralCode{}
	err := c.db.Collection(referralCodeName).FindOne(ctx, bson.M{"code": code}).Decode(referralCode)
	if err != nil {
		return nil, err
	}
	return referralCode, nil
}

func (c *referralCodeDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ReferralCode, error) {
	var referralCodes []models.ReferralCode
	cur, err := c.db.Collection(referralCodeName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &referralCodes)
	if err != nil {
		return nil, err
	}
	return referralCodes, nil
}

func (c *referralCodeDatabase) Exists(ctx context.Context, code string) (bool, error) {
	count, err := c.db.Collection(referralCodeName).CountDocuments(ctx, bson.M{"code": code})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (c *referralCodeDatabase) InsertOne(ctx context.Context, referralCode models.ReferralCode, opts ...*options.InsertOneOptions) error {
	_, err := c.db.Collection(referralCodeName).InsertOne(ctx, referralCode, opts...)
	return err
}

func (c *referralCodeDatabase) IncrementUsedCount(ctx context.Context, code string) error {
	_, err := c.db.Collection(referralCodeName).UpdateOne(ctx, bson.M{"code": code}, bson.M{"$inc": bson.M{"usedCount": 1}})
	return err
}

func (c *referralCodeDatabase) SetActive(ctx context.Context, code string, active bool) error {
	set := bson.M{"active": active}
	if active {
		set["deactivatedAt"] = nil
	} else {
		set["deactivatedAt"] = primitive.NewDateTimeFromTime(time.Now())
	}
	_, err := c.db.Collection(referralCodeName).UpdateOne(ctx, bson.M{"code": code}, bson.M{"$set": set})
	return err
}
