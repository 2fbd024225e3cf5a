package databases

// go generate: mockery --name UserDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/talowa/referral-api/models"
)

const userName = "users"

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.User, error)
	FindDirectReferrals(ctx context.Context, referrerID primitive.ObjectID, limit, page int) ([]models.User, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	Insert(ctx context.Context, user models.User) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, name string) error
	SetReferralCode(ctx context.Context, id primitive.ObjectID, code string) error
	SetReferrer(ctx context.Context, id primitive.ObjectID, referrerID primitive.ObjectID, code string, chain []primitive.ObjectID) error
	IncrementDirectReferrals(ctx context.Context, id primitive.ObjectID) error
	IncrementTeamSize(ctx context.Context, ids []primitive.ObjectID) error
	PromoteRank(ctx context.Context, id primitive.ObjectID, rank int, rankName string) error
	PromoteRanksMatching(ctx context.Context, minDirect, minTeam int64, rank int, rankName string) (int64, error)
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (u *userDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user := &models.User{}
	err := u.db.Collection(userName).FindOne(ctx, bson.M{"_id": id}).Decode(user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userDatabase) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	user := &models.User{}
	err := u.db.Collection(userName).FindOne(ctx, bson.M{"phone": phone}).Decode(user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userDatabase) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	return u.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (u *userDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.User, error) {
	var users []models.User
	cur, err := u.db.Collection(userName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// FindDirectReferrals pages through the users whose referrer link points at
// referrerID, newest first.
func (u *userDatabase) FindDirectReferrals(ctx context.Context, referrerID primitive.ObjectID, limit, page int) ([]models.User, error) {
	opts := newMongoPaginate(limit, page).getPaginatedOpts()
	opts.SetSort(bson.M{"createdAt": -1})
	return u.Find(ctx, bson.M{"referrerId": referrerID}, opts)
}

func (u *userDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	count, err := u.db.Collection(userName).CountDocuments(ctx, filter, opts...)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (u *userDatabase) Insert(ctx context.Context, user models.User) error {
	_, err := u.db.Collection(userName).InsertOne(ctx, user)
	return err
}

func (u *userDatabase) UpdateProfile(ctx context.Context, id primitive.ObjectID, name string) error {
	update := bson.M{"$set": bson.M{
		"name":      name,
		"updatedAt": primitive.NewDateTimeFromTime(time.Now()),
	}}
	_, err := u.db.Collection(userName).UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// SetReferralCode assigns the user's own code. The filter guards the
// invariant that an assigned code never changes.
func (u *userDatabase) SetReferralCode(ctx context.Context, id primitive.ObjectID, code string) error {
	filter := bson.M{"_id": id, "referralCode": ""}
	update := bson.M{"$set": bson.M{
		"referralCode": code,
		"updatedAt":    primitive.NewDateTimeFromTime(time.Now()),
	}}
	_, err := u.db.Collection(userName).UpdateOne(ctx, filter, update)
	return err
}

// SetReferrer records the one-shot referrer link and the materialized
// ancestor chain. The nil-referrerId filter makes the write idempotent.
func (u *userDatabase) SetReferrer(ctx context.Context, id primitive.ObjectID, referrerID primitive.ObjectID, code string, chain []primitive.ObjectID) error {
	filter := bson.M{"_id": id, "referrerId": nil}
	update := bson.M{"$set": bson.M{
		"referrerId":    referrerID,
		"referredBy":    code,
		"referralChain": chain,
		"updatedAt":     primitive.NewDateTimeFromTime(time.Now()),
	}}
	_, err := u.db.Collection(userName).UpdateOne(ctx, filter, update)
	return err
}

func (u *userDatabase) IncrementDirectReferrals(ctx context.Context, id primitive.ObjectID) error {
	_, err := u.db.Collection(userName).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"directReferrals": 1}})
	return err
}

func (u *userDatabase) IncrementTeamSize(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}}
	_, err := u.db.Collection(userName).UpdateMany(ctx, filter, bson.M{"$inc": bson.M{"teamSize": 1}})
	return err
}

// PromoteRank writes the rank only if it is higher than the stored one, so
// ranks are monotonically non-decreasing.
func (u *userDatabase) PromoteRank(ctx context.Context, id primitive.ObjectID, rank int, rankName string) error {
	filter := bson.M{"_id": id, "rank": bson.M{"$lt": rank}}
	update := bson.M{"$set": bson.M{
		"rank":      rank,
		"rankName":  rankName,
		"updatedAt": primitive.NewDateTimeFromTime(time.Now()),
	}}
	_, err := u.db.Collection(userName).UpdateOne(ctx, filter, update)
	return err
}

// PromoteRanksMatching bulk-promotes every user who meets both thresholds of
// a tier but still holds a lower rank. Used by the nightly rank audit.
func (u *userDatabase) PromoteRanksMatching(ctx context.Context, minDirect, minTeam int64, rank int, rankName string) (int64, error) {
	filter := bson.M{
		"directReferrals": bson.M{"$gte": minDirect},
		"teamSize":        bson.M{"$gte": minTeam},
		"rank":            bson.M{"$lt": rank},
	}
	update := bson.M{"$set": bson.M{
		"rank":      rank,
		"rankName":  rankName,
		"updatedAt": primitive.NewDateTimeFromTime(time.Now()),
	}}
	res, err := u.db.Collection(userName).UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
