package databases_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talowa/referral-api/config"
	"github.com/talowa/referral-api/databases"
	"github.com/talowa/referral-api/databases/mocks"
	"github.com/talowa/referral-api/models"
)

func TestNewUserDatabase(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := config.New()

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	userDB := databases.NewUserDatabase(db)

	assert.NotEmpty(t, userDB)
}

func TestUserDatabase_FindByID(t *testing.T) {
	userID := primitive.NewObjectID()

	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelperErr := &mocks.SingleResultHelper{}
	srHelperCorrect := &mocks.SingleResultHelper{}

	srHelperErr.
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	srHelperCorrect.
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.User)
		arg.ID = userID
		arg.Name = "mocked-user"
	})

	collectionHelper.
		On("FindOne", context.Background(), bson.M{"_id": primitive.NilObjectID}).
		Return(srHelperErr)

	collectionHelper.
		On("FindOne", context.Background(), bson.M{"_id": userID}).
		Return(srHelperCorrect)

	dbHelper.On("Collection", "users").Return(collectionHelper)

	userDba := databases.NewUserDatabase(dbHelper)

	user, err := userDba.FindByID(context.Background(), primitive.NilObjectID)

	assert.Empty(t, user)
	assert.EqualError(t, err, "mocked-error")

	user, err = userDba.FindByID(context.Background(), userID)

	assert.NoError(t, err)
	assert.Equal(t, "mocked-user", user.Name)
	assert.Equal(t, userID, user.ID)
}

func TestUserDatabase_SetReferrerIsOneShot(t *testing.T) {
	userID := primitive.NewObjectID()
	referrerID := primitive.NewObjectID()
	chain := []primitive.ObjectID{referrerID}

	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	// the filter must require a nil referrerId so a retry can never
	// re-credit
	collectionHelper.
		On("UpdateOne", mock.Anything,
			bson.M{"_id": userID, "referrerId": nil},
			mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)

	dbHelper.On("Collection", "users").Return(collectionHelper)

	userDba := databases.NewUserDatabase(dbHelper)

	err := userDba.SetReferrer(context.Background(), userID, referrerID, "TALAAAAAA", chain)

	assert.NoError(t, err)
	collectionHelper.AssertExpectations(t)
}

func TestUserDatabase_PromoteRankOnlyMovesUp(t *testing.T) {
	userID := primitive.NewObjectID()

	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.
		On("UpdateOne", mock.Anything,
			bson.M{"_id": userID, "rank": bson.M{"$lt": 3}},
			mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)

	dbHelper.On("Collection", "users").Return(collectionHelper)

	userDba := databases.NewUserDatabase(dbHelper)

	err := userDba.PromoteRank(context.Background(), userID, 3, "Village Coordinator")

	assert.NoError(t, err)
	collectionHelper.AssertExpectations(t)
}

func TestUserDatabase_PromoteRanksMatching(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.
		On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 4, ModifiedCount: 4}, nil)

	dbHelper.On("Collection", "users").Return(collectionHelper)

	userDba := databases.NewUserDatabase(dbHelper)

	n, err := userDba.PromoteRanksMatching(context.Background(), 2, 2, 1, "Activist")

	assert.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestUserDatabase_IncrementTeamSizeSkipsEmptyChain(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}

	userDba := databases.NewUserDatabase(dbHelper)

	// no ancestors, no write
	err := userDba.IncrementTeamSize(context.Background(), nil)

	assert.NoError(t, err)
	dbHelper.AssertNotCalled(t, "Collection", "users")
}
