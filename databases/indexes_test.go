package databases_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talowa/referral-api/databases"
	"github.com/talowa/referral-api/databases/mocks"
)

func uniqueIndexOn(field string) func([]mongo.IndexModel) bool {
	return func(models []mongo.IndexModel) bool {
		for _, m := range models {
			keys, ok := m.Keys.(bson.D)
			if !ok || len(keys) != 1 || keys[0].Key != field {
				continue
			}
			if m.Options != nil && m.Options.Unique != nil && *m.Options.Unique {
				return true
			}
		}
		return false
	}
}

func TestEnsureIndexes(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}

	userColl := &mocks.CollectionHelper{}
	userColl.
		On("CreateIndexes", context.Background(), mock.MatchedBy(uniqueIndexOn("phone"))).
		Return(nil)

	codeColl := &mocks.CollectionHelper{}
	codeColl.
		On("CreateIndexes", context.Background(), mock.MatchedBy(uniqueIndexOn("code"))).
		Return(nil)

	pendingColl := &mocks.CollectionHelper{}
	pendingColl.
		On("CreateIndexes", context.Background(), mock.MatchedBy(uniqueIndexOn("phone"))).
		Return(nil)

	dbHelper.On("Collection", "users").Return(userColl)
	dbHelper.On("Collection", "referralCodes").Return(codeColl)
	dbHelper.On("Collection", "pendingVerifications").Return(pendingColl)

	err := databases.EnsureIndexes(context.Background(), dbHelper)
	assert.NoError(t, err)

	userColl.AssertExpectations(t)
	codeColl.AssertExpectations(t)
	pendingColl.AssertExpectations(t)
}

func TestEnsureIndexesPropagatesError(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	userColl := &mocks.CollectionHelper{}

	userColl.
		On("CreateIndexes", context.Background(), mock.Anything).
		Return(assert.AnError)
	dbHelper.On("Collection", "users").Return(userColl)

	err := databases.EnsureIndexes(context.Background(), dbHelper)
	assert.Error(t, err)
}
