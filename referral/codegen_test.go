package referral_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/talowa/referral-api/models"
	"github.com/talowa/referral-api/referral"
)

func TestNewCodeFormat(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := referral.NewCode()
		require.NoError(t, err)
		assert.True(t, referral.ValidFormat(code), "generated code %q", code)
		assert.True(t, strings.HasPrefix(code, referral.CodePrefix))
		assert.Len(t, code, 9)
		// no visually ambiguous characters
		assert.NotContains(t, code[3:], "0")
		assert.NotContains(t, code[3:], "O")
		assert.NotContains(t, code[3:], "1")
		assert.NotContains(t, code[3:], "I")
	}
}

func TestValidFormat(t *testing.T) {
	assert.True(t, referral.ValidFormat("TALABCDEF"))
	assert.True(t, referral.ValidFormat("TAL234567"))

	assert.False(t, referral.ValidFormat(""))
	assert.False(t, referral.ValidFormat("TALABCDE"))   // too short
	assert.False(t, referral.ValidFormat("TALABCDEFG")) // too long
	assert.False(t, referral.ValidFormat("XYZABCDEF"))  // wrong prefix
	assert.False(t, referral.ValidFormat("TALABC0EF"))  // ambiguous zero
	assert.False(t, referral.ValidFormat("TALABC1EF"))  // ambiguous one
	assert.False(t, referral.ValidFormat("TALabcdef"))  // lower case
}

func TestMintCodePersistsOwnerMapping(t *testing.T) {
	s := newFakeStore()
	codes := fakeCodeDB{s: s}
	owner := primitive.NewObjectID()

	code, err := referral.MintCode(context.Background(), codes, owner)
	require.NoError(t, err)
	assert.True(t, referral.ValidFormat(code))

	doc := s.codes[code]
	assert.Equal(t, owner, doc.OwnerID)
	assert.True(t, doc.Active)
}

// saturatedCodeDB reports every candidate as taken
type saturatedCodeDB struct{ fakeCodeDB }

func (saturatedCodeDB) Exists(context.Context, string) (bool, error) { return true, nil }

func TestMintCodeExhaustsRetries(t *testing.T) {
	s := newFakeStore()
	_, err := referral.MintCode(context.Background(), saturatedCodeDB{fakeCodeDB{s: s}}, primitive.NewObjectID())
	assert.ErrorIs(t, err, referral.ErrCodeExhausted)
}

// racingCodeDB makes the first insert attempts lose the unique index race,
// the way a concurrent transaction committing the same candidate would
type racingCodeDB struct {
	fakeCodeDB
	losses *int
}

func (c racingCodeDB) InsertOne(ctx context.Context, doc models.ReferralCode, opts ...*options.InsertOneOptions) error {
	if *c.losses > 0 {
		*c.losses--
		return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}
	return c.fakeCodeDB.InsertOne(ctx, doc, opts...)
}

func TestMintCodeRetriesLostIndexRace(t *testing.T) {
	s := newFakeStore()
	losses := 2
	codes := racingCodeDB{fakeCodeDB: fakeCodeDB{s: s}, losses: &losses}

	code, err := referral.MintCode(context.Background(), codes, primitive.NewObjectID())
	require.NoError(t, err)
	assert.True(t, referral.ValidFormat(code))
	assert.Zero(t, losses)
	assert.Len(t, s.codes, 1)
}

func TestMintedCodesAreUniquePerOwner(t *testing.T) {
	s := newFakeStore()
	codes := fakeCodeDB{s: s}
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		code, err := referral.MintCode(context.Background(), codes, primitive.NewObjectID())
		require.NoError(t, err)
		assert.False(t, seen[code], "code %q assigned twice", code)
		seen[code] = true
	}
	assert.Len(t, s.codes, 100)
}
