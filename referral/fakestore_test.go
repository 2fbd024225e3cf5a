package referral_test

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/talowa/referral-api/databases"
	"github.com/talowa/referral-api/models"
)

// fakeStore is an in-memory stand-in for the mongo collections that backs the
// registration transaction in tests. WithTransaction serializes bodies with a
// mutex and rolls the whole store back when the body errors, mirroring the
// all-or-nothing commit of the real session transaction.
type fakeStore struct {
	mu     sync.Mutex
	users  map[primitive.ObjectID]models.User
	phones map[string]primitive.ObjectID
	codes  map[string]models.ReferralCode
	events []models.ReferralEvent
}

var (
	_ databases.UserDatabase          = fakeUserDB{}
	_ databases.ReferralCodeDatabase  = fakeCodeDB{}
	_ databases.ReferralEventDatabase = fakeEventDB{}
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[primitive.ObjectID]models.User),
		phones: make(map[string]primitive.ObjectID),
		codes:  make(map[string]models.ReferralCode),
	}
}

func (f *fakeStore) snapshot() *fakeStore {
	s := newFakeStore()
	for k, v := range f.users {
		v.ReferralChain = append([]primitive.ObjectID(nil), v.ReferralChain...)
		s.users[k] = v
	}
	for k, v := range f.phones {
		s.phones[k] = v
	}
	for k, v := range f.codes {
		s.codes[k] = v
	}
	s.events = append([]models.ReferralEvent(nil), f.events...)
	return s
}

func (f *fakeStore) restore(s *fakeStore) {
	f.users = s.users
	f.phones = s.phones
	f.codes = s.codes
	f.events = s.events
}

// WithTransaction implements referral.TxRunner
func (f *fakeStore) WithTransaction(ctx context.Context, fn databases.TransactionFunc) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	before := f.snapshot()
	res, err := fn(ctx)
	if err != nil {
		f.restore(before)
		return nil, err
	}
	return res, nil
}

// --- databases.UserDatabase ---

type fakeUserDB struct{ s *fakeStore }

func (u fakeUserDB) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	user, ok := u.s.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &user, nil
}

func (u fakeUserDB) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	id, ok := u.s.phones[phone]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	user := u.s.users[id]
	return &user, nil
}

func (u fakeUserDB) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if user, ok := u.s.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (u fakeUserDB) Find(_ context.Context, _ interface{}, _ ...*options.FindOptions) ([]models.User, error) {
	var out []models.User
	for _, user := range u.s.users {
		out = append(out, user)
	}
	return out, nil
}

func (u fakeUserDB) FindDirectReferrals(_ context.Context, referrerID primitive.ObjectID, _, _ int) ([]models.User, error) {
	var out []models.User
	for _, user := range u.s.users {
		if user.ReferrerID != nil && *user.ReferrerID == referrerID {
			out = append(out, user)
		}
	}
	return out, nil
}

func (u fakeUserDB) CountDocuments(_ context.Context, _ interface{}, _ ...*options.CountOptions) (int64, error) {
	return int64(len(u.s.users)), nil
}

func (u fakeUserDB) Insert(_ context.Context, user models.User) error {
	u.s.users[user.ID] = user
	u.s.phones[user.Phone] = user.ID
	return nil
}

func (u fakeUserDB) UpdateProfile(_ context.Context, id primitive.ObjectID, name string) error {
	user, ok := u.s.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	user.Name = name
	u.s.users[id] = user
	return nil
}

func (u fakeUserDB) SetReferralCode(_ context.Context, id primitive.ObjectID, code string) error {
	user, ok := u.s.users[id]
	if !ok || user.ReferralCode != "" {
		return nil
	}
	user.ReferralCode = code
	u.s.users[id] = user
	return nil
}

func (u fakeUserDB) SetReferrer(_ context.Context, id, referrerID primitive.ObjectID, code string, chain []primitive.ObjectID) error {
	user, ok := u.s.users[id]
	if !ok || user.ReferrerID != nil {
		return nil
	}
	rid := referrerID
	user.ReferrerID = &rid
	user.ReferredBy = code
	user.ReferralChain = append([]primitive.ObjectID(nil), chain...)
	u.s.users[id] = user
	return nil
}

func (u fakeUserDB) IncrementDirectReferrals(_ context.Context, id primitive.ObjectID) error {
	user := u.s.users[id]
	user.DirectReferrals++
	u.s.users[id] = user
	return nil
}

func (u fakeUserDB) IncrementTeamSize(_ context.Context, ids []primitive.ObjectID) error {
	for _, id := range ids {
		user := u.s.users[id]
		user.TeamSize++
		u.s.users[id] = user
	}
	return nil
}

func (u fakeUserDB) PromoteRank(_ context.Context, id primitive.ObjectID, rank int, rankName string) error {
	user := u.s.users[id]
	if user.Rank < rank {
		user.Rank = rank
		user.RankName = rankName
		u.s.users[id] = user
	}
	return nil
}

func (u fakeUserDB) PromoteRanksMatching(_ context.Context, minDirect, minTeam int64, rank int, rankName string) (int64, error) {
	var n int64
	for id, user := range u.s.users {
		if user.DirectReferrals >= minDirect && user.TeamSize >= minTeam && user.Rank < rank {
			user.Rank = rank
			user.RankName = rankName
			u.s.users[id] = user
			n++
		}
	}
	return n, nil
}

// --- databases.ReferralCodeDatabase ---

type fakeCodeDB struct{ s *fakeStore }

func (c fakeCodeDB) FindByCode(_ context.Context, code string) (*models.ReferralCode, error) {
	doc, ok := c.s.codes[code]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &doc, nil
}

func (c fakeCodeDB) Find(_ context.Context, _ interface{}, _ ...*options.FindOptions) ([]models.ReferralCode, error) {
	var out []models.ReferralCode
	for _, doc := range c.s.codes {
		out = append(out, doc)
	}
	return out, nil
}

func (c fakeCodeDB) Exists(_ context.Context, code string) (bool, error) {
	_, ok := c.s.codes[code]
	return ok, nil
}

func (c fakeCodeDB) InsertOne(_ context.Context, doc models.ReferralCode, _ ...*options.InsertOneOptions) error {
	c.s.codes[doc.Code] = doc
	return nil
}

func (c fakeCodeDB) IncrementUsedCount(_ context.Context, code string) error {
	doc := c.s.codes[code]
	doc.UsedCount++
	c.s.codes[code] = doc
	return nil
}

func (c fakeCodeDB) SetActive(_ context.Context, code string, active bool) error {
	doc, ok := c.s.codes[code]
	if !ok {
		return mongo.ErrNoDocuments
	}
	doc.Active = active
	if !active {
		now := primitive.NewDateTimeFromTime(time.Now())
		doc.DeactivatedAt = &now
	}
	c.s.codes[code] = doc
	return nil
}

// --- databases.ReferralEventDatabase ---

type fakeEventDB struct{ s *fakeStore }

func (e fakeEventDB) Find(_ context.Context, _ interface{}, _ ...*options.FindOptions) ([]models.ReferralEvent, error) {
	return append([]models.ReferralEvent(nil), e.s.events...), nil
}

func (e fakeEventDB) CountDocuments(_ context.Context, _ interface{}, _ ...*options.CountOptions) (int64, error) {
	return int64(len(e.s.events)), nil
}

func (e fakeEventDB) InsertOne(_ context.Context, ev models.ReferralEvent, _ ...*options.InsertOneOptions) error {
	e.s.events = append(e.s.events, ev)
	return nil
}
