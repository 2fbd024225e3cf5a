package referral

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talowa/referral-api/databases"
	"github.com/talowa/referral-api/models"
)

// TxRunner runs a store transaction. Satisfied by databases.ClientHelper.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn databases.TransactionFunc) (interface{}, error)
}

// Registrar owns the atomic registration transaction: profile create-or-merge,
// referral validation, upstream crediting and own-code minting commit together
// or not at all.
type Registrar struct {
	Users  databases.UserDatabase
	Codes  databases.ReferralCodeDatabase
	Events databases.ReferralEventDatabase
	Tx     TxRunner
}

// RegistrationInput carries the verified identity and profile fields for one
// registration request
type RegistrationInput struct {
	Phone        string
	Name         string
	PasswordHash string
	ReferralCode string
}

// RegistrationResult is what the entry point reports back on success
type RegistrationResult struct {
	UserID     primitive.ObjectID
	OwnCode    string
	Rank       Rank
	Credited   bool
	ReferrerID *primitive.ObjectID
}

// Register runs the whole registration as one store transaction. The body is
// a pure function of the input and current store state, so the driver may
// re-run it on transient conflicts without double-crediting: the referrer
// link on the user profile acts as the idempotency marker.
func (r *Registrar) Register(ctx context.Context, in RegistrationInput) (*RegistrationResult, error) {
	res, err := r.Tx.WithTransaction(ctx, func(sc context.Context) (interface{}, error) {
		return r.register(sc, in)
	})
	if err != nil {
		return nil, err
	}
	return res.(*RegistrationResult), nil
}

func (r *Registrar) register(ctx context.Context, in RegistrationInput) (*RegistrationResult, error) {
	existing, err := r.Users.FindByPhone(ctx, in.Phone)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	userID := primitive.NewObjectID()
	if existing != nil {
		userID = existing.ID
	}

	// Validate any submitted code before touching state. A validation
	// failure aborts the whole transaction with the specific error.
	var codeDoc *models.ReferralCode
	if in.ReferralCode != "" {
		var registrant *primitive.ObjectID
		if existing != nil {
			registrant = &existing.ID
		}
		codeDoc, err = ValidateCode(ctx, r.Codes, in.ReferralCode, registrant)
		if err != nil {
			return nil, err
		}
	}

	// A referrer may only be attached retroactively while the user has no
	// downstream of their own. Once anyone has registered under them, the
	// new ancestors would never see that subtree in their team counters and
	// every descendant chain would be missing the new upstream, so the
	// attachment is skipped and the submitted code goes uncredited.
	attachable := existing == nil ||
		(!existing.HasReferrer() && existing.DirectReferrals == 0 && existing.TeamSize == 0)

	credited := false
	var referrer *models.User
	var chain []primitive.ObjectID
	if codeDoc != nil && attachable {
		referrer, err = r.Users.FindByID(ctx, codeDoc.OwnerID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				// code mapping without an owner profile behaves like an
				// unknown code
				return nil, ErrCodeNotFound
			}
			return nil, err
		}
		if containsID(referrer.ReferralChain, userID) {
			// the registrant sits in the referrer's own upstream chain;
			// crediting would make the chain cyclic
			return nil, ErrSelfReferral
		}

		chain = make([]primitive.ObjectID, 0, len(referrer.ReferralChain)+1)
		chain = append(chain, referrer.ReferralChain...)
		chain = append(chain, referrer.ID)

		// Snapshot every ancestor before the increments so rank
		// re-evaluation works from consistent counters.
		ancestors, ferr := r.Users.FindByIDs(ctx, chain)
		if ferr != nil {
			return nil, ferr
		}

		if existing != nil {
			if err = r.Users.SetReferrer(ctx, userID, referrer.ID, codeDoc.Code, chain); err != nil {
				return nil, err
			}
		}
		if err = r.Users.IncrementDirectReferrals(ctx, referrer.ID); err != nil {
			return nil, err
		}
		if err = r.Users.IncrementTeamSize(ctx, chain); err != nil {
			return nil, err
		}
		if err = r.Codes.IncrementUsedCount(ctx, codeDoc.Code); err != nil {
			return nil, err
		}
		if err = r.Events.InsertOne(ctx, models.ReferralEvent{
			ID:         primitive.NewObjectID(),
			ReferrerID: referrer.ID,
			NewUserID:  userID,
			Code:       codeDoc.Code,
			CreatedAt:  primitive.NewDateTimeFromTime(time.Now()),
		}); err != nil {
			return nil, err
		}

		// Every ancestor gained one team member; the immediate referrer
		// also gained a direct referral. Promote whoever now clears a
		// higher tier. Ranks never move down.
		for _, a := range ancestors {
			direct := a.DirectReferrals
			team := a.TeamSize + 1
			if a.ID == referrer.ID {
				direct++
			}
			rank := EvaluateRank(direct, team)
			if rank.Tier > a.Rank {
				if err = r.Users.PromoteRank(ctx, a.ID, rank.Tier, rank.Name); err != nil {
					return nil, err
				}
			}
		}
		credited = true
	}

	result := &RegistrationResult{UserID: userID, Credited: credited}
	if credited {
		result.ReferrerID = &referrer.ID
	}

	if existing == nil {
		ownCode, merr := MintCode(ctx, r.Codes, userID)
		if merr != nil {
			return nil, merr
		}
		now := primitive.NewDateTimeFromTime(time.Now())
		user := models.User{
			ID:            userID,
			Phone:         in.Phone,
			Name:          in.Name,
			Password:      in.PasswordHash,
			ReferralCode:  ownCode,
			ReferralChain: []primitive.ObjectID{},
			Rank:          Ladder[0].Tier,
			RankName:      Ladder[0].Name,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if credited {
			user.ReferrerID = &referrer.ID
			user.ReferredBy = codeDoc.Code
			user.ReferralChain = chain
		}
		// a duplicate key abort here means a concurrent transaction won the
		// phone; the caller surfaces it as retryable and the retry lands on
		// the merge path
		if err = r.Users.Insert(ctx, user); err != nil {
			return nil, err
		}
		result.OwnCode = ownCode
		result.Rank = Ladder[0]
		return result, nil
	}

	if err = r.Users.UpdateProfile(ctx, userID, in.Name); err != nil {
		return nil, err
	}
	ownCode := existing.ReferralCode
	if ownCode == "" {
		ownCode, err = MintCode(ctx, r.Codes, userID)
		if err != nil {
			return nil, err
		}
		if err = r.Users.SetReferralCode(ctx, userID, ownCode); err != nil {
			return nil, err
		}
	}
	result.OwnCode = ownCode
	result.Rank = RankByTier(existing.Rank)
	return result, nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
