package referral

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talowa/referral-api/databases"
	"github.com/talowa/referral-api/models"
)

// ValidateCode checks a submitted code: format, existence, active flag, and
// self-referral against the registering user (nil for a brand-new identity).
// All checks are pure reads; the resolved code document is returned so the
// caller can credit its owner.
func ValidateCode(ctx context.Context, codes databases.ReferralCodeDatabase, code string, registrant *primitive.ObjectID) (*models.ReferralCode, error) {
	if !ValidFormat(code) {
		return nil, ErrInvalidFormat
	}

	doc, err := codes.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	if !doc.Active {
		return nil, ErrCodeInactive
	}

	if registrant != nil && doc.OwnerID == *registrant {
		return nil, ErrSelfReferral
	}

	return doc, nil
}
