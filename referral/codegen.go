package referral

import (
	"context"
	"crypto/rand"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talowa/referral-api/databases"
	"github.com/talowa/referral-api/models"
)

const (
	// CodePrefix starts every TALOWA referral code
	CodePrefix = "TAL"
	// codeLength is the number of random characters after the prefix
	codeLength = 6
	// codeAlphabet excludes visually ambiguous characters (0/O, 1/I)
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// maxMintAttempts bounds the uniqueness retry loop
	maxMintAttempts = 10
)

// NewCode generates a candidate referral code of the form TALXXXXXX
func NewCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}
	return CodePrefix + string(buf), nil
}

// ValidFormat reports whether code matches the fixed prefix + fixed-length
// restricted-alphabet format
func ValidFormat(code string) bool {
	if len(code) != len(CodePrefix)+codeLength {
		return false
	}
	if !strings.HasPrefix(code, CodePrefix) {
		return false
	}
	for _, ch := range code[len(CodePrefix):] {
		if !strings.ContainsRune(codeAlphabet, ch) {
			return false
		}
	}
	return true
}

// MintCode allocates a fresh code and inserts its owner mapping in one step.
// Both run against the same ctx as the enclosing registration transaction,
// so the mapping commits atomically with the profile. The existence check is
// only a fast path: the unique index on the code field is what actually
// guarantees uniqueness, and losing that race to a concurrent transaction
// counts as a collision and burns an attempt like any other. Exhausting
// every attempt returns ErrCodeExhausted, which callers surface as
// retryable.
func MintCode(ctx context.Context, codes databases.ReferralCodeDatabase, ownerID primitive.ObjectID) (string, error) {
	for i := 0; i < maxMintAttempts; i++ {
		code, err := NewCode()
		if err != nil {
			return "", err
		}
		exists, err := codes.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}
		err = codes.InsertOne(ctx, models.ReferralCode{
			ID:        primitive.NewObjectID(),
			Code:      code,
			OwnerID:   ownerID,
			Active:    true,
			CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
		})
		if mongo.IsDuplicateKeyError(err) {
			continue
		}
		if err != nil {
			return "", err
		}
		return code, nil
	}
	return "", ErrCodeExhausted
}
