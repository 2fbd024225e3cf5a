package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/talowa/referral-api/api"
	"github.com/talowa/referral-api/config"
	"github.com/talowa/referral-api/databases"
	"github.com/talowa/referral-api/models"
	"github.com/talowa/referral-api/referral"
)

const maxOTPAttempts = 5

// Registration handles the registration entry point
type Registration struct {
	Registrar *referral.Registrar
	PVDB      databases.PendingVerificationDatabase
}

type registrationRequest struct {
	Phone        string `json:"phone"`
	Name         string `json:"name"`
	Password     string `json:"password"`
	OTP          string `json:"otp"`
	ReferralCode string `json:"referralCode"`
}

// RegisterHandler verifies the phone OTP and then runs the whole
// registration as one transaction: profile, referral crediting and own-code
// minting commit together or not at all.
func (h Registration) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req registrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	req.Phone = strings.TrimSpace(req.Phone)
	req.Name = strings.TrimSpace(req.Name)
	req.ReferralCode = strings.ToUpper(strings.TrimSpace(req.ReferralCode))
	if req.Phone == "" || req.Name == "" || req.Password == "" || req.OTP == "" {
		config.ErrorStatus("phone, name, password and otp are required", http.StatusBadRequest, w, errors.New("missing required fields"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	pending, err := h.PVDB.FindByPhone(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			config.ErrorStatus("no verification in progress for this phone", http.StatusBadRequest, w, err)
			return
		}
		config.ErrorStatus("failed to look up pending verification", http.StatusInternalServerError, w, err)
		return
	}
	if pending.Attempts >= maxOTPAttempts || time.Since(pending.CreatedAt.Time()) > 24*time.Hour {
		config.ErrorStatus("verification expired, request a new code", http.StatusBadRequest, w, errors.New("verification expired"))
		return
	}
	if pending.Code != req.OTP {
		if aerr := h.PVDB.IncrementAttempts(ctx, req.Phone); aerr != nil {
			zap.S().Errorw("failed to record otp attempt", "phone", req.Phone, "error", aerr)
		}
		config.ErrorStatus("verification code does not match", http.StatusUnauthorized, w, errors.New("otp mismatch"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	result, err := h.Registrar.Register(ctx, referral.RegistrationInput{
		Phone:        req.Phone,
		Name:         req.Name,
		PasswordHash: string(hash),
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		writeRegistrationError(w, err)
		return
	}

	if derr := h.PVDB.DeleteByPhone(ctx, req.Phone); derr != nil {
		zap.S().Errorw("failed to clear pending verification", "phone", req.Phone, "error", derr)
	}

	b, err := json.Marshal(models.RegistrationResponse{
		UserID:       result.UserID.Hex(),
		ReferralCode: result.OwnCode,
		Rank:         result.Rank.Tier,
		RankName:     result.Rank.Name,
		Credited:     result.Credited,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// writeRegistrationError maps referral validation outcomes onto stable error
// codes. Validation failures are deterministic and never worth retrying;
// code-space exhaustion is transient so it gets a 503.
func writeRegistrationError(w http.ResponseWriter, err error) {
	if ve, ok := referral.AsValidation(err); ok {
		status := http.StatusBadRequest
		if ve.Code == referral.CodeNotFound {
			status = http.StatusNotFound
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(models.ReferralErrorResponse{
			Error: models.ReferralError{Code: ve.Code, Message: ve.Message},
		})
		return
	}
	if errors.Is(err, referral.ErrCodeExhausted) {
		config.ErrorStatus("could not allocate a referral code, retry later", http.StatusServiceUnavailable, w, err)
		return
	}
	if mongo.IsDuplicateKeyError(err) {
		// a concurrent registration committed the same phone first; retrying
		// lands on the existing profile
		config.ErrorStatus("registration raced a concurrent attempt, retry", http.StatusServiceUnavailable, w, err)
		return
	}
	config.ErrorStatus("registration failed", http.StatusInternalServerError, w, err)
}
