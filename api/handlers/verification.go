package handlers

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/talowa/referral-api/api"
	"github.com/talowa/referral-api/config"
	"github.com/talowa/referral-api/databases"
	"github.com/talowa/referral-api/models"
)

// Verification handles phone verification requests
type Verification struct {
	PVDB databases.PendingVerificationDatabase
	UDB  databases.UserDatabase
}

// StartVerificationHandler stores a fresh OTP for the phone number. Delivery
// goes through the SMS gateway worker; here we only persist and log.
func (v Verification) StartVerificationHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Phone string `json:"phone"`
	}

	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	requestBody.Phone = strings.TrimSpace(requestBody.Phone)
	if requestBody.Phone == "" {
		http.Error(w, `{"success": false, "message": "Phone is required"}`, http.StatusBadRequest)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	// A stale pending entry is replaced rather than rejected, so a user who
	// never received the SMS can simply ask again.
	if err := v.PVDB.DeleteByPhone(ctx, requestBody.Phone); err != nil {
		zap.S().Debugw("no pending verification to replace", "phone", requestBody.Phone, "error", err)
	}

	code := fmt.Sprintf("%06d", 100000+rand.Intn(900000))

	newPending := models.PendingVerification{
		ID:        primitive.NewObjectID(),
		Phone:     requestBody.Phone,
		Code:      code,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}
	if err := v.PVDB.InsertOne(ctx, newPending); err != nil {
		config.ErrorStatus("failed to create pending verification", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("verification code issued", "phone", requestBody.Phone)
	// the SMS gateway is the delivery path in production; debug logging the
	// code is what keeps local and staging onboarding usable without it
	zap.S().Debugw("verification code generated", "phone", requestBody.Phone, "code", code)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
}
