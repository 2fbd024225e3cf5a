package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talowa/referral-api/api"
	"github.com/talowa/referral-api/config"
	"github.com/talowa/referral-api/databases"
	"github.com/talowa/referral-api/models"
	"github.com/talowa/referral-api/referral"
)

// ReferralCode handles referral code lookups
type ReferralCode struct {
	DB  databases.ReferralCodeDatabase
	UDB databases.UserDatabase
}

type resolveCodeResponse struct {
	Code      string `json:"code"`
	Active    bool   `json:"active"`
	UsedCount int64  `json:"usedCount"`
	Owner     struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Rank     int    `json:"rank"`
		RankName string `json:"rankName"`
	} `json:"owner"`
}

// ResolveCodeHandler resolves a referral code to its owner so clients can
// show "you were invited by ..." before registration
func (h ReferralCode) ResolveCodeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	code := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("code")))
	if !referral.ValidFormat(code) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(models.ReferralErrorResponse{
			Error: models.ReferralError{Code: referral.CodeInvalidFormat, Message: "referral code format is invalid"},
		})
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	codeDoc, err := h.DB.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(models.ReferralErrorResponse{
				Error: models.ReferralError{Code: referral.CodeNotFound, Message: "referral code does not exist"},
			})
			return
		}
		config.ErrorStatus("failed to look up referral code", http.StatusInternalServerError, w, err)
		return
	}

	owner, err := h.UDB.FindByID(ctx, codeDoc.OwnerID)
	if err != nil {
		config.ErrorStatus("failed to look up code owner", http.StatusNotFound, w, err)
		return
	}

	var resp resolveCodeResponse
	resp.Code = codeDoc.Code
	resp.Active = codeDoc.Active
	resp.UsedCount = codeDoc.UsedCount
	resp.Owner.ID = owner.ID.Hex()
	resp.Owner.Name = owner.Name
	resp.Owner.Rank = owner.Rank
	resp.Owner.RankName = owner.RankName

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
