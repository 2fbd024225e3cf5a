package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/talowa/referral-api/api"
	"github.com/talowa/referral-api/config"
	"github.com/talowa/referral-api/databases"
	"github.com/talowa/referral-api/models"
)

// User exported for testing purposes
type User struct {
	DB databases.UserDatabase
}

// UserHandler returns a user given a userID
func (u User) UserHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	zap.S().Debugf("user_id: %v", userID)

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := u.DB.FindByID(ctx, uID)
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// userNetworkResponse carries one page of a user's direct referrals together
// with the aggregate counters
type userNetworkResponse struct {
	DirectReferrals int64         `json:"directReferrals"`
	TeamSize        int64         `json:"teamSize"`
	Rank            int           `json:"rank"`
	RankName        string        `json:"rankName"`
	Members         []models.User `json:"members"`
}

// UserNetworkHandler returns a page of the user's direct referrals plus the
// network counters
func (u User) UserNetworkHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 25
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindByID(ctx, uID)
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	members, err := u.DB.FindDirectReferrals(ctx, uID, limit, page)
	if err != nil {
		config.ErrorStatus("failed to get direct referrals", http.StatusInternalServerError, w, err)
		return
	}
	if len(members) == 0 {
		members = []models.User{}
	}

	b, err := json.Marshal(userNetworkResponse{
		DirectReferrals: user.DirectReferrals,
		TeamSize:        user.TeamSize,
		Rank:            user.Rank,
		RankName:        user.RankName,
		Members:         members,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
