package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talowa/referral-api/api/handlers"
	"github.com/talowa/referral-api/databases"
	"github.com/talowa/referral-api/databases/mocks"
	"github.com/talowa/referral-api/models"
)

func TestReferralCode_ResolveInvalidFormat(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/referral-code?code=BOGUS", nil)
	if err != nil {
		t.Fatal(err)
	}

	rc := handlers.ReferralCode{
		DB:  databases.NewReferralCodeDatabase(&MockDatabaseHelper{}),
		UDB: databases.NewUserDatabase(&MockDatabaseHelper{}),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(rc.ResolveCodeHandler).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
	if !strings.Contains(rr.Body.String(), "INVALID_FORMAT") {
		t.Errorf("handler returned unexpected body: %v", rr.Body.String())
	}
}

func TestReferralCode_ResolveNotFound(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/referral-code?code=TALAAAAAA", nil)
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "referralCodes").Return(conn)

	rc := handlers.ReferralCode{
		DB:  databases.NewReferralCodeDatabase(db),
		UDB: databases.NewUserDatabase(&MockDatabaseHelper{}),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(rc.ResolveCodeHandler).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusNotFound {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusNotFound)
	}
	if !strings.Contains(rr.Body.String(), "NOT_FOUND") {
		t.Errorf("handler returned unexpected body: %v", rr.Body.String())
	}
}

func TestReferralCode_ResolveSuccess(t *testing.T) {
	ownerID := primitive.NewObjectID()

	req, err := http.NewRequest("GET", "/api/v1/referral-code?code=talaaaaaa", nil)
	if err != nil {
		t.Fatal(err)
	}

	codeDB := &MockDatabaseHelper{}
	codeConn := &mocks.CollectionHelper{}
	codeResult := &mocks.SingleResultHelper{}
	codeResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.ReferralCode)
		arg.Code = "TALAAAAAA"
		arg.OwnerID = ownerID
		arg.Active = true
		arg.UsedCount = 3
	})
	codeConn.On("FindOne", mock.Anything, mock.Anything).Return(codeResult)
	codeDB.On("Collection", "referralCodes").Return(codeConn)

	userDB := &MockDatabaseHelper{}
	userConn := &mocks.CollectionHelper{}
	userResult := &mocks.SingleResultHelper{}
	userResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.User)
		arg.ID = ownerID
		arg.Name = "Kiran"
		arg.Rank = 3
		arg.RankName = "Village Coordinator"
	})
	userConn.On("FindOne", mock.Anything, mock.Anything).Return(userResult)
	userDB.On("Collection", "users").Return(userConn)

	rc := handlers.ReferralCode{
		DB:  databases.NewReferralCodeDatabase(codeDB),
		UDB: databases.NewUserDatabase(userDB),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(rc.ResolveCodeHandler).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	if body := rr.Body.String(); !containsAll(body, "TALAAAAAA", "Kiran", "Village Coordinator") {
		t.Errorf("handler returned unexpected body: %v", body)
	}
}
