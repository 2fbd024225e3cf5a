package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/talowa/referral-api/api"
	"github.com/talowa/referral-api/api/handlers"
	"github.com/talowa/referral-api/api/scheduler"
	"github.com/talowa/referral-api/config"
	"github.com/talowa/referral-api/databases"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize database and router
		log.Fatal(err)
	}

	dbHelper := a.Client.Database(a.Config.DatabaseName)
	s := scheduler.NewScheduler(
		databases.NewUserDatabase(dbHelper),
		databases.NewReferralEventDatabase(dbHelper),
		databases.NewPendingVerificationDatabase(dbHelper),
		databases.NewSchedulerLockDatabase(dbHelper),
	)
	s.Start()
	defer s.Stop()

	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	zap.S().Infow("referral-api is up and running",
		"port", port,
		"url", baseURL,
	)

	handler := api.MetricsMiddleware(api.TimeoutMiddleware(30 * time.Second)(a.Router))
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), handler))
}
