package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/talowa/referral-api/api"
	"github.com/talowa/referral-api/config"
	"github.com/talowa/referral-api/databases"
	"github.com/talowa/referral-api/models"
	"github.com/talowa/referral-api/referral"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	Client   databases.ClientHelper
	dbHelper databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	users := databases.NewUserDatabase(a.dbHelper)
	codes := databases.NewReferralCodeDatabase(a.dbHelper)
	events := databases.NewReferralEventDatabase(a.dbHelper)

	u := User{DB: users}
	rc := ReferralCode{DB: codes, UDB: users}
	reg := Registration{
		Registrar: &referral.Registrar{Users: users, Codes: codes, Events: events, Tx: a.Client},
		PVDB:      databases.NewPendingVerificationDatabase(a.dbHelper),
	}
	ver := Verification{PVDB: databases.NewPendingVerificationDatabase(a.dbHelper), UDB: users}
	admin := Admin{ADB: databases.NewAdminDatabase(a.dbHelper), CDB: codes, EDB: events}
	metrics := Metrics{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/verify/start", http.HandlerFunc(ver.StartVerificationHandler)).Methods("POST")
	apiCreate.Handle("/register", http.HandlerFunc(reg.RegisterHandler)).Methods("POST")

	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")
	apiCreate.Handle("/user/{user_id}/network", api.Middleware(http.HandlerFunc(u.UserNetworkHandler))).Methods("GET")
	apiCreate.Handle("/referral-code", api.Middleware(http.HandlerFunc(rc.ResolveCodeHandler))).Methods("GET")

	apiCreate.Handle("/admin/login", http.HandlerFunc(admin.AdminLoginHandler)).Methods("POST")
	apiCreate.Handle("/admin/referral-code/{code}/activate", admin.Auth(http.HandlerFunc(admin.ActivateCodeHandler))).Methods("PUT")
	apiCreate.Handle("/admin/referral-code/{code}/deactivate", admin.Auth(http.HandlerFunc(admin.DeactivateCodeHandler))).Methods("PUT")
	apiCreate.Handle("/admin/referral-events", admin.Auth(http.HandlerFunc(admin.ReferralEventsHandler))).Methods("GET")

	apiCreate.Handle("/metrics", api.Middleware(http.HandlerFunc(metrics.GetDashboardHandler))).Methods("GET")
	apiCreate.Handle("/metrics/summary", api.Middleware(http.HandlerFunc(metrics.GetSummaryHandler))).Methods("GET")
	apiCreate.Handle("/metrics/route", api.Middleware(http.HandlerFunc(metrics.GetRouteMetricsHandler))).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.Client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("referral-api has connected to the database")

	if err = databases.EnsureIndexes(context.Background(), a.dbHelper); err != nil {
		zap.S().With(err).Error("failed to create indexes")
		return err
	}

	api.InitMetrics()

	// initialize api router
	a.initializeRoutes()
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
