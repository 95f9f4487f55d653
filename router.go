package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"fundfinder-backend/accounts"
	"fundfinder-backend/categories"
	"fundfinder-backend/config"
	"fundfinder-backend/conn"
	"fundfinder-backend/email"
	"fundfinder-backend/logger"
	"fundfinder-backend/login"
	"fundfinder-backend/metrics"
	"fundfinder-backend/profile"
	"fundfinder-backend/quota"
	"fundfinder-backend/saved"
	"fundfinder-backend/search"
	"fundfinder-backend/stats"
	"fundfinder-backend/subscriptions"
	"fundfinder-backend/usage"
)

type app struct {
	handler http.Handler
	ledger  *usage.Ledger
	users   *accounts.Repository
	mailer  *email.Mailer
	clock   *usage.Clock
}

// newApp wires every package onto one gin engine.
func newApp(cfg *config.Config, db *sql.DB, dialect conn.Dialect, ai search.Generator, log zerolog.Logger) (*app, error) {
	clock, err := usage.NewClock(cfg.UsageTimezone)
	if err != nil {
		return nil, err
	}

	users := accounts.NewRepository(db, dialect)
	ledger := usage.NewLedger(db, dialect)
	mailer := email.NewMailer(cfg, log)
	sessions := login.NewSessions(cfg.SessionSecret,
		time.Duration(cfg.SessionDefaultHours)*time.Hour,
		time.Duration(cfg.SessionRememberDays)*24*time.Hour)

	subs := subscriptions.NewService(users, mailer, log)
	gate := quota.NewGate(subs, ledger, cfg.FreeDailyLimit, log)
	searchSvc := search.NewService(gate, ledger, ai, cfg.AITimeout(), log)
	stripeSvc := subscriptions.NewStripe(cfg, subs, log)
	if stripeSvc == nil {
		log.Warn().Msg("STRIPE_SECRET_KEY not set; payment routes will answer 503")
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware(log), metrics.Middleware(), login.Identify(sessions))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", metrics.Handler())
	categories.RegisterRoutes(r)

	auth := login.RequireUser()
	login.NewHandler(users, sessions, mailer, !cfg.IsDevelopment(), log).RegisterRoutes(r)
	search.NewHandler(searchSvc, clock, login.UserID).RegisterRoutes(r)
	profile.NewHandler(users, gate, clock, login.UserID).RegisterRoutes(r, auth)
	stats.NewHandler(ledger, clock, login.UserID).RegisterRoutes(r, auth)
	saved.NewHandler(saved.NewRepository(db, dialect), login.UserID).RegisterRoutes(r, auth)
	subscriptions.NewHandler(stripeSvc, users, login.UserID).RegisterRoutes(r, auth)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return &app{handler: c.Handler(r), ledger: ledger, users: users, mailer: mailer, clock: clock}, nil
}
