package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundfinder-backend/accounts"
	"fundfinder-backend/conn"
	"fundfinder-backend/quota"
	"fundfinder-backend/storetest"
	"fundfinder-backend/subscriptions"
	"fundfinder-backend/usage"
)

func setupRouter(t *testing.T) (*gin.Engine, *usage.Ledger) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := storetest.Open(t)
	storetest.InsertUser(t, db, "free", "free")
	storetest.InsertUser(t, db, "pro", "active")

	repo := accounts.NewRepository(db, conn.SQLite)
	ledger := usage.NewLedger(db, conn.SQLite)
	gate := quota.NewGate(subscriptions.NewService(repo, nil, zerolog.Nop()), ledger, 3, zerolog.Nop())
	clock, err := usage.NewClock("UTC")
	require.NoError(t, err)
	clock = clock.WithNow(func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) })

	r := gin.New()
	NewHandler(repo, gate, clock, func(c *gin.Context) string { return c.GetHeader("X-User") }).
		RegisterRoutes(r, func(c *gin.Context) { c.Next() })
	return r, ledger
}

func status(t *testing.T, r *gin.Engine, user string) map[string]any {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/account-status", nil)
	req.Header.Set("X-User", user)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAccountStatusFree(t *testing.T) {
	r, ledger := setupRouter(t)
	_, err := ledger.IncrementToday(context.Background(), "free", "2024-05-01")
	require.NoError(t, err)

	body := status(t, r, "free")
	assert.Equal(t, float64(2), body["dailySearchesLeft"])
	assert.Equal(t, "free", body["subscriptionStatus"])

	// probing does not consume quota
	body = status(t, r, "free")
	assert.Equal(t, float64(2), body["dailySearchesLeft"])
	n, err := ledger.CountToday(context.Background(), "free", "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAccountStatusPro(t *testing.T) {
	r, _ := setupRouter(t)
	body := status(t, r, "pro")
	assert.Equal(t, "unlimited", body["dailySearchesLeft"])
	assert.Equal(t, true, body["isPro"])
}

func TestUpdateAccount(t *testing.T) {
	r, _ := setupRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/account", strings.NewReader(`{"name":"Renamed"}`))
	req.Header.Set("X-User", "free")
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed", status(t, r, "free")["name"])
}
