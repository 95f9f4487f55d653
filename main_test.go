package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundfinder-backend/config"
	"fundfinder-backend/conn"
	"fundfinder-backend/openai"
	"fundfinder-backend/storetest"
)

type cannedAI struct{}

func (cannedAI) GenerateLeads(context.Context, openai.LeadRequest) (string, error) {
	return "```json\n[{\"name\":\"Main Street Grant\",\"type\":\"Grant\",\"amount\":\"$5k\",\"deadline\":\"Rolling\",\"link\":\"https://example.org\",\"matchReason\":\"fit\"}]\n```", nil
}

func call(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	h.ServeHTTP(w, req)
	return w
}

func TestSearchFlowEndToEnd(t *testing.T) {
	cfg := &config.Config{
		Environment:         "development",
		SessionSecret:       "s",
		SessionDefaultHours: 1,
		SessionRememberDays: 1,
		FreeDailyLimit:      2,
		UsageTimezone:       "UTC",
		AITimeoutSec:        5,
	}
	a, err := newApp(cfg, storetest.Open(t), conn.SQLite, cannedAI{}, zerolog.Nop())
	require.NoError(t, err)
	h := a.handler

	assert.Equal(t, http.StatusUnauthorized, call(h, http.MethodPost, "/search-request", `{"businessType":"Cafe","location":"Lyon"}`, "").Code)

	require.Equal(t, http.StatusCreated, call(h, http.MethodPost, "/register", `{"name":"Lee","email":"lee@example.com","password":"password123"}`, "").Code)
	w := call(h, http.MethodPost, "/login", `{"email":"lee@example.com","password":"password123"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	for i := 0; i < 2; i++ {
		w = call(h, http.MethodPost, "/search-request", `{"businessType":"Cafe","location":"Lyon"}`, login.Token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w = call(h, http.MethodPost, "/search-request", `{"businessType":"Cafe","location":"Lyon"}`, login.Token)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = call(h, http.MethodGet, "/account-status", "", login.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dailySearchesLeft":0`)

	assert.Equal(t, http.StatusServiceUnavailable, call(h, http.MethodPost, "/create-checkout-session", "", login.Token).Code)
	assert.Equal(t, http.StatusOK, call(h, http.MethodGet, "/health", "", "").Code)
}
