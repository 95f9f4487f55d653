package search

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundfinder-backend/usage"
)

func setupRouter(t *testing.T, e *env, user string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	clock, err := usage.NewClock("UTC")
	require.NoError(t, err)
	clock = clock.WithNow(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) })

	r := gin.New()
	NewHandler(e.svc, clock, func(*gin.Context) string { return user }).RegisterRoutes(r)
	return r
}

func post(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/search-request", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

const validBody = `{"businessType":"Bakery","location":"Austin, TX","purpose":"new oven"}`

func TestHandlerSuccess(t *testing.T) {
	e := newEnv(t)
	w := post(setupRouter(t, e, "free-user"), validBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var leads []Lead
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &leads))
	assert.Len(t, leads, 3)
	assert.Equal(t, "Main Street Grant", leads[0].Name)
	assert.Contains(t, w.Body.String(), `"matchReason"`)
	assert.Equal(t, 1, e.count(t, "free-user"))
}

func TestHandlerUnauthenticated(t *testing.T) {
	e := newEnv(t)
	w := post(setupRouter(t, e, ""), validBody)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Please login to search"}`, w.Body.String())
}

func TestHandlerRateLimited(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "free-user", 3)
	w := post(setupRouter(t, e, "free-user"), validBody)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
	assert.Equal(t, float64(3), body["dailyCount"])
	assert.Equal(t, float64(3), body["limit"])
}

func TestHandlerBadRequests(t *testing.T) {
	e := newEnv(t)
	r := setupRouter(t, e, "free-user")

	w := post(r, `{"businessType":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(r, `{"businessType":"Bakery"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"location is required"}`, w.Body.String())
}

func TestHandlerUpstreamFailure(t *testing.T) {
	e := newEnv(t)
	e.ai.answer = "no json here"
	w := post(setupRouter(t, e, "free-user"), validBody)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Failed to parse AI response", body["error"])
	assert.NotNil(t, body["diagnostic"])
	assert.Equal(t, 0, e.count(t, "free-user"))
}
