package saved

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundfinder-backend/conn"
	"fundfinder-backend/storetest"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := storetest.Open(t)
	storetest.InsertUser(t, db, "alice", "free")
	storetest.InsertUser(t, db, "bob", "free")

	r := gin.New()
	h := NewHandler(NewRepository(db, conn.SQLite), func(c *gin.Context) string { return c.GetHeader("X-User") })
	h.RegisterRoutes(r, func(c *gin.Context) { c.Next() })
	return r
}

func do(r *gin.Engine, user, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", user)
	r.ServeHTTP(w, req)
	return w
}

func TestSaveListDelete(t *testing.T) {
	r := setupRouter(t)

	w := do(r, "alice", http.MethodPost, "/save-lead", `{"name":"Main Street Grant","type":"Grant","amount":"$10k","link":"https://example.org/g","matchReason":"retail"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var first SavedLead
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	require.NotEmpty(t, first.ID)

	w = do(r, "alice", http.MethodPost, "/save-lead", `{"name":"SBA Microloan","type":"Loan"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, "alice", http.MethodGet, "/saved-leads", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []SavedLead
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "SBA Microloan", list[0].Name, "newest first")
	assert.Equal(t, "retail", list[1].MatchReason)

	w = do(r, "bob", http.MethodGet, "/saved-leads", "")
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(r, "bob", http.MethodDelete, "/saved-leads/"+first.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code, "cannot delete another user's lead")

	w = do(r, "alice", http.MethodDelete, "/saved-leads/"+first.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(r, "alice", http.MethodDelete, "/saved-leads/"+first.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveValidation(t *testing.T) {
	r := setupRouter(t)
	for _, body := range []string{
		`{"name":"x","type":"Donation"}`,
		`{"name":"  ","type":"Grant"}`,
		`{"name":"x","type":"Grant","link":"not a url"}`,
		`[`,
	} {
		w := do(r, "alice", http.MethodPost, "/save-lead", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}
