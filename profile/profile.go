package profile

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fundfinder-backend/accounts"
	"fundfinder-backend/quota"
	"fundfinder-backend/usage"
)

type userStore interface {
	GetByID(ctx context.Context, id string) (*accounts.User, error)
	UpdateName(ctx context.Context, id, name string) error
}

type remaining interface {
	Remaining(ctx context.Context, userID string, day usage.Day) (int, error)
	Limit() int
}

type Handler struct {
	users  userStore
	gate   remaining
	clock  *usage.Clock
	userID func(c *gin.Context) string
}

func NewHandler(users userStore, gate remaining, clock *usage.Clock, userID func(c *gin.Context) string) *Handler {
	return &Handler{users: users, gate: gate, clock: clock, userID: userID}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	r.GET("/account-status", auth, h.accountStatus)
	r.PATCH("/account", auth, h.updateAccount)
}

// accountStatus reports the account and today's remaining searches without
// touching the ledger.
func (h *Handler) accountStatus(c *gin.Context) {
	ctx := c.Request.Context()
	userID := h.userID(c)
	u, err := h.users.GetByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load account"})
		return
	}
	left, err := h.gate.Remaining(ctx, userID, h.clock.Today())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load usage"})
		return
	}
	var searchesLeft any = left
	if left == quota.Unlimited {
		searchesLeft = "unlimited"
	}
	c.JSON(http.StatusOK, gin.H{
		"id":                 u.ID,
		"name":               u.Name,
		"email":              u.Email,
		"subscriptionStatus": u.SubscriptionStatus,
		"isPro":              u.IsPro(),
		"dailySearchesLeft":  searchesLeft,
		"dailyLimit":         h.gate.Limit(),
		"createdAt":          u.CreatedAt,
	})
}

func (h *Handler) updateAccount(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if err := h.users.UpdateName(c.Request.Context(), h.userID(c), body.Name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
