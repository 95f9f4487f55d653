package subscriptions

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"fundfinder-backend/accounts"
)

// identity resolves the caller set by the session middleware.
type identity func(c *gin.Context) string

type userLookup interface {
	GetByID(ctx context.Context, userID string) (*accounts.User, error)
}

type Handler struct {
	stripe *StripeService
	users  userLookup
	userID identity
}

func NewHandler(stripe *StripeService, users userLookup, userID func(c *gin.Context) string) *Handler {
	return &Handler{stripe: stripe, users: users, userID: userID}
}

// RegisterRoutes mounts the payment routes. auth guards the routes that need
// a logged-in user; the webhook is authenticated by its signature instead.
func (h *Handler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	r.POST("/create-checkout-session", auth, h.createCheckout)
	r.GET("/verify-payment", auth, h.verifyPayment)
	r.POST("/stripe/webhook", h.webhook)
}

func (h *Handler) createCheckout(c *gin.Context) {
	if h.stripe == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ErrStripeNotConfigured.Error()})
		return
	}
	userID := h.userID(c)
	u, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load account"})
		return
	}
	if u.IsPro() {
		c.JSON(http.StatusConflict, gin.H{"error": "account is already pro"})
		return
	}
	out, err := h.stripe.CreateCheckout(c.Request.Context(), u.ID, u.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) verifyPayment(c *gin.Context) {
	if h.stripe == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ErrStripeNotConfigured.Error()})
		return
	}
	userID := h.userID(c)
	v, err := h.stripe.Confirm(c.Request.Context(), userID, c.Query("session_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	status := accounts.StatusFree
	if v.Paid {
		status = accounts.StatusActive
	} else if st, err := h.stripe.subs.StatusOf(c.Request.Context(), userID); err == nil {
		status = st
	}
	c.JSON(http.StatusOK, gin.H{"paid": v.Paid, "subscriptionStatus": status})
}

func (h *Handler) webhook(c *gin.Context) {
	if h.stripe == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ErrStripeNotConfigured.Error()})
		return
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if err := h.stripe.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrMissingSessionID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrSessionOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrStripeInvalidAPIKey), errors.Is(err, ErrStripeNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payments temporarily unavailable"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider error"})
	}
}
