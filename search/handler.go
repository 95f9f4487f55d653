package search

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fundfinder-backend/usage"
)

type Handler struct {
	svc    *Service
	clock  *usage.Clock
	userID func(c *gin.Context) string
}

func NewHandler(svc *Service, clock *usage.Clock, userID func(c *gin.Context) string) *Handler {
	return &Handler{svc: svc, clock: clock, userID: userID}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/search-request", h.search)
}

func (h *Handler) search(c *gin.Context) {
	userID := h.userID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please login to search"})
		return
	}
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	leads, err := h.svc.HandleSearch(c.Request.Context(), userID, h.clock.Today(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, leads)
}

func writeError(c *gin.Context, err error) {
	var (
		rl *RateLimitError
		ve *ValidationError
		ue *UpstreamError
	)
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please login to search"})
	case errors.As(err, &rl):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":      "Daily search limit reached. Upgrade to Pro for unlimited searches.",
			"dailyCount": rl.Decision.DailyCount,
			"limit":      rl.Decision.Limit,
		})
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
	case errors.As(err, &ue):
		body := gin.H{"error": ue.Message}
		if ue.Diagnostic != nil {
			body["diagnostic"] = ue.Diagnostic
		}
		c.JSON(http.StatusInternalServerError, body)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
