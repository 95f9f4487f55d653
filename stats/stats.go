package stats

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fundfinder-backend/usage"
)

const maxDays = 90

type historyReader interface {
	History(ctx context.Context, userID string, from, to usage.Day) ([]usage.DayCount, error)
}

type Handler struct {
	ledger historyReader
	clock  *usage.Clock
	userID func(c *gin.Context) string
}

func NewHandler(ledger historyReader, clock *usage.Clock, userID func(c *gin.Context) string) *Handler {
	return &Handler{ledger: ledger, clock: clock, userID: userID}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	r.GET("/usage-history", auth, h.history)
}

// history returns one entry per day for the last ?days= days (default 7),
// today included, with zero for days without searches.
func (h *Handler) history(c *gin.Context) {
	days := 7
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 90"})
			return
		}
		days = n
	}

	today := h.clock.Today()
	span := make([]usage.Day, days)
	d := today
	for i := days - 1; i >= 0; i-- {
		span[i] = d
		d = d.Prev()
	}

	rows, err := h.ledger.History(c.Request.Context(), h.userID(c), span[0], today)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load usage history"})
		return
	}
	byDay := make(map[usage.Day]int, len(rows))
	total := 0
	for _, r := range rows {
		byDay[r.Day] = r.Count
		total += r.Count
	}
	out := make([]usage.DayCount, 0, days)
	for _, day := range span {
		out = append(out, usage.DayCount{Day: day, Count: byDay[day]})
	}
	c.JSON(http.StatusOK, gin.H{
		"days":        out,
		"total":       total,
		"generatedAt": time.Now().UTC().Format(time.RFC3339),
	})
}
