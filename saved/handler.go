package saved

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"fundfinder-backend/search"
)

type leadBody struct {
	Name        string `json:"name" validate:"required,max=255"`
	Type        string `json:"type" validate:"required,oneof=Grant Loan Investor"`
	Amount      string `json:"amount" validate:"max=255"`
	Deadline    string `json:"deadline" validate:"max=255"`
	Link        string `json:"link" validate:"omitempty,url"`
	MatchReason string `json:"matchReason"`
}

type Handler struct {
	repo     *Repository
	userID   func(c *gin.Context) string
	validate *validator.Validate
}

func NewHandler(repo *Repository, userID func(c *gin.Context) string) *Handler {
	return &Handler{repo: repo, userID: userID, validate: validator.New()}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	r.POST("/save-lead", auth, h.create)
	r.GET("/saved-leads", auth, h.list)
	r.DELETE("/saved-leads/:id", auth, h.delete)
}

func (h *Handler) create(c *gin.Context) {
	var b leadBody
	if err := c.ShouldBindJSON(&b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	b.Name = strings.TrimSpace(b.Name)
	if err := h.validate.Struct(b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lead needs a name and a type of Grant, Loan or Investor"})
		return
	}
	s, err := h.repo.Create(c.Request.Context(), h.userID(c), search.Lead{
		Name:        b.Name,
		Type:        search.LeadType(b.Type),
		Amount:      b.Amount,
		Deadline:    b.Deadline,
		Link:        b.Link,
		MatchReason: b.MatchReason,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save lead"})
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) list(c *gin.Context) {
	leads, err := h.repo.List(c.Request.Context(), h.userID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load saved leads"})
		return
	}
	c.JSON(http.StatusOK, leads)
}

func (h *Handler) delete(c *gin.Context) {
	err := h.repo.Delete(c.Request.Context(), h.userID(c), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete lead"})
		return
	}
	c.Status(http.StatusNoContent)
}
