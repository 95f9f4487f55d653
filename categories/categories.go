package categories

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fundfinder-backend/search"
)

// Category describes one kind of lead the search can return.
type Category struct {
	Type        search.LeadType `json:"type"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
}

var All = []Category{
	{Type: search.LeadGrant, Label: "Grants", Description: "Non-repayable awards from governments, foundations and corporations."},
	{Type: search.LeadLoan, Label: "Loans", Description: "Repayable financing such as microloans, SBA-backed and community loans."},
	{Type: search.LeadInvestor, Label: "Investors", Description: "Angels, venture funds and accelerators that take equity."},
}

func RegisterRoutes(r *gin.Engine) {
	r.GET("/lead-types", func(c *gin.Context) {
		c.JSON(http.StatusOK, All)
	})
}
