package fx

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	rates RateProvider
}

func NewHandler(rates RateProvider) *Handler {
	return &Handler{rates: rates}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	fx := rg.Group("/fx")
	{
		fx.GET("/rates", h.ListRates)
		fx.POST("/rates", h.UpsertRate)
		fx.GET("/convert", h.Convert)
	}
}

func (h *Handler) ListRates(c *gin.Context) {
	from := strings.ToUpper(c.Query("from"))
	to := strings.ToUpper(c.Query("to"))
	rates, err := h.rates.ListRates(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rates)
}

type rateRequest struct {
	From string    `json:"from" binding:"required"`
	To   string    `json:"to" binding:"required"`
	Date time.Time `json:"date" binding:"required"`
	Rate float64   `json:"rate" binding:"required"`
}

func (h *Handler) UpsertRate(c *gin.Context) {
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Rate <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rate must be positive"})
		return
	}
	rate := &Rate{
		From:  strings.ToUpper(req.From),
		To:    strings.ToUpper(req.To),
		Date:  req.Date,
		Value: req.Rate,
	}
	id, err := h.rates.UpsertRate(c.Request.Context(), rate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"rate_id": id})
}

// Convert resolves a single rate, inverse fallback included, mostly as a
// smoke test for rate coverage.
func (h *Handler) Convert(c *gin.Context) {
	from := strings.ToUpper(c.Query("from"))
	to := strings.ToUpper(c.Query("to"))
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required"})
		return
	}
	asOf := time.Now().UTC()
	if d := c.Query("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		asOf = parsed
	}
	rate, err := h.rates.RateWithInverse(c.Request.Context(), from, to, asOf)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rate == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no rate for " + from + "->" + to})
		return
	}
	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "date": asOf.Format("2006-01-02"), "rate": *rate})
}
