package portfolio

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"peflow/cashflow-backend/internal/cashflow"
)

// DefaultBaseCurrency is used when a request does not name one.
const DefaultBaseCurrency = "EUR"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	p := rg.Group("/portfolio")
	{
		p.GET("/summary", h.Summary)
		p.GET("/cumulative", h.Cumulative)
		p.GET("/periodic", h.Periodic)
		p.GET("/breakdown", h.Breakdown)
		p.GET("/actual-vs-forecast", h.ActualVsForecast)
		p.GET("/funding-gap", h.FundingGap)
		p.GET("/cash-reserve", h.CashReserve)
	}
	rg.GET("/funds/:id/actual-vs-forecast", h.FundActualVsForecast)
}

// fundSelection resolves the fund_ids query parameter; no parameter means
// the whole portfolio.
func (h *Handler) fundSelection(c *gin.Context) ([]uuid.UUID, bool) {
	raw := c.Query("fund_ids")
	if raw == "" {
		ids, err := h.service.AllFundIDs(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return nil, false
		}
		return ids, true
	}
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		id, err := uuid.Parse(strings.TrimSpace(p))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fund id " + p})
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func baseParam(c *gin.Context) string {
	return strings.ToUpper(c.DefaultQuery("base", DefaultBaseCurrency))
}

func scenarioParam(c *gin.Context) string {
	if s := c.Query("scenario"); s != "" {
		return s
	}
	return cashflow.BaseScenario
}

func periodParam(c *gin.Context) cashflow.Period {
	if c.Query("period") == string(cashflow.PeriodYear) {
		return cashflow.PeriodYear
	}
	return cashflow.PeriodQuarter
}

func (h *Handler) Summary(c *gin.Context) {
	ids, ok := h.fundSelection(c)
	if !ok {
		return
	}
	summary, err := h.service.PortfolioSummary(c.Request.Context(), ids, baseParam(c), scenarioParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) Cumulative(c *gin.Context) {
	ids, ok := h.fundSelection(c)
	if !ok {
		return
	}
	points, err := h.service.CumulativeCashflows(c.Request.Context(), ids, baseParam(c), scenarioParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, points)
}

func (h *Handler) Periodic(c *gin.Context) {
	ids, ok := h.fundSelection(c)
	if !ok {
		return
	}
	totals, err := h.service.PeriodicCashflows(c.Request.Context(), ids, baseParam(c), periodParam(c), scenarioParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h *Handler) Breakdown(c *gin.Context) {
	ids, ok := h.fundSelection(c)
	if !ok {
		return
	}
	rows, err := h.service.FundBreakdowns(c.Request.Context(), ids, baseParam(c), scenarioParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) ActualVsForecast(c *gin.Context) {
	ids, ok := h.fundSelection(c)
	if !ok {
		return
	}
	result, err := h.service.PortfolioActualVsForecast(c.Request.Context(), ids, baseParam(c), scenarioParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) FundActualVsForecast(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fund id"})
		return
	}
	result, err := h.service.FundActualVsForecast(c.Request.Context(), id, scenarioParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) FundingGap(c *gin.Context) {
	ids, ok := h.fundSelection(c)
	if !ok {
		return
	}
	rows, err := h.service.PortfolioFundingGap(c.Request.Context(), ids, baseParam(c), periodParam(c), scenarioParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) CashReserve(c *gin.Context) {
	ids, ok := h.fundSelection(c)
	if !ok {
		return
	}
	startBalance, err := strconv.ParseFloat(c.DefaultQuery("start_balance", "0"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_balance"})
		return
	}
	includeActuals := c.DefaultQuery("include_actuals", "true") != "false"
	points, err := h.service.SimulateCashReserve(c.Request.Context(), ids, baseParam(c), startBalance, scenarioParam(c), includeActuals)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, points)
}
