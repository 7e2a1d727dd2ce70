package cashflow

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	funds := rg.Group("/funds")
	{
		funds.GET("", h.ListFunds)
		funds.GET("/:id", h.GetFund)
		funds.PUT("/:id/commitment", h.UpdateCommitment)
		funds.GET("/:id/cashflows", h.ListEvents)
		funds.POST("/:id/cashflows", h.SaveEvent)
		funds.POST("/:id/cashflows/bulk", h.SaveEvents)
		funds.DELETE("/:id/cashflows", h.DeleteAll)
		funds.DELETE("/:id/cashflows/:eventId", h.DeleteEvent)
		funds.DELETE("/:id/forecast", h.DeleteForecast)
		funds.GET("/:id/cumulative", h.Cumulative)
		funds.GET("/:id/periodic", h.Periodic)
		funds.GET("/:id/summary", h.Summary)
		funds.GET("/:id/scenario-comparison", h.CompareScenarios)
		funds.GET("/:id/pacing-curves", h.PacingCurves)
	}
	scenarios := rg.Group("/scenarios")
	{
		scenarios.GET("", h.ListScenarios)
		scenarios.POST("", h.CreateScenario)
		scenarios.DELETE("/:name", h.DeleteScenario)
	}
}

func fundID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fund id"})
		return uuid.Nil, false
	}
	return id, true
}

func scenarioParam(c *gin.Context) string {
	if s := c.Query("scenario"); s != "" {
		return s
	}
	return BaseScenario
}

func periodParam(c *gin.Context) Period {
	if c.Query("period") == string(PeriodYear) {
		return PeriodYear
	}
	return PeriodQuarter
}

func (h *Handler) ListFunds(c *gin.Context) {
	funds, err := h.service.Funds(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, funds)
}

func (h *Handler) GetFund(c *gin.Context) {
	id, ok := fundID(c)
	if !ok {
		return
	}
	fund, err := h.service.FundInfo(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrFundNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "fund not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, fund)
}

type commitmentRequest struct {
	CommitmentAmount *float64   `json:"commitment_amount"`
	UnfundedAmount   *float64   `json:"unfunded_amount"`
	CommitmentDate   *time.Time `json:"commitment_date"`
	ExpectedEndDate  *time.Time `json:"expected_end_date"`
}

func (h *Handler) UpdateCommitment(c *gin.Context) {
	id, ok := fundID(c)
	if !ok {
		return
	}
	var req commitmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.service.UpdateCommitment(c.Request.Context(), id,
		req.CommitmentAmount, req.UnfundedAmount, req.CommitmentDate, req.ExpectedEndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (h *Handler) ListEvents(c *gin.Context) {
	id, ok := fundID(c)
	if !ok {
		return
	}
	var scenario *string
	if s := c.Query("scenario"); s != "" {
		scenario = &s
	}
	events, err := h.service.Events(c.Request.Context(), id, scenario)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) SaveEvent(c *gin.Context) {
	id, ok := fundID(c)
	if !ok {
		return
	}
	var ev Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev.FundID = id
	if err := h.service.SaveEvent(c.Request.Context(), &ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, ev)
}

func (h *Handler) SaveEvents(c *gin.Context) {
	id, ok := fundID(c)
	if !ok {
		return
	}
	var events []Event
	if err := c.ShouldBindJSON(&events); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := h.service.SaveEvents(c.Request.Context(), id, events)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"saved": n})
}

func (h *Handler) DeleteEvent(c *gin.Context) {
	id, ok := fundID(c)
	if !ok {
		return
	}
	eventID, err := strconv.ParseInt(c.Param("eventId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}
	if err := h.service.DeleteEvent(c.Request.Context(), id, eventID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) DeleteAll(c *gin.Context) {
	id, ok := fundID(c)
	if !ok {
		return
	}
	n, err := h.service.DeleteAll(c.Request.Context(), id, scenarioParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (h *Handler) DeleteForecast(c *gin.Context) {
	id, ok := fundID(c)
	if !ok {
		return
	}
	n, err := h.service.DeleteForecast(c.Request.Context(), id, scenarioParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (h *Handler) Cumulative(c *gin.Context) {
	id, ok := fundID(c)
	if !ok {
		return
	}
	points, err := h.service.CumulativeCashflows(c.Request.Context(), id, scenarioParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, points)
}

func (h *Handler) Periodic(c *gin.Context) {
	id, ok := fundID(c)
	if !ok {
		return
	}
	totals, err := h.service.PeriodicCashflows(c.Request.Context(), id, periodParam(c), scenarioParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h *Handler) Summary(c *gin.Context) {
	id, ok := fundID(c)
	if !ok {
		return
	}
	summary, err := h.service.CashflowSummary(c.Request.Context(), id, scenarioParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) CompareScenarios(c *gin.Context) {
	id, ok := fundID(c)
	if !ok {
		return
	}
	names := strings.Split(c.DefaultQuery("scenarios", BaseScenario), ",")
	metrics, err := h.service.CompareScenarios(c.Request.Context(), id, names)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (h *Handler) PacingCurves(c *gin.Context) {
	id, ok := fundID(c)
	if !ok {
		return
	}
	curves, err := h.service.HistoricalPacingCurves(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, curves)
}

func (h *Handler) ListScenarios(c *gin.Context) {
	scenarios, err := h.service.ListScenarios(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, scenarios)
}

type createScenarioRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

func (h *Handler) CreateScenario(c *gin.Context) {
	var req createScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.service.CreateScenario(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"scenario_id": id})
}

func (h *Handler) DeleteScenario(c *gin.Context) {
	events, deleted, err := h.service.DeleteScenario(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, ErrProtectedScenario) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events_deleted": events, "scenario_deleted": deleted})
}
