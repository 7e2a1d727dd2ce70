package pipeline

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"peflow/cashflow-backend/internal/auth"
	"peflow/cashflow-backend/internal/cashflow"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	p := rg.Group("/pipeline")
	{
		p.POST("/funds", h.CreateFund)
		p.GET("/funds", h.ListFunds)
		p.POST("/funds/:id/transition", h.Transition)
		p.POST("/funds/:id/promote", h.Promote)
		p.POST("/funds/:id/decline", h.Decline)
		p.GET("/funds/:id/meta", h.GetMeta)
		p.PUT("/funds/:id/meta", h.UpdateMeta)
		p.GET("/funds/:id/history", h.History)
		p.GET("/history", h.AllHistory)
		p.GET("/summary", h.Summary)
		p.GET("/kanban", h.Kanban)
	}
}

func fundParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fund id"})
		return uuid.Nil, false
	}
	return id, true
}

func transitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, cashflow.ErrFundNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "fund not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) CreateFund(c *gin.Context) {
	var req NewFund
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.service.CreateFund(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"fund_id": id, "status": Screening})
}

func (h *Handler) ListFunds(c *gin.Context) {
	group := StatusGroup(c.DefaultQuery("group", string(GroupPipeline)))
	funds, err := h.service.FundsByGroup(c.Request.Context(), group)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, funds)
}

type transitionRequest struct {
	Target Status `json:"target" binding:"required"`
	Reason string `json:"reason"`
	Force  bool   `json:"force"`
}

func (h *Handler) Transition(c *gin.Context) {
	id, ok := fundParam(c)
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Target.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + string(req.Target)})
		return
	}

	actor := auth.Actor(c)
	var err error
	if req.Force {
		err = h.service.ForceTransition(c.Request.Context(), id, req.Target, actor, req.Reason)
	} else {
		err = h.service.Transition(c.Request.Context(), id, req.Target, actor, req.Reason)
	}
	if err != nil {
		transitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fund_id": id, "status": req.Target})
}

type promoteRequest struct {
	Commitment     float64    `json:"commitment" binding:"required"`
	CommitmentDate *time.Time `json:"commitment_date"`
}

func (h *Handler) Promote(c *gin.Context) {
	id, ok := fundParam(c)
	if !ok {
		return
	}
	var req promoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date := time.Now().UTC()
	if req.CommitmentDate != nil {
		date = *req.CommitmentDate
	}
	if err := h.service.Promote(c.Request.Context(), id, req.Commitment, date, auth.Actor(c)); err != nil {
		transitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fund_id": id, "status": Committed})
}

type declineRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) Decline(c *gin.Context) {
	id, ok := fundParam(c)
	if !ok {
		return
	}
	var req declineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.Decline(c.Request.Context(), id, req.Reason, auth.Actor(c)); err != nil {
		transitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fund_id": id, "status": Declined})
}

func (h *Handler) GetMeta(c *gin.Context) {
	id, ok := fundParam(c)
	if !ok {
		return
	}
	meta, err := h.service.Meta(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if meta == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no pipeline metadata"})
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (h *Handler) UpdateMeta(c *gin.Context) {
	id, ok := fundParam(c)
	if !ok {
		return
	}
	var update MetaUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.UpdateMeta(c.Request.Context(), id, update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (h *Handler) History(c *gin.Context) {
	id, ok := fundParam(c)
	if !ok {
		return
	}
	entries, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) AllHistory(c *gin.Context) {
	entries, err := h.service.AllHistory(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.service.PipelineSummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) Kanban(c *gin.Context) {
	board, err := h.service.Kanban(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, board)
}
