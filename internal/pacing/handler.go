package pacing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service *ForecastService
}

func NewHandler(service *ForecastService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	forecast := rg.Group("/forecast")
	{
		forecast.GET("/models", h.ListModels)
		forecast.POST("/funds/:id/preview", h.Preview)
		forecast.POST("/funds/:id/apply", h.Apply)
	}
}

func (h *Handler) ListModels(c *gin.Context) {
	models := h.service.Models()
	out := make([]gin.H, 0, len(models))
	for _, m := range models {
		out = append(out, gin.H{"code": m.Code(), "name": m.Name()})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) bindRequest(c *gin.Context) (*ForecastRequest, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fund id"})
		return nil, false
	}
	var req ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	req.FundID = id
	return &req, true
}

func (h *Handler) Preview(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}
	entries, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"model": req.Model, "entries": entries})
}

func (h *Handler) Apply(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}
	result, err := h.service.Apply(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
