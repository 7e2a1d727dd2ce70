package alerts

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	a := rg.Group("/alerts")
	{
		a.GET("/upcoming-calls", h.UpcomingCalls)
		a.GET("/deadlines", h.Deadlines)
		a.GET("/digest", h.Digest)
	}
}

func (h *Handler) UpcomingCalls(c *gin.Context) {
	calls, err := h.service.UpcomingCalls(c.Request.Context(), time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, calls)
}

func (h *Handler) Deadlines(c *gin.Context) {
	warnings, err := h.service.DeadlineWarnings(c.Request.Context(), time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, warnings)
}

func (h *Handler) Digest(c *gin.Context) {
	digest, err := h.service.Sweep(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, digest)
}
