package imports

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	importer *Importer
}

func NewHandler(importer *Importer) *Handler {
	return &Handler{importer: importer}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/import/cashflows", h.ImportCashflows)
}

func (h *Handler) ImportCashflows(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	result, err := h.importer.ImportWorkbook(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := http.StatusOK
	if result.Imported == 0 && len(result.Errors) > 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}
