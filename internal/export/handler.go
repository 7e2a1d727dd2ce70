package export

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"peflow/cashflow-backend/internal/cashflow"
	"peflow/cashflow-backend/internal/portfolio"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	cashflows *cashflow.Service
	funds     *portfolio.Service
}

func NewHandler(cashflows *cashflow.Service, funds *portfolio.Service) *Handler {
	return &Handler{cashflows: cashflows, funds: funds}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	e := rg.Group("/export")
	{
		e.GET("/funds/:id/xlsx", h.FundExcel)
		e.GET("/funds/:id/pdf", h.FundPDF)
		e.GET("/portfolio/xlsx", h.PortfolioExcel)
		e.GET("/portfolio/pdf", h.PortfolioPDF)
		e.GET("/liquidity/xlsx", h.LiquidityExcel)
	}
}

func scenarioParam(c *gin.Context) string {
	if s := c.Query("scenario"); s != "" {
		return s
	}
	return cashflow.BaseScenario
}

func baseParam(c *gin.Context) string {
	return strings.ToUpper(c.DefaultQuery("base", portfolio.DefaultBaseCurrency))
}

func (h *Handler) fundSelection(c *gin.Context) ([]uuid.UUID, bool) {
	raw := c.Query("fund_ids")
	if raw == "" {
		ids, err := h.funds.AllFundIDs(c.Request.Context())
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

func (h *Handler) FundExcel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fund id"})
		return
	}
	ctx := c.Request.Context()
	scenario := scenarioParam(c)

	fund, err := h.cashflows.FundInfo(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	events, err := h.cashflows.Events(ctx, id, &scenario)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	f, err := FundWorkbook(events, fund, scenario)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	attach(c, buf.Bytes(), xlsxContentType, exportName("cashflows", fund.Name, "xlsx"))
}

func (h *Handler) FundPDF(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fund id"})
		return
	}
	ctx := c.Request.Context()
	scenario := scenarioParam(c)

	fund, err := h.cashflows.FundInfo(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	summary, err := h.cashflows.CashflowSummary(ctx, id, scenario)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	periodic, err := h.cashflows.PeriodicCashflows(ctx, id, cashflow.PeriodQuarter, scenario)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	data, err := FundReport(fund, *summary, periodic, scenario)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	attach(c, data, "application/pdf", exportName("fund-report", fund.Name, "pdf"))
}

func (h *Handler) PortfolioExcel(c *gin.Context) {
	ids, ok := h.fundSelection(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	base, scenario := baseParam(c), scenarioParam(c)

	breakdown, err := h.funds.FundBreakdowns(ctx, ids, base, scenario)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	summary, err := h.funds.PortfolioSummary(ctx, ids, base, scenario)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	periodic, err := h.funds.PeriodicCashflows(ctx, ids, base, cashflow.PeriodQuarter, scenario)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	f, err := PortfolioWorkbook(breakdown, summary, periodic, base)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	attach(c, buf.Bytes(), xlsxContentType, exportName("portfolio", base, "xlsx"))
}

func (h *Handler) PortfolioPDF(c *gin.Context) {
	ids, ok := h.fundSelection(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	base, scenario := baseParam(c), scenarioParam(c)

	summary, err := h.funds.PortfolioSummary(ctx, ids, base, scenario)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	breakdown, err := h.funds.FundBreakdowns(ctx, ids, base, scenario)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	data, err := PortfolioReport(summary, breakdown, base, scenario)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	attach(c, data, "application/pdf", exportName("portfolio-report", base, "pdf"))
}

func (h *Handler) LiquidityExcel(c *gin.Context) {
	ids, ok := h.fundSelection(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	base, scenario := baseParam(c), scenarioParam(c)

	startBalance, err := strconv.ParseFloat(c.DefaultQuery("start_balance", "0"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_balance"})
		return
	}

	gap, err := h.funds.PortfolioFundingGap(ctx, ids, base, cashflow.PeriodQuarter, scenario)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	reserve, err := h.funds.SimulateCashReserve(ctx, ids, base, startBalance, scenario, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	f, err := LiquidityWorkbook(gap, reserve, base, scenario, startBalance)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	attach(c, buf.Bytes(), xlsxContentType, exportName("liquidity", base, "xlsx"))
}

func attach(c *gin.Context, data []byte, contentType, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

func exportName(kind, qualifier, ext string) string {
	q := strings.ReplaceAll(strings.ToLower(qualifier), " ", "-")
	return fmt.Sprintf("%s-%s-%s.%s", kind, q, time.Now().Format("20060102"), ext)
}
