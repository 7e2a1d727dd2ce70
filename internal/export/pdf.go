package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"peflow/cashflow-backend/internal/cashflow"
	"peflow/cashflow-backend/internal/portfolio"
)

func money(v float64) string {
	return fmt.Sprintf("%.0f", v)
}

func newReport(title, subtitle string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 6, subtitle, "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)
	return pdf
}

// kpiGrid lays out label/value pairs three to a row.
func kpiGrid(pdf *gofpdf.Fpdf, pairs [][2]string) {
	const cols = 3
	cellW := 190.0 / cols
	for i := 0; i < len(pairs); i += cols {
		row := pairs[i:min(i+cols, len(pairs))]
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(100, 100, 100)
		for _, p := range row {
			pdf.CellFormat(cellW, 5, p[0], "", 0, "L", false, 0, "")
		}
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(0, 0, 0)
		for _, p := range row {
			pdf.CellFormat(cellW, 7, p[1], "", 0, "L", false, 0, "")
		}
		pdf.Ln(10)
	}
	pdf.Ln(2)
}

func tableHeader(pdf *gofpdf.Fpdf, widths []float64, headers []string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
}

// FundReport renders a one-page fund summary with a KPI grid and the most
// recent periodic totals.
func FundReport(fund *cashflow.FundCommitment, summary cashflow.Summary, periodic []cashflow.PeriodTotal, scenario string) ([]byte, error) {
	subtitle := fmt.Sprintf("Scenario %s  |  %s  |  %s", scenario, fund.Currency, time.Now().Format(dateLayout))
	pdf := newReport(fmt.Sprintf("Fund Report: %s", fund.Name), subtitle)

	kpiGrid(pdf, [][2]string{
		{"Commitment", money(fund.CommitmentAmount)},
		{"Total Called", money(summary.TotalCalled)},
		{"Total Distributed", money(summary.TotalDistributed)},
		{"Net Cashflow", money(summary.Net)},
		{"DPI", fmt.Sprintf("%.2fx", summary.DPI)},
		{"Unfunded", money(fund.UnfundedAmount)},
	})

	widths := []float64{40, 50, 50, 50}
	tableHeader(pdf, widths, []string{"Period", "Capital Calls", "Distributions", "Net"})

	// The most recent periods only, so the report stays on one page.
	rows := periodic
	if len(rows) > 20 {
		rows = rows[len(rows)-20:]
	}
	for _, p := range rows {
		pdf.CellFormat(widths[0], 6, p.Label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, money(p.CapitalCalls), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, money(p.Distributions), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, money(p.Net), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PortfolioReport renders portfolio KPIs and the per-fund breakdown in the
// base currency. Funds without a usable exchange rate show "n/a".
func PortfolioReport(summary *portfolio.Summary, breakdown []portfolio.FundBreakdown, base, scenario string) ([]byte, error) {
	subtitle := fmt.Sprintf("Scenario %s  |  Base %s  |  %s", scenario, base, time.Now().Format(dateLayout))
	pdf := newReport("Portfolio Report", subtitle)

	kpiGrid(pdf, [][2]string{
		{"Total Commitment", money(summary.TotalCommitment)},
		{"Total Called", money(summary.TotalCalled)},
		{"Total Distributed", money(summary.TotalDistributed)},
		{"Net Cashflow", money(summary.NetCashflow)},
		{"Portfolio DPI", fmt.Sprintf("%.2fx", summary.DPI)},
		{"Funds", fmt.Sprintf("%d", summary.NumFunds)},
	})

	widths := []float64{55, 15, 40, 40, 40}
	tableHeader(pdf, widths, []string{"Fund", "Ccy", "Called", "Distributed", "Net"})
	for _, row := range breakdown {
		pdf.CellFormat(widths[0], 6, row.FundName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, row.Currency, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, optionalMoney(row.CalledBase), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, optionalMoney(row.DistributedBase), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, optionalMoney(row.NetBase), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if len(summary.FxWarnings) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(150, 80, 0)
		for _, w := range summary.FxWarnings {
			pdf.CellFormat(0, 5, "Missing FX rate: "+w, "", 1, "L", false, 0, "")
		}
		pdf.SetTextColor(0, 0, 0)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func optionalMoney(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return money(*v)
}
