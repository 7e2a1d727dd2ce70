package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"peflow/cashflow-backend/internal/cashflow"
	"peflow/cashflow-backend/internal/portfolio"
)

const dateLayout = "2006-01-02"

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// FundWorkbook renders a fund's event list plus a summary sheet.
func FundWorkbook(events []cashflow.Event, fund *cashflow.FundCommitment, scenario string) (*excelize.File, error) {
	f := excelize.NewFile()

	const eventsSheet = "Cashflows"
	if err := f.SetSheetName("Sheet1", eventsSheet); err != nil {
		return nil, err
	}
	if err := setRow(f, eventsSheet, 1, "Date", "Type", fmt.Sprintf("Amount (%s)", fund.Currency), "Status", "Notes"); err != nil {
		return nil, err
	}
	for i, ev := range events {
		note := ""
		if ev.Note != nil {
			note = *ev.Note
		}
		err := setRow(f, eventsSheet, i+2,
			ev.Date.Format(dateLayout), Label(ev.Type), ev.Amount, StatusLabel(ev.IsActual), note)
		if err != nil {
			return nil, err
		}
	}

	const summarySheet = "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	summary := cashflow.Summarize(events)
	rows := [][2]any{
		{"Fund", fund.Name},
		{"Scenario", scenario},
		{"Currency", fund.Currency},
		{"Total Called", summary.TotalCalled},
		{"Total Distributed", summary.TotalDistributed},
		{"Net Cashflow", summary.Net},
		{"DPI", fmt.Sprintf("%.2fx", summary.DPI)},
		{"Export Date", time.Now().Format(dateLayout)},
	}
	if err := setRow(f, summarySheet, 1, "Metric", "Value"); err != nil {
		return nil, err
	}
	for i, r := range rows {
		if err := setRow(f, summarySheet, i+2, r[0], r[1]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// PortfolioWorkbook renders the per-fund breakdown, the KPI summary and the
// periodic rollup.
func PortfolioWorkbook(breakdown []portfolio.FundBreakdown, summary *portfolio.Summary, periodic []cashflow.PeriodTotal, base string) (*excelize.File, error) {
	f := excelize.NewFile()

	const breakdownSheet = "Fund Breakdown"
	if err := f.SetSheetName("Sheet1", breakdownSheet); err != nil {
		return nil, err
	}
	if err := setRow(f, breakdownSheet, 1,
		"Fund", "Currency",
		fmt.Sprintf("Commitment (%s)", base), fmt.Sprintf("Called (%s)", base),
		fmt.Sprintf("Distributed (%s)", base), fmt.Sprintf("Net (%s)", base), "DPI"); err != nil {
		return nil, err
	}
	for i, row := range breakdown {
		err := setRow(f, breakdownSheet, i+2,
			row.FundName, row.Currency,
			optionalAmount(row.CommitmentBase), optionalAmount(row.CalledBase),
			optionalAmount(row.DistributedBase), optionalAmount(row.NetBase),
			fmt.Sprintf("%.2fx", row.DPI))
		if err != nil {
			return nil, err
		}
	}

	const summarySheet = "Portfolio Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	rows := [][2]any{
		{"Total Commitment", summary.TotalCommitment},
		{"Total Called", summary.TotalCalled},
		{"Total Distributed", summary.TotalDistributed},
		{"Total Unfunded", summary.TotalUnfunded},
		{"Net Cashflow", summary.NetCashflow},
		{"Portfolio DPI", fmt.Sprintf("%.2fx", summary.DPI)},
		{"Number of Funds", summary.NumFunds},
		{"Base Currency", base},
		{"Export Date", time.Now().Format(dateLayout)},
	}
	if err := setRow(f, summarySheet, 1, "Metric", "Value"); err != nil {
		return nil, err
	}
	for i, r := range rows {
		if err := setRow(f, summarySheet, i+2, r[0], r[1]); err != nil {
			return nil, err
		}
	}

	const periodicSheet = "Periodic Cashflows"
	if _, err := f.NewSheet(periodicSheet); err != nil {
		return nil, err
	}
	if err := setRow(f, periodicSheet, 1,
		"Period", fmt.Sprintf("Capital Calls (%s)", base),
		fmt.Sprintf("Distributions (%s)", base), fmt.Sprintf("Net (%s)", base)); err != nil {
		return nil, err
	}
	for i, p := range periodic {
		if err := setRow(f, periodicSheet, i+2, p.Label, p.CapitalCalls, p.Distributions, p.Net); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// LiquidityWorkbook renders the funding gap and cash-reserve simulation.
func LiquidityWorkbook(gap []portfolio.FundingGapRow, reserve []portfolio.ReservePoint, base, scenario string, startBalance float64) (*excelize.File, error) {
	f := excelize.NewFile()

	const gapSheet = "Funding Gap"
	if err := f.SetSheetName("Sheet1", gapSheet); err != nil {
		return nil, err
	}
	if err := setRow(f, gapSheet, 1, "Period", "Expected Calls", "Expected Distributions", "Net Funding Need", "Cumulative Funding Need"); err != nil {
		return nil, err
	}
	for i, row := range gap {
		err := setRow(f, gapSheet, i+2,
			row.PeriodLabel, row.ExpectedCalls, row.ExpectedDistributions,
			row.NetFundingNeed, row.CumulativeFundingNeed)
		if err != nil {
			return nil, err
		}
	}

	const reserveSheet = "Cash Reserve"
	if _, err := f.NewSheet(reserveSheet); err != nil {
		return nil, err
	}
	if err := setRow(f, reserveSheet, 1, "Date", "Inflow", "Outflow", "Net", "Balance"); err != nil {
		return nil, err
	}
	for i, p := range reserve {
		err := setRow(f, reserveSheet, i+2,
			p.Date.Format(dateLayout), p.Inflow, p.Outflow, p.Net, p.Balance)
		if err != nil {
			return nil, err
		}
	}

	const paramsSheet = "Parameters"
	if _, err := f.NewSheet(paramsSheet); err != nil {
		return nil, err
	}
	rows := [][2]any{
		{"Base Currency", base},
		{"Start Balance", startBalance},
		{"Scenario", scenario},
		{"Export Date", time.Now().Format(dateLayout)},
	}
	if err := setRow(f, paramsSheet, 1, "Parameter", "Value"); err != nil {
		return nil, err
	}
	for i, r := range rows {
		if err := setRow(f, paramsSheet, i+2, r[0], r[1]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func optionalAmount(v *float64) any {
	if v == nil {
		return "n/a"
	}
	return *v
}
