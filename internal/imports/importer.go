// Package imports loads cashflow events from uploaded spreadsheets.
//
// Rows are parsed positionally (fund name, date, type, amount, status,
// scenario, notes). Parsing is tolerant: bad rows are collected as row
// errors and the remaining rows are still written, so a single typo does
// not reject a whole upload.
package imports

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"peflow/cashflow-backend/internal/cashflow"
	"peflow/cashflow-backend/internal/export"
)

// RowError records why a single spreadsheet row was rejected. Row is the
// 1-based row number as the user sees it in the sheet, header included.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Result summarizes a partial-success import.
type Result struct {
	Imported int        `json:"imported"`
	Errors   []RowError `json:"errors,omitempty"`
}

// EventStore is the slice of the cashflow service an import needs.
type EventStore interface {
	Funds(ctx context.Context) ([]cashflow.FundCommitment, error)
	SaveEvents(ctx context.Context, fundID uuid.UUID, events []cashflow.Event) (int, error)
}

// Importer parses workbooks and writes the valid rows through the cashflow
// service.
type Importer struct {
	svc    EventStore
	logger *zap.Logger
}

func NewImporter(svc EventStore, logger *zap.Logger) *Importer {
	return &Importer{svc: svc, logger: logger}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02.01.2006",
	"01/02/2006",
	"1/2/06",
}

var truthyStatus = map[string]bool{
	"actual": true, "true": true, "1": true, "yes": true, "ist": true, "ja": true,
}

// ImportWorkbook reads the first sheet of an xlsx stream and imports its
// rows. The first row is treated as a header and skipped.
func (im *Importer) ImportWorkbook(ctx context.Context, r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) > 0 {
		rows = rows[1:]
	}
	return im.ImportRows(ctx, rows)
}

// ImportRows validates and writes data rows. Row numbering in errors starts
// at 2 to account for the header row the caller already stripped.
func (im *Importer) ImportRows(ctx context.Context, rows [][]string) (*Result, error) {
	funds, err := im.svc.Funds(ctx)
	if err != nil {
		return nil, err
	}
	fundsByName := make(map[string]cashflow.FundCommitment, len(funds))
	for _, f := range funds {
		fundsByName[strings.ToLower(strings.TrimSpace(f.Name))] = f
	}

	result := &Result{}
	byFund := make(map[uuid.UUID][]cashflow.Event)
	names := make(map[uuid.UUID]string)
	var order []uuid.UUID

	for i, row := range rows {
		rowNum := i + 2
		fund, ev, perr := parseRow(row, fundsByName)
		if perr != nil {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: perr.Error()})
			continue
		}
		if _, seen := byFund[fund.FundID]; !seen {
			order = append(order, fund.FundID)
			names[fund.FundID] = fund.Name
		}
		byFund[fund.FundID] = append(byFund[fund.FundID], *ev)
	}

	for _, fundID := range order {
		n, err := im.svc.SaveEvents(ctx, fundID, byFund[fundID])
		if err != nil {
			return nil, fmt.Errorf("import events for %s: %w", names[fundID], err)
		}
		result.Imported += n
	}

	im.logger.Info("import finished",
		zap.Int("imported", result.Imported),
		zap.Int("rejected", len(result.Errors)))
	return result, nil
}

func parseRow(row []string, fundsByName map[string]cashflow.FundCommitment) (cashflow.FundCommitment, *cashflow.Event, error) {
	var none cashflow.FundCommitment
	col := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	name := col(0)
	if name == "" {
		return none, nil, fmt.Errorf("missing fund name")
	}
	fund, ok := fundsByName[strings.ToLower(name)]
	if !ok {
		return none, nil, fmt.Errorf("unknown fund %q", name)
	}

	date, err := parseDate(col(1))
	if err != nil {
		return none, nil, err
	}

	flowType, err := parseType(col(2))
	if err != nil {
		return none, nil, err
	}

	amount, err := parseAmount(col(3))
	if err != nil {
		return none, nil, err
	}

	scenario := col(5)
	if scenario == "" {
		scenario = cashflow.BaseScenario
	}

	ev := cashflow.Event{
		FundID:   fund.FundID,
		Date:     date,
		Type:     flowType,
		Amount:   amount,
		Currency: fund.Currency,
		IsActual: parseStatus(col(4)),
		Scenario: scenario,
	}
	if notes := col(6); notes != "" {
		ev.Note = &notes
	}
	return fund, &ev, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// parseType accepts both the storage code ("capital_call") and the display
// label ("Capital Call"), case-insensitively.
func parseType(s string) (cashflow.FlowType, error) {
	if s == "" {
		return "", fmt.Errorf("missing type")
	}
	if t, err := cashflow.ParseFlowType(strings.ToLower(strings.ReplaceAll(s, " ", "_"))); err == nil {
		return t, nil
	}
	for t, label := range export.TypeLabels {
		if strings.EqualFold(s, label) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown cashflow type %q", s)
}

func parseAmount(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("missing amount")
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q", s)
	}
	if v <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %v", v)
	}
	return v, nil
}

// An empty status column means the row is an actual; forecasts must be
// marked explicitly.
func parseStatus(s string) bool {
	if s == "" {
		return true
	}
	return truthyStatus[strings.ToLower(s)]
}
