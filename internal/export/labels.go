// Package export renders cashflow data into Excel workbooks and PDF
// reports.
package export

import "peflow/cashflow-backend/internal/cashflow"

// TypeLabels maps flow types to their display names, shared between the
// export sheets and the import parser.
var TypeLabels = map[cashflow.FlowType]string{
	cashflow.CapitalCall:     "Capital Call",
	cashflow.Distribution:    "Distribution",
	cashflow.ManagementFee:   "Management Fee",
	cashflow.CarriedInterest: "Carried Interest",
	cashflow.Clawback:        "Clawback",
}

// Label returns the display name for a flow type, falling back to the raw
// code for unknown values.
func Label(t cashflow.FlowType) string {
	if l, ok := TypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// StatusLabel renders the actual/planned flag.
func StatusLabel(isActual bool) string {
	if isActual {
		return "Actual"
	}
	return "Planned"
}
