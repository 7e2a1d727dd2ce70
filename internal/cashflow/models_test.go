package cashflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowTypeDirections(t *testing.T) {
	outflows := []FlowType{CapitalCall, ManagementFee, CarriedInterest}
	inflows := []FlowType{Distribution, Clawback}

	for _, ft := range outflows {
		assert.Equal(t, Outflow, ft.Direction(), "%s", ft)
		assert.Equal(t, -100.0, ft.Signed(100))
	}
	for _, ft := range inflows {
		assert.Equal(t, Inflow, ft.Direction(), "%s", ft)
		assert.Equal(t, 100.0, ft.Signed(100))
	}

	// Every known type must be covered above; extending the enum without
	// classifying the new type here is a bug.
	assert.ElementsMatch(t, AllFlowTypes(), append(outflows, inflows...))
}

func TestParseFlowType(t *testing.T) {
	for _, ft := range AllFlowTypes() {
		parsed, err := ParseFlowType(string(ft))
		require.NoError(t, err)
		assert.Equal(t, ft, parsed)
	}

	_, err := ParseFlowType("dividend")
	assert.Error(t, err)
	_, err = ParseFlowType("")
	assert.Error(t, err)
}

func TestPeriodLabels(t *testing.T) {
	d := time.Date(2024, time.August, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024Q3", PeriodQuarter.Label(d))
	assert.Equal(t, "2024", PeriodYear.Label(d))

	assert.Equal(t, "2024Q1", PeriodQuarter.Label(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024Q4", PeriodQuarter.Label(time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)))
}
