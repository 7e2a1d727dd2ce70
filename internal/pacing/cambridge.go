package pacing

import "peflow/cashflow-backend/internal/cashflow"

// BenchmarkCurve holds annual call and distribution fractions of commitment.
type BenchmarkCurve struct {
	Calls []float64
	Dists []float64
}

// BenchmarkSource looks up a benchmark curve by strategy and percentile.
// The embedded table satisfies it; a provider backed by live benchmark data
// can be swapped in.
type BenchmarkSource interface {
	Curve(strategy, percentile string) BenchmarkCurve
}

// Strategies and percentiles accepted by the embedded benchmark table.
var (
	BenchmarkStrategies  = []string{"buyout", "venture", "growth", "infrastructure", "real_estate"}
	BenchmarkPercentiles = []string{"q1", "median", "q3"}
)

// embeddedBenchmarks are industry pacing curves per strategy and quartile,
// expressed as fractions of commitment per year of fund life.
type embeddedBenchmarks struct{}

var benchmarkTable = map[string]map[string]BenchmarkCurve{
	"buyout": {
		"q1": {
			Calls: []float64{0.20, 0.20, 0.15, 0.10, 0.08, 0.05, 0.03, 0.02, 0.01, 0.01},
			Dists: []float64{0.00, 0.02, 0.05, 0.10, 0.15, 0.18, 0.20, 0.18, 0.12, 0.08},
		},
		"median": {
			Calls: []float64{0.25, 0.25, 0.18, 0.12, 0.08, 0.05, 0.03, 0.02, 0.01, 0.01},
			Dists: []float64{0.00, 0.03, 0.08, 0.14, 0.18, 0.22, 0.24, 0.22, 0.15, 0.10},
		},
		"q3": {
			Calls: []float64{0.30, 0.28, 0.20, 0.12, 0.05, 0.03, 0.01, 0.01, 0.00, 0.00},
			Dists: []float64{0.00, 0.05, 0.12, 0.20, 0.25, 0.28, 0.30, 0.28, 0.20, 0.15},
		},
	},
	"venture": {
		"q1": {
			Calls: []float64{0.15, 0.20, 0.20, 0.15, 0.10, 0.08, 0.05, 0.03, 0.02, 0.02},
			Dists: []float64{0.00, 0.00, 0.02, 0.05, 0.08, 0.12, 0.15, 0.18, 0.15, 0.10},
		},
		"median": {
			Calls: []float64{0.20, 0.22, 0.20, 0.15, 0.10, 0.06, 0.04, 0.02, 0.01, 0.00},
			Dists: []float64{0.00, 0.01, 0.04, 0.08, 0.12, 0.16, 0.20, 0.22, 0.18, 0.12},
		},
		"q3": {
			Calls: []float64{0.25, 0.25, 0.22, 0.13, 0.08, 0.04, 0.02, 0.01, 0.00, 0.00},
			Dists: []float64{0.00, 0.02, 0.08, 0.15, 0.20, 0.25, 0.30, 0.32, 0.25, 0.18},
		},
	},
	"growth": {
		"q1": {
			Calls: []float64{0.22, 0.22, 0.18, 0.12, 0.08, 0.06, 0.04, 0.03, 0.02, 0.01},
			Dists: []float64{0.00, 0.02, 0.06, 0.10, 0.14, 0.18, 0.20, 0.18, 0.14, 0.10},
		},
		"median": {
			Calls: []float64{0.25, 0.25, 0.20, 0.12, 0.08, 0.05, 0.03, 0.01, 0.01, 0.00},
			Dists: []float64{0.00, 0.03, 0.08, 0.14, 0.18, 0.22, 0.24, 0.22, 0.16, 0.12},
		},
		"q3": {
			Calls: []float64{0.30, 0.28, 0.22, 0.10, 0.05, 0.03, 0.01, 0.01, 0.00, 0.00},
			Dists: []float64{0.00, 0.05, 0.12, 0.20, 0.24, 0.28, 0.30, 0.28, 0.22, 0.16},
		},
	},
	"infrastructure": {
		"q1": {
			Calls: []float64{0.15, 0.18, 0.18, 0.15, 0.12, 0.08, 0.05, 0.04, 0.03, 0.02},
			Dists: []float64{0.00, 0.02, 0.05, 0.08, 0.10, 0.12, 0.14, 0.14, 0.12, 0.10},
		},
		"median": {
			Calls: []float64{0.20, 0.22, 0.20, 0.15, 0.10, 0.06, 0.04, 0.02, 0.01, 0.00},
			Dists: []float64{0.00, 0.03, 0.07, 0.10, 0.13, 0.16, 0.18, 0.18, 0.15, 0.12},
		},
		"q3": {
			Calls: []float64{0.25, 0.25, 0.22, 0.13, 0.08, 0.04, 0.02, 0.01, 0.00, 0.00},
			Dists: []float64{0.00, 0.05, 0.10, 0.15, 0.18, 0.22, 0.24, 0.24, 0.20, 0.16},
		},
	},
	"real_estate": {
		"q1": {
			Calls: []float64{0.18, 0.20, 0.18, 0.15, 0.10, 0.07, 0.05, 0.03, 0.02, 0.02},
			Dists: []float64{0.00, 0.03, 0.06, 0.10, 0.12, 0.15, 0.16, 0.16, 0.14, 0.10},
		},
		"median": {
			Calls: []float64{0.22, 0.24, 0.20, 0.14, 0.08, 0.05, 0.04, 0.02, 0.01, 0.00},
			Dists: []float64{0.00, 0.04, 0.08, 0.12, 0.16, 0.18, 0.20, 0.20, 0.16, 0.12},
		},
		"q3": {
			Calls: []float64{0.28, 0.26, 0.22, 0.12, 0.06, 0.03, 0.02, 0.01, 0.00, 0.00},
			Dists: []float64{0.00, 0.06, 0.12, 0.18, 0.22, 0.26, 0.28, 0.26, 0.22, 0.16},
		},
	},
}

// Curve resolves a benchmark curve, falling back to buyout/median for
// unknown strategies or percentiles.
func (embeddedBenchmarks) Curve(strategy, percentile string) BenchmarkCurve {
	byPercentile, ok := benchmarkTable[strategy]
	if !ok {
		byPercentile = benchmarkTable["buyout"]
	}
	curve, ok := byPercentile[percentile]
	if !ok {
		curve = byPercentile["median"]
	}
	return curve
}

// CambridgeQuantile spreads benchmark annual pacing curves across quarters
// and rescales distributions to hit a target TVPI multiple.
type CambridgeQuantile struct {
	Strategy     string  `json:"strategy"`
	Percentile   string  `json:"percentile"`
	TVPIMultiple float64 `json:"tvpi_multiple"`

	Benchmarks BenchmarkSource `json:"-"`
}

// DefaultCambridgeQuantile returns the model with the embedded benchmark
// table and standard parameters.
func DefaultCambridgeQuantile() *CambridgeQuantile {
	return &CambridgeQuantile{
		Strategy:     "buyout",
		Percentile:   "median",
		TVPIMultiple: 1.6,
		Benchmarks:   embeddedBenchmarks{},
	}
}

func (m *CambridgeQuantile) Code() string { return "cambridge_quantile" }
func (m *CambridgeQuantile) Name() string { return "Cambridge Quantile" }

func (m *CambridgeQuantile) Forecast(in Input) []Entry {
	if in.Commitment <= 0 || in.Lifetime <= 0 {
		return nil
	}
	source := m.Benchmarks
	if source == nil {
		source = embeddedBenchmarks{}
	}
	curve := source.Curve(m.Strategy, m.Percentile)

	callPcts := padTrim(curve.Calls, in.Lifetime)
	distPcts := padTrim(curve.Dists, in.Lifetime)

	totalCalls := sum(callPcts)
	totalDists := sum(distPcts)
	if totalDists > 0 && totalCalls > 0 {
		scale := totalCalls * m.TVPIMultiple / totalDists
		for i := range distPcts {
			distPcts[i] *= scale
		}
	}

	annualCalls := make([]float64, len(callPcts))
	annualDists := make([]float64, len(distPcts))
	for i := range callPcts {
		annualCalls[i] = callPcts[i] * in.Commitment
		annualDists[i] = distPcts[i] * in.Commitment
	}

	quarterlyCalls := annualToQuarterly(annualCalls)
	quarterlyDists := annualToQuarterly(annualDists)
	dates := quarterEnds(in.VintageYear, in.Lifetime)

	var entries []Entry
	for i := range dates {
		entries = appendEntry(entries, dates[i], cashflow.CapitalCall, quarterlyCalls[i])
		entries = appendEntry(entries, dates[i], cashflow.Distribution, quarterlyDists[i])
	}
	return entries
}

func padTrim(values []float64, length int) []float64 {
	out := make([]float64, length)
	copy(out, values)
	return out
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
