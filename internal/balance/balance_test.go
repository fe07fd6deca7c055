package balance

import (
	"testing"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatSupply(v float64) [12]float64 {
	var s [12]float64
	for i := range s {
		s[i] = v
	}
	return s
}

func TestSimulate_SupplyExceedsDemand(t *testing.T) {
	// 100 L/day = 3,000 L/month against 5,000 L/month supply.
	res, err := Simulate(Input{
		SupplyLiters:   flatSupply(5000),
		CapacityLiters: 4000,
		DailyDemand:    100,
		InitialFill:    0.5,
	})
	require.NoError(t, err)
	require.Len(t, res.Entries, 12)

	jan := res.Entries[0]
	assert.Equal(t, "Jan", jan.Month)
	assert.Equal(t, 3000.0, jan.DemandLiters)
	// 2,000 + 5,000 - 3,000 = 4,000: exactly full, no overflow.
	assert.Equal(t, 4000.0, jan.LevelLiters)
	assert.Equal(t, 0.0, jan.OverflowLiters)
	assert.Equal(t, 100.0, jan.UtilizationPct)
	assert.True(t, jan.DemandMet)

	feb := res.Entries[1]
	// 4,000 + 5,000 - 3,000 = 6,000 -> 2,000 overflow.
	assert.Equal(t, 4000.0, feb.LevelLiters)
	assert.Equal(t, 2000.0, feb.OverflowLiters)

	assert.Equal(t, "Dec", res.Entries[11].Month)
	assert.Equal(t, 12, res.MonthsMet)
	assert.Equal(t, 100.0, res.ReliabilityPct)
	assert.Equal(t, 0.0, res.TotalDeficit)
	assert.Equal(t, 22000.0, res.TotalOverflow)
	assert.Equal(t, 36000.0, res.TotalSupplied)
}

func TestSimulate_DeficitMonths(t *testing.T) {
	supply := flatSupply(0)
	supply[0] = 1000

	res, err := Simulate(Input{
		SupplyLiters:   supply,
		CapacityLiters: 2000,
		DailyDemand:    50, // 1,500 L/month
		InitialFill:    0.5,
	})
	require.NoError(t, err)

	// Jan: 1,000 + 1,000 = 2,000 available, 1,500 used, 500 left.
	assert.True(t, res.Entries[0].DemandMet)
	assert.Equal(t, 500.0, res.Entries[0].LevelLiters)
	// Feb: only 500 available -> 1,000 deficit.
	assert.False(t, res.Entries[1].DemandMet)
	assert.Equal(t, 1000.0, res.Entries[1].DeficitLiters)
	assert.Equal(t, 0.0, res.Entries[1].LevelLiters)

	assert.Equal(t, 1, res.MonthsMet)
	assert.InDelta(t, 100.0/12, res.ReliabilityPct, 1e-9)
	assert.Equal(t, 1000.0+10*1500.0, res.TotalDeficit)
	assert.Equal(t, 2000.0, res.TotalSupplied)
}

func TestSimulate_Idempotent(t *testing.T) {
	in := Input{
		SupplyLiters:   [12]float64{1224, 1224, 884, 680, 1564, 3672, 12240, 11764, 7888, 1292, 272, 680},
		CapacityLiters: 8000,
		DailyDemand:    400,
		InitialFill:    0.5,
	}

	first, err := Simulate(in)
	require.NoError(t, err)
	second, err := Simulate(in)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("replay mismatch (-first +second):\n%s", diff)
	}
}

func TestSimulate_ReliabilityMonotoneInCapacity(t *testing.T) {
	supply := [12]float64{1530, 1530, 1105, 850, 1955, 4590, 15300, 14705, 9860, 1615, 340, 850}
	prev := -1.0
	for c := 1000.0; c <= 50000; c += 1000 {
		res, err := Simulate(Input{SupplyLiters: supply, CapacityLiters: c, DailyDemand: 150, InitialFill: 0.5})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.ReliabilityPct, prev, "capacity %.0f", c)
		assert.GreaterOrEqual(t, res.ReliabilityPct, 0.0)
		assert.LessOrEqual(t, res.ReliabilityPct, 100.0)
		prev = res.ReliabilityPct
	}
}

func TestSimulateSeason_OrderAndWindow(t *testing.T) {
	supply := flatSupply(0)
	supply[9] = 3000 // October

	res, err := SimulateSeason(Input{
		SupplyLiters:   supply,
		CapacityLiters: 10000,
		DailyDemand:    50,
		InitialFill:    0.5,
	}, domain.DefaultDrySeason)
	require.NoError(t, err)
	require.Len(t, res.Entries, 6)

	labels := make([]string, len(res.Entries))
	for i, e := range res.Entries {
		labels[i] = e.Month
	}
	assert.Equal(t, []string{"Oct", "Nov", "Dec", "Jan", "Feb", "Mar"}, labels)

	// 5,000 initial + 3,000 October = 8,000 L covers 5 months of 1,500 L.
	assert.Equal(t, 5, res.MonthsMet)
	assert.InDelta(t, 5.0/6*100, res.ReliabilityPct, 1e-9)
}

func TestSimulate_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   Input
	}{
		{"zero demand", Input{CapacityLiters: 1000, DailyDemand: 0, InitialFill: 0.5}},
		{"tiny negative demand", Input{CapacityLiters: 1000, DailyDemand: -1e-12, InitialFill: 0.5}},
		{"zero capacity", Input{CapacityLiters: 0, DailyDemand: 100, InitialFill: 0.5}},
		{"overfull", Input{CapacityLiters: 1000, DailyDemand: 100, InitialFill: 1.5}},
		{"negative supply", Input{SupplyLiters: [12]float64{-1}, CapacityLiters: 1000, DailyDemand: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Simulate(tt.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestReliability(t *testing.T) {
	assert.Equal(t, 0.0, Reliability(0, 0))
	assert.Equal(t, 50.0, Reliability(6, 12))
	assert.Equal(t, 100.0, Reliability(6, 6))
}
