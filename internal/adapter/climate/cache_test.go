package climate

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls   int
	profile domain.RainfallProfile
	err     error
}

func (m *countingSource) MonthlyNormals(_ context.Context, _, _ float64) (domain.RainfallProfile, error) {
	m.calls++
	return m.profile, m.err
}

func (m *countingSource) Name() string { return "counting" }

func TestCachedSource_Hit(t *testing.T) {
	inner := &countingSource{profile: domain.RainfallProfile{MonthlyMM: [12]float64{5}, AnnualMM: 5}}
	cached := NewCachedSource(inner, 10, observability.NewMetricsForTesting())

	p1, err := cached.MonthlyNormals(context.Background(), 12.9716, 77.5946)
	require.NoError(t, err)
	// Same point to two decimals.
	p2, err := cached.MonthlyNormals(context.Background(), 12.9701, 77.5949)
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, "counting", cached.Name())
}

func TestCachedSource_DistinctPoints(t *testing.T) {
	inner := &countingSource{}
	cached := NewCachedSource(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.MonthlyNormals(context.Background(), 12.97, 77.59)
	_, _ = cached.MonthlyNormals(context.Background(), 19.07, 72.87)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSource_ErrorsNotCached(t *testing.T) {
	inner := &countingSource{err: errors.New("timeout")}
	cached := NewCachedSource(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.MonthlyNormals(context.Background(), 1, 1)
	require.Error(t, err)
	_, err = cached.MonthlyNormals(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache[int](2)
	c.put("a", 1)
	c.put("b", 2)
	_, _ = c.get("a") // a is now most recent
	c.put("c", 3)     // evicts b

	_, ok := c.get("b")
	assert.False(t, ok)
	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, c.size())
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache[string](2)
	c.put("k", "old")
	c.put("k", "new")

	v, ok := c.get("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, c.size())
}
