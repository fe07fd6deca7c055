// Package uncertainty brackets the annual yield estimate with a Monte-Carlo
// ensemble over rainfall variability.
package uncertainty

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/hydrology"
	"gonum.org/v1/gonum/stat"
)

// Defaults for the ensemble.
const (
	DefaultTrials = 1000
	DefaultSigma  = 0.20
)

// Citations accompany every confidence band.
var Citations = []string{
	"Thomas, T.H. & Martinson, D.B. (2007). Roofwater Harvesting: A Handbook for Practitioners. IRC Technical Paper Series 49.",
	"Gould, J. & Nissen-Petersen, E. (1999). Rainwater Catchment Systems for Domestic Supply. ITDG Publishing.",
	"Texas Water Development Board (2005). The Texas Manual on Rainwater Harvesting, 3rd ed.",
}

// Options tunes the ensemble. A zero Trials or CollectionEfficiency falls back
// to the default. A zero Sigma does not: it collapses the band onto the
// deterministic estimate. Start from DefaultOptions for the 0.20 default.
type Options struct {
	Trials               int     // 0 means DefaultTrials
	Sigma                float64 // relative standard deviation of monthly rainfall; 0 disables perturbation
	Seed                 uint64  // 0 derives a seed from the inputs
	CollectionEfficiency float64 // 0 means 1.0
}

// DefaultOptions runs 1,000 trials at 20% relative variance.
func DefaultOptions() Options {
	return Options{Trials: DefaultTrials, Sigma: DefaultSigma}
}

// Estimate perturbs each month's rainfall independently by a Gaussian
// relative error, floors it at zero, recomputes the annual yield and reports
// the 10th, 50th and 90th percentiles of the trial totals.
//
// The random source is created per call. With Seed unset the seed is a hash
// of the inputs, so identical requests return identical bands and concurrent
// calls never share generator state.
func Estimate(catchment domain.CatchmentSpec, rainfall domain.RainfallProfile, coefficient float64, opts Options) (domain.ConfidenceBand, error) {
	if err := catchment.Validate(); err != nil {
		return domain.ConfidenceBand{}, err
	}
	if err := rainfall.Validate(); err != nil {
		return domain.ConfidenceBand{}, err
	}
	if math.IsNaN(coefficient) || coefficient <= 0 || coefficient > 1 {
		return domain.ConfidenceBand{}, fmt.Errorf("%w: coefficient must be within (0, 1], got %g", domain.ErrInvalidInput, coefficient)
	}
	trials := opts.Trials
	if trials == 0 {
		trials = DefaultTrials
	}
	if trials < 0 {
		return domain.ConfidenceBand{}, fmt.Errorf("%w: trials must be positive, got %d", domain.ErrInvalidInput, trials)
	}
	if math.IsNaN(opts.Sigma) || opts.Sigma < 0 {
		return domain.ConfidenceBand{}, fmt.Errorf("%w: sigma must be non-negative, got %g", domain.ErrInvalidInput, opts.Sigma)
	}
	eff := opts.CollectionEfficiency
	if eff == 0 {
		eff = 1.0
	}
	if math.IsNaN(eff) || eff < 0 || eff > 1 {
		return domain.ConfidenceBand{}, fmt.Errorf("%w: collection efficiency must be within (0, 1], got %g", domain.ErrInvalidInput, eff)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = deriveSeed(catchment.AreaSqm, rainfall.MonthlyMM, coefficient, eff, opts.Sigma, trials)
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	totals := make([]float64, trials)
	for t := range totals {
		var total float64
		for _, mm := range rainfall.MonthlyMM {
			perturbed := math.Max(0, mm*(1+opts.Sigma*rng.NormFloat64()))
			total += hydrology.Runoff(catchment.AreaSqm, perturbed, coefficient, eff)
		}
		totals[t] = total
	}
	sort.Float64s(totals)

	mean, std := stat.MeanStdDev(totals, nil)
	if trials < 2 {
		std = 0
	}
	citations := make([]string, len(Citations))
	copy(citations, Citations)

	return domain.ConfidenceBand{
		P10:       stat.Quantile(0.10, stat.Empirical, totals, nil),
		P50:       stat.Quantile(0.50, stat.Empirical, totals, nil),
		P90:       stat.Quantile(0.90, stat.Empirical, totals, nil),
		Mean:      mean,
		StdDev:    std,
		Trials:    trials,
		Sigma:     opts.Sigma,
		Citations: citations,
	}, nil
}

// deriveSeed hashes the ensemble inputs into a non-zero seed.
func deriveSeed(area float64, monthly [domain.MonthsPerYear]float64, coefficient, efficiency, sigma float64, trials int) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	write := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:]) //nolint:errcheck // hash writes never fail
	}
	write(area)
	for _, mm := range monthly {
		write(mm)
	}
	write(coefficient)
	write(efficiency)
	write(sigma)
	write(float64(trials))
	if s := h.Sum64(); s != 0 {
		return s
	}
	return 1
}
