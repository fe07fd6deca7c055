package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// RainfallSource supplies monthly rainfall normals for a coordinate.
type RainfallSource interface {
	// MonthlyNormals returns the long-run mean rainfall for each calendar month.
	MonthlyNormals(ctx context.Context, lat, lon float64) (RainfallProfile, error)

	// Name identifies the provider in results and logs.
	Name() string
}

// ErrRainfallUnavailable is returned when a request carries only a location
// and no rainfall source is configured or the lookup fails.
var ErrRainfallUnavailable = errors.New("rainfall unavailable")

// ResolveRainfall fills in the request's rainfall from its location when the
// request did not supply a profile. It returns the request and the name of
// the rainfall source, empty when the request carried its own profile.
func ResolveRainfall(ctx context.Context, req AssessmentRequest, source RainfallSource, logger *slog.Logger) (AssessmentRequest, string, error) {
	if !req.NeedsRainfall() {
		return req, "", nil
	}
	if source == nil {
		return req, "", fmt.Errorf("%w: request %q has a location but no rainfall profile", ErrRainfallUnavailable, req.ID)
	}
	if err := req.Location.Validate(); err != nil {
		return req, "", err
	}

	profile, err := source.MonthlyNormals(ctx, req.Location.Lat, req.Location.Lon)
	if err != nil {
		logger.Warn("rainfall lookup failed",
			"request_id", req.ID,
			"lat", req.Location.Lat,
			"lon", req.Location.Lon,
			"source", source.Name(),
			"error", err,
		)
		return req, "", fmt.Errorf("%w: %s lookup: %v", ErrRainfallUnavailable, source.Name(), err)
	}

	profile = profile.Reconcile()
	req.Rainfall = &profile
	return req, source.Name(), nil
}
