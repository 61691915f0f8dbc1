package weather

import (
	"context"
	"errors"
)

// ErrUnavailable normalizes every fetch failure (network error, non-2xx
// response, malformed payload). Callers treat "no reading this tick" as a
// steady state and retry naturally on the next scheduled tick.
var ErrUnavailable = errors.New("weather data unavailable")

// Source abstracts a current-conditions data source for a fixed spot.
type Source interface {
	Name() string
	Current(ctx context.Context) (Reading, error)
}
