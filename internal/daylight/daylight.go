// Package daylight computes civil twilight and sunrise/sunset at a location
// so a check report can say whether the flight would happen at night.
package daylight

import (
	"fmt"
	"time"

	"github.com/sj14/astral/pkg/astral"

	"github.com/dshills/dronecheck/internal/schema"
)

// At returns the sun events at loc on the local solar date of when, and
// whether when falls outside civil twilight. Locations where the sun does
// not rise or set that day return an error.
func At(loc schema.Location, when time.Time) (*schema.Daylight, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	observer := astral.Observer{Latitude: loc.Latitude, Longitude: loc.Longitude}
	date := solarDate(loc, when)

	civilDawn, err := astral.Dawn(observer, date, astral.DepressionCivil)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate civil dawn: %w", err)
	}
	sunrise, err := astral.Sunrise(observer, date)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate sunrise: %w", err)
	}
	sunset, err := astral.Sunset(observer, date)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate sunset: %w", err)
	}
	civilDusk, err := astral.Dusk(observer, date, astral.DepressionCivil)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate civil dusk: %w", err)
	}

	return &schema.Daylight{
		CivilDawn: civilDawn.UTC(),
		Sunrise:   sunrise.UTC(),
		Sunset:    sunset.UTC(),
		CivilDusk: civilDusk.UTC(),
		Night:     when.Before(civilDawn) || when.After(civilDusk),
	}, nil
}

// solarDate shifts when by the longitude offset (15° per hour) so its UTC
// calendar date is the local day at loc.
func solarDate(loc schema.Location, when time.Time) time.Time {
	return when.UTC().Add(time.Duration(loc.Longitude / 15 * float64(time.Hour)))
}
