package schema

import (
	"fmt"
	"math"
	"time"
)

// Status is the flight verdict returned by the model.
type Status string

const (
	StatusAllowed    Status = "ALLOWED"
	StatusProhibited Status = "PROHIBITED"
	StatusCaution    Status = "CAUTION"
)

// IsValidStatus reports whether s is one of the three defined verdicts.
// The model's structured output only guarantees a string; membership is
// checked here.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusAllowed, StatusProhibited, StatusCaution:
		return true
	}
	return false
}

// DroneClass is a regulatory weight/capability class (C0–C6).
type DroneClass struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Details string `json:"details" yaml:"details"`
}

// Location is a single geolocation reading in signed decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate returns an error if either coordinate is non-finite or out of range.
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || math.IsInf(l.Latitude, 0) {
		return fmt.Errorf("latitude %v is not a finite number", l.Latitude)
	}
	if math.IsNaN(l.Longitude) || math.IsInf(l.Longitude, 0) {
		return fmt.Errorf("longitude %v is not a finite number", l.Longitude)
	}
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %g", l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %g", l.Longitude)
	}
	return nil
}

// Query is one compliance check request: a drone class key and a location.
type Query struct {
	ClassID  string   `json:"class_id"`
	Location Location `json:"location"`
}

// Result is the validated answer to a Query.
type Result struct {
	Status      Status `json:"status"`
	AreaType    string `json:"areaType"`
	Explanation string `json:"explanation"`
	Hazards     string `json:"hazards"`
}

// Report is what the CLI emits for a completed check.
type Report struct {
	Tool     string    `json:"tool"`
	Version  string    `json:"version"`
	CheckID  string    `json:"check_id"`
	Query    Query     `json:"query"`
	Class    string    `json:"class_name"`
	Result   Result    `json:"result"`
	Daylight *Daylight `json:"daylight,omitempty"`
	Meta     Meta      `json:"meta"`
}

// Daylight holds the sun events at the checked location on the check date,
// in UTC. Night is true when the check time lies outside civil twilight.
type Daylight struct {
	CivilDawn time.Time `json:"civil_dawn"`
	Sunrise   time.Time `json:"sunrise"`
	Sunset    time.Time `json:"sunset"`
	CivilDusk time.Time `json:"civil_dusk"`
	Night     bool      `json:"night"`
}

// Meta holds runtime metadata about the model call.
type Meta struct {
	Model      string `json:"model"`
	DurationMS int64  `json:"duration_ms"`
}

// Headline returns the French headline shown for a status. Unknown values
// never reach rendering since the validator rejects them.
func (s Status) Headline() string {
	switch s {
	case StatusAllowed:
		return "Vol autorisé"
	case StatusProhibited:
		return "Vol interdit"
	case StatusCaution:
		return "Vol avec restrictions"
	}
	return ""
}
