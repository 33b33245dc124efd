package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dshills/dronecheck/internal/schema"
)

// DefaultLookupURL is the ip-api.com JSON endpoint.
const DefaultLookupURL = "http://ip-api.com/json/?fields=status,message,lat,lon"

const lookupTimeout = 10 * time.Second

// ipAPIResponse is the subset of the ip-api.com response we read.
type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// IPLookup approximates the caller's position from their public IP address.
type IPLookup struct {
	url    string
	client *http.Client
}

// NewIPLookup returns an IPLookup against url, or DefaultLookupURL when empty.
func NewIPLookup(url string) *IPLookup {
	if url == "" {
		url = DefaultLookupURL
	}
	return &IPLookup{url: url, client: &http.Client{Timeout: lookupTimeout}}
}

// CurrentLocation implements Provider. Every failure is ErrDenied.
func (p *IPLookup) CurrentLocation(ctx context.Context) (schema.Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if err != nil {
		return schema.Location{}, fmt.Errorf("%w: creating request: %w", ErrDenied, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return schema.Location{}, fmt.Errorf("%w: %w", ErrDenied, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return schema.Location{}, fmt.Errorf("%w: lookup returned HTTP %d", ErrDenied, resp.StatusCode)
	}

	const maxBodyBytes = 64 * 1024
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return schema.Location{}, fmt.Errorf("%w: reading response: %w", ErrDenied, err)
	}

	var r ipAPIResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return schema.Location{}, fmt.Errorf("%w: parsing response: %w", ErrDenied, err)
	}
	if r.Status != "success" {
		msg := r.Message
		if msg == "" {
			msg = "position unavailable"
		}
		return schema.Location{}, fmt.Errorf("%w: %s", ErrDenied, msg)
	}

	loc := schema.Location{Latitude: r.Lat, Longitude: r.Lon}
	if err := loc.Validate(); err != nil {
		return schema.Location{}, fmt.Errorf("%w: %w", ErrDenied, err)
	}
	return loc, nil
}
