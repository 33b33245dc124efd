package geo

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/dronecheck/internal/schema"
)

const testLookupURL = "http://geo.test/json"

func newMockedLookup(t *testing.T) *IPLookup {
	t.Helper()
	p := NewIPLookup(testLookupURL)
	httpmock.ActivateNonDefault(p.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return p
}

func TestIPLookup_Success(t *testing.T) {
	p := newMockedLookup(t)
	httpmock.RegisterResponder(http.MethodGet, testLookupURL,
		httpmock.NewStringResponder(http.StatusOK, `{"status":"success","lat":45.764,"lon":4.8357}`))

	loc, err := p.CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 45.764, loc.Latitude, 1e-9)
	assert.InDelta(t, 4.8357, loc.Longitude, 1e-9)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestIPLookup_Failures(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{"lookup fail status", httpmock.NewStringResponder(http.StatusOK, `{"status":"fail","message":"private range"}`)},
		{"http error", httpmock.NewStringResponder(http.StatusTooManyRequests, `{}`)},
		{"garbage body", httpmock.NewStringResponder(http.StatusOK, `<html>`)},
		{"out of range", httpmock.NewStringResponder(http.StatusOK, `{"status":"success","lat":123,"lon":0}`)},
		{"network", httpmock.NewErrorResponder(errors.New("connection reset"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newMockedLookup(t)
			httpmock.RegisterResponder(http.MethodGet, testLookupURL, tt.responder)

			_, err := p.CurrentLocation(context.Background())
			assert.ErrorIs(t, err, ErrDenied)
			assert.NotErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestFixed(t *testing.T) {
	loc, err := Fixed{Latitude: 43.6, Longitude: 1.44}.CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schema.Location{Latitude: 43.6, Longitude: 1.44}, loc)

	_, err = Fixed{Latitude: 91, Longitude: 0}.CurrentLocation(context.Background())
	assert.ErrorIs(t, err, ErrDenied)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Fixed{}.CurrentLocation(ctx)
	assert.ErrorIs(t, err, ErrDenied)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNone(t *testing.T) {
	_, err := None{}.CurrentLocation(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNew(t *testing.T) {
	p, err := New(Config{Source: SourceFixed, Fixed: &schema.Location{Latitude: 1, Longitude: 2}})
	require.NoError(t, err)
	assert.IsType(t, Fixed{}, p)

	_, err = New(Config{Source: SourceFixed})
	assert.Error(t, err)

	p, err = New(Config{Source: SourceIP})
	require.NoError(t, err)
	assert.Equal(t, DefaultLookupURL, p.(*IPLookup).url)

	p, err = New(Config{})
	require.NoError(t, err)
	assert.IsType(t, None{}, p)

	_, err = New(Config{Source: "gps"})
	assert.Error(t, err)
}
