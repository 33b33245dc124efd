package classify

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/dronecheck/internal/catalog"
	"github.com/dshills/dronecheck/internal/llm"
	"github.com/dshills/dronecheck/internal/schema"
)

// fakeProvider returns a canned response and counts calls.
type fakeProvider struct {
	content string
	err     error
	calls   atomic.Int32
	lastReq *llm.Request
}

func (f *fakeProvider) Complete(_ context.Context, req *llm.Request) (*llm.Response, error) {
	f.calls.Add(1)
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.content, Model: "fake:model"}, nil
}

var paris = schema.Location{Latitude: 48.8566, Longitude: 2.3522}

func newClassifier(t *testing.T, p llm.Provider, opts ...Option) *Classifier {
	t.Helper()
	c, err := New(catalog.MustBundled(), p, opts...)
	require.NoError(t, err)
	return c
}

func TestEvaluate_Success(t *testing.T) {
	p := &fakeProvider{content: `{"status": "ALLOWED", "areaType": "Rural", "explanation": "ok", "hazards": "Aucun danger majeur identifié"}`}
	c := newClassifier(t, p)

	res, err := c.Evaluate(context.Background(), schema.Query{ClassID: "C0", Location: paris})
	require.NoError(t, err)
	assert.Equal(t, schema.Result{
		Status:      schema.StatusAllowed,
		AreaType:    "Rural",
		Explanation: "ok",
		Hazards:     "Aucun danger majeur identifié",
	}, *res)
	assert.Equal(t, int32(1), p.calls.Load())

	require.NotNil(t, p.lastReq)
	assert.Same(t, llm.ComplianceSchema, p.lastReq.ResponseSchema)
	assert.Contains(t, p.lastReq.UserPrompt, "C0 (<250g)")
	assert.Contains(t, p.lastReq.UserPrompt, "48.8566")
}

func TestEvaluate_UnknownClass_NoNetworkCall(t *testing.T) {
	for _, id := range []string{"", "C7", "c0", "A1", "ouverte"} {
		p := &fakeProvider{content: "{}"}
		c := newClassifier(t, p)

		_, err := c.Evaluate(context.Background(), schema.Query{ClassID: id, Location: paris})
		assert.ErrorIs(t, err, ErrInvalidInput, "class %q", id)
		assert.Equal(t, KindInvalidInput, KindOf(err))
		assert.Zero(t, p.calls.Load(), "class %q must not reach the provider", id)
	}
}

func TestEvaluate_OutOfRangeLocation(t *testing.T) {
	locs := []schema.Location{
		{Latitude: 90.5, Longitude: 0},
		{Latitude: -90.01, Longitude: 0},
		{Latitude: 0, Longitude: 181},
		{Latitude: 0, Longitude: -180.2},
		{Latitude: math.NaN(), Longitude: 0},
	}
	for _, loc := range locs {
		p := &fakeProvider{content: "{}"}
		c := newClassifier(t, p)

		_, err := c.Evaluate(context.Background(), schema.Query{ClassID: "C1", Location: loc})
		assert.ErrorIs(t, err, ErrInvalidInput, "location %+v", loc)
		assert.Zero(t, p.calls.Load())
	}
}

func TestEvaluate_TransportFailure(t *testing.T) {
	p := &fakeProvider{err: errors.New(`Post "https://x.test/?key=abcdef123456": connection refused`)}
	c := newClassifier(t, p)

	_, err := c.Evaluate(context.Background(), schema.Query{ClassID: "C2", Location: paris})
	require.ErrorIs(t, err, ErrTransportFailure)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
	assert.NotContains(t, err.Error(), "abcdef123456")
	assert.Equal(t, int32(1), p.calls.Load(), "no automatic retry")
}

func TestEvaluate_TransportFailure_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &fakeProvider{err: errors.New("request aborted")}
	c := newClassifier(t, p)

	_, err := c.Evaluate(ctx, schema.Query{ClassID: "C2", Location: paris})
	assert.ErrorIs(t, err, ErrTransportFailure)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluate_MalformedResponse(t *testing.T) {
	p := &fakeProvider{content: `{"status": "ALLOWED", "areaType": `}
	c := newClassifier(t, p)

	_, err := c.Evaluate(context.Background(), schema.Query{ClassID: "C3", Location: paris})
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}

func TestEvaluate_MissingFieldIsSchemaViolation(t *testing.T) {
	p := &fakeProvider{content: `{"status": "CAUTION", "areaType": "Urbain", "explanation": "Zone peuplée"}`}
	c := newClassifier(t, p)

	_, err := c.Evaluate(context.Background(), schema.Query{ClassID: "C3", Location: paris})
	require.ErrorIs(t, err, ErrSchemaViolation)
	assert.Contains(t, err.Error(), "hazards")
}

func TestEvaluate_UnknownStatusIsNotCoerced(t *testing.T) {
	p := &fakeProvider{content: `{"status": "MAYBE", "areaType": "x", "explanation": "y", "hazards": "z"}`}
	c := newClassifier(t, p)

	res, err := c.Evaluate(context.Background(), schema.Query{ClassID: "C4", Location: paris})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrSchemaViolation)
}

func TestEvaluate_NoMemoization(t *testing.T) {
	p := &fakeProvider{content: `{"status": "PROHIBITED", "areaType": "Aéroport", "explanation": "CTR", "hazards": "Piste"}`}
	c := newClassifier(t, p)
	q := schema.Query{ClassID: "C5", Location: paris}

	for i := 0; i < 3; i++ {
		_, err := c.Evaluate(context.Background(), q)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), p.calls.Load())
}

func TestEvaluateDetailed_Metadata(t *testing.T) {
	p := &fakeProvider{content: "```json\n{\"status\": \"CAUTION\", \"areaType\": \"Parc\", \"explanation\": \"e\", \"hazards\": \"h\"}\n```"}
	var prompts []string
	c := newClassifier(t, p,
		WithTemperature(0.3),
		WithMaxTokens(512),
		WithPromptHook(func(s string) { prompts = append(prompts, s) }))

	out, err := c.EvaluateDetailed(context.Background(), schema.Query{ClassID: "C6", Location: paris})
	require.NoError(t, err)
	assert.Equal(t, "fake:model", out.Model)
	assert.Equal(t, "C6", out.Class.ID)
	assert.Equal(t, schema.StatusCaution, out.Result.Status)
	assert.InDelta(t, 0.3, p.lastReq.Temperature, 1e-9)
	assert.Equal(t, 512, p.lastReq.MaxTokens)
	require.Len(t, prompts, 1)
	assert.True(t, strings.Contains(prompts[0], "C6"))
}

func TestErrorKindsAreDistinct(t *testing.T) {
	sentinels := []error{ErrInvalidInput, ErrTransportFailure, ErrMalformedResponse, ErrSchemaViolation}
	for i, a := range sentinels {
		for j, b := range sentinels {
			assert.Equal(t, i == j, errors.Is(a, b), "%v vs %v", a, b)
		}
	}
	assert.Equal(t, Kind(""), KindOf(errors.New("other")))
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(nil, &fakeProvider{})
	assert.Error(t, err)
	_, err = New(catalog.MustBundled(), nil)
	assert.Error(t, err)
}
