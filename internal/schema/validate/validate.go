package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/dronecheck/internal/schema"
)

var (
	// ErrMalformed means the response is not a JSON object at all.
	ErrMalformed = errors.New("malformed response")
	// ErrSchema means the response parsed but does not satisfy the result schema.
	ErrSchema = errors.New("schema violation")
)

// RequiredFields lists the result fields the model must return, in schema order.
var RequiredFields = []string{"status", "areaType", "explanation", "hazards"}

// Parse strips markdown fences, decodes the JSON object, and validates the
// structure of a model response. Errors wrap ErrMalformed or ErrSchema.
func Parse(raw string) (*schema.Result, error) {
	cleaned := stripFences(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, fmt.Errorf("%w: JSON parse failed: %v", ErrMalformed, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: response is null", ErrMalformed)
	}

	values := make(map[string]string, len(RequiredFields))
	for _, name := range RequiredFields {
		v, err := stringField(fields, name)
		if err != nil {
			return nil, err
		}
		values[name] = v
	}

	status := schema.Status(values["status"])
	if !schema.IsValidStatus(status) {
		return nil, fmt.Errorf("%w: invalid status %q (must be ALLOWED, PROHIBITED, or CAUTION)", ErrSchema, status)
	}

	return &schema.Result{
		Status:      status,
		AreaType:    values["areaType"],
		Explanation: values["explanation"],
		Hazards:     values["hazards"],
	}, nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", fmt.Errorf("%w: %s is required", ErrSchema, name)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s must be a string", ErrSchema, name)
	}
	return s, nil
}

// stripFences removes leading/trailing markdown code fences (```json ... ``` or ``` ... ```).
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Remove first line (the fence opener)
		idx := strings.Index(s, "\n")
		if idx >= 0 {
			s = s[idx+1:]
		}
	}
	if strings.HasSuffix(s, "```") {
		idx := strings.LastIndex(s, "\n```")
		if idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
