package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// geminiAPIBase is a var to allow test overrides via httptest.
var geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta"

// GeminiAPIBase returns the current Gemini API base URL.
// Exposed for use by integration tests via httptest servers.
func GeminiAPIBase() string { return geminiAPIBase }

// SetGeminiAPIBase overrides the Gemini API base URL.
// Intended for use in tests only.
func SetGeminiAPIBase(u string) { geminiAPIBase = u }

type geminiProvider struct {
	model  string
	apiKey string // unexported; sent as a header, never in the URL
	client *http.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// geminiSchema mirrors Schema with the upper-case type names the API expects.
type geminiSchema struct {
	Type        string                   `json:"type"`
	Description string                   `json:"description,omitempty"`
	Properties  map[string]*geminiSchema `json:"properties,omitempty"`
	Required    []string                 `json:"required,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      *float64      `json:"temperature,omitempty"`
	MaxOutputTokens  int           `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string        `json:"responseMimeType,omitempty"`
	ResponseSchema   *geminiSchema `json:"responseSchema,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	ModelVersion string `json:"modelVersion"`
	Error        *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func toGeminiSchema(s *Schema) *geminiSchema {
	if s == nil {
		return nil
	}
	gs := &geminiSchema{
		Type:        strings.ToUpper(s.Type),
		Description: s.Description,
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		gs.Properties = make(map[string]*geminiSchema, len(s.Properties))
		for name, p := range s.Properties {
			gs.Properties[name] = toGeminiSchema(p)
		}
	}
	return gs
}

func (p *geminiProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.UserPrompt}}},
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}
	if req.Temperature != 0 {
		t := req.Temperature
		body.GenerationConfig.Temperature = &t
	}
	if req.MaxTokens > 0 {
		body.GenerationConfig.MaxOutputTokens = req.MaxTokens
	}
	if req.ResponseSchema != nil {
		body.GenerationConfig.ResponseMimeType = "application/json"
		body.GenerationConfig.ResponseSchema = toGeminiSchema(req.ResponseSchema)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", geminiAPIBase, url.PathEscape(model))
	var gr geminiResponse
	r, err := postJSON(ctx, p.client, endpoint, map[string]string{
		"x-goog-api-key": p.apiKey,
	}, body, &gr)
	if err != nil {
		return nil, err
	}
	if !r.ok() {
		if gr.Error != nil {
			return nil, r.fail("gemini", gr.Error.Status, gr.Error.Message)
		}
		return nil, r.fail("gemini", "", "")
	}

	if len(gr.Candidates) == 0 {
		if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("gemini: prompt blocked: %s", gr.PromptFeedback.BlockReason)
		}
		return nil, fmt.Errorf("gemini: empty candidates in response")
	}

	var content strings.Builder
	for _, part := range gr.Candidates[0].Content.Parts {
		content.WriteString(part.Text)
	}
	if content.Len() == 0 {
		return nil, fmt.Errorf("gemini: no text content in response (finish reason %q)", gr.Candidates[0].FinishReason)
	}

	version := gr.ModelVersion
	if version == "" {
		version = model
	}
	return &Response{
		Content: content.String(),
		Model:   fmt.Sprintf("gemini:%s", version),
	}, nil
}
