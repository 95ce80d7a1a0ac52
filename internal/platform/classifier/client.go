package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"sitedocs/internal/domain/documents"
)

const (
	DefaultURL   = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel = "google/gemini-2.5-flash"
)

var (
	ErrStatus    = errors.New("classifier returned non-success status")
	ErrMalformed = errors.New("classifier response is malformed")
)

const instruction = "Analiza este documento de construcción para obras PROFEA. " +
	"Clasifícalo estrictamente en una de estas categorías: 'Administrativa', 'Documentación de Obra', " +
	"'Documentación de Trabajadores', 'Reconocimientos Médicos', 'Documentación Subcontratas', " +
	"'Formación de Trabajadores', 'Documentación SAE', 'Contratos de Trabajo'. " +
	"Extrae la fecha de caducidad si existe (formato YYYY-MM-DD), el nombre del trabajador si aplica, " +
	"y un resumen breve. Determina si parece un documento válido oficial."

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
}

type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type Request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Stream         bool            `json:"stream"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type ResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

type JSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type Response struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Message      Delta  `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type Delta struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

func NewClient(url, apiKey, model string, httpClient *http.Client) *Client {
	if url == "" {
		url = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{url: url, apiKey: apiKey, model: model, httpClient: httpClient}
}

// Analyze sends one JPEG payload and decodes the structured answer. There is
// no retry; callers degrade on error.
func (c *Client) Analyze(ctx context.Context, payload string) (documents.Classification, error) {
	body, err := json.Marshal(c.buildRequest(payload))
	if err != nil {
		return documents.Classification{}, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return documents.Classification{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("X-Title", "sitedocs")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return documents.Classification{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return documents.Classification{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return documents.Classification{}, fmt.Errorf("%w: %d: %s", ErrStatus, resp.StatusCode, truncate(string(raw), 200))
	}

	var decoded Response
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return documents.Classification{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(decoded.Choices) == 0 {
		return documents.Classification{}, fmt.Errorf("%w: no choices", ErrMalformed)
	}
	return ParseContent(decoded.Choices[0].Message.Content)
}

func (c *Client) buildRequest(payload string) Request {
	return Request{
		Model: c.model,
		Messages: []Message{{
			Role: "user",
			Content: []ContentPart{
				{Type: "image_url", ImageURL: &ImageURL{URL: "data:image/jpeg;base64," + payload}},
				{Type: "text", Text: instruction},
			},
		}},
		ResponseFormat: &ResponseFormat{
			Type: "json_schema",
			JSONSchema: &JSONSchema{
				Name:   "document_analysis",
				Strict: true,
				Schema: responseSchema(),
			},
		},
	}
}

func responseSchema() map[string]any {
	enum := make([]string, 0, len(documents.Categories))
	for _, c := range documents.Categories {
		enum = append(enum, string(c))
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"category":   map[string]any{"type": "string", "enum": enum},
			"summary":    map[string]any{"type": "string"},
			"expiryDate": map[string]any{"type": []string{"string", "null"}},
			"workerName": map[string]any{"type": []string{"string", "null"}},
			"isValid":    map[string]any{"type": "boolean"},
		},
		// Strict mode wants every property listed; optional ones are nullable.
		"required":             []string{"category", "summary", "expiryDate", "workerName", "isValid"},
		"additionalProperties": false,
	}
}

// ParseContent decodes the model's JSON answer, tolerating a fenced block.
func ParseContent(content string) (documents.Classification, error) {
	text := strings.TrimSpace(content)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return documents.Classification{}, fmt.Errorf("%w: empty content", ErrMalformed)
	}

	var probe struct {
		Category *string `json:"category"`
		Summary  *string `json:"summary"`
		IsValid  *bool   `json:"isValid"`
	}
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return documents.Classification{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if probe.Category == nil || probe.Summary == nil || probe.IsValid == nil {
		return documents.Classification{}, fmt.Errorf("%w: missing required field", ErrMalformed)
	}

	var out documents.Classification
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return documents.Classification{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
