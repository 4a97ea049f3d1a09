package provider

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements Provider with the Gemini API. Gemini gets the
// schema inside the system instruction and is asked for JSON output; the
// reply is validated by the caller like any other provider's.
type GeminiProvider struct {
	apiKey string
	model  string

	client *genai.Client
}

type GeminiProviderOption func(*GeminiProvider)

func WithGeminiAPIKey(apiKey string) GeminiProviderOption {
	return func(p *GeminiProvider) {
		p.apiKey = apiKey
	}
}

func WithGeminiModel(model string) GeminiProviderOption {
	return func(p *GeminiProvider) {
		if model != "" {
			p.model = model
		}
	}
}

// NewGeminiProvider builds the client when a key is configured; without one
// the provider is returned unconnected and Validate reports it.
func NewGeminiProvider(ctx context.Context, opts ...GeminiProviderOption) (*GeminiProvider, error) {
	p := &GeminiProvider{model: DefaultGeminiModel}
	for _, opt := range opts {
		opt(p)
	}
	if p.apiKey == "" {
		return p, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	p.client = client
	return p, nil
}

func (p *GeminiProvider) Validate() error {
	if p.apiKey == "" || p.client == nil {
		return fmt.Errorf("api key not set")
	}
	return nil
}

func (p *GeminiProvider) Model() string { return p.model }

// Client exposes the underlying genai client for embeddings.
func (p *GeminiProvider) Client() *genai.Client { return p.client }

func (p *GeminiProvider) Complete(ctx context.Context, prf ProviderResponseFormat) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	system := prf.SystemPrompt
	if prf.Schema != "" {
		system += "\n\nResponde con un único objeto JSON que cumpla este JSON Schema (" + prf.Name + "):\n" + prf.Schema
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.2),
	}
	resp, err := p.client.Models.GenerateContent(ctx, prf.modelOr(p.model), genai.Text(prf.UserPrompt), cfg)
	if err != nil {
		return "", err
	}
	s := strings.TrimSpace(resp.Text())
	if s == "" {
		return "", fmt.Errorf("no message content")
	}
	return s, nil
}
