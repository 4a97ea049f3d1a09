package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const DefaultModel = "gpt-4.1-mini"

// OpenAIProvider implements Provider using the official openai-go client.
type OpenAIProvider struct {
	apiKey  string
	model   string
	baseURL string

	Client openai.Client
}

type OpenAIProviderOption func(*OpenAIProvider)

func WithAPIKey(apiKey string) OpenAIProviderOption {
	return func(p *OpenAIProvider) {
		p.apiKey = apiKey
	}
}

func WithModel(model string) OpenAIProviderOption {
	return func(p *OpenAIProvider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithBaseURL points the client at a compatible endpoint.
func WithBaseURL(u string) OpenAIProviderOption {
	return func(p *OpenAIProvider) {
		p.baseURL = u
	}
}

func NewOpenAIProvider(opts ...OpenAIProviderOption) (*OpenAIProvider, error) {
	p := &OpenAIProvider{model: DefaultModel}
	for _, opt := range opts {
		opt(p)
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(p.apiKey)}
	if p.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(p.baseURL), option.WithMaxRetries(0))
	}
	p.Client = openai.NewClient(reqOpts...)

	return p, nil
}

func (p *OpenAIProvider) Validate() error {
	if p.apiKey == "" {
		return fmt.Errorf("api key not set")
	}
	return nil
}

func (p *OpenAIProvider) Model() string { return p.model }

func (p *OpenAIProvider) Complete(ctx context.Context, prf ProviderResponseFormat) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prf.SystemPrompt),
			openai.UserMessage(prf.UserPrompt),
		},
		Model: openai.ChatModel(prf.modelOr(p.model)),
	}

	var schemaObj map[string]any
	if err := json.Unmarshal([]byte(prf.Schema), &schemaObj); err == nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        prf.Name,
					Description: openai.String(prf.Description),
					Schema:      schemaObj,
					Strict:      openai.Bool(true),
				},
			},
		}
	}
	chat, err := p.Client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	msg := chat.Choices[0].Message
	if msg.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", msg.Refusal)
	}
	s := strings.TrimSpace(msg.Content)
	if s == "" {
		return "", fmt.Errorf("no message content")
	}
	return s, nil
}
