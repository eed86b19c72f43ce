package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"careermap-backend/internal/llm"
	"careermap-backend/internal/shared/telemetry"
)

const systemPromptRepair = "Your previous response did not match the required JSON schema. Return corrected JSON only."

// Client implements llm.Client using OpenAI Chat Completions with structured outputs.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient constructs a new OpenAI client. baseURL may be empty.
func NewClient(apiKey, model, baseURL string, opts ...option.RequestOption) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// retries are owned by llm.WithTransientRetries
		option.WithMaxRetries(0),
	}
	if strings.TrimSpace(baseURL) != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)
	return &Client{
		api:   openai.NewClient(reqOpts...),
		model: model,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Generate issues one chat completion constrained to req.Schema.
func (c *Client) Generate(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.F(openai.ChatModel(c.model)),
		Messages: openai.F(buildMessages(ctx, req)),
		ResponseFormat: openai.F[openai.ChatCompletionNewParamsResponseFormatUnion](
			openai.ResponseFormatJSONSchemaParam{
				Type: openai.F(openai.ResponseFormatJSONSchemaTypeJSONSchema),
				JSONSchema: openai.F(openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        openai.F(req.Schema.Name),
					Description: openai.F(req.Schema.Description),
					Schema:      openai.F(req.Schema.Definition),
					Strict:      openai.Bool(req.Schema.Strict),
				}),
			},
		),
	}
	if supportsTemperature(c.model) {
		params.Temperature = openai.F(0.0)
	}

	chat, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classifyError(err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("%w: openai response missing choices", llm.ErrSchemaValidation)
	}
	logUsage(req, c.model, chat.Usage)

	content := strings.TrimSpace(chat.Choices[0].Message.Content)
	if content == "" {
		if refusal := chat.Choices[0].Message.Refusal; refusal != "" {
			return nil, fmt.Errorf("%w: model refused: %s", llm.ErrSchemaValidation, refusal)
		}
		return nil, fmt.Errorf("%w: openai response empty content", llm.ErrSchemaValidation)
	}
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("%w: openai response is not valid JSON", llm.ErrSchemaValidation)
	}
	return json.RawMessage(content), nil
}

func buildMessages(ctx context.Context, req llm.Request) []openai.ChatCompletionMessageParamUnion {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(req.System),
		openai.UserMessage(req.User),
	}
	if repair, ok := llm.RepairFromContext(ctx); ok {
		messages = append(messages,
			openai.AssistantMessage(repair.Previous),
			openai.SystemMessage(systemPromptRepair),
			openai.UserMessage("Validation problems: "+repair.Problem),
		)
	}
	return messages
}

func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", llm.ErrTimeout, err)
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return fmt.Errorf("%w: openai status %d: %v", llm.ErrTransient, apiErr.StatusCode, err)
		}
		return fmt.Errorf("openai status %d: %w", apiErr.StatusCode, err)
	}
	return fmt.Errorf("openai request: %w", err)
}

func logUsage(req llm.Request, model string, usage openai.CompletionUsage) {
	telemetry.Info("llm.usage", map[string]any{
		"flow":              string(req.Flow),
		"model":             model,
		"prompt_version":    req.PromptVersion,
		"prompt_tokens":     usage.PromptTokens,
		"completion_tokens": usage.CompletionTokens,
		"total_tokens":      usage.TotalTokens,
	})
}

// Reasoning models reject an explicit temperature.
func supportsTemperature(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	return !strings.HasPrefix(m, "gpt-5") && !strings.HasPrefix(m, "o1") && !strings.HasPrefix(m, "o3") && !strings.HasPrefix(m, "o4")
}

var _ llm.Client = (*Client)(nil)
