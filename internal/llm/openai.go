// ABOUTME: Client implementation backed by the OpenAI Chat Completions API
// ABOUTME: Works with any OpenAI-compatible endpoint via a configurable base URL

package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIConfig configures the OpenAI-backed client
type OpenAIConfig struct {
	// APIKey authenticates against the provider
	APIKey string

	// BaseURL overrides the API endpoint. Empty means the official
	// OpenAI API; set it to point at any compatible provider.
	BaseURL string

	// Model is the model identifier to request
	Model string

	// Temperature controls sampling randomness
	Temperature float64

	// MaxTokens caps the completion length
	MaxTokens int64
}

// OpenAIClient implements Client using the official OpenAI SDK
type OpenAIClient struct {
	client *openai.Client
	config OpenAIConfig
	logger *slog.Logger
}

// NewOpenAIClient creates a client for the configured endpoint and model
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := openai.NewClient(opts...)
	return &OpenAIClient{
		client: &client,
		config: cfg,
		logger: slog.Default().With("component", "llm"),
	}
}

// Complete sends the transcript and tool schemas to the model and
// returns its response. Provider failures are wrapped in ErrUnavailable.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message, tools []ToolSchema) (*Completion, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(messages),
		Model:               c.config.Model,
		Temperature:         openai.Float(c.config.Temperature),
		MaxCompletionTokens: openai.Int(c.config.MaxTokens),
	}
	if len(tools) > 0 {
		params.Tools = buildTools(tools)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		c.logger.Error("chat completion failed", "model", c.config.Model, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrUnavailable)
	}

	choice := resp.Choices[0]
	completion := &Completion{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}
	for _, tc := range choice.Message.ToolCalls {
		completion.ToolCalls = append(completion.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	c.logger.Debug("chat completion",
		"model", c.config.Model,
		"finish_reason", completion.FinishReason,
		"tool_calls", len(completion.ToolCalls),
	)
	return completion, nil
}

func buildMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				}
			}
			assistant := openai.ChatCompletionAssistantMessageParam{
				Role:      "assistant",
				ToolCalls: toolCalls,
			}
			// Planning text that came alongside the tool calls stays in
			// the replayed transcript.
			if m.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(m.Content)}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}
	return out
}

func buildTools(tools []ToolSchema) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, len(tools))
	for i, tool := range tools {
		out[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  openai.FunctionParameters(tool.Parameters),
			},
		}
	}
	return out
}

var _ Client = (*OpenAIClient)(nil)
