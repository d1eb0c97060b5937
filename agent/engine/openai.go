// Package engine adapts an OpenAI-compatible chat-completions endpoint
// (OpenRouter by default) to the contract.ChatEngine interface.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	contractx "github.com/zaykahq/ordering-agent/agent/contract"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: model is required", contractx.ErrValidation)
	}
	return nil
}

// Engine invokes the chat model with the declared toolset bound.
type Engine struct {
	client      openaisdk.Client
	model       string
	temperature float64
	maxTokens   int64
}

var _ contractx.ChatEngine = (*Engine)(nil)

func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	// OpenRouter attribution headers
	if cfg.SiteURL != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.SiteURL))
	}
	if cfg.SiteName != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.SiteName))
	}

	return &Engine{
		client:      openaisdk.NewClient(opts...),
		model:       strings.TrimSpace(cfg.Model),
		temperature: cfg.Temperature,
		maxTokens:   int64(cfg.MaxCompletionToken),
	}, nil
}

// Chat sends the conversation and toolset to the model and returns the
// assistant turn, which either carries plain content or tool-invocation
// requests.
func (e *Engine) Chat(ctx context.Context, messages []contractx.Message, tools []contractx.ToolInfo) (contractx.Message, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(e.model),
		Messages:    toSDKMessages(messages),
		Temperature: openaisdk.Float(e.temperature),
	}
	if e.maxTokens > 0 {
		params.MaxTokens = openaisdk.Int(e.maxTokens)
	}
	if len(tools) > 0 {
		params.Tools = toSDKTools(tools)
	}

	completion, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return contractx.Message{}, fmt.Errorf("%w: %v", contractx.ErrEngineInvoke, err)
	}
	if len(completion.Choices) == 0 {
		return contractx.Message{}, fmt.Errorf("%w: completion has no choices", contractx.ErrEngineInvoke)
	}

	return fromSDKMessage(completion.Choices[0].Message), nil
}

func toSDKMessages(messages []contractx.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case contractx.RoleSystem:
			out = append(out, openaisdk.SystemMessage(msg.Content))
		case contractx.RoleUser:
			out = append(out, openaisdk.UserMessage(msg.Content))
		case contractx.RoleAssistant:
			out = append(out, assistantParam(msg))
		case contractx.RoleTool:
			out = append(out, openaisdk.ToolMessage(msg.Content, msg.ToolCallID))
		}
	}
	return out
}

func assistantParam(msg contractx.Message) openaisdk.ChatCompletionMessageParamUnion {
	if !msg.HasToolCalls() {
		return openaisdk.AssistantMessage(msg.Content)
	}

	assistant := openaisdk.ChatCompletionAssistantMessageParam{}
	if msg.Content != "" {
		assistant.Content.OfString = openaisdk.String(msg.Content)
	}
	for _, call := range msg.ToolCalls {
		assistant.ToolCalls = append(assistant.ToolCalls, openaisdk.ChatCompletionMessageToolCallParam{
			ID: call.ID,
			Function: openaisdk.ChatCompletionMessageToolCallFunctionParam{
				Name:      call.Name,
				Arguments: call.Arguments,
			},
		})
	}
	return openaisdk.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

func toSDKTools(tools []contractx.ToolInfo) []openaisdk.ChatCompletionToolParam {
	out := make([]openaisdk.ChatCompletionToolParam, 0, len(tools))
	for _, tool := range tools {
		out = append(out, openaisdk.ChatCompletionToolParam{
			Function: openaisdk.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openaisdk.String(tool.Description),
				Parameters:  openaisdk.FunctionParameters(tool.Parameters),
			},
		})
	}
	return out
}

func fromSDKMessage(msg openaisdk.ChatCompletionMessage) contractx.Message {
	out := contractx.Message{
		Role:    contractx.RoleAssistant,
		Content: msg.Content,
	}
	for _, call := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, contractx.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return out
}
