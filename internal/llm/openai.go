package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"taskpilot/internal/config"
	"taskpilot/pkg/cerr"
)

// OpenAIClient calls the OpenAI chat-completions API.
type OpenAIClient struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

var _ Client = (*OpenAIClient)(nil)

func NewOpenAIClient(env *config.OpenAIEnv) *OpenAIClient {
	return &OpenAIClient{
		client:  openai.NewClient(option.WithAPIKey(env.OpenAIAPIKey)),
		model:   env.OpenAIModel,
		timeout: time.Duration(env.ModelTimeoutSec) * time.Second,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []Message, tools []ToolDef) (*Reply, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: toOpenAIMessages(messages),
	}
	for _, tool := range tools {
		params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        tool.Name,
			Description: openai.String(tool.Description),
			Parameters:  shared.FunctionParameters(tool.Parameters),
		}))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, cerr.NewError(cerr.Unavailable, "model request failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, cerr.NewError(cerr.Internal, "model returned no choices", nil)
	}

	msg := resp.Choices[0].Message
	reply := &Reply{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: []byte(tc.Function.Arguments),
		})
	}
	return reply, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m := m.(type) {
		case SystemMessage:
			out = append(out, openai.SystemMessage(m.Text))
		case UserMessage:
			out = append(out, openai.UserMessage(m.Text))
		case AssistantMessage:
			out = append(out, assistantParam(m))
		case ToolResultMessage:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		default:
			panic(fmt.Sprintf("unknown message type %T", m))
		}
	}
	return out
}

func assistantParam(m AssistantMessage) openai.ChatCompletionMessageParamUnion {
	assistant := openai.ChatCompletionAssistantMessageParam{}
	if m.Text != "" {
		assistant.Content.OfString = openai.String(m.Text)
	}
	for _, tc := range m.ToolCalls {
		assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: tc.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}
