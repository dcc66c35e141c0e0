package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"aide/internal/registry"
	"aide/internal/session"
	apperrors "aide/pkg/errors"
	"aide/pkg/logger"
)

// Kind tags the two shapes a model turn can take
type Kind int

const (
	// KindFinal means the model produced a final text answer
	KindFinal Kind = iota
	// KindToolCalls means the model requested one or more tool invocations
	KindToolCalls
)

// TurnResult is the tagged variant returned by Query: either Final(text)
// or ToolCalls(requests). Exactly one branch is populated.
type TurnResult struct {
	Kind  Kind
	Text  string
	Calls []registry.InvocationRequest
}

// Gateway is the only component aware of the model's wire protocol. It
// speaks the OpenAI chat-completions format and converts transport
// failures into typed gateway errors.
type Gateway struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a gateway against the given API base URL
func New(baseURL, apiKey, model string, timeout time.Duration) *Gateway {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Gateway{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
		logger:  logger.Get(),
	}
}

// Query sends the bounded history plus available tool schemas to the model
// and returns its next turn. Transport failures surface as
// ErrGateway{RateLimited|Timeout|Malformed}, never as raw client errors.
func (g *Gateway) Query(ctx context.Context, history []session.Turn, tools []registry.Descriptor) (*TurnResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    buildMessages(history),
		Tools:       buildTools(tools),
		Temperature: 0.7,
	}

	resp, err := g.client.CreateChatCompletion(callCtx, req)
	if err != nil {
		return nil, g.classify(err)
	}

	if len(resp.Choices) == 0 {
		return nil, apperrors.NewGateway(apperrors.GatewayMalformed, fmt.Errorf("no choices in completion"))
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		calls := make([]registry.InvocationRequest, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			args, err := parseArguments(tc.Function.Arguments)
			if err != nil {
				g.logger.Warn("Failed to parse tool call arguments",
					zap.String("call_id", tc.ID),
					zap.String("tool", tc.Function.Name),
					zap.Error(err),
				)
				args = map[string]interface{}{}
			}
			calls = append(calls, registry.InvocationRequest{
				CallID:    tc.ID,
				Name:      tc.Function.Name,
				Arguments: args,
			})
		}
		g.logger.Debug("Model requested tools", zap.Int("count", len(calls)))
		return &TurnResult{Kind: KindToolCalls, Calls: calls}, nil
	}

	if msg.Content == "" {
		return nil, apperrors.NewGateway(apperrors.GatewayMalformed, fmt.Errorf("empty completion: no content and no tool calls"))
	}

	return &TurnResult{Kind: KindFinal, Text: msg.Content}, nil
}

// Complete runs a single plain completion with no tools exposed. Used by
// tools that draft text themselves (e.g. the planning personas).
func (g *Gateway) Complete(ctx context.Context, systemPrompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		},
	})
	if err != nil {
		return "", g.classify(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", apperrors.NewGateway(apperrors.GatewayMalformed, fmt.Errorf("empty completion"))
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps transport errors onto the gateway error taxonomy
func (g *Gateway) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewGateway(apperrors.GatewayTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		// Caller-initiated cancellation passes through untyped so the
		// orchestrator can leave the session untouched
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 {
			return apperrors.NewGateway(apperrors.GatewayRateLimited, err)
		}
		return apperrors.NewGateway(apperrors.GatewayMalformed, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == 429 {
			return apperrors.NewGateway(apperrors.GatewayRateLimited, err)
		}
		return apperrors.NewGateway(apperrors.GatewayMalformed, err)
	}
	return apperrors.NewGateway(apperrors.GatewayMalformed, err)
}

// buildMessages converts session turns to the wire format
func buildMessages(history []session.Turn) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, t := range history {
		var role string
		switch t.Role {
		case session.RoleUser:
			role = openai.ChatMessageRoleUser
		case session.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		default:
			role = openai.ChatMessageRoleSystem
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: t.Content,
		})
	}
	return messages
}

// buildTools converts registry descriptors to OpenAI function schemas. The
// advertised set is exactly the registry's current descriptors; the gateway
// never invents tool names outside it.
func buildTools(descriptors []registry.Descriptor) []openai.Tool {
	tools := make([]openai.Tool, 0, len(descriptors))
	for _, d := range descriptors {
		properties := make(map[string]interface{}, len(d.Parameters))
		required := []string{}
		for name, spec := range d.Parameters {
			prop := map[string]interface{}{
				"type": spec.Type,
			}
			if spec.Description != "" {
				prop["description"] = spec.Description
			}
			if len(spec.Enum) > 0 {
				prop["enum"] = spec.Enum
			}
			properties[name] = prop
			if spec.Required {
				required = append(required, name)
			}
		}
		sort.Strings(required)
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters: map[string]interface{}{
					"type":       "object",
					"properties": properties,
					"required":   required,
				},
			},
		})
	}
	return tools
}

// parseArguments parses the JSON string arguments into a map
func parseArguments(jsonStr string) (map[string]interface{}, error) {
	if jsonStr == "" {
		return map[string]interface{}{}, nil
	}
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &args); err != nil {
		return nil, fmt.Errorf("failed to parse arguments: %w", err)
	}
	return args, nil
}
