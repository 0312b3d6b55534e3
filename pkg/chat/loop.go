// Package chat drives the model/tool orchestration loop for one query at a
// time: call the model with the full history and tool schemas, execute the
// single tool call it requests, feed the result back, stop on a plain answer.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	loggerpkg "github.com/minhyannv/mcp-chat-go/pkg/logger"
	"github.com/minhyannv/mcp-chat-go/pkg/mcp"
)

// systemPrompt primes the model to invoke functions instead of narrating them.
const systemPrompt = "You are a helpful assistant. If a relevant function is available, always use the function call system instead of explaining it. Do not describe or suggest function calls; just call the function directly."

var (
	// ErrProtocol marks a model response of an unexpected shape. The loop
	// raises rather than guessing.
	ErrProtocol = errors.New("unexpected model output")

	// ErrRoundLimit marks a query that exhausted its round budget without
	// a plain answer from the model.
	ErrRoundLimit = errors.New("round limit reached without a final answer")
)

// ToolProvider is the tool-server surface the loop depends on. Implemented
// by mcp.Session; faked in tests.
type ToolProvider interface {
	ListTools(ctx context.Context) ([]mcp.ToolDescriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// Loop orchestrates model rounds against one tool provider.
type Loop struct {
	completer Completer
	provider  ToolProvider
	model     string
	maxRounds int
	logger    loggerpkg.Logger
	verbose   bool
}

// LoopOption configures optional Loop dependencies.
type LoopOption func(*Loop)

// WithLogger injects a logger dependency.
func WithLogger(l loggerpkg.Logger) LoopOption {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

// WithVerbose enables debug logging of each round.
func WithVerbose(verbose bool) LoopOption {
	return func(lp *Loop) {
		lp.verbose = verbose
	}
}

// NewLoop builds a Loop. maxRounds bounds the model/tool exchanges for one
// query; values below one are raised to one.
func NewLoop(completer Completer, provider ToolProvider, model string, maxRounds int, opts ...LoopOption) (*Loop, error) {
	if completer == nil {
		return nil, errors.New("completer is required")
	}
	if provider == nil {
		return nil, errors.New("tool provider is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("model is required")
	}
	if maxRounds <= 0 {
		maxRounds = 1
	}

	lp := &Loop{
		completer: completer,
		provider:  provider,
		model:     model,
		maxRounds: maxRounds,
		logger:    loggerpkg.NopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(lp)
		}
	}
	return lp, nil
}

// Tools returns the provider's live tool enumeration.
func (l *Loop) Tools(ctx context.Context) ([]mcp.ToolDescriptor, error) {
	return l.provider.ListTools(ctx)
}

// Ask processes one query to a final plain-text answer. Each query starts
// from a fresh history and a fresh tool enumeration.
func (l *Loop) Ask(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("query is empty")
	}

	descriptors, err := l.provider.ListTools(ctx)
	if err != nil {
		return "", err
	}
	tools, err := toolParams(descriptors)
	if err != nil {
		return "", err
	}

	history := NewHistory(systemPrompt, query)

	for round := 0; round < l.maxRounds; round++ {
		loggerpkg.Debug(l.verbose, l.logger, "model round", map[string]any{
			"round":    round + 1,
			"max":      l.maxRounds,
			"messages": history.Len(),
		})

		message, err := l.completer.Complete(ctx, openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(l.model),
			Messages: history.Snapshot(),
			Tools:    tools,
			ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: openai.String("auto"),
			},
		})
		if err != nil {
			return "", err
		}

		if len(message.ToolCalls) == 0 {
			loggerpkg.Debug(l.verbose, l.logger, "final answer", map[string]any{
				"round": round + 1,
				"bytes": len(message.Content),
			})
			return message.Content, nil
		}
		if len(message.ToolCalls) > 1 {
			// Single-call-per-round protocol; batched calls would need a
			// fan-out round the loop does not implement.
			return "", fmt.Errorf("%w: %d tool calls in one response", ErrProtocol, len(message.ToolCalls))
		}

		call := message.ToolCalls[0]
		history.Append(message.ToParam())

		var args map[string]any
		if raw := call.Function.Arguments; strings.TrimSpace(raw) != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return "", fmt.Errorf("decode arguments for tool %s: %w", call.Function.Name, err)
			}
		}

		loggerpkg.Debug(l.verbose, l.logger, "executing tool", map[string]any{
			"name":    call.Function.Name,
			"call_id": call.ID,
		})
		result, err := l.provider.CallTool(ctx, call.Function.Name, args)
		if err != nil {
			return "", err
		}
		history.Append(openai.ToolMessage(result, call.ID))
	}

	return "", ErrRoundLimit
}

// toolParams converts server descriptors to the model's function schemas,
// preserving name, description, and input schema exactly.
func toolParams(descriptors []mcp.ToolDescriptor) ([]openai.ChatCompletionToolParam, error) {
	tools := make([]openai.ChatCompletionToolParam, 0, len(descriptors))
	for _, desc := range descriptors {
		var params openai.FunctionParameters
		if len(desc.InputSchema) > 0 {
			if err := json.Unmarshal(desc.InputSchema, &params); err != nil {
				return nil, fmt.Errorf("input schema for tool %s: %w", desc.Name, err)
			}
		}
		tools = append(tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        desc.Name,
				Description: openai.String(desc.Description),
				Parameters:  params,
			},
		})
	}
	return tools, nil
}
