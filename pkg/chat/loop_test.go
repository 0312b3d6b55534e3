package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"

	"github.com/minhyannv/mcp-chat-go/pkg/mcp"
)

type scriptedCompleter struct {
	script []openai.ChatCompletionMessage
	err    error
	params []openai.ChatCompletionNewParams
}

func (c *scriptedCompleter) Complete(_ context.Context, p openai.ChatCompletionNewParams) (openai.ChatCompletionMessage, error) {
	c.params = append(c.params, p)
	if c.err != nil {
		return openai.ChatCompletionMessage{}, c.err
	}
	idx := len(c.params) - 1
	if idx >= len(c.script) {
		idx = len(c.script) - 1
	}
	return c.script[idx], nil
}

type recordedCall struct {
	name string
	args map[string]any
}

type fakeProvider struct {
	descriptors []mcp.ToolDescriptor
	listErr     error
	result      string
	callErr     error
	calls       []recordedCall
	listCount   int
}

func (p *fakeProvider) ListTools(context.Context) ([]mcp.ToolDescriptor, error) {
	p.listCount++
	if p.listErr != nil {
		return nil, p.listErr
	}
	return p.descriptors, nil
}

func (p *fakeProvider) CallTool(_ context.Context, name string, args map[string]any) (string, error) {
	p.calls = append(p.calls, recordedCall{name: name, args: args})
	if p.callErr != nil {
		return "", p.callErr
	}
	return p.result, nil
}

func toolCallMessage(id, name, args string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		ToolCalls: []openai.ChatCompletionMessageToolCall{{
			ID: id,
			Function: openai.ChatCompletionMessageToolCallFunction{
				Name:      name,
				Arguments: args,
			},
		}},
	}
}

func newTestLoop(t *testing.T, completer Completer, provider ToolProvider, maxRounds int) *Loop {
	t.Helper()
	loop, err := NewLoop(completer, provider, "gpt-4o", maxRounds)
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}
	return loop
}

func TestAskPlainAnswer(t *testing.T) {
	completer := &scriptedCompleter{
		script: []openai.ChatCompletionMessage{
			{Content: "Paris is the capital of France."},
		},
	}
	provider := &fakeProvider{}
	loop := newTestLoop(t, completer, provider, 5)

	answer, err := loop.Ask(context.Background(), "What is the capital of France?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer != "Paris is the capital of France." {
		t.Fatalf("answer = %q", answer)
	}
	if len(completer.params) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(completer.params))
	}
	if got := len(completer.params[0].Messages); got != 2 {
		t.Fatalf("expected system + user messages, got %d", got)
	}
	if len(provider.calls) != 0 {
		t.Fatalf("expected no tool calls, got %d", len(provider.calls))
	}
}

func TestAskToolRound(t *testing.T) {
	completer := &scriptedCompleter{
		script: []openai.ChatCompletionMessage{
			toolCallMessage("call_1", "get_weather", `{"city":"Boston"}`),
			{Content: "It's 72F and sunny in Boston."},
		},
	}
	provider := &fakeProvider{
		descriptors: []mcp.ToolDescriptor{{
			Name:        "get_weather",
			Description: "Get current weather for a city",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"}},"required":["city"]}`),
		}},
		result: "72F, sunny",
	}
	loop := newTestLoop(t, completer, provider, 5)

	answer, err := loop.Ask(context.Background(), "What's the weather in Boston?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer != "It's 72F and sunny in Boston." {
		t.Fatalf("answer = %q", answer)
	}
	if len(provider.calls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(provider.calls))
	}
	if provider.calls[0].name != "get_weather" {
		t.Fatalf("tool name = %s", provider.calls[0].name)
	}
	if provider.calls[0].args["city"] != "Boston" {
		t.Fatalf("tool args = %+v", provider.calls[0].args)
	}
	if len(completer.params) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(completer.params))
	}
	// Second round carries system, user, assistant tool call, tool result.
	secondRound := completer.params[1].Messages
	if got := len(secondRound); got != 4 {
		t.Fatalf("expected 4 messages on second round, got %d", got)
	}
	assistant := secondRound[2].OfAssistant
	if assistant == nil {
		t.Fatalf("third message should be the assistant tool call, got %+v", secondRound[2])
	}
	if len(assistant.ToolCalls) != 1 || assistant.ToolCalls[0].ID != "call_1" {
		t.Fatalf("assistant tool calls = %+v", assistant.ToolCalls)
	}
	if name := assistant.ToolCalls[0].Function.Name; name != "get_weather" {
		t.Fatalf("recorded tool name = %s", name)
	}
	toolMsg := secondRound[3].OfTool
	if toolMsg == nil {
		t.Fatalf("fourth message should be the tool result, got %+v", secondRound[3])
	}
	if toolMsg.ToolCallID != "call_1" {
		t.Fatalf("tool message back-reference = %s", toolMsg.ToolCallID)
	}
	if got := toolMsg.Content.OfString.Value; got != "72F, sunny" {
		t.Fatalf("tool message content = %q", got)
	}
	if len(completer.params[0].Tools) != 1 {
		t.Fatalf("expected 1 tool schema, got %d", len(completer.params[0].Tools))
	}
	if name := completer.params[0].Tools[0].Function.Name; name != "get_weather" {
		t.Fatalf("tool schema name = %s", name)
	}
}

func TestAskMultipleToolCallsIsProtocolError(t *testing.T) {
	message := openai.ChatCompletionMessage{
		ToolCalls: []openai.ChatCompletionMessageToolCall{
			{ID: "call_1", Function: openai.ChatCompletionMessageToolCallFunction{Name: "a", Arguments: "{}"}},
			{ID: "call_2", Function: openai.ChatCompletionMessageToolCallFunction{Name: "b", Arguments: "{}"}},
		},
	}
	completer := &scriptedCompleter{script: []openai.ChatCompletionMessage{message}}
	provider := &fakeProvider{}
	loop := newTestLoop(t, completer, provider, 5)

	_, err := loop.Ask(context.Background(), "hello")
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
	if len(provider.calls) != 0 {
		t.Fatalf("no tool should run on protocol violation, got %d calls", len(provider.calls))
	}
}

func TestAskMalformedArguments(t *testing.T) {
	completer := &scriptedCompleter{
		script: []openai.ChatCompletionMessage{
			toolCallMessage("call_1", "get_weather", `{"city":`),
		},
	}
	provider := &fakeProvider{}
	loop := newTestLoop(t, completer, provider, 5)

	_, err := loop.Ask(context.Background(), "weather?")
	if err == nil || !strings.Contains(err.Error(), "decode arguments for tool get_weather") {
		t.Fatalf("expected decode error, got %v", err)
	}
	if len(provider.calls) != 0 {
		t.Fatalf("tool must not run on decode failure, got %d calls", len(provider.calls))
	}
}

func TestAskRoundLimit(t *testing.T) {
	completer := &scriptedCompleter{
		script: []openai.ChatCompletionMessage{
			toolCallMessage("call_1", "loop_tool", "{}"),
		},
	}
	provider := &fakeProvider{result: "again"}
	loop := newTestLoop(t, completer, provider, 2)

	_, err := loop.Ask(context.Background(), "never stops")
	if !errors.Is(err, ErrRoundLimit) {
		t.Fatalf("expected ErrRoundLimit, got %v", err)
	}
	if len(provider.calls) != 2 {
		t.Fatalf("expected 2 tool executions before the cap, got %d", len(provider.calls))
	}
}

func TestAskToolErrorPropagates(t *testing.T) {
	completer := &scriptedCompleter{
		script: []openai.ChatCompletionMessage{
			toolCallMessage("call_1", "get_weather", `{"city":"Boston"}`),
		},
	}
	provider := &fakeProvider{callErr: errors.New("server unreachable")}
	loop := newTestLoop(t, completer, provider, 5)

	_, err := loop.Ask(context.Background(), "weather?")
	if err == nil || !strings.Contains(err.Error(), "server unreachable") {
		t.Fatalf("expected tool error, got %v", err)
	}
}

func TestAskListToolsErrorPropagates(t *testing.T) {
	completer := &scriptedCompleter{
		script: []openai.ChatCompletionMessage{{Content: "unused"}},
	}
	provider := &fakeProvider{listErr: errors.New("not connected")}
	loop := newTestLoop(t, completer, provider, 5)

	if _, err := loop.Ask(context.Background(), "hi"); err == nil {
		t.Fatal("expected enumeration error")
	}
	if len(completer.params) != 0 {
		t.Fatalf("model must not be called without tool schemas, got %d calls", len(completer.params))
	}
}

func TestAskEnumeratesPerQuery(t *testing.T) {
	completer := &scriptedCompleter{
		script: []openai.ChatCompletionMessage{{Content: "ok"}},
	}
	provider := &fakeProvider{}
	loop := newTestLoop(t, completer, provider, 5)

	for i := 0; i < 3; i++ {
		if _, err := loop.Ask(context.Background(), "ping"); err != nil {
			t.Fatalf("Ask %d: %v", i, err)
		}
	}
	if provider.listCount != 3 {
		t.Fatalf("expected a fresh enumeration per query, got %d", provider.listCount)
	}
}

func TestAskEmptyQuery(t *testing.T) {
	loop := newTestLoop(t, &scriptedCompleter{script: []openai.ChatCompletionMessage{{}}}, &fakeProvider{}, 5)
	if _, err := loop.Ask(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestToolParamsPassThrough(t *testing.T) {
	schema := `{"type":"object","properties":{"city":{"type":"string"}},"required":["city"]}`
	descriptors := []mcp.ToolDescriptor{{
		Name:        "get_weather",
		Description: "Get current weather",
		InputSchema: json.RawMessage(schema),
	}}

	tools, err := toolParams(descriptors)
	if err != nil {
		t.Fatalf("toolParams: %v", err)
	}
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	fn := tools[0].Function
	if fn.Name != "get_weather" {
		t.Fatalf("name = %s", fn.Name)
	}
	if fn.Description.Value != "Get current weather" {
		t.Fatalf("description = %q", fn.Description.Value)
	}
	got, err := json.Marshal(fn.Parameters)
	if err != nil {
		t.Fatalf("marshal parameters: %v", err)
	}
	var want, have map[string]any
	if err := json.Unmarshal([]byte(schema), &want); err != nil {
		t.Fatalf("unmarshal want: %v", err)
	}
	if err := json.Unmarshal(got, &have); err != nil {
		t.Fatalf("unmarshal have: %v", err)
	}
	if len(have) != len(want) || have["type"] != want["type"] {
		t.Fatalf("schema mutated: have %v want %v", have, want)
	}
}

func TestNewLoopValidation(t *testing.T) {
	completer := &scriptedCompleter{}
	provider := &fakeProvider{}

	if _, err := NewLoop(nil, provider, "gpt-4o", 5); err == nil {
		t.Fatal("expected error for nil completer")
	}
	if _, err := NewLoop(completer, nil, "gpt-4o", 5); err == nil {
		t.Fatal("expected error for nil provider")
	}
	if _, err := NewLoop(completer, provider, "  ", 5); err == nil {
		t.Fatal("expected error for empty model")
	}
	loop, err := NewLoop(completer, provider, "gpt-4o", 0)
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}
	if loop.maxRounds != 1 {
		t.Fatalf("maxRounds should normalize to 1, got %d", loop.maxRounds)
	}
}
