// Package mcp wraps the official MCP SDK client behind the small surface
// the chat loop needs: connect, enumerate tools, invoke one tool, close.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	loggerpkg "github.com/minhyannv/mcp-chat-go/pkg/logger"
)

// transportBuilder is overridden in tests to stub the transport factory.
var transportBuilder = resolveTransport

// Session is a live connection to one tool server. It is exclusively owned
// by the chat loop driving it; one connect, one query loop, one close.
type Session struct {
	client  *mcpsdk.Client
	session *mcpsdk.ClientSession
	spec    string
	logger  loggerpkg.Logger
	verbose bool
}

// Option configures optional Session dependencies.
type Option func(*Session)

// WithLogger injects a logger dependency.
func WithLogger(l loggerpkg.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVerbose enables debug logging of round trips.
func WithVerbose(verbose bool) Option {
	return func(s *Session) {
		s.verbose = verbose
	}
}

// Connect resolves spec to a transport, establishes the session, and runs
// one tool enumeration to confirm the server answers. The handshake is
// performed by the SDK during connect.
func Connect(ctx context.Context, spec string, opts ...Option) (*Session, error) {
	spec = strings.TrimSpace(spec)
	s := &Session{
		client: mcpsdk.NewClient(&mcpsdk.Implementation{Name: "mcp-chat-go", Version: "0.1.0"}, nil),
		spec:   spec,
		logger: loggerpkg.NopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	transport, err := transportBuilder(ctx, spec)
	if err != nil {
		return nil, err
	}

	session, err := s.client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to server %q: %w", spec, err)
	}
	s.session = session

	tools, err := s.ListTools(ctx)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("initial tool listing: %w", err)
	}
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	loggerpkg.Info(s.logger, "connected to server", map[string]any{
		"spec":  spec,
		"tools": names,
	})

	return s, nil
}

// ListTools enumerates the server's current tools in server-declared order.
// It never caches; each call reflects the live tool set.
func (s *Session) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	if s == nil || s.session == nil {
		return nil, fmt.Errorf("session is not established")
	}

	var tools []ToolDescriptor
	for tool, err := range s.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("list tools: %w", err)
		}
		desc, err := toDescriptor(tool)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", tool.Name, err)
		}
		tools = append(tools, desc)
	}
	return tools, nil
}

// CallTool invokes one tool and returns its normalized text result. Exactly
// one server round trip; no retries. A tool that reports its own failure
// still yields text, with the error detail as the result.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	if s == nil || s.session == nil {
		return "", fmt.Errorf("session is not established")
	}

	loggerpkg.Debug(s.verbose, s.logger, "calling tool", map[string]any{
		"name": name,
		"args": args,
	})

	result, err := s.session.CallTool(ctx, &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("call tool %s: %w", name, err)
	}
	if result.IsError {
		loggerpkg.Debug(s.verbose, s.logger, "tool reported error result", map[string]any{"name": name})
	}
	return flattenContent(result.Content), nil
}

// Close releases the transport and session state. Safe to call more than
// once and on every exit path.
func (s *Session) Close() error {
	if s == nil || s.session == nil {
		return nil
	}
	err := s.session.Close()
	s.session = nil
	return err
}

// flattenContent joins result segments in order with no separator. Text
// segments contribute their text; anything else degrades to its JSON form.
func flattenContent(content []mcpsdk.Content) string {
	var sb strings.Builder
	for _, segment := range content {
		switch c := segment.(type) {
		case *mcpsdk.TextContent:
			sb.WriteString(c.Text)
		default:
			if b, err := json.Marshal(segment); err == nil {
				sb.Write(b)
			} else {
				fmt.Fprintf(&sb, "%v", segment)
			}
		}
	}
	return sb.String()
}
