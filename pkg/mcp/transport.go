// Server spec to transport resolution.
package mcp

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const sseSchemePrefix = "sse://"

// resolveTransport maps a server spec to an SDK transport. Script paths
// spawn the matching interpreter over stdio; URLs select an HTTP-family
// transport. Unsupported specs fail before any process is started.
func resolveTransport(ctx context.Context, spec string) (mcpsdk.Transport, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("server spec is empty")
	}

	lowered := strings.ToLower(spec)
	switch {
	case strings.HasSuffix(lowered, ".py"):
		return commandTransport(ctx, "python", spec), nil
	case strings.HasSuffix(lowered, ".js"):
		return commandTransport(ctx, "node", spec), nil
	case strings.HasPrefix(lowered, sseSchemePrefix):
		endpoint, err := normalizeEndpoint(spec[len(sseSchemePrefix):])
		if err != nil {
			return nil, fmt.Errorf("invalid SSE endpoint: %w", err)
		}
		return &mcpsdk.SSEClientTransport{Endpoint: endpoint}, nil
	case strings.HasPrefix(lowered, "http://"), strings.HasPrefix(lowered, "https://"):
		endpoint, err := normalizeEndpoint(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP endpoint: %w", err)
		}
		return &mcpsdk.StreamableClientTransport{Endpoint: endpoint}, nil
	}

	return nil, fmt.Errorf("unsupported server spec %q: expected a .py or .js script, an http(s) or sse:// endpoint, or a configured server name", spec)
}

func commandTransport(ctx context.Context, interpreter, script string) mcpsdk.Transport {
	if ctx == nil {
		ctx = context.Background()
	}
	// #nosec G204 -- script path comes from the operator's own CLI argument
	cmd := exec.CommandContext(ctx, interpreter, script)
	return &mcpsdk.CommandTransport{Command: cmd}
}

func normalizeEndpoint(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("endpoint is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("missing host")
	}
	parsed.Scheme = scheme
	return parsed.String(), nil
}
