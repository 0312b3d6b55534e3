// Interactive prompt loop.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minhyannv/mcp-chat-go/pkg/mcp"
)

// queryRunner is the loop surface the REPL drives; faked in tests.
type queryRunner interface {
	Ask(ctx context.Context, query string) (string, error)
	Tools(ctx context.Context) ([]mcp.ToolDescriptor, error)
}

// runREPL reads queries one line at a time until EOF or quit. A query
// error is printed and the next prompt is served; the session stays up.
func runREPL(ctx context.Context, runner queryRunner, in io.Reader, out io.Writer) error {
	if runner == nil {
		return fmt.Errorf("query runner is required")
	}
	if in == nil {
		return fmt.Errorf("input reader is required")
	}
	if out == nil {
		out = io.Discard
	}

	printWelcome(out)
	scanner := bufio.NewScanner(in)

	for {
		_, _ = fmt.Fprint(out, "Query: ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "quit") || strings.EqualFold(input, "exit") {
			_, _ = fmt.Fprintln(out, "Goodbye!")
			return nil
		}
		if input == "/tools" {
			printTools(ctx, runner, out)
			continue
		}

		answer, err := runner.Ask(ctx, input)
		if err != nil {
			_, _ = fmt.Fprintf(out, "Error: %v\n\n", err)
			continue
		}
		_, _ = fmt.Fprintln(out, answer)
		_, _ = fmt.Fprintln(out)
	}

	return scanner.Err()
}

func printWelcome(out io.Writer) {
	_, _ = fmt.Fprintln(out, "MCP chat started. Type a query, /tools to list tools, or 'quit' to exit.")
	_, _ = fmt.Fprintln(out)
}

func printTools(ctx context.Context, runner queryRunner, out io.Writer) {
	tools, err := runner.Tools(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(out, "Error: %v\n\n", err)
		return
	}
	if len(tools) == 0 {
		_, _ = fmt.Fprintln(out, "No tools available.")
		_, _ = fmt.Fprintln(out)
		return
	}
	for _, tool := range tools {
		_, _ = fmt.Fprintf(out, "  %s - %s\n", tool.Name, tool.Description)
	}
	_, _ = fmt.Fprintln(out)
}
