package mcp

import (
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolDescriptor is one advertised server operation. InputSchema is the
// server's JSON schema, carried through without modification.
type ToolDescriptor struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

func toDescriptor(tool *mcpsdk.Tool) (ToolDescriptor, error) {
	if tool == nil {
		return ToolDescriptor{}, fmt.Errorf("nil tool")
	}
	desc := ToolDescriptor{
		Name:        tool.Name,
		Description: tool.Description,
	}
	if tool.InputSchema != nil {
		schema, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return ToolDescriptor{}, fmt.Errorf("encode input schema: %w", err)
		}
		desc.InputSchema = schema
	}
	return desc, nil
}
