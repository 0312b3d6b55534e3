package chat

import (
	"github.com/openai/openai-go"
)

// History is the append-only conversation log for one query. Messages are
// never mutated or removed after Append; the system priming message is the
// first element and is added exactly once by NewHistory.
type History struct {
	messages []openai.ChatCompletionMessageParamUnion
}

// NewHistory seeds a history with the system priming message and the user
// query, the state every query starts from.
func NewHistory(systemPrompt, query string) *History {
	return &History{
		messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(query),
		},
	}
}

// Append adds one message to the end of the log.
func (h *History) Append(msg openai.ChatCompletionMessageParamUnion) {
	h.messages = append(h.messages, msg)
}

// Snapshot returns a copy of the full ordered history, the model input for
// each round. Later appends do not alter an earlier snapshot.
func (h *History) Snapshot() []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len reports the number of messages in the log.
func (h *History) Len() int {
	return len(h.messages)
}
