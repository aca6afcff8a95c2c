package core

// Payload kind discriminators for the built-in event families. Workflow
// payload kinds live in package workflow next to the orchestrator.
const (
	KindMessage      = "message"
	KindChatRequest  = "chat.request"
	KindChatResponse = "chat.response"
	KindToolCall     = "tool.call"
	KindToolResult   = "tool.result"
)

// MessagePayload is a free-form text message between actors.
type MessagePayload struct {
	Text string `json:"text"`
}

// Kind implements Payload.
func (MessagePayload) Kind() string { return KindMessage }

// ChatRequestPayload asks a role actor to produce a model completion.
// SessionID correlates the eventual response back to the requester.
type ChatRequestPayload struct {
	SessionID string `json:"session_id"`
	System    string `json:"system,omitempty"`
	Prompt    string `json:"prompt"`
}

// Kind implements Payload.
func (ChatRequestPayload) Kind() string { return KindChatRequest }

// ChatResponsePayload carries the terminal output of a chat request. Final
// marks the end of the message; streaming providers may emit non-final
// fragments first.
type ChatResponsePayload struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Error     string `json:"error,omitempty"`
	Final     bool   `json:"final"`
	WorkerID  string `json:"worker_id,omitempty"`
}

// Kind implements Payload.
func (ChatResponsePayload) Kind() string { return KindChatResponse }

// ToolCallPayload requests execution of a named tool by the agent's own tool
// subsystem.
type ToolCallPayload struct {
	CallID    string         `json:"call_id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Kind implements Payload.
func (ToolCallPayload) Kind() string { return KindToolCall }

// ToolResultPayload reports the outcome of a tool call.
type ToolResultPayload struct {
	CallID string `json:"call_id"`
	Name   string `json:"name"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Kind implements Payload.
func (ToolResultPayload) Kind() string { return KindToolResult }

// RegisterBuiltinPayloads installs decoders for the payload kinds declared in
// this package.
func RegisterBuiltinPayloads(c *Codec) {
	RegisterPayload[MessagePayload](c)
	RegisterPayload[ChatRequestPayload](c)
	RegisterPayload[ChatResponsePayload](c)
	RegisterPayload[ToolCallPayload](c)
	RegisterPayload[ToolResultPayload](c)
}
