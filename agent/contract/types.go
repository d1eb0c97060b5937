package contract

import (
	cartx "github.com/zaykahq/ordering-agent/agent/cart"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a structured invocation the reasoning engine requested.
// Arguments is the raw JSON the engine produced; it is validated against the
// tool's schema before dispatch.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one conversation turn. ToolCalls is set on assistant turns that
// request tools; ToolCallID ties a tool-result turn back to its request.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// HasToolCalls reports whether this turn requests tool invocations.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// ToolInfo declares one callable operation to the reasoning engine.
// Parameters is a JSON-schema object describing the arguments.
type ToolInfo struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// StatePatch is the partial session update a tool produces. Nil fields leave
// the corresponding session field untouched; the orchestrator merges patches
// atomically per tool call.
type StatePatch struct {
	Cart     *cartx.Cart
	OrderID  *string
	Finished *bool
}

// IsZero reports whether the patch changes nothing.
func (p StatePatch) IsZero() bool {
	return p.Cart == nil && p.OrderID == nil && p.Finished == nil
}

// ToolOutcome is what a dispatched tool hands back: text appended to the
// conversation as a tool-result turn, plus an optional state patch.
type ToolOutcome struct {
	Content string
	Patch   StatePatch
}
