package contract

import "context"

// ChatEngine is the opaque reasoning capability: given the conversation so
// far and the declared toolset, it returns one assistant turn — either a
// textual reply or a set of tool-invocation requests.
type ChatEngine interface {
	Chat(ctx context.Context, messages []Message, tools []ToolInfo) (Message, error)
}

// MenuProvider fetches the current menu for a tenant subdomain. Items are
// passed through verbatim for the reasoning engine to read.
type MenuProvider interface {
	Fetch(ctx context.Context, subdomain string) ([]map[string]any, error)
}
