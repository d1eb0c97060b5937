package tool

import (
	"context"
	"encoding/json"
	"fmt"

	contractx "github.com/zaykahq/ordering-agent/agent/contract"
	statex "github.com/zaykahq/ordering-agent/agent/state"
)

func menuToolInfo() contractx.ToolInfo {
	return contractx.ToolInfo{
		Name:        ToolGetMenu,
		Description: "Provide the latest up-to-date menu.",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
	}
}

// newMenuHandler fetches the tenant menu. A failing catalog call is reported
// inline so the engine can apologize or retry; it never aborts the turn.
func newMenuHandler(menu contractx.MenuProvider) Handler {
	return func(ctx context.Context, sess *statex.SessionState, args map[string]any) (contractx.ToolOutcome, error) {
		items, err := menu.Fetch(ctx, sess.Subdomain)
		if err != nil {
			return contractx.ToolOutcome{
				Content: fmt.Sprintf("Error fetching the menu: %v", err),
			}, nil
		}

		encoded, err := json.Marshal(items)
		if err != nil {
			return contractx.ToolOutcome{}, fmt.Errorf("marshal menu items: %w", err)
		}
		return contractx.ToolOutcome{Content: string(encoded)}, nil
	}
}
