package tool

import (
	"context"
	"encoding/json"
	"fmt"

	cartx "github.com/zaykahq/ordering-agent/agent/cart"
	contractx "github.com/zaykahq/ordering-agent/agent/contract"
	statex "github.com/zaykahq/ordering-agent/agent/state"
)

// cartChangeArgs is the argument shape shared by add_cart and
// remove_from_cart.
type cartChangeArgs struct {
	ItemID  string `json:"item_id"`
	Title   string `json:"title"`
	NewItem *struct {
		Quantity  int                  `json:"quantity"`
		BasePrice float64              `json:"base_price"`
		Variation *cartx.ItemVariation `json:"variation"`
	} `json:"new_item"`
}

func unitSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"quantity", "base_price"},
		"properties": map[string]any{
			"quantity":   map[string]any{"type": "integer", "description": "Quantity of this specific variation/customization"},
			"base_price": map[string]any{"type": "number", "description": "Base price of the item (cannot be null)"},
			"variation": map[string]any{
				"type":        "object",
				"description": "Variation of the item if available (e.g. Full/Half)",
				"properties": map[string]any{
					"id":    map[string]any{"type": "string", "description": "Unique id of this variation for the item"},
					"name":  map[string]any{"type": "string", "description": "Name of this variation"},
					"price": map[string]any{"type": "string", "description": "Price of this variation of the item"},
				},
			},
		},
	}
}

func cartChangeSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"item_id", "title", "new_item"},
		"properties": map[string]any{
			"item_id":  map[string]any{"type": "string", "description": "Unique UUID for the item"},
			"title":    map[string]any{"type": "string", "description": "Title of the item"},
			"new_item": unitSchema(),
		},
	}
}

func addCartInfo() contractx.ToolInfo {
	return contractx.ToolInfo{
		Name:        ToolAddCart,
		Description: "Adds an item to the cart. new_item carries base_price, quantity, and variation (only if the item has variants like Full/Half).",
		Parameters:  cartChangeSchema(),
	}
}

func removeFromCartInfo() contractx.ToolInfo {
	return contractx.ToolInfo{
		Name:        ToolRemoveFromCart,
		Description: "Removes an item from the cart. new_item carries base_price and quantity of the item to remove.",
		Parameters:  cartChangeSchema(),
	}
}

func getCartInfo() contractx.ToolInfo {
	return contractx.ToolInfo{
		Name:        ToolGetCart,
		Description: "Provide the latest items in the cart.",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
	}
}

func clearCartInfo() contractx.ToolInfo {
	return contractx.ToolInfo{
		Name:        ToolClearCart,
		Description: "Clears the entire cart and removes all the present items in the cart.",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
	}
}

func confirmOrderInfo() contractx.ToolInfo {
	return contractx.ToolInfo{
		Name:        ToolConfirmOrder,
		Description: "Provide the latest items in the cart for user to confirm before placing the order.",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
	}
}

func decodeCartChangeArgs(args map[string]any) (cartChangeArgs, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return cartChangeArgs{}, fmt.Errorf("re-encode arguments: %w", err)
	}
	var parsed cartChangeArgs
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return cartChangeArgs{}, fmt.Errorf("decode arguments: %w", err)
	}
	if parsed.NewItem == nil {
		return cartChangeArgs{}, fmt.Errorf("new_item is required")
	}
	if parsed.NewItem.Quantity <= 0 {
		return cartChangeArgs{}, fmt.Errorf("quantity must be positive, got %d", parsed.NewItem.Quantity)
	}
	return parsed, nil
}

func addCartHandler(ctx context.Context, sess *statex.SessionState, args map[string]any) (contractx.ToolOutcome, error) {
	parsed, err := decodeCartChangeArgs(args)
	if err != nil {
		return contractx.ToolOutcome{Content: fmt.Sprintf("invalid arguments for %s: %v", ToolAddCart, err)}, nil
	}

	updated := cartx.Add(sess.Cart, parsed.ItemID, parsed.Title, cartx.Unit{
		Quantity:  parsed.NewItem.Quantity,
		BasePrice: parsed.NewItem.BasePrice,
		Variation: parsed.NewItem.Variation,
	})

	return contractx.ToolOutcome{
		Content: fmt.Sprintf("Added %s to cart", parsed.Title),
		Patch:   contractx.StatePatch{Cart: &updated},
	}, nil
}

func removeFromCartHandler(ctx context.Context, sess *statex.SessionState, args map[string]any) (contractx.ToolOutcome, error) {
	parsed, err := decodeCartChangeArgs(args)
	if err != nil {
		return contractx.ToolOutcome{Content: fmt.Sprintf("invalid arguments for %s: %v", ToolRemoveFromCart, err)}, nil
	}

	if cartx.IsEmpty(sess.Cart) {
		return contractx.ToolOutcome{
			Content: fmt.Sprintf("Cart is empty. Cannot remove %s.", parsed.Title),
		}, nil
	}

	unit := cartx.Unit{
		Quantity:  parsed.NewItem.Quantity,
		Variation: parsed.NewItem.Variation,
	}

	available := 0
	if existing, ok := cartx.FindUnit(sess.Cart, parsed.ItemID, cartx.UnitKey(parsed.ItemID, unit.Variation)); ok {
		available = existing.Quantity
	}

	updated, outcome := cartx.Remove(sess.Cart, parsed.ItemID, unit)
	result := contractx.ToolOutcome{
		Content: cartx.OutcomeMessage(outcome, parsed.Title, parsed.NewItem.Quantity, available),
	}
	if outcome == cartx.OutcomeReduced || outcome == cartx.OutcomeRemoved {
		result.Patch = contractx.StatePatch{Cart: &updated}
	}
	return result, nil
}

func getCartHandler(ctx context.Context, sess *statex.SessionState, args map[string]any) (contractx.ToolOutcome, error) {
	return cartSnapshotOutcome(sess)
}

// confirm_order shows the cart back to the engine so it can recite the order
// for confirmation. Read-only, same snapshot as get_cart.
func confirmOrderHandler(ctx context.Context, sess *statex.SessionState, args map[string]any) (contractx.ToolOutcome, error) {
	return cartSnapshotOutcome(sess)
}

func clearCartHandler(ctx context.Context, sess *statex.SessionState, args map[string]any) (contractx.ToolOutcome, error) {
	empty := cartx.Clear()
	return contractx.ToolOutcome{
		Content: "Cart cleared.",
		Patch:   contractx.StatePatch{Cart: &empty},
	}, nil
}

func cartSnapshotOutcome(sess *statex.SessionState) (contractx.ToolOutcome, error) {
	snapshot, err := json.Marshal(sess.Cart)
	if err != nil {
		return contractx.ToolOutcome{}, fmt.Errorf("marshal cart snapshot: %w", err)
	}
	return contractx.ToolOutcome{Content: string(snapshot)}, nil
}
