package tool

import (
	"context"
	"fmt"

	cartx "github.com/zaykahq/ordering-agent/agent/cart"
	contractx "github.com/zaykahq/ordering-agent/agent/contract"
	statex "github.com/zaykahq/ordering-agent/agent/state"
)

func placeOrderInfo() contractx.ToolInfo {
	return contractx.ToolInfo{
		Name:        ToolPlaceOrder,
		Description: "Place the order and complete the ordering process.",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
	}
}

// placeOrderHandler finalizes the order: precondition is a non-empty cart;
// on success the cart is emptied, a fresh order id is set, and the session is
// marked finished. Order placement is simulated, producing only the id.
func (r *Registry) placeOrderHandler(ctx context.Context, sess *statex.SessionState, args map[string]any) (contractx.ToolOutcome, error) {
	if cartx.IsEmpty(sess.Cart) {
		return contractx.ToolOutcome{
			Content: "Cannot place order. Cart is empty. Please add items to your cart first.",
		}, nil
	}

	orderID := r.newOrderID()
	totalItems := cartx.TotalQuantity(sess.Cart)
	empty := cartx.Clear()
	finished := true

	return contractx.ToolOutcome{
		Content: fmt.Sprintf(
			"Order placed successfully! Your order ID is %s. Total items: %d. Thank you for your order!",
			orderID, totalItems,
		),
		Patch: contractx.StatePatch{
			Cart:     &empty,
			OrderID:  &orderID,
			Finished: &finished,
		},
	}, nil
}
