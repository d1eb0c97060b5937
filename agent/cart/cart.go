// Package cart holds the value model for a customer's in-progress order and
// the pure mutation functions over it. No I/O, no locking; callers own the
// values they pass in and receive fresh values back.
package cart

import (
	"fmt"
	"strings"
)

// NoVariantKey is the sentinel used in a unit key when the item has no
// variation (or its variation id is blank).
const NoVariantKey = "no_variant"

// ItemVariation is an optional named variant of a menu item (e.g. Full/Half).
// Immutable once attached to a cart unit.
type ItemVariation struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// Unit is one distinct purchasable line within a cart item, distinguished by
// its variation. Quantity is always positive; a unit that would reach zero is
// removed instead of retained.
type Unit struct {
	Key       string         `json:"key"`
	Quantity  int            `json:"quantity"`
	BasePrice float64        `json:"base_price"`
	Variation *ItemVariation `json:"variation,omitempty"`
}

// Item groups the units of one menu item. Units is never empty while the
// item is present in a cart.
type Item struct {
	ItemID string `json:"item_id"`
	Title  string `json:"title"`
	Units  []Unit `json:"units"`
}

// Cart is the aggregate. ItemID is unique across Items; order of items and
// units is preserved across mutations, with new entries appended at the end.
type Cart struct {
	Items []Item `json:"items"`
}

// RemoveOutcome tells the caller what a Remove call actually did.
type RemoveOutcome int

const (
	OutcomeReduced RemoveOutcome = iota
	OutcomeRemoved
	OutcomeItemNotFound
	OutcomeVariantNotFound
	OutcomeInsufficientQuantity
)

// New returns an empty cart.
func New() Cart {
	return Cart{Items: []Item{}}
}

// Clear returns an empty cart.
func Clear() Cart {
	return New()
}

// UnitKey derives the deterministic identity of a purchasable line:
// item_id + "|" + variation id, with "no_variant" when the variation is
// absent or its id is blank after trimming.
func UnitKey(itemID string, variation *ItemVariation) string {
	variantID := NoVariantKey
	if variation != nil && strings.TrimSpace(variation.ID) != "" {
		variantID = variation.ID
	}
	return itemID + "|" + variantID
}

// normalizeVariation drops a variation whose id is blank so that the unit is
// treated as variant-less.
func normalizeVariation(variation *ItemVariation) *ItemVariation {
	if variation == nil || strings.TrimSpace(variation.ID) == "" {
		return nil
	}
	v := *variation
	return &v
}

// Add merges a unit into the cart and returns the new cart value.
//
// If the cart has no item with itemID, a new item is appended. If the item
// already holds a unit with the same derived key, only that unit's quantity
// grows; the incoming price and variation are discarded in favor of the
// existing unit's. Otherwise the unit is appended as a new line.
func Add(c Cart, itemID, title string, unit Unit) Cart {
	variation := normalizeVariation(unit.Variation)
	key := UnitKey(itemID, variation)
	incoming := Unit{
		Key:       key,
		Quantity:  unit.Quantity,
		BasePrice: unit.BasePrice,
		Variation: variation,
	}

	out := clone(c)
	for i := range out.Items {
		if out.Items[i].ItemID != itemID {
			continue
		}
		for j := range out.Items[i].Units {
			if out.Items[i].Units[j].Key == key {
				out.Items[i].Units[j].Quantity += incoming.Quantity
				return out
			}
		}
		out.Items[i].Units = append(out.Items[i].Units, incoming)
		return out
	}

	out.Items = append(out.Items, Item{
		ItemID: itemID,
		Title:  title,
		Units:  []Unit{incoming},
	})
	return out
}

// Remove takes quantity away from the unit identified by itemID and the
// unit's derived key, and returns the new cart plus the outcome.
//
// Quantity is removed exactly or not at all: asking for more than the unit
// holds leaves the cart unchanged and reports OutcomeInsufficientQuantity.
// A unit drained to zero is dropped, and an item left with no units is
// dropped from the cart.
func Remove(c Cart, itemID string, unit Unit) (Cart, RemoveOutcome) {
	key := UnitKey(itemID, normalizeVariation(unit.Variation))

	for i := range c.Items {
		if c.Items[i].ItemID != itemID {
			continue
		}
		for j := range c.Items[i].Units {
			existing := c.Items[i].Units[j]
			if existing.Key != key {
				continue
			}
			switch {
			case existing.Quantity > unit.Quantity:
				out := clone(c)
				out.Items[i].Units[j].Quantity -= unit.Quantity
				return out, OutcomeReduced
			case existing.Quantity == unit.Quantity:
				out := clone(c)
				units := out.Items[i].Units
				out.Items[i].Units = append(units[:j], units[j+1:]...)
				if len(out.Items[i].Units) == 0 {
					out.Items = append(out.Items[:i], out.Items[i+1:]...)
				}
				return out, OutcomeRemoved
			default:
				return c, OutcomeInsufficientQuantity
			}
		}
		return c, OutcomeVariantNotFound
	}
	return c, OutcomeItemNotFound
}

// FindUnit returns the unit with the given derived key under itemID.
func FindUnit(c Cart, itemID, key string) (Unit, bool) {
	for _, item := range c.Items {
		if item.ItemID != itemID {
			continue
		}
		for _, unit := range item.Units {
			if unit.Key == key {
				return unit, true
			}
		}
	}
	return Unit{}, false
}

// TotalQuantity sums quantities across all units of all items.
func TotalQuantity(c Cart) int {
	total := 0
	for _, item := range c.Items {
		for _, unit := range item.Units {
			total += unit.Quantity
		}
	}
	return total
}

// IsEmpty reports whether the cart holds no items.
func IsEmpty(c Cart) bool {
	return len(c.Items) == 0
}

// OutcomeMessage maps a removal outcome to the user-facing text appended to
// the conversation.
func OutcomeMessage(outcome RemoveOutcome, title string, quantity, available int) string {
	switch outcome {
	case OutcomeReduced:
		return fmt.Sprintf("Reduced %s quantity by %d", title, quantity)
	case OutcomeRemoved:
		return fmt.Sprintf("Removed %s from cart", title)
	case OutcomeVariantNotFound:
		return fmt.Sprintf("Variant of %s not found in cart.", title)
	case OutcomeInsufficientQuantity:
		return fmt.Sprintf("Cannot remove %d %s. Only %d available.", quantity, title, available)
	default:
		return fmt.Sprintf("Item %s not found in cart.", title)
	}
}

// clone deep-copies the item and unit slices so mutations never alias the
// input cart.
func clone(c Cart) Cart {
	items := make([]Item, len(c.Items))
	for i, item := range c.Items {
		units := make([]Unit, len(item.Units))
		copy(units, item.Units)
		items[i] = Item{
			ItemID: item.ItemID,
			Title:  item.Title,
			Units:  units,
		}
	}
	return Cart{Items: items}
}
