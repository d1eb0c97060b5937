// Package tool implements the closed set of operations the reasoning engine
// may invoke mid-conversation. Dispatch goes through a lookup table from tool
// name to handler; arguments are validated before any state is touched, and
// every failure is converted into a tool-result the engine can react to.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/zaykahq/ordering-agent/agent/contract"
	statex "github.com/zaykahq/ordering-agent/agent/state"
)

const (
	ToolGetMenu        = "get_menu"
	ToolGetCart        = "get_cart"
	ToolAddCart        = "add_cart"
	ToolRemoveFromCart = "remove_from_cart"
	ToolClearCart      = "clear_cart"
	ToolConfirmOrder   = "confirm_order"
	ToolPlaceOrder     = "place_order"
)

// Handler executes one tool against the session's working state. The state is
// read-only for handlers; mutations travel back as a patch in the outcome.
type Handler func(ctx context.Context, sess *statex.SessionState, args map[string]any) (contractx.ToolOutcome, error)

type definition struct {
	info    contractx.ToolInfo
	handler Handler
}

// Registry is the dispatch table for the active toolset.
type Registry struct {
	defs       map[string]definition
	order      []string
	newOrderID func() string
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithOrderIDFunc overrides order id generation (tests).
func WithOrderIDFunc(fn func() string) RegistryOption {
	return func(r *Registry) {
		if fn != nil {
			r.newOrderID = fn
		}
	}
}

// NewRegistry builds the active toolset around the given menu provider.
func NewRegistry(menu contractx.MenuProvider, opts ...RegistryOption) *Registry {
	r := &Registry{
		defs:       make(map[string]definition),
		newOrderID: defaultOrderID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	r.register(menuToolInfo(), newMenuHandler(menu))
	r.register(getCartInfo(), getCartHandler)
	r.register(addCartInfo(), addCartHandler)
	r.register(removeFromCartInfo(), removeFromCartHandler)
	r.register(clearCartInfo(), clearCartHandler)
	r.register(confirmOrderInfo(), confirmOrderHandler)
	r.register(placeOrderInfo(), r.placeOrderHandler)

	return r
}

func (r *Registry) register(info contractx.ToolInfo, handler Handler) {
	r.defs[info.Name] = definition{info: info, handler: handler}
	r.order = append(r.order, info.Name)
}

// Infos returns the declared toolset in registration order.
func (r *Registry) Infos() []contractx.ToolInfo {
	infos := make([]contractx.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		infos = append(infos, r.defs[name].info)
	}
	return infos
}

// Dispatch runs one requested invocation. It never returns an error to the
// caller: unknown tools, malformed arguments, and handler failures all come
// back as conversation-visible content so the turn survives and the engine
// can self-correct.
func (r *Registry) Dispatch(ctx context.Context, sess *statex.SessionState, call contractx.ToolCall) contractx.ToolOutcome {
	name := strings.TrimSpace(call.Name)
	def, ok := r.defs[name]
	if !ok {
		log.Warn().Str("tool", name).Msg("unknown tool requested")
		return contractx.ToolOutcome{
			Content: fmt.Sprintf("tool=%s is not available", name),
		}
	}

	args, err := decodeArgs(call.Arguments)
	if err != nil {
		log.Debug().Str("tool", name).Err(err).Msg("tool arguments rejected")
		return contractx.ToolOutcome{
			Content: fmt.Sprintf("invalid arguments for %s: %v", name, err),
		}
	}

	if err := validateArgs(def.info.Parameters, args); err != nil {
		log.Debug().Str("tool", name).Err(err).Msg("tool arguments rejected")
		return contractx.ToolOutcome{
			Content: fmt.Sprintf("invalid arguments for %s: %v", name, err),
		}
	}

	out, err := def.handler(ctx, sess, args)
	if err != nil {
		log.Warn().Str("tool", name).Err(err).Msg("tool execution failed")
		return contractx.ToolOutcome{
			Content: fmt.Sprintf("%s failed: %v", name, err),
		}
	}
	return out
}

func decodeArgs(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	args := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	return args, nil
}

// validateArgs checks required properties and primitive types against the
// declared JSON-schema object. Nested objects are validated one level down,
// which covers the unit/variation shapes this toolset declares.
func validateArgs(schema map[string]any, args map[string]any) error {
	if schema == nil {
		return nil
	}

	required, _ := schema["required"].([]string)
	for _, name := range required {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("missing required argument %q", name)
		}
	}

	properties, _ := schema["properties"].(map[string]any)
	for name, rawSpec := range properties {
		value, ok := args[name]
		if !ok || value == nil {
			continue
		}
		spec, _ := rawSpec.(map[string]any)
		if err := validateValue(name, spec, value); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(name string, spec map[string]any, value any) error {
	declaredType, _ := spec["type"].(string)
	switch declaredType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("argument %q must be a string", name)
		}
	case "integer", "number":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("argument %q must be a number", name)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("argument %q must be a boolean", name)
		}
	case "object":
		nested, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("argument %q must be an object", name)
		}
		nestedSchema := map[string]any{}
		if props, ok := spec["properties"].(map[string]any); ok {
			nestedSchema["properties"] = props
		}
		if req, ok := spec["required"].([]string); ok {
			nestedSchema["required"] = req
		}
		return validateArgs(nestedSchema, nested)
	}
	return nil
}

func defaultOrderID() string {
	return "ZKS" + uuid.NewString()[:8]
}
