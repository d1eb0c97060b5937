package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	cartx "github.com/zaykahq/ordering-agent/agent/cart"
	contractx "github.com/zaykahq/ordering-agent/agent/contract"
)

var (
	ErrNilSessionState = errors.New("session state is nil")
	ErrInvalidSession  = errors.New("session id is empty")
)

// SessionState is the persistent source-of-truth for one customer's ordering
// conversation. Messages is append-only; Cart, OrderID, and Finished are
// replace-on-write through ApplyPatch. The store owns the canonical copy per
// session key; the orchestrator works on a loaded copy for one user turn and
// checkpoints it back.
type SessionState struct {
	SessionID      string              `json:"session_id"`
	RestaurantName string              `json:"restaurant_name"`
	Subdomain      string              `json:"subdomain"`
	Messages       []contractx.Message `json:"messages"`
	Cart           cartx.Cart          `json:"cart"`
	OrderID        string              `json:"order_id,omitempty"`
	Finished       bool                `json:"finished"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// NewSessionState creates the state for a session's first message: empty
// cart, no order id, not finished.
func NewSessionState(sessionID, restaurantName, subdomain string, now time.Time) *SessionState {
	return &SessionState{
		SessionID:      sessionID,
		RestaurantName: restaurantName,
		Subdomain:      subdomain,
		Messages:       []contractx.Message{},
		Cart:           cartx.New(),
		UpdatedAt:      now.UTC(),
	}
}

func (s *SessionState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// AppendMessage adds one conversation turn. Messages only grow.
func (s *SessionState) AppendMessage(msg contractx.Message) {
	s.Messages = append(s.Messages, msg)
}

// ApplyPatch merges a tool-produced state patch. Nil patch fields leave the
// session untouched.
func (s *SessionState) ApplyPatch(patch contractx.StatePatch) {
	if patch.Cart != nil {
		s.Cart = *patch.Cart
	}
	if patch.OrderID != nil {
		s.OrderID = *patch.OrderID
	}
	if patch.Finished != nil {
		s.Finished = *patch.Finished
	}
}

// EnsureCart normalizes a state decoded from storage so Cart.Items is never
// nil.
func (s *SessionState) EnsureCart() {
	if s.Cart.Items == nil {
		s.Cart.Items = []cartx.Item{}
	}
}

func (s *SessionState) Validate() error {
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	for i, item := range s.Cart.Items {
		if len(item.Units) == 0 {
			return fmt.Errorf("cart item %s at index %d has no units", item.ItemID, i)
		}
		for _, unit := range item.Units {
			if unit.Quantity <= 0 {
				return fmt.Errorf("cart item %s unit %s has non-positive quantity %d", item.ItemID, unit.Key, unit.Quantity)
			}
		}
	}
	return nil
}
