package state

import (
	"errors"
	"testing"
	"time"

	cartx "github.com/zaykahq/ordering-agent/agent/cart"
	contractx "github.com/zaykahq/ordering-agent/agent/contract"
)

func TestNewSessionState(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	st := NewSessionState("sess-1", "Annapurna", "annapurna", now)

	if st.SessionID != "sess-1" {
		t.Fatalf("unexpected session id: %s", st.SessionID)
	}
	if st.Finished {
		t.Fatal("new session must not be finished")
	}
	if st.OrderID != "" {
		t.Fatalf("new session must have no order id, got %q", st.OrderID)
	}
	if len(st.Cart.Items) != 0 {
		t.Fatalf("new session cart must be empty, got %d items", len(st.Cart.Items))
	}
	if len(st.Messages) != 0 {
		t.Fatalf("new session must have no messages, got %d", len(st.Messages))
	}
}

func TestAppendMessageIsMonotonic(t *testing.T) {
	t.Parallel()

	st := NewSessionState("sess-1", "Annapurna", "annapurna", time.Now())
	st.AppendMessage(contractx.Message{Role: contractx.RoleUser, Content: "hi"})
	st.AppendMessage(contractx.Message{Role: contractx.RoleAssistant, Content: "hello"})

	if len(st.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(st.Messages))
	}
	if st.Messages[0].Role != contractx.RoleUser || st.Messages[1].Role != contractx.RoleAssistant {
		t.Fatal("messages out of order")
	}
}

func TestApplyPatch(t *testing.T) {
	t.Parallel()

	st := NewSessionState("sess-1", "Annapurna", "annapurna", time.Now())

	updated := cartx.Add(cartx.New(), "item-1", "Dosa", cartx.Unit{Quantity: 2})
	st.ApplyPatch(contractx.StatePatch{Cart: &updated})
	if got := cartx.TotalQuantity(st.Cart); got != 2 {
		t.Fatalf("cart patch not applied, total=%d", got)
	}

	// zero patch leaves everything alone
	st.ApplyPatch(contractx.StatePatch{})
	if got := cartx.TotalQuantity(st.Cart); got != 2 {
		t.Fatalf("zero patch mutated cart, total=%d", got)
	}

	orderID := "ZKS12345678"
	finished := true
	empty := cartx.New()
	st.ApplyPatch(contractx.StatePatch{Cart: &empty, OrderID: &orderID, Finished: &finished})
	if !st.Finished || st.OrderID != orderID || len(st.Cart.Items) != 0 {
		t.Fatalf("order patch not applied: %+v", st)
	}
}

func TestValidateRejectsEmptyUnits(t *testing.T) {
	t.Parallel()

	st := NewSessionState("sess-1", "Annapurna", "annapurna", time.Now())
	st.Cart.Items = []cartx.Item{{ItemID: "item-1", Title: "Dosa", Units: nil}}

	if err := st.Validate(); err == nil {
		t.Fatal("expected validation error for item with no units")
	}
}

func TestValidateRejectsEmptySessionID(t *testing.T) {
	t.Parallel()

	st := NewSessionState("  ", "Annapurna", "annapurna", time.Now())
	if err := st.Validate(); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestValidateRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	st := NewSessionState("sess-1", "Annapurna", "annapurna", time.Now())
	st.Cart.Items = []cartx.Item{{
		ItemID: "item-1",
		Title:  "Dosa",
		Units:  []cartx.Unit{{Key: "item-1|no_variant", Quantity: 0}},
	}}

	if err := st.Validate(); err == nil {
		t.Fatal("expected validation error for zero quantity unit")
	}
}
