package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	contractx "github.com/zaykahq/ordering-agent/agent/contract"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{Model: "m"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing api key, got %v", err)
	}
	if err := (Config{APIKey: "k"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing model, got %v", err)
	}
	if err := (Config{APIKey: "k", Model: "m"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestChatPlainReply(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if body["model"] != "test-model" {
			t.Errorf("unexpected model: %v", body["model"])
		}
		if tools, ok := body["tools"].([]any); !ok || len(tools) != 1 {
			t.Errorf("expected 1 bound tool, got %v", body["tools"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "Namaste! How can I help?"}
			}]
		}`))
	}))
	t.Cleanup(server.Close)

	eng, err := New(Config{BaseURL: server.URL, APIKey: "key", Model: "test-model"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	reply, err := eng.Chat(context.Background(),
		[]contractx.Message{
			{Role: contractx.RoleSystem, Content: "system"},
			{Role: contractx.RoleUser, Content: "hi"},
		},
		[]contractx.ToolInfo{{
			Name:        "get_menu",
			Description: "menu",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		}},
	)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply.Role != contractx.RoleAssistant {
		t.Fatalf("unexpected role: %s", reply.Role)
	}
	if reply.Content != "Namaste! How can I help?" {
		t.Fatalf("unexpected content: %s", reply.Content)
	}
	if reply.HasToolCalls() {
		t.Fatal("plain reply must not carry tool calls")
	}
}

func TestChatToolCallReply(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-2",
			"object": "chat.completion",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call-1",
						"type": "function",
						"function": {"name": "add_cart", "arguments": "{\"item_id\":\"item-1\"}"}
					}]
				}
			}]
		}`))
	}))
	t.Cleanup(server.Close)

	eng, err := New(Config{BaseURL: server.URL, APIKey: "key", Model: "test-model"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	reply, err := eng.Chat(context.Background(),
		[]contractx.Message{{Role: contractx.RoleUser, Content: "add a dosa"}}, nil)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if !reply.HasToolCalls() {
		t.Fatal("expected tool calls")
	}
	if reply.ToolCalls[0].Name != "add_cart" || reply.ToolCalls[0].ID != "call-1" {
		t.Fatalf("unexpected tool call: %+v", reply.ToolCalls[0])
	}
}

func TestChatUpstreamFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	eng, err := New(Config{BaseURL: server.URL, APIKey: "key", Model: "test-model"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = eng.Chat(context.Background(),
		[]contractx.Message{{Role: contractx.RoleUser, Content: "hi"}}, nil)
	if !errors.Is(err, contractx.ErrEngineInvoke) {
		t.Fatalf("expected ErrEngineInvoke, got %v", err)
	}
}

func TestRoundTripOfHistoryWithToolTurns(t *testing.T) {
	t.Parallel()

	var gotMessages []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []map[string]any `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		gotMessages = body.Messages
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-3",
			"object": "chat.completion",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "done"}}]
		}`))
	}))
	t.Cleanup(server.Close)

	eng, err := New(Config{BaseURL: server.URL, APIKey: "key", Model: "test-model"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	history := []contractx.Message{
		{Role: contractx.RoleSystem, Content: "sys"},
		{Role: contractx.RoleUser, Content: "add a dosa"},
		{Role: contractx.RoleAssistant, ToolCalls: []contractx.ToolCall{
			{ID: "call-1", Name: "add_cart", Arguments: `{"item_id":"item-1"}`},
		}},
		{Role: contractx.RoleTool, Content: "Added Dosa to cart", ToolCallID: "call-1"},
	}
	if _, err := eng.Chat(context.Background(), history, nil); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if len(gotMessages) != 4 {
		t.Fatalf("expected 4 wire messages, got %d", len(gotMessages))
	}
	if gotMessages[2]["role"] != "assistant" {
		t.Fatalf("expected assistant turn at index 2, got %v", gotMessages[2]["role"])
	}
	if _, ok := gotMessages[2]["tool_calls"]; !ok {
		t.Fatal("assistant turn lost its tool calls on the wire")
	}
	if gotMessages[3]["role"] != "tool" || gotMessages[3]["tool_call_id"] != "call-1" {
		t.Fatalf("tool turn malformed: %v", gotMessages[3])
	}
}
