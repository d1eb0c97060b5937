// Package orchestrator drives one user turn through the reasoning/tool loop:
// engine turn, then tool turns, back to the engine, until a plain reply.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/zaykahq/ordering-agent/agent/contract"
	promptx "github.com/zaykahq/ordering-agent/agent/prompt"
	statex "github.com/zaykahq/ordering-agent/agent/state"
)

var (
	ErrInvalidMessage    = errors.New("user_message is empty")
	ErrInvalidSession    = errors.New("session_id is missing")
	ErrInvalidRestaurant = errors.New("restaurant_name is required")
	ErrInvalidSubdomain  = errors.New("subdomain is required")
)

const defaultMaxToolRounds = 8

// exhaustedReply is the forced plain reply when the engine keeps requesting
// tools past the round ceiling. State from completed tool rounds stays
// committed.
const exhaustedReply = "I'm having trouble completing that right now. Your cart has been saved - could you rephrase or try again?"

// ToolDispatcher is the slice of the tool registry the orchestrator needs.
type ToolDispatcher interface {
	Infos() []contractx.ToolInfo
	Dispatch(ctx context.Context, sess *statex.SessionState, call contractx.ToolCall) contractx.ToolOutcome
}

// Request is one user turn for one session.
type Request struct {
	SessionID      string
	UserMessage    string
	RestaurantName string
	Subdomain      string
}

// Reply is one assistant-authored message surfaced to the client.
type Reply struct {
	Content   string
	ToolCalls []contractx.ToolCall
}

// EmitFunc receives replies as they become available.
type EmitFunc func(Reply)

type Config struct {
	MaxToolRounds int `envconfig:"MAX_TOOL_ROUNDS" split_words:"true" default:"8"`
}

// Orchestrator owns the per-turn state machine. Requests for the same
// session key are serialized; distinct sessions proceed in parallel.
type Orchestrator struct {
	store         statex.Store
	engine        contractx.ChatEngine
	tools         ToolDispatcher
	prompts       promptx.PromptSet
	maxToolRounds int
	sessions      *keyedMutex
	now           func() time.Time
}

func New(
	store statex.Store,
	engine contractx.ChatEngine,
	tools ToolDispatcher,
	prompts promptx.PromptSet,
	cfg Config,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if engine == nil {
		return nil, errors.New("chat engine is required")
	}
	if tools == nil {
		return nil, errors.New("tool dispatcher is required")
	}

	maxToolRounds := cfg.MaxToolRounds
	if maxToolRounds <= 0 {
		maxToolRounds = defaultMaxToolRounds
	}

	return &Orchestrator{
		store:         store,
		engine:        engine,
		tools:         tools,
		prompts:       prompts,
		maxToolRounds: maxToolRounds,
		sessions:      newKeyedMutex(),
		now:           time.Now,
	}, nil
}

// HandleMessage runs one full pass of the state machine for one user message
// and emits each user-facing assistant reply as it is produced. State is
// checkpointed after every completed tool round and at turn end; an engine
// failure leaves the session at its last checkpoint.
func (o *Orchestrator) HandleMessage(ctx context.Context, req Request, emit EmitFunc) error {
	req, err := validateRequest(req)
	if err != nil {
		return err
	}
	if emit == nil {
		emit = func(Reply) {}
	}

	unlock := o.sessions.lock(req.SessionID)
	defer unlock()

	st, err := o.loadOrCreateState(ctx, req)
	if err != nil {
		return err
	}

	// Deterministic startup: a session with no prior turns gets the tenant
	// welcome without an engine call.
	if len(st.Messages) == 0 {
		st.AppendMessage(contractx.Message{Role: contractx.RoleUser, Content: req.UserMessage})
		welcome := o.prompts.WelcomeFor(st.RestaurantName)
		st.AppendMessage(contractx.Message{Role: contractx.RoleAssistant, Content: welcome})
		if err := o.checkpoint(ctx, st); err != nil {
			return err
		}
		emit(Reply{Content: welcome})
		return nil
	}

	st.AppendMessage(contractx.Message{Role: contractx.RoleUser, Content: req.UserMessage})

	toolInfos := o.tools.Infos()
	for round := 0; round < o.maxToolRounds; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		assistant, err := o.engine.Chat(ctx, o.withSystemPrompt(st), toolInfos)
		if err != nil {
			return err
		}
		assistant.Role = contractx.RoleAssistant
		st.AppendMessage(assistant)

		if content := strings.TrimSpace(assistant.Content); content != "" {
			emit(Reply{Content: assistant.Content, ToolCalls: assistant.ToolCalls})
		}

		if !assistant.HasToolCalls() {
			return o.checkpoint(ctx, st)
		}

		// Tool invocations run strictly in request order: later calls in the
		// same engine turn observe the patches of earlier ones.
		for _, call := range assistant.ToolCalls {
			outcome := o.tools.Dispatch(ctx, st, call)
			st.ApplyPatch(outcome.Patch)
			st.AppendMessage(contractx.Message{
				Role:       contractx.RoleTool,
				Content:    outcome.Content,
				ToolCallID: call.ID,
			})
			log.Debug().
				Str("session_id", st.SessionID).
				Str("tool", call.Name).
				Bool("patched", !outcome.Patch.IsZero()).
				Msg("tool dispatched")
		}

		if err := o.checkpoint(ctx, st); err != nil {
			return err
		}
	}

	log.Warn().
		Str("session_id", st.SessionID).
		Int("max_tool_rounds", o.maxToolRounds).
		Msg("tool round ceiling reached, forcing plain reply")

	st.AppendMessage(contractx.Message{Role: contractx.RoleAssistant, Content: exhaustedReply})
	if err := o.checkpoint(ctx, st); err != nil {
		return err
	}
	emit(Reply{Content: exhaustedReply})
	return nil
}

// Snapshot returns the persisted state for a session key.
func (o *Orchestrator) Snapshot(ctx context.Context, sessionID string) (*statex.SessionState, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	return o.store.Load(ctx, sessionID)
}

func (o *Orchestrator) loadOrCreateState(ctx context.Context, req Request) (*statex.SessionState, error) {
	st, err := o.store.Load(ctx, req.SessionID)
	if err == nil {
		// tenant fields refresh on every request
		st.RestaurantName = req.RestaurantName
		st.Subdomain = req.Subdomain
		return st, nil
	}
	if !errors.Is(err, statex.ErrStateNotFound) {
		return nil, fmt.Errorf("load session state: %w", err)
	}
	return statex.NewSessionState(req.SessionID, req.RestaurantName, req.Subdomain, o.now()), nil
}

func (o *Orchestrator) withSystemPrompt(st *statex.SessionState) []contractx.Message {
	messages := make([]contractx.Message, 0, len(st.Messages)+1)
	messages = append(messages, contractx.Message{
		Role:    contractx.RoleSystem,
		Content: o.prompts.SystemFor(st.RestaurantName),
	})
	return append(messages, st.Messages...)
}

func (o *Orchestrator) checkpoint(ctx context.Context, st *statex.SessionState) error {
	st.Touch(o.now())
	if err := st.Validate(); err != nil {
		return fmt.Errorf("state validation failed: %w", err)
	}
	if err := o.store.Save(ctx, st); err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	return nil
}

func validateRequest(req Request) (Request, error) {
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		return req, ErrInvalidSession
	}
	req.UserMessage = strings.TrimSpace(req.UserMessage)
	if req.UserMessage == "" {
		return req, ErrInvalidMessage
	}
	req.RestaurantName = strings.TrimSpace(req.RestaurantName)
	if req.RestaurantName == "" {
		return req, ErrInvalidRestaurant
	}
	req.Subdomain = strings.TrimSpace(req.Subdomain)
	if req.Subdomain == "" {
		return req, ErrInvalidSubdomain
	}
	return req, nil
}
