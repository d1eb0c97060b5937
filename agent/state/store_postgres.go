package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// PostgresConfig configures the bun-backed store.
type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type sessionRecord struct {
	bun.BaseModel `bun:"table:order_sessions,alias:os"`

	SessionID string          `bun:"session_id,pk"`
	State     json.RawMessage `bun:"state,type:jsonb,notnull"`
	UpdatedAt time.Time       `bun:"updated_at,notnull"`
}

// PostgresStore persists SessionState as a JSONB payload keyed by session id.
// Upserts go through a single statement, so concurrent writers to the same
// key are serialized by the database row lock.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &PostgresStore{db: db}, nil
}

// Init creates the sessions table when it does not exist yet.
func (s *PostgresStore) Init(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*sessionRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create order_sessions table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, sessionID string) (*SessionState, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	rec := new(sessionRecord)
	err := s.db.NewSelect().
		Model(rec).
		Where("session_id = ?", sessionID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("select session state: %w", err)
	}

	var st SessionState
	if err := json.Unmarshal(rec.State, &st); err != nil {
		return nil, fmt.Errorf("unmarshal session state: %w", err)
	}
	st.EnsureCart()
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session state loaded from store: %w", err)
	}
	return &st, nil
}

func (s *PostgresStore) Save(ctx context.Context, st *SessionState) error {
	if st == nil {
		return ErrNilSessionState
	}
	if strings.TrimSpace(st.SessionID) == "" {
		return ErrInvalidSession
	}
	st.EnsureCart()
	st.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}

	rec := &sessionRecord{
		SessionID: st.SessionID,
		State:     payload,
		UpdatedAt: st.UpdatedAt,
	}
	if _, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT (session_id) DO UPDATE").
		Set("state = EXCLUDED.state").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("upsert session state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	if _, err := s.db.NewDelete().
		Model((*sessionRecord)(nil)).
		Where("session_id = ?", sessionID).
		Exec(ctx); err != nil {
		return fmt.Errorf("delete session state: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
