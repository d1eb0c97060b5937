package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	enginex "github.com/zaykahq/ordering-agent/agent/engine"
	menux "github.com/zaykahq/ordering-agent/agent/menu"
	orchestratorx "github.com/zaykahq/ordering-agent/agent/orchestrator"
	promptx "github.com/zaykahq/ordering-agent/agent/prompt"
	statex "github.com/zaykahq/ordering-agent/agent/state"
	toolx "github.com/zaykahq/ordering-agent/agent/tool"
	configx "github.com/zaykahq/ordering-agent/pkg/config"
	_ "github.com/zaykahq/ordering-agent/pkg/logger/autoload"
	serverx "github.com/zaykahq/ordering-agent/server"
)

type AppConfig struct {
	SessionStoreBackend string `envconfig:"SESSION_STORE_BACKEND" split_words:"true" default:"memory"`
}

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("startup failed")
		os.Exit(1)
	}
}

// run builds and serves the application. Errors return so deferred cleanup
// (the postgres pool in particular) unwinds before the process exits.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("")

	store, cleanup, err := newStore(ctx, appCfg.SessionStoreBackend)
	if err != nil {
		return fmt.Errorf("initialize session store: %w", err)
	}
	defer cleanup()

	engineCfg := configx.MustNew[enginex.Config]("OPENROUTER")
	engine, err := enginex.New(*engineCfg)
	if err != nil {
		return fmt.Errorf("initialize chat engine: %w", err)
	}

	menuCfg := configx.MustNew[menux.Config]("MENU")
	menuClient, err := menux.NewClient(*menuCfg)
	if err != nil {
		return fmt.Errorf("initialize menu client: %w", err)
	}

	registry := toolx.NewRegistry(menuClient)

	agentCfg := configx.MustNew[orchestratorx.Config]("AGENT")
	agent, err := orchestratorx.New(store, engine, registry, promptx.LoadPromptSet(), *agentCfg)
	if err != nil {
		return fmt.Errorf("initialize orchestrator: %w", err)
	}

	serverCfg := configx.MustNew[serverx.Config]("SERVER")
	srv := serverx.New(*serverCfg, agent)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("shutdown did not complete cleanly")
		}
		return nil
	}
}

func newStore(ctx context.Context, backend string) (statex.Store, func(), error) {
	noop := func() {}
	switch backend {
	case "memory":
		return statex.NewMemoryStore(), noop, nil
	case "redis":
		cfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		store, err := statex.NewUpstashRedisStore(*cfg)
		return store, noop, err
	case "postgres":
		cfg := configx.MustNew[statex.PostgresConfig]("POSTGRES")
		store, err := statex.NewPostgresStore(*cfg)
		if err != nil {
			return nil, noop, err
		}
		if err := store.Init(ctx); err != nil {
			closeErr := store.Close()
			if closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close postgres store")
			}
			return nil, noop, err
		}
		cleanup := func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close postgres store")
			}
		}
		return store, cleanup, nil
	default:
		return nil, noop, fmt.Errorf("unknown session store backend %q", backend)
	}
}
