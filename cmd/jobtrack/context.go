package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"jobtrack/api/internal/board"
	"jobtrack/api/internal/config"
	"jobtrack/api/internal/logging"
	"jobtrack/api/internal/search"
	"jobtrack/api/internal/store"
)

type commandContext struct {
	configFlag *string
	noColor    bool

	configOnce sync.Once
	config     config.Config
	configErr  error
	logger     *slog.Logger

	dbOnce sync.Once
	db     *sql.DB
	dbErr  error

	searchOnce sync.Once
	search     *search.Service
	meili      *search.Meili
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		if c.configFlag != nil {
			if path := strings.TrimSpace(*c.configFlag); path != "" {
				if err := os.Setenv("JOBTRACK_CONFIG", path); err != nil {
					c.configErr = err
					return
				}
			}
		}
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

func (c *commandContext) database(ctx context.Context) (*sql.DB, error) {
	c.dbOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.dbErr = err
			return
		}
		c.db, c.dbErr = store.Open(ctx, cfg.DatabaseURL, store.PoolOptions{MaxOpenConns: 4, MaxIdleConns: 2})
	})
	return c.db, c.dbErr
}

// searchIndex returns the search service board writes are mirrored to. Without
// a Meilisearch URL it indexes nothing.
func (c *commandContext) searchIndex() *search.Service {
	c.searchOnce.Do(func() {
		if strings.TrimSpace(c.config.MeiliURL) != "" {
			c.meili = search.NewMeili(c.config.MeiliURL, c.config.MeiliMasterKey, c.logger)
		}
		c.search = search.NewService(c.meili, nil, c.logger)
	})
	return c.search
}

func (c *commandContext) close() {
	if c.search != nil {
		c.search.Wait()
	}
	if c.meili != nil {
		c.meili.Close()
	}
	if c.db != nil {
		_ = c.db.Close()
	}
}

// boardFor resolves the user by email and returns a loaded controller for
// their board, built on the same indexed adapter the API uses.
func (c *commandContext) boardFor(ctx context.Context, email string) (*board.Controller, store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, store.User{}, errors.New("--email is required")
	}
	db, err := c.database(ctx)
	if err != nil {
		return nil, store.User{}, err
	}
	dataStore := store.NewPostgresStore(db)
	user, err := dataStore.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.User{}, fmt.Errorf("no user with email %s", email)
		}
		return nil, store.User{}, err
	}
	adapter := search.NewIndexedAdapter(dataStore.Jobs(), c.searchIndex())
	ctrl, err := board.New(board.Session{OwnerID: user.ID, UserName: user.DisplayName()}, adapter, board.WithLogger(c.logger))
	if err != nil {
		return nil, store.User{}, err
	}
	if err := ctrl.Load(ctx); err != nil {
		return nil, store.User{}, err
	}
	return ctrl, user, nil
}
