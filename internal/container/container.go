package container

import (
	"context"
	"sync"

	"optionsync/internal/config"
	"optionsync/internal/domain"
	"optionsync/internal/realtime"
	"optionsync/internal/repository"
	"optionsync/internal/service"
	"optionsync/pkg/logger"
	"optionsync/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	RedisClient *redis.Client
	Hub         *realtime.Hub
	Repos       repository.Repositories
	Guard       service.FinalizeGuard

	mu       sync.Mutex
	sessions map[string]*service.PostSession
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *logger.Logger) (*Container, error) {
	// Initialize Redis client if Redis URL is configured
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Named("redis").Logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Redis client, proceeding without realtime updates")
		} else {
			redisClient = client
			logger.Info("Redis client initialized successfully")
		}
	} else {
		logger.Info("Redis URL not configured, proceeding without realtime updates")
	}

	var (
		transport realtime.Transport
		guard     service.FinalizeGuard
	)
	if redisClient != nil {
		transport = realtime.NewRedisTransport(redisClient)
		guard = service.NewRedisFinalizeGuard(redisClient, cfg.FinalizeGuardTTL, logger.Named("payments").Logger)
	} else {
		guard = service.NewMemoryFinalizeGuard()
	}

	api := repository.NewAPIClient(cfg.APIBaseURL, cfg.AccessToken, cfg.RequestTimeout, logger.Named("api"))

	return &Container{
		Config:      cfg,
		Logger:      logger,
		RedisClient: redisClient,
		Hub:         realtime.NewHub(transport, logger),
		Repos:       repository.Repositories{Options: api, Votes: api},
		Guard:       guard,
		sessions:    make(map[string]*service.PostSession),
	}, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// SessionConfig returns the per-post settings derived from configuration
func (c *Container) SessionConfig() service.PostSessionConfig {
	return service.PostSessionConfig{
		PageSize:           c.Config.PageSize,
		ValidationDebounce: c.Config.ValidationDebounce,
		Payment: service.VoteOrchestratorConfig{
			SignupPayURL:  c.Config.SignupPayURL,
			ReturnBaseURL: c.Config.ReturnBaseURL,
			FeeBps:        c.Config.CardFeeBps,
		},
	}
}

// OpenSession mounts postUUID for viewer and registers the session so the
// payment return server can find it. A session already open for the same
// post is closed.
func (c *Container) OpenSession(ctx context.Context, postUUID string, viewer domain.Viewer, bundles service.BundleBalanceProvider, navigator service.Navigator) (*service.PostSession, error) {
	session, err := service.OpenPostSession(ctx, postUUID, viewer, c.SessionConfig(), service.PostSessionDeps{
		Repos:     c.Repos,
		Hub:       c.Hub,
		Guard:     c.Guard,
		Bundles:   bundles,
		Navigator: navigator,
		Logger:    c.Logger.Named("session").Logger,
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	previous := c.sessions[postUUID]
	c.sessions[postUUID] = session
	c.mu.Unlock()

	if previous != nil {
		previous.Close()
	}
	return session, nil
}

// Session returns the open session of postUUID
func (c *Container) Session(postUUID string) (*service.PostSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[postUUID]
	return s, ok
}

// CloseSession closes and forgets the session of postUUID
func (c *Container) CloseSession(postUUID string) {
	c.mu.Lock()
	s, ok := c.sessions[postUUID]
	delete(c.sessions, postUUID)
	c.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Close closes every session, the realtime subscriptions and the Redis
// connection
func (c *Container) Close() error {
	c.mu.Lock()
	sessions := c.sessions
	c.sessions = make(map[string]*service.PostSession)
	c.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}

	c.Hub.Close()
	if c.RedisClient != nil {
		return c.RedisClient.Close()
	}
	return nil
}
