package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhomen368/overseerr-mcp/internal/batch"
	"github.com/jhomen368/overseerr-mcp/internal/cache"
	"github.com/jhomen368/overseerr-mcp/internal/catalog"
	"github.com/jhomen368/overseerr-mcp/internal/config"
	"github.com/jhomen368/overseerr-mcp/internal/dedupe"
	"github.com/jhomen368/overseerr-mcp/internal/details"
	"github.com/jhomen368/overseerr-mcp/internal/logger"
	"github.com/jhomen368/overseerr-mcp/internal/media"
	"github.com/jhomen368/overseerr-mcp/internal/overseerr"
	"github.com/jhomen368/overseerr-mcp/internal/requests"
)

// commandContext carries flag values and lazily built services shared by
// every subcommand.
type commandContext struct {
	configPath string
	output     string
	logLevel   string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	// client replaces the Overseerr client when set.
	client media.Client

	servicesOnce sync.Once
	services     *services
	servicesErr  error
}

type services struct {
	log      *logger.Logger
	client   media.Client
	upstream *overseerr.Client
	cache    *cache.Cache
	catalog  *catalog.Catalog
	policy   batch.Policy
	requests *requests.Service
	details  *details.Service
	dedupe   *dedupe.Service
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevel != "" {
			cfg.Logging.Level = c.logLevel
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureServices builds the service graph. extra writers receive the JSON
// log stream.
func (c *commandContext) ensureServices(extra ...io.Writer) (*services, error) {
	c.servicesOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.servicesErr = err
			return
		}
		c.services, c.servicesErr = c.buildServices(cfg, extra...)
	})
	return c.services, c.servicesErr
}

func (c *commandContext) buildServices(cfg *config.Config, extra ...io.Writer) (*services, error) {
	log := logger.New(cfg.Logging, extra...)

	s := &services{log: log, client: c.client}
	if s.client == nil {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%w (set OVERSEERR_URL and OVERSEERR_API_KEY or use --config)", err)
		}
		s.upstream = overseerr.NewClient(cfg.Overseerr, log.Logger)
		s.client = s.upstream
	}

	s.cache = cache.New(cacheConfig(cfg.Cache), cache.WithLogger(log.WithComponent("cache")))
	s.catalog = catalog.New(s.client, s.cache, log.Logger)
	s.policy = retryPolicy(cfg.Retry, log.WithComponent("retry"))

	s.requests = requests.NewService(s.catalog, s.policy, requests.Config{
		ConfirmEpisodeThreshold: cfg.Requests.ConfirmEpisodeThreshold,
		DefaultLanguage:         cfg.Requests.DefaultLanguage,
	}, log.Logger)
	s.details = details.NewService(s.catalog, s.policy, cfg.Requests.DefaultLanguage, log.Logger)
	s.dedupe = dedupe.NewService(s.catalog, s.requests, s.policy, cfg.Requests.DefaultLanguage, log.Logger)
	return s, nil
}

func cacheConfig(cfg config.CacheConfig) cache.Config {
	out := cache.DefaultConfig()
	out.Enabled = cfg.Enabled
	if cfg.MaxSize > 0 {
		out.MaxSize = cfg.MaxSize
	}
	for cat, ttl := range map[cache.Category]time.Duration{
		cache.CategorySearch:       cfg.SearchTTL,
		cache.CategoryMediaDetails: cfg.MediaTTL,
		cache.CategoryRequests:     cfg.RequestsTTL,
	} {
		if ttl > 0 {
			out.TTL[cat] = ttl
		}
	}
	return out
}

func retryPolicy(cfg config.RetryConfig, log zerolog.Logger) batch.Policy {
	p := batch.DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if backoff := cfg.Backoff(); len(backoff) > 0 {
		p.Backoff = backoff
	}
	p.Logger = log
	return p
}

func (c *commandContext) close() {
	if c.services != nil {
		_ = c.services.log.Close()
	}
}
