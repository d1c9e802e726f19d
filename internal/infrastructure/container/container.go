package container

import (
	"context"
	"fmt"
	"time"

	"github.com/gdugdh24/mpit2026-discovery/internal/config"
	"github.com/gdugdh24/mpit2026-discovery/internal/delivery/http"
	"github.com/gdugdh24/mpit2026-discovery/internal/delivery/http/handler"
	"github.com/gdugdh24/mpit2026-discovery/internal/delivery/http/middleware"
	"github.com/gdugdh24/mpit2026-discovery/internal/geo"
	"github.com/gdugdh24/mpit2026-discovery/internal/infrastructure/database"
	"github.com/gdugdh24/mpit2026-discovery/internal/infrastructure/events"
	"github.com/gdugdh24/mpit2026-discovery/internal/infrastructure/gemini"
	"github.com/gdugdh24/mpit2026-discovery/internal/infrastructure/openai"
	"github.com/gdugdh24/mpit2026-discovery/internal/infrastructure/server"
	"github.com/gdugdh24/mpit2026-discovery/internal/logging"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository/memory"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository/postgres"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository/redisstore"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/auth"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/chat"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/compatibility"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/discovery"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/entitlement"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/feed"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/iris"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/profile"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/swipe"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/usage"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const janitorInterval = time.Minute

// repositories groups one storage backend's implementations.
type repositories struct {
	profiles      repository.ProfileRepository
	photos        repository.PhotoRepository
	blocks        repository.BlockRepository
	swipes        repository.SwipeRepository
	matches       repository.MatchRepository
	openers       repository.OpenerRepository
	usage         repository.UsageRepository
	subscriptions repository.SubscriptionRepository
}

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Log       logging.Logger
	DB        *sqlx.DB
	Redis     *redis.Client
	Memory    *memory.Store
	Server    *server.Server
	Discovery *discovery.Service
	Registry  *discovery.Registry

	closers []func() error
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config, log logging.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: log}

	repos, err := c.initStorage(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	if cfg.RedisEnabled() {
		redisClient, err := database.NewRedisClient(&cfg.Redis)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		c.Redis = redisClient
		c.closers = append(c.closers, redisClient.Close)
	}

	if cfg.Storage.UsageStore == config.StorageTypeRedis {
		repos.usage = redisstore.NewUsageRepository(c.Redis)
	}

	var notifier swipe.MatchNotifier = swipe.LogNotifier{Log: log}
	if cfg.Discovery.PublishMatches {
		notifier = events.NewRedisNotifier(c.Redis, cfg.Discovery.MatchesChannel)
	}

	ai := c.initAI(ctx)

	// Initialize use cases
	gate := entitlement.NewGate(usage.NewLedger(repos.usage), repos.subscriptions, log)
	pool := feed.NewCandidatePool(repos.profiles, repos.photos, repos.swipes, repos.blocks, cfg.Discovery.QueueSize, log)
	scorer := compatibility.NewScorer(ai, cfg.AI.Timeout, log)
	processor := swipe.NewProcessor(repos.swipes, repos.matches, repos.profiles, notifier, log)
	locator := geo.NewLocator(repos.profiles, cfg.Discovery.GeoTimeout, cfg.Discovery.GeoMaxAge, log)
	c.Registry = discovery.NewRegistry(cfg.Discovery.SessionTTL, log)
	c.Discovery = discovery.NewService(c.Registry, pool, scorer, processor, gate, locator, repos.profiles, log)
	chatUseCase := chat.NewChatUseCase(repos.profiles, repos.matches, repos.openers, gate, ai, log)
	irisUseCase := iris.NewIrisUseCase(repos.profiles, repos.blocks, gate, ai, log)
	profileUseCase := profile.NewProfileUseCase(repos.profiles, repos.photos)

	// Initialize router
	router := http.NewRouter(
		handler.NewDiscoveryHandler(c.Discovery, chatUseCase),
		handler.NewMatchHandler(processor, chatUseCase),
		handler.NewIrisHandler(irisUseCase),
		handler.NewUsageHandler(gate),
		handler.NewProfileHandler(profileUseCase),
		middleware.NewAuthMiddleware(auth.NewTokenService(cfg.JWT.AccessSecret)),
		log,
	)

	ginRouter, err := router.Setup()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	c.Server = server.NewServer(&cfg.Server, ginRouter, log)
	return c, nil
}

func (c *Container) initStorage(ctx context.Context) (*repositories, error) {
	if c.Config.Storage.Type == config.StorageTypeMemory {
		store := memory.NewStore()
		c.Memory = store
		c.Log.Warn(ctx, "using in-memory storage, data is lost on restart")
		return &repositories{
			profiles:      store.Profiles(),
			photos:        store.Photos(),
			blocks:        store.Blocks(),
			swipes:        store.Swipes(),
			matches:       store.Matches(),
			openers:       store.Openers(),
			usage:         store.Usage(),
			subscriptions: store.Subscriptions(),
		}, nil
	}

	db, err := database.NewPostgresDB(&c.Config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db
	c.closers = append(c.closers, db.Close)

	if c.Config.Database.MigrateOnStart {
		if err := database.Migrate(ctx, db.DB); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		c.Log.Info(ctx, "database migrations applied")
	}

	return &repositories{
		profiles:      postgres.NewProfileRepository(db),
		photos:        postgres.NewPhotoRepository(db),
		blocks:        postgres.NewBlockRepository(db),
		swipes:        postgres.NewSwipeRepository(db),
		matches:       postgres.NewMatchRepository(db),
		openers:       postgres.NewOpenerRepository(db),
		usage:         postgres.NewUsageRepository(db),
		subscriptions: postgres.NewSubscriptionRepository(db),
	}, nil
}

// initAI returns nil when the provider cannot be built; scoring then degrades
// to unscored cards and AI-gated actions report ErrScoringUnavailable.
func (c *Container) initAI(ctx context.Context) compatibility.TextGenerator {
	cfg := c.Config.AI
	switch cfg.Provider {
	case config.AIProviderOpenAI:
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		if err != nil {
			c.Log.Warn(ctx, "openai client unavailable, AI features disabled", "error", err)
			return nil
		}
		return client
	default:
		client, err := gemini.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			c.Log.Warn(ctx, "gemini client unavailable, AI features disabled", "error", err)
			return nil
		}
		c.closers = append(c.closers, client.Close)
		return client
	}
}

// RunBackground starts the session janitor; it stops when ctx is done.
func (c *Container) RunBackground(ctx context.Context) {
	go c.Registry.Run(ctx, janitorInterval)
}

// Close waits for in-flight scoring and closes all connections
func (c *Container) Close() error {
	if c.Discovery != nil {
		c.Discovery.WaitScoring()
	}

	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Log.Error(context.Background(), "failed to close resource", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	c.closers = nil
	return firstErr
}
