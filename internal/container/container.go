// Package container wires every adapter and domain component into a single
// dig.Container, generalizing the teacher's BuildContainer into this
// module's much smaller operational surface: one ingestion pipeline, one
// retriever, one quality engine, one lifecycle manager, one escalation
// manager and one chat orchestrator, instead of a multi-tenant SaaS's
// repository/service/handler layers.
package container

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/neo4j/neo4j-go-driver/v6/neo4j"
	"github.com/panjf2000/ants/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/beacon-labs/wikimind/internal/analyticsstore"
	"github.com/beacon-labs/wikimind/internal/chatsurface"
	"github.com/beacon-labs/wikimind/internal/commands"
	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/escalation"
	graphmemory "github.com/beacon-labs/wikimind/internal/graphstore/memory"
	graphneo4j "github.com/beacon-labs/wikimind/internal/graphstore/neo4j"
	"github.com/beacon-labs/wikimind/internal/handler"
	"github.com/beacon-labs/wikimind/internal/ingestion"
	"github.com/beacon-labs/wikimind/internal/lifecycle"
	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/models/embedding"
	"github.com/beacon-labs/wikimind/internal/models/llm"
	"github.com/beacon-labs/wikimind/internal/models/utils/ollama"
	"github.com/beacon-labs/wikimind/internal/orchestrator"
	pagelocal "github.com/beacon-labs/wikimind/internal/pagestore/local"
	pageminio "github.com/beacon-labs/wikimind/internal/pagestore/minio"
	"github.com/beacon-labs/wikimind/internal/quality"
	"github.com/beacon-labs/wikimind/internal/retriever"
	"github.com/beacon-labs/wikimind/internal/retriever/lexical"
	"github.com/beacon-labs/wikimind/internal/router"
	"github.com/beacon-labs/wikimind/internal/scheduler"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
	"github.com/beacon-labs/wikimind/internal/wikisource"
)

// BuildContainer registers every adapter and domain component against the
// shared dig container (spec §6 "Components and wiring").
func BuildContainer(container *dig.Container) *dig.Container {
	must(container.Provide(NewResourceCleaner, dig.As(new(interfaces.ResourceCleaner))))

	must(container.Provide(config.LoadConfig))

	// Storage and shared-state adapters.
	must(container.Provide(initRedisClient))
	must(container.Provide(initGraphStore))
	must(container.Provide(initDatabase))
	must(container.Provide(initAnalyticsStore))
	must(container.Provide(initArchiveStore))
	must(container.Provide(initAntsPool))
	must(container.Invoke(registerPoolCleanup))

	// Model providers. internal/models/{llm,embedding} reach back into this
	// same container via runtime.GetContainer() for the pooled embedder and
	// the shared Ollama client, the way the teacher's factories do.
	must(container.Provide(ollama.GetOllamaService))
	must(container.Provide(embedding.NewPool))
	must(container.Provide(initLLM))
	must(container.Provide(initEmbedder))

	// Wiki ingestion.
	must(container.Provide(initWikiSource))
	must(container.Provide(initIngestionPipeline))

	// Hybrid retrieval.
	must(container.Provide(initRetrieverRegistry))
	must(container.Provide(initRetriever))

	// Quality scoring, lifecycle management, escalation, and the answer
	// orchestrator that ties them together behind the chat surface.
	must(container.Provide(initQualityEngine))
	must(container.Provide(initLifecycleManager))
	must(container.Provide(chatsurface.NewLoopback, dig.As(new(interfaces.ChatSurface))))
	must(container.Provide(initEscalationManager, dig.As(new(orchestrator.Escalator))))
	must(container.Provide(initOrchestrator))

	// Background scheduler: hourly sync, daily quality recompute, daily
	// archival (spec §9 "Scheduled maintenance"), plus the chat command
	// grammar's background tasks (spec §6 create-knowledge/create-doc/
	// ingest-doc).
	must(container.Provide(initScheduler))
	must(container.Provide(commands.New))
	must(container.Invoke(registerScheduledJobs))
	must(container.Invoke(registerCommandTasks))

	// Operational HTTP surface (spec §1: health + manual triggers only).
	must(container.Provide(handler.NewSystemHandler))
	must(container.Provide(handler.NewOperationsHandler))
	must(container.Provide(router.NewRouter))

	return container
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// initRedisClient connects the shared Redis instance backing the asynq
// queue, the wiki rate limiter and the ingestion circuit breakers (spec's
// DOMAIN STACK). Returns nil when unconfigured so every dependent adapter
// falls back to its process-local behavior.
func initRedisClient(cfg *config.Config, cleaner interfaces.ResourceCleaner) (*redis.Client, error) {
	if cfg.Store.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Store.RedisAddr,
		Password: cfg.Store.RedisPassword,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	cleaner.RegisterWithName("RedisClient", client.Close)
	return client, nil
}

// initGraphStore selects the GraphStore adapter per StoreConfig.GraphDriver,
// mirroring the teacher's NEO4J_ENABLE-gated initNeo4jClient.
func initGraphStore(cfg *config.Config, cleaner interfaces.ResourceCleaner) (interfaces.GraphStore, error) {
	switch strings.ToLower(cfg.Store.GraphDriver) {
	case "memory":
		return graphmemory.New(), nil
	case "neo4j", "":
		driver, err := neo4j.NewDriver(cfg.Store.Neo4jURI, neo4j.BasicAuth(cfg.Store.Neo4jUser, cfg.Store.Neo4jPassword, ""))
		if err != nil {
			return nil, fmt.Errorf("build neo4j driver: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Store.StoreTimeout)
		defer cancel()
		if err := driver.VerifyAuthentication(ctx, nil); err != nil {
			return nil, fmt.Errorf("verify neo4j auth: %w", err)
		}
		cleaner.RegisterWithName("Neo4jDriver", func() error {
			return driver.Close(context.Background())
		})
		return graphneo4j.New(driver), nil
	default:
		return nil, fmt.Errorf("unsupported graph_driver %q", cfg.Store.GraphDriver)
	}
}

// initDatabase opens the Postgres connection backing AnalyticsStore,
// mirroring the teacher's initDatabase pool tuning.
func initDatabase(cfg *config.Config, cleaner interfaces.ResourceCleaner) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Store.PostgresDSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
	cleaner.RegisterWithName("PostgresDB", sqlDB.Close)
	return db, nil
}

func initAnalyticsStore(db *gorm.DB) (interfaces.AnalyticsStore, error) {
	store := analyticsstore.New(db)
	if err := store.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate analytics store: %w", err)
	}
	return store, nil
}

// initArchiveStore selects the ArchiveFile adapter per ArchiveConfig.Driver.
func initArchiveStore(cfg *config.Config) (interfaces.ArchiveFile, error) {
	switch strings.ToLower(cfg.Archive.Driver) {
	case "minio":
		return pageminio.New(context.Background(), cfg.Archive.MinioEndpoint,
			cfg.Archive.MinioAccessKey, cfg.Archive.MinioSecretKey,
			cfg.Archive.MinioBucket, cfg.Archive.MinioUseSSL)
	case "local", "":
		root := cfg.Archive.LocalRoot
		if root == "" {
			root = "./data/archive"
		}
		return pagelocal.New(root), nil
	default:
		return nil, fmt.Errorf("unsupported archive driver %q", cfg.Archive.Driver)
	}
}

// initAntsPool builds the goroutine pool that backs the embedder's batch
// calls; the ingestion pipeline builds its own pool (spec §4.2 "bounded
// concurrency").
func initAntsPool(cfg *config.Config) (*ants.Pool, error) {
	size := cfg.Ingestion.Concurrency
	if size <= 0 {
		size = 8
	}
	return ants.NewPool(size, ants.WithPreAlloc(true))
}

func registerPoolCleanup(pool *ants.Pool, cleaner interfaces.ResourceCleaner) {
	cleaner.RegisterWithName("AntsPool", func() error {
		pool.Release()
		return nil
	})
}

// modelByType finds the first configured model of the given type
// ("llm" | "embedder"), per spec §6 "Model provider contract".
func modelByType(cfg *config.Config, modelType string) (*config.ModelConfig, error) {
	for i := range cfg.Models {
		if strings.EqualFold(cfg.Models[i].Type, modelType) {
			return &cfg.Models[i], nil
		}
	}
	return nil, fmt.Errorf("no %s model configured", modelType)
}

func initLLM(cfg *config.Config) (interfaces.LLM, error) {
	m, err := modelByType(cfg, "llm")
	if err != nil {
		return nil, err
	}
	return llm.New(&llm.Config{
		Source:    llm.Source(m.Source),
		BaseURL:   m.BaseURL,
		ModelName: m.ModelName,
		APIKey:    m.APIKey,
	})
}

func initEmbedder(cfg *config.Config) (interfaces.Embedder, error) {
	m, err := modelByType(cfg, "embedder")
	if err != nil {
		return nil, err
	}
	return embedding.New(&embedding.Config{
		Source:     embedding.Source(m.Source),
		BaseURL:    m.BaseURL,
		ModelName:  m.ModelName,
		APIKey:     m.APIKey,
		Dimensions: m.Dimensions,
	})
}

func initWikiSource(cfg *config.Config, redisClient *redis.Client) interfaces.WikiSource {
	return wikisource.New("", "", cfg.Ingestion.WikiReqsPerSec, redisClient)
}

func initIngestionPipeline(
	cfg *config.Config,
	source interfaces.WikiSource,
	graph interfaces.GraphStore,
	analytics interfaces.AnalyticsStore,
	embedder interfaces.Embedder,
	redisClient *redis.Client,
	cleaner interfaces.ResourceCleaner,
) (*ingestion.Pipeline, error) {
	pipeline, err := ingestion.New(cfg.Ingestion, cfg.Chunker, source, graph, analytics, embedder, redisClient)
	if err != nil {
		return nil, err
	}
	cleaner.RegisterWithName("IngestionPool", func() error {
		pipeline.Release()
		return nil
	})
	return pipeline, nil
}

// initRetrieverRegistry builds the semantic engine unconditionally and adds
// the Elasticsearch lexical leg when configured (spec §4.4 hybrid search).
func initRetrieverRegistry(cfg *config.Config, graph interfaces.GraphStore, analytics interfaces.AnalyticsStore, embedder interfaces.Embedder, cleaner interfaces.ResourceCleaner) (*retriever.Registry, error) {
	registry := retriever.NewRegistry()
	if err := registry.Register(retriever.NewSemanticEngine(graph, analytics, embedder)); err != nil {
		return nil, fmt.Errorf("register semantic engine: %w", err)
	}

	if strings.EqualFold(cfg.Retriever.LexicalEngine, "elasticsearch") && cfg.Store.ElasticsearchURL != "" {
		client, err := elasticsearch.NewTypedClient(elasticsearch.Config{
			Addresses: []string{cfg.Store.ElasticsearchURL},
		})
		if err != nil {
			logger.Errorf(context.Background(), "build elasticsearch client: %v", err)
		} else {
			lexicalEngine := lexical.New(client, "")
			if err := registry.Register(lexicalEngine); err != nil {
				return nil, fmt.Errorf("register lexical engine: %w", err)
			}
			cleaner.RegisterWithName("LexicalTokenizer", func() error {
				lexicalEngine.Close()
				return nil
			})
		}
	}

	return registry, nil
}

func initRetriever(graph interfaces.GraphStore, registry *retriever.Registry, cfg *config.Config) *retriever.Retriever {
	return retriever.New(graph, registry, cfg.Retriever)
}

func initQualityEngine(graph interfaces.GraphStore, analytics interfaces.AnalyticsStore, cfg *config.Config) *quality.Engine {
	return quality.New(graph, analytics, cfg.Quality)
}

func initLifecycleManager(graph interfaces.GraphStore, analytics interfaces.AnalyticsStore, archive interfaces.ArchiveFile, cfg *config.Config) *lifecycle.Manager {
	return lifecycle.New(graph, analytics, archive, cfg.Lifecycle)
}

func initEscalationManager(graph interfaces.GraphStore, chat interfaces.ChatSurface, cfg *config.Config) *escalation.Manager {
	return escalation.New(graph, chat, cfg.Escalation)
}

func initOrchestrator(
	graph interfaces.GraphStore,
	analytics interfaces.AnalyticsStore,
	retr *retriever.Retriever,
	qualityEngine *quality.Engine,
	llmClient interfaces.LLM,
	chat interfaces.ChatSurface,
	escalator orchestrator.Escalator,
	cfg *config.Config,
) *orchestrator.Orchestrator {
	return orchestrator.New(graph, analytics, retr, qualityEngine, llmClient, chat, escalator, cfg.Orchestrator)
}

func initScheduler(cfg *config.Config, cleaner interfaces.ResourceCleaner) *scheduler.Scheduler {
	s := scheduler.New(cfg.Asynq)
	cleaner.RegisterWithName("Scheduler", func() error {
		s.Stop()
		return nil
	})
	return s
}

// registerScheduledJobs wires the three periodic maintenance jobs (hourly
// sync, daily quality recompute, daily archival) onto the scheduler
// (spec §9).
func registerScheduledJobs(
	s *scheduler.Scheduler,
	pipeline *ingestion.Pipeline,
	qualityEngine *quality.Engine,
	lifecycleManager *lifecycle.Manager,
	cfg *config.Config,
) error {
	if err := pipeline.RegisterSchedule(s, cfg.Ingestion); err != nil {
		return fmt.Errorf("register sync schedule: %w", err)
	}
	if err := qualityEngine.RegisterSchedule(s, cfg.Quality); err != nil {
		return fmt.Errorf("register quality recompute schedule: %w", err)
	}
	if err := lifecycleManager.RegisterSchedule(s, cfg.Lifecycle); err != nil {
		return fmt.Errorf("register archival schedule: %w", err)
	}
	return nil
}

// registerCommandTasks wires the chat command grammar's background tasks
// (spec §6 create-knowledge/create-doc/ingest-doc) onto the same scheduler.
func registerCommandTasks(s *scheduler.Scheduler, dispatcher *commands.Dispatcher) {
	dispatcher.RegisterTasks(s)
}
