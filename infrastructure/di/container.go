// Package di assembles the engine's dependency graph.
package di

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"meetmap-backend/application/commands"
	"meetmap-backend/application/ports"
	"meetmap-backend/application/queries"
	"meetmap-backend/application/services"
	"meetmap-backend/infrastructure/ai"
	"meetmap-backend/infrastructure/config"
	"meetmap-backend/infrastructure/locking"
	"meetmap-backend/infrastructure/persistence/dynamodb"
	"meetmap-backend/infrastructure/persistence/memory"
	"meetmap-backend/pkg/observability"
)

// Container holds the wired application components.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Collector

	GraphStore   ports.GraphStore
	ClusterStore ports.ClusterStore

	ProcessChunk *commands.ProcessChunkHandler
	ResetMeeting *commands.ResetMeetingHandler
	GraphData    *queries.GetGraphDataHandler
	QueryEngine  *services.QueryEngine

	tuningWatcher *config.TuningWatcher
}

// InitializeContainer builds every component from configuration.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	var metrics *observability.Collector
	if cfg.EnableMetrics {
		metrics = observability.NewCollector("meetmap")
	}

	graphStore, clusterStore, err := newStores(ctx, cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	client := ai.NewClient(ai.ClientConfig{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		EmbeddingModel: cfg.EmbeddingModel,
		ChatModel:      cfg.ChatModel,
		EmbeddingDim:   cfg.EmbeddingDim,
	})
	embedder := ai.NewEmbedder(client, cfg.EmbeddingModel, cfg.EmbeddingDim, logger)
	extractor := ai.NewIdeaExtractor(client, cfg.ChatModel, logger)
	oracle := ai.NewPlacementOracle(client, cfg.ChatModel, logger)

	search := services.NewSimilaritySearch(graphStore)
	placement := services.NewPlacementEngine(graphStore, search, oracle, cfg.TopKCandidates, logger, metrics)
	placement.SetPlacementThreshold(cfg.PlacementThreshold)
	placement.SetCandidateFilter(cfg.PlacementFilter)
	assigner := services.NewClusterAssigner(graphStore, clusterStore, cfg.ClusterThreshold, logger, metrics)

	locker := locking.NewTenantLocker()

	c := &Container{
		Config:       cfg,
		Logger:       logger,
		Metrics:      metrics,
		GraphStore:   graphStore,
		ClusterStore: clusterStore,
		ProcessChunk: commands.NewProcessChunkHandler(locker, graphStore, embedder, extractor, placement, assigner, logger, metrics),
		ResetMeeting: commands.NewResetMeetingHandler(locker, graphStore, logger),
		GraphData:    queries.NewGetGraphDataHandler(graphStore, clusterStore, logger),
		QueryEngine:  services.NewQueryEngine(graphStore),
	}

	if cfg.TuningFile != "" {
		watcher, err := config.NewTuningWatcher(cfg.TuningFile, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to start tuning watcher: %w", err)
		}
		watcher.OnChange(func(t config.Tuning) {
			assigner.SetThreshold(t.ClusterThreshold)
			placement.SetTopK(t.TopKCandidates)
			placement.SetPlacementThreshold(t.PlacementThreshold)
		})
		watcher.Start()
		c.tuningWatcher = watcher

		initial := watcher.Current()
		assigner.SetThreshold(initial.ClusterThreshold)
		placement.SetTopK(initial.TopKCandidates)
		placement.SetPlacementThreshold(initial.PlacementThreshold)
	}

	return c, nil
}

// Shutdown releases background resources.
func (c *Container) Shutdown() {
	if c.tuningWatcher != nil {
		c.tuningWatcher.Stop()
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = level

	return zapCfg.Build()
}

func newStores(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) (ports.GraphStore, ports.ClusterStore, error) {
	switch cfg.StorageBackend {
	case "dynamodb":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		store := dynamodb.NewStore(awsdynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable, cfg.EmbeddingDim, logger, metrics)
		logger.Info("using DynamoDB storage",
			zap.String("table", cfg.DynamoDBTable),
			zap.String("region", cfg.AWSRegion),
		)
		return store, store, nil

	case "memory":
		store := memory.NewStore(cfg.EmbeddingDim)
		logger.Warn("using in-memory storage, state is lost on restart")
		return store, store, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
