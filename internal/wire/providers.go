// Package wire 提供依赖注入配置
package wire

import (
	"context"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/google/wire"

	"z-novel-assistant/internal/application/chat"
	"z-novel-assistant/internal/application/page"
	"z-novel-assistant/internal/application/quota"
	"z-novel-assistant/internal/application/retrieval"
	"z-novel-assistant/internal/application/story/chapter"
	"z-novel-assistant/internal/config"
	"z-novel-assistant/internal/domain/repository"
	infraembedding "z-novel-assistant/internal/infrastructure/embedding"
	"z-novel-assistant/internal/infrastructure/llm"
	"z-novel-assistant/internal/infrastructure/persistence/milvus"
	"z-novel-assistant/internal/infrastructure/persistence/postgres"
	"z-novel-assistant/internal/infrastructure/persistence/redis"
	"z-novel-assistant/internal/interfaces/http/handler"
	"z-novel-assistant/internal/interfaces/http/middleware"
	"z-novel-assistant/internal/interfaces/http/router"
	"z-novel-assistant/internal/workflow/port"
	"z-novel-assistant/internal/workflow/prompt"
	"z-novel-assistant/pkg/logger"
	"z-novel-assistant/pkg/utils"
)

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewChapterRepository,
	postgres.NewPageRepository,
	postgres.NewPageQuotaRepository,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.ChapterRepository), new(*postgres.ChapterRepository)),
	wire.Bind(new(repository.PageRepository), new(*postgres.PageRepository)),
	wire.Bind(new(repository.PageQuotaRepository), new(*postgres.PageQuotaRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	ProvideBookRepository,
	wire.Bind(new(quota.Limiter), new(*redis.RateLimiter)),
)

// VectorSet 可选 Milvus 与 Embedder（不可用时禁用检索/索引，不阻塞启动）
var VectorSet = wire.NewSet(
	ProvideMilvusClientOptional,
	ProvideVectorRepositoryOptional,
	ProvideEmbedderOptional,
)

// AssistantSet 生成流水线
var AssistantSet = wire.NewSet(
	llm.NewEinoFactory,
	wire.Bind(new(port.ChatModelFactory), new(*llm.EinoFactory)),
	ProvideTextGenerator,
	prompt.NewRegistry,
	ProvideReranker,
	ProvideRetrievalEngine,
	ProvideRetrievalIndexer,
	ProvideUsageLedger,
	ProvidePageQuota,
	ProvidePersister,
	ProvideChatService,
	ProvideChapterWriter,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideJWTManager,
	wire.Bind(new(middleware.TokenVerifier), new(*utils.JWTManager)),
	ProvideAssistantHandler,
	ProvideHealthHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideBookRepository 书籍读取走 Redis 读穿缓存
func ProvideBookRepository(pg *postgres.Client, cache *redis.Cache) repository.BookRepository {
	return redis.NewCachedBookRepository(postgres.NewBookRepository(pg), cache)
}

// ProvideMilvusClientOptional Milvus 未启用或不可达时返回 nil
func ProvideMilvusClientOptional(ctx context.Context, cfg *config.Config) (*milvus.Client, func(), error) {
	if !cfg.Vector.Milvus.Enabled {
		return nil, func() {}, nil
	}
	client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Warn(ctx, "milvus not available, vector features disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideVectorRepositoryOptional 返回 nil 接口而非包着 nil 指针的接口
func ProvideVectorRepositoryOptional(ctx context.Context, client *milvus.Client, cfg *config.Config) retrieval.VectorRepository {
	if client == nil {
		return nil
	}
	repo := milvus.NewRepository(client, cfg.Embedding.Dimension)
	if err := repo.EnsureCollection(ctx); err != nil {
		logger.Warn(ctx, "milvus collection not ready, will retry on first write", "error", err.Error())
	}
	return repo
}

// ProvideEmbedderOptional Embedder 不可用时返回 nil
func ProvideEmbedderOptional(ctx context.Context, cfg *config.Config) einoembedding.Embedder {
	embedder, err := infraembedding.NewEinoEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		logger.Warn(ctx, "embedding not available, vector features disabled", "error", err.Error())
		return nil
	}
	return embedder
}

// ProvideTextGenerator 默认 provider 的文本生成
func ProvideTextGenerator(factory port.ChatModelFactory, cfg *config.Config) port.TextGenerator {
	return llm.NewTextGenerator(factory, cfg.LLM.DefaultProvider)
}

func ProvideReranker(gen port.TextGenerator, prompts *prompt.Registry, cfg *config.Config) *retrieval.Reranker {
	return retrieval.NewReranker(gen, prompts, cfg.Assistant.Rerank.Concurrency)
}

func ProvideRetrievalEngine(embedder einoembedding.Embedder, vectorRepo retrieval.VectorRepository, reranker *retrieval.Reranker, cfg *config.Config) *retrieval.Engine {
	return retrieval.NewEngine(embedder, vectorRepo, reranker, cfg.Assistant.Rerank.TopK)
}

func ProvideRetrievalIndexer(embedder einoembedding.Embedder, vectorRepo retrieval.VectorRepository, cfg *config.Config) *retrieval.Indexer {
	return retrieval.NewIndexer(embedder, vectorRepo, cfg.Embedding.BatchSize, cfg.Assistant.Page.ChunkSizeRunes)
}

func ProvideUsageLedger(limiter quota.Limiter, cfg *config.Config) *quota.UsageLedger {
	return quota.NewUsageLedger(limiter, cfg.Assistant.Usage.Limit, cfg.Assistant.Usage.Window)
}

func ProvidePageQuota(tx repository.Transactor, repo repository.PageQuotaRepository, cfg *config.Config) *quota.PageQuota {
	return quota.NewPageQuota(tx, repo, cfg.Assistant.Page.DefaultQuota)
}

func ProvidePersister(pages repository.PageRepository, pq *quota.PageQuota, indexer *retrieval.Indexer, cfg *config.Config) *page.Persister {
	return page.NewPersister(pages, pq, indexer, cfg.Assistant.Page.MaxPerChapter)
}

func ProvideChatService(gen port.TextGenerator, engine *retrieval.Engine, prompts *prompt.Registry, cfg *config.Config) *chat.Service {
	return chat.NewService(gen, engine, prompts, cfg.Assistant.Classifier.AnswerChars)
}

func ProvideChapterWriter(
	gen port.TextGenerator,
	prompts *prompt.Registry,
	books repository.BookRepository,
	chapters repository.ChapterRepository,
	persister *page.Persister,
	cfg *config.Config,
) *chapter.Writer {
	return chapter.NewWriter(gen, prompts, books, chapters, persister, cfg.Assistant.Chapter.MaxOutlinePages)
}

// ProvideJWTManager 提供身份断言校验器
func ProvideJWTManager(cfg *config.Config) *utils.JWTManager {
	return utils.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer)
}

func ProvideAssistantHandler(ledger *quota.UsageLedger, chatSvc *chat.Service, writer *chapter.Writer) *handler.AssistantHandler {
	return handler.NewAssistantHandler(ledger, chatSvc, writer)
}

// ProvideHealthHandler Postgres 与 Redis 为必需依赖，Milvus 可选
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, rdb *redis.Client, mv *milvus.Client) *handler.HealthHandler {
	deps := []handler.Dependency{
		{Name: "postgres", Checker: pg},
		{Name: "redis", Checker: rdb},
	}
	vector := handler.Dependency{Name: "milvus", Optional: true}
	if mv != nil {
		vector.Checker = mv
	}
	return handler.NewHealthHandler(cfg.App.Version, append(deps, vector)...)
}
