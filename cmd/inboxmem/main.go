package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/inboxmem/inboxmem/internal/ai"
	"github.com/inboxmem/inboxmem/internal/config"
	"github.com/inboxmem/inboxmem/internal/db"
	"github.com/inboxmem/inboxmem/internal/embedcache"
	"github.com/inboxmem/inboxmem/internal/filestore"
	"github.com/inboxmem/inboxmem/internal/handler"
	"github.com/inboxmem/inboxmem/internal/job"
	"github.com/inboxmem/inboxmem/internal/kb"
	"github.com/inboxmem/inboxmem/internal/middleware"
	"github.com/inboxmem/inboxmem/internal/repo"
	"github.com/inboxmem/inboxmem/internal/schedule"
	"github.com/inboxmem/inboxmem/internal/service"
	"github.com/inboxmem/inboxmem/internal/task"
	"github.com/inboxmem/inboxmem/internal/vecstore"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "inboxmem",
		Short: "inboxmem email knowledge base server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run inboxmem server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("vector_store", cfg.Vector.Type),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	userRepo := repo.NewUserRepo(database)
	emailRepo := repo.NewEmailRepo(database)
	cacheRepo := repo.NewEmbeddingCacheRepo(database)

	providerArgs := cfg.AI.Data
	if providerArgs == nil {
		providerArgs = cfg.AI
	}
	specs := []ai.ProviderSpec{{
		Provider:   cfg.AI.Provider,
		Model:      cfg.AI.Model,
		EmbedModel: cfg.AI.EmbedModel,
		Args:       providerArgs,
	}}
	for _, fb := range cfg.AI.Fallbacks {
		specs = append(specs, ai.ProviderSpec{
			Provider:   fb.Provider,
			Model:      fb.Model,
			EmbedModel: fb.EmbedModel,
			Args:       fb.Data,
		})
	}
	generator, err := ai.NewGeneratorChain(specs)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	rawEmbedder, err := ai.NewEmbedderChain(specs)
	if err != nil {
		return fmt.Errorf("init embed provider: %w", err)
	}
	rawEmbedder = embedcache.WrapDBCacheToEmbedder(rawEmbedder, cacheRepo)
	rawEmbedder = embedcache.WrapLruCacheToEmbedder(rawEmbedder, cfg.AI.CacheSize, time.Duration(cfg.AI.CacheTTLMinutes)*time.Minute)
	embedder := kb.NewEmbedder(rawEmbedder, cfg.Vector.Dimensions)

	store, err := vecstore.New(cfg.Vector, database)
	if err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}
	defer func() { _ = store.Close() }()

	var archive filestore.Store
	if cfg.Archive.Type != "" {
		archive, err = filestore.New(cfg.Archive)
		if err != nil {
			return fmt.Errorf("init archive store: %w", err)
		}
	}

	chunker, err := kb.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("init chunker: %w", err)
	}
	classifier := kb.NewClassifier(generator, cfg.Ingest.ClassifyMaxChars)
	qaAgent := kb.NewQAAgent(generator)

	ingestService := service.NewIngestService(emailRepo, chunker, embedder, store)
	answerService := service.NewAnswerService(embedder, store, qaAgent, cfg.Ingest.TopK)
	dispatcher, err := task.NewDispatcher(cfg.Ingest.Workers, func(ctx context.Context, t task.Task) error {
		return ingestService.Ingest(ctx, t.TenantID, t.EmailRefID)
	})
	if err != nil {
		return fmt.Errorf("init dispatcher: %w", err)
	}
	mailSender := service.NewEmailSender(cfg.Mail)
	inboundService := service.NewInboundService(userRepo, emailRepo, classifier, answerService, dispatcher, mailSender, archive)

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewIngestRetryJob(emailRepo, dispatcher, cfg.Ingest.RetryDelaySeconds), cfg.Ingest.RetrySpec); err != nil {
		return fmt.Errorf("schedule retry job: %w", err)
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.AI.CacheMaxAgeDays), "30 3 * * *"); err != nil {
		return fmt.Errorf("schedule cache cleanup job: %w", err)
	}

	deps := handler.RouterDeps{
		Webhook:   handler.NewWebhookHandler(inboundService),
		KB:        handler.NewKBHandler(answerService, ingestService, emailRepo, archive),
		JWTSecret: []byte(cfg.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	scheduler.Stop()
	dispatcher.Close()
	return nil
}
