package server

import (
	"codejudge/configs"
	"codejudge/internal/cache"
	"codejudge/internal/dbs"
	"codejudge/internal/handlers"
	"codejudge/internal/logger"
	"codejudge/internal/metrics"
	"codejudge/internal/middlewares"
	"codejudge/internal/repositories"
	"codejudge/internal/services"
	"codejudge/internal/workerpool"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

// Handlers groups everything the router mounts.
type Handlers struct {
	Submissions *handlers.SubmissionHandler
	Problems    *handlers.ProblemHandler
	Users       *handlers.UserHandler
	Tokens      middlewares.TokenValidator
	Metrics     *metrics.Metrics
}

func NewRouter(h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(middlewares.RequestLogger(), middlewares.ErrorHandlerMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	auth := middlewares.AuthMiddleware(h.Tokens)
	optionalAuth := middlewares.OptionalAuthMiddleware(h.Tokens)
	h.Problems.RegisterRoutes(router)
	h.Submissions.RegisterRoutes(router, auth, optionalAuth)
	h.Users.RegisterRoutes(router, auth)

	return router
}

// Run wires storage, the judging pipeline and the rejudge pool, then serves
// HTTP until ctx is cancelled.
func Run(ctx context.Context, cfg *configs.Config) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	db, err := dbs.Init(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	rdb, err := dbs.InitRedis(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer rdb.Close()

	m := metrics.New()

	problemRepo := repositories.NewProblemRepository(db, cache.NewRedisCache(rdb, "codejudge"), cfg.CacheTTL)
	submissionRepo := repositories.NewSubmissionRepository(db)
	userRepo := repositories.NewUserRepository(db)

	engine := services.NewJudge0Client(services.Judge0Config{
		BaseURL:     cfg.EngineURL,
		AuthToken:   cfg.EngineAuthToken,
		RapidAPIKey: cfg.EngineRapidAPIKey,
		RapidHost:   cfg.EngineRapidHost,
		Timeout:     cfg.EngineHTTPTimeout,
	})
	judge := services.NewJudgeService(
		problemRepo,
		services.NewBatchDispatcher(engine, m),
		services.NewResultPoller(engine, cfg.PollInterval, cfg.PollMaxAttempts, m),
		services.NewSubmissionLifecycle(submissionRepo, userRepo),
		m,
	)

	pool := workerpool.NewRejudgePool(rdb, workerpool.PoolConfig{
		Stream:  cfg.JudgeStream,
		Group:   cfg.JudgeGroup,
		Workers: cfg.NumberOfWorkers,
	}, func(ctx context.Context, submissionID int64) error {
		_, err := judge.RejudgeSubmission(ctx, submissionID)
		return err
	})
	if err := pool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}
	defer pool.Stop()

	router := NewRouter(Handlers{
		Submissions: handlers.NewSubmissionHandler(judge, submissionRepo, pool),
		Problems:    handlers.NewProblemHandler(problemRepo, services.SupportedLanguages),
		Users:       handlers.NewUserHandler(userRepo),
		Tokens:      services.NewTokenService(cfg.JWTSecret),
		Metrics:     m,
	})

	// judging a submission polls for up to PollInterval*PollMaxAttempts
	writeTimeout := cfg.PollInterval*time.Duration(cfg.PollMaxAttempts) + 30*time.Second
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
