package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admission-quiz-service/internal/app"
	"admission-quiz-service/internal/config"
	"admission-quiz-service/internal/domain"
	"admission-quiz-service/internal/infra/memory"
	pgloader "admission-quiz-service/internal/infra/postgres"
	redisledger "admission-quiz-service/internal/infra/redis"
	sqliteledger "admission-quiz-service/internal/infra/sqlite"
	transport "admission-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.SetLoader = memory.NewStaticSetLoader(builtinSets())
	if pool != nil {
		loader = pgloader.NewQuestionLoader(pool)
	}
	cacheTTL := config.Duration(cfg.Quiz.CacheTTL, 10*time.Minute)
	questions := memory.NewQuestionBank(loader, cacheTTL)

	ledger, closeLedger, err := buildLedger(cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeLedger()

	service := app.NewService(questions, ledger, app.SessionConfig{
		QuizName:     cfg.Quiz.Name,
		QuestionSet:  cfg.Quiz.QuestionSet,
		Duration:     config.Duration(cfg.Quiz.Duration, 30*time.Minute),
		RedirectWait: config.Duration(cfg.Quiz.RedirectWait, 5*time.Second),
	})
	quizHandler := transport.NewQuizHandler(service)
	resultsHandler := transport.NewResultsHandler(ledger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws/quiz", quizHandler.ServeQuiz)
	mux.HandleFunc("/ws/results", resultsHandler.ServeResults)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting admission quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildLedger picks the attempt store: Redis when configured (shared across
// processes), then SQLite (durable local file), then memory.
func buildLedger(cfg config.Config, redisClient *redis.Client) (app.Ledger, func(), error) {
	if redisClient != nil {
		return redisledger.NewLedger(redisClient), func() {}, nil
	}
	if cfg.SQLite.Path != "" {
		ledger, err := sqliteledger.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return ledger, func() { _ = ledger.Close() }, nil
	}
	log.Println("no ledger store configured, attempts are kept in memory only")
	return memory.NewLedger(), func() {}, nil
}

// builtinSets serves the embedded admission set when Postgres is not
// configured.
func builtinSets() map[string]domain.QuestionSet {
	set := domain.DefaultQuestionSet()
	return map[string]domain.QuestionSet{set.Name: set}
}
