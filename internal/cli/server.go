package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"nexus-arena-service/internal/app"
	"nexus-arena-service/internal/config"
	"nexus-arena-service/internal/domain"
	"nexus-arena-service/internal/infra/memory"
	pgloader "nexus-arena-service/internal/infra/postgres"
	redisinfra "nexus-arena-service/internal/infra/redis"
	transport "nexus-arena-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the arena server",
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.BatchLoader = memory.NewStaticBatchLoader(sampleBatches())
	if pool != nil {
		loader = pgloader.NewBatchLoader(pool)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questionRepo app.QuestionRepository
	if redisClient != nil {
		questionRepo = redisinfra.NewQuestionRepository(redisClient, loader, questionTTL)
	} else {
		questionRepo = memory.NewQuestionRepository(loader, questionTTL)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	var stats app.StatsStore
	if redisClient != nil {
		stats = redisinfra.NewStatsStore(redisClient)
	} else {
		stats = memory.NewStatsStore()
	}

	resolveDelay := config.TTLDuration(cfg.Game.ResolveDelay, 700*time.Millisecond)
	service := app.NewArenaService(sessions, questionRepo, stats,
		app.WithResolveDelay(resolveDelay),
		app.WithLifelineConfirmation(cfg.Game.ConfirmLifelines),
	)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting arena service on :%s", finalPort)
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

// sampleBatches seeds the static loader for runs without Postgres; swap in
// a real provider-backed loader in production.
func sampleBatches() map[string][]domain.Question {
	return map[string][]domain.Question{
		"General Knowledge": {
			{
				ID: "gk-1", Subject: "General Knowledge", Difficulty: domain.DifficultyFoundational,
				Text:               "Which planet is known as the Red Planet?",
				Options:            []string{"Venus", "Mars", "Jupiter", "Saturn"},
				CorrectAnswerIndex: 1,
				Explanation:        "Iron oxide on the Martian surface gives the planet its reddish color.",
			},
			{
				ID: "gk-2", Subject: "General Knowledge", Difficulty: domain.DifficultyFoundational,
				Text:               "How many continents are there on Earth?",
				Options:            []string{"Five", "Six", "Seven", "Eight"},
				CorrectAnswerIndex: 2,
				Explanation:        "The conventional count is seven: Africa, Antarctica, Asia, Europe, North America, Oceania, and South America.",
			},
			{
				ID: "gk-3", Subject: "General Knowledge", Difficulty: domain.DifficultyFoundational,
				Text:               "What is the largest ocean on Earth?",
				Options:            []string{"Atlantic", "Indian", "Arctic", "Pacific"},
				CorrectAnswerIndex: 3,
				Explanation:        "The Pacific Ocean covers roughly a third of the planet's surface.",
			},
			{
				ID: "gk-4", Subject: "General Knowledge", Difficulty: domain.DifficultyFoundational,
				Text:               "Which gas do plants primarily absorb for photosynthesis?",
				Options:            []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"},
				CorrectAnswerIndex: 2,
				Explanation:        "Plants fix carbon dioxide into sugars, releasing oxygen as a byproduct.",
			},
			{
				ID: "gk-5", Subject: "General Knowledge", Difficulty: domain.DifficultyFoundational,
				Text:               "What is the capital of Japan?",
				Options:            []string{"Osaka", "Kyoto", "Tokyo", "Nagoya"},
				CorrectAnswerIndex: 2,
				Explanation:        "Tokyo has been Japan's capital since 1868, when the imperial seat moved from Kyoto.",
			},
		},
	}
}
