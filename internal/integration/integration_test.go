package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"nexus-arena-service/internal/app"
	"nexus-arena-service/internal/domain"
	pgloader "nexus-arena-service/internal/infra/postgres"
	pgmigrations "nexus-arena-service/internal/infra/postgres/migrations"
	infraredis "nexus-arena-service/internal/infra/redis"
)

func TestWipeoutRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuestions(t, ctx, pgURL, sampleQuestions())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	questions := infraredis.NewQuestionRepository(redisClient, pgloader.NewBatchLoader(pool), 5*time.Minute)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	stats := infraredis.NewStatsStore(redisClient)
	service := app.NewArenaService(sessions, questions, stats)

	snap, err := service.StartSession(ctx, "u1", domain.GameSettings{
		Mode:       domain.ModeWipeout,
		Subject:    "General Knowledge",
		Difficulty: domain.DifficultyFoundational,
	})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if snap.Total != 10 {
		t.Fatalf("expected 10 questions loaded from postgres, got %d", snap.Total)
	}

	// Answer every question correctly and dismiss each explanation.
	for i := 0; i < 10; i++ {
		if snap.Question == nil {
			t.Fatalf("no question at index %d", i)
		}
		if _, err := service.SubmitAnswer(snap.ID, snap.Question.CorrectAnswerIndex); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		snap, err = service.Advance(snap.ID)
		if err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}

	if snap.Phase != app.PhaseTerminated {
		t.Fatalf("expected terminated session, got %s", snap.Phase)
	}
	if snap.Result == nil || !snap.Result.Success || snap.Result.CorrectCount != 10 {
		t.Fatalf("unexpected result: %+v", snap.Result)
	}
	if _, err := service.Snapshot(snap.ID); err != domain.ErrSessionNotFound {
		t.Fatalf("expected finished session to be dropped, got %v", err)
	}

	loaded, err := stats.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load stats: %v", err)
	}
	if loaded.TotalQuestions != 10 || loaded.CorrectAnswers != 10 || loaded.Accuracy != 100 {
		t.Fatalf("unexpected stats: %+v", loaded)
	}
	if loaded.ApexScore != snap.Result.Score {
		t.Fatalf("apex %d, want session score %d", loaded.ApexScore, snap.Result.Score)
	}
	if !contains(loaded.Milestones, domain.MilestoneEliteHub) {
		t.Fatalf("expected %s milestone, got %v", domain.MilestoneEliteHub, loaded.Milestones)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "arena", "POSTGRES_PASSWORD": "arenapass", "POSTGRES_DB": "arenadb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://arena:arenapass@%s:%s/arenadb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuestions(t *testing.T, ctx context.Context, dsn string, batch []domain.Question) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for _, q := range batch {
		data, err := json.Marshal(q)
		if err != nil {
			t.Fatalf("marshal question: %v", err)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO questions (id, topic, subject, difficulty, data) VALUES (?, ?, ?, ?, ?::jsonb)
			 ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`,
			q.ID, "General Knowledge", q.Subject, string(q.Difficulty), string(data)); err != nil {
			t.Fatalf("insert question %s: %v", q.ID, err)
		}
	}
}

func sampleQuestions() []domain.Question {
	out := make([]domain.Question, 0, 10)
	for i := 0; i < 10; i++ {
		out = append(out, domain.Question{
			ID:                 fmt.Sprintf("q%02d", i),
			Subject:            "General Knowledge",
			Difficulty:         domain.DifficultyFoundational,
			Text:               fmt.Sprintf("Question %d", i),
			Options:            []string{"alpha", "beta", "gamma", "delta"},
			CorrectAnswerIndex: i % 4,
			Explanation:        "seeded explanation",
		})
	}
	return out
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
