package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"nexus-arena-service/internal/domain"
)

// StatsStore persists UserStats as one JSON value per user:
//
//	SET arena:stats:{userID} <json>
//
// Absent users read as the zero record.
type StatsStore struct {
	client *redis.Client
}

func NewStatsStore(client *redis.Client) *StatsStore {
	return &StatsStore{client: client}
}

func (s *StatsStore) Load(ctx context.Context, userID string) (domain.UserStats, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err == redis.Nil {
		return domain.UserStats{}, nil
	}
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("load stats: %w", err)
	}
	var stats domain.UserStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return domain.UserStats{}, fmt.Errorf("unmarshal stats: %w", err)
	}
	return stats, nil
}

func (s *StatsStore) Save(ctx context.Context, userID string, stats domain.UserStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if err := s.client.Set(ctx, s.key(userID), raw, 0).Err(); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}

func (s *StatsStore) key(userID string) string {
	return "arena:stats:" + userID
}
