package memory

import (
	"context"
	"sync"

	"nexus-arena-service/internal/domain"
)

// StatsStore keeps aggregate user stats in process memory. Absent users
// read as the zero record.
type StatsStore struct {
	mu    sync.RWMutex
	stats map[string]domain.UserStats
}

func NewStatsStore() *StatsStore {
	return &StatsStore{stats: make(map[string]domain.UserStats)}
}

func (s *StatsStore) Load(_ context.Context, userID string) (domain.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats[userID], nil
}

func (s *StatsStore) Save(_ context.Context, userID string, stats domain.UserStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[userID] = stats
	return nil
}
