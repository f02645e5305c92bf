package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"nexus-arena-service/internal/domain"
)

// BatchLoader loads question JSONB rows from Postgres. Rows are filed under
// a top-level topic plus the (possibly finer) subject stored on the question
// itself; ordering by subject keeps CategoryKings sub-category blocks
// contiguous when the seeded data carries them.
type BatchLoader struct {
	pool *pgxpool.Pool
}

func NewBatchLoader(pool *pgxpool.Pool) *BatchLoader {
	return &BatchLoader{pool: pool}
}

func (l *BatchLoader) LoadBatch(ctx context.Context, settings domain.GameSettings, count int) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT data FROM questions WHERE topic=$1 AND difficulty=$2 ORDER BY subject, id LIMIT $3`,
		settings.Subject, string(settings.Difficulty), count)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	batch := make([]domain.Question, 0, count)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		batch = append(batch, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(batch) == 0 {
		return nil, domain.ErrBatchUnavailable
	}
	return batch, nil
}
