// README: Party store; Postgres rows with a redis read-through cache in front.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"freightdesk/internal/types"
)

const (
	cacheKeyPrefix = "directory:party:"
	cacheTTL       = 10 * time.Minute
)

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

// NewStore builds a Store. The redis client may be nil; lookups then always
// hit Postgres.
func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

func (s *Store) Put(ctx context.Context, p Party) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO parties (id, kind, display_name, phone, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			display_name = EXCLUDED.display_name,
			phone = EXCLUDED.phone,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at`,
		string(p.ID), string(p.Kind), p.DisplayName, p.Phone, p.Notes, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("directory store: put: %w", err)
	}
	if s.redis != nil {
		// Drop the stale entry rather than writing through; the next read
		// repopulates it.
		_ = s.redis.Del(ctx, cacheKey(p.ID)).Err()
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (Party, error) {
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, cacheKey(id)).Result(); err == nil {
			var p Party
			if err := json.Unmarshal([]byte(val), &p); err == nil {
				return p, nil
			}
		}
	}

	row := s.db.QueryRow(ctx, `
		SELECT id, kind, display_name, phone, notes, created_at, updated_at
		FROM parties WHERE id = $1`, string(id),
	)
	var (
		p        Party
		idStr    string
		kindStr  string
	)
	err := row.Scan(&idStr, &kindStr, &p.DisplayName, &p.Phone, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Party{}, ErrNotFound
	}
	if err != nil {
		return Party{}, fmt.Errorf("directory store: get: %w", err)
	}
	p.ID = types.ID(idStr)
	p.Kind = Kind(kindStr)

	if s.redis != nil {
		if raw, err := json.Marshal(p); err == nil {
			_ = s.redis.Set(ctx, cacheKey(p.ID), raw, cacheTTL).Err()
		}
	}
	return p, nil
}

func cacheKey(id types.ID) string {
	return cacheKeyPrefix + string(id)
}
