// README: Directory service; upkeep plus the concurrent name lookups report enrichment uses.
package directory

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"freightdesk/internal/types"
)

// PartyStore is the persistence contract; the concrete Store satisfies it.
type PartyStore interface {
	Put(ctx context.Context, p Party) error
	Get(ctx context.Context, id types.ID) (Party, error)
}

type Service struct {
	store PartyStore
	log   *zap.Logger
	now   func() time.Time
}

func NewService(store PartyStore, log *zap.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id types.ID) (Party, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Upsert(ctx context.Context, p Party) (Party, error) {
	if p.ID.IsZero() || p.DisplayName == "" {
		return Party{}, ErrValidation
	}
	// Party ids end up inside composite trip sort keys; the key alphabet
	// reserves '#' and '~'.
	if strings.ContainsAny(string(p.ID), "#~") {
		return Party{}, ErrValidation
	}
	if _, ok := ParseKind(string(p.Kind)); !ok {
		return Party{}, ErrValidation
	}
	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if err := s.store.Put(ctx, p); err != nil {
		return Party{}, err
	}
	return p, nil
}

// Names resolves display names for a set of ids. The lookups are independent
// of each other, so they run concurrently and join before returning. Unknown
// ids are simply absent from the result; callers fall back to the raw id.
func (s *Service) Names(ctx context.Context, ids []types.ID) map[types.ID]string {
	uniq := make([]types.ID, 0, len(ids))
	seen := make(map[types.ID]struct{}, len(ids))
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}

	names := make([]string, len(uniq))
	var wg sync.WaitGroup
	for i, id := range uniq {
		wg.Add(1)
		go func(i int, id types.ID) {
			defer wg.Done()
			p, err := s.store.Get(ctx, id)
			if err != nil {
				return
			}
			names[i] = p.DisplayName
		}(i, id)
	}
	wg.Wait()

	out := make(map[types.ID]string, len(uniq))
	for i, id := range uniq {
		if names[i] != "" {
			out[id] = names[i]
		}
	}
	return out
}
