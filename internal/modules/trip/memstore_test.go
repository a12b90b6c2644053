// README: In-memory trip store for engine and service tests; mirrors the
// range-scan contract of the Postgres store.
package trip

import (
	"context"
	"errors"
	"sort"
	"sync"

	"freightdesk/internal/types"
)

type memStore struct {
	mu      sync.Mutex
	trips   map[types.ID]Trip
	queries int
}

func newMemStore() *memStore {
	return &memStore{trips: make(map[types.ID]Trip)}
}

func (m *memStore) Put(_ context.Context, t Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[t.ID] = t
	return nil
}

func (m *memStore) Get(_ context.Context, id types.ID) (Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return Trip{}, ErrNotFound
	}
	return t, nil
}

func (m *memStore) Delete(_ context.Context, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trips, id)
	return nil
}

// Query scans descending by sort key with inclusive bounds, an exclusive
// StartBefore, and a look-ahead continuation token, matching the SQL store.
func (m *memStore) Query(_ context.Context, in QueryInput) (QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++

	var items []Item
	for _, t := range m.trips {
		kp, ok := DeriveIndexKeys(t)[in.Index]
		if !ok || kp.PartitionKey != in.PartitionKey {
			continue
		}
		if in.SortLow != "" && kp.SortKey < in.SortLow {
			continue
		}
		if in.SortHigh != "" && kp.SortKey > in.SortHigh {
			continue
		}
		if in.StartBefore != "" && kp.SortKey >= in.StartBefore {
			continue
		}
		items = append(items, Item{Trip: t, SortKey: kp.SortKey})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SortKey > items[j].SortKey })

	if in.Limit > 0 && len(items) > in.Limit {
		items = items[:in.Limit]
		return QueryOutput{Items: items, Next: items[len(items)-1].SortKey}, nil
	}
	return QueryOutput{Items: items}, nil
}

var errStoreDown = errors.New("store down")

// flakyQuerier fails every query against one index and delegates the rest.
type flakyQuerier struct {
	inner     Querier
	failIndex IndexID
	failures  int
}

func (f *flakyQuerier) Query(ctx context.Context, in QueryInput) (QueryOutput, error) {
	if in.Index == f.failIndex {
		f.failures++
		return QueryOutput{}, errStoreDown
	}
	return f.inner.Query(ctx, in)
}
