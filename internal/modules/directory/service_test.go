// README: Directory service tests; upsert validation and concurrent name resolution.
package directory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"freightdesk/internal/types"
)

type memPartyStore struct {
	mu      sync.Mutex
	parties map[types.ID]Party
}

func newMemPartyStore() *memPartyStore {
	return &memPartyStore{parties: make(map[types.ID]Party)}
}

func (m *memPartyStore) Put(_ context.Context, p Party) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parties[p.ID] = p
	return nil
}

func (m *memPartyStore) Get(_ context.Context, id types.ID) (Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parties[id]
	if !ok {
		return Party{}, ErrNotFound
	}
	return p, nil
}

func TestUpsertValidation(t *testing.T) {
	svc := NewService(newMemPartyStore(), zap.NewNop())
	ctx := context.Background()

	cases := []struct {
		name string
		p    Party
		ok   bool
	}{
		{"valid", Party{ID: "b1", Kind: KindBroker, DisplayName: "Acme"}, true},
		{"missing id", Party{Kind: KindBroker, DisplayName: "Acme"}, false},
		{"missing name", Party{ID: "b1", Kind: KindBroker}, false},
		{"bad kind", Party{ID: "b1", Kind: "planet", DisplayName: "Acme"}, false},
		// ids end up inside composite trip sort keys
		{"id with key separator", Party{ID: "b#1", Kind: KindBroker, DisplayName: "Acme"}, false},
		{"id with range ceiling", Party{ID: "b~1", Kind: KindBroker, DisplayName: "Acme"}, false},
	}
	for _, tc := range cases {
		_, err := svc.Upsert(ctx, tc.p)
		if tc.ok && err != nil {
			t.Errorf("%s: %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrValidation) {
			t.Errorf("%s: err = %v, want ErrValidation", tc.name, err)
		}
	}

	got, err := svc.Upsert(ctx, Party{ID: "b2", Kind: KindBroker, DisplayName: "Beta"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("bookkeeping timestamps missing")
	}
}

func TestNames(t *testing.T) {
	store := newMemPartyStore()
	svc := NewService(store, zap.NewNop())
	ctx := context.Background()

	for _, p := range []Party{
		{ID: "b1", Kind: KindBroker, DisplayName: "Acme"},
		{ID: "d1", Kind: KindDriver, DisplayName: "Riley"},
		{ID: "o1", Kind: KindOwner, DisplayName: "Hauliers LLC"},
	} {
		if _, err := svc.Upsert(ctx, p); err != nil {
			t.Fatalf("seed %s: %v", p.ID, err)
		}
	}

	// Duplicates and zero ids collapse; unknown ids are simply absent.
	names := svc.Names(ctx, []types.ID{"b1", "d1", "b1", "", "ghost", "o1"})
	want := map[types.ID]string{"b1": "Acme", "d1": "Riley", "o1": "Hauliers LLC"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for id, name := range want {
		if names[id] != name {
			t.Errorf("names[%s] = %q, want %q", id, names[id], name)
		}
	}
	if _, ok := names["ghost"]; ok {
		t.Error("unknown id resolved to a name")
	}
}

func TestNamesManyConcurrentLookups(t *testing.T) {
	store := newMemPartyStore()
	svc := NewService(store, zap.NewNop())
	ctx := context.Background()

	ids := make([]types.ID, 0, 100)
	for i := 0; i < 100; i++ {
		id := types.ID(string(rune('a'+i%26)) + string(rune('0'+i/26)))
		ids = append(ids, id)
		if _, err := svc.Upsert(ctx, Party{ID: id, Kind: KindDriver, DisplayName: "P-" + string(id)}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	names := svc.Names(ctx, ids)
	if len(names) != 100 {
		t.Fatalf("resolved %d names, want 100", len(names))
	}
	for _, id := range ids {
		if names[id] != "P-"+string(id) {
			t.Errorf("names[%s] = %q", id, names[id])
		}
	}
}
