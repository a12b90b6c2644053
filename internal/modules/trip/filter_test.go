// README: Residual filter tests.
package trip

import (
	"testing"
	"time"

	"freightdesk/internal/types"
)

func TestResidualStripsIndexCoveredConditions(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	f := Filters{Start: &start, End: &end, Broker: "b1", Driver: "d1", Truck: "tk1", Status: StatusDelivered}

	r := f.Residual(IndexDispatcherBroker)
	if !r.Broker.IsZero() {
		t.Error("broker condition survived on the broker index")
	}
	if r.Start == nil || r.End == nil {
		t.Error("window dropped on an entity index; its sort key only bounds days, not times")
	}
	if r.Driver.IsZero() || r.Truck.IsZero() || r.Status == "" {
		t.Errorf("unrelated conditions dropped: %+v", r)
	}

	r = f.Residual(IndexDriverSchedule)
	if r.Start != nil || r.End != nil {
		t.Error("window survived on a schedule index; its sort key already bounds it")
	}
	if r.Broker.IsZero() || r.Driver.IsZero() || r.Truck.IsZero() {
		t.Errorf("schedule index must keep every entity condition: %+v", r)
	}
}

func TestFiltersDiscards(t *testing.T) {
	if (Filters{}).Discards() {
		t.Error("empty filter claims to discard")
	}
	if (Filters{DriverName: "Ana"}).Discards() {
		t.Error("name-only filter claims to discard; it passes everything")
	}
	if !(Filters{Status: StatusPaid}).Discards() {
		t.Error("status filter must discard")
	}
}

func TestFiltersMatchWindowInclusive(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	f := Filters{Start: &start, End: &end}

	onStart := validTrip()
	onStart.ScheduledAt = start
	onEnd := validTrip()
	onEnd.ScheduledAt = end
	before := validTrip()
	before.ScheduledAt = start.Add(-time.Second)

	if !f.Match(onStart) || !f.Match(onEnd) {
		t.Error("window boundaries must be inclusive")
	}
	if f.Match(before) {
		t.Error("record before window matched")
	}
}

func TestFiltersApplyOrderPreservingAndIdempotent(t *testing.T) {
	mk := func(id types.ID, st Status) Trip {
		tr := validTrip()
		tr.ID = id
		tr.Status = st
		return tr
	}
	in := []Trip{
		mk("a", StatusDelivered),
		mk("b", StatusScheduled),
		mk("c", StatusDelivered),
		mk("d", StatusPaid),
		mk("e", StatusDelivered),
	}
	f := Filters{Status: StatusDelivered}

	once := f.Apply(in)
	if len(once) != 3 || once[0].ID != "a" || once[1].ID != "c" || once[2].ID != "e" {
		t.Fatalf("apply changed order or kept wrong records: %v", ids(once))
	}
	twice := f.Apply(once)
	if len(twice) != len(once) {
		t.Errorf("second application changed the set: %v vs %v", ids(once), ids(twice))
	}
	// Input slice must be left alone.
	if len(in) != 5 {
		t.Errorf("input mutated, len = %d", len(in))
	}
}

func TestFiltersDriverNamePassesEverything(t *testing.T) {
	f := Filters{DriverName: "Somebody Else"}
	tr := validTrip()
	if !f.Match(tr) {
		t.Error("driver name filter rejected a record; it must be a pass-through")
	}
}

func ids(trips []Trip) []types.ID {
	out := make([]types.ID, len(trips))
	for i, t := range trips {
		out[i] = t.ID
	}
	return out
}
