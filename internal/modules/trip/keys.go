// README: Index catalogue and per-trip key projections (persisted format; keep stable).
package trip

import (
	"time"

	"freightdesk/internal/types"
)

// IndexID names one partitioned secondary index over the trip store.
type IndexID string

const (
	// Per-role default indexes, sorted by scheduled time (newest first on scan).
	IndexDispatcherSchedule IndexID = "dispatcher-schedule"
	IndexDriverSchedule     IndexID = "driver-schedule"
	IndexOwnerSchedule      IndexID = "owner-schedule"
	IndexCarrierSchedule    IndexID = "carrier-schedule"

	// Entity-scoped indexes inside a dispatcher partition, sorted by
	// secondary entity, then day, then trip id.
	IndexDispatcherBroker IndexID = "dispatcher-broker"
	IndexDispatcherDriver IndexID = "dispatcher-driver"
	IndexDispatcherTruck  IndexID = "dispatcher-truck"
)

// Partition-key prefixes. These strings are written to the store; changing
// them strands every existing projection.
const (
	prefixDispatcher = "DISPATCHER#"
	prefixDriver     = "DRIVER#"
	prefixOwner      = "OWNER#"
	prefixCarrier    = "CARRIER#"
	prefixBroker     = "BROKER#"
	prefixTruck      = "TRUCK#"
)

// KeyPair is one index's projection of a trip.
type KeyPair struct {
	PartitionKey string `json:"pk"`
	SortKey      string `json:"sk"`
}

// sortTimestamp renders a fixed-width, zero-padded UTC timestamp without
// fractional seconds. Fixed width is what makes the sort keys lexically
// ordered by time.
func sortTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05") + "Z"
}

func sortDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func scheduleSortKey(t Trip) string {
	return sortTimestamp(t.ScheduledAt) + "#" + string(t.ID)
}

func entitySortKey(prefix string, id types.ID, t Trip) string {
	return prefix + string(id) + "#" + sortDate(t.ScheduledAt) + "#" + string(t.ID)
}

// DeriveIndexKeys computes every index projection for a trip. The
// projections are derived state: callers recompute them on every write so a
// changed field (a re-brokered load, a swapped truck) can never leave a
// stale sort key behind. Indexes whose scoping entity is unset are omitted.
func DeriveIndexKeys(t Trip) map[IndexID]KeyPair {
	keys := map[IndexID]KeyPair{
		IndexDispatcherSchedule: {
			PartitionKey: prefixDispatcher + string(t.DispatcherID),
			SortKey:      scheduleSortKey(t),
		},
	}
	if !t.DriverID.IsZero() {
		keys[IndexDriverSchedule] = KeyPair{
			PartitionKey: prefixDriver + string(t.DriverID),
			SortKey:      scheduleSortKey(t),
		}
		keys[IndexDispatcherDriver] = KeyPair{
			PartitionKey: prefixDispatcher + string(t.DispatcherID),
			SortKey:      entitySortKey(prefixDriver, t.DriverID, t),
		}
	}
	if !t.TruckOwnerID.IsZero() {
		keys[IndexOwnerSchedule] = KeyPair{
			PartitionKey: prefixOwner + string(t.TruckOwnerID),
			SortKey:      scheduleSortKey(t),
		}
	}
	if !t.CarrierID.IsZero() {
		keys[IndexCarrierSchedule] = KeyPair{
			PartitionKey: prefixCarrier + string(t.CarrierID),
			SortKey:      scheduleSortKey(t),
		}
	}
	if !t.BrokerID.IsZero() {
		keys[IndexDispatcherBroker] = KeyPair{
			PartitionKey: prefixDispatcher + string(t.DispatcherID),
			SortKey:      entitySortKey(prefixBroker, t.BrokerID, t),
		}
	}
	if !t.TruckID.IsZero() {
		keys[IndexDispatcherTruck] = KeyPair{
			PartitionKey: prefixDispatcher + string(t.DispatcherID),
			SortKey:      entitySortKey(prefixTruck, t.TruckID, t),
		}
	}
	return keys
}

// rangeCeiling sorts after every legal sort-key character ('~' is above the
// alphanumerics and '#'), closing an inclusive upper bound.
const rangeCeiling = "~"

// scheduleRange converts an optional date window into inclusive sort-key
// bounds on a schedule index.
func scheduleRange(start, end *time.Time) (low, high string) {
	if start != nil {
		low = sortTimestamp(*start)
	}
	if end != nil {
		high = sortTimestamp(*end) + "#" + rangeCeiling
	} else {
		high = rangeCeiling
	}
	return low, high
}

// entityRange bounds a scan to one secondary entity within a dispatcher
// partition, optionally narrowed to a day window.
func entityRange(prefix string, id types.ID, start, end *time.Time) (low, high string) {
	base := prefix + string(id) + "#"
	low = base
	high = base + rangeCeiling
	if start != nil {
		low = base + sortDate(*start)
	}
	if end != nil {
		high = base + sortDate(*end) + "#" + rangeCeiling
	}
	return low, high
}
