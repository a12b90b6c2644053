// README: Index selection policy; pure and total, most selective index first.
package trip

import "freightdesk/internal/types"

// Selection is the selector's verdict: which index to scan, the partition to
// scan it in, the sort-key bounds, and a human-readable rationale that goes
// into the request log.
type Selection struct {
	Index        IndexID
	PartitionKey string
	SortLow      string
	SortHigh     string
	Rationale    string
}

// SelectIndex maps the caller's role and filter set onto exactly one index.
// Equipment beats driver beats broker, because a single truck touches fewer
// trips than a driver, and a driver fewer than a broker. Entity-scoped
// indexes exist only inside a dispatcher partition, so every other role
// scans its own schedule index and filters the rest post-fetch.
func SelectIndex(role types.Role, callerID types.ID, f Filters) Selection {
	if role == types.RoleDispatcher {
		switch {
		case !f.Truck.IsZero():
			low, high := entityRange(prefixTruck, f.Truck, f.Start, f.End)
			return Selection{
				Index:        IndexDispatcherTruck,
				PartitionKey: prefixDispatcher + string(callerID),
				SortLow:      low,
				SortHigh:     high,
				Rationale:    "equipment filter: truck-scoped index scans fewest records",
			}
		case !f.Driver.IsZero():
			low, high := entityRange(prefixDriver, f.Driver, f.Start, f.End)
			return Selection{
				Index:        IndexDispatcherDriver,
				PartitionKey: prefixDispatcher + string(callerID),
				SortLow:      low,
				SortHigh:     high,
				Rationale:    "driver filter: driver-scoped index beats the schedule scan",
			}
		case !f.Broker.IsZero():
			low, high := entityRange(prefixBroker, f.Broker, f.Start, f.End)
			return Selection{
				Index:        IndexDispatcherBroker,
				PartitionKey: prefixDispatcher + string(callerID),
				SortLow:      low,
				SortHigh:     high,
				Rationale:    "broker filter: broker-scoped index beats the schedule scan",
			}
		}
	}
	return DefaultSelection(role, callerID, f)
}

// DefaultSelection is the per-role schedule index, the degradation target
// when a scoped-index query fails.
func DefaultSelection(role types.Role, callerID types.ID, f Filters) Selection {
	low, high := scheduleRange(f.Start, f.End)
	sel := Selection{
		SortLow:   low,
		SortHigh:  high,
		Rationale: "default schedule index for role " + string(role),
	}
	switch role {
	case types.RoleDriver:
		sel.Index = IndexDriverSchedule
		sel.PartitionKey = prefixDriver + string(callerID)
	case types.RoleOwner:
		sel.Index = IndexOwnerSchedule
		sel.PartitionKey = prefixOwner + string(callerID)
	case types.RoleCarrier:
		sel.Index = IndexCarrierSchedule
		sel.PartitionKey = prefixCarrier + string(callerID)
	default:
		sel.Index = IndexDispatcherSchedule
		sel.PartitionKey = prefixDispatcher + string(callerID)
	}
	return sel
}
