// README: Post-fetch predicate stack; applies whatever the chosen index's key range could not.
package trip

import (
	"time"

	"freightdesk/internal/types"
)

// Filters is the caller's filter set for listings and reports. Zero values
// mean "no filter". Start/End bound the scheduled time, inclusive.
type Filters struct {
	Start  *time.Time
	End    *time.Time
	Broker types.ID
	Driver types.ID
	Truck  types.ID
	Status Status

	// DriverName matching is unresolvable today: trips carry only the
	// driver id, and a name needs a directory join that this path does not
	// perform. The predicate passes every record rather than silently
	// dropping matches.
	DriverName string
}

// Residual strips the conditions already enforced by the chosen index's key
// range, leaving only what must be evaluated record by record. The schedule
// indexes encode the window at second precision, so it drops there. The
// entity-scoped indexes encode their own entity but only the day of the
// schedule; the window stays residual so a time-of-day bound is re-checked
// per record instead of silently widening to whole days.
func (f Filters) Residual(idx IndexID) Filters {
	r := f
	switch idx {
	case IndexDispatcherBroker:
		r.Broker = ""
	case IndexDispatcherDriver:
		r.Driver = ""
	case IndexDispatcherTruck:
		r.Truck = ""
	default:
		r.Start, r.End = nil, nil
	}
	return r
}

// Discards reports whether the filter can reject records at all. It decides
// the batch size: a filter that never discards scans exactly one page worth.
// DriverName is excluded here because it passes everything.
func (f Filters) Discards() bool {
	return f.Status != "" || !f.Broker.IsZero() || !f.Driver.IsZero() || !f.Truck.IsZero() ||
		f.Start != nil || f.End != nil
}

// Match evaluates the record-level predicates against one trip.
func (f Filters) Match(t Trip) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if !f.Broker.IsZero() && t.BrokerID != f.Broker {
		return false
	}
	if !f.Driver.IsZero() && t.DriverID != f.Driver {
		return false
	}
	if !f.Truck.IsZero() && t.TruckID != f.Truck {
		return false
	}
	if f.Start != nil && t.ScheduledAt.Before(*f.Start) {
		return false
	}
	if f.End != nil && t.ScheduledAt.After(*f.End) {
		return false
	}
	return true
}

// Apply filters a batch in place of the store's own filter semantics,
// preserving order. Applying it twice is a no-op.
func (f Filters) Apply(trips []Trip) []Trip {
	if !f.Discards() {
		return trips
	}
	out := trips[:0:0]
	for _, t := range trips {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
