// README: Payment aggregation engine; materializes the matching trip set and reduces it per role.
package report

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"freightdesk/internal/modules/trip"
	"freightdesk/internal/types"
)

// NameResolver joins entity ids to display names for grouped breakdowns.
// The directory service satisfies it.
type NameResolver interface {
	Names(ctx context.Context, ids []types.ID) map[types.ID]string
}

type Service struct {
	engine *trip.Engine
	names  NameResolver
	log    *zap.Logger
}

func NewService(engine *trip.Engine, names NameResolver, log *zap.Logger) *Service {
	return &Service{engine: engine, names: names, log: log}
}

// Build materializes every trip the filters match — not one page — and
// reduces the set into the caller's role-shaped report. The fetch engine
// supplies the same ordering and filtering semantics as listings, so a
// report is always consistent with what the caller can list.
func (s *Service) Build(ctx context.Context, q Query) (Report, error) {
	if _, ok := ParseGroupBy(string(q.GroupBy)); !ok {
		return Report{}, fmt.Errorf("%w: unknown group_by %q", trip.ErrValidation, q.GroupBy)
	}
	if err := trip.ValidateFilters(q.Filters); err != nil {
		return Report{}, err
	}

	trips, err := s.engine.FetchAll(ctx, q.Role, q.CallerID, q.Filters)
	if err != nil {
		return Report{}, err
	}

	switch q.Role {
	case types.RoleDispatcher:
		return s.dispatcherReport(ctx, trips, q.GroupBy)
	case types.RoleDriver:
		return driverReport(trips), nil
	case types.RoleOwner:
		return ownerReport(trips), nil
	case types.RoleCarrier:
		return carrierReport(trips), nil
	}
	return Report{}, trip.ErrForbidden
}

func (s *Service) dispatcherReport(ctx context.Context, trips []trip.Trip, groupBy GroupBy) (Report, error) {
	r := &DispatcherReport{Trips: trips, TripCount: len(trips)}
	buckets := make(map[string]*TimelineBucket)

	for _, t := range trips {
		r.TotalBrokerPayments = r.TotalBrokerPayments.Add(t.BrokerPayment)
		r.TotalDriverPayments = r.TotalDriverPayments.Add(t.DriverPayment)
		r.TotalOwnerPayments = r.TotalOwnerPayments.Add(t.TruckOwnerPayment)
		r.TotalDispatcherPayments = r.TotalDispatcherPayments.Add(t.DispatcherPayment)
		r.TotalFees = r.TotalFees.Add(t.Fees())
		r.TotalMiles += t.Miles

		month := t.ScheduledAt.UTC().Format("2006-01")
		b, ok := buckets[month]
		if !ok {
			b = &TimelineBucket{Month: month}
			buckets[month] = b
		}
		b.BrokerPayments = b.BrokerPayments.Add(t.BrokerPayment)
		b.DriverPayments = b.DriverPayments.Add(t.DriverPayment)
		b.OwnerPayments = b.OwnerPayments.Add(t.TruckOwnerPayment)
		b.Trips++
	}

	r.Profit = r.TotalBrokerPayments.
		Sub(r.TotalDriverPayments).
		Sub(r.TotalOwnerPayments).
		Sub(r.TotalFees)

	r.Timeline = make([]TimelineBucket, 0, len(buckets))
	for _, b := range buckets {
		r.Timeline = append(r.Timeline, *b)
	}
	sort.Slice(r.Timeline, func(i, j int) bool { return r.Timeline[i].Month < r.Timeline[j].Month })

	if groupBy != GroupNone {
		r.Groups = s.groupTrips(ctx, trips, groupBy)
	}

	return Report{Role: types.RoleDispatcher, Dispatcher: r}, nil
}

// groupTrips is the secondary reduction: per grouping entity, sum that
// entity's payment and count trips. Name enrichment is a join against the
// directory, issued after the reduction so only distinct keys are looked up.
func (s *Service) groupTrips(ctx context.Context, trips []trip.Trip, groupBy GroupBy) []Group {
	key := func(t trip.Trip) (types.ID, types.Money) {
		switch groupBy {
		case GroupBroker:
			return t.BrokerID, t.BrokerPayment
		case GroupDriver:
			return t.DriverID, t.DriverPayment
		case GroupEquipment:
			return t.TruckID, t.TruckOwnerPayment
		default:
			return t.DispatcherID, t.DispatcherPayment
		}
	}

	byKey := make(map[types.ID]*Group)
	order := make([]types.ID, 0)
	for _, t := range trips {
		id, payment := key(t)
		if id.IsZero() {
			continue
		}
		g, ok := byKey[id]
		if !ok {
			g = &Group{Key: id}
			byKey[id] = g
			order = append(order, id)
		}
		g.Payments = g.Payments.Add(payment)
		g.Trips++
	}

	var names map[types.ID]string
	if s.names != nil {
		names = s.names.Names(ctx, order)
	}

	groups := make([]Group, 0, len(order))
	for _, id := range order {
		g := *byKey[id]
		g.Name = names[id]
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Payments.Amount > groups[j].Payments.Amount })
	return groups
}

func driverReport(trips []trip.Trip) Report {
	r := &DriverReport{TripCount: len(trips)}
	for i, t := range trips {
		r.TotalDriverPayments = r.TotalDriverPayments.Add(t.DriverPayment)
		r.TotalAdvances = r.TotalAdvances.Add(t.DriverAdvance)
		r.TotalMiles += t.Miles
		trips[i] = t.Redacted(types.RoleDriver)
	}
	r.Trips = trips
	return Report{Role: types.RoleDriver, Driver: r}
}

func ownerReport(trips []trip.Trip) Report {
	r := &OwnerReport{TripCount: len(trips)}
	for i, t := range trips {
		r.TotalOwnerPayments = r.TotalOwnerPayments.Add(t.TruckOwnerPayment)
		trips[i] = t.Redacted(types.RoleOwner)
	}
	r.Trips = trips
	return Report{Role: types.RoleOwner, Owner: r}
}

func carrierReport(trips []trip.Trip) Report {
	r := &CarrierReport{TripCount: len(trips)}
	for i, t := range trips {
		r.TotalMiles += t.Miles
		trips[i] = t.Redacted(types.RoleCarrier)
	}
	r.Trips = trips
	return Report{Role: types.RoleCarrier, Carrier: r}
}
