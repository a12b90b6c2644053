// README: Trip service; creation, field edits, status transitions, deletes, and listings.
package trip

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"freightdesk/internal/types"
)

// MileageEstimator is the optional maps collaborator. A nil estimator just
// leaves the mileage at whatever the dispatcher entered.
type MileageEstimator interface {
	EstimateMiles(ctx context.Context, origin, destination string) (float64, error)
}

type Service struct {
	store  Store
	engine *Engine
	miles  MileageEstimator
	log    *zap.Logger
	now    func() time.Time
}

func NewService(store Store, engine *Engine, miles MileageEstimator, log *zap.Logger) *Service {
	return &Service{store: store, engine: engine, miles: miles, log: log, now: time.Now}
}

// Engine exposes the fetch engine to the aggregation layer, which drives the
// same loop to exhaustion instead of one page.
func (s *Service) Engine() *Engine { return s.engine }

type CreateCommand struct {
	Dispatcher types.ID
	Trip       Trip
}

// Create validates and persists a new trip. Identity, status, and
// bookkeeping fields are owned here; caller-supplied values for them are
// ignored.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (Trip, error) {
	if cmd.Dispatcher.IsZero() {
		return Trip{}, ErrForbidden
	}
	t := cmd.Trip
	t.ID = types.ID(uuid.NewString())
	t.DispatcherID = cmd.Dispatcher
	t.Status = StatusScheduled
	t.PickedUpAt = nil
	t.DeliveredAt = nil
	now := s.now()
	if t.ScheduledAt.IsZero() {
		t.ScheduledAt = now
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := t.Validate(); err != nil {
		return Trip{}, err
	}

	if t.Miles == 0 && s.miles != nil && t.PickupLocation != "" && t.DeliveryLocation != "" {
		if mi, err := s.miles.EstimateMiles(ctx, t.PickupLocation, t.DeliveryLocation); err == nil {
			t.Miles = mi
		} else {
			// The estimate is advisory; a maps outage must not block dispatch.
			s.log.Warn("mileage estimate failed", zap.String("trip_id", string(t.ID)), zap.Error(err))
		}
	}

	if err := s.store.Put(ctx, t); err != nil {
		return Trip{}, err
	}
	return t, nil
}

// Get returns a single trip, redacted for the caller's role. Callers only
// ever see trips they are a party to.
func (s *Service) Get(ctx context.Context, role types.Role, callerID types.ID, id types.ID) (Trip, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return Trip{}, err
	}
	if !isParty(role, callerID, t) {
		return Trip{}, ErrForbidden
	}
	return t.Redacted(role), nil
}

type UpdateCommand struct {
	Dispatcher types.ID
	Trip       Trip
}

// Update overwrites the mutable fields of a trip. Only the creating
// dispatcher may edit; identity, schedule time, status, and lifecycle stamps
// are immutable here. The store rewrites every index projection on Put, so a
// changed broker or truck regenerates its sort keys.
func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (Trip, error) {
	current, err := s.store.Get(ctx, cmd.Trip.ID)
	if err != nil {
		return Trip{}, err
	}
	if current.DispatcherID != cmd.Dispatcher {
		return Trip{}, ErrForbidden
	}

	next := cmd.Trip
	next.ID = current.ID
	next.DispatcherID = current.DispatcherID
	next.ScheduledAt = current.ScheduledAt
	next.Status = current.Status
	next.PickedUpAt = current.PickedUpAt
	next.DeliveredAt = current.DeliveredAt
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.now()

	if err := next.Validate(); err != nil {
		return Trip{}, err
	}
	if err := s.store.Put(ctx, next); err != nil {
		return Trip{}, err
	}
	return next, nil
}

type StatusCommand struct {
	TripID   types.ID
	CallerID types.ID
	Role     types.Role
	To       Status
}

// UpdateStatus re-reads the trip, validates the transition for the caller's
// role against the current status, applies the stamps, and writes back. It
// is never a blind write.
func (s *Service) UpdateStatus(ctx context.Context, cmd StatusCommand) (Trip, error) {
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return Trip{}, err
	}

	switch cmd.Role {
	case types.RoleDispatcher:
		if t.DispatcherID != cmd.CallerID {
			return Trip{}, ErrForbidden
		}
	case types.RoleDriver:
		if t.DriverID != cmd.CallerID {
			return Trip{}, ErrForbidden
		}
	default:
		return Trip{}, ErrForbidden
	}

	if !CanTransition(cmd.Role, t.Status, cmd.To) {
		return Trip{}, fmt.Errorf("%w: %s -> %s as %s", ErrInvalidState, t.Status, cmd.To, cmd.Role)
	}

	t.ApplyStatus(cmd.To, s.now())
	t.UpdatedAt = s.now()
	if err := s.store.Put(ctx, t); err != nil {
		return Trip{}, err
	}
	return t.Redacted(cmd.Role), nil
}

// Delete removes a trip. Only the creating dispatcher may do so.
func (s *Service) Delete(ctx context.Context, role types.Role, callerID types.ID, id types.ID) error {
	if role != types.RoleDispatcher {
		return ErrForbidden
	}
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if t.DispatcherID != callerID {
		return ErrForbidden
	}
	return s.store.Delete(ctx, id)
}

// List serves the paginated listing. The result is redacted per role; the
// cursor round-trips opaque.
func (s *Service) List(ctx context.Context, req PageRequest) (PageResult, error) {
	if err := ValidateFilters(req.Filters); err != nil {
		return PageResult{}, err
	}
	if req.Limit > maxPageSize {
		req.Limit = maxPageSize
	}
	res, err := s.engine.FetchPage(ctx, req)
	if err != nil {
		return PageResult{}, err
	}
	for i, t := range res.Trips {
		res.Trips[i] = t.Redacted(req.Role)
	}
	return res, nil
}

// ValidateFilters rejects malformed filter sets before any fetch runs.
// Listings and reports share one filter contract, so both call it.
func ValidateFilters(f Filters) error {
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return fmt.Errorf("%w: date range is inverted", ErrValidation)
	}
	if f.Status != "" {
		if _, ok := ParseStatus(string(f.Status)); !ok {
			return fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
		}
	}
	return nil
}

func isParty(role types.Role, callerID types.ID, t Trip) bool {
	switch role {
	case types.RoleDispatcher:
		return t.DispatcherID == callerID
	case types.RoleDriver:
		return t.DriverID == callerID
	case types.RoleOwner:
		return t.TruckOwnerID == callerID
	case types.RoleCarrier:
		return t.CarrierID == callerID
	}
	return false
}
