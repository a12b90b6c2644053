// README: Trip aggregate, lifecycle statuses, and the role transition rules.
package trip

import (
	"strings"
	"time"

	"freightdesk/internal/types"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusPickedUp  Status = "picked_up"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusPaid      Status = "paid"
	StatusCanceled  Status = "canceled"
)

// ParseStatus maps an incoming string onto a known Status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusScheduled, StatusPickedUp, StatusInTransit, StatusDelivered, StatusPaid, StatusCanceled:
		return Status(s), true
	}
	return "", false
}

// Trip is the unit of work: one load hauled between pickup and delivery.
// Foreign identifiers are opaque; the store does not enforce them.
type Trip struct {
	ID           types.ID `json:"id"`
	DispatcherID types.ID `json:"dispatcher_id"`
	DriverID     types.ID `json:"driver_id,omitempty"`
	TruckID      types.ID `json:"truck_id,omitempty"`
	TrailerID    types.ID `json:"trailer_id,omitempty"`
	TruckOwnerID types.ID `json:"truck_owner_id,omitempty"`
	CarrierID    types.ID `json:"carrier_id,omitempty"`
	BrokerID     types.ID `json:"broker_id,omitempty"`

	Status      Status     `json:"status"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	PickedUpAt  *time.Time `json:"picked_up_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`

	PickupLocation   string  `json:"pickup_location,omitempty"`
	DeliveryLocation string  `json:"delivery_location,omitempty"`
	Miles            float64 `json:"miles"`
	DeadheadMiles    float64 `json:"deadhead_miles"`

	RatePerMile       types.Money `json:"rate_per_mile"`
	BrokerPayment     types.Money `json:"broker_payment"`
	DriverPayment     types.Money `json:"driver_payment"`
	TruckOwnerPayment types.Money `json:"truck_owner_payment"`
	DispatcherPayment types.Money `json:"dispatcher_payment"`
	DriverAdvance     types.Money `json:"driver_advance"`
	FuelCost          types.Money `json:"fuel_cost"`
	LumperValue       types.Money `json:"lumper_value"`
	DetentionValue    types.Money `json:"detention_value"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// driverNext is the strict forward chain a driver may walk. Paid and
// Scheduled are never driver-settable; Canceled has no entry, so a driver
// can neither cancel nor revive a trip.
var driverNext = map[Status]Status{
	StatusScheduled: StatusPickedUp,
	StatusPickedUp:  StatusInTransit,
	StatusInTransit: StatusDelivered,
}

// CanTransition reports whether role may move a trip from one status to
// another. Dispatchers are unrestricted and may skip or revert; drivers are
// held to the forward chain.
func CanTransition(role types.Role, from, to Status) bool {
	switch role {
	case types.RoleDispatcher:
		return true
	case types.RoleDriver:
		return driverNext[from] == to
	default:
		return false
	}
}

// ApplyStatus sets the status and stamps pickup/delivery times on the first
// entry into the corresponding state. Stamps are never overwritten, no
// matter how many further transitions touch the same state.
func (t *Trip) ApplyStatus(to Status, now time.Time) {
	t.Status = to
	if to == StatusPickedUp && t.PickedUpAt == nil {
		ts := now
		t.PickedUpAt = &ts
	}
	if to == StatusDelivered && t.DeliveredAt == nil {
		ts := now
		t.DeliveredAt = &ts
	}
}

// Fees is the sum of the per-trip fee fields, the deduction term of the
// dispatcher profit identity.
func (t Trip) Fees() types.Money {
	return t.LumperValue.Add(t.DetentionValue)
}

// Validate enforces the creation/update invariants: the three required
// payments strictly positive, every money and mileage field non-negative,
// and no id touching the reserved sort-key characters.
func (t Trip) Validate() error {
	if t.DispatcherID.IsZero() {
		return ErrValidation
	}
	if t.ScheduledAt.IsZero() {
		return ErrValidation
	}
	for _, id := range []types.ID{
		t.ID, t.DispatcherID, t.DriverID, t.TruckID, t.TrailerID,
		t.TruckOwnerID, t.CarrierID, t.BrokerID,
	} {
		// '#' separates composite sort keys and '~' closes range bounds;
		// an id carrying either would land inside another entity's range.
		if strings.ContainsAny(string(id), "#~") {
			return ErrValidation
		}
	}
	if !t.BrokerPayment.IsPositive() || !t.DriverPayment.IsPositive() || !t.TruckOwnerPayment.IsPositive() {
		return ErrValidation
	}
	for _, m := range []types.Money{
		t.RatePerMile, t.DispatcherPayment, t.DriverAdvance,
		t.FuelCost, t.LumperValue, t.DetentionValue,
	} {
		if m.IsNegative() {
			return ErrValidation
		}
	}
	if t.Miles < 0 || t.DeadheadMiles < 0 {
		return ErrValidation
	}
	return nil
}

// Redacted returns a copy shaped for the caller's role. Drivers and owners
// see only their own payment; carriers see no payments at all. Dispatchers
// see everything.
func (t Trip) Redacted(role types.Role) Trip {
	if role == types.RoleDispatcher {
		return t
	}
	out := t
	out.BrokerPayment = types.Money{}
	out.DriverPayment = types.Money{}
	out.TruckOwnerPayment = types.Money{}
	out.DispatcherPayment = types.Money{}
	out.LumperValue = types.Money{}
	out.DetentionValue = types.Money{}
	out.FuelCost = types.Money{}
	out.RatePerMile = types.Money{}
	out.DriverAdvance = types.Money{}
	switch role {
	case types.RoleDriver:
		out.DriverPayment = t.DriverPayment
		out.DriverAdvance = t.DriverAdvance
	case types.RoleOwner:
		out.TruckOwnerPayment = t.TruckOwnerPayment
	}
	return out
}
