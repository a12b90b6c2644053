// README: Role-shaped payment report types.
package report

import (
	"freightdesk/internal/modules/trip"
	"freightdesk/internal/types"
)

// GroupBy names the secondary reduction over the materialized trip set.
type GroupBy string

const (
	GroupNone       GroupBy = ""
	GroupBroker     GroupBy = "broker"
	GroupDriver     GroupBy = "driver"
	GroupEquipment  GroupBy = "equipment"
	GroupDispatcher GroupBy = "dispatcher"
)

func ParseGroupBy(s string) (GroupBy, bool) {
	switch GroupBy(s) {
	case GroupNone, GroupBroker, GroupDriver, GroupEquipment, GroupDispatcher:
		return GroupBy(s), true
	}
	return "", false
}

// Query is one report request.
type Query struct {
	Role     types.Role
	CallerID types.ID
	Filters  trip.Filters
	GroupBy  GroupBy
}

// Group is one row of a grouped breakdown: the grouping entity, its payment
// total, and how many trips it covers.
type Group struct {
	Key      types.ID    `json:"key"`
	Name     string      `json:"name,omitempty"`
	Payments types.Money `json:"payments"`
	Trips    int         `json:"trips"`
}

// TimelineBucket is one month of the dispatcher timeline.
type TimelineBucket struct {
	Month          string      `json:"month"` // YYYY-MM
	BrokerPayments types.Money `json:"broker_payments"`
	DriverPayments types.Money `json:"driver_payments"`
	OwnerPayments  types.Money `json:"owner_payments"`
	Trips          int         `json:"trips"`
}

// DispatcherReport carries the full financial roll-up. Profit is
// broker minus driver minus owner minus fees.
type DispatcherReport struct {
	TotalBrokerPayments     types.Money      `json:"total_broker_payments"`
	TotalDriverPayments     types.Money      `json:"total_driver_payments"`
	TotalOwnerPayments      types.Money      `json:"total_owner_payments"`
	TotalDispatcherPayments types.Money      `json:"total_dispatcher_payments"`
	TotalFees               types.Money      `json:"total_fees"`
	Profit                  types.Money      `json:"profit"`
	TripCount               int              `json:"trip_count"`
	TotalMiles              float64          `json:"total_miles"`
	Timeline                []TimelineBucket `json:"timeline"`
	Groups                  []Group          `json:"groups,omitempty"`
	Trips                   []trip.Trip      `json:"trips"`
}

// DriverReport shows a driver their own earnings and distance, nothing else.
type DriverReport struct {
	TotalDriverPayments types.Money `json:"total_driver_payments"`
	TotalAdvances       types.Money `json:"total_advances"`
	TotalMiles          float64     `json:"total_miles"`
	TripCount           int         `json:"trip_count"`
	Trips               []trip.Trip `json:"trips"`
}

// OwnerReport shows an equipment owner their own payment total.
type OwnerReport struct {
	TotalOwnerPayments types.Money `json:"total_owner_payments"`
	TripCount          int         `json:"trip_count"`
	Trips              []trip.Trip `json:"trips"`
}

// CarrierReport is operational only: no payment fields cross this boundary.
type CarrierReport struct {
	TripCount  int         `json:"trip_count"`
	TotalMiles float64     `json:"total_miles"`
	Trips      []trip.Trip `json:"trips"`
}

// Report is the role-shaped union; exactly one variant is set.
type Report struct {
	Role       types.Role        `json:"role"`
	Dispatcher *DispatcherReport `json:"dispatcher,omitempty"`
	Driver     *DriverReport     `json:"driver,omitempty"`
	Owner      *OwnerReport      `json:"owner,omitempty"`
	Carrier    *CarrierReport    `json:"carrier,omitempty"`
}
