// README: Trip handlers: create, get, list, edit, status transition, delete.
package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freightdesk/internal/http/middleware"
	"freightdesk/internal/modules/trip"
	"freightdesk/internal/types"
)

type TripHandler struct {
	trips *trip.Service
}

func NewTripHandler(svc *trip.Service) *TripHandler {
	return &TripHandler{trips: svc}
}

// tripPayload is the wire shape for create and edit. Money is cents.
type tripPayload struct {
	DriverID     string `json:"driver_id"`
	TruckID      string `json:"truck_id"`
	TrailerID    string `json:"trailer_id"`
	TruckOwnerID string `json:"truck_owner_id"`
	CarrierID    string `json:"carrier_id"`
	BrokerID     string `json:"broker_id"`

	ScheduledAt      string  `json:"scheduled_at"`
	PickupLocation   string  `json:"pickup_location"`
	DeliveryLocation string  `json:"delivery_location"`
	Miles            float64 `json:"miles"`
	DeadheadMiles    float64 `json:"deadhead_miles"`

	Currency          string `json:"currency"`
	RatePerMile       int64  `json:"rate_per_mile"`
	BrokerPayment     int64  `json:"broker_payment"`
	DriverPayment     int64  `json:"driver_payment"`
	TruckOwnerPayment int64  `json:"truck_owner_payment"`
	DispatcherPayment int64  `json:"dispatcher_payment"`
	DriverAdvance     int64  `json:"driver_advance"`
	FuelCost          int64  `json:"fuel_cost"`
	LumperValue       int64  `json:"lumper_value"`
	DetentionValue    int64  `json:"detention_value"`

	Notes string `json:"notes"`
}

func (p tripPayload) toTrip() (trip.Trip, error) {
	t := trip.Trip{
		DriverID:         types.ID(p.DriverID),
		TruckID:          types.ID(p.TruckID),
		TrailerID:        types.ID(p.TrailerID),
		TruckOwnerID:     types.ID(p.TruckOwnerID),
		CarrierID:        types.ID(p.CarrierID),
		BrokerID:         types.ID(p.BrokerID),
		PickupLocation:   p.PickupLocation,
		DeliveryLocation: p.DeliveryLocation,
		Miles:            p.Miles,
		DeadheadMiles:    p.DeadheadMiles,
		Notes:            p.Notes,
	}
	cur := p.Currency
	if cur == "" {
		cur = "USD"
	}
	money := func(cents int64) types.Money { return types.Money{Amount: cents, Currency: cur} }
	t.RatePerMile = money(p.RatePerMile)
	t.BrokerPayment = money(p.BrokerPayment)
	t.DriverPayment = money(p.DriverPayment)
	t.TruckOwnerPayment = money(p.TruckOwnerPayment)
	t.DispatcherPayment = money(p.DispatcherPayment)
	t.DriverAdvance = money(p.DriverAdvance)
	t.FuelCost = money(p.FuelCost)
	t.LumperValue = money(p.LumperValue)
	t.DetentionValue = money(p.DetentionValue)

	if p.ScheduledAt != "" {
		ts, err := time.Parse(time.RFC3339, p.ScheduledAt)
		if err != nil {
			return trip.Trip{}, fmt.Errorf("%w: bad scheduled_at", trip.ErrValidation)
		}
		t.ScheduledAt = ts
	}
	return t, nil
}

func (h *TripHandler) Create(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)
	if claims.Role != types.RoleDispatcher {
		c.JSON(http.StatusForbidden, gin.H{"error": "only dispatchers create trips"})
		return
	}
	var p tripPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	t, err := p.toTrip()
	if err != nil {
		writeError(c, err)
		return
	}
	created, err := h.trips.Create(c.Request.Context(), trip.CreateCommand{
		Dispatcher: claims.Subject,
		Trip:       t,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *TripHandler) Get(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)
	t, err := h.trips.Get(c.Request.Context(), claims.Role, claims.Subject, types.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TripHandler) List(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)
	filters, err := parseFilters(c)
	if err != nil {
		writeError(c, err)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil || limit < 1 {
			writeError(c, fmt.Errorf("%w: bad limit", trip.ErrValidation))
			return
		}
	}

	res, err := h.trips.List(c.Request.Context(), trip.PageRequest{
		Role:     claims.Role,
		CallerID: claims.Subject,
		Filters:  filters,
		Limit:    limit,
		Cursor:   c.Query("cursor"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	body := gin.H{"trips": res.Trips}
	if res.Trips == nil {
		body["trips"] = []trip.Trip{}
	}
	if res.NextCursor != "" {
		body["next_cursor"] = res.NextCursor
	}
	if res.Partial {
		body["partial"] = true
	}
	c.JSON(http.StatusOK, body)
}

func (h *TripHandler) Update(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)
	if claims.Role != types.RoleDispatcher {
		c.JSON(http.StatusForbidden, gin.H{"error": "only dispatchers edit trips"})
		return
	}
	var p tripPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	t, err := p.toTrip()
	if err != nil {
		writeError(c, err)
		return
	}
	t.ID = types.ID(c.Param("id"))
	updated, err := h.trips.Update(c.Request.Context(), trip.UpdateCommand{
		Dispatcher: claims.Subject,
		Trip:       t,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type statusReq struct {
	Status string `json:"status"`
}

func (h *TripHandler) UpdateStatus(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	to, ok := trip.ParseStatus(req.Status)
	if !ok {
		writeError(c, fmt.Errorf("%w: unknown status %q", trip.ErrValidation, req.Status))
		return
	}
	t, err := h.trips.UpdateStatus(c.Request.Context(), trip.StatusCommand{
		TripID:   types.ID(c.Param("id")),
		CallerID: claims.Subject,
		Role:     claims.Role,
		To:       to,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TripHandler) Delete(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)
	if err := h.trips.Delete(c.Request.Context(), claims.Role, claims.Subject, types.ID(c.Param("id"))); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// parseFilters reads the shared listing/report filter params.
func parseFilters(c *gin.Context) (trip.Filters, error) {
	var f trip.Filters
	start, err := parseTimeParam(c.Query("start_date"), false)
	if err != nil {
		return f, fmt.Errorf("%w: bad start_date", trip.ErrValidation)
	}
	end, err := parseTimeParam(c.Query("end_date"), true)
	if err != nil {
		return f, fmt.Errorf("%w: bad end_date", trip.ErrValidation)
	}
	f.Start = start
	f.End = end
	f.Broker = types.ID(c.Query("broker_id"))
	f.Driver = types.ID(c.Query("driver_id"))
	f.Truck = types.ID(c.Query("equipment_id"))
	f.DriverName = c.Query("driver_name")
	if raw := c.Query("status"); raw != "" {
		st, ok := trip.ParseStatus(raw)
		if !ok {
			return f, fmt.Errorf("%w: unknown status %q", trip.ErrValidation, raw)
		}
		f.Status = st
	}
	return f, nil
}
