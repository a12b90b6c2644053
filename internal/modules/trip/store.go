// README: Trip store backed by PostgreSQL; primary rows plus explicit index-key
// projections maintained in the same transaction, queried by partition + sort range.
package trip

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"freightdesk/internal/types"
)

// QueryInput is one range query against a partitioned secondary index.
// Scans run descending by sort key (newest scheduled first).
type QueryInput struct {
	Index        IndexID
	PartitionKey string
	// SortLow/SortHigh are inclusive bounds; empty means unbounded on that side.
	SortLow  string
	SortHigh string
	// StartBefore is the exclusive upper bound carried over from a
	// continuation token; the scan resumes strictly below it.
	StartBefore string
	Limit       int
}

// Item pairs a fetched trip with the sort key it was found under.
type Item struct {
	Trip    Trip
	SortKey string
}

// QueryOutput is one page plus the store's native continuation token,
// empty when the range is exhausted.
type QueryOutput struct {
	Items []Item
	Next  string
}

// Querier is the read contract the fetch loop drives. Separate from Store so
// the engine can be exercised against an in-memory fake.
type Querier interface {
	Query(ctx context.Context, in QueryInput) (QueryOutput, error)
}

// Store is the persistence contract for trips. Put rewrites every index
// projection alongside the row, which is what keeps the derived keys from
// going stale when a scoping field changes.
type Store interface {
	Querier
	Put(ctx context.Context, t Trip) error
	Get(ctx context.Context, id types.ID) (Trip, error)
	Delete(ctx context.Context, id types.ID) error
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const tripColumns = `
	t.id, t.dispatcher_id, t.driver_id, t.truck_id, t.trailer_id,
	t.truck_owner_id, t.carrier_id, t.broker_id, t.status,
	t.scheduled_at, t.picked_up_at, t.delivered_at,
	t.pickup_location, t.delivery_location, t.miles, t.deadhead_miles,
	t.rate_per_mile, t.broker_payment, t.driver_payment,
	t.truck_owner_payment, t.dispatcher_payment, t.driver_advance,
	t.fuel_cost, t.lumper_value, t.detention_value, t.currency,
	t.notes, t.created_at, t.updated_at`

// Put upserts the trip row and rewrites its index projections in one
// transaction. Projections are recomputed from the trip's current fields,
// never patched in place.
func (s *PGStore) Put(ctx context.Context, t Trip) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO trips (
			id, dispatcher_id, driver_id, truck_id, trailer_id,
			truck_owner_id, carrier_id, broker_id, status,
			scheduled_at, picked_up_at, delivered_at,
			pickup_location, delivery_location, miles, deadhead_miles,
			rate_per_mile, broker_payment, driver_payment,
			truck_owner_payment, dispatcher_payment, driver_advance,
			fuel_cost, lumper_value, detention_value, currency,
			notes, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
			$27, $28, $29
		)
		ON CONFLICT (id) DO UPDATE SET
			dispatcher_id = EXCLUDED.dispatcher_id,
			driver_id = EXCLUDED.driver_id,
			truck_id = EXCLUDED.truck_id,
			trailer_id = EXCLUDED.trailer_id,
			truck_owner_id = EXCLUDED.truck_owner_id,
			carrier_id = EXCLUDED.carrier_id,
			broker_id = EXCLUDED.broker_id,
			status = EXCLUDED.status,
			scheduled_at = EXCLUDED.scheduled_at,
			picked_up_at = EXCLUDED.picked_up_at,
			delivered_at = EXCLUDED.delivered_at,
			pickup_location = EXCLUDED.pickup_location,
			delivery_location = EXCLUDED.delivery_location,
			miles = EXCLUDED.miles,
			deadhead_miles = EXCLUDED.deadhead_miles,
			rate_per_mile = EXCLUDED.rate_per_mile,
			broker_payment = EXCLUDED.broker_payment,
			driver_payment = EXCLUDED.driver_payment,
			truck_owner_payment = EXCLUDED.truck_owner_payment,
			dispatcher_payment = EXCLUDED.dispatcher_payment,
			driver_advance = EXCLUDED.driver_advance,
			fuel_cost = EXCLUDED.fuel_cost,
			lumper_value = EXCLUDED.lumper_value,
			detention_value = EXCLUDED.detention_value,
			currency = EXCLUDED.currency,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at`,
		string(t.ID), string(t.DispatcherID), string(t.DriverID), string(t.TruckID), string(t.TrailerID),
		string(t.TruckOwnerID), string(t.CarrierID), string(t.BrokerID), string(t.Status),
		t.ScheduledAt, t.PickedUpAt, t.DeliveredAt,
		t.PickupLocation, t.DeliveryLocation, t.Miles, t.DeadheadMiles,
		t.RatePerMile.Amount, t.BrokerPayment.Amount, t.DriverPayment.Amount,
		t.TruckOwnerPayment.Amount, t.DispatcherPayment.Amount, t.DriverAdvance.Amount,
		t.FuelCost.Amount, t.LumperValue.Amount, t.DetentionValue.Amount, currencyOf(t),
		t.Notes, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("trip store: put row: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM trip_index_keys WHERE trip_id = $1`, string(t.ID)); err != nil {
		return fmt.Errorf("trip store: clear index keys: %w", err)
	}
	for idx, kp := range DeriveIndexKeys(t) {
		_, err := tx.Exec(ctx, `
			INSERT INTO trip_index_keys (index_id, partition_key, sort_key, trip_id)
			VALUES ($1, $2, $3, $4)`,
			string(idx), kp.PartitionKey, kp.SortKey, string(t.ID),
		)
		if err != nil {
			return fmt.Errorf("trip store: write index key %s: %w", idx, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (Trip, error) {
	row := s.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips t WHERE t.id = $1`, string(id))
	t, err := scanTrip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Trip{}, ErrNotFound
	}
	if err != nil {
		return Trip{}, fmt.Errorf("trip store: get: %w", err)
	}
	return t, nil
}

func (s *PGStore) Delete(ctx context.Context, id types.ID) error {
	// trip_index_keys rows go with the trip via ON DELETE CASCADE.
	tag, err := s.db.Exec(ctx, `DELETE FROM trips WHERE id = $1`, string(id))
	if err != nil {
		return fmt.Errorf("trip store: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Query runs one descending range scan within a partition. It fetches one
// row beyond the limit to decide whether a continuation token is due; the
// token is the sort key of the last row returned, used as an exclusive
// bound by the next call.
func (s *PGStore) Query(ctx context.Context, in QueryInput) (QueryOutput, error) {
	if in.Limit <= 0 {
		return QueryOutput{}, fmt.Errorf("trip store: query limit must be positive")
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+tripColumns+`, k.sort_key
		FROM trip_index_keys k
		JOIN trips t ON t.id = k.trip_id
		WHERE k.index_id = $1
		  AND k.partition_key = $2
		  AND ($3 = '' OR k.sort_key >= $3)
		  AND ($4 = '' OR k.sort_key <= $4)
		  AND ($5 = '' OR k.sort_key < $5)
		ORDER BY k.sort_key DESC
		LIMIT $6`,
		string(in.Index), in.PartitionKey, in.SortLow, in.SortHigh, in.StartBefore, in.Limit+1,
	)
	if err != nil {
		return QueryOutput{}, fmt.Errorf("trip store: query %s: %w", in.Index, err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		it.Trip, it.SortKey, err = scanTripWithKey(rows)
		if err != nil {
			return QueryOutput{}, fmt.Errorf("trip store: scan: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return QueryOutput{}, fmt.Errorf("trip store: rows: %w", err)
	}

	out := QueryOutput{Items: items}
	if len(items) > in.Limit {
		out.Items = items[:in.Limit]
		out.Next = out.Items[in.Limit-1].SortKey
	}
	return out, nil
}

func currencyOf(t Trip) string {
	for _, m := range []types.Money{
		t.BrokerPayment, t.DriverPayment, t.TruckOwnerPayment,
		t.DispatcherPayment, t.RatePerMile,
	} {
		if m.Currency != "" {
			return m.Currency
		}
	}
	return "USD"
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTrip(s scanner) (Trip, error) {
	t, _, err := scanInto(s, false)
	return t, err
}

func scanTripWithKey(s scanner) (Trip, string, error) {
	return scanInto(s, true)
}

func scanInto(s scanner, withKey bool) (Trip, string, error) {
	var (
		t                      Trip
		id, dispatcherID       string
		driverID, truckID      string
		trailerID, ownerID     string
		carrierID, brokerID    string
		status, currency       string
		pickedUp, delivered    sql.NullTime
		ratePerMile            int64
		brokerPay, driverPay   int64
		ownerPay, dispatchPay  int64
		advance, fuel          int64
		lumper, detention      int64
		sortKey                string
	)

	dest := []any{
		&id, &dispatcherID, &driverID, &truckID, &trailerID,
		&ownerID, &carrierID, &brokerID, &status,
		&t.ScheduledAt, &pickedUp, &delivered,
		&t.PickupLocation, &t.DeliveryLocation, &t.Miles, &t.DeadheadMiles,
		&ratePerMile, &brokerPay, &driverPay,
		&ownerPay, &dispatchPay, &advance,
		&fuel, &lumper, &detention, &currency,
		&t.Notes, &t.CreatedAt, &t.UpdatedAt,
	}
	if withKey {
		dest = append(dest, &sortKey)
	}
	if err := s.Scan(dest...); err != nil {
		return Trip{}, "", err
	}

	t.ID = types.ID(id)
	t.DispatcherID = types.ID(dispatcherID)
	t.DriverID = types.ID(driverID)
	t.TruckID = types.ID(truckID)
	t.TrailerID = types.ID(trailerID)
	t.TruckOwnerID = types.ID(ownerID)
	t.CarrierID = types.ID(carrierID)
	t.BrokerID = types.ID(brokerID)
	t.Status = Status(status)
	if pickedUp.Valid {
		ts := pickedUp.Time
		t.PickedUpAt = &ts
	}
	if delivered.Valid {
		ts := delivered.Time
		t.DeliveredAt = &ts
	}
	money := func(cents int64) types.Money { return types.Money{Amount: cents, Currency: currency} }
	t.RatePerMile = money(ratePerMile)
	t.BrokerPayment = money(brokerPay)
	t.DriverPayment = money(driverPay)
	t.TruckOwnerPayment = money(ownerPay)
	t.DispatcherPayment = money(dispatchPay)
	t.DriverAdvance = money(advance)
	t.FuelCost = money(fuel)
	t.LumperValue = money(lumper)
	t.DetentionValue = money(detention)
	return t, sortKey, nil
}
