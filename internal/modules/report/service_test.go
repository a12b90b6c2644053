// README: Aggregation engine tests; totals, timeline buckets, groupings, role shaping.
package report

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"

	"freightdesk/internal/config"
	"freightdesk/internal/modules/trip"
	"freightdesk/internal/types"
)

// tripQuerier serves a fixed trip set through the same range-scan contract
// the fetch engine drives in production.
type tripQuerier struct {
	trips []trip.Trip
}

func (q *tripQuerier) Query(_ context.Context, in trip.QueryInput) (trip.QueryOutput, error) {
	var items []trip.Item
	for _, t := range q.trips {
		kp, ok := trip.DeriveIndexKeys(t)[in.Index]
		if !ok || kp.PartitionKey != in.PartitionKey {
			continue
		}
		if in.SortLow != "" && kp.SortKey < in.SortLow {
			continue
		}
		if in.SortHigh != "" && kp.SortKey > in.SortHigh {
			continue
		}
		if in.StartBefore != "" && kp.SortKey >= in.StartBefore {
			continue
		}
		items = append(items, trip.Item{Trip: t, SortKey: kp.SortKey})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SortKey > items[j].SortKey })
	if in.Limit > 0 && len(items) > in.Limit {
		items = items[:in.Limit]
		return trip.QueryOutput{Items: items, Next: items[len(items)-1].SortKey}, nil
	}
	return trip.QueryOutput{Items: items}, nil
}

type staticNames map[types.ID]string

func (n staticNames) Names(_ context.Context, ids []types.ID) map[types.ID]string {
	out := make(map[types.ID]string)
	for _, id := range ids {
		if name, ok := n[id]; ok {
			out[id] = name
		}
	}
	return out
}

func newTestService(trips []trip.Trip, names NameResolver) *Service {
	eng := trip.NewEngine(&tripQuerier{trips: trips}, config.EngineConfig{}, zap.NewNop())
	return NewService(eng, names, zap.NewNop())
}

func usd(cents int64) types.Money {
	return types.Money{Amount: cents, Currency: "USD"}
}

func seedTrip(id types.ID, month time.Month, broker, driver, owner int64) trip.Trip {
	return trip.Trip{
		ID:                id,
		DispatcherID:      "dsp1",
		DriverID:          "drv1",
		TruckOwnerID:      "own1",
		CarrierID:         "car1",
		Status:            trip.StatusDelivered,
		ScheduledAt:       time.Date(2026, month, 10, 8, 0, 0, 0, time.UTC),
		BrokerPayment:     usd(broker),
		DriverPayment:     usd(driver),
		TruckOwnerPayment: usd(owner),
	}
}

func TestDispatcherReportTotalsAndTimeline(t *testing.T) {
	trips := []trip.Trip{
		seedTrip("t1", time.January, 10000, 1000, 500),
		seedTrip("t2", time.January, 20000, 2000, 500),
		seedTrip("t3", time.February, 30000, 3000, 500),
	}
	trips[0].LumperValue = usd(100)
	trips[2].DetentionValue = usd(200)

	svc := newTestService(trips, nil)
	rep, err := svc.Build(context.Background(), Query{Role: types.RoleDispatcher, CallerID: "dsp1"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	d := rep.Dispatcher
	if d == nil {
		t.Fatal("dispatcher section missing")
	}

	if d.TotalBrokerPayments.Amount != 60000 {
		t.Errorf("broker total = %d, want 60000", d.TotalBrokerPayments.Amount)
	}
	if d.TotalDriverPayments.Amount != 6000 {
		t.Errorf("driver total = %d, want 6000", d.TotalDriverPayments.Amount)
	}
	if d.TotalFees.Amount != 300 {
		t.Errorf("fees = %d, want 300", d.TotalFees.Amount)
	}
	wantProfit := d.TotalBrokerPayments.Amount - d.TotalDriverPayments.Amount - d.TotalOwnerPayments.Amount - d.TotalFees.Amount
	if d.Profit.Amount != wantProfit {
		t.Errorf("profit = %d, want %d", d.Profit.Amount, wantProfit)
	}
	if d.TripCount != 3 {
		t.Errorf("trip count = %d", d.TripCount)
	}

	if len(d.Timeline) != 2 {
		t.Fatalf("timeline has %d buckets, want 2", len(d.Timeline))
	}
	if d.Timeline[0].Month != "2026-01" || d.Timeline[1].Month != "2026-02" {
		t.Errorf("bucket order = %s, %s", d.Timeline[0].Month, d.Timeline[1].Month)
	}
	if d.Timeline[0].Trips != 2 || d.Timeline[1].Trips != 1 {
		t.Errorf("bucket counts = %d, %d", d.Timeline[0].Trips, d.Timeline[1].Trips)
	}
	var bucketBroker int64
	for _, b := range d.Timeline {
		bucketBroker += b.BrokerPayments.Amount
	}
	if bucketBroker != d.TotalBrokerPayments.Amount {
		t.Errorf("bucket broker sum %d does not reconcile with total %d", bucketBroker, d.TotalBrokerPayments.Amount)
	}
}

func TestDispatcherReportGroupsByBroker(t *testing.T) {
	t1 := seedTrip("t1", time.March, 10000, 1000, 500)
	t1.BrokerID = "brkA"
	t2 := seedTrip("t2", time.March, 25000, 1000, 500)
	t2.BrokerID = "brkB"
	t3 := seedTrip("t3", time.March, 5000, 1000, 500)
	t3.BrokerID = "brkA"

	svc := newTestService([]trip.Trip{t1, t2, t3}, staticNames{"brkA": "Acme Logistics"})
	rep, err := svc.Build(context.Background(), Query{Role: types.RoleDispatcher, CallerID: "dsp1", GroupBy: GroupBroker})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	groups := rep.Dispatcher.Groups
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	// Sorted by payments descending: brkB (25000) above brkA (15000).
	if groups[0].Key != "brkB" || groups[0].Payments.Amount != 25000 {
		t.Errorf("top group = %+v", groups[0])
	}
	if groups[1].Key != "brkA" || groups[1].Payments.Amount != 15000 || groups[1].Trips != 2 {
		t.Errorf("second group = %+v", groups[1])
	}
	if groups[1].Name != "Acme Logistics" {
		t.Errorf("name enrichment missing: %+v", groups[1])
	}
	if groups[0].Name != "" {
		t.Errorf("unknown broker got a name: %+v", groups[0])
	}
}

func TestDriverReportShapesAndRedacts(t *testing.T) {
	t1 := seedTrip("t1", time.March, 10000, 1000, 500)
	t1.DriverAdvance = usd(250)
	t1.Miles = 480

	svc := newTestService([]trip.Trip{t1}, nil)
	rep, err := svc.Build(context.Background(), Query{Role: types.RoleDriver, CallerID: "drv1"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	d := rep.Driver
	if d == nil {
		t.Fatal("driver section missing")
	}
	if d.TotalDriverPayments.Amount != 1000 || d.TotalAdvances.Amount != 250 || d.TotalMiles != 480 {
		t.Errorf("driver totals = %+v", d)
	}
	if len(d.Trips) != 1 {
		t.Fatalf("trips = %d", len(d.Trips))
	}
	if d.Trips[0].BrokerPayment.Amount != 0 {
		t.Error("driver report leaked broker payment")
	}
	if d.Trips[0].DriverPayment.Amount != 1000 {
		t.Error("driver report lost the driver's own payment")
	}
}

func TestOwnerAndCarrierReports(t *testing.T) {
	t1 := seedTrip("t1", time.March, 10000, 1000, 750)
	t1.Miles = 120

	svc := newTestService([]trip.Trip{t1}, nil)

	rep, err := svc.Build(context.Background(), Query{Role: types.RoleOwner, CallerID: "own1"})
	if err != nil {
		t.Fatalf("owner build: %v", err)
	}
	if rep.Owner == nil || rep.Owner.TotalOwnerPayments.Amount != 750 {
		t.Errorf("owner report = %+v", rep.Owner)
	}
	if rep.Owner.Trips[0].DriverPayment.Amount != 0 {
		t.Error("owner report leaked driver payment")
	}

	rep, err = svc.Build(context.Background(), Query{Role: types.RoleCarrier, CallerID: "car1"})
	if err != nil {
		t.Fatalf("carrier build: %v", err)
	}
	if rep.Carrier == nil || rep.Carrier.TotalMiles != 120 || rep.Carrier.TripCount != 1 {
		t.Errorf("carrier report = %+v", rep.Carrier)
	}
	if rep.Carrier.Trips[0].BrokerPayment.Amount != 0 || rep.Carrier.Trips[0].TruckOwnerPayment.Amount != 0 {
		t.Error("carrier report leaked payments")
	}
}

func TestBuildRejectsUnknownGroupBy(t *testing.T) {
	svc := newTestService(nil, nil)
	_, err := svc.Build(context.Background(), Query{Role: types.RoleDispatcher, CallerID: "dsp1", GroupBy: "color"})
	if !errors.Is(err, trip.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestBuildRejectsMalformedFilters(t *testing.T) {
	svc := newTestService(nil, nil)
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	_, err := svc.Build(context.Background(), Query{
		Role:     types.RoleDispatcher,
		CallerID: "dsp1",
		Filters:  trip.Filters{Start: &start, End: &end},
	})
	if !errors.Is(err, trip.ErrValidation) {
		t.Errorf("inverted range: err = %v, want ErrValidation", err)
	}
}

func TestBuildHonorsFilters(t *testing.T) {
	t1 := seedTrip("t1", time.January, 10000, 1000, 500)
	t2 := seedTrip("t2", time.June, 20000, 2000, 500)

	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestService([]trip.Trip{t1, t2}, nil)
	rep, err := svc.Build(context.Background(), Query{
		Role:     types.RoleDispatcher,
		CallerID: "dsp1",
		Filters:  trip.Filters{Start: &start},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if rep.Dispatcher.TripCount != 1 || rep.Dispatcher.TotalBrokerPayments.Amount != 20000 {
		t.Errorf("filtered report = count %d, broker %d", rep.Dispatcher.TripCount, rep.Dispatcher.TotalBrokerPayments.Amount)
	}
}
