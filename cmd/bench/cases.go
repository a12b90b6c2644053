// README: Smoke-check cases; covers env wiring, trip lifecycle, cursor paging, and report identities.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		start := time.Now()
		res := tc.Run(ctx, r)
		if res.Latency == 0 {
			res.Latency = time.Since(start)
		}
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s (%s)", res.Status, res.Name, res.Latency.Round(time.Millisecond))
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return fail("db not configured")
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return fail(err.Error())
				}
				return pass("")
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return skip("redis not configured")
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return fail(err.Error())
				}
				return pass("")
			},
		},
		{
			Name: "Migration: apply (optional)",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return skip("pass -apply-migration to enable")
				}
				if r.db == nil {
					return fail("db not configured")
				}
				raw, err := os.ReadFile(r.cfg.MigrationPath)
				if err != nil {
					return fail(err.Error())
				}
				for _, stmt := range splitSQL(string(raw)) {
					if _, err := r.db.Exec(ctx, stmt); err != nil {
						return fail(err.Error())
					}
				}
				return pass("")
			},
		},
		{
			Name: "HTTP: health",
			Run: func(ctx context.Context, r *Runner) Result {
				status, _, err := r.do(ctx, http.MethodGet, "/health", "", nil)
				if err != nil {
					return fail(err.Error())
				}
				if status != http.StatusOK {
					return fail(fmt.Sprintf("status %d", status))
				}
				return pass("")
			},
		},
		{Name: "Trip: lifecycle and redaction", Run: tripLifecycle},
		{Name: "Trip: cursor walk without duplicates", Run: cursorWalk},
		{Name: "Report: profit identity", Run: reportIdentity},
	}
}

// tripLifecycle creates a trip as a dispatcher, walks the driver status
// chain, and checks that the driver never sees the broker payment.
func tripLifecycle(ctx context.Context, r *Runner) Result {
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	dispatcher := "bench-dsp-" + suffix
	driver := "bench-drv-" + suffix

	body := map[string]any{
		"driver_id":           driver,
		"broker_id":           "bench-brk-" + suffix,
		"truck_id":            "bench-trk-" + suffix,
		"pickup_location":     "Dallas, TX",
		"delivery_location":   "Atlanta, GA",
		"scheduled_at":        time.Now().UTC().Format(time.RFC3339),
		"broker_payment":      150000,
		"driver_payment":      90000,
		"truck_owner_payment": 30000,
		"currency":            "USD",
	}
	status, raw, err := r.do(ctx, http.MethodPost, "/api/trips", r.token(dispatcher, "dispatcher"), body)
	if err != nil {
		return fail(err.Error())
	}
	if status != http.StatusCreated {
		return fail(fmt.Sprintf("create status %d: %s", status, strings.TrimSpace(string(raw))))
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &created); err != nil || created.ID == "" {
		return fail("create response missing id")
	}

	drvToken := r.token(driver, "driver")
	status, raw, err = r.do(ctx, http.MethodGet, "/api/trips/"+created.ID, drvToken, nil)
	if err != nil {
		return fail(err.Error())
	}
	if status != http.StatusOK {
		return fail(fmt.Sprintf("driver get status %d", status))
	}
	var view struct {
		BrokerPayment struct {
			Amount int64 `json:"amount"`
		} `json:"broker_payment"`
	}
	_ = json.Unmarshal(raw, &view)
	if view.BrokerPayment.Amount != 0 {
		return fail("driver view leaked broker payment")
	}

	// Illegal jump first, then the legal chain.
	status, _, _ = r.do(ctx, http.MethodPost, "/api/trips/"+created.ID+"/status", drvToken, map[string]string{"status": "delivered"})
	if status != http.StatusConflict {
		return fail(fmt.Sprintf("expected 409 for scheduled->delivered, got %d", status))
	}
	for _, next := range []string{"picked_up", "in_transit", "delivered"} {
		status, raw, err = r.do(ctx, http.MethodPost, "/api/trips/"+created.ID+"/status", drvToken, map[string]string{"status": next})
		if err != nil {
			return fail(err.Error())
		}
		if status != http.StatusOK {
			return fail(fmt.Sprintf("transition to %s: status %d: %s", next, status, strings.TrimSpace(string(raw))))
		}
	}
	return pass("")
}

// cursorWalk creates five trips for one dispatcher and pages through them
// two at a time, checking that no trip id repeats across pages.
func cursorWalk(ctx context.Context, r *Runner) Result {
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	dispatcher := "bench-walk-" + suffix
	token := r.token(dispatcher, "dispatcher")

	base := time.Now().UTC().Add(-24 * time.Hour)
	for i := 0; i < 5; i++ {
		body := map[string]any{
			"driver_id":           fmt.Sprintf("walk-drv-%d-%s", i, suffix),
			"broker_id":           "walk-brk-" + suffix,
			"pickup_location":     "A",
			"delivery_location":   "B",
			"scheduled_at":        base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
			"broker_payment":      100,
			"driver_payment":      50,
			"truck_owner_payment": 25,
		}
		status, raw, err := r.do(ctx, http.MethodPost, "/api/trips", token, body)
		if err != nil {
			return fail(err.Error())
		}
		if status != http.StatusCreated {
			return fail(fmt.Sprintf("seed create status %d: %s", status, strings.TrimSpace(string(raw))))
		}
	}

	seen := map[string]bool{}
	cursor := ""
	for page := 0; page < 10; page++ {
		path := "/api/trips?limit=2"
		if cursor != "" {
			path += "&cursor=" + cursor
		}
		status, raw, err := r.do(ctx, http.MethodGet, path, token, nil)
		if err != nil {
			return fail(err.Error())
		}
		if status != http.StatusOK {
			return fail(fmt.Sprintf("list status %d", status))
		}
		var resp struct {
			Trips []struct {
				ID string `json:"id"`
			} `json:"trips"`
			NextCursor string `json:"next_cursor"`
		}
		if err := json.Unmarshal(raw, &resp); err != nil {
			return fail(err.Error())
		}
		for _, t := range resp.Trips {
			if seen[t.ID] {
				return fail("duplicate trip across pages: " + t.ID)
			}
			seen[t.ID] = true
		}
		if resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}
	if len(seen) < 5 {
		return fail(fmt.Sprintf("walk returned %d trips, want at least 5", len(seen)))
	}
	return pass(fmt.Sprintf("%d trips", len(seen)))
}

// reportIdentity seeds trips with known payments and checks the report
// totals satisfy profit = broker - driver - owner - fees.
func reportIdentity(ctx context.Context, r *Runner) Result {
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	dispatcher := "bench-rpt-" + suffix
	token := r.token(dispatcher, "dispatcher")

	payments := [][3]int64{{10000, 6000, 2000}, {20000, 12000, 4000}}
	for i, p := range payments {
		body := map[string]any{
			"driver_id":           fmt.Sprintf("rpt-drv-%d-%s", i, suffix),
			"broker_id":           "rpt-brk-" + suffix,
			"pickup_location":     "A",
			"delivery_location":   "B",
			"scheduled_at":        time.Now().UTC().Format(time.RFC3339),
			"broker_payment":      p[0],
			"driver_payment":      p[1],
			"truck_owner_payment": p[2],
			"lumper_value":        100,
		}
		status, raw, err := r.do(ctx, http.MethodPost, "/api/trips", token, body)
		if err != nil {
			return fail(err.Error())
		}
		if status != http.StatusCreated {
			return fail(fmt.Sprintf("seed create status %d: %s", status, strings.TrimSpace(string(raw))))
		}
	}

	status, raw, err := r.do(ctx, http.MethodGet, "/api/reports/payments", token, nil)
	if err != nil {
		return fail(err.Error())
	}
	if status != http.StatusOK {
		return fail(fmt.Sprintf("report status %d", status))
	}
	type cents struct {
		Amount int64 `json:"amount"`
	}
	var rep struct {
		Dispatcher *struct {
			TotalBrokerPayments     cents `json:"total_broker_payments"`
			TotalDriverPayments     cents `json:"total_driver_payments"`
			TotalOwnerPayments      cents `json:"total_owner_payments"`
			TotalDispatcherPayments cents `json:"total_dispatcher_payments"`
			TotalFees               cents `json:"total_fees"`
			Profit                  cents `json:"profit"`
		} `json:"dispatcher"`
	}
	if err := json.Unmarshal(raw, &rep); err != nil {
		return fail(err.Error())
	}
	if rep.Dispatcher == nil {
		return fail("report missing dispatcher section")
	}
	d := rep.Dispatcher
	want := d.TotalBrokerPayments.Amount - d.TotalDriverPayments.Amount - d.TotalOwnerPayments.Amount - d.TotalFees.Amount
	if d.Profit.Amount != want {
		return fail(fmt.Sprintf("profit %d, want %d", d.Profit.Amount, want))
	}
	return pass("")
}

func (r *Runner) do(ctx context.Context, method, path, token string, body any) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, rd)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	return resp.StatusCode, raw, err
}

// token mints a short-lived HS256 token the way the API expects one.
func (r *Runner) token(subject, role string) string {
	if r.cfg.JWTSecret == "" {
		return ""
	}
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(10 * time.Minute).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(r.cfg.JWTSecret))
	if err != nil {
		return ""
	}
	return tok
}

func pass(note string) Result { return Result{Status: "PASS", Note: note} }
func fail(note string) Result { return Result{Status: "FAIL", Note: note} }
func skip(note string) Result { return Result{Status: "SKIP", Note: note} }

func splitSQL(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
