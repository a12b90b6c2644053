// README: Batch fetch loop; drives range scans until the page fills, the range
// exhausts, or a budget trips — then reconciles the caller-facing cursor.
package trip

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"freightdesk/internal/config"
	"freightdesk/internal/types"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageRequest is one paginated listing request.
type PageRequest struct {
	Role     types.Role
	CallerID types.ID
	Filters  Filters
	Limit    int
	Cursor   string
}

// PageResult is the caller-facing page. Partial marks a best-effort page cut
// short by a scan budget; that is a success with a warning, never an error.
type PageResult struct {
	Trips      []Trip
	NextCursor string
	Partial    bool
	IndexUsed  IndexID
}

// Engine owns the scan budgets and the store handle. It holds no state
// across requests; every call works from request-scoped locals.
type Engine struct {
	store Querier
	cfg   config.EngineConfig
	log   *zap.Logger
	now   func() time.Time
}

func NewEngine(store Querier, cfg config.EngineConfig, log *zap.Logger) *Engine {
	if cfg.MaxBatches <= 0 {
		cfg.MaxBatches = 10
	}
	if cfg.BatchBudget <= 0 {
		cfg.BatchBudget = 10 * time.Second
	}
	if cfg.FilterBatch <= 0 {
		cfg.FilterBatch = 250
	}
	if cfg.AggregatePage <= 0 {
		cfg.AggregatePage = 1000
	}
	if cfg.AggregateCap <= 0 {
		cfg.AggregateCap = 10000
	}
	return &Engine{store: store, cfg: cfg, log: log, now: time.Now}
}

// FetchPage selects an index, pages through it until the requested page size
// is met post-filter, and emits the continuation cursor.
//
// The loop exists because the application filter may discard most of a
// store page; a single range query could come back short even though more
// matching data sits further down the scan.
func (e *Engine) FetchPage(ctx context.Context, req PageRequest) (PageResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	sel := SelectIndex(req.Role, req.CallerID, req.Filters)
	residual := req.Filters.Residual(sel.Index)

	var startBefore string
	hasCursor := req.Cursor != ""
	if hasCursor {
		cur, err := DecodeCursor(req.Cursor)
		if err != nil {
			return PageResult{}, err
		}
		if err := cur.ValidateFor(sel); err != nil {
			return PageResult{}, err
		}
		startBefore = cur.SortKey
	}

	// No residual filters means the index key range already expresses the
	// whole query: fetch exactly one page worth. With residual filters the
	// batch is widened to amortize round trips against the discard rate.
	batch := limit
	if residual.Discards() {
		batch = e.cfg.FilterBatch
		if batch < limit {
			batch = limit
		}
	}

	started := e.now()
	acc := make([]Trip, 0, limit)
	var (
		batches    int
		fellBack   bool
		overflowed bool // a post-filter match beyond the page size was seen
		lastNext   string
	)

	for {
		if err := ctx.Err(); err != nil {
			// Client gone; the path is read-only, so partial accumulation
			// is simply discarded.
			return PageResult{}, err
		}

		out, err := e.store.Query(ctx, QueryInput{
			Index:        sel.Index,
			PartitionKey: sel.PartitionKey,
			SortLow:      sel.SortLow,
			SortHigh:     sel.SortHigh,
			StartBefore:  startBefore,
			Limit:        batch,
		})
		if err != nil {
			def := DefaultSelection(req.Role, req.CallerID, req.Filters)
			if !fellBack && sel.Index != def.Index && !hasCursor {
				// One-shot degradation to the role default. A cursor pins
				// the request to the index it was minted on, so only the
				// first page may degrade.
				e.log.Warn("scoped index query failed, degrading to default index",
					zap.String("failed_index", string(sel.Index)),
					zap.String("fallback_index", string(def.Index)),
					zap.Error(err),
				)
				sel = def
				residual = req.Filters.Residual(sel.Index)
				if residual.Discards() && batch < e.cfg.FilterBatch {
					batch = e.cfg.FilterBatch
				}
				fellBack = true
				startBefore = ""
				acc = acc[:0]
				continue
			}
			return PageResult{}, fmt.Errorf("fetch %s: %w", sel.Index, err)
		}

		batches++
		lastNext = out.Next

		for _, it := range out.Items {
			if !residual.Match(it.Trip) {
				continue
			}
			if len(acc) == limit {
				overflowed = true
				break
			}
			acc = append(acc, it.Trip)
		}

		if len(acc) == limit && (overflowed || out.Next != "") {
			// Page filled with matches to spare: the cursor must point at
			// the last record the caller was shown, rebuilt from that
			// record's own key projection. The store's native token may sit
			// further ahead and would skip unseen matches.
			cur, err := cursorFor(sel, acc[len(acc)-1])
			if err != nil {
				return PageResult{}, err
			}
			return PageResult{Trips: acc, NextCursor: cur.Encode(), IndexUsed: sel.Index}, nil
		}
		if out.Next == "" {
			// Range exhausted; whatever accumulated is the final page.
			return PageResult{Trips: acc, IndexUsed: sel.Index}, nil
		}

		if batches >= e.cfg.MaxBatches || e.now().Sub(started) >= e.cfg.BatchBudget {
			// Budget hit: best-effort partial page. Nothing visible was
			// trimmed, so the native token resumes the scan where the store
			// stopped.
			e.log.Warn("fetch budget exceeded, returning partial page",
				zap.String("index", string(sel.Index)),
				zap.Int("batches", batches),
				zap.Duration("elapsed", e.now().Sub(started)),
				zap.Int("returned", len(acc)),
				zap.Int("requested", limit),
			)
			cur := Cursor{
				Version:      cursorVersion,
				Index:        sel.Index,
				PartitionKey: sel.PartitionKey,
				SortKey:      lastNext,
			}
			return PageResult{Trips: acc, NextCursor: cur.Encode(), Partial: true, IndexUsed: sel.Index}, nil
		}

		startBefore = out.Next
	}
}

// FetchAll materializes every matching trip by walking pages to exhaustion.
// The cap bounds memory; hitting it returns what accumulated. Partial pages
// from budget hits are followed straight through — their cursor resumes the
// scan, so exhaustion is still reached.
func (e *Engine) FetchAll(ctx context.Context, role types.Role, callerID types.ID, f Filters) ([]Trip, error) {
	var all []Trip
	cursor := ""
	for {
		res, err := e.FetchPage(ctx, PageRequest{
			Role:     role,
			CallerID: callerID,
			Filters:  f,
			Limit:    e.cfg.AggregatePage,
			Cursor:   cursor,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, res.Trips...)
		if len(all) >= e.cfg.AggregateCap {
			e.log.Warn("aggregation cap reached, truncating materialized set",
				zap.Int("cap", e.cfg.AggregateCap))
			return all[:e.cfg.AggregateCap], nil
		}
		if res.NextCursor == "" {
			return all, nil
		}
		cursor = res.NextCursor
	}
}
