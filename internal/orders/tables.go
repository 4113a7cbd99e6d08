package orders

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/jportela/comanda/internal/core/domain"
)

// TableSummary is the derived per-table view driving service actions: how
// many orders a table has open, how many items those orders carry and what
// the table owes so far.
type TableSummary struct {
	Table          string
	OrderCount     int
	TotalItemCount int
	TotalValue     float64
	Orders         []*domain.Order
}

// GroupByTable groups orders by table and computes the per-table totals.
// Pure function: no I/O, no errors, empty input yields an empty grouping.
//
// Tables are returned in display order: numeric identifiers ascending by
// value first, anything non-numeric after them in plain string order.
func GroupByTable(list []*domain.Order) []TableSummary {
	byTable := make(map[string]*TableSummary)
	for _, o := range list {
		sum, ok := byTable[o.Table]
		if !ok {
			sum = &TableSummary{Table: o.Table}
			byTable[o.Table] = sum
		}
		sum.OrderCount++
		sum.TotalItemCount += o.ItemCount()
		sum.TotalValue += o.TotalValue
		sum.Orders = append(sum.Orders, o)
	}

	out := make([]TableSummary, 0, len(byTable))
	for _, sum := range byTable {
		out = append(out, *sum)
	}
	sort.Slice(out, func(a, b int) bool {
		return tableLess(out[a].Table, out[b].Table)
	})
	return out
}

func tableLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b // "05" and "5" collide on value; string order breaks the tie
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}

// Tables groups the cached pending view by table.
func (s *Service) Tables() []TableSummary {
	return GroupByTable(s.cached)
}

// TableFinalizeResult reports the outcome of a bulk table finalize, order by
// order. Delivered ids stay delivered even when others fail.
type TableFinalizeResult struct {
	Table     string
	Delivered []string
	Failed    map[string]error
}

// PartialFailure reports whether some, but not all, orders went through.
func (r *TableFinalizeResult) PartialFailure() bool {
	return len(r.Failed) > 0 && len(r.Delivered) > 0
}

// FinalizeTable marks every pending order of the table as delivered. The
// pending view is refreshed first so the bulk acts on current store state.
//
// Failure policy: keep going. Each order is attempted regardless of earlier
// failures, successes are left applied, and the per-order outcome is
// reported so the caller can show exactly which records are in which state.
// An error is returned alongside the result when any order failed.
func (s *Service) FinalizeTable(ctx context.Context, table string) (*TableFinalizeResult, error) {
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}

	var target *TableSummary
	for _, sum := range s.Tables() {
		if sum.Table == table {
			t := sum
			target = &t
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("table %s: %w", table, domain.ErrNotFound)
	}

	result := &TableFinalizeResult{Table: table, Failed: make(map[string]error)}
	for _, o := range target.Orders {
		if err := s.MarkDelivered(ctx, o.ID); err != nil {
			result.Failed[o.ID] = err
			continue
		}
		result.Delivered = append(result.Delivered, o.ID)
	}

	if len(result.Failed) > 0 {
		return result, fmt.Errorf("table %s: %d of %d orders failed to finalize",
			table, len(result.Failed), target.OrderCount)
	}
	return result, nil
}
