package batch

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

// ItemResult is the outcome of one item of a batch.
type ItemResult[I, R any] struct {
	Index   int
	Item    I
	Success bool
	Result  R
	Err     error
}

// Run applies op to every item concurrently, each under its own retry
// budget. Every item starts without waiting on the others, a failing or
// panicking item never affects its siblings, and results keep input order.
func Run[I, R any](ctx context.Context, items []I, op func(context.Context, I) (R, error), policy Policy) []ItemResult[I, R] {
	results := make([]ItemResult[I, R], len(items))
	if len(items) == 0 {
		return results
	}

	p := pool.New().WithMaxGoroutines(len(items))
	for i, item := range items {
		p.Go(func() {
			results[i] = runItem(ctx, i, item, op, policy)
		})
	}
	p.Wait()

	return results
}

func runItem[I, R any](ctx context.Context, index int, item I, op func(context.Context, I) (R, error), policy Policy) ItemResult[I, R] {
	res := ItemResult[I, R]{Index: index, Item: item}

	var (
		value R
		err   error
	)
	recovered := panics.Try(func() {
		value, err = Retry(ctx, func(ctx context.Context) (R, error) {
			return op(ctx, item)
		}, policy)
	})
	if recovered != nil {
		err = fmt.Errorf("item %d: %w", index, recovered.AsError())
	}

	if err != nil {
		res.Err = err
		return res
	}
	res.Success = true
	res.Result = value
	return res
}

// Summary counts the outcomes of a batch.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Summarize counts successes and failures.
func Summarize[I, R any](results []ItemResult[I, R]) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// ItemError describes one failed item for callers reconciling results
// against their input.
type ItemError struct {
	Index int    `json:"index"`
	Item  string `json:"item"`
	Error string `json:"error"`
}

// Errors lists the failed items. label renders an item for humans.
func Errors[I, R any](results []ItemResult[I, R], label func(I) string) []ItemError {
	var out []ItemError
	for _, r := range results {
		if r.Success {
			continue
		}
		name := fmt.Sprint(r.Item)
		if label != nil {
			name = label(r.Item)
		}
		msg := "unknown error"
		if r.Err != nil {
			msg = r.Err.Error()
		}
		out = append(out, ItemError{Index: r.Index, Item: name, Error: msg})
	}
	return out
}
