package balance

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mycitadel/citadel/internal/model"
)

// AllocationSource reports the spendable allocations of one asset.
type AllocationSource interface {
	CurrentAllocations(ctx context.Context, assetID string) ([]model.Allocation, error)
}

// maxConcurrentQueries bounds parallel calls into the wallet.
const maxConcurrentQueries = 4

// Collect queries src for every asset concurrently and concatenates the
// results in assetIDs order. The first failure cancels the remaining calls.
func Collect(ctx context.Context, src AllocationSource, assetIDs []string) ([]model.Allocation, error) {
	results := make([][]model.Allocation, len(assetIDs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQueries)
	for i, id := range assetIDs {
		i, id := i, id
		g.Go(func() error {
			allocs, err := src.CurrentAllocations(ctx, id)
			if err != nil {
				return fmt.Errorf("allocations of %s: %w", id, err)
			}
			results[i] = allocs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.Allocation
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}
