package services

import (
	"context"
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/platform/obs"

	"golang.org/x/sync/errgroup"
)

// MaxBatchTrips caps a single batch request.
const MaxBatchTrips = 50

// TripResult holds the outcome of one trip in a batch; exactly one of Plan and Err is set.
type TripResult struct {
	Index int
	Plan  *TripPlan
	Err   error
}

// PlanTrips plans independent trips concurrently, at most limit at a time.
// A failing trip does not stop the others; results keep request order.
// The returned error concerns the batch as a whole: its size or cancellation.
func (p *TripPlanner) PlanTrips(ctx context.Context, reqs []TripRequest, limit int) (_ []TripResult, err error) {
	defer obs.Time(ctx, "planner.PlanTrips")(&err)

	if len(reqs) == 0 {
		return nil, domain.NewInputError("trips", "at least one trip required")
	}
	if len(reqs) > MaxBatchTrips {
		return nil, domain.NewInputError("trips", fmt.Sprintf("%d trips requested, at most %d allowed", len(reqs), MaxBatchTrips))
	}
	if limit < 1 {
		limit = 1
	}

	results := make([]TripResult, len(reqs))
	var g errgroup.Group
	g.SetLimit(limit)

	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = TripResult{Index: i, Err: err}
				return nil
			}
			plan, err := p.Plan(ctx, req)
			results[i] = TripResult{Index: i, Plan: plan, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("plan trips: %w", err)
	}
	return results, nil
}
