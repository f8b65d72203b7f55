package uncrypt

import (
	"context"
	"sync"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/constraints"
	"golang.org/x/sync/semaphore"
)

// executeWorkers runs a worker per job and returns the aggregation of
// their results. If `sem` is not nil, every worker holds one unit of it
// while running; jobs not started before `ctx` is cancelled are skipped.
func executeWorkers[job any, result any, sharedData any](
	ctx context.Context,
	sem *semaphore.Weighted,
	jobs []job,
	workerExec func(context.Context, *job, sharedData) result,
	aggregateResults func(results <-chan result) result,
	shared sharedData,
) result {
	var wg sync.WaitGroup

	ctx, cancelFn := context.WithCancel(ctx)

	workerResultCh := make(chan result)
	go func() {
		defer func() {
			wg.Wait()
			cancelFn()
			close(workerResultCh)
		}()
		for _, j := range jobs {
			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					logger.FromCtx(ctx).Debugf("not starting the rest of the jobs: %v", err)
					return
				}
			}
			wg.Add(1)
			go func(j job) {
				defer wg.Done()
				if sem != nil {
					defer sem.Release(1)
				}
				ctx := beltctx.WithField(ctx, "job", j)
				workerResultCh <- workerExec(ctx, &j, shared)
			}(j)
		}
	}()

	return aggregateResults(workerResultCh)
}

type workerResult struct {
	GuessCount uint64
	Error      error
}

func aggregateWorkerResults(
	resultChan <-chan workerResult,
) workerResult {
	var result workerResult

	var errors *multierror.Error
	for r := range resultChan {
		result.GuessCount += r.GuessCount
		if r.Error != nil {
			errors = multierror.Append(errors, r.Error)
		}
	}

	result.Error = errors.ErrorOrNil()
	return result
}

func pow[T constraints.Integer](base T, exp int) T {
	result := T(1)
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
