package uncrypt

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/pkg/field"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/semaphore"
)

// progressLogMask defines how often (in candidates) a brute-force worker
// logs its progress.
const progressLogMask = 1<<24 - 1

// BruteForce yields all the strings of the given length made of Alphabet
// characters, counting in base len(Alphabet): the rightmost character
// changes fastest.
func BruteForce(length int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if length <= 0 {
			return
		}

		digits := make([]uint8, length)
		b := make([]byte, length)
		for idx := range b {
			b[idx] = Alphabet[0]
		}

		for {
			if !yield(string(b)) {
				return
			}

			pos := length - 1
			for ; pos >= 0; pos-- {
				digits[pos]++
				if int(digits[pos]) < len(Alphabet) {
					b[pos] = Alphabet[digits[pos]]
					break
				}
				digits[pos] = 0
				b[pos] = Alphabet[0]
			}
			if pos < 0 {
				return
			}
		}
	}
}

// BruteForceSpaceSize returns the amount of strings BruteForce yields.
func BruteForceSpaceSize(length int) uint64 {
	if length <= 0 {
		return 0
	}
	return pow(uint64(len(Alphabet)), length)
}

type bruteForceJob struct {
	Lengths []int
}

func (j bruteForceJob) String() string {
	return fmt.Sprintf("lengths%v", j.Lengths)
}

// planBruteForceWaves splits lengths [1, maxLength] into waves of at most
// `workers` single-length jobs. A single worker gets all the lengths in one
// job. If maxWaves > 0, the lengths not fitting into maxWaves waves are
// returned as skipped.
func planBruteForceWaves(workers, maxLength, maxWaves int) (waves [][]bruteForceJob, skipped []int) {
	if maxLength <= 0 {
		return nil, nil
	}

	if workers <= 1 {
		job := bruteForceJob{}
		for length := 1; length <= maxLength; length++ {
			job.Lengths = append(job.Lengths, length)
		}
		return [][]bruteForceJob{{job}}, nil
	}

	length := 1
	for length <= maxLength {
		if maxWaves > 0 && len(waves) >= maxWaves {
			for ; length <= maxLength; length++ {
				skipped = append(skipped, length)
			}
			break
		}
		var wave []bruteForceJob
		for ; len(wave) < workers && length <= maxLength; length++ {
			wave = append(wave, bruteForceJob{Lengths: []int{length}})
		}
		waves = append(waves, wave)
	}
	return
}

func (r *passwordRecoverer) runBruteForce(
	ctx context.Context,
	targets *TargetSet,
) workerResult {
	workers := r.settings.Workers
	waves, skipped := planBruteForceWaves(workers, r.settings.MaxBruteForceLength, r.settings.MaxBruteForceWaves)
	if len(skipped) > 0 {
		logger.FromCtx(ctx).Warnf("with %d workers and at most %d waves the passwords of lengths %v will not be tried",
			workers, r.settings.MaxBruteForceWaves, skipped)
	}

	sem := semaphore.NewWeighted(int64(max(workers, 1)))

	var (
		result workerResult
		errors *multierror.Error
	)
	for waveIdx, wave := range waves {
		if targets.Stopped() {
			break
		}
		ctx := beltctx.WithField(ctx, "wave", waveIdx)
		logger.FromCtx(ctx).Debugf("starting a brute-force wave of %d jobs", len(wave))

		waveResult := executeWorkers(
			ctx,
			sem,
			wave,
			r.executeBruteForce,
			aggregateWorkerResults,
			targets,
		)
		result.GuessCount += waveResult.GuessCount
		if waveResult.Error != nil {
			errors = multierror.Append(errors, waveResult.Error)
		}
	}

	result.Error = errors.ErrorOrNil()
	return result
}

func (r *passwordRecoverer) executeBruteForce(
	ctx context.Context,
	job *bruteForceJob,
	targets *TargetSet,
) (result workerResult) {
	logger.FromCtx(ctx).Debugf("started bruteforce")
	defer func() {
		logger.FromCtx(ctx).Debugf("ended bruteforce; result: %#+v", result)
	}()

	isTracingEnabled := logger.FromCtx(ctx).Level() >= logger.LevelTrace
	for _, length := range job.Lengths {
		total := BruteForceSpaceSize(length)
		startedAt := time.Now()
		var tested uint64

		for candidate := range BruteForce(length) {
			if targets.Stopped() {
				return
			}
			if isTracingEnabled {
				logger.FromCtx(ctx).Tracef("%q", candidate)
			}
			targets.Test(ctx, candidate, CampaignBruteForce)
			tested++
			result.GuessCount++

			if tested&progressLogMask == 0 {
				timeSpent := time.Since(startedAt)
				logger.FromCtx(beltctx.WithFields(ctx, field.Map[uint64]{
					"length": uint64(length),
					"tested": tested,
					"total":  total,
				})).Debugf("spent %v, estimated time left: %v",
					timeSpent, estimateTimeLeft(timeSpent, tested, total))
			}
		}
	}
	return
}

// estimateTimeLeft assumes every candidate costs the same.
func estimateTimeLeft(timeSpent time.Duration, curPos, totalLength uint64) time.Duration {
	if curPos == 0 || curPos >= totalLength {
		return 0
	}
	t := float64(timeSpent.Nanoseconds())
	left := float64(totalLength - curPos)
	return time.Nanosecond * time.Duration(t/float64(curPos)*left)
}
