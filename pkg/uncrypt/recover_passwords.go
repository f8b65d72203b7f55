package uncrypt

import (
	"context"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
)

// Result is the outcome of RecoverPasswords.
type Result struct {
	Status Status

	// Cracks are in the order the credentials were removed from the target set.
	Cracks    []Crack
	Remaining []*Credential

	GuessCount uint64
}

type passwordRecoverer struct {
	// immutable:
	crackFunc   CrackFunc
	credentials []*Credential
	dictionary  []string
	verifyFunc  VerifyFunc
	settings    *Settings
	campaigns   []Campaign
}

func newPasswordRecoverer(
	crackFunc CrackFunc,
	credentials []*Credential,
	dictionary []string,
	verifyFunc VerifyFunc,
	settings *Settings,
) (*passwordRecoverer, error) {
	if settings == nil {
		settings = DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if verifyFunc == nil {
		return nil, fmt.Errorf("verification function is not set")
	}

	if settings.Deduplicate {
		dictionary = Deduplicate(dictionary)
	}

	return &passwordRecoverer{
		crackFunc:   crackFunc,
		credentials: credentials,
		dictionary:  dictionary,
		verifyFunc:  verifyFunc,
		settings:    settings,
		campaigns:   selectCampaigns(settings.Campaigns),
	}, nil
}

// RecoverPasswords searches for the plaintexts of the credentials: first
// by running the dictionary campaigns concurrently, then, if some
// credentials are left, by brute-forcing. It returns as soon as every
// credential is cracked, the search space is over, or `ctx` is cancelled.
//
// crackFunc (may be nil) is called once per cracked credential.
func RecoverPasswords(
	ctx context.Context,
	crackFunc CrackFunc,
	credentials []*Credential,
	dictionary []string,
	verifyFunc VerifyFunc,
	settings *Settings,
) (*Result, error) {
	r, err := newPasswordRecoverer(crackFunc, credentials, dictionary, verifyFunc, settings)
	if err != nil {
		return nil, err
	}

	return r.Execute(ctx)
}

func (r *passwordRecoverer) Execute(
	ctx context.Context,
) (*Result, error) {
	targets := NewTargetSet(r.credentials, r.verifyFunc, r.crackFunc)
	if targets.Stopped() {
		logger.FromCtx(ctx).Debugf("no credentials to crack")
		return newResult(targets), nil
	}

	// the workers check the status flag rather than the context
	stopForwarding := context.AfterFunc(ctx, func() {
		if targets.Cancel() {
			logger.FromCtx(ctx).Debugf("cancelled: %v", context.Cause(ctx))
		}
	})
	defer stopForwarding()

	if r.settings.ProgressInterval > 0 {
		stopReporting := r.startProgressReporter(ctx, targets)
		defer stopReporting()
	}

	var errors *multierror.Error

	logger.FromCtx(ctx).Debugf("running %d campaigns over %d dictionary words against %d credentials",
		len(r.campaigns), len(r.dictionary), targets.Len())
	result := r.runCampaigns(beltctx.WithField(ctx, "phase", "dictionary"), targets)
	if result.Error != nil {
		errors = multierror.Append(errors, result.Error)
	}

	if !targets.Stopped() && !r.settings.SkipBruteForce {
		logger.FromCtx(ctx).Debugf("%d credentials are left after the dictionary phase, brute-forcing", targets.Len())
		result := r.runBruteForce(beltctx.WithField(ctx, "phase", "bruteforce"), targets)
		if result.Error != nil {
			errors = multierror.Append(errors, result.Error)
		}
	}

	targets.exhaust()
	return newResult(targets), errors.ErrorOrNil()
}

func newResult(targets *TargetSet) *Result {
	return &Result{
		Status:     targets.Status(),
		Cracks:     targets.Cracks(),
		Remaining:  targets.Remaining(),
		GuessCount: targets.GuessCount(),
	}
}

// startProgressReporter periodically logs the progress until the returned
// function is called.
func (r *passwordRecoverer) startProgressReporter(
	ctx context.Context,
	targets *TargetSet,
) func() {
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	total := targets.Len()
	startedAt := time.Now()

	go func() {
		defer close(doneCh)
		ticker := time.NewTicker(r.settings.ProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				guessCount := targets.GuessCount()
				elapsed := time.Since(startedAt)
				logger.FromCtx(ctx).Infof("tested %d candidates (%.0f/s), cracked %d/%d",
					guessCount, float64(guessCount)/elapsed.Seconds(), total-targets.Len(), total)
			}
		}
	}()

	return func() {
		close(stopCh)
		<-doneCh
	}
}
