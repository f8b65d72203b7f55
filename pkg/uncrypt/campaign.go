package uncrypt

import (
	"context"
	"iter"
	"slices"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// Names of the candidate sources; a Crack carries the name of the one
// which produced the plaintext.
const (
	CampaignRaw               = "raw"
	CampaignMangle1           = "mangle-1"
	CampaignMangle2           = "mangle-2"
	CampaignMangle3           = "mangle-3"
	CampaignExpansion         = "expansion"
	CampaignReversedExpansion = "reversed-expansion"
	CampaignBruteForce        = "bruteforce"
)

// Campaign is an independent sweep over the dictionary. All the campaigns
// run concurrently against the same TargetSet.
type Campaign struct {
	Name       string
	Candidates func(dictionary []string) iter.Seq[string]
}

func (c Campaign) String() string {
	return c.Name
}

// DefaultCampaigns returns all the dictionary campaigns, cheapest first.
func DefaultCampaigns() []Campaign {
	return []Campaign{
		{CampaignRaw, RawCandidates},
		{CampaignMangle1, mangledCandidatesOfDepth(1)},
		{CampaignMangle2, mangledCandidatesOfDepth(2)},
		{CampaignMangle3, mangledCandidatesOfDepth(3)},
		{CampaignExpansion, ExpansionCandidates},
		{CampaignReversedExpansion, ReversedExpansionCandidates},
	}
}

func mangledCandidatesOfDepth(depth int) func([]string) iter.Seq[string] {
	return func(dictionary []string) iter.Seq[string] {
		return MangledCandidates(dictionary, depth)
	}
}

// CampaignNames returns the names of DefaultCampaigns.
func CampaignNames() []string {
	var result []string
	for _, c := range DefaultCampaigns() {
		result = append(result, c.Name)
	}
	return result
}

// selectCampaigns returns the default campaigns with the given names,
// or all of them if no names are given.
func selectCampaigns(names []string) []Campaign {
	campaigns := DefaultCampaigns()
	if len(names) == 0 {
		return campaigns
	}
	return slices.DeleteFunc(campaigns, func(c Campaign) bool {
		return !slices.Contains(names, c.Name)
	})
}

func (r *passwordRecoverer) runCampaigns(
	ctx context.Context,
	targets *TargetSet,
) workerResult {
	return executeWorkers(
		ctx,
		nil,
		r.campaigns,
		r.executeCampaign,
		aggregateWorkerResults,
		targets,
	)
}

func (r *passwordRecoverer) executeCampaign(
	ctx context.Context,
	campaign *Campaign,
	targets *TargetSet,
) (result workerResult) {
	logger.FromCtx(ctx).Debugf("started campaign")
	defer func() {
		logger.FromCtx(ctx).Debugf("ended campaign; result: %#+v", result)
	}()

	isTracingEnabled := logger.FromCtx(ctx).Level() >= logger.LevelTrace
	for candidate := range campaign.Candidates(r.dictionary) {
		if targets.Stopped() {
			return
		}
		if isTracingEnabled {
			logger.FromCtx(ctx).Tracef("%q", candidate)
		}
		result.GuessCount++
		targets.Test(ctx, candidate, campaign.Name)
	}
	return
}
