package step

import (
	"strings"

	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/workflow"
)

// CandidateSeparator delimits consensus candidates in a step input.
const CandidateSeparator = "\n---\n"

// VoteConsensus picks the best candidate from a delimited input using the
// configured Scorer. Ties keep the earliest candidate so selection stays
// deterministic.
type VoteConsensus struct {
	baseModule

	deps   workflow.ModuleDeps
	scorer Scorer
}

// NewVoteConsensus constructs the vote_consensus step module.
func NewVoteConsensus(deps workflow.ModuleDeps, opts Options) *VoteConsensus {
	scorer := opts.Scorer
	if scorer == nil {
		scorer = LongestScorer
	}
	return &VoteConsensus{
		baseModule: baseModule{name: TypeVoteConsensus, priority: stepPriority},
		deps:       deps,
		scorer:     scorer,
	}
}

// CanHandle implements core.EventModule.
func (m *VoteConsensus) CanHandle(env core.Envelope) bool {
	_, ok := requestOfType(env, TypeVoteConsensus)
	return ok
}

// Handle implements core.EventModule.
func (m *VoteConsensus) Handle(hctx *core.HandlerContext, env core.Envelope) error {
	req, ok := requestOfType(env, TypeVoteConsensus)
	if !ok {
		return nil
	}

	var candidates []string
	for _, c := range strings.Split(req.Input, CandidateSeparator) {
		if strings.TrimSpace(c) != "" {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return failStep(hctx, req.RunID, req.StepID, "no candidates to vote on")
	}

	best := candidates[0]
	bestScore := m.scorer(best)
	for _, c := range candidates[1:] {
		if score := m.scorer(c); score > bestScore {
			best, bestScore = c, score
		}
	}

	return completeStep(hctx, req.RunID, req.StepID, best, nil)
}
