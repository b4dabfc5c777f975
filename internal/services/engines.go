package services

import (
	"fmt"
	"math"

	"github.com/staffval/backend/internal/helpers"
)

// CalculationEngine is implemented by both the legacy reference calculator
// and the candidate under validation. Calculate must be deterministic for a
// given input, except where a historical-average sub-calculation applies.
type CalculationEngine interface {
	Name() string
	Version() string
	Calculate(in StaffingInput) (*StaffingOutput, error)
}

// HandleTimeHistory supplies a trailing historical average handle time for a
// target, when one exists. The candidate engine blends it into its input.
type HandleTimeHistory func(target string) (float64, bool)

// ReferenceEngine is the legacy baseline: straight Erlang C sizing with no
// adjustments. Its output is treated as ground truth by the comparator.
type ReferenceEngine struct{}

func NewReferenceEngine() *ReferenceEngine {
	return &ReferenceEngine{}
}

func (e *ReferenceEngine) Name() string    { return "reference" }
func (e *ReferenceEngine) Version() string { return "legacy-2.4" }

func (e *ReferenceEngine) Calculate(in StaffingInput) (*StaffingOutput, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	return computeStaffing(in, in.AvgHandleTime)
}

// CandidateEngine is the calculator under validation. It applies shrinkage
// of the supplied handle time toward the trailing historical average for the
// target, then sizes with the same Erlang C core.
type CandidateEngine struct {
	target  string
	history HandleTimeHistory
}

func NewCandidateEngine(target string, history HandleTimeHistory) *CandidateEngine {
	return &CandidateEngine{target: target, history: history}
}

func (e *CandidateEngine) Name() string    { return "candidate" }
func (e *CandidateEngine) Version() string { return "next-1.0" }

// historyWeight controls how far the candidate shrinks the interval handle
// time toward the historical average when history exists.
const historyWeight = 0.3

func (e *CandidateEngine) Calculate(in StaffingInput) (*StaffingOutput, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	aht := in.AvgHandleTime
	if e.history != nil {
		if hist, ok := e.history(e.target); ok && hist > 0 {
			aht = (1-historyWeight)*aht + historyWeight*hist
		}
	}
	return computeStaffing(in, aht)
}

func checkInput(in StaffingInput) error {
	if in.OfferedCalls < 0 {
		return fmt.Errorf("offered calls must not be negative, got %.2f", in.OfferedCalls)
	}
	if in.AvgHandleTime <= 0 {
		return fmt.Errorf("average handle time must be positive, got %.2f", in.AvgHandleTime)
	}
	if in.IntervalSeconds <= 0 {
		return fmt.Errorf("interval length must be positive, got %.2f", in.IntervalSeconds)
	}
	if in.TargetServiceLevel <= 0 || in.TargetServiceLevel > 100 {
		return fmt.Errorf("target service level must be in (0,100], got %.2f", in.TargetServiceLevel)
	}
	if in.TargetAnswerTime < 0 {
		return fmt.Errorf("target answer time must not be negative, got %.2f", in.TargetAnswerTime)
	}
	return nil
}

// computeStaffing is the shared Erlang C core: agent sizing, service level,
// occupancy and multi-skill coverage for an effective handle time.
func computeStaffing(in StaffingInput, effectiveAHT float64) (*StaffingOutput, error) {
	traffic := trafficIntensity(in.OfferedCalls, effectiveAHT, in.IntervalSeconds)

	out := &StaffingOutput{
		OfferedCalls:     in.OfferedCalls,
		AvgHandleTime:    effectiveAHT,
		TrafficIntensity: traffic,
	}

	abandoned := in.OfferedCalls * in.AbandonRate / 100
	out.AbandonedCalls = abandoned
	out.HandledCalls = in.OfferedCalls - abandoned

	if traffic == 0 {
		out.ServiceLevel = 100
		out.Converged = true
		out.SkillCoverage = skillCoverage(in.SkillDemand, 0)
		return out, nil
	}

	agents, waitProb, iterations, err := agentsForServiceLevel(
		traffic, in.TargetServiceLevel, in.TargetAnswerTime, effectiveAHT)
	out.Iterations = iterations
	if err != nil {
		return nil, err
	}

	// Respect the occupancy cap by adding agents until under it.
	if in.MaxOccupancy > 0 {
		for occupancy(traffic, agents) > in.MaxOccupancy && agents < maxAgentSearch {
			agents++
			out.Iterations++
		}
		wp, cErr := erlangC(traffic, agents)
		if cErr == nil {
			waitProb = wp
		}
	}

	out.WaitProbability = waitProb
	out.ServiceLevel = serviceLevel(waitProb, traffic, agents, in.TargetAnswerTime, effectiveAHT)
	out.AvgWaitTime = avgSpeedOfAnswer(waitProb, traffic, agents, effectiveAHT)
	out.Occupancy = occupancy(traffic, agents)

	required := float64(agents)
	if in.Shrinkage > 0 && in.Shrinkage < 100 {
		required = math.Ceil(required / (1 - in.Shrinkage/100))
	}
	out.AgentsRequired = required
	out.Utilization = helpers.Clamp(traffic/required*100, 0, 100)
	out.SkillCoverage = skillCoverage(in.SkillDemand, required)
	out.Converged = true

	return out, nil
}

// skillCoverage splits the sized agent pool across per-skill agent demand
// and reports achieved coverage percent per skill. Each skill receives a
// pool share proportional to its demand, so coverage degrades uniformly when
// total demand exceeds the pool.
func skillCoverage(demand map[string]float64, agents float64) map[string]float64 {
	if len(demand) == 0 {
		return nil
	}
	total := 0.0
	for _, d := range demand {
		if d > 0 {
			total += d
		}
	}
	coverage := make(map[string]float64, len(demand))
	for skill, d := range demand {
		if d <= 0 || total <= 0 {
			coverage[skill] = 0
			continue
		}
		coverage[skill] = helpers.Clamp(agents/total*100, 0, 100)
	}
	return coverage
}
