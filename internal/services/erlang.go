package services

import (
	"fmt"
	"math"
)

// StaffingInput is the validated numeric snapshot both engines compute from.
type StaffingInput struct {
	OfferedCalls       float64            // calls arriving in the interval
	AvgHandleTime      float64            // seconds
	IntervalSeconds    float64            // interval length, e.g. 1800
	TargetServiceLevel float64            // percent, e.g. 80
	TargetAnswerTime   float64            // seconds, e.g. 20
	MaxOccupancy       float64            // percent cap, 0 = uncapped
	Shrinkage          float64            // percent of paid time not available
	AbandonRate        float64            // percent of offered calls abandoning
	SkillDemand        map[string]float64 // skill -> required coverage percent
}

// StaffingOutput is the metric set every engine produces.
type StaffingOutput struct {
	OfferedCalls     float64
	HandledCalls     float64
	AbandonedCalls   float64
	ServiceLevel     float64
	AvgWaitTime      float64
	AvgHandleTime    float64
	AgentsRequired   float64
	Occupancy        float64
	Utilization      float64
	SkillCoverage    map[string]float64
	TrafficIntensity float64
	WaitProbability  float64
	Iterations       int
	Converged        bool
}

const maxAgentSearch = 5000

// trafficIntensity returns offered load in erlangs for the interval.
func trafficIntensity(offeredCalls, avgHandleTime, intervalSeconds float64) float64 {
	if intervalSeconds <= 0 {
		return 0
	}
	return offeredCalls * avgHandleTime / intervalSeconds
}

// erlangB computes the Erlang B blocking probability using the standard
// iterative recurrence, which is numerically stable for large agent counts.
func erlangB(traffic float64, agents int) float64 {
	b := 1.0
	for k := 1; k <= agents; k++ {
		b = traffic * b / (float64(k) + traffic*b)
	}
	return b
}

// erlangC computes the probability an arriving call must wait.
func erlangC(traffic float64, agents int) (float64, error) {
	n := float64(agents)
	if n <= traffic {
		return 0, fmt.Errorf("unstable queue: %d agents for %.2f erlangs", agents, traffic)
	}
	b := erlangB(traffic, agents)
	c := n * b / (n - traffic*(1-b))
	return c, nil
}

// serviceLevel returns the percentage of calls answered within answerTime.
func serviceLevel(waitProb, traffic float64, agents int, answerTime, avgHandleTime float64) float64 {
	if avgHandleTime <= 0 {
		return 0
	}
	n := float64(agents)
	sl := 1 - waitProb*math.Exp(-(n-traffic)*answerTime/avgHandleTime)
	return sl * 100
}

// avgSpeedOfAnswer returns the expected wait in seconds.
func avgSpeedOfAnswer(waitProb, traffic float64, agents int, avgHandleTime float64) float64 {
	n := float64(agents)
	if n <= traffic {
		return math.Inf(1)
	}
	return waitProb * avgHandleTime / (n - traffic)
}

// agentsForServiceLevel searches upward from the minimum stable agent count
// until the service level target is met. Returns the count, the achieved
// wait probability and the number of iterations used.
func agentsForServiceLevel(traffic, targetSL, answerTime, avgHandleTime float64) (int, float64, int, error) {
	if traffic <= 0 {
		return 0, 0, 0, nil
	}
	agents := int(math.Ceil(traffic))
	if float64(agents) <= traffic {
		agents++
	}
	iterations := 0
	for ; agents <= maxAgentSearch; agents++ {
		iterations++
		waitProb, err := erlangC(traffic, agents)
		if err != nil {
			continue
		}
		sl := serviceLevel(waitProb, traffic, agents, answerTime, avgHandleTime)
		if sl >= targetSL {
			return agents, waitProb, iterations, nil
		}
	}
	return 0, 0, iterations, fmt.Errorf("no agent count up to %d meets %.1f%% service level for %.2f erlangs",
		maxAgentSearch, targetSL, traffic)
}

// occupancy returns the percentage of logged-in time agents spend handling.
func occupancy(traffic float64, agents int) float64 {
	if agents <= 0 {
		return 0
	}
	return traffic / float64(agents) * 100
}
