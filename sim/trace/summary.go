package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions        int
	AdmittedCount         int
	RejectedCount         int
	Allocations           int
	Departures            int
	MeanCandidates        float64
	MeanWait              float64
	MeanDwell             float64
	MaxDwell              int64
	AllocationsByCategory map[string]int
	RejectionsByCategory  map[string]int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		AllocationsByCategory: make(map[string]int),
		RejectionsByCategory:  make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Admissions)
	for _, a := range st.Admissions {
		if a.Admitted {
			summary.AdmittedCount++
		} else {
			summary.RejectedCount++
			summary.RejectionsByCategory[a.Category]++
		}
	}

	if len(st.Allocations) > 0 {
		candidates, wait := 0, int64(0)
		for _, a := range st.Allocations {
			summary.AllocationsByCategory[a.Category]++
			candidates += a.Candidates
			wait += a.Waited
		}
		summary.Allocations = len(st.Allocations)
		summary.MeanCandidates = float64(candidates) / float64(len(st.Allocations))
		summary.MeanWait = float64(wait) / float64(len(st.Allocations))
	}

	if len(st.Departures) > 0 {
		total := int64(0)
		for _, d := range st.Departures {
			total += d.Dwell
			if d.Dwell > summary.MaxDwell {
				summary.MaxDwell = d.Dwell
			}
		}
		summary.Departures = len(st.Departures)
		summary.MeanDwell = float64(total) / float64(len(st.Departures))
	}

	return summary
}
