package trace

import (
	"math"
	"testing"
)

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalDecisions != 0 || summary.Allocations != 0 || summary.Departures != 0 {
		t.Errorf("expected zero summary, got %+v", summary)
	}
	if summary.AllocationsByCategory == nil || summary.RejectionsByCategory == nil {
		t.Error("expected non-nil maps")
	}
}

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalDecisions != 0 {
		t.Errorf("expected 0 total decisions, got %d", summary.TotalDecisions)
	}
	if summary.AdmittedCount != 0 || summary.RejectedCount != 0 {
		t.Error("expected 0 admitted and rejected")
	}
	if summary.MeanCandidates != 0 || summary.MeanDwell != 0 {
		t.Error("expected 0 means")
	}
	if len(summary.AllocationsByCategory) != 0 {
		t.Error("expected empty allocation distribution")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with mixed admission and allocation records
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordAdmission(AdmissionRecord{DriverID: 1, Category: "general", Admitted: true})
	st.RecordAdmission(AdmissionRecord{Category: "electric", Admitted: false, Reason: "no free electric space"})
	st.RecordAdmission(AdmissionRecord{DriverID: 3, Category: "general", Admitted: true})
	st.RecordAllocation(AllocationRecord{DriverID: 1, Category: "general", Candidates: 4, Waited: 0})
	st.RecordAllocation(AllocationRecord{DriverID: 3, Category: "general", Candidates: 2, Waited: 2})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.TotalDecisions != 3 {
		t.Errorf("expected 3 total decisions, got %d", summary.TotalDecisions)
	}
	if summary.AdmittedCount != 2 {
		t.Errorf("expected 2 admitted, got %d", summary.AdmittedCount)
	}
	if summary.RejectedCount != 1 || summary.RejectionsByCategory["electric"] != 1 {
		t.Errorf("expected 1 electric rejection, got %d (%v)", summary.RejectedCount, summary.RejectionsByCategory)
	}
	if summary.AllocationsByCategory["general"] != 2 {
		t.Errorf("expected 2 general allocations, got %d", summary.AllocationsByCategory["general"])
	}
	if math.Abs(summary.MeanCandidates-3.0) > 1e-9 {
		t.Errorf("expected mean candidates 3.0, got %f", summary.MeanCandidates)
	}
	if math.Abs(summary.MeanWait-1.0) > 1e-9 {
		t.Errorf("expected mean wait 1.0, got %f", summary.MeanWait)
	}
}

func TestSummarize_DwellStatistics_CorrectMeanAndMax(t *testing.T) {
	// GIVEN departure records with known dwells
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordDeparture(DepartureRecord{DriverID: 1, Dwell: 2})
	st.RecordDeparture(DepartureRecord{DriverID: 2, Dwell: 10})
	st.RecordDeparture(DepartureRecord{DriverID: 3, Dwell: 3})

	// WHEN summarized
	summary := Summarize(st)

	// THEN mean = 5, max = 10
	if math.Abs(summary.MeanDwell-5.0) > 1e-9 {
		t.Errorf("expected mean dwell 5.0, got %f", summary.MeanDwell)
	}
	if summary.MaxDwell != 10 {
		t.Errorf("expected max dwell 10, got %d", summary.MaxDwell)
	}
	if summary.Departures != 3 {
		t.Errorf("expected 3 departures, got %d", summary.Departures)
	}
}
