// Package trace provides decision-trace recording for parking simulations.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// AdmissionRecord captures a single admission policy decision.
type AdmissionRecord struct {
	DriverID int // -1 when the vehicle was turned away
	Step     int64
	Category string
	Admitted bool
	Reason   string
}

// AllocationRecord captures a driver taking a space.
type AllocationRecord struct {
	DriverID   int
	SpaceID    int
	Step       int64
	Category   string
	Candidates int   // free matching spaces the choice was drawn from
	Waited     int64 // steps spent searching before parking
}

// DepartureRecord captures a driver releasing its space.
type DepartureRecord struct {
	DriverID int
	SpaceID  int
	Step     int64
	Category string
	Dwell    int64 // steps between parking and release
}
