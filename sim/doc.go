// Package sim provides the discrete-step parking facility simulation engine.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - driver.go: Driver lifecycle (searching → parked → heading_to_exit → exited)
//   - scheduler.go: random-order activation with deferred self-removal
//   - simulation.go: the step loop, space allocation and the read accessors
//
// # Architecture
//
// A Simulation owns a bounded Grid, the ParkingSpace inventory placed by
// layout.go, the live Drivers, a Scheduler, an ArrivalProcess and a metrics
// Collector. Agents never touch shared state directly: each activation gets a
// StepContext whose Park/Release/Walk/Exit operations are carried out by the
// Simulation.
//
// Randomness is drawn from a PartitionedRNG with one stream per subsystem
// (layout, arrival, scheduler, driver), so the same seed and Config always
// produce the same time series.
//
// Sub-packages:
//   - sim/trace/: decision trace recording (admissions, allocations, departures)
//   - sim/export/: Prometheus exporter fed by the Observer hook
//
// # Key Interfaces
//
//   - Agent: anything the Scheduler activates
//   - AdmissionPolicy: accept or turn away an arriving vehicle
//   - DwellSampler: draw a dwell duration
//   - Observer: per-step hook after the metrics sample
package sim
