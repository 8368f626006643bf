package sim

import "math/rand"

// StepContext is what an agent sees during its activation. It gives read
// access to the facility and routes every shared-state mutation (space
// occupancy, grid position, counters, scheduler membership) through the
// Simulation that owns that state.
type StepContext struct {
	sim *Simulation
	now int64
}

// Now returns the index of the step being executed (the first step is 1).
func (c *StepContext) Now() int64 { return c.now }

// Rand returns the RNG for agent decisions.
func (c *StepContext) Rand() *rand.Rand {
	return c.sim.rng.ForSubsystem(SubsystemDriver)
}

// FreeSpaces returns the unoccupied spaces of a category in provisioning order.
func (c *StepContext) FreeSpaces(cat Category) []*ParkingSpace {
	return c.sim.freeSpaces(cat)
}

// Neighbors returns the in-bounds Moore neighbours of cell, excluding cell itself.
func (c *StepContext) Neighbors(cell Cell) []Cell {
	return c.sim.grid.Neighbors(cell, false)
}

// Park allocates space to d and moves d onto the space's cell.
// candidates is the size of the set the space was drawn from.
func (c *StepContext) Park(d *Driver, space *ParkingSpace, candidates int) {
	c.sim.allocate(d, space, candidates, c.now)
}

// Release frees the space d holds.
func (c *StepContext) Release(d *Driver, space *ParkingSpace) {
	c.sim.release(d, space, c.now)
}

// Walk moves d one cell.
func (c *StepContext) Walk(d *Driver, to Cell) {
	c.sim.walk(d, to)
}

// Exit takes d off the grid and out of the scheduler.
func (c *StepContext) Exit(d *Driver) {
	c.sim.exit(d, c.now)
}
