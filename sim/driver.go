// Defines the Driver agent and its state machine: searching -> parked -> heading_to_exit -> exited.

package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// DriverState represents the lifecycle state of a driver.
type DriverState string

const (
	StateSearching     DriverState = "searching"
	StateParked        DriverState = "parked"
	StateHeadingToExit DriverState = "heading_to_exit"
	StateExited        DriverState = "exited"
)

// nextState lists the only legal transition out of each state.
var nextState = map[DriverState]DriverState{
	StateSearching:     StateParked,
	StateParked:        StateHeadingToExit,
	StateHeadingToExit: StateExited,
}

// Driver is a vehicle that searches for a matching free space, dwells, then leaves.
// It mutates only its own fields; space occupancy, grid position, counters and
// scheduler membership go through the StepContext.
type Driver struct {
	id        EntityID
	category  Category
	arrivedAt int64
	dwell     int64

	state    DriverState
	space    *ParkingSpace
	parkedAt int64
	cell     Cell
}

func newDriver(id EntityID, c Category, now, dwell int64, at Cell) *Driver {
	return &Driver{
		id:        id,
		category:  c,
		arrivedAt: now,
		dwell:     dwell,
		state:     StateSearching,
		cell:      at,
	}
}

func (d *Driver) AgentID() EntityID { return d.id }
func (d *Driver) ID() EntityID { return d.id }
func (d *Driver) Category() Category { return d.category }
func (d *Driver) ArrivedAt() int64 { return d.arrivedAt }
func (d *Driver) Dwell() int64 { return d.dwell }
func (d *Driver) State() DriverState { return d.state }
func (d *Driver) Cell() Cell { return d.cell }
func (d *Driver) Space() *ParkingSpace { return d.space }

// ParkedAt returns the step in which the driver parked.
func (d *Driver) ParkedAt() (int64, bool) {
	return d.parkedAt, d.state != StateSearching
}

// Step executes exactly one behaviour for the driver's current state.
func (d *Driver) Step(ctx *StepContext) {
	switch d.state {
	case StateSearching:
		d.search(ctx)
	case StateParked:
		d.checkDeparture(ctx)
	case StateHeadingToExit:
		d.exit(ctx)
	default:
		panic(fmt.Sprintf("driver %d stepped in state %q", d.id, d.state))
	}
}

func (d *Driver) transition(to DriverState) {
	if nextState[d.state] != to {
		panic(fmt.Sprintf("driver %d: illegal transition %s -> %s", d.id, d.state, to))
	}
	d.state = to
}

// search parks in a uniformly chosen free matching space, or wanders one cell.
func (d *Driver) search(ctx *StepContext) {
	free := ctx.FreeSpaces(d.category)
	if len(free) > 0 {
		space := free[ctx.Rand().Intn(len(free))]
		ctx.Park(d, space, len(free))
		d.transition(StateParked)
		d.space = space
		d.parkedAt = ctx.Now()
		d.cell = space.Cell()
		logrus.Debugf("[step %d] driver %d (%s) parked in space %d at %v", ctx.Now(), d.id, d.category, space.ID(), d.cell)
		return
	}

	moves := ctx.Neighbors(d.cell)
	if len(moves) == 0 {
		return
	}
	to := moves[ctx.Rand().Intn(len(moves))]
	ctx.Walk(d, to)
	d.cell = to
}

// checkDeparture releases the space once dwell steps have passed since parking.
func (d *Driver) checkDeparture(ctx *StepContext) {
	if ctx.Now()-d.parkedAt < d.dwell {
		return
	}
	ctx.Release(d, d.space)
	d.space = nil
	d.transition(StateHeadingToExit)
	logrus.Debugf("[step %d] driver %d left its space after %d steps", ctx.Now(), d.id, ctx.Now()-d.parkedAt)
}

func (d *Driver) exit(ctx *StepContext) {
	d.transition(StateExited)
	ctx.Exit(d)
}

// DriverView is the read-only rendering record for a driver.
type DriverView struct {
	ID       EntityID    `json:"id"`
	Category Category    `json:"category"`
	State    DriverState `json:"state"`
	Cell     Cell        `json:"cell"`
}

func (d *Driver) View() DriverView {
	return DriverView{ID: d.id, Category: d.category, State: d.state, Cell: d.cell}
}
