// sim/simulation.go
package sim

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/parksim/parksim/sim/trace"
)

// Observer is notified once per step, after the metrics row is sampled.
type Observer interface {
	ObserveStep(rec Record)
}

// Option customizes a Simulation at construction.
type Option func(*Simulation)

// WithRNG injects the random source. Without it the source is derived from Config.Seed.
func WithRNG(rng *PartitionedRNG) Option {
	return func(s *Simulation) { s.rng = rng }
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option {
	return func(s *Simulation) { s.observers = append(s.observers, o) }
}

// WithTrace records admission, allocation and departure decisions into st.
func WithTrace(st *trace.SimulationTrace) Option {
	return func(s *Simulation) { s.trace = st }
}

// Simulation owns the grid, the space inventory, the drivers, the scheduler,
// the arrival process and the counters. It advances one step per Step call
// and is never reset; a new run needs a new Simulation.
//
// Not safe for concurrent use.
type Simulation struct {
	cfg   Config
	clock int64

	grid      *Grid
	rng       *PartitionedRNG
	scheduler *Scheduler
	arrivals  *ArrivalProcess
	admission AdmissionPolicy
	metrics   *Collector
	trace     *trace.SimulationTrace
	observers []Observer

	spaces     []*ParkingSpace
	byCategory [numCategories][]*ParkingSpace
	occupied   [numCategories]int
	drivers    map[EntityID]*Driver
	prov       Provisioning

	counters Counters
	nextID   EntityID
}

// NewSimulation validates cfg and provisions the facility.
//
// If the spaces cannot all be placed, NewSimulation returns a *ShortfallError
// unless cfg.AllowShortfall is set, in which case it logs a warning and the
// achieved counts remain available from Provisioning.
func NewSimulation(cfg Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grid, err := NewGrid(cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("building grid: %w", err)
	}
	s := &Simulation{
		cfg:       cfg,
		grid:      grid,
		admission: NewAdmissionPolicy(cfg.Admission),
		metrics:   NewCollector(),
		drivers:   make(map[EntityID]*Driver),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	}
	s.scheduler = NewScheduler(s.rng.ForSubsystem(SubsystemScheduler))
	s.arrivals = NewArrivalProcess(cfg, s.rng.ForSubsystem(SubsystemArrival))

	s.spaces, s.prov = layoutSpaces(grid, cfg.Spaces, cfg.Zones, s.rng.ForSubsystem(SubsystemLayout), s.newID)
	for _, sp := range s.spaces {
		s.byCategory[sp.category] = append(s.byCategory[sp.category], sp)
		s.scheduler.Add(sp)
	}
	if s.prov.Shortfall() {
		shortfall := &ShortfallError{Provisioning: s.prov}
		if !cfg.AllowShortfall {
			return nil, shortfall
		}
		logrus.Warnf("%v; continuing with reduced capacity", shortfall)
	}
	logrus.Infof("Provisioned %d spaces on a %dx%d grid", len(s.spaces), cfg.Width, cfg.Height)
	return s, nil
}

func (s *Simulation) newID() EntityID {
	id := s.nextID
	s.nextID++
	return id
}

// Step advances the simulation by one tick: one arrival decision, one
// scheduler pass over every live entity, one metrics sample.
func (s *Simulation) Step() {
	s.clock++
	s.arrive()
	s.scheduler.Step(&StepContext{sim: s, now: s.clock})
	rec := s.metrics.Sample(s)
	for _, o := range s.observers {
		o.ObserveStep(rec)
	}
}

// Run calls Step n times.
func (s *Simulation) Run(n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

// arrive runs the arrival process and admits or turns away the vehicle.
func (s *Simulation) arrive() {
	if s.cfg.MaxArrivals > 0 && s.counters.Arrived >= s.cfg.MaxArrivals {
		return
	}
	a, ok := s.arrivals.Next()
	if !ok {
		return
	}
	admitted, reason := s.admission.Admit(a.Category, s)
	if !admitted {
		s.counters.TurnedAway++
		logrus.Debugf("[step %d] %s vehicle turned away: %s", s.clock, a.Category, reason)
		if s.trace.Enabled() {
			s.trace.RecordAdmission(trace.AdmissionRecord{DriverID: -1, Step: s.clock, Category: a.Category.String(), Admitted: false, Reason: reason})
		}
		return
	}

	d := newDriver(s.newID(), a.Category, s.clock, a.Dwell, a.Entry)
	if err := s.grid.Place(d.id, a.Entry); err != nil {
		panic(fmt.Sprintf("placing arriving driver: %v", err))
	}
	s.drivers[d.id] = d
	s.scheduler.Add(d)
	s.counters.Arrived++
	logrus.Debugf("[step %d] driver %d (%s, dwell %d) entered at %v", s.clock, d.id, d.category, d.dwell, a.Entry)
	if s.trace.Enabled() {
		s.trace.RecordAdmission(trace.AdmissionRecord{DriverID: int(d.id), Step: s.clock, Category: a.Category.String(), Admitted: true})
	}
}

// freeSpaces lists unoccupied spaces of a category in provisioning order.
func (s *Simulation) freeSpaces(c Category) []*ParkingSpace {
	var free []*ParkingSpace
	for _, sp := range s.byCategory[c] {
		if !sp.occupied {
			free = append(free, sp)
		}
	}
	return free
}

func (s *Simulation) allocate(d *Driver, sp *ParkingSpace, candidates int, now int64) {
	if sp.occupied {
		panic(fmt.Sprintf("space %d allocated to driver %d while held by %d", sp.id, d.id, sp.holder))
	}
	if sp.category != d.category {
		panic(fmt.Sprintf("space %d (%s) allocated to %s driver %d", sp.id, sp.category, d.category, d.id))
	}
	sp.occupied = true
	sp.holder = d.id
	s.occupied[sp.category]++
	if err := s.grid.Move(d.id, sp.cell); err != nil {
		panic(fmt.Sprintf("moving driver %d to space %d: %v", d.id, sp.id, err))
	}
	s.counters.Parked++
	if s.trace.Enabled() {
		s.trace.RecordAllocation(trace.AllocationRecord{
			DriverID:   int(d.id),
			SpaceID:    int(sp.id),
			Step:       now,
			Category:   sp.category.String(),
			Candidates: candidates,
			Waited:     now - d.arrivedAt,
		})
	}
}

func (s *Simulation) release(d *Driver, sp *ParkingSpace, now int64) {
	if sp == nil || !sp.occupied || sp.holder != d.id {
		panic(fmt.Sprintf("driver %d released a space it does not hold", d.id))
	}
	sp.occupied = false
	s.occupied[sp.category]--
	if s.trace.Enabled() {
		s.trace.RecordDeparture(trace.DepartureRecord{
			DriverID: int(d.id),
			SpaceID:  int(sp.id),
			Step:     now,
			Category: sp.category.String(),
			Dwell:    now - d.parkedAt,
		})
	}
}

func (s *Simulation) walk(d *Driver, to Cell) {
	if err := s.grid.Move(d.id, to); err != nil {
		panic(fmt.Sprintf("walking driver %d: %v", d.id, err))
	}
}

func (s *Simulation) exit(d *Driver, now int64) {
	s.grid.Remove(d.id)
	s.scheduler.Remove(d.id)
	delete(s.drivers, d.id)
	s.counters.Exited++
	logrus.Debugf("[step %d] driver %d exited", now, d.id)
}

// Now returns the number of completed steps, which is also the index of the
// most recent step.
func (s *Simulation) Now() int64 { return s.clock }

// Config returns the configuration the simulation was built from.
func (s *Simulation) Config() Config { return s.cfg }

// Counters returns the current event counts.
func (s *Simulation) Counters() Counters { return s.counters }

// LiveDrivers returns the number of drivers still in the facility.
func (s *Simulation) LiveDrivers() int { return len(s.drivers) }

// FreeCount returns the number of free spaces of a category.
func (s *Simulation) FreeCount(c Category) int {
	return len(s.byCategory[c]) - s.occupied[c]
}

// TotalSpaces returns the number of provisioned spaces.
func (s *Simulation) TotalSpaces() int { return len(s.spaces) }

// Occupancy returns occupied / provisioned spaces, 0 when there are none.
// The denominator is the achieved count, so a short-provisioned facility
// still reports ratios within [0,1].
func (s *Simulation) Occupancy() float64 {
	if len(s.spaces) == 0 {
		return 0
	}
	n := 0
	for _, o := range s.occupied {
		n += o
	}
	return float64(n) / float64(len(s.spaces))
}

// CategoryOccupancy returns the occupancy ratio of one category, 0 when the
// category has no spaces.
func (s *Simulation) CategoryOccupancy(c Category) float64 {
	total := len(s.byCategory[c])
	if total == 0 {
		return 0
	}
	return float64(s.occupied[c]) / float64(total)
}

// Series returns the per-step metrics time series.
func (s *Simulation) Series() []Record { return s.metrics.Series() }

// Summary aggregates the time series.
func (s *Simulation) Summary() Summary {
	sum := Summarize(s.metrics.series)
	prov := s.prov
	sum.Provisioning = &prov
	return sum
}

// Provisioning reports requested versus placed spaces per category.
func (s *Simulation) Provisioning() Provisioning { return s.prov }

// Trace returns the decision trace, nil when tracing is off.
func (s *Simulation) Trace() *trace.SimulationTrace { return s.trace }

// Grid returns the facility grid for read access.
func (s *Simulation) Grid() *Grid { return s.grid }

// Spaces returns the rendering view of every space, ordered by id.
func (s *Simulation) Spaces() []SpaceView {
	out := make([]SpaceView, len(s.spaces))
	for i, sp := range s.spaces {
		out[i] = sp.View()
	}
	return out
}

// Drivers returns the rendering view of every live driver, ordered by id.
func (s *Simulation) Drivers() []DriverView {
	return s.driverViews(func(*Driver) bool { return true })
}

// VisibleDrivers omits parked drivers, which are drawn as their space.
func (s *Simulation) VisibleDrivers() []DriverView {
	return s.driverViews(func(d *Driver) bool { return d.state != StateParked })
}

func (s *Simulation) driverViews(keep func(*Driver) bool) []DriverView {
	out := make([]DriverView, 0, len(s.drivers))
	for _, d := range s.drivers {
		if keep(d) {
			out = append(out, d.View())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Snapshot is a point-in-time copy of everything a renderer needs.
type Snapshot struct {
	Step     int64        `json:"step"`
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	Counters Counters     `json:"counters"`
	Spaces   []SpaceView  `json:"spaces"`
	Drivers  []DriverView `json:"drivers"`
}

// Snapshot captures the current state, with parked drivers omitted.
func (s *Simulation) Snapshot() Snapshot {
	return Snapshot{
		Step:     s.clock,
		Width:    s.grid.Width(),
		Height:   s.grid.Height(),
		Counters: s.counters,
		Spaces:   s.Spaces(),
		Drivers:  s.VisibleDrivers(),
	}
}

// CheckInvariants verifies the bookkeeping that must hold at every step boundary:
// conservation of drivers, occupancy matching exactly one holder, no double
// allocation and state/space consistency.
func (s *Simulation) CheckInvariants() error {
	var errs []error
	if passes := s.scheduler.Steps(); passes != s.clock {
		errs = append(errs, fmt.Errorf("scheduler ran %d passes in %d steps", passes, s.clock))
	}
	c := s.counters
	if c.Exited > c.Arrived {
		errs = append(errs, fmt.Errorf("exited %d > arrived %d", c.Exited, c.Arrived))
	}
	if live := int64(len(s.drivers)); c.Arrived-c.Exited != live {
		errs = append(errs, fmt.Errorf("arrived-exited = %d, live drivers = %d", c.Arrived-c.Exited, live))
	}

	holders := make(map[EntityID]EntityID)
	for _, d := range s.drivers {
		switch {
		case d.state == StateParked && d.space == nil:
			errs = append(errs, fmt.Errorf("driver %d parked without a space", d.id))
		case d.state != StateParked && d.space != nil:
			errs = append(errs, fmt.Errorf("driver %d in state %s holds space %d", d.id, d.state, d.space.id))
		}
		if d.space == nil {
			continue
		}
		if other, dup := holders[d.space.id]; dup {
			errs = append(errs, fmt.Errorf("space %d held by drivers %d and %d", d.space.id, other, d.id))
		}
		holders[d.space.id] = d.id
	}
	for _, sp := range s.spaces {
		holder, held := holders[sp.id]
		switch {
		case sp.occupied && !held:
			errs = append(errs, fmt.Errorf("space %d occupied with no live holder", sp.id))
		case !sp.occupied && held:
			errs = append(errs, fmt.Errorf("space %d free but held by driver %d", sp.id, holder))
		case sp.occupied && sp.holder != holder:
			errs = append(errs, fmt.Errorf("space %d records holder %d, driver %d holds it", sp.id, sp.holder, holder))
		}
	}
	return errors.Join(errs...)
}
