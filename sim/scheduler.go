package sim

import "math/rand"

// Agent is anything the Scheduler activates once per step.
type Agent interface {
	AgentID() EntityID
	Step(ctx *StepContext)
}

// Scheduler activates every live agent once per step in a fresh random order.
//
// Agents may deregister themselves during their own activation. Removal is
// deferred: the agent is marked, skipped for the rest of the pass, and the
// live set is compacted once the pass is over. Agents added during a pass
// are first activated on the next step.
type Scheduler struct {
	rng     *rand.Rand
	agents  []Agent
	removed map[EntityID]bool
	running bool
	steps   int64
}

// NewScheduler creates an empty Scheduler that shuffles with rng.
func NewScheduler(rng *rand.Rand) *Scheduler {
	return &Scheduler{
		rng:     rng,
		removed: make(map[EntityID]bool),
	}
}

// Add registers an agent.
func (s *Scheduler) Add(a Agent) {
	s.agents = append(s.agents, a)
}

// Remove deregisters an agent. The agent receives no further activations.
func (s *Scheduler) Remove(id EntityID) {
	s.removed[id] = true
	if !s.running {
		s.compact()
	}
}

// Len returns the number of live agents.
func (s *Scheduler) Len() int {
	n := 0
	for _, a := range s.agents {
		if !s.removed[a.AgentID()] {
			n++
		}
	}
	return n
}

// Steps returns how many passes have completed.
func (s *Scheduler) Steps() int64 {
	return s.steps
}

// Step runs one pass over a random permutation of the live agents.
func (s *Scheduler) Step(ctx *StepContext) {
	order := make([]Agent, len(s.agents))
	copy(order, s.agents)
	s.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	s.running = true
	for _, a := range order {
		if s.removed[a.AgentID()] {
			continue
		}
		a.Step(ctx)
	}
	s.running = false
	s.compact()
	s.steps++
}

func (s *Scheduler) compact() {
	if len(s.removed) == 0 {
		return
	}
	live := s.agents[:0]
	for _, a := range s.agents {
		if !s.removed[a.AgentID()] {
			live = append(live, a)
		}
	}
	for i := len(live); i < len(s.agents); i++ {
		s.agents[i] = nil
	}
	s.agents = live
	clear(s.removed)
}
