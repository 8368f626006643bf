package sim

import (
	"fmt"
	"math/rand"
	"strings"
)

// placementAttemptsPerSpace bounds the rejection sampling budget: a category
// with a target of n spaces gets 10*n cell draws.
const placementAttemptsPerSpace = 10

// Provisioning reports how many spaces each category asked for and received.
type Provisioning struct {
	Requested [numCategories]int
	Achieved  [numCategories]int
}

// Shortfall reports whether any category received fewer spaces than requested.
func (p Provisioning) Shortfall() bool {
	for _, c := range Categories() {
		if p.Achieved[c] < p.Requested[c] {
			return true
		}
	}
	return false
}

// TotalAchieved returns the number of spaces actually placed.
func (p Provisioning) TotalAchieved() int {
	n := 0
	for _, a := range p.Achieved {
		n += a
	}
	return n
}

// ShortfallError is returned when the facility could not be fully provisioned.
type ShortfallError struct {
	Provisioning Provisioning
}

func (e *ShortfallError) Error() string {
	parts := make([]string, 0, numCategories)
	for _, c := range Categories() {
		parts = append(parts, fmt.Sprintf("%s %d/%d", c, e.Provisioning.Achieved[c], e.Provisioning.Requested[c]))
	}
	return "facility under-provisioned: placed " + strings.Join(parts, ", ")
}

// clampZone intersects z with the grid. ok is false when nothing is left.
func clampZone(z Zone, g *Grid) (Zone, bool) {
	out := Zone{
		XMin: max(z.XMin, 0),
		YMin: max(z.YMin, 0),
		XMax: min(z.XMax, g.Width()-1),
		YMax: min(z.YMax, g.Height()-1),
	}
	return out, out.XMin <= out.XMax && out.YMin <= out.YMax
}

// layoutSpaces draws space cells for every category, in category order, by
// rejection sampling inside each category's zone. A draw is rejected when its
// cell already holds a space. newID hands out entity ids.
func layoutSpaces(g *Grid, counts SpaceCounts, zones ZoneSet, rng *rand.Rand, newID func() EntityID) ([]*ParkingSpace, Provisioning) {
	var (
		spaces []*ParkingSpace
		prov   Provisioning
		taken  = make(map[Cell]bool)
	)
	for _, cat := range Categories() {
		target := counts.For(cat)
		prov.Requested[cat] = target
		zone, ok := clampZone(zones.For(cat), g)
		if !ok || target == 0 {
			continue
		}
		placed := 0
		for attempts := 0; placed < target && attempts < target*placementAttemptsPerSpace; attempts++ {
			cell := Cell{
				X: zone.XMin + rng.Intn(zone.XMax-zone.XMin+1),
				Y: zone.YMin + rng.Intn(zone.YMax-zone.YMin+1),
			}
			if taken[cell] {
				continue
			}
			space := &ParkingSpace{id: newID(), category: cat, cell: cell}
			if err := g.Place(space.id, cell); err != nil {
				panic(fmt.Sprintf("placing space inside clamped zone: %v", err))
			}
			taken[cell] = true
			spaces = append(spaces, space)
			placed++
		}
		prov.Achieved[cat] = placed
	}
	return spaces, prov
}
