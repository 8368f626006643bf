package sim

import (
	"errors"
	"fmt"
)

// EntityID identifies a space or a driver. IDs are unique across both kinds
// within one Simulation.
type EntityID int

// Cell is a coordinate on the grid. X grows to the right, Y grows downward.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

var (
	// ErrOutOfBounds is returned when a cell lies outside the grid.
	ErrOutOfBounds = errors.New("cell out of bounds")
	// ErrAlreadyPlaced is returned when placing an entity that is already on the grid.
	ErrAlreadyPlaced = errors.New("entity already placed")
	// ErrNotPlaced is returned when moving an entity that is not on the grid.
	ErrNotPlaced = errors.New("entity not placed")
)

// Grid is a bounded, non-wrapping width x height cell space. A cell may hold
// any number of entities.
type Grid struct {
	width, height int
	cells         [][]EntityID // index = y*width + x
	where         map[EntityID]Cell
}

// NewGrid creates an empty grid.
func NewGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %dx%d", width, height)
	}
	return &Grid{
		width:  width,
		height: height,
		cells:  make([][]EntityID, width*height),
		where:  make(map[EntityID]Cell),
	}, nil
}

func (g *Grid) Width() int { return g.width }
func (g *Grid) Height() int { return g.height }

// InBounds reports whether c lies on the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.width && c.Y >= 0 && c.Y < g.height
}

func (g *Grid) index(c Cell) int {
	return c.Y*g.width + c.X
}

// Place puts an entity on cell c.
func (g *Grid) Place(id EntityID, c Cell) error {
	if !g.InBounds(c) {
		return fmt.Errorf("place %d at %v: %w", id, c, ErrOutOfBounds)
	}
	if _, ok := g.where[id]; ok {
		return fmt.Errorf("place %d at %v: %w", id, c, ErrAlreadyPlaced)
	}
	idx := g.index(c)
	g.cells[idx] = append(g.cells[idx], id)
	g.where[id] = c
	return nil
}

// Remove takes an entity off the grid. Unknown ids are ignored.
func (g *Grid) Remove(id EntityID) {
	c, ok := g.where[id]
	if !ok {
		return
	}
	g.detach(id, c)
	delete(g.where, id)
}

// Move relocates an entity that is already on the grid.
func (g *Grid) Move(id EntityID, c Cell) error {
	if !g.InBounds(c) {
		return fmt.Errorf("move %d to %v: %w", id, c, ErrOutOfBounds)
	}
	from, ok := g.where[id]
	if !ok {
		return fmt.Errorf("move %d to %v: %w", id, c, ErrNotPlaced)
	}
	if from == c {
		return nil
	}
	g.detach(id, from)
	idx := g.index(c)
	g.cells[idx] = append(g.cells[idx], id)
	g.where[id] = c
	return nil
}

// detach swap-removes id from the occupant list of c.
func (g *Grid) detach(id EntityID, c Cell) {
	idx := g.index(c)
	occ := g.cells[idx]
	for i, e := range occ {
		if e == id {
			last := len(occ) - 1
			occ[i] = occ[last]
			g.cells[idx] = occ[:last]
			return
		}
	}
}

// Location returns the cell an entity is on.
func (g *Grid) Location(id EntityID) (Cell, bool) {
	c, ok := g.where[id]
	return c, ok
}

// Occupants returns a copy of the entities on c. Out-of-bounds cells have none.
func (g *Grid) Occupants(c Cell) []EntityID {
	if !g.InBounds(c) {
		return nil
	}
	occ := g.cells[g.index(c)]
	if len(occ) == 0 {
		return nil
	}
	return append([]EntityID(nil), occ...)
}

// Neighbors returns the in-bounds Moore neighbourhood of c in row-major order:
// up to 8 cells, fewer on edges and corners, plus c itself when includeCenter is set.
func (g *Grid) Neighbors(c Cell, includeCenter bool) []Cell {
	out := make([]Cell, 0, 9)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 && !includeCenter {
				continue
			}
			n := Cell{X: c.X + dx, Y: c.Y + dy}
			if g.InBounds(n) {
				out = append(out, n)
			}
		}
	}
	return out
}
