package sim

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idCounter() func() EntityID {
	next := EntityID(0)
	return func() EntityID {
		id := next
		next++
		return id
	}
}

func TestLayoutSpaces_DefaultFacility_PlacesInsideZones(t *testing.T) {
	// GIVEN the reference facility
	cfg := DefaultConfig()
	g, err := NewGrid(cfg.Width, cfg.Height)
	require.NoError(t, err)

	// WHEN spaces are laid out
	spaces, prov := layoutSpaces(g, cfg.Spaces, cfg.Zones, rand.New(rand.NewSource(42)), idCounter())

	// THEN every category is fully provisioned, each space inside its zone,
	// and no two spaces share a cell
	assert.False(t, prov.Shortfall())
	assert.Equal(t, cfg.Spaces.Total(), prov.TotalAchieved())
	require.Len(t, spaces, cfg.Spaces.Total())
	seen := make(map[Cell]bool)
	for _, sp := range spaces {
		z := cfg.Zones.For(sp.Category())
		c := sp.Cell()
		assert.True(t, c.X >= z.XMin && c.X <= z.XMax && c.Y >= z.YMin && c.Y <= z.YMax,
			"space %d (%s) at %v outside zone %+v", sp.ID(), sp.Category(), c, z)
		assert.False(t, seen[c], "two spaces at %v", c)
		seen[c] = true
		loc, ok := g.Location(sp.ID())
		assert.True(t, ok)
		assert.Equal(t, c, loc)
	}
}

func TestLayoutSpaces_ProvisionsInCategoryOrder(t *testing.T) {
	cfg := DefaultConfig()
	g, err := NewGrid(cfg.Width, cfg.Height)
	require.NoError(t, err)

	spaces, _ := layoutSpaces(g, cfg.Spaces, cfg.Zones, rand.New(rand.NewSource(1)), idCounter())

	for i := 1; i < len(spaces); i++ {
		assert.LessOrEqual(t, spaces[i-1].Category(), spaces[i].Category())
		assert.Less(t, spaces[i-1].ID(), spaces[i].ID())
	}
}

func TestLayoutSpaces_ZoneTooSmall_ReportsShortfall(t *testing.T) {
	// GIVEN a 2x2 zone asked to hold 10 spaces
	g, err := NewGrid(10, 10)
	require.NoError(t, err)
	counts := SpaceCounts{General: 10}
	zones := ZoneSet{General: Zone{XMin: 0, YMin: 0, XMax: 1, YMax: 1}}

	// WHEN laid out
	spaces, prov := layoutSpaces(g, counts, zones, rand.New(rand.NewSource(3)), idCounter())

	// THEN at most four spaces exist and the shortfall is reported
	assert.LessOrEqual(t, len(spaces), 4)
	assert.True(t, prov.Shortfall())
	assert.Equal(t, 10, prov.Requested[General])
	assert.Equal(t, len(spaces), prov.Achieved[General])
}

func TestLayoutSpaces_ZoneOffGrid_PlacesNothing(t *testing.T) {
	g, err := NewGrid(5, 5)
	require.NoError(t, err)
	counts := SpaceCounts{Electric: 3}
	zones := ZoneSet{Electric: Zone{XMin: 10, YMin: 10, XMax: 12, YMax: 12}}

	spaces, prov := layoutSpaces(g, counts, zones, rand.New(rand.NewSource(3)), idCounter())

	assert.Empty(t, spaces)
	assert.Equal(t, 0, prov.Achieved[Electric])
	assert.True(t, prov.Shortfall())
}

func TestClampZone(t *testing.T) {
	g, err := NewGrid(5, 4)
	require.NoError(t, err)

	z, ok := clampZone(Zone{XMin: -2, YMin: 1, XMax: 9, YMax: 9}, g)
	assert.True(t, ok)
	assert.Equal(t, Zone{XMin: 0, YMin: 1, XMax: 4, YMax: 3}, z)

	_, ok = clampZone(Zone{XMin: 3, YMin: 0, XMax: 1, YMax: 2}, g)
	assert.False(t, ok)
}

func TestShortfallError_Message(t *testing.T) {
	err := error(&ShortfallError{Provisioning: Provisioning{
		Requested: [numCategories]int{30, 10, 5},
		Achieved:  [numCategories]int{30, 7, 5},
	}})

	var sf *ShortfallError
	require.True(t, errors.As(err, &sf))
	assert.Equal(t, "facility under-provisioned: placed general 30/30, electric 7/10, reduced-mobility 5/5", err.Error())
}
