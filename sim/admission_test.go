package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubFacility reports fixed free counts.
type stubFacility struct {
	free [numCategories]int
}

func (f stubFacility) FreeCount(c Category) int { return f.free[c] }
func (f stubFacility) Now() int64 { return 0 }

func TestAlwaysAdmit_AdmitsAll(t *testing.T) {
	policy := &AlwaysAdmit{}
	full := stubFacility{}
	for _, c := range Categories() {
		admitted, reason := policy.Admit(c, full)
		assert.True(t, admitted, "category %s", c)
		assert.Empty(t, reason)
	}
}

func TestCapacityAdmit_RejectsOnlyWhenCategoryFull(t *testing.T) {
	// GIVEN free general spaces but no free electric ones
	policy := &CapacityAdmit{}
	view := stubFacility{free: [numCategories]int{General: 2, Electric: 0, ReducedMobility: 1}}

	// WHEN each category arrives
	genOK, _ := policy.Admit(General, view)
	evOK, evReason := policy.Admit(Electric, view)
	rmOK, _ := policy.Admit(ReducedMobility, view)

	// THEN only the saturated category is turned away, with a reason
	assert.True(t, genOK)
	assert.False(t, evOK)
	assert.Equal(t, "no free electric space", evReason)
	assert.True(t, rmOK)
}

func TestNewAdmissionPolicy_ValidNames(t *testing.T) {
	tests := []struct {
		name string
		want AdmissionPolicy
	}{
		{"", &AlwaysAdmit{}},
		{"always-admit", &AlwaysAdmit{}},
		{"capacity", &CapacityAdmit{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.IsType(t, tt.want, NewAdmissionPolicy(tt.name))
		})
	}
}

func TestNewAdmissionPolicy_InvalidName_Panics(t *testing.T) {
	assert.Panics(t, func() { NewAdmissionPolicy("token-bucket") })
}
