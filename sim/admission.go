package sim

import "fmt"

// FacilityView is the read-only facility state an admission policy may consult.
type FacilityView interface {
	FreeCount(c Category) int
	Now() int64
}

// AdmissionPolicy decides whether an arriving vehicle enters the facility.
// A rejected vehicle is counted as turned away and never becomes a Driver.
type AdmissionPolicy interface {
	Admit(c Category, view FacilityView) (admitted bool, reason string)
}

// AlwaysAdmit admits every arrival regardless of occupancy.
type AlwaysAdmit struct{}

func (a *AlwaysAdmit) Admit(_ Category, _ FacilityView) (bool, string) {
	return true, ""
}

// CapacityAdmit turns a vehicle away when no space of its category is free
// at the moment it arrives.
type CapacityAdmit struct{}

func (a *CapacityAdmit) Admit(c Category, view FacilityView) (bool, string) {
	if view.FreeCount(c) > 0 {
		return true, ""
	}
	return false, fmt.Sprintf("no free %s space", c)
}

// ValidAdmissionPolicies is the set of recognized admission policy names.
// Shared by Config.Validate() and NewAdmissionPolicy().
var ValidAdmissionPolicies = map[string]bool{"": true, "always-admit": true, "capacity": true}

// NewAdmissionPolicy creates an admission policy by name.
// An empty string defaults to AlwaysAdmit (for CLI flag default compatibility).
// Panics on unrecognized names.
func NewAdmissionPolicy(name string) AdmissionPolicy {
	if !ValidAdmissionPolicies[name] {
		panic(fmt.Sprintf("unknown admission policy %q", name))
	}
	switch name {
	case "", "always-admit":
		return &AlwaysAdmit{}
	case "capacity":
		return &CapacityAdmit{}
	default:
		panic(fmt.Sprintf("unhandled admission policy %q", name))
	}
}
