package pika

import "sort"

// VarGroup tags a semantic block of variables within a propagation vector.
// The integer values fix the concatenation order: STATE variables always come
// first, followed by the STM, the epoch partials, and the parameter partials.
// Matrix-valued groups are stored in row-major order within the vector.
type VarGroup uint8

const (
	// State holds the state variables, usually position and velocity.
	State VarGroup = iota
	// STM holds the State Transition Matrix, the N×N partials of the
	// propagated state with respect to the initial state.
	STM
	// EpochPartials holds the N-element partials of the propagated state
	// with respect to the initial epoch.
	EpochPartials
	// ParamPartials holds the N×M partials of the propagated state with
	// respect to the M propagation parameters. Parameters are constant
	// through an integration; they have no governing differential equations.
	ParamPartials
)

func (g VarGroup) String() string {
	switch g {
	case State:
		return "STATE"
	case STM:
		return "STM"
	case EpochPartials:
		return "EPOCH_PARTIALS"
	case ParamPartials:
		return "PARAM_PARTIALS"
	}
	panic("cannot stringify unknown variable group")
}

// sortGroups returns the groups in canonical order with duplicates removed.
func sortGroups(groups []VarGroup) []VarGroup {
	seen := make(map[VarGroup]bool)
	out := make([]VarGroup, 0, len(groups))
	for _, g := range groups {
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// containsGroup returns whether g is one of groups.
func containsGroup(groups []VarGroup, g VarGroup) bool {
	for _, grp := range groups {
		if grp == g {
			return true
		}
	}
	return false
}

// coversGroups returns whether every requested group is present in groups.
func coversGroups(groups, requested []VarGroup) bool {
	for _, g := range requested {
		if !containsGroup(groups, g) {
			return false
		}
	}
	return true
}
