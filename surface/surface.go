// Package surface defines the fixed set of cortical surfaces the pipeline
// operates on and the species/hemisphere taxonomy over them.
//
// The ordering of the four surfaces (human left, human right, macaque left,
// macaque right) is a global invariant: feature matrices are concatenated in
// this order and similarity vectors are split back by the same order. All()
// is the single source of truth for it.
package surface

import "fmt"

// Surface identifies one of the four cortical surfaces.
type Surface int

const (
	HumanLeft Surface = iota
	HumanRight
	MacaqueLeft
	MacaqueRight
)

// All returns the four surfaces in their canonical order.
// Concatenation and splitting of per-vertex data must follow this order.
func All() []Surface {
	return []Surface{HumanLeft, HumanRight, MacaqueLeft, MacaqueRight}
}

func (s Surface) String() string {
	switch s {
	case HumanLeft:
		return "human_left"
	case HumanRight:
		return "human_right"
	case MacaqueLeft:
		return "macaque_left"
	case MacaqueRight:
		return "macaque_right"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Species returns the species the surface belongs to.
func (s Surface) Species() Species {
	switch s {
	case HumanLeft, HumanRight:
		return Human
	default:
		return Macaque
	}
}

// Hemisphere returns the hemisphere of the surface.
func (s Surface) Hemisphere() Hemisphere {
	switch s {
	case HumanLeft, MacaqueLeft:
		return Left
	default:
		return Right
	}
}

// Valid reports whether s is one of the four defined surfaces.
func (s Surface) Valid() bool {
	return s >= HumanLeft && s <= MacaqueRight
}

// Hemisphere identifies a cortical hemisphere.
type Hemisphere int

const (
	Left Hemisphere = iota
	Right
)

func (h Hemisphere) String() string {
	if h == Left {
		return "left"
	}
	return "right"
}

// Species is the tagged variant selecting a (left, right) surface pair.
type Species int

const (
	Human Species = iota
	Macaque
)

func (sp Species) String() string {
	if sp == Human {
		return "human"
	}
	return "macaque"
}

// Surfaces returns the (left, right) surface pair for the species.
func (sp Species) Surfaces() (left, right Surface) {
	if sp == Human {
		return HumanLeft, HumanRight
	}
	return MacaqueLeft, MacaqueRight
}

// ParseSpecies parses a species name. Accepted values are "human" and
// "macaque" (case-sensitive, matching the CLI contract).
func ParseSpecies(s string) (Species, error) {
	switch s {
	case "human":
		return Human, nil
	case "macaque":
		return Macaque, nil
	default:
		return Species(-1), fmt.Errorf("unknown species %q (want human or macaque)", s)
	}
}
