package transport

import (
	"github.com/df07/go-mcrt/pkg/core"
	"github.com/df07/go-mcrt/pkg/geometry"
)

// State is a node of the packet state machine
type State int

const (
	// Emitted packets have been launched but not yet moved
	Emitted State = iota
	// Propagating packets are about to sample a free flight
	Propagating
	// Scattering packets have just changed direction inside a medium
	Scattering
	// Absorbing packets deposited their weight and ended
	Absorbing
	// Crossing packets have just met a surface and continue
	Crossing
	// Escaping packets left the world and ended
	Escaping
	// Terminated packets were ended by roulette, a history cap or a numerical fault
	Terminated
)

func (s State) String() string {
	switch s {
	case Emitted:
		return "emitted"
	case Propagating:
		return "propagating"
	case Scattering:
		return "scattering"
	case Absorbing:
		return "absorbing"
	case Crossing:
		return "crossing"
	case Escaping:
		return "escaping"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Terminal reports whether the history has ended
func (s State) Terminal() bool {
	return s == Absorbing || s == Escaping || s == Terminated
}

// Packet is the transient state of one history. It is owned by a single
// worker and only mutated by the Tracer.
type Packet struct {
	Position   core.Vec3
	Direction  core.Vec3
	Wavelength float64
	Weight     float64
	Region     geometry.RegionID
	Scatters   int
	Steps      int
	State      State
}
