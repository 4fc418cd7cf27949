package signalset

import "github.com/dargor0/myhdl-cosim-bridge/logic"

// Flag bits tracked per SignalDescriptor, mirroring the C original's
// FLAG_HAS_CHANGED/FLAG_INITIAL_VAL plus the configuration-state flag
// this reimplementation needs up front.
type Flag uint8

const (
	// FlagUnconfigured is set until Configure assigns the descriptor a
	// slice into the host vector.
	FlagUnconfigured Flag = 1 << iota
	// FlagInitialVal is set on every descriptor when it is parsed and is
	// cleared only by the t=0 delta-cycle rearm rule.
	FlagInitialVal
	// FlagHasChanged marks a TO_SET descriptor whose shadow differs from
	// the vector's current slice contents.
	FlagHasChanged
)

// Has reports whether all bits of want are set in f.
func (f Flag) Has(want Flag) bool {
	return f&want == want
}

// Descriptor represents one named logic signal: a position in a
// SignalSet, its bit width, the slice it occupies in the host vector once
// configured, and the shadow value used to detect changes.
type Descriptor struct {
	Name  string
	Width int

	// Direction and the slice bounds are assigned by Configure, copied
	// from the host vector the set is first observed against.
	Direction  logic.Direction
	Lo, Hi     int // half-open [Lo, Hi) into the host vector's storage
	configured bool

	Flags Flag

	// Shadow holds the last-committed value, MSB-first, one Value per
	// bit — the descriptor's own width-sized logic.Value buffer.
	Shadow []logic.Value
}

// newDescriptor builds an unconfigured descriptor with an initialized
// shadow buffer and the startup flag set.
func newDescriptor(name string, width int) *Descriptor {
	shadow := make([]logic.Value, width)
	for i := range shadow {
		shadow[i] = logic.U
	}
	return &Descriptor{
		Name:   name,
		Width:  width,
		Flags:  FlagUnconfigured | FlagInitialVal,
		Shadow: shadow,
	}
}

// Configured reports whether Configure has assigned this descriptor a
// slice yet.
func (d *Descriptor) Configured() bool {
	return d.configured
}

// StorageIndex maps a descriptor-relative MSB-first bit position to its
// physical storage index in the owning vector.
func (d *Descriptor) StorageIndex(bitPos int) int {
	return d.Lo + logic.StorageIndex(bitPos, d.Direction, d.Width)
}
