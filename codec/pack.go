package codec

import (
	"github.com/dargor0/myhdl-cosim-bridge/logic"
	"github.com/dargor0/myhdl-cosim-bridge/signalset"
)

// Observe reads each descriptor's current slice out of the host vector,
// compares it element-wise against the descriptor's shadow, sets
// FlagHasChanged on any difference, and updates the shadow to match.
// It returns the descriptors that changed, in declared order.
//
// Running Observe twice with no intervening vector mutation must clear
// the flag on the second call and leave the shadow unchanged — callers
// rely on this idempotence.
func Observe(set *signalset.Set, vec *logic.LogicVector) []*signalset.Descriptor {
	var changed []*signalset.Descriptor
	for _, d := range set.Descriptors {
		differs := false
		for b := 0; b < d.Width; b++ {
			v := vec.Get(d.StorageIndex(b))
			if v != d.Shadow[b] {
				differs = true
			}
			d.Shadow[b] = v
		}
		if differs {
			d.Flags |= signalset.FlagHasChanged
			changed = append(changed, d)
		} else {
			d.Flags &^= signalset.FlagHasChanged
		}
	}
	return changed
}

// Render renders a descriptor's current shadow as hexadecimal wire text,
// MSB-first. It returns cosimerr.ErrRenderAmbiguous if any bit is not
// strictly 0/1 rather than guess at intent.
func Render(d *signalset.Descriptor) (string, error) {
	bits := make([]int, d.Width)
	for i, v := range d.Shadow {
		bit, err := logicToBit(v)
		if err != nil {
			return "", err
		}
		bits[i] = bit
	}
	return renderHex(bits), nil
}
