package codec

import (
	"github.com/dargor0/myhdl-cosim-bridge/logic"
	"github.com/dargor0/myhdl-cosim-bridge/signalset"
)

// Apply parses text as a hexadecimal number and writes the resulting
// strict-logic bits into the descriptor's slice of the host vector,
// honoring the vector's direction. Bits for any descriptor not present in
// a response are left untouched by the caller simply never calling Apply
// for it.
func Apply(d *signalset.Descriptor, text string, vec *logic.LogicVector) error {
	bits, err := parseHex(text, d.Width)
	if err != nil {
		return err
	}
	for b := 0; b < d.Width; b++ {
		v := logic.FromBit(bits[b])
		vec.Set(d.StorageIndex(b), v)
		d.Shadow[b] = v
	}
	return nil
}
