// Package codec implements the bidirectional projection between the
// host's nine-valued logic vectors and the textual (hexadecimal) wire
// representation.
package codec

import (
	"fmt"
	"strings"

	"github.com/dargor0/myhdl-cosim-bridge/cosimerr"
	"github.com/dargor0/myhdl-cosim-bridge/logic"
)

const hexDigits = "0123456789abcdef"

// renderHex packs bits (MSB-first, strict 0/1 only) into a hex string,
// grouping four bits per nibble starting at the least-significant bit and
// zero-padding a final partial nibble. Callers must have already
// validated that bits are all strict.
func renderHex(bits []int) string {
	width := len(bits)
	nibbleCount := (width + 3) / 4
	out := make([]byte, nibbleCount)
	for n := 0; n < nibbleCount; n++ {
		// Nibble n covers bit positions [width-1-4n-3 .. width-1-4n],
		// counting from the LSB (last element of bits) upward.
		val := 0
		for k := 0; k < 4; k++ {
			bitFromLSB := n*4 + k
			idx := width - 1 - bitFromLSB
			if idx < 0 {
				continue // padding: treated as 0
			}
			val |= bits[idx] << uint(k)
		}
		out[nibbleCount-1-n] = hexDigits[val]
	}
	return string(out)
}

// parseHex expands a hex string (MSB-first nibbles, right-most character
// least significant, underscores ignored) into exactly width strict bits,
// MSB-first. Missing high bits are zero-padded; a character that is
// neither a hex digit nor an underscore is a parse error.
func parseHex(text string, width int) ([]int, error) {
	clean := strings.ReplaceAll(text, "_", "")
	clean = strings.ToLower(clean)
	if clean == "" {
		return nil, fmt.Errorf("%w: empty hex value", cosimerr.ErrParseError)
	}

	bits := make([]int, width)
	// Walk nibbles right-to-left (LSB first), writing into bits MSB-first.
	for n := 0; n < len(clean); n++ {
		c := clean[len(clean)-1-n]
		val := strings.IndexByte(hexDigits, c)
		if val < 0 {
			return nil, fmt.Errorf("%w: %q is not a valid hex digit", cosimerr.ErrParseError, c)
		}
		for k := 0; k < 4; k++ {
			bitFromLSB := n*4 + k
			idx := width - 1 - bitFromLSB
			bit := (val >> uint(k)) & 1
			if idx < 0 {
				if bit != 0 {
					return nil, fmt.Errorf(
						"%w: hex value %q has more significant bits than declared width %d",
						cosimerr.ErrParseError, text, width,
					)
				}
				continue
			}
			bits[idx] = bit
		}
	}
	return bits, nil
}

// logicToBit converts a strict logic.Value to 0/1, returning
// cosimerr.ErrRenderAmbiguous for anything else: never guess intent for
// non-binary bits.
func logicToBit(v logic.Value) (int, error) {
	if !v.IsStrict() {
		return 0, fmt.Errorf("%w: bit value %q", cosimerr.ErrRenderAmbiguous, v)
	}
	return v.Bit(), nil
}
