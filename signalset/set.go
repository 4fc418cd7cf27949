package signalset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dargor0/myhdl-cosim-bridge/cosimerr"
	"github.com/dargor0/myhdl-cosim-bridge/logic"
)

// Set is an ordered sequence of descriptors — either FROM_SET (values
// produced by the peer, delivered into the simulator) or TO_SET (values
// observed in the simulator, delivered to the peer).
type Set struct {
	Descriptors []*Descriptor
	byName      map[string]*Descriptor
}

// Parse builds a Set from a single whitespace-separated string of
// alternating <name> <width> pairs. It fails with cosimerr.ErrParseError
// when the token count is uneven or any width isn't a positive integer.
func Parse(input string) (*Set, error) {
	fields := strings.Fields(input)
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("%w: signal list %q has an odd number of tokens", cosimerr.ErrParseError, input)
	}

	set := &Set{byName: make(map[string]*Descriptor)}
	for i := 0; i < len(fields); i += 2 {
		name := fields[i]
		widthTok := fields[i+1]
		width, err := strconv.Atoi(widthTok)
		if err != nil || width <= 0 {
			return nil, fmt.Errorf("%w: signal %q has non-positive width %q", cosimerr.ErrParseError, name, widthTok)
		}
		if _, dup := set.byName[name]; dup {
			return nil, fmt.Errorf("%w: duplicate signal name %q", cosimerr.ErrParseError, name)
		}
		d := newDescriptor(name, width)
		set.Descriptors = append(set.Descriptors, d)
		set.byName[name] = d
	}
	if len(set.Descriptors) == 0 {
		return nil, fmt.Errorf("%w: empty signal list", cosimerr.ErrParseError)
	}
	return set, nil
}

// TotalWidth returns the sum of all descriptor widths.
func (s *Set) TotalWidth() int {
	total := 0
	for _, d := range s.Descriptors {
		total += d.Width
	}
	return total
}

// Configured reports whether Configure has run on this set yet. An empty
// or never-parsed set is considered configured (nothing to assign).
func (s *Set) Configured() bool {
	for _, d := range s.Descriptors {
		if !d.configured {
			return false
		}
	}
	return true
}

// Configure assigns each descriptor a half-open slice [lo, hi) into the
// host vector by accumulating widths from the vector's least-significant
// end (bit 0), copies the vector's direction onto the set, and clears
// FlagUnconfigured. It is a protocol error (cosimerr.ErrInconsistentVector)
// to configure against a vector whose total length doesn't match the sum
// of declared widths.
func (s *Set) Configure(vec *logic.LogicVector) error {
	total := s.TotalWidth()
	if vec.Length() != total {
		return fmt.Errorf(
			"%w: host vector has %d bits, signal list declares %d",
			cosimerr.ErrInconsistentVector, vec.Length(), total,
		)
	}

	lo := 0
	for _, d := range s.Descriptors {
		d.Direction = vec.Direction
		d.Lo = lo
		d.Hi = lo + d.Width
		d.Flags &^= FlagUnconfigured
		d.configured = true
		lo = d.Hi
	}
	return nil
}

// EnsureConfigured configures the set against vec on first use, or — once
// already configured — verifies that vec's direction and length still
// match what was configured. A mismatch on a subsequent call is a
// protocol error, not a silent reconfiguration.
func (s *Set) EnsureConfigured(vec *logic.LogicVector) error {
	if !s.Configured() {
		return s.Configure(vec)
	}
	wantDir := s.Descriptors[0].Direction
	if err := vec.CheckConsistent(wantDir, s.TotalWidth()); err != nil {
		return fmt.Errorf("%w: %v", cosimerr.ErrInconsistentVector, err)
	}
	return nil
}

// Lookup returns the descriptor with the given name, or nil.
func (s *Set) Lookup(name string) *Descriptor {
	return s.byName[name]
}

// Names returns every descriptor name, in declared order.
func (s *Set) Names() []string {
	names := make([]string, len(s.Descriptors))
	for i, d := range s.Descriptors {
		names[i] = d.Name
	}
	return names
}
