package signalset

import (
	"errors"
	"testing"

	"github.com/dargor0/myhdl-cosim-bridge/cosimerr"
	"github.com/dargor0/myhdl-cosim-bridge/logic"
)

func TestParseValidList(t *testing.T) {
	set, err := Parse("a 1 b 2 c 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set.Descriptors) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(set.Descriptors))
	}
	if set.TotalWidth() != 6 {
		t.Fatalf("expected total width 6, got %d", set.TotalWidth())
	}
	if set.Lookup("b").Width != 2 {
		t.Fatalf("expected b width 2")
	}
}

func TestParseRejectsOddTokenCount(t *testing.T) {
	_, err := Parse("a 1 b")
	if !errors.Is(err, cosimerr.ErrParseError) {
		t.Fatalf("expected ErrParseError, got %v", err)
	}
}

func TestParseRejectsNonPositiveWidth(t *testing.T) {
	for _, input := range []string{"a 0", "a -1", "a notanumber"} {
		if _, err := Parse(input); !errors.Is(err, cosimerr.ErrParseError) {
			t.Fatalf("input %q: expected ErrParseError, got %v", input, err)
		}
	}
}

func TestParseRejectsDuplicateNames(t *testing.T) {
	if _, err := Parse("a 1 a 2"); !errors.Is(err, cosimerr.ErrParseError) {
		t.Fatalf("expected ErrParseError for duplicate name, got %v", err)
	}
}

func TestParseRejectsEmptyList(t *testing.T) {
	if _, err := Parse("   "); !errors.Is(err, cosimerr.ErrParseError) {
		t.Fatalf("expected ErrParseError for empty list, got %v", err)
	}
}

func TestConfigureAssignsDisjointContiguousSlices(t *testing.T) {
	set, err := Parse("a 1 b 2 c 3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	vec := logic.NewLogicVector(5, 0, logic.ToRight)
	if err := set.Configure(vec); err != nil {
		t.Fatalf("configure: %v", err)
	}

	wantBounds := [][2]int{{0, 1}, {1, 3}, {3, 6}}
	for i, d := range set.Descriptors {
		if d.Lo != wantBounds[i][0] || d.Hi != wantBounds[i][1] {
			t.Fatalf("descriptor %d: got [%d,%d), want [%d,%d)", i, d.Lo, d.Hi, wantBounds[i][0], wantBounds[i][1])
		}
		if d.Flags.Has(FlagUnconfigured) {
			t.Fatalf("descriptor %d: still unconfigured", i)
		}
		if d.Direction != vec.Direction {
			t.Fatalf("descriptor %d: direction not inherited from vector", i)
		}
	}
	if !set.Configured() {
		t.Fatalf("expected set to report configured")
	}
}

func TestEnsureConfiguredDetectsShapeChange(t *testing.T) {
	set, err := Parse("a 4")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	vec := logic.NewLogicVector(3, 0, logic.ToRight)
	if err := set.EnsureConfigured(vec); err != nil {
		t.Fatalf("initial configure: %v", err)
	}

	other := logic.NewLogicVector(0, 3, logic.ToLeft) // same length, direction flipped
	if err := set.EnsureConfigured(other); !errors.Is(err, cosimerr.ErrInconsistentVector) {
		t.Fatalf("expected ErrInconsistentVector on direction change, got %v", err)
	}
}

func TestConfigureRejectsWidthMismatch(t *testing.T) {
	set, err := Parse("a 1 b 2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	vec := logic.NewLogicVector(7, 0, logic.ToRight) // 8 bits, set only declares 3
	if err := set.Configure(vec); !errors.Is(err, cosimerr.ErrInconsistentVector) {
		t.Fatalf("expected ErrInconsistentVector, got %v", err)
	}
}
