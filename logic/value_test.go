package logic

import "testing"

func TestValueFromByteRoundTrip(t *testing.T) {
	for _, c := range []byte{'U', 'X', '0', '1', 'Z', 'W', 'L', 'H', '-'} {
		v, ok := ValueFromByte(c)
		if !ok {
			t.Fatalf("ValueFromByte(%q) not recognized", c)
		}
		if got := v.Byte(); got != c {
			t.Fatalf("round trip for %q produced %q", c, got)
		}
	}
}

func TestValueFromByteRejectsUnknown(t *testing.T) {
	if _, ok := ValueFromByte('9'); ok {
		t.Fatalf("expected '9' to be rejected")
	}
}

func TestIsStrictAndBit(t *testing.T) {
	if !Zero.IsStrict() || !One.IsStrict() {
		t.Fatalf("expected 0 and 1 to be strict")
	}
	if U.IsStrict() || X.IsStrict() || Z.IsStrict() {
		t.Fatalf("expected U/X/Z to be non-strict")
	}
	if Zero.Bit() != 0 || One.Bit() != 1 {
		t.Fatalf("unexpected bit values")
	}
}

func TestBitPanicsOnNonStrict(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic calling Bit() on non-strict value")
		}
	}()
	X.Bit()
}

func TestFromBit(t *testing.T) {
	if FromBit(0) != Zero {
		t.Fatalf("expected Zero")
	}
	if FromBit(1) != One {
		t.Fatalf("expected One")
	}
}
