package wire

import (
	"math/big"
	"testing"
)

func TestPackIntRoundTrip(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 1 << 30, -(1 << 30)} {
		buf := PackInt(nil, v)
		if len(buf)%4 != 0 {
			t.Fatalf("PackInt(%d) not word-aligned: %d bytes", v, len(buf))
		}
		got, rest, err := UnpackInt(buf)
		if err != nil {
			t.Fatalf("UnpackInt: %v", err)
		}
		if got != v || len(rest) != 0 {
			t.Errorf("round trip %d -> %d (rest %d bytes)", v, got, len(rest))
		}
	}
}

func TestPackBigintRoundTrip(t *testing.T) {
	v := int64(1) << 40
	buf := PackBigint(nil, v)
	got, rest, err := UnpackBigint(buf)
	if err != nil || got != v || len(rest) != 0 {
		t.Fatalf("round trip failed: got=%d err=%v rest=%d", got, err, len(rest))
	}
}

func TestPackShortRoundTrip(t *testing.T) {
	v := int16(-12345)
	buf := PackShort(nil, v)
	if len(buf) != 4 {
		t.Fatalf("SMALLINT must still occupy one word, got %d bytes", len(buf))
	}
	got, _, err := UnpackShort(buf)
	if err != nil || got != v {
		t.Fatalf("round trip failed: got=%d err=%v", got, err)
	}
}

func TestPackDoubleRoundTrip(t *testing.T) {
	v := 3.14159265358979
	buf := PackDouble(nil, v)
	got, _, err := UnpackDouble(buf)
	if err != nil || got != v {
		t.Fatalf("round trip failed: got=%v err=%v", got, err)
	}
}

func TestPackStringRoundTrip(t *testing.T) {
	s := "hello, world"
	buf := PackString(nil, s, false)
	if len(buf)%4 != 0 {
		t.Fatalf("PackString result not word-aligned: %d bytes", len(buf))
	}
	got, isNull, rest, err := UnpackString(buf)
	if err != nil || isNull || got != s || len(rest) != 0 {
		t.Fatalf("round trip failed: got=%q isNull=%v err=%v rest=%d", got, isNull, err, len(rest))
	}
}

// TestPackStringEncodedSize checks spec.md §4.1's literal formula --
// "the encoded size of a string is 4 (length) + ceil(len+1, 4)" -- for
// a string whose length is already a multiple of 4, where the trailing
// NUL terminator still forces one extra padded word.
func TestPackStringEncodedSize(t *testing.T) {
	s := "abcd" // len(s) == 4, a 4-byte-aligned length
	buf := PackString(nil, s, false)
	want := 4 + align4(len(s)+1) // 4 (length word) + ceil(5,4)*1word == 12
	if len(buf) != want {
		t.Fatalf("PackString(%q): got %d bytes, want %d (spec.md §4.1: 4+ceil(len+1,4))", s, len(buf), want)
	}
	got, isNull, rest, err := UnpackString(buf)
	if err != nil || isNull || got != s || len(rest) != 0 {
		t.Fatalf("round trip failed: got=%q isNull=%v err=%v rest=%d", got, isNull, err, len(rest))
	}
}

func TestPackStringNull(t *testing.T) {
	buf := PackString(nil, "", true)
	got, isNull, _, err := UnpackString(buf)
	if err != nil || !isNull || got != "" {
		t.Fatalf("NULL string round trip failed: got=%q isNull=%v err=%v", got, isNull, err)
	}
}

func TestUnpackStringNocopyAliases(t *testing.T) {
	s := "alias me"
	buf := PackString(nil, s, false)
	got, _, _, err := UnpackStringNocopy(buf)
	if err != nil {
		t.Fatalf("UnpackStringNocopy: %v", err)
	}
	if string(got) != s {
		t.Fatalf("got %q, want %q", got, s)
	}
	// the nocopy slice must alias buf, not clone it.
	if len(got) > 0 && &got[0] != &buf[4] {
		t.Error("UnpackStringNocopy should alias the input buffer")
	}
}

func TestPackBitRoundTrip(t *testing.T) {
	bits := []byte{0xAB, 0xCD}
	buf := PackBit(nil, bits, 16, false)
	got, nbits, isNull, _, err := UnpackBit(buf)
	if err != nil || isNull || nbits != 16 || len(got) != 2 || got[0] != 0xAB || got[1] != 0xCD {
		t.Fatalf("round trip failed: got=%v nbits=%d isNull=%v err=%v", got, nbits, isNull, err)
	}
}

func TestPackNumericRoundTrip(t *testing.T) {
	unscaled := big.NewInt(-123456789)
	buf := PackNumeric(nil, 15, 4, unscaled)
	prec, scale, got, rest, err := UnpackNumeric(buf)
	if err != nil {
		t.Fatalf("UnpackNumeric: %v", err)
	}
	if prec != 15 || scale != 4 {
		t.Errorf("prec/scale = %d/%d; want 15/4", prec, scale)
	}
	if got.Cmp(unscaled) != 0 {
		t.Errorf("unscaled = %s; want %s", got, unscaled)
	}
	if len(rest) != 0 {
		t.Errorf("rest = %d bytes; want 0", len(rest))
	}
}

func TestPackOIDRoundTrip(t *testing.T) {
	o := OID{Volid: 3, Pageid: 99887766, Slotid: 12}
	buf := PackOID(nil, o)
	got, _, err := UnpackOID(buf)
	if err != nil || got != o {
		t.Fatalf("round trip failed: got=%+v err=%v", got, err)
	}
}

func TestPackValueDispatch(t *testing.T) {
	cases := []interface{}{nil, int16(7), int32(-9), int64(1 << 40), "text", []byte{1, 2, 3}}
	for _, v := range cases {
		buf, err := PackValue(nil, v)
		if err != nil {
			t.Fatalf("PackValue(%v): %v", v, err)
		}
		got, rest, err := UnpackValue(buf)
		if err != nil {
			t.Fatalf("UnpackValue: %v", err)
		}
		if len(rest) != 0 {
			t.Errorf("UnpackValue(%v) left %d trailing bytes", v, len(rest))
		}
		switch want := v.(type) {
		case []byte:
			g, ok := got.([]byte)
			if !ok || len(g) != len(want) {
				t.Errorf("PackValue/UnpackValue mismatch for %v: got %v", v, got)
			}
		default:
			if got != v {
				t.Errorf("PackValue/UnpackValue mismatch: got %v (%T), want %v (%T)", got, got, v, v)
			}
		}
	}
}

func TestUnpackValueUnknownTag(t *testing.T) {
	buf := PackInt(nil, 200) // not a registered tag
	_, _, err := UnpackValue(buf)
	if err == nil {
		t.Fatal("expected ErrUnknownTag")
	}
	if _, ok := err.(*ErrUnknownTag); !ok {
		t.Fatalf("wrong error type: %T", err)
	}
}

func TestSizeOfAligned(t *testing.T) {
	cases := map[int]int{0: 0, 1: 4, 3: 4, 4: 4, 5: 8}
	for n, want := range cases {
		if got := SizeOfAligned(n); got != want {
			t.Errorf("SizeOfAligned(%d) = %d; want %d", n, got, want)
		}
	}
}
