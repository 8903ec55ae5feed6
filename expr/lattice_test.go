package expr

import "testing"

func TestCommonTypeNumeric(t *testing.T) {
	cases := []struct {
		a, b, want Type
	}{
		{SmallintType, IntegerType, IntegerType},
		{IntegerType, BigintType, BigintType},
		{BigintType, NumericType, NumericType},
		{NumericType, FloatType, FloatType},
		{FloatType, DoubleType, DoubleType},
		{DoubleType, MonetaryType, MonetaryType},
		{IntegerType, IntegerType, IntegerType},
	}
	for _, c := range cases {
		got, err := CommonType(c.a, c.b)
		if err != nil {
			t.Fatalf("CommonType(%s, %s): %v", c.a, c.b, err)
		}
		if got != c.want {
			t.Errorf("CommonType(%s, %s) = %s; want %s", c.a, c.b, got, c.want)
		}
		// commutative
		got2, err := CommonType(c.b, c.a)
		if err != nil || got2 != c.want {
			t.Errorf("CommonType(%s, %s) not commutative: got %s, err %v", c.b, c.a, got2, err)
		}
	}
}

func TestCommonTypeNullAbsorbing(t *testing.T) {
	got, err := CommonType(NullType, IntegerType)
	if err != nil || got != NullType {
		t.Fatalf("NULL must absorb: got %s, %v", got, err)
	}
	got, err = CommonType(IntegerType, NAType)
	if err != nil || got != NAType {
		t.Fatalf("NA must absorb: got %s, %v", got, err)
	}
}

func TestCommonTypeUnionNullIsIdentity(t *testing.T) {
	got, err := CommonTypeUnion(NullType, IntegerType)
	if err != nil || got != IntegerType {
		t.Fatalf("NULL must be identity under union: got %s, %v", got, err)
	}
}

func TestCommonTypeMaybeIdentity(t *testing.T) {
	got, err := CommonType(MaybeType, VarcharType)
	if err != nil || got != VarcharType {
		t.Fatalf("MAYBE must be identity: got %s, %v", got, err)
	}
}

func TestCommonTypeNoCommon(t *testing.T) {
	_, err := CommonType(BitType, VarcharType)
	if err == nil {
		t.Fatal("expected ErrNoCommonType for BIT/VARCHAR")
	}
	if _, ok := err.(*ErrNoCommonType); !ok {
		t.Fatalf("wrong error type: %T", err)
	}
}

func TestCommonTypeTemporal(t *testing.T) {
	got, err := CommonType(DateType, TimestampType)
	if err != nil || got != TimestampType {
		t.Fatalf("DATE join TIMESTAMP = %s, %v; want TIMESTAMP", got, err)
	}
	got, err = CommonType(TimestampType, DatetimeType)
	if err != nil || got != DatetimeType {
		t.Fatalf("TIMESTAMP join DATETIME = %s, %v; want DATETIME", got, err)
	}
	if _, err := CommonType(TimeType, DateType); err == nil {
		t.Fatal("TIME should not share a lattice position with DATE")
	}
}

func TestCommonTypeStringWidening(t *testing.T) {
	got, err := CommonType(CharType, VarcharType)
	if err != nil || got != VarcharType {
		t.Fatalf("CHAR join VARCHAR = %s, %v; want VARCHAR", got, err)
	}
}

func TestCommonTypeIdempotent(t *testing.T) {
	for _, ty := range []Type{IntegerType, VarcharType, DateType, LogicalType, BitType} {
		got, err := CommonType(ty, ty)
		if err != nil || got != ty {
			t.Errorf("CommonType(%s,%s) not idempotent: %s, %v", ty, ty, got, err)
		}
	}
}

func TestNumericFormula(t *testing.T) {
	// spec.md §4.5: dec = max(s1,s2); prec = dec + max(p1-s1,p2-s2) + 1
	prec, scale := NumericFormula(10, 2, 8, 4)
	if scale != 4 {
		t.Errorf("scale = %d; want 4", scale)
	}
	wantPrec := 4 + max(10-2, 8-4) + 1
	if prec != wantPrec {
		t.Errorf("prec = %d; want %d", prec, wantPrec)
	}
}

func TestNumericFormulaCapped(t *testing.T) {
	prec, _ := NumericFormula(38, 0, 38, 0)
	if prec != maxNumericPrecision {
		t.Errorf("prec = %d; want capped at %d", prec, maxNumericPrecision)
	}
}

func TestBetweenFormRoundTrip(t *testing.T) {
	for _, form := range []BetweenForm{FormGELE, FormGELT, FormGTLE, FormGTLT} {
		lo, hi := BetweenToComp(form)
		got, ok := CompToBetween(lo, hi)
		if !ok {
			t.Fatalf("CompToBetween(%v,%v) not recognized after BetweenToComp(%v)", lo, hi, form)
		}
		if got != form {
			t.Errorf("round trip mismatch: form %v -> ops -> form %v", form, got)
		}
	}
}

func TestCompToBetweenRejectsNonBetweenShapes(t *testing.T) {
	if _, ok := CompToBetween(Equals, NotEquals); ok {
		t.Fatal("Equals/NotEquals should not resolve to a BetweenForm")
	}
}
