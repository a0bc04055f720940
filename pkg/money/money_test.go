package money

import "testing"

func TestParse_MinorUnits(t *testing.T) {
	a, err := Parse("700000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != Amount(700000) {
		t.Errorf("expected 700000, got %d", a)
	}
}

func TestParse_FixedPoint(t *testing.T) {
	cases := map[string]Amount{
		"7000.00": 700000,
		"7000.5":  700050,
		"0.01":    1,
		"-12.34":  -1234,
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("Parse(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1.234", "1.", "1,5"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestString(t *testing.T) {
	if s := Amount(700050).String(); s != "7000.50" {
		t.Errorf("expected 7000.50, got %s", s)
	}
	if s := Amount(-1).String(); s != "-0.01" {
		t.Errorf("expected -0.01, got %s", s)
	}
}

func TestMin(t *testing.T) {
	if Min(3, 5) != 3 || Min(5, 3) != 3 {
		t.Error("Min returned wrong value")
	}
}

func TestIsNegative(t *testing.T) {
	if Amount(1).IsNegative() || !Amount(-1).IsNegative() {
		t.Error("IsNegative wrong")
	}
}
