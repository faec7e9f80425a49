package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"1.5", 1.5, true},
		{"1,5", 1.5, true},
		{" 2.50 ", 2.5, true},
		{"-12", -12, true},
		{"(120)", -120, true},
		{"1 234,50", 1234.5, true},
		{"1 234,50 грн", 1234.5, true},
		{"1,234.50", 1234.5, true},
		{"1.234,50", 1234.5, true},
		{"1,234,567", 1234567, true},
		{"1.234.567", 1234567, true},
		{"5%", 5, true},
		{"-33,33 %", -33.33, true},
		{"₴ 100", 100, true},
		{"100 UAH", 100, true},
		{"1'000", 1000, true},
		{"", 0, false},
		{"abc", 0, false},
		{"грн", 0, false},
		{"NaN", 0, false},
		{"1.2.3,4.5", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %v", tc.in, got)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in       float64
		currency string
		want     string
	}{
		{0, "", "0,00"},
		{5, "грн", "5,00 грн"},
		{1234.5, "грн", "1 234,50 грн"},
		{-1234567.891, "", "-1 234 567,89"},
		{999.999, "€", "1 000,00 €"},
		{-0.001, "", "0,00"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.in, tc.currency); got != tc.want {
			t.Fatalf("FormatAmount(%v, %q) = %q, want %q", tc.in, tc.currency, got, tc.want)
		}
	}
	if got := FormatPercent(-33.3333); got != "-33,33 %" {
		t.Fatalf("FormatPercent = %q", got)
	}
}
