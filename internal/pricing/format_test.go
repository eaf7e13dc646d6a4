package pricing

import "testing"

func TestFormatKRW(t *testing.T) {
	cases := []struct {
		minor int64
		want  string
	}{
		{0, "0원"},
		{999, "999원"},
		{1000, "1,000원"},
		{30000, "30,000원"},
		{1234567, "1,234,567원"},
		{-5000, "-5,000원"},
	}
	for _, tc := range cases {
		if got := Format(Amount{Minor: tc.minor, Currency: KRW}); got != tc.want {
			t.Fatalf("Format(%d KRW) = %q, want %q", tc.minor, got, tc.want)
		}
	}
}

func TestFormatUSD(t *testing.T) {
	cases := []struct {
		minor int64
		want  string
	}{
		{0, "$0.00"},
		{2550, "$25.50"},
		{100000, "$1,000.00"},
		{5, "$0.05"},
		{-250, "-$2.50"},
	}
	for _, tc := range cases {
		if got := Format(Amount{Minor: tc.minor, Currency: USD}); got != tc.want {
			t.Fatalf("Format(%d USD) = %q, want %q", tc.minor, got, tc.want)
		}
	}
}
