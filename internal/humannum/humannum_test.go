package humannum

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseSuffixes(t *testing.T) {
	cases := []struct {
		in      string
		display string
		value   string
	}{
		{"1.5m", "1,500,000", "1500000"},
		{"10k", "10,000", "10000"},
		{"2B", "2,000,000,000", "2000000000"},
		{" 3 k ", "3,000", "3000"},
		{"1,000k", "1,000,000", "1000000"},
		{"1.2345k", "1,234.5", "1234.5"},
		{"0.0001k", "0.1", "0.1"},
	}

	for _, tc := range cases {
		got := Parse(tc.in)
		if got.Display != tc.display {
			t.Fatalf("Parse(%q) display 期望 %q, 实际 %q", tc.in, tc.display, got.Display)
		}
		if !got.Value.Equal(decimal.RequireFromString(tc.value)) {
			t.Fatalf("Parse(%q) value 期望 %s, 实际 %s", tc.in, tc.value, got.Value)
		}
	}
}

func TestParseWithoutSuffixKeepsTyping(t *testing.T) {
	got := Parse("10000000")
	if got.Display != "10000000" {
		t.Fatalf("无后缀输入不应被格式化, 实际 %q", got.Display)
	}
	if got.Float() != 1e7 {
		t.Fatalf("期望 1e7, 实际 %v", got.Float())
	}

	got = Parse("12.")
	if got.Display != "12." || !got.Value.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("输入中途的小数点应保留: %+v", got)
	}

	got = Parse("1,234")
	if got.Display != "1234" || !got.Value.Equal(decimal.NewFromInt(1234)) {
		t.Fatalf("千分位应被移除: %+v", got)
	}
}

func TestParseMalformedFailsSoft(t *testing.T) {
	for _, in := range []string{"abc", "12x", "1..2", ".", "", "k", "1.5mm", "-5", "1 5"} {
		got := Parse(in)
		if got.Display != in {
			t.Fatalf("Parse(%q) 应原样返回输入, 实际 %q", in, got.Display)
		}
		if !got.Value.IsZero() {
			t.Fatalf("Parse(%q) 数值应为 0, 实际 %s", in, got.Value)
		}
	}
}

func TestParseDisplayRoundTrips(t *testing.T) {
	for _, in := range []string{"1.5m", "10k", "7b", "0.25k", "999", "42.5"} {
		first := Parse(in)
		second := Parse(first.Display)
		if !first.Value.Equal(second.Value) {
			t.Fatalf("%q: 重新解析 %q 得到 %s, 期望 %s", in, first.Display, second.Value, first.Value)
		}
	}
}

func TestFormat(t *testing.T) {
	cases := map[string]string{
		"0":             "0",
		"999":           "999",
		"1000":          "1,000",
		"-1500":         "-1,500",
		"-0.5":          "-0.5",
		"1234567.891":   "1,234,567.891",
		"1234567.89149": "1,234,567.891",
	}
	for in, want := range cases {
		if got := Format(decimal.RequireFromString(in)); got != want {
			t.Fatalf("Format(%s) 期望 %q, 实际 %q", in, want, got)
		}
	}
}
