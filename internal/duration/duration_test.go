package duration

import "testing"

func TestParseSingleUnit(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1 day", 86_400_000},
		{"1day", 86_400_000},
		{"2h 30m", 2*3_600_000 + 30*60_000},
		{"-1.5 weeks", int64(-1.5 * 604_800_000)},
		{"1M", 2_592_000_000},
		{"1m", 60_000},
		{"1 month", 2_592_000_000},
		{"3 seconds", 3000},
		{"1Sec", 1000},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := []string{"", "   ", "1 fortnight", "1day2", "day", "1 day "}
	for _, c := range cases {
		if c == "1 day " {
			// trailing whitespace is fine, only trailing non-whitespace errors
			if _, err := Parse(c); err != nil {
				t.Errorf("Parse(%q) should tolerate trailing whitespace, got %v", c, err)
			}
			continue
		}
		if _, err := Parse(c); err == nil {
			t.Errorf("Parse(%q) expected error, got none", c)
		}
	}
}

func TestParseBestEffort(t *testing.T) {
	if ms, ok := ParseBestEffort("1 day"); !ok || ms != 86_400_000 {
		t.Errorf("ParseBestEffort(1 day) = %d, %v", ms, ok)
	}
	if _, ok := ParseBestEffort("not a duration"); ok {
		t.Errorf("ParseBestEffort(garbage) expected ok=false")
	}
}
