package bible

import "testing"

func TestBookRange(t *testing.T) {
	tests := []struct {
		code     int
		min, max int
	}{
		{TestamentOld, 1, 39},
		{TestamentNew, 40, 66},
		{TestamentBoth, 1, 66},
	}
	for _, tt := range tests {
		min, max := BookRange(tt.code)
		if min != tt.min || max != tt.max {
			t.Errorf("BookRange(%d) = [%d, %d], want [%d, %d]", tt.code, min, max, tt.min, tt.max)
		}
	}
}

func TestValidTestament(t *testing.T) {
	for code := -1; code <= 5; code++ {
		want := code >= 1 && code <= 3
		if got := ValidTestament(code); got != want {
			t.Errorf("ValidTestament(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestBCVRoundTrip(t *testing.T) {
	loc := BCV{Book: 43, Chapter: 3, Verse: 16}
	if got := loc.String(); got != "43-3-16" {
		t.Fatalf("String() = %q, want %q", got, "43-3-16")
	}
	parsed, err := ParseBCV("43-3-16")
	if err != nil {
		t.Fatalf("ParseBCV: %v", err)
	}
	if parsed != loc {
		t.Errorf("ParseBCV = %+v, want %+v", parsed, loc)
	}

	for _, bad := range []string{"", "1-2", "1-2-3-4", "a-b-c"} {
		if _, err := ParseBCV(bad); err == nil {
			t.Errorf("ParseBCV(%q) should fail", bad)
		}
	}
}
