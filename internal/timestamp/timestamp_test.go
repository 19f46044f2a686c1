package timestamp

import (
	"testing"
	"time"
)

func TestParse_CanonicalZulu(t *testing.T) {
	got, err := Parse("2025-11-28T21:00:00.000Z")
	if err != nil {
		t.Fatalf("expected valid timestamp, got error: %v", err)
	}

	want := time.Date(2025, 11, 28, 21, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parsed %v, want %v", got, want)
	}
	if got.Location() != time.UTC {
		t.Errorf("expected UTC location, got %v", got.Location())
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"bare date", "2025-11-28"},
		{"not a date", "not a date"},
		{"empty", ""},
		{"offset zone", "2025-11-28T21:00:00+02:00"},
		{"missing separator", "2025-11-28 21:00:00Z"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.input); err == nil {
				t.Errorf("expected error for %q", tc.input)
			}
		})
	}
}

func TestValid_NonString(t *testing.T) {
	for _, v := range []any{nil, 42, 3.14, true, []string{"2025-11-28T21:00:00.000Z"}} {
		if Valid(v) {
			t.Errorf("expected %v (%T) to be invalid", v, v)
		}
	}
}

func TestValid_String(t *testing.T) {
	if !Valid("2025-01-01T00:00:00.000Z") {
		t.Error("expected canonical timestamp to be valid")
	}
	if Valid("2025-01-01") {
		t.Error("expected bare date to be invalid")
	}
}
