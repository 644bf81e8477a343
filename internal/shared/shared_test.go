package shared

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestDates(t *testing.T) {
	t.Run("DateOf drops clock and zone", func(t *testing.T) {
		zone := time.FixedZone("EST", -5*60*60)
		got := DateOf(time.Date(2026, 3, 1, 23, 30, 0, 0, zone))
		want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("DateOf() = %v, want %v", got, want)
		}
	})

	t.Run("ParseDate", func(t *testing.T) {
		tc := []struct {
			name    string
			input   string
			want    time.Time
			wantErr bool
		}{
			{name: "iso date", input: "2026-03-01", want: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
			{name: "surrounding space", input: " 2025-12-07 ", want: time.Date(2025, 12, 7, 0, 0, 0, 0, time.UTC)},
			{name: "display format", input: "March 1, 2026", wantErr: true},
			{name: "empty", input: "", wantErr: true},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				got, err := ParseDate(tt.input)
				if tt.wantErr {
					if !errors.Is(err, ErrInvalidArgument) {
						t.Errorf("expected ErrInvalidArgument, got %v", err)
					}
					return
				}
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !got.Equal(tt.want) {
					t.Errorf("ParseDate() = %v, want %v", got, tt.want)
				}
			})
		}
	})

	t.Run("DisplayDate", func(t *testing.T) {
		if got := DisplayDate(time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)); got != "February 15, 2026" {
			t.Errorf("DisplayDate() = %q", got)
		}
	})
}

func TestDescribe(t *testing.T) {
	tc := []struct {
		name string
		err  error
		want string
	}{
		{name: "repository", err: fmt.Errorf("%w: page 2: boom", ErrRepository), want: "repository error"},
		{name: "not found wins over repository", err: fmt.Errorf("%w: %w", ErrRepository, ErrNotFound), want: "not found"},
		{name: "lookup", err: fmt.Errorf("%w: no entry for 2026-08-01", ErrLookup), want: "lectionary lookup failed"},
		{name: "generation", err: fmt.Errorf("%w: benediction", ErrGeneration), want: "generation failed"},
		{name: "unclassified", err: errors.New("disk on fire"), want: "error"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.err); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected distinct ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string of length 36, got %q", a)
	}
}
