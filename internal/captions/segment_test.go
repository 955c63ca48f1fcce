package captions_test

import (
	"math"
	"testing"

	"captioner/internal/captions"
)

func TestSegmentValidate(t *testing.T) {
	tests := []struct {
		name    string
		seg     captions.Segment
		wantErr bool
	}{
		{"valid", captions.Segment{Start: 0, End: 1.5, Text: "Hello"}, false},
		{"negative start", captions.Segment{Start: -0.1, End: 1, Text: "x"}, true},
		{"zero length", captions.Segment{Start: 2, End: 2, Text: "x"}, true},
		{"reversed", captions.Segment{Start: 3, End: 2, Text: "x"}, true},
		{"blank text", captions.Segment{Start: 0, End: 1, Text: " \n\t"}, true},
		{"nan", captions.Segment{Start: math.NaN(), End: 1, Text: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.seg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSequence(t *testing.T) {
	ordered := []captions.Segment{
		{Start: 0, End: 1.5, Text: "Hello"},
		{Start: 1.2, End: 3, Text: "overlap is fine here"},
		{Start: 1.2, End: 4, Text: "equal start is fine"},
	}
	if err := captions.ValidateSequence(ordered); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	unordered := []captions.Segment{
		{Start: 2, End: 3, Text: "late"},
		{Start: 1, End: 2, Text: "early"},
	}
	if err := captions.ValidateSequence(unordered); err == nil {
		t.Fatal("expected ordering error")
	}

	if err := captions.ValidateSequence(nil); err != nil {
		t.Fatalf("empty sequence should be valid: %v", err)
	}
}

func TestTotalDurationAndOverlap(t *testing.T) {
	segs := []captions.Segment{
		{Start: 0, End: 1.5, Text: "Hello"},
		{Start: 1.5, End: 3.0, Text: "world"},
	}
	if got := captions.TotalDuration(segs); got != 3.0 {
		t.Fatalf("TotalDuration = %v", got)
	}
	if captions.TotalDuration(nil) != 0 {
		t.Fatal("expected zero duration for empty list")
	}
	if segs[0].Overlaps(segs[1]) {
		t.Fatal("touching segments must not overlap")
	}
	if !(captions.Segment{Start: 0, End: 2}).Overlaps(segs[1]) {
		t.Fatal("expected overlap")
	}
	if d := segs[1].Duration(); d != 1.5 {
		t.Fatalf("Duration = %v", d)
	}
}
