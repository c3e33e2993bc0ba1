package classifier

import (
	"errors"
	"strings"
	"testing"
	"time"

	"framecheck/internal/config"
	"framecheck/internal/model"
	"framecheck/internal/service/analysis"
	"framecheck/internal/service/kernel"
)

func testFrame() model.Frame {
	return model.Frame{
		Data:      []byte{1, 2, 3, 4},
		Width:     2,
		Height:    2,
		Layout:    model.LayoutGray8,
		Source:    "cam1",
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSharpnessThreshold(t *testing.T) {
	th := config.DefaultThresholds()
	tests := []struct {
		std     float64
		wantBad bool
	}{
		{0, true},
		{24.99, true},
		{25.0, true},
		{25.0001, false},
		{300, false},
	}

	for _, tt := range tests {
		r := NewBuilder().SetSharpness(tt.std).Build(th, testFrame())
		v := r.Sharpness()
		if v == nil {
			t.Fatalf("std=%v: expected a verdict", tt.std)
		}
		if IsBad(v) != tt.wantBad {
			t.Errorf("std=%v: expected bad=%v", tt.std, tt.wantBad)
		}
		if v.Score() != tt.std {
			t.Errorf("std=%v: verdict carries %v", tt.std, v.Score())
		}
		if bad, ok := v.(Bad); ok && len(bad.Snapshot.Data) != 4 {
			t.Errorf("std=%v: bad verdict without snapshot", tt.std)
		}
	}
}

func TestExposureThresholds(t *testing.T) {
	th := config.DefaultThresholds()
	tests := []struct {
		dark, bright           float64
		wantDarkBad, wantBrBad bool
	}{
		{0, 0, false, false},
		{0.4499, 0.3999, false, false},
		{0.45, 0.40, true, true},
		{0.9, 0.1, true, false},
		{0.1, 1, false, true},
	}

	for _, tt := range tests {
		r := NewBuilder().SetExposure(analysis.Exposure{DarkShare: tt.dark, BrightShare: tt.bright}).Build(th, testFrame())
		dark, bright := r.Exposure()
		if IsBad(dark) != tt.wantDarkBad {
			t.Errorf("dark=%v: expected bad=%v", tt.dark, tt.wantDarkBad)
		}
		if IsBad(bright) != tt.wantBrBad {
			t.Errorf("bright=%v: expected bad=%v", tt.bright, tt.wantBrBad)
		}
	}
}

func TestBuild_LineLayout(t *testing.T) {
	r := NewBuilder().
		SetSharpness(12.344).
		SetExposure(analysis.Exposure{DarkShare: 0.441, BrightShare: 0.12}).
		Build(config.DefaultThresholds(), testFrame())

	want := "STD: 12.34\nDark Pixels: 44.10\nBright Pixels: 12.00"
	if got := r.Text(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	lines := r.Lines()
	wantTones := []Tone{ToneBad, ToneGood, ToneGood}
	for i, tone := range wantTones {
		if lines[i].Tone != tone {
			t.Errorf("Line %d: expected tone %s, got %s", i, tone, lines[i].Tone)
		}
	}
}

func TestBuild_PartialResults(t *testing.T) {
	th := config.DefaultThresholds()
	sharpErr := &analysis.StageError{Kind: analysis.KindSharpness, Stage: analysis.StageSharpness, Err: kernel.ErrAllocation}
	exposureErr := &analysis.StageError{Kind: analysis.KindEmptyResult, Stage: analysis.StageExposure, Err: kernel.ErrDarkResultEmpty}

	t.Run("exposure only with sharpness error", func(t *testing.T) {
		r := NewBuilder().
			SetExposure(analysis.Exposure{DarkShare: 0.5, BrightShare: 0}).
			AddError(sharpErr).
			Build(th, testFrame())

		lines := r.Lines()
		if len(lines) != 3 {
			t.Fatalf("Expected 3 lines, got %d: %q", len(lines), r.Text())
		}
		if !strings.HasPrefix(lines[0].Text, "Dark Pixels: 50.00") {
			t.Errorf("Expected dark line first, got %q", lines[0].Text)
		}
		if lines[2].Tone != ToneError || lines[2].Text != analysis.Describe(sharpErr) {
			t.Errorf("Expected error line last, got %+v", lines[2])
		}
		if r.Sharpness() != nil {
			t.Error("Expected no sharpness verdict")
		}
	})

	t.Run("sharpness only with exposure error", func(t *testing.T) {
		r := NewBuilder().SetSharpness(40).AddError(exposureErr).Build(th, testFrame())
		want := "STD: 40.00\n" + analysis.Describe(exposureErr)
		if r.Text() != want {
			t.Errorf("Expected %q, got %q", want, r.Text())
		}
		if r.HasBad() {
			t.Error("Expected no bad verdicts")
		}
	})

	t.Run("nothing but errors", func(t *testing.T) {
		r := FromMeasurements(analysis.Measurements{Errors: []error{sharpErr, exposureErr}}).Build(th, testFrame())
		if len(r.Lines()) != 2 || len(r.Errors()) != 2 {
			t.Fatalf("Expected two error lines, got %q", r.Text())
		}
		if r.BadRecords() != nil {
			t.Error("Expected no bad records")
		}
	})

	t.Run("nil error is ignored", func(t *testing.T) {
		r := NewBuilder().AddError(nil).Build(th, testFrame())
		if r.Text() != "" {
			t.Errorf("Expected empty result, got %q", r.Text())
		}
	})
}

func TestBadRecords_OrderAndSnapshot(t *testing.T) {
	frame := testFrame()
	r := FromMeasurements(analysis.Measurements{
		Sharpness: 3.5, HasSharpness: true,
		Exposure: analysis.Exposure{DarkShare: 0.6, BrightShare: 0.5}, HasExposure: true,
	}).Build(config.DefaultThresholds(), frame)

	records := r.BadRecords()
	wantReasons := []string{"Dark: 60.00", "Bright: 50.00", "STD: 3.50"}
	if len(records) != len(wantReasons) {
		t.Fatalf("Expected %d records, got %d", len(wantReasons), len(records))
	}
	for i, want := range wantReasons {
		if records[i].Reason != want {
			t.Errorf("Record %d: expected %q, got %q", i, want, records[i].Reason)
		}
		if !records[i].CapturedAt.Equal(frame.Timestamp) {
			t.Errorf("Record %d: expected capture time %v", i, frame.Timestamp)
		}
	}

	// Snapshot is a copy taken at build time.
	frame.Data[0] = 99
	if records[0].Snapshot.Data[0] != 1 {
		t.Error("Snapshot shares memory with the source frame")
	}
}

func TestGoodVerdictHasNoSnapshot(t *testing.T) {
	r := NewBuilder().SetSharpness(100).Build(config.DefaultThresholds(), testFrame())
	if _, ok := r.Sharpness().(Good); !ok {
		t.Fatalf("Expected Good verdict, got %T", r.Sharpness())
	}
	if len(r.BadRecords()) != 0 {
		t.Error("Good frame produced bad records")
	}
}

func TestANSI(t *testing.T) {
	r := NewBuilder().
		SetSharpness(1).
		AddError(errors.New("boom")).
		Build(config.DefaultThresholds(), testFrame())

	out := r.ANSI()
	if !strings.Contains(out, "\033[31mSTD: 1.00\033[0m") {
		t.Errorf("Expected red STD line, got %q", out)
	}
	if !strings.Contains(out, "\033[38;5;208mboom\033[0m") {
		t.Errorf("Expected orange error line, got %q", out)
	}
}
