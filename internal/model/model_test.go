package model

import "testing"

func TestFrame_Validate(t *testing.T) {
	tests := []struct {
		name    string
		frame   Frame
		wantErr bool
	}{
		{"gray ok", Frame{Data: make([]byte, 6), Width: 3, Height: 2, Layout: LayoutGray8}, false},
		{"bgr ok", Frame{Data: make([]byte, 18), Width: 3, Height: 2, Layout: LayoutBGR24}, false},
		{"rgba short", Frame{Data: make([]byte, 20), Width: 3, Height: 2, Layout: LayoutRGBA32}, true},
		{"jpeg without size", Frame{Data: []byte{0xFF, 0xD8}, Layout: LayoutJPEG}, false},
		{"empty", Frame{Layout: LayoutGray8}, true},
		{"zero width", Frame{Data: []byte{1}, Width: 0, Height: 1, Layout: LayoutGray8}, true},
		{"unknown layout", Frame{Data: []byte{1}, Width: 1, Height: 1, Layout: PixelLayout(42)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.frame.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFrame_CloneIsDeep(t *testing.T) {
	f := Frame{Data: []byte{1, 2, 3}, Width: 3, Height: 1, Layout: LayoutGray8, Source: "cam1"}
	c := f.Clone()
	c.Data[0] = 99

	if f.Data[0] != 1 {
		t.Errorf("Clone shares data with original")
	}
	if c.Source != "cam1" || c.Width != 3 {
		t.Errorf("Clone lost metadata: %+v", c)
	}
}

func TestGrayscaleBuffer_Empty(t *testing.T) {
	if !NewGrayscaleBuffer(0, 5).Empty() {
		t.Error("Expected 0x5 buffer to be empty")
	}
	b := NewGrayscaleBuffer(2, 2)
	if b.Empty() {
		t.Error("Expected 2x2 buffer to be non-empty")
	}
	b.Set(1, 1, 200)
	if b.At(1, 1) != 200 || b.Pix[3] != 200 {
		t.Errorf("Set/At mismatch: %v", b.Pix)
	}
}

func TestSessionReport(t *testing.T) {
	empty := NewSessionReport(nil)
	if !empty.Passed() || empty.Count() != 0 {
		t.Errorf("Expected passing empty report")
	}
	if empty.Message() != "All frames passed validation" {
		t.Errorf("Unexpected message: %s", empty.Message())
	}

	report := NewSessionReport([]BadFrameRecord{
		{Reason: "STD: 3.00"},
		{Reason: "Dark: 50.00"},
	})
	if report.Passed() {
		t.Error("Expected failing report")
	}
	if report.Message() != "2 defective frames" {
		t.Errorf("Unexpected message: %s", report.Message())
	}
	_, reason, err := report.Record(1)
	if err != nil || reason != "Dark: 50.00" {
		t.Errorf("Record(1) = %q, %v", reason, err)
	}
	if _, _, err := report.Record(2); err == nil {
		t.Error("Expected out of range error")
	}

	records := report.Records()
	records[0].Reason = "changed"
	if _, reason, _ := report.Record(0); reason != "STD: 3.00" {
		t.Errorf("Records() must return a copy, got %q", reason)
	}
}
