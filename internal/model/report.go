package model

import (
	"fmt"
	"time"
)

// BadFrameRecord is a retained snapshot of a frame that failed a metric.
type BadFrameRecord struct {
	Snapshot   Frame
	Reason     string // e.g. "STD: 12.34"
	CapturedAt time.Time
}

// SessionReport is produced once per session when analysis stops.
type SessionReport struct {
	records []BadFrameRecord
}

// NewSessionReport takes ownership of records.
func NewSessionReport(records []BadFrameRecord) SessionReport {
	return SessionReport{records: records}
}

// Passed reports that no defective frame was observed.
func (r SessionReport) Passed() bool {
	return len(r.records) == 0
}

func (r SessionReport) Count() int {
	return len(r.records)
}

// Record returns the snapshot and reason of the i-th record in insertion order.
func (r SessionReport) Record(i int) (Frame, string, error) {
	if i < 0 || i >= len(r.records) {
		return Frame{}, "", fmt.Errorf("record %d out of range [0,%d)", i, len(r.records))
	}
	return r.records[i].Snapshot, r.records[i].Reason, nil
}

// Records returns a copy of the ordered records.
func (r SessionReport) Records() []BadFrameRecord {
	out := make([]BadFrameRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Message is the one-line summary shown to the operator.
func (r SessionReport) Message() string {
	if r.Passed() {
		return "All frames passed validation"
	}
	return fmt.Sprintf("%d defective frames", len(r.records))
}
