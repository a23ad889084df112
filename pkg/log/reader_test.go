package log

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCapture(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.lblog")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)
	for _, e := range events {
		logger.Log(e)
	}
	require.NoError(t, logger.Close())
	return path
}

func readAll(t *testing.T, r *Reader) []Event {
	t.Helper()
	var out []Event
	for {
		e, err := r.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, e)
	}
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h7 := uint16(7)
	events := []Event{
		{Timestamp: base, ConnectionID: "a", Direction: DirectionIn, Layer: LayerArea, Command: &CommandEvent{Text: "SUBSCRIBE 7", Handle: &h7}},
		{Timestamp: base.Add(time.Second), ConnectionID: "a", Direction: DirectionOut, Layer: LayerArea, Packet: &PacketEvent{Count: 2, Handles: []uint16{3, 7}}},
		{Timestamp: base.Add(2 * time.Second), ConnectionID: "b", Direction: DirectionOut, Layer: LayerArea, Packet: &PacketEvent{Count: 1, Handles: []uint16{3}}},
		{Timestamp: base.Add(3 * time.Second), Layer: LayerEngine, Category: CategoryScan, Scan: &ScanEvent{}},
	}
	path := writeCapture(t, events)

	out := DirectionOut
	engine := LayerEngine
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"connection", Filter{ConnectionID: "a"}, 2},
		{"direction", Filter{Direction: &out}, 2},
		{"layer", Filter{Layer: &engine}, 1},
		{"time window", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"handle", Filter{Handle: &h7}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			require.NoError(t, err)
			defer r.Close()

			assert.Len(t, readAll(t, r), tt.want)
		})
	}
}

func TestReaderMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.lblog"))
	assert.Error(t, err)
}

func TestReaderExposesHeader(t *testing.T) {
	path := writeCapture(t, []Event{{Timestamp: time.Now()}})

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, CaptureFormat, r.Header().Format)
	assert.Equal(t, CaptureVersion, r.Header().Version)
	assert.Len(t, readAll(t, r), 1)
}

func TestReaderRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.lblog")
	require.NoError(t, os.WriteFile(path, []byte("not cbor at all"), 0o644))

	_, err := NewReader(path)
	assert.ErrorIs(t, err, ErrNotCapture)
}

func TestReaderEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.lblog")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}
