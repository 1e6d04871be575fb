package render

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"uwbmonitor/pkg/record"

	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 14, 9, 5, 7, 0, time.Local)
}

func newTestFormatter() *Formatter {
	f := New(false)
	f.Now = fixedClock
	return f
}

func TestFormat_DeviceFound(t *testing.T) {
	f := newTestFormatter()
	candidate := `{"type":"device_found","device_addr":"1A2B3C4D","distance_cm":123.45,"rssi_dbm":-72.5,"timestamp_ms":9001,"channel":5,"prf":64,"frame_quality":87}`

	expected := strings.Join([]string{
		"",
		Separator,
		"Device Found: 0x1A2B3C4D",
		Separator,
		"Timestamp:      9001 ms",
		"Distance:       123.45 cm (1.23 m)",
		"RSSI:           -72.50 dBm",
		"Channel:        5",
		"PRF:            64 MHz",
		"Frame Quality:  87",
		Separator,
	}, "\n")

	require.Equal(t, expected, f.Format(candidate))
	require.Len(t, Separator, 60)
}

func TestFormat_DeviceFoundDefaults(t *testing.T) {
	f := newTestFormatter()
	out := f.Format(`{"type":"device_found"}`)

	require.Contains(t, out, "Device Found: 0xUnknown\n")
	require.Contains(t, out, "Timestamp:      0 ms\n")
	require.Contains(t, out, "Distance:       0.00 cm (0.00 m)\n")
	require.Contains(t, out, "RSSI:           0.00 dBm\n")
	require.Contains(t, out, "Channel:        0\n")
	require.Contains(t, out, "PRF:            0 MHz\n")
	require.Contains(t, out, "Frame Quality:  0\n")
}

func TestFormat_DeviceFoundIsRepeatable(t *testing.T) {
	f := New(false)
	candidate := `{"type":"device_found","device_addr":"00000000DECA0130","distance_cm":87.2,"rssi_dbm":-80.12,"timestamp_ms":120034,"channel":9,"prf":64,"frame_quality":95}`
	require.Equal(t, f.Format(candidate), f.Format(candidate))
}

func TestFormat_DistanceInMeters(t *testing.T) {
	f := newTestFormatter()
	for _, cm := range []float64{0, 0.5, 1, 99.99, 100, 123.45, 250.004, 1234.5678, -12.5} {
		rendered, ok := f.Render(record.DeviceFound{DistanceCM: cm})
		require.True(t, ok)
		want := fmt.Sprintf("Distance:       %.2f cm (%.2f m)", cm, cm/100)
		require.Contains(t, rendered, want)
	}
}

func TestFormat_Status(t *testing.T) {
	f := newTestFormatter()
	require.Equal(t, "[09:05:07] STATUS: scanning", f.Format(`{"type":"status","message":"scanning"}`))
	require.Equal(t, "[09:05:07] STATUS: ", f.Format(`{"type":"status"}`))
}

func TestFormat_Error(t *testing.T) {
	f := newTestFormatter()
	require.Equal(t, "[09:05:07] ERROR: DW3000 init failed", f.Format(`{"type":"error","message":"DW3000 init failed"}`))
}

func TestFormat_StatusUsesWallClock(t *testing.T) {
	f := New(false)
	before := time.Now()
	out := f.Format(`{"type":"status","message":"x"}`)
	after := time.Now()

	stamp := out[1:9]
	require.True(t, stamp == before.Format("15:04:05") || stamp == after.Format("15:04:05"), out)
}

func TestFormat_MalformedIsVerbatim(t *testing.T) {
	f := newTestFormatter()
	inputs := []string{
		`{"type":"device_found",`,
		`{`,
		`{x} {"type":"status","message":"ok"} end}`,
		`{"type":"device_found","channel":"five"}`,
	}
	for _, input := range inputs {
		require.Equal(t, input, f.Format(input))
	}
}

func TestFormat_UnknownIsVerbatim(t *testing.T) {
	f := newTestFormatter()
	for _, input := range []string{`{"type":"heartbeat"}`, `{}`, `{"message":"no type"}`} {
		require.Equal(t, input, f.Format(input))
	}
}

func TestFormat_MixedCaseKeysAreNotRecords(t *testing.T) {
	f := newTestFormatter()

	input := `{"TYPE":"status","MESSAGE":"hi"}`
	require.Equal(t, input, f.Format(input))

	out := f.Format(`{"type":"device_found","Device_Addr":"AB","CHANNEL":9}`)
	require.Contains(t, out, "Device Found: 0xUnknown\n")
	require.Contains(t, out, "Channel:        0\n")
}

func TestFormatOutput_Kinds(t *testing.T) {
	f := newTestFormatter()

	out := f.FormatOutput(`{"type":"status","message":"scanning"}`)
	require.Equal(t, KindRecord, out.Kind)
	require.Equal(t, "[09:05:07] STATUS: scanning", out.Text)
	require.Equal(t, record.Status{Message: "scanning"}, out.Record)
	require.NoError(t, out.Err)

	out = f.FormatOutput(`{"type":"heartbeat"}`)
	require.Equal(t, KindUnknown, out.Kind)
	require.Equal(t, `{"type":"heartbeat"}`, out.Text)
	require.Equal(t, record.Unknown{Discriminant: "heartbeat"}, out.Record)

	out = f.FormatOutput(`{"type":"status",`)
	require.Equal(t, KindMalformed, out.Kind)
	require.Equal(t, `{"type":"status",`, out.Text)
	require.Nil(t, out.Record)
	require.ErrorIs(t, out.Err, record.ErrMalformed)
}

func TestRender_Unknown(t *testing.T) {
	out, ok := newTestFormatter().Render(record.Unknown{Discriminant: "heartbeat"})
	require.False(t, ok)
	require.Empty(t, out)
}

func TestFormat_ZeroValueFormatter(t *testing.T) {
	var f Formatter
	out := f.Format(`{"type":"error","message":"boom"}`)
	require.True(t, strings.HasSuffix(out, "] ERROR: boom"), out)
}

func TestFormat_ColorKeepsText(t *testing.T) {
	f := New(true)
	f.Now = fixedClock

	out := f.Format(`{"type":"error","message":"boom"}`)
	require.True(t, strings.HasPrefix(out, "[09:05:07] "), out)
	require.Contains(t, out, "ERROR:")
	require.True(t, strings.HasSuffix(out, " boom"), out)

	out = f.Format(`{"type":"device_found","device_addr":"AB"}`)
	require.Contains(t, out, "Device Found: 0xAB")
}
