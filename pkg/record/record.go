// Package record decodes the JSON payloads emitted by the scanner firmware.
//
// Every payload carries a "type" discriminant. Decode maps it onto a closed
// set of variants: DeviceFound, Status, Error and Unknown. Keys are
// case-sensitive. Missing fields are not an error; they keep their defaults.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Discriminant values sent by the firmware.
const (
	TypeDeviceFound = "device_found"
	TypeStatus      = "status"
	TypeError       = "error"
)

// UnknownAddr is the device address used when a device_found payload has no
// device_addr field.
const UnknownAddr = "Unknown"

// ErrMalformed is returned by Decode when the candidate is not a JSON object
// of the expected shape.
var ErrMalformed = errors.New("malformed record")

// Record is one decoded payload. The concrete type is one of DeviceFound,
// Status, Error or Unknown.
type Record interface {
	// Type returns the discriminant as sent by the device.
	Type() string
	isRecord()
}

// DeviceFound reports a ranging result for one remote device.
type DeviceFound struct {
	DeviceAddr   string  `json:"device_addr"`
	DistanceCM   float64 `json:"distance_cm"`
	RSSIDBm      float64 `json:"rssi_dbm"`
	TimestampMS  int64   `json:"timestamp_ms"`
	Channel      int     `json:"channel"`
	PRF          int     `json:"prf"`
	FrameQuality int     `json:"frame_quality"`
	FPPIndex     int     `json:"fpp_index"`
	FPPLevel     float64 `json:"fpp_level"`
}

// DistanceM returns the distance in meters.
func (d DeviceFound) DistanceM() float64 {
	return d.DistanceCM / 100
}

// Status is an informational message from the firmware.
type Status struct {
	Message string `json:"message"`
}

// Error is an error message from the firmware.
type Error struct {
	Message string `json:"message"`
}

// Unknown is a payload whose discriminant is missing or not recognized.
type Unknown struct {
	Discriminant string `json:"type"`
}

func (DeviceFound) Type() string { return TypeDeviceFound }
func (Status) Type() string      { return TypeStatus }
func (Error) Type() string       { return TypeError }
func (u Unknown) Type() string   { return u.Discriminant }

func (DeviceFound) isRecord() {}
func (Status) isRecord()      {}
func (Error) isRecord()       {}
func (Unknown) isRecord()     {}

// fields holds the members of one payload object. Keys are matched exactly,
// unlike encoding/json struct decoding which ignores case.
type fields map[string]json.RawMessage

// get decodes the member named key into dst. A missing member leaves dst
// untouched.
func (f fields) get(key string, dst any) error {
	raw, ok := f[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// Decode parses candidate into a Record. Member names must match the
// firmware's keys exactly. Any decoding failure, including a field of the
// wrong JSON type, yields an error wrapping ErrMalformed.
func Decode(candidate string) (Record, error) {
	var f fields
	if err := json.Unmarshal([]byte(candidate), &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	var typ string
	if err := f.get("type", &typ); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	var rec Record
	var err error
	switch typ {
	case TypeDeviceFound:
		d := DeviceFound{DeviceAddr: UnknownAddr}
		err = errors.Join(
			f.get("device_addr", &d.DeviceAddr),
			f.get("distance_cm", &d.DistanceCM),
			f.get("rssi_dbm", &d.RSSIDBm),
			f.get("timestamp_ms", &d.TimestampMS),
			f.get("channel", &d.Channel),
			f.get("prf", &d.PRF),
			f.get("frame_quality", &d.FrameQuality),
			f.get("fpp_index", &d.FPPIndex),
			f.get("fpp_level", &d.FPPLevel),
		)
		rec = d
	case TypeStatus:
		var st Status
		err = f.get("message", &st.Message)
		rec = st
	case TypeError:
		var e Error
		err = f.get("message", &e.Message)
		rec = e
	default:
		return Unknown{Discriminant: typ}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, typ, err)
	}
	return rec, nil
}
