package rawlog

import (
	"fmt"
	"regexp"
	"time"
)

// TimestampLayout is the fixed-width layout used in FormatOutputLog headers.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// StreamSerial is the stream name used for lines read from the serial port.
const StreamSerial = "serial"

// Format selects the on-disk representation.
type Format string

const (
	FormatPlain     Format = "plain"
	FormatOutputLog Format = "outputlog"
)

var streamPattern = regexp.MustCompile(`^[a-zA-Z0-9_./-]{1,64}$`)

// ParseFormat validates a format name. The empty string means FormatPlain.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatPlain:
		return FormatPlain, nil
	case FormatOutputLog:
		return FormatOutputLog, nil
	default:
		return "", fmt.Errorf("unknown raw log format %q (want %q or %q)", s, FormatPlain, FormatOutputLog)
	}
}

// Entry is one recorded line.
type Entry struct {
	Stream    string
	Timestamp time.Time // UTC receive time, zero for plain captures
	Line      string    // without line terminator
}

// FormatEntry encodes e in the given format.
func FormatEntry(e Entry, format Format) []byte {
	if format == FormatOutputLog {
		timestamp := e.Timestamp.UTC().Format(TimestampLayout)
		out := fmt.Appendf(nil, "%s %s %d: ", e.Stream, timestamp, len(e.Line))
		out = append(out, e.Line...)
		return append(out, '\n')
	}
	out := make([]byte, 0, len(e.Line)+1)
	out = append(out, e.Line...)
	return append(out, '\n')
}

// ValidStream reports whether name can be used as a stream name.
func ValidStream(name string) bool {
	return streamPattern.MatchString(name)
}
