// Package render turns decoded scanner records into console text.
package render

import (
	"fmt"
	"strings"
	"time"

	"uwbmonitor/pkg/record"

	"github.com/charmbracelet/lipgloss"
)

// Separator frames a device_found block.
var Separator = strings.Repeat("=", 60)

// Formatter renders records. The zero value is usable: it reads the wall
// clock and produces uncoloured output.
type Formatter struct {
	// Now supplies the wall-clock time stamped on status and error lines.
	// nil means time.Now.
	Now func() time.Time

	// Color enables ANSI styling of headers and tags.
	Color bool

	header    lipgloss.Style
	statusTag lipgloss.Style
	errorTag  lipgloss.Style
}

// New returns a Formatter. color enables ANSI styling.
func New(color bool) *Formatter {
	return &Formatter{
		Color:     color,
		header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		statusTag: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		errorTag:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
}

// Kind says which path a candidate took through the formatter.
type Kind int

const (
	KindRecord    Kind = iota // decoded and laid out
	KindUnknown               // decoded, but the type has no layout
	KindMalformed             // did not decode
)

// Output is a formatted candidate.
type Output struct {
	Kind Kind
	// Text is what gets printed: the layout for KindRecord, the candidate
	// unchanged otherwise.
	Text string
	// Record is nil for KindMalformed.
	Record record.Record
	// Err is the decode error for KindMalformed.
	Err error
}

// Format decodes candidate and renders it. A candidate that does not decode,
// or whose type has no layout, is returned unchanged.
func (f *Formatter) Format(candidate string) string {
	return f.FormatOutput(candidate).Text
}

// FormatOutput is Format, also reporting how the candidate was handled.
func (f *Formatter) FormatOutput(candidate string) Output {
	rec, err := record.Decode(candidate)
	if err != nil {
		return Output{Kind: KindMalformed, Text: candidate, Err: err}
	}
	if out, ok := f.Render(rec); ok {
		return Output{Kind: KindRecord, Text: out, Record: rec}
	}
	return Output{Kind: KindUnknown, Text: candidate, Record: rec}
}

// Render lays out rec. ok is false for record.Unknown, which has no layout.
// The output carries no trailing newline.
func (f *Formatter) Render(rec record.Record) (out string, ok bool) {
	switch r := rec.(type) {
	case record.DeviceFound:
		return f.deviceFound(r), true
	case record.Status:
		return f.message(f.statusTag, "STATUS:", r.Message), true
	case record.Error:
		return f.message(f.errorTag, "ERROR:", r.Message), true
	default:
		return "", false
	}
}

func (f *Formatter) deviceFound(r record.DeviceFound) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(Separator + "\n")
	b.WriteString(f.style(f.header, "Device Found: 0x"+r.DeviceAddr) + "\n")
	b.WriteString(Separator + "\n")
	fmt.Fprintf(&b, "Timestamp:      %d ms\n", r.TimestampMS)
	fmt.Fprintf(&b, "Distance:       %.2f cm (%.2f m)\n", r.DistanceCM, r.DistanceM())
	fmt.Fprintf(&b, "RSSI:           %.2f dBm\n", r.RSSIDBm)
	fmt.Fprintf(&b, "Channel:        %d\n", r.Channel)
	fmt.Fprintf(&b, "PRF:            %d MHz\n", r.PRF)
	fmt.Fprintf(&b, "Frame Quality:  %d\n", r.FrameQuality)
	b.WriteString(Separator)
	return b.String()
}

func (f *Formatter) message(tagStyle lipgloss.Style, tag, msg string) string {
	return fmt.Sprintf("[%s] %s %s", f.now().Format("15:04:05"), f.style(tagStyle, tag), msg)
}

func (f *Formatter) style(s lipgloss.Style, text string) string {
	if !f.Color {
		return text
	}
	return s.Render(text)
}

func (f *Formatter) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}
