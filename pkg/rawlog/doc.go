// Package rawlog records the raw lines read from the scanner and reads them
// back for replay.
//
// # Formats
//
// Two on-disk formats are supported.
//
// FormatPlain writes each line followed by a single \n. It is what a plain
// serial capture looks like and can be fed straight back into the monitor.
//
// FormatOutputLog frames each line with its stream and a receive timestamp so
// several sources can share one file and the timing survives a replay:
//
//	stream timestamp length: content\n
//
// # Fields
//
//   - stream: name of the source. Matches [a-zA-Z0-9_./-]{1,64}, for example
//     "serial" or "stdin".
//   - timestamp: UTC receive time, 2006-01-02T15:04:05.000000000Z.
//   - length: byte length of content.
//   - ": " literal separator.
//   - content: exactly length bytes of the line, without its terminator.
//   - \n: entry separator, always present.
//
// # Example
//
//	serial 2025-01-07T12:00:00.000000000Z 25: Booting UWB firmware v1.2
//	serial 2025-01-07T12:00:01.250000000Z 38: {"type":"status","message":"scanning"}
//
// Because content is length-prefixed it may contain anything, including text
// that looks like another entry header.
package rawlog
