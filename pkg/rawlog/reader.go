package rawlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Reader reads entries back from a capture written in either format.
type Reader struct {
	br     *bufio.Reader
	format Format
	stream string
}

// NewReader returns a Reader for r. Plain captures carry no stream name;
// their entries are attributed to StreamSerial.
func NewReader(r io.Reader, format Format) *Reader {
	return &Reader{
		br:     bufio.NewReader(r),
		format: format,
		stream: StreamSerial,
	}
}

// Next returns the next entry, or io.EOF when the capture is exhausted.
func (r *Reader) Next() (Entry, error) {
	if r.format == FormatOutputLog {
		return r.nextFramed()
	}
	return r.nextPlain()
}

// NextLine returns the content of the next entry.
func (r *Reader) NextLine() (string, error) {
	e, err := r.Next()
	if err != nil {
		return "", err
	}
	return e.Line, nil
}

func (r *Reader) nextPlain() (Entry, error) {
	line, err := r.br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return Entry{}, err
	}
	return Entry{
		Stream: r.stream,
		Line:   strings.TrimRight(line, "\r\n"),
	}, nil
}

func (r *Reader) nextFramed() (Entry, error) {
	var e Entry

	stream, err := r.br.ReadString(' ')
	if err != nil {
		if err == io.EOF && stream == "" {
			return e, io.EOF
		}
		return e, fmt.Errorf("reading stream: %w", unexpected(err))
	}
	e.Stream = strings.TrimSuffix(stream, " ")
	if !ValidStream(e.Stream) {
		return e, fmt.Errorf("invalid stream name %q", e.Stream)
	}

	timestamp, err := r.br.ReadString(' ')
	if err != nil {
		return e, fmt.Errorf("reading timestamp: %w", unexpected(err))
	}
	e.Timestamp, err = time.Parse(time.RFC3339Nano, strings.TrimSuffix(timestamp, " "))
	if err != nil {
		return e, fmt.Errorf("parsing timestamp: %w", err)
	}

	lengthStr, err := r.br.ReadString(':')
	if err != nil {
		return e, fmt.Errorf("reading length: %w", unexpected(err))
	}
	length, err := strconv.Atoi(strings.TrimSuffix(lengthStr, ":"))
	if err != nil || length < 0 {
		return e, fmt.Errorf("parsing length %q: invalid", lengthStr)
	}

	if b, err := r.br.ReadByte(); err != nil {
		return e, fmt.Errorf("reading space after colon: %w", unexpected(err))
	} else if b != ' ' {
		return e, fmt.Errorf("expected space after colon, got %q", b)
	}

	content := make([]byte, length)
	if _, err := io.ReadFull(r.br, content); err != nil {
		return e, fmt.Errorf("reading content (%d bytes): %w", length, unexpected(err))
	}
	e.Line = string(content)

	if b, err := r.br.ReadByte(); err != nil {
		return e, fmt.Errorf("reading final newline: %w", unexpected(err))
	} else if b != '\n' {
		return e, fmt.Errorf("expected newline separator, got %q", b)
	}

	return e, nil
}

// unexpected turns a mid-entry io.EOF into io.ErrUnexpectedEOF so callers
// can tell a truncated capture from a clean end.
func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
