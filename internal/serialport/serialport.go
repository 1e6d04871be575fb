// Package serialport opens the scanner's serial console and reads it line by
// line.
package serialport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.bug.st/serial"
)

// Config describes the serial connection. The board talks 8N1.
type Config struct {
	Device      string
	BaudRate    int
	ReadTimeout time.Duration
}

// Open opens and configures the port. The read timeout bounds how long a
// blocked read ignores context cancellation.
func Open(cfg Config) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Device, err)
	}
	if cfg.ReadTimeout > 0 {
		if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
			_ = port.Close()
			return nil, fmt.Errorf("failed to set read timeout on %s: %w", cfg.Device, err)
		}
	}
	return port, nil
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// LineReader splits a byte stream into lines terminated by \n, dropping the
// terminator and any \r before it.
type LineReader struct {
	br *bufio.Reader
}

// NewLineReader reads lines from r until ctx is done. r may return (0, nil)
// on a read timeout, as a serial port does; such reads are retried.
func NewLineReader(ctx context.Context, r io.Reader) *LineReader {
	return &LineReader{br: bufio.NewReader(&ctxReader{ctx: ctx, r: r})}
}

// NextLine returns the next line. A final unterminated line is returned
// before io.EOF.
func (l *LineReader) NextLine() (string, error) {
	line, err := l.br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	for {
		if err := c.ctx.Err(); err != nil {
			return 0, err
		}
		n, err := c.r.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
	}
}
