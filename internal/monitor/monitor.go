// Package monitor drives the per-line pipeline: split, decode, render, emit.
//
// Lines are handled one at a time on the caller's goroutine. The text around
// a record (prefix, then suffix) is written before the record itself, and is
// never dropped.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"uwbmonitor/internal/hub"
	"uwbmonitor/pkg/linesplit"
	"uwbmonitor/pkg/rawlog"
	"uwbmonitor/pkg/render"

	"github.com/rs/zerolog"
)

// Source yields raw lines. NextLine returns io.EOF at the end of the stream.
type Source interface {
	NextLine() (string, error)
}

// Publisher receives one event per emitted segment.
type Publisher interface {
	Broadcast(hub.Event)
}

// LineRecorder records each accepted raw line.
type LineRecorder interface {
	WriteLine(stream, line string)
}

// Options configures a Monitor. Only Out is required.
type Options struct {
	Out       io.Writer
	Formatter *render.Formatter
	Recorder  LineRecorder
	Publisher Publisher
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Stats counts what the monitor has seen.
type Stats struct {
	Lines     int // non-empty lines accepted
	Skipped   int // lines dropped for invalid UTF-8
	Plain     int // plain text segments
	Records   int // candidates rendered with a record layout
	Unknown   int // decoded candidates without a layout
	Malformed int // candidates that failed to decode
}

// Monitor processes scanner lines.
type Monitor struct {
	out       io.Writer
	formatter *render.Formatter
	recorder  LineRecorder
	publisher Publisher
	log       zerolog.Logger
	now       func() time.Time

	stats    Stats
	writeErr error
}

// New creates a Monitor.
func New(opt Options) *Monitor {
	m := &Monitor{
		out:       opt.Out,
		formatter: opt.Formatter,
		recorder:  opt.Recorder,
		publisher: opt.Publisher,
		log:       opt.Logger,
		now:       opt.Now,
	}
	if m.formatter == nil {
		m.formatter = render.New(false)
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Stats returns the counters accumulated so far.
func (m *Monitor) Stats() Stats {
	return m.stats
}

// HandleLine processes one raw line. Surrounding whitespace is ignored and
// blank lines produce no output. Lines that are not valid UTF-8 are skipped.
func (m *Monitor) HandleLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if !utf8.ValidString(line) {
		m.stats.Skipped++
		m.log.Debug().Int("bytes", len(line)).Msg("skipping line with invalid UTF-8")
		return
	}
	m.stats.Lines++

	if m.recorder != nil {
		m.recorder.WriteLine(rawlog.StreamSerial, line)
	}

	for _, seg := range linesplit.Split(line).Segments(line) {
		switch seg.Kind {
		case linesplit.SegmentPlain:
			m.stats.Plain++
			m.emit(hub.Event{Type: hub.EventPlain, Text: seg.Text})
		case linesplit.SegmentCandidate:
			m.handleCandidate(seg.Text)
		}
	}
}

func (m *Monitor) handleCandidate(candidate string) {
	out := m.formatter.FormatOutput(candidate)
	switch out.Kind {
	case render.KindMalformed:
		m.stats.Malformed++
		m.log.Debug().Err(out.Err).Str("candidate", candidate).Msg("candidate did not decode, printing verbatim")
		m.emit(hub.Event{Type: hub.EventMalformed, Text: out.Text})
	case render.KindUnknown:
		m.stats.Unknown++
		m.log.Debug().Str("type", out.Record.Type()).Msg("record type has no layout, printing verbatim")
		m.emit(hub.Event{Type: hub.EventUnknown, Text: out.Text, Data: out.Record})
	default:
		m.stats.Records++
		m.emit(hub.Event{Type: out.Record.Type(), Text: out.Text, Data: out.Record})
	}
}

func (m *Monitor) emit(ev hub.Event) {
	if _, err := fmt.Fprintln(m.out, ev.Text); err != nil && m.writeErr == nil {
		m.writeErr = err
	}
	if m.publisher != nil {
		ev.Time = m.now().UTC()
		m.publisher.Broadcast(ev)
	}
}

// Run reads lines from src until it is exhausted or ctx is done. It returns
// nil at end of stream, ctx.Err() on cancellation, and otherwise the first
// read or write error.
func (m *Monitor) Run(ctx context.Context, src Source) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := src.NextLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("reading line: %w", err)
		}
		m.HandleLine(line)
		if m.writeErr != nil {
			return fmt.Errorf("writing output: %w", m.writeErr)
		}
	}
}
