package rawlog

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Writer appends entries to an io.Writer from a single goroutine, so callers
// on the read path never block on disk I/O for longer than a channel send.
type Writer struct {
	format  Format
	entries chan Entry
	done    chan struct{}
	now     func() time.Time
	log     zerolog.Logger

	mu  sync.Mutex
	err error
}

// NewWriter starts the goroutine that owns w. It runs until Close is called.
// The first write error is logged to log when it happens and returned again
// by Close; later entries are still attempted.
func NewWriter(w io.Writer, format Format, log zerolog.Logger) *Writer {
	rw := &Writer{
		format:  format,
		entries: make(chan Entry, 100),
		done:    make(chan struct{}),
		now:     time.Now,
		log:     log,
	}

	go func() {
		defer close(rw.done)
		for e := range rw.entries {
			if _, err := w.Write(FormatEntry(e, rw.format)); err != nil {
				rw.setErr(fmt.Errorf("writing raw log entry: %w", err))
			}
		}
	}()

	return rw
}

// WriteLine records line on stream, stamped with the current time.
// It must not be called after Close.
func (rw *Writer) WriteLine(stream, line string) {
	rw.entries <- Entry{
		Stream:    stream,
		Timestamp: rw.now().UTC(),
		Line:      line,
	}
}

// Close flushes pending entries and stops the writer goroutine. It returns
// the first write error, if any. It does not close the underlying writer.
func (rw *Writer) Close() error {
	close(rw.entries)
	<-rw.done
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.err
}

func (rw *Writer) setErr(err error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.err == nil {
		rw.err = err
		rw.log.Warn().Err(err).Msg("raw log write failed, further lines may be lost")
	}
}
