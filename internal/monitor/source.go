package monitor

import "context"

type lineResult struct {
	line string
	err  error
}

// cancelableSource reads from a Source on its own goroutine so that a read
// blocked on a terminal or pipe does not hold up cancellation.
type cancelableSource struct {
	ctx     context.Context
	results chan lineResult
	err     error
}

// NewCancelableSource returns a Source whose NextLine returns ctx.Err() as
// soon as ctx is done, even while src is blocked in a read. The goroutine
// reading src exits after src returns an error or, once ctx is done, after
// its pending read returns.
func NewCancelableSource(ctx context.Context, src Source) Source {
	s := &cancelableSource{
		ctx:     ctx,
		results: make(chan lineResult),
	}
	go s.pump(src)
	return s
}

func (s *cancelableSource) pump(src Source) {
	for {
		line, err := src.NextLine()
		select {
		case s.results <- lineResult{line: line, err: err}:
		case <-s.ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

func (s *cancelableSource) NextLine() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	select {
	case <-s.ctx.Done():
		s.err = s.ctx.Err()
		return "", s.err
	case r := <-s.results:
		if r.err != nil {
			s.err = r.err
		}
		return r.line, r.err
	}
}
