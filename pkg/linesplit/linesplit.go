// Package linesplit isolates an embedded JSON object from a noisy console line.
//
// The scanner does not tokenize JSON. It looks for the first '{' and the last
// '}' in the line and treats everything between them (inclusive) as the
// candidate object. Text before and after the candidate is returned trimmed so
// it can be printed as plain output. The device emits at most one object per
// line, so brace positions are enough.
//
// Known limitation: a '{' in the leading text or a '}' in the trailing text
// widens the candidate and makes it undecodable. Callers fall back to printing
// such a candidate verbatim.
package linesplit

import "strings"

// Result is the outcome of splitting one line.
type Result struct {
	// Prefix is the trimmed text before the first '{'. Empty when the
	// candidate starts the line.
	Prefix string
	// Candidate runs from the first '{' to the last '}' inclusive, or to the
	// end of the line when no '}' follows the '{'.
	Candidate string
	// Suffix is the trimmed text after the last '}'.
	Suffix string
	// HasCandidate is false when the line contains no '{'. The whole line is
	// plain text in that case and Prefix and Suffix are empty.
	HasCandidate bool
}

// Split partitions line into prefix, candidate and suffix. It never fails.
func Split(line string) Result {
	first := strings.IndexByte(line, '{')
	if first == -1 {
		return Result{}
	}

	res := Result{HasCandidate: true}
	if first > 0 {
		res.Prefix = strings.TrimSpace(line[:first])
	}

	last := strings.LastIndexByte(line, '}')
	if last == -1 || last < first {
		// Truncated object; the decoder gets a chance and fails soft.
		res.Candidate = line[first:]
		return res
	}

	res.Candidate = line[first : last+1]
	if last+1 < len(line) {
		res.Suffix = strings.TrimSpace(line[last+1:])
	}
	return res
}

// SegmentKind tells plain text apart from a JSON candidate.
type SegmentKind int

const (
	SegmentPlain SegmentKind = iota
	SegmentCandidate
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentPlain:
		return "plain"
	case SegmentCandidate:
		return "candidate"
	default:
		return "unknown"
	}
}

// Segment is one piece of a split line in output order.
type Segment struct {
	Kind SegmentKind
	Text string
}

// Segments returns the non-empty pieces of a split line in the order they
// must be emitted: the surrounding text first (prefix, then suffix), then the
// candidate. line must be the string that produced r; it is returned as a
// single plain segment when r has no candidate.
func (r Result) Segments(line string) []Segment {
	if !r.HasCandidate {
		if line == "" {
			return nil
		}
		return []Segment{{Kind: SegmentPlain, Text: line}}
	}

	segs := make([]Segment, 0, 3)
	if r.Prefix != "" {
		segs = append(segs, Segment{Kind: SegmentPlain, Text: r.Prefix})
	}
	if r.Suffix != "" {
		segs = append(segs, Segment{Kind: SegmentPlain, Text: r.Suffix})
	}
	return append(segs, Segment{Kind: SegmentCandidate, Text: r.Candidate})
}
