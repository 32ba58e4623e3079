// Package chunker splits normalised document text into overlapping
// word-bounded segments.
package chunker

import "strings"

// DefaultTargetSize is the default number of words per chunk.
const DefaultTargetSize = 500

// DefaultOverlap is the default number of overlapping words.
const DefaultOverlap = 50

// Segment is one chunk of text produced by the splitter.
type Segment struct {
	// Text is the segment content with internal whitespace normalised to
	// single spaces.
	Text string

	// WordCount is the number of words in the segment.
	WordCount int
}

// Chunker splits text into overlapping fixed-size word windows.
// Splitting is deterministic: identical input and parameters always yield
// identical boundaries.
type Chunker struct {
	targetSize int
	overlap    int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithTargetSize sets the chunk size in words.
func WithTargetSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.targetSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in words.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		targetSize: DefaultTargetSize,
		overlap:    DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave the window moving forward.
	if c.overlap >= c.targetSize {
		c.overlap = c.targetSize / 4
	}

	return c
}

// TargetSize returns the configured chunk size in words.
func (c *Chunker) TargetSize() int { return c.targetSize }

// Overlap returns the configured overlap in words.
func (c *Chunker) Overlap() int { return c.overlap }

// Split divides text into segments of up to targetSize words, each chunk
// after the first beginning overlap words before the previous chunk's end.
// Whitespace-only input yields no segments. The final segment may be
// shorter than targetSize but is never empty.
func (c *Chunker) Split(text string) []Segment {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	if len(words) <= c.targetSize {
		return []Segment{{
			Text:      strings.Join(words, " "),
			WordCount: len(words),
		}}
	}

	step := c.targetSize - c.overlap
	segments := make([]Segment, 0, len(words)/step+1)

	for start := 0; start < len(words); start += step {
		end := start + c.targetSize
		if end > len(words) {
			end = len(words)
		}

		segments = append(segments, Segment{
			Text:      strings.Join(words[start:end], " "),
			WordCount: end - start,
		})

		if end == len(words) {
			break
		}
	}

	return segments
}
