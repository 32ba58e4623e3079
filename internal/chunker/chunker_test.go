package chunker

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// nWords builds a text of n distinct words.
func nWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := New()
		if c.targetSize != DefaultTargetSize {
			t.Errorf("expected targetSize %d, got %d", DefaultTargetSize, c.targetSize)
		}
		if c.overlap != DefaultOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultOverlap, c.overlap)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		c := New(WithTargetSize(300), WithOverlap(30))
		if c.targetSize != 300 {
			t.Errorf("expected targetSize 300, got %d", c.targetSize)
		}
		if c.overlap != 30 {
			t.Errorf("expected overlap 30, got %d", c.overlap)
		}
	})

	t.Run("overlap exceeds target size", func(t *testing.T) {
		c := New(WithTargetSize(100), WithOverlap(150))
		if c.overlap >= c.targetSize {
			t.Error("overlap should be reduced when it exceeds target size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		c := New(WithTargetSize(0), WithOverlap(-1))
		if c.targetSize != DefaultTargetSize {
			t.Errorf("expected default targetSize, got %d", c.targetSize)
		}
		if c.overlap != DefaultOverlap {
			t.Errorf("expected default overlap, got %d", c.overlap)
		}
	})
}

func TestSplit_Empty(t *testing.T) {
	c := New()
	for _, text := range []string{"", "   ", "\n\t \n"} {
		if segs := c.Split(text); len(segs) != 0 {
			t.Errorf("expected no segments for %q, got %d", text, len(segs))
		}
	}
}

func TestSplit_SmallDocument(t *testing.T) {
	c := New(WithTargetSize(100), WithOverlap(20))
	segs := c.Split("a small policy  statement\nwith   uneven whitespace")

	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Text != "a small policy statement with uneven whitespace" {
		t.Errorf("whitespace not normalised: %q", segs[0].Text)
	}
	if segs[0].WordCount != 7 {
		t.Errorf("expected 7 words, got %d", segs[0].WordCount)
	}
}

func TestSplit_OverlapBoundaries(t *testing.T) {
	// 1200 words, target 500, overlap 50: windows [0,500), [450,950), [900,1200).
	c := New(WithTargetSize(500), WithOverlap(50))
	segs := c.Split(nWords(1200))

	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	if segs[0].WordCount != 500 || segs[1].WordCount != 500 || segs[2].WordCount != 300 {
		t.Errorf("unexpected word counts: %d %d %d",
			segs[0].WordCount, segs[1].WordCount, segs[2].WordCount)
	}

	// Segment 2 starts 50 words before segment 1 ends.
	if !strings.HasPrefix(segs[1].Text, "w450 ") {
		t.Errorf("expected segment 1 to start at w450, got %q", segs[1].Text[:20])
	}
	if !strings.HasPrefix(segs[2].Text, "w900 ") {
		t.Errorf("expected segment 2 to start at w900, got %q", segs[2].Text[:20])
	}
	if !strings.HasSuffix(segs[2].Text, " w1199") {
		t.Error("final segment should end at the last word")
	}
}

func TestSplit_Deterministic(t *testing.T) {
	c := New(WithTargetSize(40), WithOverlap(8))
	text := nWords(333)

	first := c.Split(text)
	for i := 0; i < 5; i++ {
		if again := c.Split(text); !reflect.DeepEqual(first, again) {
			t.Fatal("expected identical segments across repeated calls")
		}
	}
}

func TestSplit_NoEmptyFinalSegment(t *testing.T) {
	// Word counts around multiples of the step must never yield an empty
	// trailing segment.
	c := New(WithTargetSize(10), WithOverlap(2))
	for _, n := range []int{8, 10, 16, 17, 18, 24, 25, 80} {
		segs := c.Split(nWords(n))
		if len(segs) == 0 {
			t.Fatalf("n=%d: expected at least one segment", n)
		}
		for i, s := range segs {
			if s.WordCount == 0 || s.Text == "" {
				t.Errorf("n=%d: segment %d is empty", n, i)
			}
		}
	}
}
