package diff

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andreyvit/diff"
)

const bytesForBinaryFileCheck = 1 << 16

// Unified wraps UnifiedTo to return a string instead of writing it to a
// writer. The primary caller is cmd/lffsdump, comparing two Mutator.Dump
// snapshots of the same store taken at different points in time.
func Unified(a, b Node, contextLines int) (string, error) {
	var buf bytes.Buffer
	if err := UnifiedTo(&buf, a, b, contextLines); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// UnifiedTo writes a unified diff of the two nodes to w. Its output matches
// the system diff tool on most platforms. An internal implementation is
// used, rather than shelling out, so this package stays usable as a library
// for in-process dump comparisons.
func UnifiedTo(w io.Writer, a, b Node, contextLines int) error {
	same, err := a.SameAs(b)
	if err != nil {
		return err
	}
	if same {
		return nil
	}
	aContent, err := a.Content()
	if err != nil {
		return err
	}
	bContent, err := b.Content()
	if err != nil {
		return err
	}
	lines := diff.LineDiffAsLines(aContent, bContent)
	if len(lines) == 0 {
		return nil
	}
	return unified(w, lines, contextLines)
}

func unified(w io.Writer, lines []string, contextLines int) error {
	// While processing lines, we're either in a hunk or in a common segment.
	// The hunk is nil if we are in a common segment.
	var h *hunk

	// When not in the middle of a hunk, the most recent common lines sit in
	// a ring buffer. When a new hunk starts, they're backfilled into it and
	// the ring buffer is drained.
	common := newRingBuffer(contextLines)

	if isLikelyBinaryFile(lines) {
		_, err := fmt.Fprintln(w, "Binary files differ")
		return err
	}

	var leftOffset, rightOffset int
	for _, line := range lines {
		if line[0] == ' ' {
			if h != nil {
				h.appendCommon(line)
				if h.isComplete() {
					for _, trimmed := range h.trim() {
						common.enqueue(trimmed)
					}
					if err := h.printTo(w); err != nil {
						return err
					}
					h = nil
				}
			} else {
				common.enqueue(line)
			}
		} else {
			if h == nil {
				h = newHunk(leftOffset, rightOffset, common.dequeueAll(), contextLines)
			}
			if line[0] == '-' {
				h.appendLeft(line)
			} else {
				h.appendRight(line)
			}
		}
		switch line[0] {
		case '-':
			leftOffset++
		case ' ':
			leftOffset++
			rightOffset++
		case '+':
			rightOffset++
		}
	}
	if h != nil {
		h.trim()
		return h.printTo(w)
	}
	return nil
}

func isLikelyBinaryFile(lines []string) bool {
	count := 0
	for _, line := range lines {
		if strings.Contains(line, "\x00") {
			return true
		}
		count += len(line)
		if count >= bytesForBinaryFileCheck {
			break
		}
	}
	return false
}
