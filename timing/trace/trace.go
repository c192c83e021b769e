// Package trace renders per-cycle pipeline activity as text, in the
// same "--------------\nClock Cycle #N\n--------------" block style as
// the original simulator's print_stage_content, reimplemented here as
// an io.Writer-backed sink instead of a hardcoded stdout print loop.
package trace

import (
	"fmt"
	"io"

	"github.com/rlotlik1/apexsim/timing/pipeline"
)

// TextSink writes a human-readable block per cycle to an underlying
// writer. It implements pipeline.TraceSink.
type TextSink struct {
	w io.Writer
}

// NewTextSink wraps w as a TextSink.
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

// Record writes one cycle's stage contents.
func (s *TextSink) Record(ct pipeline.CycleTrace) {
	fmt.Fprintf(s.w, "--------------\nClock Cycle #%d\n--------------\n", ct.Cycle)
	fmt.Fprintf(s.w, "Fetch      : %s\n", blankForEmpty(ct.Fetch))
	fmt.Fprintf(s.w, "Decode/RF  : %s\n", blankForEmpty(ct.Decode))
	fmt.Fprintf(s.w, "Execute    : %s\n", blankForEmpty(ct.Execute))
	fmt.Fprintf(s.w, "Memory     : %s\n", blankForEmpty(ct.Memory))
	fmt.Fprintf(s.w, "Writeback  : %s\n", blankForEmpty(ct.Writeback))
}

func blankForEmpty(s string) string {
	if s == "NOP" {
		return "Empty"
	}
	return s
}

// NopSink discards every cycle. A Pipeline with no sink attached skips
// tracing on its own; NopSink is for callers that want a non-nil
// pipeline.TraceSink that does nothing.
type NopSink struct{}

// Record does nothing.
func (NopSink) Record(pipeline.CycleTrace) {}
