package main

import (
	"fmt"
	"io"
)

// progress prints a single updating percentage line.
type progress struct {
	w     io.Writer
	last  int
	shown bool
}

func newProgress(w io.Writer) *progress {
	return &progress{w: w, last: -1}
}

func (p *progress) update(done, total int) {
	if total <= 0 {
		return
	}
	pct := done * 100 / total
	if pct == p.last {
		return
	}
	p.last = pct
	p.shown = true
	fmt.Fprintf(p.w, "\rrender %3d%% (%d/%d blocks)", pct, done, total)
}

func (p *progress) done() {
	if p.shown {
		fmt.Fprintln(p.w)
	}
}
