package source

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// progressBarWidth is the column count of the progress bar body.
const progressBarWidth = 70

// Progress renders the batch progress line on stderr: a fixed-width bar,
// the percentage done and the estimated time left in minutes. Only the
// first worker owns one, so the line never interleaves with itself.
type Progress struct {
	total int
	done  int
	start time.Time
	out   io.Writer
}

// NewProgress prepares a progress display over total events.
func NewProgress(total int) *Progress {
	return &Progress{total: total, out: os.Stderr}
}

// Start pins the reference time the remaining-time estimate counts from.
func (p *Progress) Start(now time.Time) {
	p.start = now
}

// Advance marks one more event done and redraws the line. The line stays
// hidden until more than one percent of the run is through.
func (p *Progress) Advance(now time.Time) {
	p.done++
	p.render(now)
}

func (p *Progress) render(now time.Time) {
	if p.total <= 0 {
		return
	}

	progress := float64(p.done) / float64(p.total)
	if progress <= 0.01 {
		return
	}

	var bar strings.Builder
	pos := int(progressBarWidth * progress)
	for i := 0; i < progressBarWidth; i++ {
		switch {
		case i < pos:
			bar.WriteByte('=')
		case i == pos:
			bar.WriteByte('>')
		default:
			bar.WriteByte(' ')
		}
	}

	elapsed := now.Sub(p.start).Seconds()
	remaining := (1 - progress) * elapsed / progress

	fmt.Fprintf(p.out, "\r[%s] %d %% | ETA = %.1f min",
		bar.String(), int(progress*100), remaining/60)
}
