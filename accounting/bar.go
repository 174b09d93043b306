package accounting

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	colorable "github.com/mattn/go-colorable"
	"golang.org/x/term"

	"github.com/gryfn-io/rjrssync/common"
)

// barUpdateRate matches the 20 Hz the spec names for UI refresh: fast
// enough to feel live, slow enough not to burden a no-op sync with
// redraw overhead.
const barUpdateRate = time.Second / 20

// barState is what the render loop needs on each tick; Bar swaps this
// atomically so the accountant's own lock is never held across I/O.
type barState struct {
	phase          common.ProgressPhaseKind
	completed      Values
	total          Values
	currentEntryID int64
	currentPath    string
	done           bool
}

// Bar renders a single-line progress indicator driven by echoed
// ProgressMarkers, the way the teacher's job lifecycle reports percent
// complete: a dedicated goroutine redraws at a fixed rate from the
// latest snapshot rather than on every update, so a fast no-op sync
// doesn't pay for thousands of terminal writes.
type Bar struct {
	out      io.Writer
	isTTY    bool
	state    atomic.Value // holds barState
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewBar wraps w (typically os.Stderr) in a colorable writer so ANSI
// escapes work on Windows consoles too, and starts the redraw loop.
func NewBar(w io.Writer) *Bar {
	out, isTTY := wrapForTerminal(w)

	b := &Bar{out: out, isTTY: isTTY, stopCh: make(chan struct{}), doneCh: make(chan struct{})}
	b.state.Store(barState{phase: common.EProgressPhaseKind.Deleting()})
	go b.loop()
	return b
}

// Update stores the latest known progress; the next tick of the
// render loop will pick it up. Safe to call from any goroutine,
// typically the boss's marker-echo reader.
func (b *Bar) Update(phase common.ProgressPhaseKind, completed, total Values, currentEntryID int64, currentPath string) {
	b.state.Store(barState{
		phase:          phase,
		completed:      completed,
		total:          total,
		currentEntryID: currentEntryID,
		currentPath:    currentPath,
	})
}

// Finish marks the bar Done and renders one final line.
func (b *Bar) Finish() {
	s := b.state.Load().(barState)
	s.done = true
	b.state.Store(s)
	b.render(s)
}

// Stop halts the redraw goroutine without printing anything further.
func (b *Bar) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
	<-b.doneCh
}

// Suspend clears the current terminal line and then runs fn, e.g. a
// blocking prompt (spec §4.4's "explicitly permitted to block
// indefinitely"). The render loop is not paused while fn runs, so a
// tick that fires meanwhile redraws the progress line over whatever fn
// printed on it.
func (b *Bar) Suspend(fn func()) {
	fmt.Fprint(b.out, "\r"+strings.Repeat(" ", 78)+"\r")
	fn()
}

func (b *Bar) loop() {
	defer close(b.doneCh)
	ticker := time.NewTicker(barUpdateRate)
	defer ticker.Stop()
	for {
		select {
		case <-b.stopCh:
			return
		case <-ticker.C:
			s := b.state.Load().(barState)
			b.render(s)
			if s.done {
				return
			}
		}
	}
}

func (b *Bar) render(s barState) {
	if !b.isTTY {
		return
	}
	var line string
	switch {
	case s.done:
		line = fmt.Sprintf("\rdone: %d deleted, %d copied (%s)%s",
			s.completed.Delete, s.completed.Copy, humanBytes(s.completed.CopyBytes), strings.Repeat(" ", 8))
		line += "\n"
	case s.phase == common.EProgressPhaseKind.Deleting():
		line = fmt.Sprintf("\rdeleting %d/%d  %s", s.completed.Delete, s.total.Delete, truncatePath(s.currentPath))
	default:
		pct := 0
		if s.total.Work > 0 {
			pct = int(100 * s.completed.Work / s.total.Work)
		}
		line = fmt.Sprintf("\r%3d%%  copying %d/%d  %s  %s", pct, s.completed.Copy, s.total.Copy,
			humanBytes(s.completed.CopyBytes), truncatePath(s.currentPath))
	}
	fmt.Fprint(b.out, line)
}

// wrapForTerminal applies ANSI-to-Windows-console translation when w is
// a real terminal file descriptor (mattn/go-colorable handles the
// Windows side; on POSIX it's a passthrough), and reports whether
// rendering should happen at all — redrawing a pipe or log file with
// carriage returns just produces noise.
func wrapForTerminal(w io.Writer) (io.Writer, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return w, false
	}
	if !term.IsTerminal(int(f.Fd())) {
		return colorable.NewNonColorable(w), false
	}
	return colorable.NewColorable(f), true
}

func truncatePath(p string) string {
	const max = 60
	if len(p) <= max {
		return p
	}
	return "…" + p[len(p)-max+1:]
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
