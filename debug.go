package noise

import (
	"fmt"
	"os"
	"time"
)

// debugStats holds per-frame timing metrics.
// Only populated when Scene.debug is true.
type debugStats struct {
	traverseTime time.Duration
	submitTime   time.Duration
	commandCount int
}

// debugLog prints timing stats to stderr.
func (s *Scene) debugLog(stats debugStats) {
	if !s.debug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr,
		"[noise] traverse: %v | submit: %v | total: %v | commands: %d\n",
		stats.traverseTime, stats.submitTime, stats.traverseTime+stats.submitTime, stats.commandCount)
}

// debugf writes a single diagnostic line to stderr when debug mode is on.
func debugf(format string, args ...any) {
	if !globalDebug.Load() {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "[noise] "+format+"\n", args...)
}

// debugCheckDisposed panics with a descriptive message when a disposed node is
// used in a tree operation. Release builds skip the call entirely.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("noise debug: %s on disposed node %q (ID was %d)", op, n.Name, n.ID))
	}
}

// debugMaxChildCount is the child count past which a warning is printed. A
// tiny source image on a large canvas crosses it quickly.
const debugMaxChildCount = 4096

func debugCheckChildCount(n *Node) {
	if len(n.children) == debugMaxChildCount+1 {
		_, _ = fmt.Fprintf(os.Stderr, "[noise] warning: node %q has more than %d children\n",
			n.Name, debugMaxChildCount)
	}
}
