package exhibit

import (
	"fmt"
	"log"
	"os"
)

// globalDebug gates diagnostic logging and disposed-object panics.
// exhibit is single-threaded, so a plain bool is enough.
var globalDebug bool

// SetDebugMode enables or disables debug mode. When enabled, provider errors
// and page log events are logged, use of disposed sprites panics, and
// LogStats prints compositor counters to stderr.
func SetDebugMode(enabled bool) {
	globalDebug = enabled
}

// DebugMode reports whether debug mode is on.
func DebugMode() bool {
	return globalDebug
}

// debugf logs only in debug mode.
func debugf(format string, args ...any) {
	if !globalDebug {
		return
	}
	log.Printf("exhibit: "+format, args...)
}

// Compositor counters. Plain ints: only the render thread touches them.
var (
	statZoomPasses      int
	statFBOAllocations  int
	statFramesCommitted int
	statDecodeFailures  int
)

// Stats is a snapshot of the compositor counters since the last ResetStats.
type Stats struct {
	ZoomPasses      int // offscreen zoom/crop renders
	FBOAllocations  int // offscreen targets allocated or resized
	FramesCommitted int // textures uploaded by providers
	DecodeFailures  int // sources that failed to load
}

// ReadStats returns the current counters.
func ReadStats() Stats {
	return Stats{
		ZoomPasses:      statZoomPasses,
		FBOAllocations:  statFBOAllocations,
		FramesCommitted: statFramesCommitted,
		DecodeFailures:  statDecodeFailures,
	}
}

// ResetStats zeroes the counters.
func ResetStats() {
	statZoomPasses = 0
	statFBOAllocations = 0
	statFramesCommitted = 0
	statDecodeFailures = 0
}

// LogStats prints the counters to stderr in debug mode and resets them.
// Call it once per frame, after drawing.
func LogStats() {
	if !globalDebug {
		return
	}
	s := ReadStats()
	_, _ = fmt.Fprintf(os.Stderr,
		"[exhibit] zoom passes: %d | fbo allocs: %d | frames committed: %d | decode failures: %d\n",
		s.ZoomPasses, s.FBOAllocations, s.FramesCommitted, s.DecodeFailures)
	ResetStats()
}

// debugCheckDisposed panics when a disposed sprite is used in debug mode.
func debugCheckDisposed(s *Sprite, op string) {
	if s.disposed {
		panic(fmt.Sprintf("exhibit debug: %s on disposed sprite %q", op, s.Name))
	}
}
