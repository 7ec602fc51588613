package treediff

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sanity-io/litter"
)

// debug tracing is gated by the TREEDIFF_DEBUG environment variable &
// writes to stderr. Values in trace lines are rendered with litter so
// nested containers stay readable
var debugOn bool

func init() {
	if v := os.Getenv("TREEDIFF_DEBUG"); v != "" {
		debugOn, _ = strconv.ParseBool(v)
	}
}

func debugEnabled() bool { return debugOn }

func debugf(format string, args ...any) {
	for i, a := range args {
		switch a.(type) {
		case *Change, Changes, map[string]any, []any:
			args[i] = litter.Sdump(a)
		}
	}
	fmt.Fprintf(os.Stderr, "treediff: "+format+"\n", args...)
}
