package engine

import (
	"fmt"
	"time"

	"github.com/chamlis/flowgrid/pkg/graph"
)

// EvalTimeout is the default hard limit for a single script evaluation.
const EvalTimeout = 5 * time.Second

// evalResult is the internal type used to pass script results through
// channels.
type evalResult struct {
	val graph.Value
	err error
}

// waitWithTimeout waits for a result from ch, but returns a timeout error
// if none arrives within d.
//
// On timeout, the evaluation goroutine may still be running; it delivers
// into the buffered channel and is discarded along with it.
func waitWithTimeout(ch <-chan evalResult, d time.Duration) (graph.Value, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.val, res.err
	case <-timer.C:
		return graph.NoValue, fmt.Errorf("evaluation timed out after %s", d)
	}
}
