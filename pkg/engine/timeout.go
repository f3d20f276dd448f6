package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/fluteforge/pkg/tool"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// ErrSuperseded is returned when a newer evaluation started while this one
// was running.
var ErrSuperseded = errors.New("evaluation superseded by newer request")

// ErrTimeout is returned when an evaluation exceeds its time limit.
var ErrTimeout = errors.New("evaluation timed out")

// evalResult passes evaluation results through channels.
type evalResult struct {
	tools  []tool.Parameters
	errors []EvalError
	err    error
}

// waitWithTimeout waits for a result from ch, but returns a timeout error
// if the evaluation exceeds timeout. It uses a generation counter to
// discard stale results from previous evaluations.
//
// On timeout, the goroutine may still be running; the generation check
// ensures its result is discarded when it eventually completes.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	timeout time.Duration,
	mu *sync.Mutex,
	currentGen *uint64,
) ([]tool.Parameters, []EvalError, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, nil, ErrSuperseded
		}
		return res.tools, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}
