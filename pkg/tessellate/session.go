package tessellate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/fluteforge/pkg/tool"
)

// GenerateTimeout is the default time a caller waits for a generation
// before it is shown the uncut blank.
const GenerateTimeout = 30 * time.Second

// ErrSuperseded is returned when a newer request started while this one
// was running. Its result has been discarded.
var ErrSuperseded = errors.New("generation superseded by newer request")

type generateResult struct {
	res *Result
	err error
}

// Session owns the current result of one tool. Every request bumps a
// generation counter; only the latest request may replace the current
// result, and the result it replaces is disposed.
//
// The current result never leaves the session: callers receive clones
// taken under the session lock, so a concurrent regeneration cannot
// dispose a mesh someone is still reading. Every Dispose happens under
// the lock.
type Session struct {
	gen     *Generator
	timeout time.Duration

	// Late, if set, receives a clone of a generation that finished after
	// its deadline and replaced the blank shown in the meantime.
	Late func(*Result)

	mu         sync.Mutex
	generation uint64
	current    *Result
}

// NewSession returns a session running g. timeout <= 0 selects
// GenerateTimeout.
func NewSession(g *Generator, timeout time.Duration) *Session {
	if timeout <= 0 {
		timeout = GenerateTimeout
	}
	return &Session{gen: g, timeout: timeout}
}

// Generate runs the pipeline for p, makes the result current and returns
// a clone of it. Invalid parameters return the validation error.
//
// A generation still running at the deadline is answered with the uncut
// blank (StatusTimeoutFallback); when the cut completes it replaces the
// blank, provided no newer request has started, and is passed to Late.
func (s *Session) Generate(ctx context.Context, p tool.Parameters) (*Result, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	if err := tool.Validate(p).Err(); err != nil {
		return nil, err
	}

	ch := make(chan generateResult, 1)
	go func() {
		res, err := s.gen.Generate(p)
		ch <- generateResult{res: res, err: err}
	}()
	return s.wait(ctx, ch, gen, p)
}

func (s *Session) wait(ctx context.Context, ch <-chan generateResult, gen uint64, p tool.Parameters) (*Result, error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		return s.accept(r.res, gen)

	case <-timer.C:
		s.gen.Log.Warn().Dur("timeout", s.timeout).Uint64("generation", gen).Msg("generation timed out; showing blank")
		fb := s.gen.Preview(p)
		n := tool.Notice{
			Level:   tool.NoticeWarning,
			Message: fmt.Sprintf("flute cut is taking longer than %s; showing the uncut blank until it finishes", s.timeout),
		}
		fb.Notices = append(fb.Notices, n)
		s.gen.notify(n)

		out, err := s.accept(fb, gen)
		if err != nil {
			go s.discard(ch)
			return nil, err
		}
		go s.promote(ch, gen, fb)
		return out, nil

	case <-ctx.Done():
		go s.discard(ch)
		return nil, ctx.Err()
	}
}

// accept makes res current if gen is still the latest request.
func (s *Session) accept(res *Result, gen uint64) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		res.Dispose()
		return nil, ErrSuperseded
	}
	if s.current != nil && s.current != res {
		s.current.Dispose()
	}
	s.current = res
	return res.Clone(), nil
}

// promote swaps a late result in for the blank fb shown at the deadline.
func (s *Session) promote(ch <-chan generateResult, gen uint64, fb *Result) {
	r := <-ch
	if r.err != nil {
		return
	}

	s.mu.Lock()
	if gen != s.generation || s.current != fb {
		r.res.Dispose()
		s.mu.Unlock()
		return
	}
	fb.Dispose()
	s.current = r.res
	out := r.res.Clone()
	s.mu.Unlock()

	s.gen.Log.Info().Uint64("generation", gen).Stringer("status", out.Status).Dur("took", out.Duration).Msg("late generation completed")
	if s.Late != nil {
		s.Late(out)
	}
}

// discard releases the result of an abandoned generation.
func (s *Session) discard(ch <-chan generateResult) {
	r := <-ch
	s.mu.Lock()
	defer s.mu.Unlock()
	r.res.Dispose()
}

// Current returns a clone of the latest accepted result, or nil. The
// caller owns the clone.
func (s *Session) Current() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// CurrentID returns the ID of the current result, or "".
func (s *Session) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.ID
}

// Generation returns the number of requests started so far.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Release disposes the current result and forgets it.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Dispose()
	s.current = nil
}

// ReleaseID releases the current result if its ID is id and reports
// whether it did.
func (s *Session) ReleaseID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ID != id {
		return false
	}
	s.current.Dispose()
	s.current = nil
	return true
}
