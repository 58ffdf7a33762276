package publish

import (
	"context"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// compensation undoes one forward step.
type compensation struct {
	name     string
	advisory bool // failure is logged only
	undo     func(ctx context.Context) error
}

// saga queues compensations as forward steps succeed.
type saga struct {
	stack []compensation
}

func (s *saga) push(c compensation) {
	s.stack = append(s.stack, c)
}

// unwindResult collects what happened while compensating.
type unwindResult struct {
	done     []string // compensations that succeeded
	skipped  []string
	warnings []string
	err      error // first non-advisory failure
}

func (r unwindResult) succeeded(name string) bool {
	for _, n := range r.done {
		if n == name {
			return true
		}
	}
	return false
}

// unwind runs the queued compensations newest first. A failing
// non-advisory compensation stops the unwind: older compensations assumed
// the state it was meant to restore.
func (s *saga) unwind(ctx context.Context) unwindResult {
	var out unwindResult

	for i := len(s.stack) - 1; i >= 0; i-- {
		c := s.stack[i]

		err := c.undo(ctx)
		if err == nil {
			out.done = append(out.done, c.name)
			continue
		}

		if c.advisory {
			grip.Warning(message.WrapError(err, message.Fields{
				"message":      "compensation failed",
				"compensation": c.name,
			}))
			out.warnings = append(out.warnings, errors.Wrap(err, c.name).Error())
			continue
		}

		out.err = err
		for j := i - 1; j >= 0; j-- {
			out.skipped = append(out.skipped, s.stack[j].name)
		}
		break
	}

	s.stack = nil
	return out
}
