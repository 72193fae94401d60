// Package trigger waits for a request to start a programming session.
package trigger

import (
	"context"

	"github.com/gentam/hvsp"
)

// Source blocks until a session is requested and returns the action to run.
// Next must not be called concurrently on one Source.
type Source interface {
	Next(ctx context.Context) (hvsp.Action, error)
}

// ActionFor maps a command character: 'f' writes the default fuses, 'e'
// erases, anything else only reads.
func ActionFor(c byte) hvsp.Action {
	switch c {
	case 'f', 'F':
		return hvsp.ActionWriteDefaults
	case 'e', 'E':
		return hvsp.ActionErase
	default:
		return hvsp.ActionReadOnly
	}
}

// First returns the action of whichever source fires first. The others are
// cancelled and waited for, so every source is idle again on return.
func First(ctx context.Context, srcs ...Source) (hvsp.Action, error) {
	if len(srcs) == 1 {
		return srcs[0].Next(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		action hvsp.Action
		err    error
	}
	results := make(chan result, len(srcs))
	for _, s := range srcs {
		go func() {
			a, err := s.Next(ctx)
			results <- result{a, err}
		}()
	}

	r := <-results
	cancel()
	for range len(srcs) - 1 {
		<-results
	}
	return r.action, r.err
}
