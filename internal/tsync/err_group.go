package tsync

import (
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

func NewGroup(limit int) *Group {
	g := &Group{}
	if limit > 0 {
		g.eg.SetLimit(limit)
	}
	return g
}

// Group runs functions concurrently and collects every error instead of stopping at the first one.
type Group struct {
	mu   sync.Mutex
	errs []error
	eg   errgroup.Group
}

func (g *Group) Go(fn func() error) {
	g.eg.Go(func() error {
		if err := fn(); err != nil {
			g.mu.Lock()
			defer g.mu.Unlock()
			g.errs = append(g.errs, err)
		}
		return nil
	})
}

func (g *Group) Wait() error {
	_ = g.eg.Wait()
	return errors.Join(g.errs...)
}

// Load runs fn in g and stores its result in dst once it succeeds.
func Load[T any](g *Group, dst *T, fn func() (T, error)) {
	g.Go(func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		*dst = v
		return nil
	})
}
