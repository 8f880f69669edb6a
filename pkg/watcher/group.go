package watcher

import (
	"errors"
	"fmt"
	"sync"
)

// Group watches several label sources and merges their change signals.
type Group struct {
	watchers []*Watcher
	changeCh chan string
	stop     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// NewGroup creates one Watcher per path with the same options. Nothing is
// started until Start.
func NewGroup(paths []string, opts ...WatcherOption) (*Group, error) {
	if len(paths) == 0 {
		return nil, errors.New("watcher group needs at least one path")
	}
	g := &Group{
		changeCh: make(chan string, len(paths)),
		stop:     make(chan struct{}),
	}
	for _, p := range paths {
		w, err := NewWatcher(p, opts...)
		if err != nil {
			return nil, fmt.Errorf("watching %s: %w", p, err)
		}
		g.watchers = append(g.watchers, w)
	}
	return g, nil
}

// Start starts every watcher. On failure the ones already running are stopped.
func (g *Group) Start() error {
	for i, w := range g.watchers {
		if err := w.Start(); err != nil {
			for _, started := range g.watchers[:i] {
				started.Stop()
			}
			return fmt.Errorf("starting watcher for %s: %w", w.Path(), err)
		}
	}
	for _, w := range g.watchers {
		g.wg.Add(1)
		go g.forward(w)
	}
	return nil
}

func (g *Group) forward(w *Watcher) {
	defer g.wg.Done()
	for {
		select {
		case <-g.stop:
			return
		case <-w.Changed():
			select {
			case g.changeCh <- w.Path():
			default:
			}
		}
	}
}

// Changed receives the path of a source after it changes.
func (g *Group) Changed() <-chan string {
	return g.changeCh
}

// Paths returns the absolute paths being watched.
func (g *Group) Paths() []string {
	out := make([]string, len(g.watchers))
	for i, w := range g.watchers {
		out[i] = w.Path()
	}
	return out
}

// Polling reports whether any watcher fell back to polling.
func (g *Group) Polling() bool {
	for _, w := range g.watchers {
		if w.IsPolling() {
			return true
		}
	}
	return false
}

// Stop stops every watcher and the forwarding goroutines. It is safe to call twice.
func (g *Group) Stop() {
	g.once.Do(func() {
		close(g.stop)
		for _, w := range g.watchers {
			w.Stop()
		}
		g.wg.Wait()
	})
}
