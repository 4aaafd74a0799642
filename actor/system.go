package actor

import (
	"sync"
	"sync/atomic"
)

// System hosts a collection of actors.
//
// The zero value is ready to use.
type System struct {
	ids  atomic.Uint64
	live atomic.Int64
	wg   sync.WaitGroup

	m    sync.Mutex
	tops map[*cell]struct{}
}

// Spawn starts a new top-level actor.
func (s *System) Spawn(h Handler) Ref {
	return s.spawn(nil, h)
}

// Stop stops r and every actor that it spawned, directly or indirectly. It
// returns the number of actors that were stopped.
//
// Any messages still queued for a stopped actor are discarded. Stopping an
// actor that has already stopped has no effect.
func (s *System) Stop(r Ref) int {
	if r.c == nil {
		return 0
	}

	s.m.Lock()
	delete(s.tops, r.c)
	s.m.Unlock()

	return r.c.stop()
}

// Len returns the number of actors that are running.
func (s *System) Len() int {
	return int(s.live.Load())
}

// Shutdown stops all actors and waits for their goroutines to exit.
func (s *System) Shutdown() {
	s.m.Lock()
	tops := s.tops
	s.tops = nil
	s.m.Unlock()

	for c := range tops {
		c.stop()
	}

	s.wg.Wait()
}

func (s *System) spawn(parent *cell, h Handler) Ref {
	c := &cell{
		id:      s.ids.Add(1),
		sys:     s,
		handler: h,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	if parent == nil {
		s.m.Lock()
		if s.tops == nil {
			s.tops = map[*cell]struct{}{}
		}
		s.tops[c] = struct{}{}
		s.m.Unlock()
	} else if !parent.adopt(c) {
		// The parent has already stopped, so the child is never started.
		return Ref{c}
	}

	s.live.Add(1)
	s.wg.Add(1)
	go c.run()

	return Ref{c}
}
