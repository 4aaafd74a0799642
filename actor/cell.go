package actor

import (
	"slices"
	"sync"
)

// cell is the runtime state of a single actor.
type cell struct {
	id      uint64
	sys     *System
	handler Handler
	signal  chan struct{}
	done    chan struct{}

	m        sync.Mutex
	stopped  bool
	queue    []Envelope
	children []*cell
}

func (c *cell) enqueue(env Envelope) {
	c.m.Lock()
	if c.stopped {
		c.m.Unlock()
		return
	}
	c.queue = append(c.queue, env)
	c.m.Unlock()

	select {
	case c.signal <- struct{}{}:
	default:
	}
}

func (c *cell) prepend(envs []Envelope) {
	if len(envs) == 0 {
		return
	}

	c.m.Lock()
	if c.stopped {
		c.m.Unlock()
		return
	}
	c.queue = append(append([]Envelope(nil), envs...), c.queue...)
	c.m.Unlock()

	select {
	case c.signal <- struct{}{}:
	default:
	}
}

// dequeue returns the next message in the mailbox. ok is false if the mailbox
// is empty or the actor has stopped.
func (c *cell) dequeue() (env Envelope, ok bool) {
	c.m.Lock()
	defer c.m.Unlock()

	if c.stopped || len(c.queue) == 0 {
		return Envelope{}, false
	}

	env = c.queue[0]
	c.queue[0] = Envelope{}
	c.queue = c.queue[1:]

	return env, true
}

// adopt records child as a descendant of c. It returns false if c has already
// stopped.
func (c *cell) adopt(child *cell) bool {
	c.m.Lock()
	defer c.m.Unlock()

	if c.stopped {
		child.stopped = true
		return false
	}

	c.children = slices.DeleteFunc(c.children, (*cell).isStopped)
	c.children = append(c.children, child)
	return true
}

func (c *cell) isStopped() bool {
	c.m.Lock()
	defer c.m.Unlock()
	return c.stopped
}

func (c *cell) run() {
	defer c.sys.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case <-c.signal:
		}

		for {
			env, ok := c.dequeue()
			if !ok {
				break
			}

			c.handler.Receive(
				&Context{
					self:   c,
					sender: env.Sender,
				},
				env.Message,
			)
		}
	}
}

func (c *cell) stop() int {
	c.m.Lock()
	if c.stopped {
		c.m.Unlock()
		return 0
	}
	c.stopped = true
	c.queue = nil
	children := c.children
	c.children = nil
	c.m.Unlock()

	close(c.done)
	c.sys.live.Add(-1)

	n := 1
	for _, child := range children {
		n += child.stop()
	}

	return n
}
