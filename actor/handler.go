package actor

// Handler handles the messages delivered to an actor.
type Handler interface {
	Receive(ctx *Context, msg any)
}

// HandlerFunc is an adaptor that allows an ordinary function to be used as a
// [Handler].
type HandlerFunc func(ctx *Context, msg any)

// Receive calls fn(ctx, msg).
func (fn HandlerFunc) Receive(ctx *Context, msg any) {
	fn(ctx, msg)
}

// Context is the environment in which a [Handler] processes a single message.
//
// It must not be retained beyond the call to [Handler.Receive].
type Context struct {
	self   *cell
	sender Ref
}

// Self returns the address of the actor handling the message.
func (c *Context) Self() Ref {
	return Ref{c.self}
}

// Sender returns the address of the actor that sent the message.
func (c *Context) Sender() Ref {
	return c.sender
}

// Spawn starts a new actor as a child of the current actor.
//
// The child is stopped when the current actor is stopped.
func (c *Context) Spawn(h Handler) Ref {
	return c.self.sys.spawn(c.self, h)
}

// Forward sends msg to r, preserving the original sender.
func (c *Context) Forward(r Ref, msg any) {
	r.Tell(msg, c.sender)
}

// Stop stops r and its descendants. It returns the number of actors stopped.
func (c *Context) Stop(r Ref) int {
	return c.self.sys.Stop(r)
}

// Unstash places envs at the front of the current actor's mailbox, such that
// they are handled, in order, before any message that is already queued.
func (c *Context) Unstash(envs []Envelope) {
	c.self.prepend(envs)
}
