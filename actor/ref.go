package actor

import "time"

// Endpoint is the write-end an actor reference routes through: either the
// write-end of the local mailbox channel, or the write-end of the node-wide
// outbound channel feeding the remote-send worker. Implementations live in
// package environment, which alone knows how to serialize and queue
// outbound traffic; actor stays free of that dependency.
type Endpoint interface {
	SendRegular(msg interface{}) error
	SendSpecial(kind EnvelopeKind) error
}

// Ref is a send-handle for an actor: an identifier paired with a send
// endpoint. References are freely clonable — cloning duplicates only the
// send endpoint, never the actor.
type Ref struct {
	ID       ID
	endpoint Endpoint
}

// NewRef builds a Ref from an id and endpoint. Exported for use by
// package environment, which is the only producer of endpoints.
func NewRef(id ID, endpoint Endpoint) Ref {
	return Ref{ID: id, endpoint: endpoint}
}

// CloneID returns a copy of the referenced actor's identifier.
func (r Ref) CloneID() ID { return r.ID }

// EndpointOf exposes a Ref's underlying Endpoint. Exported for tests that
// need to assert on a fake endpoint's recorded sends; application code has
// no business reaching past Send/SendStop/SendReset.
func EndpointOf(r Ref) Endpoint { return r.endpoint }

// Send enqueues a Regular envelope locally, or serializes and enqueues a
// Serialized envelope for the remote-send worker. Non-blocking; success
// does not imply the actor is alive or will handle the message.
func (r Ref) Send(message interface{}) error {
	return r.endpoint.SendRegular(message)
}

// SendReset enqueues a Special(Reset) token, routed like any other send.
func (r Ref) SendReset() error {
	return r.endpoint.SendSpecial(SpecialReset)
}

// SendStop enqueues a Special(Stop) token. Applications normally stop
// actors through Environment.Remove, which also honors protectors; this is
// exposed for package environment's Remove implementation and for tests.
func (r Ref) SendStop() error {
	return r.endpoint.SendSpecial(SpecialStop)
}

// SendDelayed schedules Send to occur after duration, on a separate
// execution context; the caller does not block. Errors at send time are
// dropped, matching the fire-and-forget contract of Send itself.
func (r Ref) SendDelayed(message interface{}, delay time.Duration) {
	go func() {
		time.Sleep(delay)
		_ = r.Send(message)
	}()
}
