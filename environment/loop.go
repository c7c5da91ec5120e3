package environment

import (
	"go.uber.org/zap"

	"github.com/lanyk/infinigryd/actor"
)

// runActorLoop is the dedicated execution context for one local actor.
// It owns the actor body for its entire lifetime: nothing else ever
// calls into body concurrently, so a handler is never re-entered and
// never runs concurrently with another handler of the same actor.
func (e *Environment) runActorLoop(body actor.Body, proc *actorProcess) {
	body.OnStart(e, proc.ref)

	for {
		env, ok := proc.mailbox.Pop()
		if !ok {
			e.finishLocal(proc)
			return
		}

		switch env.Kind {
		case actor.Regular:
			body.Handle(env.Payload)

		case actor.Serialized:
			msg, ok := body.DeserializeToAny(env.Bytes)
			if !ok {
				e.log.Warn("discarding undecodable serialized message", zap.String("actor", proc.id.String()))
				continue
			}
			body.Handle(msg)

		case actor.SpecialStop:
			if e.isProtected(proc.id) {
				continue
			}
			body.OnStop()
			e.finishLocal(proc)
			return

		case actor.SpecialReset:
			body.OnReset()
		}
	}
}

// finishLocal removes the actor's mailbox from the registry and closes
// it, the definitive signal that the actor is dead.
func (e *Environment) finishLocal(proc *actorProcess) {
	e.localMu.Lock()
	delete(e.localActors, proc.id.Key())
	e.localMu.Unlock()
	proc.mailbox.Close()
}
