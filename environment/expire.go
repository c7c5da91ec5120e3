package environment

import (
	"time"

	"github.com/lanyk/infinigryd/wire"
)

// flushDelay is the brief pause set_expired sleeps before releasing the
// termination signal, giving outbound buffers a chance to flush.
const flushDelay = 50 * time.Millisecond

// SetExpired implements actor.Environment.SetExpired: cluster-wide
// shutdown. Unlike Remove, protector state is not honored — expiration
// stops every actor unconditionally.
func (e *Environment) SetExpired() {
	e.broadcastRaw(wire.TagSendExpirationSignal, struct{}{})
	e.stopAllLocal()
	time.Sleep(flushDelay)
	e.release()
}

// receiveExpirationSignal handles an inbound SendExpirationSignal frame: a
// peer has expired the whole cluster, so this node stops too. It does not
// re-broadcast; the originator already signaled every peer directly.
func (e *Environment) receiveExpirationSignal() {
	e.stopAllLocal()
	e.release()
}

// stopAllLocal force-stops every local actor, clearing any protector entry
// first so the actor loop's ordinary "ignore Stop while protected" rule
// never applies during cluster-wide expiration.
func (e *Environment) stopAllLocal() {
	e.localMu.Lock()
	procs := make([]*actorProcess, 0, len(e.localActors))
	for _, p := range e.localActors {
		procs = append(procs, p)
	}
	e.localMu.Unlock()

	e.protectorsMu.Lock()
	for _, p := range procs {
		delete(e.protectors, p.id.Key())
	}
	e.protectorsMu.Unlock()

	for _, p := range procs {
		p.mailbox.PushStop()
	}
}

func (e *Environment) release() {
	e.termOnce.Do(func() { close(e.termCh) })
}
