package environment

import (
	"go.uber.org/zap"

	"github.com/lanyk/infinigryd/actor"
	"github.com/lanyk/infinigryd/wire"
)

// Broadcast implements actor.Environment.Broadcast: every local actor
// receives a Regular envelope directly, and every peer link receives
// a serialized Broadcast frame that it fans out locally in turn. No
// global ordering across nodes is promised.
func (e *Environment) Broadcast(msg interface{}) {
	e.localMu.Lock()
	procs := make([]*actorProcess, 0, len(e.localActors))
	for _, p := range e.localActors {
		procs = append(procs, p)
	}
	e.localMu.Unlock()
	for _, p := range procs {
		p.mailbox.PushMessage(msg)
	}

	data, err := actor.Encode(msg)
	if err != nil {
		e.log.Error("encode broadcast message", zap.Error(err))
		return
	}
	e.broadcastRaw(wire.TagBroadcast, wire.Broadcast{Bytes: data})
}
