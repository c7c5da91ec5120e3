package environment

import (
	"net"

	"github.com/lanyk/infinigryd/actor"
	"github.com/lanyk/infinigryd/wire"
)

// FindActorRef implements actor.Environment.FindActorRef: the
// distributed directory lookup. A local hit returns immediately; a miss
// broadcasts the query to every peer and blocks until the first positive
// answer arrives or every peer has answered negatively.
func (e *Environment) FindActorRef(queriedLocalID []byte, searcher actor.ID, protect bool) (*actor.Ref, error) {
	candidate := actor.ID{Local: actor.NewSpecifiedLocalID(queriedLocalID), Resident: e.selfAddr.IP}
	if proc, ok := e.lookupLocal(candidate); ok {
		if protect {
			e.addProtector(candidate, searcher)
		}
		ref := proc.ref
		return &ref, nil
	}

	e.netMu.Lock()
	peerCount := len(e.netSenders)
	e.netMu.Unlock()
	if peerCount == 0 {
		return nil, nil
	}

	key := outstandingKey{queriedLocalID: string(queriedLocalID), searcher: searcher.Key()}
	replies := make(chan *actor.Ref, peerCount)
	e.outstandingMu.Lock()
	e.outstanding[key] = replies
	e.outstandingMu.Unlock()

	e.broadcastRaw(wire.TagQuerySpecifiedID, wire.QuerySpecifiedID{
		QueriedLocalID: queriedLocalID,
		ReplyTo:        e.selfAddr.IP,
		Searcher:       wire.ToWireID(searcher),
		Protect:        protect,
	})

	var found *actor.Ref
	for i := 0; i < peerCount; i++ {
		if r := <-replies; r != nil {
			found = r
			break
		}
	}

	e.outstandingMu.Lock()
	delete(e.outstanding, key)
	e.outstandingMu.Unlock()
	return found, nil
}

// answerQuery handles an inbound QuerySpecifiedId frame: test the local
// registry and reply toward the searcher's origin node.
func (e *Environment) answerQuery(q wire.QuerySpecifiedID) {
	candidate := actor.ID{Local: actor.NewSpecifiedLocalID(q.QueriedLocalID), Resident: e.selfAddr.IP}
	_, found := e.lookupLocal(candidate)
	if found && q.Protect {
		e.addProtector(candidate, q.Searcher.ToActorID())
	}
	var foundIP net.IP
	if found {
		foundIP = e.selfAddr.IP
	}
	e.sendRaw(q.ReplyTo.String(), wire.TagQuerySpecifiedIDResult, wire.QuerySpecifiedIDResult{
		QueriedLocalID: q.QueriedLocalID,
		Searcher:       q.Searcher,
		Found:          found,
		FoundIP:        foundIP,
	})
}

// resolveOutstanding handles an inbound QuerySpecifiedIdResult frame,
// completing the searcher's blocked FindActorRef call. A
// positive result removes the outstanding entry so only the first
// positive answer wins; a negative result leaves the entry so later,
// still-in-flight peers can still post a late positive.
func (e *Environment) resolveOutstanding(q wire.QuerySpecifiedIDResult) {
	key := outstandingKey{queriedLocalID: string(q.QueriedLocalID), searcher: q.Searcher.ToActorID().Key()}

	e.outstandingMu.Lock()
	replies, ok := e.outstanding[key]
	if !ok {
		e.outstandingMu.Unlock()
		return
	}
	if q.Found {
		delete(e.outstanding, key)
	}
	e.outstandingMu.Unlock()

	if !q.Found {
		replies <- nil
		return
	}
	id := actor.ID{Local: actor.NewSpecifiedLocalID(q.QueriedLocalID), Resident: q.FoundIP}
	ref := actor.NewRef(id, &remoteEndpoint{env: e, target: id})
	replies <- &ref
}
