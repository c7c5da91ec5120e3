package environment

import (
	"github.com/lanyk/infinigryd/actor"
	"github.com/lanyk/infinigryd/wire"
)

// Spawn implements actor.Environment.Spawn. Here placements always land
// locally; Automatic and User placements consult the load balancer,
// which may pick a peer.
func (e *Environment) Spawn(typeTag string, placement actor.Placement) (actor.Ref, error) {
	if placement.IsHere() {
		localID, _ := placement.LocalID()
		return e.spawnLocal(typeTag, localID)
	}

	slot := e.nextLoadBalancerSlot()
	if slot == 0 {
		localID, hasUser := placement.LocalID()
		if !hasUser {
			localID = actor.NewAutomaticLocalID()
		}
		return e.spawnLocal(typeTag, localID)
	}

	peerIdx := slot - 1
	e.netMu.Lock()
	if peerIdx >= len(e.netPeerIPs) {
		e.netMu.Unlock()
		return actor.Ref{}, actor.NewError(actor.InvalidState, "load balancer slot %d out of range", slot)
	}
	peerIP := e.netPeerIPs[peerIdx]
	e.netMu.Unlock()

	localID, hasUser := placement.LocalID()
	if !hasUser {
		localID = actor.NewAutomaticLocalID()
	}
	id := actor.ID{Local: localID, Resident: peerIP}

	e.sendRaw(peerIP.String(), wire.TagSpawnByTypeID, wire.SpawnByTypeID{
		Tag:     typeTag,
		LocalID: wire.ToWireID(id),
	})
	return actor.NewRef(id, &remoteEndpoint{env: e, target: id}), nil
}

// nextLoadBalancerSlot advances the round-robin counter over
// {local, peer0, peer1, ...} and returns the slot it lands on: 0 means
// local, k>0 means peer k-1 in configured order.
func (e *Environment) nextLoadBalancerSlot() int {
	e.lbMu.Lock()
	defer e.lbMu.Unlock()
	slot := e.lbCounter % e.numSlots
	e.lbCounter++
	if e.lbCounter >= e.numSlots {
		e.lbCounter = 0
	}
	return slot
}

func (e *Environment) spawnLocal(typeTag string, localID actor.LocalID) (actor.Ref, error) {
	body, err := e.factory(typeTag)
	if err != nil {
		return actor.Ref{}, err
	}
	id := actor.ID{Local: localID, Resident: e.selfAddr.IP}
	mailbox := actor.NewMailbox()
	ref := actor.NewRef(id, &localEndpoint{mailbox: mailbox})

	proc := &actorProcess{id: id, mailbox: mailbox, ref: ref}
	e.localMu.Lock()
	e.localActors[id.Key()] = proc
	e.localMu.Unlock()

	go e.runActorLoop(body, proc)
	return ref, nil
}

// ToRef builds a Ref addressed to id: a local endpoint if id resides on
// this node's mailbox map, otherwise a remote endpoint routed through the
// outbound worker.
func (e *Environment) ToRef(id actor.ID) (actor.Ref, error) {
	if proc, ok := e.lookupLocal(id); ok {
		return proc.ref, nil
	}
	return actor.NewRef(id, &remoteEndpoint{env: e, target: id}), nil
}

// Remove implements actor.Environment.Remove.
func (e *Environment) Remove(ref actor.Ref) {
	id := ref.CloneID()
	if id.Resident.Equal(e.selfAddr.IP) {
		if e.isProtected(id) {
			return
		}
	}
	_ = ref.SendStop()
}
