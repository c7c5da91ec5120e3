package environment

import (
	"github.com/lanyk/infinigryd/actor"
	"github.com/lanyk/infinigryd/wire"
)

// isProtected reports whether target currently has at least one protector.
// Reads dominate writes here (every Stop consults it), hence the RWMutex.
func (e *Environment) isProtected(target actor.ID) bool {
	e.protectorsMu.RLock()
	defer e.protectorsMu.RUnlock()
	set, ok := e.protectors[target.Key()]
	return ok && len(set) > 0
}

// addProtector records that protector is keeping target alive.
func (e *Environment) addProtector(target, protector actor.ID) {
	e.protectorsMu.Lock()
	defer e.protectorsMu.Unlock()
	set, ok := e.protectors[target.Key()]
	if !ok {
		set = make(map[string]actor.ID)
		e.protectors[target.Key()] = set
	}
	set[protector.Key()] = protector
}

// DropProtector implements actor.Environment.DropProtector. If target is
// not resident on this node, the removal is additionally
// forwarded to every peer, since each node that answered the original
// lookup query keeps its own protector entry.
func (e *Environment) DropProtector(protector, target actor.ID) {
	e.removeProtectorLocal(protector, target)
	if !target.Resident.Equal(e.selfAddr.IP) {
		e.broadcastRaw(wire.TagRemoveProtector, wire.RemoveProtector{
			Protector: wire.ToWireID(protector),
			Target:    wire.ToWireID(target),
		})
	}
}

// removeProtectorLocal removes protector from target's protector set
// without forwarding, used both by DropProtector's local half and by the
// RemoveProtector inbound handler, which must not re-broadcast what it
// received.
func (e *Environment) removeProtectorLocal(protector, target actor.ID) {
	e.protectorsMu.Lock()
	defer e.protectorsMu.Unlock()
	set, ok := e.protectors[target.Key()]
	if !ok {
		return
	}
	delete(set, protector.Key())
	if len(set) == 0 {
		delete(e.protectors, target.Key())
	}
}
