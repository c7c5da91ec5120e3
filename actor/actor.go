package actor

// Body is the polymorphic value an application supplies for each actor
// type. The library's code-generation facility (RegisterHandler) builds
// Handle and DeserializeToAny from declared (type, handler) pairs; on_start
// and on_stop are implemented directly by the application.
type Body interface {
	OnStart(env Environment, self Ref)
	OnStop()
	OnReset()
	Handle(msg interface{})
	DeserializeToAny(data []byte) (interface{}, bool)
}

// Producer constructs a fresh actor body. One Producer is registered per
// type tag in a Factory.
type Producer func() Body

// Environment is the subset of the local environment's control plane that
// an actor body needs during on_start/handlers. It is declared here,
// rather than imported from package environment, so that environment can
// depend on actor without a cycle; *environment.Environment satisfies it.
type Environment interface {
	Spawn(typeTag string, placement Placement) (Ref, error)
	Remove(ref Ref)
	FindActorRef(queriedLocalID []byte, searcher ID, protect bool) (*Ref, error)
	DropProtector(protector, target ID)
	Broadcast(msg interface{})
	SetExpired()
	ToRef(id ID) (Ref, error)
}

// Placement selects where a newly spawned actor is to live.
type Placement struct {
	kind    placementKind
	localID LocalID
}

type placementKind int

const (
	placementAutomatic placementKind = iota
	placementHere
	placementUser
)

// PlaceAutomatic lets the load balancer choose local or a peer, with a
// fresh automatic local id.
func PlaceAutomatic() Placement { return Placement{kind: placementAutomatic} }

// PlaceHere forces local placement with the given local id. Used both by
// spawn_local(_with_id) and by the remote SpawnByTypeId handler.
func PlaceHere(id LocalID) Placement { return Placement{kind: placementHere, localID: id} }

// PlaceUser lets the load balancer choose local or a peer, but with a
// user-specified local id rather than an automatic one.
func PlaceUser(id LocalID) Placement { return Placement{kind: placementUser, localID: id} }

// IsHere reports whether this placement always resolves locally.
func (p Placement) IsHere() bool { return p.kind == placementHere }

// LocalID returns the id carried by the placement, if any.
func (p Placement) LocalID() (LocalID, bool) {
	if p.kind == placementAutomatic {
		return LocalID{}, false
	}
	return p.localID, true
}
