package infinigryd

import "github.com/lanyk/infinigryd/actor"

// Player is a dummy identifier distinguishing one wandering figure from
// another; the demonstrator does not model anything about a player beyond
// this id.
type Player uint64

// PlayerEnters notifies a FieldInstance that a player has entered from the
// given direction.
type PlayerEnters struct {
	Player Player
	From   Direction
}

// ForcePlayerLeave is a self-scheduled reminder (sent via SendDelayed) that
// tells a FieldInstance to push a player out toward a direction.
type ForcePlayerLeave struct {
	Player Player
	To     Direction
}

// DebugQuery asks a FieldInstance to log its current occupancy.
type DebugQuery struct{}

// InjectCollector tells a newly spawned FieldInstance which collector
// actor to report state updates to, propagated neighbor-to-neighbor since
// only the seed field is told directly at startup.
type InjectCollector struct {
	CollectorID actor.ID
}

// UpdateState is the state snapshot a FieldInstance reports to the
// collector on every occupancy change. NumFigures == 0 signals the field
// is now empty (about to remove itself).
type UpdateState struct {
	ActorID    actor.ID
	Position   Position
	NumFigures int
}
