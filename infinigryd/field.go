package infinigryd

import (
	"time"

	"go.uber.org/zap"

	"github.com/lanyk/infinigryd/actor"
)

// FieldInstanceTypeTag is the actor_factory tag a FieldInstance is spawned
// under.
const FieldInstanceTypeTag = "FieldInstance"

// leaveDelay is how long a player lingers on a field before wandering off
// toward a random neighbor, mirroring the original's fixed 1.5s delay.
const leaveDelay = 1500 * time.Millisecond

// FieldInstance is one occupied cell of the infinite grid: the set of
// players currently on it, its own coordinate, and (once told) the
// collector it reports state updates to.
type FieldInstance struct {
	log *zap.Logger

	players  map[Player]struct{}
	ownRef   actor.Ref
	env      actor.Environment
	position Position
	collector *actor.Ref

	handlers *actor.HandlerTable
}

// NewFieldInstanceProducer returns an actor.Producer building fresh
// FieldInstance bodies that log through log.
func NewFieldInstanceProducer(log *zap.Logger) actor.Producer {
	return func() actor.Body {
		f := &FieldInstance{
			log:      log,
			players:  make(map[Player]struct{}),
			handlers: &actor.HandlerTable{},
		}
		actor.RegisterHandler(f.handlers, f.handlePlayerEnters)
		actor.RegisterHandler(f.handlers, f.handleForcePlayerLeave)
		actor.RegisterHandler(f.handlers, f.handleDebugQuery)
		actor.RegisterHandler(f.handlers, f.handleInjectCollector)
		return f
	}
}

// Handle implements actor.Body by delegating to the registered handler
// table (§4.2's code-generation facility).
func (f *FieldInstance) Handle(msg interface{}) { f.handlers.Dispatch(msg) }

// DeserializeToAny implements actor.Body.
func (f *FieldInstance) DeserializeToAny(data []byte) (interface{}, bool) {
	return f.handlers.Deserialize(data)
}

// OnStart implements actor.Body: a FieldInstance only knows its coordinate
// through its own specified local id, decoded back into a Position. A
// field spawned with no specified id, or an undecodable one, cannot
// function and removes itself immediately.
func (f *FieldInstance) OnStart(env actor.Environment, self actor.Ref) {
	localID := self.ID.Local
	if localID.Kind != actor.Specified {
		f.log.Error("field spawned without a specified local id", zap.String("actor", self.ID.String()))
		env.Remove(self)
		return
	}
	position, ok := DecodePosition(localID.Bytes)
	if !ok {
		f.log.Warn("field spawned with an undecodable position id", zap.String("actor", self.ID.String()))
		env.Remove(self)
		return
	}
	f.env = env
	f.ownRef = self
	f.position = position
}

// OnStop implements actor.Body.
func (f *FieldInstance) OnStop() {
	f.log.Debug("field stopped", zap.Any("position", f.position))
}

// OnReset implements actor.Body: clears all present players, leaving the
// field at its coordinate but empty.
func (f *FieldInstance) OnReset() {
	f.log.Info("field reset", zap.Int("cleared_players", len(f.players)))
	f.players = make(map[Player]struct{})
}

func (f *FieldInstance) sendStateUpdate() {
	if f.collector == nil {
		return
	}
	if err := f.collector.Send(UpdateState{
		ActorID:    f.ownRef.CloneID(),
		Position:   f.position,
		NumFigures: len(f.players),
	}); err != nil {
		f.log.Warn("failed to report state to collector", zap.Error(err))
	}
}
