package infinigryd

import (
	"go.uber.org/zap"

	"github.com/lanyk/infinigryd/actor"
)

// handlePlayerEnters admits a new player, reports the occupancy change,
// and schedules the player to wander off toward a random neighbor after
// leaveDelay — the mechanism that keeps the grid in constant motion and
// exercises cross-node migration.
func (f *FieldInstance) handlePlayerEnters(msg PlayerEnters) {
	f.players[msg.Player] = struct{}{}
	f.sendStateUpdate()
	f.ownRef.SendDelayed(ForcePlayerLeave{
		Player: msg.Player,
		To:     RandomDirection(),
	}, leaveDelay)
}

// handleForcePlayerLeave pushes a player out toward a neighboring cell.
// If the neighbor field already exists (locally or on another node), the
// player moves there directly; a protector guards the neighbor against
// removal for the round trip. If it doesn't exist yet, this field spawns
// it — locally or on a peer, per the load balancer — hands it the
// collector reference, and retries.
func (f *FieldInstance) handleForcePlayerLeave(msg ForcePlayerLeave) {
	neighborPosition := f.position.Next(msg.To)
	neighborID := neighborPosition.EncodeLocalID()
	ownID := f.ownRef.CloneID()

	neighbor, err := f.env.FindActorRef(neighborID, ownID, true)
	if err != nil {
		f.log.Error("lookup neighbor field failed", zap.Error(err))
		return
	}

	if neighbor != nil {
		delete(f.players, msg.Player)
		if err := neighbor.Send(PlayerEnters{Player: msg.Player, From: msg.To.Reverse()}); err != nil {
			f.log.Warn("failed to hand player to neighbor", zap.Error(err))
		}
		f.sendStateUpdate()
		f.env.DropProtector(ownID, neighbor.CloneID())
		if len(f.players) == 0 {
			f.env.Remove(f.ownRef)
		}
		return
	}

	f.spawnNeighborAndRetry(neighborPosition, neighborID, msg)
}

func (f *FieldInstance) spawnNeighborAndRetry(neighborPosition Position, neighborID []byte, msg ForcePlayerLeave) {
	newRef, err := f.env.Spawn(FieldInstanceTypeTag, actor.PlaceUser(actor.NewSpecifiedLocalID(neighborID)))
	if err != nil {
		f.log.Error("failed to spawn neighbor field", zap.Error(err), zap.Any("position", neighborPosition))
		return
	}

	if f.collector != nil {
		_ = newRef.Send(InjectCollector{CollectorID: f.collector.CloneID()})
	} else if collector, err := f.env.FindActorRef(nil, f.ownRef.CloneID(), false); err != nil {
		f.log.Error("lookup collector failed", zap.Error(err))
	} else if collector != nil {
		_ = newRef.Send(InjectCollector{CollectorID: collector.CloneID()})
		f.collector = collector
	} else {
		f.log.Warn("could not find collector by its fixed address")
	}

	// The neighbor now exists; resend the same ForcePlayerLeave to self so
	// the next attempt finds it and completes the move.
	_ = f.ownRef.Send(msg)
}

// handleDebugQuery logs the field's current occupancy.
func (f *FieldInstance) handleDebugQuery(DebugQuery) {
	f.log.Info("field occupancy",
		zap.Int64("x", f.position.X), zap.Int64("y", f.position.Y), zap.Int("players", len(f.players)))
}

// handleInjectCollector records which collector actor to report state to.
func (f *FieldInstance) handleInjectCollector(msg InjectCollector) {
	ref, err := f.env.ToRef(msg.CollectorID)
	if err != nil {
		f.log.Error("failed to resolve injected collector ref", zap.Error(err))
		return
	}
	f.collector = &ref
}
