package environment

import (
	"go.uber.org/zap"

	"github.com/lanyk/infinigryd/actor"
	"github.com/lanyk/infinigryd/transport"
	"github.com/lanyk/infinigryd/wire"
)

// outboundWorker drains e.outbound and writes one framed wire payload per
// item to the Link addressed by the item's target node. One worker serves
// every peer; ordering toward a single peer is therefore preserved, but
// items addressed to different peers may interleave — ordering is
// per-link, not cluster-wide.
func (e *Environment) outboundWorker() {
	for item := range e.outbound {
		link, ok := e.linkFor(item.target)
		if !ok {
			e.log.Warn("no link to target node, dropping send",
				zap.String("target", item.target.String()))
			continue
		}
		var raw []byte
		var err error
		switch item.kind {
		case outboundMessage:
			raw, err = wire.Encode(wire.TagMessage, wire.Message{
				ID:    wire.ToWireID(item.target),
				Bytes: item.payload,
			})
		case outboundToken:
			raw, err = wire.Encode(wire.TagSpecialToken, wire.SpecialToken{
				ID:    wire.ToWireID(item.target),
				Token: item.token,
			})
		}
		if err != nil {
			e.log.Error("encode outbound frame", zap.Error(err))
			continue
		}
		if err := link.Write(raw); err != nil {
			e.log.Error("write outbound frame", zap.Error(err), zap.String("target", item.target.String()))
		}
	}
}

func (e *Environment) linkFor(target actor.ID) (transport.Link, bool) {
	e.netMu.Lock()
	defer e.netMu.Unlock()
	idx, ok := e.netIndexOf[target.Resident.String()]
	if !ok {
		return nil, false
	}
	return e.netSenders[idx], true
}

// sendRaw encodes payload as a frame under tag and writes it to the single
// peer link named by ip, used by control-plane paths (lookup query/result, remove-protector,
// broadcast, expiration) that don't go through enqueueOutbound's
// per-actor-target addressing.
func (e *Environment) sendRaw(ip string, tag wire.Tag, payload interface{}) {
	e.netMu.Lock()
	idx, ok := e.netIndexOf[ip]
	var link transport.Link
	if ok {
		link = e.netSenders[idx]
	}
	e.netMu.Unlock()
	if !ok {
		e.log.Warn("no link to peer", zap.String("peer", ip))
		return
	}
	raw, err := wire.Encode(tag, payload)
	if err != nil {
		e.log.Error("encode frame", zap.Error(err))
		return
	}
	if err := link.Write(raw); err != nil {
		e.log.Error("write frame", zap.Error(err), zap.String("peer", ip))
	}
}

// broadcastRaw encodes payload as a frame under tag once and writes it to
// every connected peer.
func (e *Environment) broadcastRaw(tag wire.Tag, payload interface{}) {
	raw, err := wire.Encode(tag, payload)
	if err != nil {
		e.log.Error("encode broadcast frame", zap.Error(err))
		return
	}
	e.netMu.Lock()
	links := append([]transport.Link(nil), e.netSenders...)
	e.netMu.Unlock()
	for _, link := range links {
		if err := link.Write(raw); err != nil {
			e.log.Error("write broadcast frame", zap.Error(err))
		}
	}
}

// inboundWorker reads every frame arriving from every peer link and
// dispatches it by tag: one goroutine serving all peers, since
// cluster-wide message order across different peers is never
// guaranteed anyway.
func (e *Environment) inboundWorker(inbound <-chan transport.Inbound) {
	for in := range inbound {
		tag, payload, err := wire.Decode(in.Payload)
		if err != nil {
			e.log.Error("decode inbound frame", zap.Error(err), zap.String("peer", in.PeerIP.String()))
			continue
		}
		e.handleInbound(tag, payload)
	}
}

func (e *Environment) handleInbound(tag wire.Tag, payload interface{}) {
	switch tag {
	case wire.TagMessage:
		m := payload.(wire.Message)
		e.deliverSerialized(m.ID.ToActorID(), m.Bytes)

	case wire.TagSpecialToken:
		t := payload.(wire.SpecialToken)
		e.deliverToken(t.ID.ToActorID(), t.Token)

	case wire.TagSpawnByTypeID:
		s := payload.(wire.SpawnByTypeID)
		localID := s.LocalID.ToActorID().Local
		if _, err := e.Spawn(s.Tag, actor.PlaceHere(localID)); err != nil {
			e.log.Error("remote spawn request failed", zap.Error(err), zap.String("type", s.Tag))
		}

	case wire.TagQuerySpecifiedID:
		q := payload.(wire.QuerySpecifiedID)
		e.answerQuery(q)

	case wire.TagQuerySpecifiedIDResult:
		q := payload.(wire.QuerySpecifiedIDResult)
		e.resolveOutstanding(q)

	case wire.TagRemoveProtector:
		r := payload.(wire.RemoveProtector)
		e.removeProtectorLocal(r.Protector.ToActorID(), r.Target.ToActorID())

	case wire.TagBroadcast:
		b := payload.(wire.Broadcast)
		e.deliverBroadcastBytes(b.Bytes)

	case wire.TagSendExpirationSignal:
		e.receiveExpirationSignal()
	}
}

// deliverSerialized routes a remote Message frame to the named local
// actor's mailbox as a Serialized envelope, or drops it with a log line if
// no such local actor exists (it may have since been removed).
func (e *Environment) deliverSerialized(target actor.ID, data []byte) {
	proc, ok := e.lookupLocal(target)
	if !ok {
		e.log.Warn("message for unknown local actor", zap.String("target", target.String()))
		return
	}
	proc.mailbox.PushSerialized(data)
}

func (e *Environment) deliverToken(target actor.ID, tok wire.Token) {
	proc, ok := e.lookupLocal(target)
	if !ok {
		e.log.Warn("token for unknown local actor", zap.String("target", target.String()))
		return
	}
	switch tok {
	case wire.TokenStop:
		proc.mailbox.PushStop()
	case wire.TokenReset:
		proc.mailbox.PushReset()
	}
}

func (e *Environment) deliverBroadcastBytes(data []byte) {
	e.localMu.Lock()
	procs := make([]*actorProcess, 0, len(e.localActors))
	for _, p := range e.localActors {
		procs = append(procs, p)
	}
	e.localMu.Unlock()
	for _, p := range procs {
		p.mailbox.PushSerialized(data)
	}
}

func (e *Environment) lookupLocal(id actor.ID) (*actorProcess, bool) {
	e.localMu.Lock()
	defer e.localMu.Unlock()
	proc, ok := e.localActors[id.Key()]
	return proc, ok
}
