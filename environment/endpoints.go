package environment

import (
	"go.uber.org/zap"

	"github.com/lanyk/infinigryd/actor"
	"github.com/lanyk/infinigryd/wire"
)

// localEndpoint routes directly into a local actor's mailbox; no
// serialization, no network hop. Implements actor.Endpoint.
type localEndpoint struct {
	mailbox *actor.Mailbox
}

func (e *localEndpoint) SendRegular(msg interface{}) error {
	if !e.mailbox.PushMessage(msg) {
		return actor.NewError(actor.InvalidActorRef, "mailbox is closed")
	}
	return nil
}

func (e *localEndpoint) SendSpecial(kind actor.EnvelopeKind) error {
	var ok bool
	switch kind {
	case actor.SpecialStop:
		ok = e.mailbox.PushStop()
	case actor.SpecialReset:
		ok = e.mailbox.PushReset()
	default:
		return actor.NewError(actor.InvalidState, "unknown special envelope kind %d", kind)
	}
	if !ok {
		return actor.NewError(actor.InvalidActorRef, "mailbox is closed")
	}
	return nil
}

// remoteEndpoint serializes and enqueues onto the owning Environment's
// outbound queue, for delivery by the outbound worker to the node named
// by target.Resident. Implements actor.Endpoint.
type remoteEndpoint struct {
	env    *Environment
	target actor.ID
}

func (e *remoteEndpoint) SendRegular(msg interface{}) error {
	payload, err := actor.Encode(msg)
	if err != nil {
		return err
	}
	return e.env.enqueueOutbound(outboundItem{target: e.target, kind: outboundMessage, payload: payload})
}

func (e *remoteEndpoint) SendSpecial(kind actor.EnvelopeKind) error {
	var tok wire.Token
	switch kind {
	case actor.SpecialStop:
		tok = wire.TokenStop
	case actor.SpecialReset:
		tok = wire.TokenReset
	default:
		return actor.NewError(actor.InvalidState, "unknown special envelope kind %d", kind)
	}
	return e.env.enqueueOutbound(outboundItem{target: e.target, kind: outboundToken, token: tok})
}

// enqueueOutbound hands one item to the outbound worker. Non-blocking
// failure (a full queue) is treated like any other fire-and-forget send
// failure: the caller learns via the returned error, nothing panics.
func (e *Environment) enqueueOutbound(item outboundItem) error {
	select {
	case e.outbound <- item:
		return nil
	default:
		e.log.Warn("outbound queue full, dropping send", zap.String("target", item.target.String()))
		return actor.NewError(actor.NetworkError, "outbound queue full")
	}
}
