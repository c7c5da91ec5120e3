package environment

import (
	"bytes"
	"encoding/gob"

	"github.com/lanyk/infinigryd/actor"
)

// probeMessage is a gob-encodable application message used across the
// environment test suite.
type probeMessage struct {
	Text string
}

// probeActor records every message it receives and every lifecycle call,
// standing in for a real application actor body in tests.
type probeActor struct {
	received chan interface{}
	stopped  chan struct{}
	resets   chan struct{}
}

func newProbeActor() *probeActor {
	return &probeActor{
		received: make(chan interface{}, 16),
		stopped:  make(chan struct{}, 1),
		resets:   make(chan struct{}, 1),
	}
}

func (p *probeActor) OnStart(actor.Environment, actor.Ref) {}

func (p *probeActor) OnStop() { p.stopped <- struct{}{} }

func (p *probeActor) OnReset() { p.resets <- struct{}{} }

func (p *probeActor) Handle(msg interface{}) { p.received <- msg }

func (p *probeActor) DeserializeToAny(data []byte) (interface{}, bool) {
	var m probeMessage
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
		return nil, false
	}
	return m, true
}

const probeTypeTag = "Probe"

// newSingleProbeFactory returns a Factory that always hands out the same
// probeActor instance, for tests that spawn exactly one probe per node.
func newSingleProbeFactory(p *probeActor) actor.Factory {
	return actor.NewFactory(actor.TypeBuilder{Tag: probeTypeTag, New: func() actor.Body { return p }})
}
