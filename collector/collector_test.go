package collector

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lanyk/infinigryd/actor"
	"github.com/lanyk/infinigryd/infinigryd"
)

func newTestCollector() *CollectingActor {
	return NewCollectingActorProducer(zap.NewNop(), ":0")().(*CollectingActor)
}

func fieldID(bytes string) actor.ID {
	return actor.ID{Local: actor.NewSpecifiedLocalID([]byte(bytes)), Resident: net.ParseIP("127.0.0.1")}
}

func TestHandleUpdateStateAccumulatesByActor(t *testing.T) {
	c := newTestCollector()
	a := fieldID("a")
	b := fieldID("b")

	c.Handle(infinigryd.UpdateState{ActorID: a, Position: infinigryd.Position{X: 0, Y: 0}, NumFigures: 2})
	c.Handle(infinigryd.UpdateState{ActorID: b, Position: infinigryd.Position{X: 1, Y: 0}, NumFigures: 1})

	require.Len(t, c.state, 2)
	assert.Equal(t, ActorInfo{Position: infinigryd.Position{X: 0, Y: 0}, NumFigures: 2}, c.state[a.Key()])
	assert.Equal(t, ActorInfo{Position: infinigryd.Position{X: 1, Y: 0}, NumFigures: 1}, c.state[b.Key()])
}

func TestHandleUpdateStateWithZeroFiguresRemovesEntry(t *testing.T) {
	c := newTestCollector()
	a := fieldID("a")

	c.Handle(infinigryd.UpdateState{ActorID: a, Position: infinigryd.Position{X: 0, Y: 0}, NumFigures: 3})
	require.Len(t, c.state, 1)

	c.Handle(infinigryd.UpdateState{ActorID: a, Position: infinigryd.Position{X: 0, Y: 0}, NumFigures: 0})
	assert.Len(t, c.state, 0)
}

func TestOnResetClearsAccumulatedState(t *testing.T) {
	c := newTestCollector()
	c.Handle(infinigryd.UpdateState{ActorID: fieldID("a"), Position: infinigryd.Position{}, NumFigures: 1})
	require.Len(t, c.state, 1)

	c.OnReset()
	assert.Len(t, c.state, 0)
}

func TestDeserializeToAnyRoundTripsUpdateState(t *testing.T) {
	c := newTestCollector()
	want := infinigryd.UpdateState{ActorID: fieldID("a"), Position: infinigryd.Position{X: 2, Y: -1}, NumFigures: 4}

	data, err := actor.Encode(want)
	require.NoError(t, err)

	got, ok := c.DeserializeToAny(data)
	require.True(t, ok)
	assert.Equal(t, want, got)
}
