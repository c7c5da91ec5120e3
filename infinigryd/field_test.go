package infinigryd

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lanyk/infinigryd/actor"
)

// recordingEndpoint captures every Regular send for inspection, and drops
// specials — field tests never exercise Stop/Reset routing.
type recordingEndpoint struct {
	sent chan interface{}
}

func newRecordingEndpoint() *recordingEndpoint {
	return &recordingEndpoint{sent: make(chan interface{}, 32)}
}

func (e *recordingEndpoint) SendRegular(msg interface{}) error {
	e.sent <- msg
	return nil
}

func (e *recordingEndpoint) SendSpecial(actor.EnvelopeKind) error { return nil }

// fakeEnv is a minimal actor.Environment double: Spawn registers a ref by
// its specified local id bytes, and FindActorRef looks it up by the same
// bytes, simulating a cluster. A Here placement always lands on selfIP;
// any other placement (User, Automatic) is routed to a distinct
// simulated peer IP, standing in for the real load balancer and letting
// tests tell forced-local spawns apart from load-balanced ones.
type fakeEnv struct {
	mu           sync.Mutex
	selfIP       net.IP
	peerIP       net.IP
	byBytes      map[string]actor.Ref
	removed      []actor.ID
	dropped      []struct{ Protector, Target actor.ID }
	spawnWasHere []bool
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{
		selfIP:  net.ParseIP("127.0.0.1"),
		peerIP:  net.ParseIP("10.9.9.9"),
		byBytes: make(map[string]actor.Ref),
	}
}

func (e *fakeEnv) Spawn(typeTag string, placement actor.Placement) (actor.Ref, error) {
	localID, ok := placement.LocalID()
	if !ok {
		localID = actor.NewAutomaticLocalID()
	}

	resident := e.selfIP
	if !placement.IsHere() {
		resident = e.peerIP
	}

	e.mu.Lock()
	e.spawnWasHere = append(e.spawnWasHere, placement.IsHere())
	e.mu.Unlock()

	ref := actor.NewRef(actor.ID{Local: localID, Resident: resident}, newRecordingEndpoint())
	if localID.Kind == actor.Specified {
		e.mu.Lock()
		e.byBytes[string(localID.Bytes)] = ref
		e.mu.Unlock()
	}
	return ref, nil
}

func (e *fakeEnv) Remove(ref actor.Ref) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removed = append(e.removed, ref.CloneID())
}

func (e *fakeEnv) FindActorRef(queriedLocalID []byte, searcher actor.ID, protect bool) (*actor.Ref, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ref, ok := e.byBytes[string(queriedLocalID)]
	if !ok {
		return nil, nil
	}
	return &ref, nil
}

func (e *fakeEnv) DropProtector(protector, target actor.ID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dropped = append(e.dropped, struct{ Protector, Target actor.ID }{protector, target})
}

func (e *fakeEnv) Broadcast(msg interface{}) {}

func (e *fakeEnv) SetExpired() {}

func (e *fakeEnv) ToRef(id actor.ID) (actor.Ref, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ref := range e.byBytes {
		if ref.CloneID().Key() == id.Key() {
			return ref, nil
		}
	}
	return actor.NewRef(id, newRecordingEndpoint()), nil
}

func newStartedField(t *testing.T, env *fakeEnv, pos Position) (actor.Body, actor.Ref) {
	t.Helper()
	self := actor.NewRef(
		actor.ID{Local: actor.NewSpecifiedLocalID(pos.EncodeLocalID()), Resident: env.selfIP},
		newRecordingEndpoint(),
	)
	body := NewFieldInstanceProducer(zap.NewNop())()
	body.OnStart(env, self)
	return body, self
}

func TestPlayerEntersTracksOccupancy(t *testing.T) {
	env := newFakeEnv()
	body, self := newStartedField(t, env, Position{X: 0, Y: 0})
	field := body.(*FieldInstance)

	body.Handle(PlayerEnters{Player: 1, From: South})
	assert.Len(t, field.players, 1)
	_, present := field.players[1]
	assert.True(t, present)
	_ = self
}

func TestForcePlayerLeaveSpawnsNeighborWhenAbsentThenRetries(t *testing.T) {
	env := newFakeEnv()
	body, self := newStartedField(t, env, Position{X: 0, Y: 0})
	selfEndpoint := self.CloneID()
	_ = selfEndpoint

	body.Handle(PlayerEnters{Player: 7, From: South})
	body.Handle(ForcePlayerLeave{Player: 7, To: North})

	neighborBytes := Position{X: 0, Y: 1}.EncodeLocalID()
	env.mu.Lock()
	neighborRef, spawned := env.byBytes[string(neighborBytes)]
	wasHere := append([]bool(nil), env.spawnWasHere...)
	env.mu.Unlock()
	require.True(t, spawned, "field should have spawned its North neighbor")

	// The on-demand neighbor must go through the load balancer (User
	// placement), not be forced onto this node, or the grid could never
	// spread across nodes at runtime.
	require.Len(t, wasHere, 1)
	assert.False(t, wasHere[0], "neighbor spawn must not use Here placement")
	assert.True(t, neighborRef.CloneID().Resident.Equal(env.peerIP),
		"load-balanced spawn should be able to land on a peer")

	// Having spawned the neighbor, the field resends the same
	// ForcePlayerLeave to itself so the next attempt completes the move.
	selfRecording := selfEndpointOf(t, self)
	resent := <-selfRecording.sent
	assert.Equal(t, ForcePlayerLeave{Player: 7, To: North}, resent)
}

func TestForcePlayerLeaveMovesPlayerWhenNeighborExists(t *testing.T) {
	env := newFakeEnv()
	body, self := newStartedField(t, env, Position{X: 0, Y: 0})

	neighborPos := Position{X: 0, Y: 1}
	neighborBody, neighborSelf := newStartedField(t, env, neighborPos)
	_ = neighborBody
	env.byBytes[string(neighborPos.EncodeLocalID())] = neighborSelf

	body.Handle(PlayerEnters{Player: 3, From: South})
	body.Handle(ForcePlayerLeave{Player: 3, To: North})

	field := body.(*FieldInstance)
	_, stillPresent := field.players[3]
	assert.False(t, stillPresent, "player should have left the origin field")

	neighborEndpoint := selfEndpointOf(t, neighborSelf)
	arrived := <-neighborEndpoint.sent
	assert.Equal(t, PlayerEnters{Player: 3, From: South}, arrived)

	require.Len(t, env.dropped, 1)
	assert.True(t, env.dropped[0].Target.Key() == neighborSelf.CloneID().Key())
	_ = self
}

func selfEndpointOf(t *testing.T, ref actor.Ref) *recordingEndpoint {
	t.Helper()
	ep, ok := actor.EndpointOf(ref).(*recordingEndpoint)
	require.True(t, ok, "ref must be backed by a recordingEndpoint")
	return ep
}
