package wire

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lanyk/infinigryd/actor"
)

func TestActorIDRoundTripsThroughWireID(t *testing.T) {
	id := actor.ID{Local: actor.NewSpecifiedLocalID([]byte("field-0-0")), Resident: net.ParseIP("10.0.0.5").To4()}
	back := ToWireID(id).ToActorID()
	assert.True(t, id.Local.Equal(back.Local))
	assert.True(t, id.Resident.Equal(back.Resident))

	automatic := actor.ID{Local: actor.NewAutomaticLocalID(), Resident: net.ParseIP("10.0.0.6").To4()}
	backAuto := ToWireID(automatic).ToActorID()
	assert.True(t, automatic.Local.Equal(backAuto.Local))
}

func TestEncodeDecodeRoundTripsEveryVariant(t *testing.T) {
	id := actor.ID{Local: actor.NewSpecifiedLocalID([]byte("x")), Resident: net.ParseIP("127.0.0.1").To4()}
	wid := ToWireID(id)

	cases := []struct {
		tag     Tag
		payload interface{}
	}{
		{TagMessage, Message{ID: wid, Bytes: []byte("hello")}},
		{TagSpecialToken, SpecialToken{ID: wid, Token: TokenStop}},
		{TagSpawnByTypeID, SpawnByTypeID{Tag: "FieldInstance", LocalID: wid}},
		{TagQuerySpecifiedID, QuerySpecifiedID{QueriedLocalID: []byte("q"), ReplyTo: net.ParseIP("127.0.0.1").To4(), Searcher: wid, Protect: true}},
		{TagQuerySpecifiedIDResult, QuerySpecifiedIDResult{QueriedLocalID: []byte("q"), Searcher: wid, Found: true, FoundIP: net.ParseIP("127.0.0.1").To4()}},
		{TagRemoveProtector, RemoveProtector{Protector: wid, Target: wid}},
		{TagBroadcast, Broadcast{Bytes: []byte("payload")}},
		{TagSendExpirationSignal, struct{}{}},
	}

	for _, c := range cases {
		raw, err := Encode(c.tag, c.payload)
		assert.NoError(t, err)

		tag, decoded, err := Decode(raw)
		assert.NoError(t, err)
		assert.Equal(t, c.tag, tag)
		if c.tag != TagSendExpirationSignal {
			assert.Equal(t, c.payload, decoded)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, _, err := Decode([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}
