// Package wire implements the binary payload schema exchanged between
// nodes and the length-prefixed frame encoding used to carry it (package
// transport). It is the Go analogue of original_source/actlib's
// message.rs NetMessage enum and netchannel.rs framing, using
// encoding/gob where the original used bincode.
package wire

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"net"

	"github.com/lanyk/infinigryd/actor"
)

// Tag identifies which NetMessage variant a Frame carries.
type Tag byte

const (
	TagMessage Tag = iota
	TagSpecialToken
	TagSpawnByTypeID
	TagQuerySpecifiedID
	TagQuerySpecifiedIDResult
	TagRemoveProtector
	TagBroadcast
	TagSendExpirationSignal
)

// WireID is the serializable form of actor.ID: tag + value of local-id,
// then IP.
type WireID struct {
	Kind  actor.LocalIDKind
	UUID  [16]byte
	Bytes []byte
	IP    net.IP
}

func ToWireID(id actor.ID) WireID {
	w := WireID{Kind: id.Local.Kind, IP: id.Resident}
	if id.Local.Kind == actor.Automatic {
		w.UUID = id.Local.UUID
	} else {
		w.Bytes = append([]byte(nil), id.Local.Bytes...)
	}
	return w
}

func (w WireID) ToActorID() actor.ID {
	var local actor.LocalID
	if w.Kind == actor.Automatic {
		local = actor.LocalID{Kind: actor.Automatic, UUID: w.UUID}
	} else {
		local = actor.NewSpecifiedLocalID(w.Bytes)
	}
	return actor.ID{Local: local, Resident: w.IP}
}

// Token is the special control message carried inside a SpecialToken
// payload.
type Token int

const (
	TokenStop Token = iota
	TokenReset
)

// Message payload: Message(actor-id, bytes).
type Message struct {
	ID    WireID
	Bytes []byte
}

// SpecialToken payload: SpecialToken(actor-id, token), with the Stop or
// Reset token carried as a Token value.
type SpecialToken struct {
	ID    WireID
	Token Token
}

// SpawnByTypeID payload: SpawnByTypeId(string, local-id).
type SpawnByTypeID struct {
	Tag     string
	LocalID WireID // only Kind/UUID/Bytes are meaningful; IP is ignored
}

// QuerySpecifiedID payload: QuerySpecifiedId(bytes, ip, actor-id, bool).
type QuerySpecifiedID struct {
	QueriedLocalID []byte
	ReplyTo        net.IP
	Searcher       WireID
	Protect        bool
}

// QuerySpecifiedIDResult payload: QuerySpecifiedIdResult(bytes, actor-id,
// optional ip).
type QuerySpecifiedIDResult struct {
	QueriedLocalID []byte
	Searcher       WireID
	Found          bool
	FoundIP        net.IP
}

// RemoveProtector payload: RemoveProtector(protector, target), protector
// first, then target.
type RemoveProtector struct {
	Protector WireID
	Target    WireID
}

// Broadcast payload: Broadcast(bytes) — bytes is an already gob-encoded
// application message.
type Broadcast struct {
	Bytes []byte
}

// Frame is the outer envelope: a one-byte tag identifying which payload
// struct follows, then the gob-encoded payload itself.
type Frame struct {
	Tag  Tag
	Body []byte
}

// Encode gob-encodes a payload value behind its tag byte.
func Encode(tag Tag, payload interface{}) ([]byte, error) {
	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(payload); err != nil {
		return nil, fmt.Errorf("wire: encode body: %w", err)
	}
	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(Frame{Tag: tag, Body: body.Bytes()}); err != nil {
		return nil, fmt.Errorf("wire: encode frame: %w", err)
	}
	return out.Bytes(), nil
}

// Decode reads the outer frame and decodes its body into the struct
// matching its tag, returning the payload as one of the typed structs
// above.
func Decode(raw []byte) (Tag, interface{}, error) {
	var frame Frame
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&frame); err != nil {
		return 0, nil, fmt.Errorf("wire: decode frame: %w", err)
	}
	body := bytes.NewReader(frame.Body)
	switch frame.Tag {
	case TagMessage:
		var m Message
		err := gob.NewDecoder(body).Decode(&m)
		return frame.Tag, m, err
	case TagSpecialToken:
		var t SpecialToken
		err := gob.NewDecoder(body).Decode(&t)
		return frame.Tag, t, err
	case TagSpawnByTypeID:
		var s SpawnByTypeID
		err := gob.NewDecoder(body).Decode(&s)
		return frame.Tag, s, err
	case TagQuerySpecifiedID:
		var q QuerySpecifiedID
		err := gob.NewDecoder(body).Decode(&q)
		return frame.Tag, q, err
	case TagQuerySpecifiedIDResult:
		var q QuerySpecifiedIDResult
		err := gob.NewDecoder(body).Decode(&q)
		return frame.Tag, q, err
	case TagRemoveProtector:
		var r RemoveProtector
		err := gob.NewDecoder(body).Decode(&r)
		return frame.Tag, r, err
	case TagBroadcast:
		var b Broadcast
		err := gob.NewDecoder(body).Decode(&b)
		return frame.Tag, b, err
	case TagSendExpirationSignal:
		return frame.Tag, struct{}{}, nil
	default:
		return 0, nil, fmt.Errorf("wire: unknown tag %d", frame.Tag)
	}
}
