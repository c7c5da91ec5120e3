// Package infinigryd is the grid demonstrator app: an infinite plane of
// FieldInstance actors, one per occupied grid cell, spawned lazily as
// players wander off the edge of a known cell into an unknown neighbor.
// It stresses the core runtime's neighbor discovery via spawn-with-id,
// cross-node token migration, and broadcast. Gameplay semantics (which
// player goes where, how often) are not part of the core contract.
//
// Grounded on original_source/infinigryd/src/{field.rs,position.rs}.
package infinigryd

import (
	"bytes"
	"encoding/gob"
	"math/rand"

	"github.com/lanyk/infinigryd/actor"
)

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// Direction is one of the four grid-adjacency directions a player can
// wander across a field boundary.
type Direction int

const (
	North Direction = iota
	West
	South
	East
)

// Directions lists every direction, for picking a random exit.
var Directions = [4]Direction{North, West, South, East}

// Reverse returns the opposite direction: the direction a player arrives
// from when it left a neighbor in this direction.
func (d Direction) Reverse() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case West:
		return East
	case East:
		return West
	default:
		return d
	}
}

// RandomDirection picks a uniformly random direction, used to decide where
// an incoming player wanders off to next.
func RandomDirection() Direction {
	return Directions[rand.Intn(len(Directions))]
}

// Position is a field's coordinate in the infinite grid. It doubles as the
// field actor's specified local identifier: gob-encoded Position bytes are
// what's passed to actor.NewSpecifiedLocalID when a field is spawned.
type Position struct {
	X int64
	Y int64
}

// Next returns the neighboring position in the given direction.
func (p Position) Next(d Direction) Position {
	switch d {
	case North:
		return Position{X: p.X, Y: p.Y + 1}
	case South:
		return Position{X: p.X, Y: p.Y - 1}
	case West:
		return Position{X: p.X - 1, Y: p.Y}
	case East:
		return Position{X: p.X + 1, Y: p.Y}
	default:
		return p
	}
}

// EncodeLocalID gob-encodes a Position for use as a field's specified
// local id, the Go analogue of bincode::serialize(&position) in the
// original.
func (p Position) EncodeLocalID() []byte {
	data, err := actor.Encode(p)
	if err != nil {
		panic("infinigryd: position is always gob-encodable: " + err.Error())
	}
	return data
}

// DecodePosition decodes bytes previously produced by EncodeLocalID.
func DecodePosition(data []byte) (Position, bool) {
	var p Position
	if err := decodeGob(data, &p); err != nil {
		return Position{}, false
	}
	return p, true
}
