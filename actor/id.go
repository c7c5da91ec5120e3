// Package actor defines the per-actor mailbox, the actor body and handler
// table, and the identity/reference types used to address actors
// cluster-wide. The execution loop that drains a mailbox lives in package
// environment.
package actor

import (
	"fmt"
	"net"

	"github.com/google/uuid"
)

// LocalIDKind tags the origin of a LocalID.
type LocalIDKind int

const (
	// Automatic local ids are a fresh UUID assigned by the runtime.
	Automatic LocalIDKind = iota
	// Specified local ids are an application-provided opaque byte string.
	Specified
)

// LocalID is a per-node-unique value, tagged by origin. Equality is
// structural: two Automatic ids compare by UUID, two Specified ids compare
// by byte content.
type LocalID struct {
	Kind  LocalIDKind
	UUID  uuid.UUID
	Bytes []byte
}

// NewAutomaticLocalID returns a fresh 128-bit UUID local id.
func NewAutomaticLocalID() LocalID {
	return LocalID{Kind: Automatic, UUID: uuid.New()}
}

// NewSpecifiedLocalID wraps an application-provided byte string.
func NewSpecifiedLocalID(b []byte) LocalID {
	cp := make([]byte, len(b))
	copy(cp, b)
	return LocalID{Kind: Specified, Bytes: cp}
}

// Equal reports structural equality of two local ids.
func (id LocalID) Equal(other LocalID) bool {
	if id.Kind != other.Kind {
		return false
	}
	if id.Kind == Automatic {
		return id.UUID == other.UUID
	}
	return string(id.Bytes) == string(other.Bytes)
}

// key returns a value usable as a Go map key component.
func (id LocalID) key() string {
	if id.Kind == Automatic {
		return "u:" + id.UUID.String()
	}
	return "s:" + string(id.Bytes)
}

func (id LocalID) String() string {
	if id.Kind == Automatic {
		return id.UUID.String()
	}
	return fmt.Sprintf("%x", id.Bytes)
}

// ID is the pair (local identifier, node IP of residence) naming an actor
// uniquely cluster-wide. It is fixed at spawn and never reused.
type ID struct {
	Local    LocalID
	Resident net.IP
}

// Key returns a canonical string usable as a Go map key, since ID itself
// embeds a net.IP and a []byte and is therefore not comparable.
func (id ID) Key() string {
	return id.Local.key() + "@" + id.Resident.String()
}

func (id ID) String() string {
	return fmt.Sprintf("%s@%s", id.Local.String(), id.Resident.String())
}

// Less gives ID a total order: by resident IP bytes, then by local id key.
func (id ID) Less(other ID) bool {
	c := compareIPs(id.Resident, other.Resident)
	if c != 0 {
		return c < 0
	}
	return id.Local.key() < other.Local.key()
}

func compareIPs(a, b net.IP) int {
	a16, b16 := a.To16(), b.To16()
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
