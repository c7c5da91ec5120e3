// Package transport implements the pluggable "net channel" abstraction:
// a reliable, ordered, message-framed bidirectional link between two
// nodes. The reference implementation, TCPChannel, is grounded
// on original_source/netchannel/src/netchannel.rs: a big-endian 16-bit
// length prefix per frame, deterministic client/server role by comparing
// IP addresses, and a single persistent TCP connection per peer.
package transport

import "net"

// Link is one established, bidirectional connection to a peer.
type Link interface {
	// Write sends one already-framed-free payload; Write applies the
	// length prefix itself.
	Write(payload []byte) error
	Close() error
}

// Inbound is one fully-framed payload read off a Link, tagged with the
// peer it arrived from.
type Inbound struct {
	PeerIP  net.IP
	Payload []byte
}

// Channel is the pluggable net-channel abstraction. Connect blocks until
// a Link has been established to every peer, then returns the
// established links keyed by peer IP string, and a channel carrying
// every inbound frame from every peer link.
type Channel interface {
	Connect(self net.TCPAddr, peers []net.TCPAddr) (links map[string]Link, inbound <-chan Inbound, err error)
}
