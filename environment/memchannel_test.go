package environment

import (
	"net"

	"github.com/lanyk/infinigryd/transport"
)

// memLink is an in-process transport.Link: Write copies the payload onto a
// Go channel instead of a socket.
type memLink struct {
	out chan<- []byte
}

func (l *memLink) Write(payload []byte) error {
	cp := append([]byte(nil), payload...)
	l.out <- cp
	return nil
}

func (l *memLink) Close() error { return nil }

// memChannel is a transport.Channel double wired to exactly one peer,
// used to test Environment's control-plane logic without sockets or the
// real TCPChannel's IP-based role election, which can't tell apart two
// simulated nodes sharing 127.0.0.1.
type memChannel struct {
	peerIP  net.IP
	link    *memLink
	inbound chan transport.Inbound
}

func (c *memChannel) Connect(self net.TCPAddr, peers []net.TCPAddr) (map[string]transport.Link, <-chan transport.Inbound, error) {
	return map[string]transport.Link{c.peerIP.String(): c.link}, c.inbound, nil
}

// newMemChannelPair wires two Channels directly to each other, as if node
// ipA and node ipB were connected peer-to-peer.
func newMemChannelPair(ipA, ipB net.IP) (transport.Channel, transport.Channel) {
	aToB := make(chan []byte, 64)
	bToA := make(chan []byte, 64)
	inboundA := make(chan transport.Inbound, 64)
	inboundB := make(chan transport.Inbound, 64)

	go func() {
		for p := range bToA {
			inboundA <- transport.Inbound{PeerIP: ipB, Payload: p}
		}
	}()
	go func() {
		for p := range aToB {
			inboundB <- transport.Inbound{PeerIP: ipA, Payload: p}
		}
	}()

	chA := &memChannel{peerIP: ipB, link: &memLink{out: aToB}, inbound: inboundA}
	chB := &memChannel{peerIP: ipA, link: &memLink{out: bToA}, inbound: inboundB}
	return chA, chB
}
