package transport

import (
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"
)

const defaultReadBufferSize = 512 * 1024

// TCPChannel is the reference Channel implementation: one persistent TCP
// connection per peer, framed with a big-endian 16-bit length prefix.
// Client/server role is deterministic — the node with the lower IP dials,
// the higher-IP node listens — exactly as netchannel.rs's machine_type.
type TCPChannel struct {
	// ReadBufferSize bounds a single Read call; it must accommodate at
	// least 64 KiB. Zero means defaultReadBufferSize.
	ReadBufferSize int
	// DialRetryInterval controls how often a client role retries a
	// failed dial. Zero means 50ms.
	DialRetryInterval time.Duration
}

// Connect implements Channel.
func (c *TCPChannel) Connect(self net.TCPAddr, peers []net.TCPAddr) (map[string]Link, <-chan Inbound, error) {
	inbox := make(chan Inbound, 64)
	links := make(map[string]Link)
	if len(peers) == 0 {
		close(inbox)
		return links, inbox, nil
	}

	bufSize := c.ReadBufferSize
	if bufSize == 0 {
		bufSize = defaultReadBufferSize
	}
	retry := c.DialRetryInterval
	if retry == 0 {
		retry = 50 * time.Millisecond
	}

	needListener := false
	for _, p := range peers {
		if compareIP(self.IP, p.IP) > 0 {
			needListener = true
		}
	}

	expected := map[string]chan net.Conn{}
	var expectedMu sync.Mutex

	if needListener {
		listener, err := net.ListenTCP("tcp", &self)
		if err != nil {
			return nil, nil, fmt.Errorf("transport: listen %s: %w", self.String(), err)
		}
		go acceptLoop(listener, expected, &expectedMu)
	}

	var linksMu sync.Mutex
	var wg sync.WaitGroup
	for _, peer := range peers {
		peer := peer
		wg.Add(1)
		go func() {
			defer wg.Done()
			var conn net.Conn
			if compareIP(self.IP, peer.IP) < 0 {
				conn = dialUntilConnected(peer, retry)
			} else {
				ch := make(chan net.Conn, 1)
				expectedMu.Lock()
				expected[peer.IP.String()] = ch
				expectedMu.Unlock()
				conn = <-ch
			}
			link := &tcpLink{conn: conn}
			linksMu.Lock()
			links[peer.IP.String()] = link
			linksMu.Unlock()
			go readLoop(conn, peer.IP, bufSize, inbox)
		}()
	}
	wg.Wait()
	return links, inbox, nil
}

func acceptLoop(listener *net.TCPListener, expected map[string]chan net.Conn, mu *sync.Mutex) {
	for {
		conn, err := listener.AcceptTCP()
		if err != nil {
			return
		}
		remoteIP := conn.RemoteAddr().(*net.TCPAddr).IP
		mu.Lock()
		ch, ok := expected[remoteIP.String()]
		mu.Unlock()
		if !ok {
			_ = conn.Close()
			continue
		}
		ch <- conn
	}
}

func dialUntilConnected(peer net.TCPAddr, retry time.Duration) net.Conn {
	for {
		conn, err := net.DialTCP("tcp", nil, &peer)
		if err == nil {
			return conn
		}
		time.Sleep(retry)
	}
}

func compareIP(a, b net.IP) int {
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

// tcpLink writes frames with a big-endian u16 length prefix.
type tcpLink struct {
	mu   sync.Mutex
	conn net.Conn
}

func (l *tcpLink) Write(payload []byte) error {
	if len(payload) > 0xFFFF {
		return fmt.Errorf("transport: payload of %d bytes exceeds 16-bit frame length", len(payload))
	}
	header := make([]byte, 2)
	binary.BigEndian.PutUint16(header, uint16(len(payload)))
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.conn.Write(header); err != nil {
		return err
	}
	_, err := l.conn.Write(payload)
	return err
}

func (l *tcpLink) Close() error {
	return l.conn.Close()
}

// readLoop reads frames off conn and forwards each decoded payload to
// inbox, tagged with peerIP. It accumulates partial reads across TCP
// segment boundaries so a frame split across two Read calls is still
// delivered whole — the one correctness gap the length-prefix framing
// needs beyond netchannel.rs's single-read-per-frame assumption.
func readLoop(conn net.Conn, peerIP net.IP, bufSize int, inbox chan<- Inbound) {
	defer conn.Close()
	buf := make([]byte, bufSize)
	var carry []byte
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			carry = append(carry, buf[:n]...)
			for {
				if len(carry) < 2 {
					break
				}
				frameLen := int(binary.BigEndian.Uint16(carry[:2]))
				if len(carry) < 2+frameLen {
					break
				}
				payload := make([]byte, frameLen)
				copy(payload, carry[2:2+frameLen])
				carry = carry[2+frameLen:]
				inbox <- Inbound{PeerIP: peerIP, Payload: payload}
			}
		}
		if err != nil {
			return
		}
	}
}
