package collector

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

// streamHub tracks every open /collector/stream connection and pushes a
// fresh snapshot to all of them whenever the accumulated state changes:
// a *websocket.Conn pool guarded by a map + mutex, narrowed to the
// collector's one job — broadcast, not arbitrary connection bookkeeping.
type streamHub struct {
	log *zap.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func newStreamHub(log *zap.Logger) *streamHub {
	return &streamHub{log: log, conns: make(map[*websocket.Conn]bool)}
}

func (h *streamHub) subscribe(ws *websocket.Conn) {
	h.mu.Lock()
	h.conns[ws] = true
	h.mu.Unlock()
	h.log.Debug("collector stream subscriber joined", zap.String("remote", ws.RemoteAddr().String()))
}

func (h *streamHub) unsubscribe(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, ws)
	h.mu.Unlock()
}

// broadcast pushes snapshot to every subscriber, dropping (and
// unsubscribing) any connection whose write fails.
func (h *streamHub) broadcast(snapshot map[string]ActorInfo) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		h.log.Warn("failed to marshal stream snapshot", zap.Error(err))
		return
	}

	h.mu.Lock()
	targets := make([]*websocket.Conn, 0, len(h.conns))
	for ws := range h.conns {
		targets = append(targets, ws)
	}
	h.mu.Unlock()

	for _, ws := range targets {
		if _, err := ws.Write(data); err != nil {
			h.unsubscribe(ws)
		}
	}
}

// serveStream registers ws as a subscriber and blocks, reading until the
// connection disconnects.
func (h *streamHub) serveStream(ws *websocket.Conn) {
	h.subscribe(ws)
	defer h.unsubscribe(ws)
	defer ws.Close()

	buf := make([]byte, 1)
	for {
		if _, err := ws.Read(buf); err != nil {
			return
		}
	}
}
