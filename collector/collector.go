// Package collector is the visualization collector: an actor that
// accumulates UpdateState reports from every FieldInstance in the grid
// and exposes the current snapshot as JSON, both as a one-shot pull
// (/collector/state) and as a push feed (/collector/stream).
//
// Grounded on original_source/infinigryd/src/collector.rs (a raw TCP
// listener dumping a bincode snapshot per connection), with its push
// variant built around streamHub, a tracked websocket.Conn pool.
package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/websocket"

	"github.com/lanyk/infinigryd/actor"
	"github.com/lanyk/infinigryd/infinigryd"
)

// TypeTag is the actor_factory tag a CollectingActor is spawned under.
const TypeTag = "CollectingActor"

// ActorInfo is one field's last-reported state.
type ActorInfo struct {
	Position   infinigryd.Position `json:"position"`
	NumFigures int                 `json:"num_figures"`
}

// CollectingActor accumulates UpdateState reports keyed by the reporting
// actor's identifier, and serves the accumulated snapshot over HTTP.
type CollectingActor struct {
	log *zap.Logger
	addr string

	mu    sync.RWMutex
	state map[string]ActorInfo

	server *http.Server
	stream *streamHub

	handlers *actor.HandlerTable
}

// NewCollectingActorProducer returns an actor.Producer whose bodies serve
// a JSON snapshot endpoint at addr (e.g. ":4028") once started.
func NewCollectingActorProducer(log *zap.Logger, addr string) actor.Producer {
	return func() actor.Body {
		c := &CollectingActor{
			log:      log,
			addr:     addr,
			state:    make(map[string]ActorInfo),
			stream:   newStreamHub(log),
			handlers: &actor.HandlerTable{},
		}
		actor.RegisterHandler(c.handlers, c.handleUpdateState)
		return c
	}
}

func (c *CollectingActor) Handle(msg interface{}) { c.handlers.Dispatch(msg) }

func (c *CollectingActor) DeserializeToAny(data []byte) (interface{}, bool) {
	return c.handlers.Deserialize(data)
}

// OnStart implements actor.Body: binds the snapshot endpoint. A bind
// failure (port already in use, e.g. a second collector on the same host)
// is logged and left unstarted rather than stopping the actor, mirroring
// the original's "server already existing??" best-effort tolerance.
func (c *CollectingActor) OnStart(env actor.Environment, self actor.Ref) {
	mux := http.NewServeMux()
	mux.Handle("/collector/state", websocket.Handler(c.serveSnapshot))
	mux.Handle("/collector/stream", websocket.Handler(c.stream.serveStream))
	c.server = &http.Server{Addr: c.addr, Handler: mux}

	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.log.Warn("collector snapshot server stopped", zap.Error(err), zap.String("addr", c.addr))
		}
	}()
	c.log.Info("collector listening", zap.String("addr", c.addr))
}

// OnStop implements actor.Body.
func (c *CollectingActor) OnStop() {
	c.log.Info("collector went offline")
	if c.server != nil {
		_ = c.server.Shutdown(context.Background())
	}
}

// OnReset implements actor.Body: clears the accumulated snapshot.
func (c *CollectingActor) OnReset() {
	c.mu.Lock()
	c.state = make(map[string]ActorInfo)
	c.mu.Unlock()
}

// serveSnapshot writes one JSON-encoded copy of the current state and
// closes, matching the original's accept-write-flush cycle.
func (c *CollectingActor) serveSnapshot(ws *websocket.Conn) {
	defer ws.Close()
	c.mu.RLock()
	snapshot := make(map[string]ActorInfo, len(c.state))
	for k, v := range c.state {
		snapshot[k] = v
	}
	c.mu.RUnlock()

	if err := json.NewEncoder(ws).Encode(snapshot); err != nil {
		c.log.Warn("failed to write snapshot", zap.Error(err))
	}
}

func (c *CollectingActor) handleUpdateState(msg infinigryd.UpdateState) {
	c.mu.Lock()
	key := msg.ActorID.Key()
	if msg.NumFigures == 0 {
		delete(c.state, key)
	} else {
		c.state[key] = ActorInfo{Position: msg.Position, NumFigures: msg.NumFigures}
	}
	snapshot := make(map[string]ActorInfo, len(c.state))
	for k, v := range c.state {
		snapshot[k] = v
	}
	c.mu.Unlock()

	c.stream.broadcast(snapshot)
}
