// Package environment implements the per-node local environment: the
// registry of local actor mailboxes, the remote sender table, the
// outstanding-lookup table, the protector table, the load balancer, and
// the two long-running remote I/O workers. It is the control plane for
// spawn, remove, find, broadcast, and expire.
//
// Grounded on original_source/actlib/src/environment.rs (LocalEnvironment)
// and on bollywood.Engine / process's dispatcher-goroutine idiom,
// generalized from a single-machine actor engine to a distributed one.
package environment

import (
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/lanyk/infinigryd/actor"
	"github.com/lanyk/infinigryd/transport"
	"github.com/lanyk/infinigryd/wire"
)

// outstandingKey indexes outstanding distributed lookups by
// (queried local-id, searcher actor identifier).
type outstandingKey struct {
	queriedLocalID string
	searcher       string
}

// actorProcess is the running instance of a local actor: its mailbox and
// the metadata the loop needs.
type actorProcess struct {
	id      actor.ID
	mailbox *actor.Mailbox
	ref     actor.Ref
}

// Config bundles the parameters an Environment is constructed with.
type Config struct {
	ListenPort int
	Peers      []net.TCPAddr
	Factory    actor.Factory
	Channel    transport.Channel // nil selects transport.TCPChannel
	Logger     *zap.Logger       // nil selects zap.NewNop()

	// SelfIP overrides the node's auto-discovered non-loopback address.
	// Real deployments leave this nil; tests running multiple simulated
	// nodes in one process set it, since the real TCPChannel's
	// lower-IP-dials/higher-IP-listens role election can't otherwise
	// distinguish two nodes sharing 127.0.0.1.
	SelfIP net.IP
}

// Environment is one node's local runtime: the registry of local actor
// mailboxes, the remote sender table, the outstanding-lookup table, the
// protector table, and the load balancer.
type Environment struct {
	selfAddr net.TCPAddr
	factory  actor.Factory
	log      *zap.Logger

	localMu     sync.Mutex
	localActors map[string]*actorProcess

	netMu       sync.Mutex
	netSenders  []transport.Link // ordered by configured peer order
	netPeerIPs  []net.IP         // parallel to netSenders
	netIndexOf  map[string]int   // peer ip string -> index into netSenders

	outbound chan outboundItem

	outstandingMu sync.Mutex
	outstanding   map[outstandingKey]chan *actor.Ref

	protectorsMu sync.RWMutex
	protectors   map[string]map[string]actor.ID // target key -> (protector key -> protector id)

	lbMu      sync.Mutex
	lbCounter int
	numSlots  int

	termOnce sync.Once
	termCh   chan struct{}
}

// outboundItem is one item drained by the outbound worker: a target actor
// identifier and the serialized payload to deliver to it.
type outboundItem struct {
	target  actor.ID
	kind    outboundKind
	payload []byte    // used when kind == outboundMessage
	token   wire.Token // used when kind == outboundToken
}

type outboundKind int

const (
	outboundMessage outboundKind = iota
	outboundToken
)

// New constructs a node's local Environment. It discovers the node's own
// non-loopback address, connects to every configured peer (filtering out
// any peer whose IP matches this node's own), and starts the remote I/O
// workers if the cluster has at least one peer. It blocks until every
// peer is reached.
func New(cfg Config) (*Environment, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	selfIP := cfg.SelfIP
	if selfIP == nil {
		var err error
		selfIP, err = discoverSelfIP()
		if err != nil {
			return nil, actor.NewError(actor.InvalidState, "discover local address: %v", err)
		}
	}
	self := net.TCPAddr{IP: selfIP, Port: cfg.ListenPort}

	var peers []net.TCPAddr
	for _, p := range cfg.Peers {
		if !p.IP.Equal(selfIP) {
			peers = append(peers, p)
		}
	}

	env := &Environment{
		selfAddr:    self,
		factory:     cfg.Factory,
		log:         log,
		localActors: make(map[string]*actorProcess),
		outbound:    make(chan outboundItem, 256),
		outstanding: make(map[outstandingKey]chan *actor.Ref),
		protectors:  make(map[string]map[string]actor.ID),
		numSlots:    1 + len(peers),
		termCh:      make(chan struct{}),
	}

	if len(peers) == 0 {
		log.Info("environment started with no peers", zap.String("self", self.String()))
		return env, nil
	}

	ch := cfg.Channel
	if ch == nil {
		ch = &transport.TCPChannel{}
	}
	links, inbound, err := ch.Connect(self, peers)
	if err != nil {
		return nil, actor.NewError(actor.NetworkError, "connect to peers: %v", err)
	}
	env.netIndexOf = make(map[string]int, len(peers))
	for i, p := range peers {
		link, ok := links[p.IP.String()]
		if !ok {
			return nil, actor.NewError(actor.NetworkError, "no link established for peer %s", p.IP)
		}
		env.netSenders = append(env.netSenders, link)
		env.netPeerIPs = append(env.netPeerIPs, p.IP)
		env.netIndexOf[p.IP.String()] = i
	}

	go env.outboundWorker()
	go env.inboundWorker(inbound)

	log.Info("environment connected to all peers",
		zap.String("self", self.String()), zap.Int("peers", len(peers)))
	return env, nil
}

func discoverSelfIP() (net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4, nil
		}
	}
	return nil, fmt.Errorf("no non-loopback network interface found")
}

// SelfAddr returns this node's discovered listen address.
func (e *Environment) SelfAddr() net.TCPAddr { return e.selfAddr }

// Wait blocks until SetExpired releases the termination signal.
func (e *Environment) Wait() { <-e.termCh }
