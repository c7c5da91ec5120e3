// Package config holds the node's runtime parameters, loaded via viper
// from (in ascending priority) defaults, an optional config file, and
// environment variables prefixed INFINIGRYD_.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable the node needs at startup.
type Config struct {
	// ListenPort is this node's TCP port for the peer transport.
	ListenPort int `mapstructure:"listen_port"`

	// Peers is the configured cluster: every other node's "ip:port". The
	// node filters out any entry matching its own discovered address.
	Peers []string `mapstructure:"peers"`

	// Seed, if true, makes this node spawn the origin field and the
	// starting wave of players — the analogue of the original's
	// hostname-matching "are we the coordinator" check.
	Seed bool `mapstructure:"seed"`

	// SeedPlayers is how many players the seed node injects at (0,0).
	SeedPlayers int `mapstructure:"seed_players"`

	// RunFor bounds how long the demonstrator runs before the seed node
	// broadcasts a DebugQuery and calls set_expired. Zero means run until
	// interrupted.
	RunFor time.Duration `mapstructure:"run_for"`

	// CollectorAddr is the listen address the collector's snapshot
	// endpoint binds to.
	CollectorAddr string `mapstructure:"collector_addr"`

	// LogLevel is the zap level name: debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

// Default returns the out-of-the-box single-node configuration.
func Default() Config {
	return Config{
		ListenPort:    4020,
		Peers:         nil,
		Seed:          true,
		SeedPlayers:   128,
		RunFor:        0,
		CollectorAddr: ":4028",
		LogLevel:      "info",
	}
}

// Load reads configFile (if non-empty) and INFINIGRYD_-prefixed
// environment variables over the defaults, via viper.
func Load(configFile string) (Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("listen_port", def.ListenPort)
	v.SetDefault("peers", def.Peers)
	v.SetDefault("seed", def.Seed)
	v.SetDefault("seed_players", def.SeedPlayers)
	v.SetDefault("run_for", def.RunFor)
	v.SetDefault("collector_addr", def.CollectorAddr)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix("infinigryd")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// ParsePeers resolves each configured "ip:port" peer into a net.TCPAddr.
func ParsePeers(peers []string) ([]net.TCPAddr, error) {
	addrs := make([]net.TCPAddr, 0, len(peers))
	for _, p := range peers {
		host, portStr, err := net.SplitHostPort(p)
		if err != nil {
			return nil, fmt.Errorf("config: invalid peer %q: %w", p, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("config: invalid peer port %q: %w", p, err)
		}
		ip := net.ParseIP(host)
		if ip == nil {
			resolved, err := net.ResolveIPAddr("ip", host)
			if err != nil {
				return nil, fmt.Errorf("config: resolve peer host %q: %w", host, err)
			}
			ip = resolved.IP
		}
		addrs = append(addrs, net.TCPAddr{IP: ip, Port: port})
	}
	return addrs, nil
}
