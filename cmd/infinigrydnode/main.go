// Command infinigrydnode starts one node of the infinigryd grid
// demonstrator: a local environment, the FieldInstance/CollectingActor
// factory, and, on the seed node, the origin field seeded with the
// starting wave of players (original_source/infinigryd/src/main.rs's
// coordinator-seeding sequence, generalized from a hostname check to the
// configured seed setting or --hostname-role seed).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lanyk/infinigryd/actor"
	"github.com/lanyk/infinigryd/collector"
	"github.com/lanyk/infinigryd/config"
	"github.com/lanyk/infinigryd/environment"
	"github.com/lanyk/infinigryd/infinigryd"
)

var (
	configFile   string
	portFlag     int
	peersFlag    []string
	hostnameRole string
)

func main() {
	root := &cobra.Command{
		Use:   "infinigrydnode",
		Short: "Run one node of the infinigryd distributed actor grid",
		RunE:  run,
	}
	root.Flags().StringVar(&configFile, "config", "", "path to a config file (yaml/json/toml)")
	root.Flags().IntVar(&portFlag, "port", 0, "override the configured listen port")
	root.Flags().StringSliceVar(&peersFlag, "peers", nil, "override the configured peer list (ip:port,...)")
	root.Flags().StringVar(&hostnameRole, "hostname-role", "",
		`"seed" marks this node as the grid's coordinator, overriding the configured seed flag (the original's hostname-matching coordinator check)`)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("port") {
		cfg.ListenPort = portFlag
	}
	if cmd.Flags().Changed("peers") {
		cfg.Peers = peersFlag
	}
	if cmd.Flags().Changed("hostname-role") {
		cfg.Seed = hostnameRole == "seed"
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	peers, err := config.ParsePeers(cfg.Peers)
	if err != nil {
		return err
	}

	factory := actor.NewFactory(
		actor.TypeBuilder{Tag: infinigryd.FieldInstanceTypeTag, New: infinigryd.NewFieldInstanceProducer(log)},
		actor.TypeBuilder{Tag: collector.TypeTag, New: collector.NewCollectingActorProducer(log, cfg.CollectorAddr)},
	)

	env, err := environment.New(environment.Config{
		ListenPort: cfg.ListenPort,
		Peers:      peers,
		Factory:    factory,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("start environment: %w", err)
	}

	if cfg.Seed {
		if err := seedGrid(env, log, cfg); err != nil {
			return err
		}
	}

	env.Wait()
	return nil
}

// seedGrid spawns the collector and the origin field, then pushes
// SeedPlayers players into it. If cfg.RunFor is set, it also schedules a
// debug broadcast followed by cluster-wide expiration after that long.
func seedGrid(env *environment.Environment, log *zap.Logger, cfg config.Config) error {
	collectorRef, err := env.Spawn(collector.TypeTag, actor.PlaceHere(actor.NewSpecifiedLocalID(nil)))
	if err != nil {
		return fmt.Errorf("spawn collector: %w", err)
	}

	origin := infinigryd.Position{X: 0, Y: 0}
	fieldRef, err := env.Spawn(infinigryd.FieldInstanceTypeTag, actor.PlaceUser(actor.NewSpecifiedLocalID(origin.EncodeLocalID())))
	if err != nil {
		return fmt.Errorf("spawn origin field: %w", err)
	}

	if err := fieldRef.Send(infinigryd.InjectCollector{CollectorID: collectorRef.CloneID()}); err != nil {
		return fmt.Errorf("inject collector: %w", err)
	}

	for i := 0; i < cfg.SeedPlayers; i++ {
		if err := fieldRef.Send(infinigryd.PlayerEnters{Player: infinigryd.Player(i), From: infinigryd.South}); err != nil {
			log.Warn("failed to seed player", zap.Int("player", i), zap.Error(err))
		}
	}

	if cfg.RunFor > 0 {
		go func() {
			time.Sleep(cfg.RunFor)
			env.Broadcast(infinigryd.DebugQuery{})
			time.Sleep(2 * time.Second)
			env.SetExpired()
		}()
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return cfg.Build()
}
