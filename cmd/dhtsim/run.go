package dhtsim

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shibai/dht/internal/address"
	"github.com/shibai/dht/internal/logx"
	"github.com/shibai/dht/internal/netsim"
	"github.com/shibai/dht/internal/sim"
)

var runCfg = defaultConfig()

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run a simulated cluster for a fixed number of ticks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulation(runCfg)
	},
}

func init() {
	flags := runCmd.Flags()
	flags.IntVar(&runCfg.NumNodes, "nodes", runCfg.NumNodes, "number of simulated nodes")
	flags.IntVar(&runCfg.Ticks, "ticks", runCfg.Ticks, "number of ticks to run")
	flags.IntVar(&runCfg.GPSZ, "gpsz", runCfg.GPSZ, "EN_GPSZ: derives suspicion and eviction windows")
	flags.IntVar(&runCfg.RingSize, "ring-size", runCfg.RingSize, "consistent-hash ring size")
	flags.Int64Var(&runCfg.Seed, "seed", runCfg.Seed, "PRNG seed for fault injection and gossip peer choice")
	flags.Float64Var(&runCfg.DropRate, "drop-rate", runCfg.DropRate, "probability a sent message is dropped")
	flags.Float64Var(&runCfg.DuplicateRate, "duplicate-rate", runCfg.DuplicateRate, "probability a sent message is duplicated")
	flags.IntVar(&runCfg.MaxDelayTicks, "max-delay", runCfg.MaxDelayTicks, "max extra ticks of delivery delay")
}

func runSimulation(cfg Config) error {
	logger := zap.Must(zap.NewProduction())
	defer logger.Sync()
	logger.Info("dhtsim starting",
		zap.Int("nodes", cfg.NumNodes),
		zap.Int("ticks", cfg.Ticks),
		zap.Int64("seed", cfg.Seed))

	sink := logx.NewZapLogger(logger)

	net := netsim.New(cfg.Seed, netsim.FaultConfig{
		DropRate:      cfg.DropRate,
		DuplicateRate: cfg.DuplicateRate,
		MaxDelayTicks: cfg.MaxDelayTicks,
	})

	driver := sim.NewDriver(net, sink)
	introducer := address.Endpoint{ID: 1, Port: 0}
	for i := 0; i < cfg.NumNodes; i++ {
		self := address.Endpoint{ID: uint32(i + 1), Port: 0}
		driver.AddNode(sim.NewNode(self, introducer, cfg.GPSZ, cfg.RingSize, net, sink, cfg.Seed+int64(i)))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	driver.Bootstrap()
	driver.Run(ctx, cfg.Ticks)

	if err := driver.Shutdown(); err != nil {
		return fmt.Errorf("dhtsim: shutdown: %w", err)
	}
	logger.Info("dhtsim finished")
	return nil
}
