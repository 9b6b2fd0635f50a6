package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/wfunc/kolortris/config"
	"github.com/wfunc/kolortris/logger"
	"github.com/wfunc/kolortris/match"
	"github.com/wfunc/kolortris/monitor"
	"github.com/wfunc/kolortris/playfield"
	"github.com/wfunc/kolortris/rpc"
	"github.com/wfunc/kolortris/server"
)

func main() {
	configPath := pflag.StringP("config", "c", ".", "directory holding config.yaml")
	pflag.Parse()

	// Initialize logger
	if err := logger.Init("info"); err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Init(cfg.Log.Level); err != nil {
		logger.Log.Fatalf("Invalid log level %q: %v", cfg.Log.Level, err)
	}

	mon := monitor.NewMonitor(cfg.Monitor.Namespace)
	mon.StartServer(cfg.Monitor.Address)
	defer mon.Stop()

	m := match.New(uuid.NewString(), match.Config{
		MaxPlayers:       cfg.Server.MaxPlayers,
		GarbageMilestone: cfg.Game.GarbageMilestone,
		Playfield: playfield.Config{
			TickInterval:   cfg.Game.TickInterval,
			GravityTicks:   cfg.Game.GravityTicks,
			LockDelayTicks: cfg.Game.LockDelayTicks,
		},
		Duration:  cfg.Game.MatchDuration,
		AutoStart: cfg.Game.AutoStart,
		Debug:     cfg.Game.Debug,
		Simulate:  cfg.Game.Authority == config.AuthorityHost,
	})
	defer m.Close()

	rpcServer, err := rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	if err := rpcServer.Register(rpc.NewMatchService(m)); err != nil {
		logger.Log.Fatalf("Failed to register RPC service: %v", err)
	}
	go rpcServer.Start()
	defer rpcServer.Stop()

	gameServer := server.NewGameServer(server.Config{
		TCPAddress:    cfg.Server.TCPAddress,
		HTTPAddress:   cfg.Server.HTTPAddress,
		ReadTimeout:   cfg.Server.ReadTimeout,
		RoundInterval: cfg.Game.RoundInterval,
		CommandRate:   cfg.Server.CommandRate,
		CommandBurst:  cfg.Server.CommandBurst,
		Authority:     cfg.Game.Authority,
	}, m, mon)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := gameServer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Warnf("Shutdown: %v", err)
		}
	}()

	logger.Log.Infof("Starting match %s (%s authority)", m.ID, cfg.Game.Authority)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
