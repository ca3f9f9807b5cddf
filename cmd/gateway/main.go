// Command gateway runs the shadow auction gateway.
//
// The gateway seals bids and reserve prices for open auctions, submits
// settlement computations to the ledger, and exposes settlement attempts as
// pollable HTTP resources.
//
// # Configuration File
//
// Create a YAML file with gateway settings:
//
//	http_addr: ":8080"
//	metrics_addr: ":9090"
//	log_json: true
//	rpc:
//	  endpoint: "http://localhost:8899"
//	  timeout: 30s
//	protocol:
//	  program_address: "<hex program address>"
//	  cluster_address: "<hex cluster account>"
//	  poll_interval: 2s
//	  max_poll_attempts: 60
//	  settle_timeout: 300s
//
// # Usage
//
//	go run ./cmd/gateway --config=gateway.yaml
//	go run ./cmd/gateway --rpc=http://localhost:8899 --cluster=<hex address>
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shadowlabs-sol/shadow/api/httpserver"
	"github.com/shadowlabs-sol/shadow/chain"
	"github.com/shadowlabs-sol/shadow/cmd/common"
	"github.com/shadowlabs-sol/shadow/services"
	"github.com/shadowlabs-sol/shadow/settlement"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		addr        = flag.String("addr", "", "HTTP listen address")
		metricsAddr = flag.String("metrics-addr", "", "Metrics listen address")
		rpcEndpoint = flag.String("rpc", "", "Ledger node RPC endpoint")
		clusterAddr = flag.String("cluster", "", "Hex address of the MPC cluster account")
		programAddr = flag.String("program", "", "Hex address of the settlement program")
		enablePprof = flag.Bool("pprof", false, "Enable the pprof debugging API")
		logJSON     = flag.Bool("log-json", false, "Log in JSON format")
		logDebug    = flag.Bool("log-debug", false, "Log at debug level")
	)
	flag.Parse()

	cfg, err := loadConfiguration(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *rpcEndpoint != "" {
		cfg.RPC.Endpoint = *rpcEndpoint
	}
	if *clusterAddr != "" {
		cfg.Protocol.ClusterAddress = *clusterAddr
	}
	if *programAddr != "" {
		cfg.Protocol.ProgramAddress = *programAddr
	}
	if *enablePprof {
		cfg.EnablePprof = true
	}
	if *logJSON {
		cfg.LogJSON = true
	}
	if *logDebug {
		cfg.LogDebug = true
	}

	if err := run(cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfiguration(configPath string) (*common.Config, error) {
	if configPath != "" {
		return common.LoadConfig(configPath)
	}
	return common.DefaultConfig(), nil
}

func run(cfg *common.Config) error {
	log := common.NewLogger(cfg)

	if cfg.RPC.Endpoint == "" {
		return fmt.Errorf("ledger RPC endpoint is required (--rpc or rpc.endpoint)")
	}
	if cfg.Protocol.ClusterAddress == "" {
		return fmt.Errorf("cluster account address is required (--cluster or protocol.cluster_address)")
	}

	ledger, err := chain.NewRPCClient(&chain.RPCClientConfig{
		Endpoint: cfg.RPC.Endpoint,
		Timeout:  cfg.RPC.Timeout,
		Log:      log.With("component", "rpc"),
	})
	if err != nil {
		return err
	}

	settler, err := settlement.NewService(&settlement.ServiceConfig{
		Protocol: cfg.Protocol,
		Ledger:   ledger,
		Log:      log.With("component", "settlement"),
	})
	if err != nil {
		return err
	}

	gateway, err := services.NewGateway(&services.GatewayConfig{
		Protocol: cfg.Protocol,
		Settler:  settler,
		Log:      log.With("component", "gateway"),
	})
	if err != nil {
		return err
	}

	srv, err := httpserver.New(&httpserver.HTTPServerConfig{
		ListenAddr:               cfg.HTTPAddr,
		MetricsAddr:              cfg.MetricsAddr,
		EnablePprof:              cfg.EnablePprof,
		Log:                      log.With("component", "httpserver"),
		DrainDuration:            10 * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              15 * time.Second,
		WriteTimeout:             15 * time.Second,
	}, gateway)
	if err != nil {
		return err
	}

	srv.RunInBackground()
	log.Info("Gateway started", "addr", cfg.HTTPAddr, "cluster", cfg.Protocol.ClusterAddress)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down gateway")
	srv.Shutdown()
	return nil
}
