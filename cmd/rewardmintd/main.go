package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rewardmint/config"
	"rewardmint/core"
	"rewardmint/native/entitlement"
	"rewardmint/observability/logging"
	"rewardmint/rpc"
	"rewardmint/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("REWARDMINT_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup("rewardmintd", env, cfg.LogFile)

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		logger.Error("failed to open state database", "dataDir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	node, err := core.NewNode(db, cfg.Owner(), logger)
	if err != nil {
		logger.Error("failed to initialise node", "error", err)
		os.Exit(1)
	}

	// Seed the genesis operator set. Re-adding on restart is expected and
	// tolerated.
	owner := cfg.Owner()
	for _, operator := range cfg.OperatorAddresses() {
		if err := node.AddAuthorizedUser(owner, operator); err != nil {
			if errors.Is(err, entitlement.ErrOperatorExists) {
				continue
			}
			logger.Error("failed to seed operator", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("starting rewardmint daemon",
		"network", cfg.NetworkName,
		"rpc", cfg.RPCAddress,
		"height", node.Height(),
	)

	server := rpc.NewServer(node)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server stopped", "error", err)
		os.Exit(1)
	}
}
