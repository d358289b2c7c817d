package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

type Config struct {
	RPCAddress   string   `toml:"RPCAddress"`
	DataDir      string   `toml:"DataDir"`
	OwnerAddress string   `toml:"OwnerAddress"`
	Operators    []string `toml:"Operators"`
	NetworkName  string   `toml:"NetworkName"`
	LogFile      string   `toml:"LogFile"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./data"
	}
	if strings.TrimSpace(c.NetworkName) == "" {
		c.NetworkName = "rewardmint-local"
	}
	if c.Operators == nil {
		c.Operators = []string{}
	}
}

// Validate checks the address fields parse as hex addresses.
func (c *Config) Validate() error {
	owner := strings.TrimSpace(c.OwnerAddress)
	if owner == "" {
		return fmt.Errorf("config: OwnerAddress is required")
	}
	if !common.IsHexAddress(owner) {
		return fmt.Errorf("config: OwnerAddress %q is not a hex address", owner)
	}
	for _, operator := range c.Operators {
		if !common.IsHexAddress(strings.TrimSpace(operator)) {
			return fmt.Errorf("config: operator %q is not a hex address", operator)
		}
	}
	return nil
}

// Owner returns the parsed owner address.
func (c *Config) Owner() [20]byte {
	return common.HexToAddress(strings.TrimSpace(c.OwnerAddress))
}

// OperatorAddresses returns the parsed genesis operator set.
func (c *Config) OperatorAddresses() [][20]byte {
	out := make([][20]byte, 0, len(c.Operators))
	for _, operator := range c.Operators {
		out = append(out, common.HexToAddress(strings.TrimSpace(operator)))
	}
	return out
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	// The generated file still needs an OwnerAddress before the daemon will
	// start; surface that instead of returning a config that cannot pass
	// validation silently later.
	return cfg, fmt.Errorf("config: wrote default config to %s; set OwnerAddress and restart", path)
}
