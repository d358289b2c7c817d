package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `OwnerAddress = "0x00000000000000000000000000000000000000aa"`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8645", cfg.RPCAddress)
	require.Equal(t, "./data", cfg.DataDir)
	require.Equal(t, "rewardmint-local", cfg.NetworkName)
	require.Empty(t, cfg.Operators)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
RPCAddress = "0.0.0.0:9000"
DataDir = "/var/lib/rewardmint"
OwnerAddress = "0x00000000000000000000000000000000000000aa"
Operators = ["0x00000000000000000000000000000000000000bb"]
NetworkName = "rewardmint-test"
LogFile = "/var/log/rewardmint.log"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9000", cfg.RPCAddress)
	require.Equal(t, "/var/lib/rewardmint", cfg.DataDir)
	require.Equal(t, "rewardmint-test", cfg.NetworkName)

	owner := cfg.Owner()
	require.Equal(t, byte(0xAA), owner[19])

	operators := cfg.OperatorAddresses()
	require.Len(t, operators, 1)
	require.Equal(t, byte(0xBB), operators[0][19])
}

func TestLoadRejectsMissingOwner(t *testing.T) {
	path := writeConfig(t, `RPCAddress = "127.0.0.1:8645"`)
	_, err := Load(path)
	require.ErrorContains(t, err, "OwnerAddress is required")
}

func TestLoadRejectsBadAddresses(t *testing.T) {
	_, err := Load(writeConfig(t, `OwnerAddress = "not-an-address"`))
	require.ErrorContains(t, err, "not a hex address")

	_, err = Load(writeConfig(t, `
OwnerAddress = "0x00000000000000000000000000000000000000aa"
Operators = ["bogus"]
`))
	require.ErrorContains(t, err, "not a hex address")
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	_, err := Load(path)
	require.ErrorContains(t, err, "set OwnerAddress and restart")
	require.FileExists(t, path)

	// The generated file is well-formed TOML missing only the owner.
	_, err = Load(path)
	require.ErrorContains(t, err, "OwnerAddress is required")
}
