package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nspcc-dev/avail-go/pkg/config/netmode"
	"github.com/stretchr/testify/require"
)

const configPath = "../../config"

func TestLoadShippedConfigs(t *testing.T) {
	for _, net := range []netmode.Network{netmode.MainNet, netmode.TuringNet, netmode.LocalNet} {
		t.Run(net.String(), func(t *testing.T) {
			cfg, err := Load(configPath, net)
			require.NoError(t, err)
			require.Equal(t, net, cfg.Network)
			require.NotEmpty(t, cfg.RPC.Endpoint)
			require.EqualValues(t, DefaultSS58Prefix, cfg.SS58Prefix)
		})
	}
	cfg, err := Load(configPath, netmode.TuringNet)
	require.NoError(t, err)
	require.True(t, cfg.RPC.Retry())
	require.True(t, cfg.RPC.IsWebSocket())
	require.Equal(t, []time.Duration{8 * time.Second, 5 * time.Second, 3 * time.Second, 2 * time.Second, time.Second}, cfg.RPC.Backoff)
	require.Equal(t, 10*time.Second, cfg.Waiter.PollInterval)

	cfg, err = Load(configPath, netmode.LocalNet)
	require.NoError(t, err)
	require.False(t, cfg.RPC.Retry())
	require.True(t, cfg.Prometheus.Enabled)

	_, err = Load(configPath, "unknown")
	require.Error(t, err)
}

func TestDecodeDefaults(t *testing.T) {
	cfg, err := Decode([]byte("RPC:\n  Endpoint: http://localhost:9944\n"))
	require.NoError(t, err)
	require.EqualValues(t, DefaultMortality, cfg.Transactions.Mortality)
	require.Equal(t, WaitForInclusion, cfg.Waiter.WaitFor)
	require.EqualValues(t, DefaultSS58Prefix, cfg.SS58Prefix)
	require.True(t, cfg.RPC.Retry())
	require.False(t, cfg.RPC.IsWebSocket())
	require.Empty(t, cfg.Journal.FilePath)
}

func TestDecodeErrors(t *testing.T) {
	for name, data := range map[string]string{
		"unknown field":   "Unknown: 1\n",
		"unknown network": "Network: privnet\n",
		"bad scheme":      "RPC:\n  Endpoint: tcp://localhost:9944\n",
		"bad backoff":     "RPC:\n  Backoff: [1s, 0s]\n",
		"bad prefix":      "SS58Prefix: 20000\n",
		"short mortality": "Transactions:\n  Mortality: 2\n",
		"long mortality":  "Transactions:\n  Mortality: 100000\n",
		"bad wait":        "Waiter:\n  WaitFor: forever\n",
		"bad retry count": "Waiter:\n  RetryCount: -1\n",
		"bad duration":    "Waiter:\n  PollInterval: often\n",
		"prometheus":      "Prometheus:\n  Enabled: true\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(data))
			require.Error(t, err)
		})
	}

	cfg, err := Decode([]byte("Transactions:\n  Mortality: 2\n  Immortal: true\n"))
	require.NoError(t, err)
	require.True(t, cfg.Transactions.Immortal)
}

func TestLoadFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "cfg.yml")
	require.NoError(t, os.WriteFile(path, []byte("Network: local\nJournal:\n  FilePath: /tmp/j.db\n"), 0o600))
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, netmode.LocalNet, cfg.Network)
	require.Equal(t, "/tmp/j.db", cfg.Journal.FilePath)
}
