package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProcess(t *testing.T) {
	// Default config
	defaults, err := Process([]string{})
	require.NoError(t, err)
	require.Equal(t, 20, defaults.Game.TickRate)
	require.Equal(t, 1337, defaults.Ingress.Port)

	dir := t.TempDir()

	// yaml config
	{
		yaml := filepath.Join(dir, "config.yaml")
		err = os.WriteFile(yaml, []byte(`
ingress:
  port: 1234
`), 0644)
		require.NoError(t, err)
		config, err := Process([]string{yaml})
		require.NoError(t, err)
		require.Equal(t, 1234, config.Ingress.Port)
		// Untouched sections keep their defaults.
		require.Equal(t, 20, config.Game.TickRate)
	}

	// json config
	{
		json := filepath.Join(dir, "config.json")
		err = os.WriteFile(json, []byte(`{
  "ingress": {
    "port": 1235
  }
}`), 0644)
		require.NoError(t, err)
		config, err := Process([]string{json})
		require.NoError(t, err)
		require.Equal(t, 1235, config.Ingress.Port)
	}

	// multiple yaml, later files win
	{
		yaml1 := filepath.Join(dir, "config1.yaml")
		err = os.WriteFile(yaml1, []byte(`
ingress:
  port: 1234
game:
  tickRate: 30
`), 0644)
		require.NoError(t, err)

		yaml2 := filepath.Join(dir, "config2.yaml")
		err = os.WriteFile(yaml2, []byte(`
ingress:
  port: 4321
`), 0644)
		require.NoError(t, err)
		config, err := Process([]string{yaml1, yaml2})
		require.NoError(t, err)
		require.Equal(t, 4321, config.Ingress.Port)
		require.Equal(t, 30, config.Game.TickRate)
	}

	// Missing file
	_, err = Process([]string{filepath.Join(dir, "missing.yaml")})
	require.Error(t, err)
}

func TestOptions(t *testing.T) {
	config, err := Process([]string{})
	require.NoError(t, err)

	options := config.Game.Options()
	require.Equal(t, 50*time.Millisecond, options.TickInterval)
	require.Equal(t, uint64(100), options.FullSyncEvery)
	require.Equal(t, 3*time.Second, options.Arena.RespawnDelay)
	require.Equal(t, 2500*time.Millisecond, options.Combat.RespawnDelay)
	require.Equal(t, 99*time.Second, options.Combat.RoundTime)

	// A partial config only overrides what it names.
	settings := GameSettings{TickRate: 10}
	options = settings.Options()
	require.Equal(t, 100*time.Millisecond, options.TickInterval)
	require.Equal(t, 16, options.MaxPlayers)
}
