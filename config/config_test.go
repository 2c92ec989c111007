package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.Equal(cfg.GetInt(ConfigBenchDepth), 4)
	is.Equal(cfg.GetInt(ConfigQSearchMaxPly), 2)
	is.True(!cfg.GetBool(ConfigDebug))
	is.True(cfg.GetInt(ConfigBenchThreads) > 0)
}

func TestLoadFlags(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	err := cfg.Load([]string{"--debug", "--bench-depth=6", "--probe-threshold", "-50", "bench", "--depth", "2"})
	is.NoErr(err)
	is.True(cfg.GetBool(ConfigDebug))
	is.Equal(cfg.GetInt(ConfigBenchDepth), 6)
	is.Equal(cfg.GetInt(ConfigProbeThreshold), -50)
	is.Equal(cfg.Args(), []string{"bench", "--depth", "2"})
}

func TestLoadBadFlag(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.True(cfg.Load([]string{"--bench-depth=deep"}) != nil)
}

func TestEnvironment(t *testing.T) {
	is := is.New(t)
	t.Setenv("MOVEPICKER_BENCH_THREADS", "3")
	cfg := &Config{}
	is.NoErr(cfg.Load(nil))
	is.Equal(cfg.GetInt(ConfigBenchThreads), 3)
}

func TestConfigFile(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "movepicker.yaml")
	is.NoErr(os.WriteFile(path, []byte("bench-seed: 17\nqsearch-max-ply: 0\n"), 0o644))
	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--config-file", path, "--qsearch-max-ply=1"}))
	is.Equal(cfg.GetUint64(ConfigBenchSeed), uint64(17))
	// Flags win over the file.
	is.Equal(cfg.GetInt(ConfigQSearchMaxPly), 1)
	_, logged := cfg.SanitizedSettings()[ConfigFile]
	is.True(!logged)
}
