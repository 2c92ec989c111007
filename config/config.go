package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug          = "debug"
	ConfigBenchDepth     = "bench-depth"
	ConfigBenchThreads   = "bench-threads"
	ConfigBenchSeed      = "bench-seed"
	ConfigProbeThreshold = "probe-threshold"
	ConfigQSearchMaxPly  = "qsearch-max-ply"
	ConfigHashFraction   = "hash-fraction"
	ConfigCPUProfile     = "cpu-profile"
	ConfigMemProfile     = "mem-profile"
	ConfigFile           = "config-file"
)

// Config is the viper-backed configuration. Values come, in increasing
// priority, from the defaults, an optional YAML file, MOVEPICKER_*
// environment variables and command-line flags.
type Config struct {
	*viper.Viper
	args []string
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigBenchDepth, 4)
	c.SetDefault(ConfigBenchThreads, runtime.NumCPU())
	c.SetDefault(ConfigBenchSeed, 0)
	c.SetDefault(ConfigProbeThreshold, 200)
	c.SetDefault(ConfigQSearchMaxPly, 2)
	c.SetDefault(ConfigHashFraction, 0.01)
	c.SetDefault(ConfigCPUProfile, "")
	c.SetDefault(ConfigMemProfile, "")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("movepicker")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// DefaultConfig returns a config holding only the defaults and whatever
// the environment overrides.
func DefaultConfig() *Config {
	c := &Config{Viper: newViper()}
	c.setDefaults()
	return c
}

// Load parses flags from args. Parsing stops at the first argument that
// is not a flag; it and everything after it are kept in Args.
func (c *Config) Load(args []string) error {
	c.Viper = newViper()
	c.setDefaults()

	fs := pflag.NewFlagSet("movepicker", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.Int(ConfigBenchDepth, 4, "perft depth of the bench command")
	fs.Int(ConfigBenchThreads, runtime.NumCPU(), "bench worker goroutines")
	fs.Uint64(ConfigBenchSeed, 0, "seed for random starting histories; 0 starts them empty")
	fs.Int(ConfigProbeThreshold, 200, "static exchange threshold of probe pickers")
	fs.Int(ConfigQSearchMaxPly, 2, "quiescence plies enumerated below each perft leaf")
	fs.Float64(ConfigHashFraction, 0.01, "fraction of system memory for each hash move table")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	fs.String(ConfigMemProfile, "", "write a heap profile to this file on exit")
	fs.String(ConfigFile, "", "YAML file with configuration values")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	if f := c.GetString(ConfigFile); f != "" {
		c.SetConfigFile(f)
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", f, err)
		}
	}
	c.args = fs.Args()
	return nil
}

// Args returns the arguments left over after the flags.
func (c *Config) Args() []string {
	return c.args
}

// SanitizedSettings returns the settings that are okay to log.
func (c *Config) SanitizedSettings() map[string]any {
	s := c.AllSettings()
	delete(s, ConfigFile)
	return s
}
