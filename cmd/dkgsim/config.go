package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/taurusgroup/paillier-dkg/pkg/params"
)

const envPrefix = "DKG"

// Config is the configuration of a simulated execution.
type Config struct {
	Parties   int
	Threshold int
	Bits      int
	Kappa     int64
	// Seed makes the execution reproducible when not empty.
	Seed     string
	LogLevel zerolog.Level
	// Out is the directory the keys are written to, nothing is written when empty.
	Out string
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("dkgsim", pflag.ContinueOnError)
	flags.IntP("parties", "n", 3, "number of parties")
	flags.IntP("threshold", "t", 1, "maximum number of corrupted parties, 2t < n")
	flags.IntP("bits", "k", 64, "bit length of the factor shares")
	flags.Int64("kappa", params.DefaultKappa, "statistical hiding bound of the key derivation")
	flags.String("seed", "", "seed for a reproducible execution")
	flags.String("log-level", "info", "log level")
	flags.String("out", "", "directory where the key shares are written")
	flags.StringP("config", "c", "", "configuration file")
	return flags
}

// loadConfig reads the configuration from, by decreasing priority, the command line flags,
// DKG_* environment variables and the configuration file.
func loadConfig(args []string) (*Config, error) {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	level, err := zerolog.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := &Config{
		Parties:   v.GetInt("parties"),
		Threshold: v.GetInt("threshold"),
		Bits:      v.GetInt("bits"),
		Kappa:     v.GetInt64("kappa"),
		Seed:      v.GetString("seed"),
		LogLevel:  level,
		Out:       v.GetString("out"),
	}
	return cfg, nil
}
