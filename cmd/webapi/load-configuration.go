package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/conf"
	"gopkg.in/yaml.v2"
)

// Configuration gathers every tunable; flags and environment variables override the
// defaults below, and the optional YAML file has the last word for the fields it sets.
type Configuration struct {
	conf.Version
	Config struct {
		Path string `conf:"default:/conf/config.yml"`
	}
	Web struct {
		APIHost         string        `conf:"default:0.0.0.0:3000"`
		ReadTimeout     time.Duration `conf:"default:5s"`
		WriteTimeout    time.Duration `conf:"default:5s"`
		ShutdownTimeout time.Duration `conf:"default:5s"`
	}
	Debug bool
	DB    struct {
		Filename string `conf:"default:./station.db"`
	}
}

// loadConfiguration parses flags and the environment, then overlays the YAML file
// when one exists at the configured path.
func loadConfiguration() (Configuration, error) {
	var cfg Configuration
	cfg.Version.SVN = "0.1.0"
	cfg.Version.Desc = "station database API"

	if err := conf.Parse(os.Args[1:], "STATIONDB", &cfg); err != nil {
		switch {
		case errors.Is(err, conf.ErrHelpWanted):
			usage, usageErr := conf.Usage("STATIONDB", &cfg)
			if usageErr != nil {
				return cfg, fmt.Errorf("generating config usage: %w", usageErr)
			}
			fmt.Println(usage)
			return cfg, conf.ErrHelpWanted
		case errors.Is(err, conf.ErrVersionWanted):
			version, versionErr := conf.VersionString("STATIONDB", &cfg)
			if versionErr != nil {
				return cfg, fmt.Errorf("generating config version: %w", versionErr)
			}
			fmt.Println(version)
			return cfg, conf.ErrHelpWanted
		}
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	// the YAML file is optional; its absence isn't an error
	file, err := os.Open(cfg.Config.Path)
	if err != nil {
		return cfg, nil
	}
	defer file.Close()

	if err = yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %q: %w", cfg.Config.Path, err)
	}
	return cfg, nil
}
