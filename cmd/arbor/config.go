package main

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/arbor"
	"github.com/hupe1980/arbor/frontier"
	"github.com/hupe1980/arbor/resource"
	"github.com/hupe1980/arbor/sample"
)

// trainConfig is the YAML form of the training parameters. Zero values
// keep the library defaults.
type trainConfig struct {
	Trees      int      `yaml:"trees"`
	Seed       int64    `yaml:"seed"`
	MinNode    int      `yaml:"min_node"`
	MaxDepth   int      `yaml:"max_depth"`
	Plurality  *float64 `yaml:"plurality"`
	Efficiency *float64 `yaml:"efficiency"`
	PathWindow int      `yaml:"path_window"`
	PredFixed  int      `yaml:"pred_fixed"`
	IndexMode  string   `yaml:"index_mode"`
	TrackRuns  bool     `yaml:"track_runs"`
	Workers    int      `yaml:"workers"`
	MinGain    float64  `yaml:"min_gain"`

	Sample struct {
		Count   int   `yaml:"count"`
		Replace *bool `yaml:"replace"`
	} `yaml:"sample"`

	Resources struct {
		MaxTrees       int64   `yaml:"max_trees"`
		MemoryLimit    int64   `yaml:"memory_limit_bytes"`
		IOLimit        int64   `yaml:"io_limit_bytes_per_sec"`
		ProgressPerSec float64 `yaml:"progress_per_sec"`
	} `yaml:"resources"`
}

func defaultTrainConfig() trainConfig {
	c := trainConfig{Trees: 1}
	c.Resources.MaxTrees = 1
	c.Resources.ProgressPerSec = 2
	return c
}

// loadTrainConfig reads path over the defaults. Unknown keys are errors.
func loadTrainConfig(path string) (trainConfig, error) {
	cfg := defaultTrainConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *trainConfig) controller() *resource.Controller {
	return resource.NewController(resource.Config{
		MaxWorkers:         c.Resources.MaxTrees,
		MemoryLimitBytes:   c.Resources.MemoryLimit,
		IOLimitBytesPerSec: c.Resources.IOLimit,
		EventsPerSec:       c.Resources.ProgressPerSec,
	})
}

// options translates the config into trainer options.
func (c *trainConfig) options() ([]arbor.Option, error) {
	opts := []arbor.Option{
		arbor.WithSeed(c.Seed),
		arbor.WithMaxDepth(c.MaxDepth),
		arbor.WithTrackRuns(c.TrackRuns),
		arbor.WithPredFixed(c.PredFixed),
		arbor.WithMinGain(c.MinGain),
	}
	if c.MinNode != 0 {
		opts = append(opts, arbor.WithMinNode(c.MinNode))
	}
	if c.Plurality != nil {
		opts = append(opts, arbor.WithPlurality(*c.Plurality))
	}
	if c.Efficiency != nil {
		opts = append(opts, arbor.WithEfficiency(*c.Efficiency))
	}
	if c.PathWindow != 0 {
		opts = append(opts, arbor.WithPathWindow(c.PathWindow))
	}
	if c.Workers != 0 {
		opts = append(opts, arbor.WithWorkers(c.Workers))
	}

	mode, err := frontier.ParseIndexMode(c.IndexMode)
	if err != nil {
		return nil, err
	}
	opts = append(opts, arbor.WithIndexMode(mode))

	replace := c.Sample.Replace == nil || *c.Sample.Replace
	opts = append(opts, arbor.WithSampler(sample.Bootstrap{NSamp: c.Sample.Count, Replace: replace}))
	return opts, nil
}
