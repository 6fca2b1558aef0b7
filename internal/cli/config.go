package cli

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/clemens865/phago/pkg/colony"
	"github.com/clemens865/phago/pkg/hybrid"
	"github.com/clemens865/phago/pkg/rag"
)

// Config holds all phago configuration as one flat yaml document.
type Config struct {
	Seed          int64   `yaml:"seed"`
	PopulationCap int     `yaml:"population_cap"`
	SpawnInterval uint64  `yaml:"spawn_interval"`
	MutationSigma float64 `yaml:"mutation_sigma"`
	Workers       int     `yaml:"workers"`

	SignalDecayRate float64 `yaml:"signal_decay_rate"`
	TraceDecayRate  float64 `yaml:"trace_decay_rate"`

	EdgeDecayRate      float64 `yaml:"edge_decay_rate"`
	EdgePruneThreshold float64 `yaml:"edge_prune_threshold"`
	EdgeStalenessLimit uint64  `yaml:"edge_staleness_limit"`
	StalenessFactor    float64 `yaml:"staleness_factor"`
	MaturationTicks    uint64  `yaml:"maturation_ticks"`
	MaxEdgeDegree      int     `yaml:"max_edge_degree"`

	Alpha               float64 `yaml:"alpha"`
	MaxResults          int     `yaml:"max_results"`
	CandidateMultiplier int     `yaml:"candidate_multiplier"`

	ChunkSize        int    `yaml:"chunk_size"`
	ChunkOverlap     int    `yaml:"chunk_overlap"`
	TicksPerDocument uint64 `yaml:"ticks_per_document"`

	StorageKind string `yaml:"storage_kind"`
	StoragePath string `yaml:"storage_path"`

	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	co := colony.DefaultOptions()
	hc := hybrid.DefaultConfig()
	io := rag.DefaultIngestOptions()
	return Config{
		Seed:                co.Seed,
		PopulationCap:       co.PopulationCap,
		SpawnInterval:       co.SpawnInterval,
		MutationSigma:       co.MutationSigma,
		SignalDecayRate:     co.SignalDecayRate,
		TraceDecayRate:      co.TraceDecayRate,
		EdgeDecayRate:       co.EdgeDecayRate,
		EdgePruneThreshold:  co.EdgePruneThreshold,
		EdgeStalenessLimit:  co.EdgeStalenessLimit,
		StalenessFactor:     co.StalenessFactor,
		MaturationTicks:     co.MaturationTicks,
		MaxEdgeDegree:       co.MaxEdgeDegree,
		Alpha:               hc.Alpha,
		MaxResults:          hc.MaxResults,
		CandidateMultiplier: hc.CandidateMultiplier,
		ChunkSize:           io.ChunkSize,
		ChunkOverlap:        io.ChunkOverlap,
		TicksPerDocument:    io.TicksPerDocument,
		StorageKind:         "file",
		StoragePath:         "phago.snapshot",
		LogLevel:            "info",
	}
}

// Load returns the defaults overridden by the yaml file at path.
// An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ColonyOptions maps the config onto colony options.
func (c Config) ColonyOptions(logger *slog.Logger) colony.Options {
	opts := colony.DefaultOptions()
	opts.Seed = c.Seed
	opts.PopulationCap = c.PopulationCap
	opts.SpawnInterval = c.SpawnInterval
	opts.MutationSigma = c.MutationSigma
	opts.Workers = c.Workers
	opts.SignalDecayRate = c.SignalDecayRate
	opts.TraceDecayRate = c.TraceDecayRate
	opts.EdgeDecayRate = c.EdgeDecayRate
	opts.EdgePruneThreshold = c.EdgePruneThreshold
	opts.EdgeStalenessLimit = c.EdgeStalenessLimit
	opts.StalenessFactor = c.StalenessFactor
	opts.MaturationTicks = c.MaturationTicks
	opts.MaxEdgeDegree = c.MaxEdgeDegree
	opts.Logger = logger
	return opts
}

// HybridConfig maps the config onto query defaults.
func (c Config) HybridConfig() hybrid.Config {
	return hybrid.Config{
		Alpha:               c.Alpha,
		MaxResults:          c.MaxResults,
		CandidateMultiplier: c.CandidateMultiplier,
	}
}

// IngestOptions maps the config onto ingestion settings.
func (c Config) IngestOptions() rag.IngestOptions {
	return rag.IngestOptions{
		ChunkSize:        c.ChunkSize,
		ChunkOverlap:     c.ChunkOverlap,
		TicksPerDocument: c.TicksPerDocument,
	}
}

// NewLogger builds the process logger at the configured level.
func (c Config) NewLogger() *slog.Logger {
	var level slog.Level
	switch c.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	// MCP owns stdout; logs go to stderr
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
