package haw

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape for building a HawConf via Load,
// mirroring HyperCache's pkg/config.Load (defaults, then override from
// file, then Validate). It is a thin convenience over the in-process,
// functional-options HawConf construction path, which remains the primary
// way to build one.
type FileConfig struct {
	WatermarkMs          uint64 `yaml:"watermark_ms"`
	GenerateDeltas       bool   `yaml:"generate_deltas"`
	DeltaSegmentCapacity int    `yaml:"delta_segment_capacity"`
	DeltaSegmentRetain   int    `yaml:"delta_segment_retain"`
	WriteAheadCapacity   int    `yaml:"write_ahead_capacity"`

	Optimizer struct {
		UseHints      bool  `yaml:"use_hints"`
		SIMDThreshold int64 `yaml:"simd_threshold"`
	} `yaml:"optimizer"`
}

// Load reads a YAML file at path and merges it onto DefaultHawConf,
// returning the resulting HawConf.
func Load(path string) (HawConf, error) {
	conf := DefaultHawConf()

	b, err := os.ReadFile(path)
	if err != nil {
		return HawConf{}, fmt.Errorf("haw: reading config %q: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return HawConf{}, fmt.Errorf("haw: parsing config %q: %w", path, err)
	}

	if fc.WatermarkMs != 0 {
		conf.Watermark = fc.WatermarkMs
	}
	conf.GenerateDeltas = fc.GenerateDeltas
	if fc.DeltaSegmentCapacity > 0 {
		conf.DeltaSegmentCapacity = fc.DeltaSegmentCapacity
	}
	if fc.DeltaSegmentRetain > 0 {
		conf.DeltaSegmentRetain = fc.DeltaSegmentRetain
	}
	if fc.WriteAheadCapacity > 0 {
		conf.WriteAheadCapacity = fc.WriteAheadCapacity
	}
	conf.Optimizer.UseHints = fc.Optimizer.UseHints
	if fc.Optimizer.SIMDThreshold > 0 {
		conf.Optimizer.Heuristics.SIMDThreshold = fc.Optimizer.SIMDThreshold
	}

	if err := conf.Validate(); err != nil {
		return HawConf{}, err
	}
	return conf, nil
}

// Validate checks a HawConf for internally-inconsistent settings that
// would otherwise surface later as a confusing construction-time panic.
func (c HawConf) Validate() error {
	if c.WriteAheadCapacity <= 0 {
		return fmt.Errorf("haw: write_ahead_capacity must be positive")
	}
	if c.DeltaSegmentCapacity <= 0 {
		return fmt.Errorf("haw: delta_segment_capacity must be positive")
	}
	if c.DeltaSegmentRetain <= 0 {
		return fmt.Errorf("haw: delta_segment_retain must be positive")
	}
	return nil
}
