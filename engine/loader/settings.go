package loader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Carmen-Shannon/stride-go/engine/motion"
	"github.com/Carmen-Shannon/stride-go/engine/track"
	"gopkg.in/yaml.v2"
)

// ErrInvalidConfig is returned when an extraction settings document cannot be
// parsed or names an unknown reference frame.
var ErrInvalidConfig = errors.New("loader: invalid extraction config")

// ChannelConfig is the YAML form of one extraction channel's settings.
type ChannelConfig struct {
	X         bool   `yaml:"x"`
	Y         bool   `yaml:"y"`
	Z         bool   `yaml:"z"`
	Reference string `yaml:"reference"`
	Bake      bool   `yaml:"bake"`
	Loop      bool   `yaml:"loop"`
}

// ExtractionConfig is the YAML form of a full extraction setup, pairing the
// per-channel settings with the root joint and the optimizer tolerance applied
// to the extracted curves.
type ExtractionConfig struct {
	RootJoint int           `yaml:"root_joint"`
	Position  ChannelConfig `yaml:"position"`
	Rotation  ChannelConfig `yaml:"rotation"`
	Tolerance float32       `yaml:"tolerance"`
}

// DefaultExtractionConfig returns the config matching the extractor defaults.
//
// Returns:
//   - ExtractionConfig: the default configuration
func DefaultExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		Position:  channelConfig(motion.DefaultPositionSettings()),
		Rotation:  channelConfig(motion.DefaultRotationSettings()),
		Tolerance: track.DefaultOptimizerTolerance,
	}
}

// Extractor converts the config into a motion extractor and curve optimizer.
//
// Returns:
//   - *motion.Extractor: the configured extractor
//   - track.Optimizer: the curve optimizer with the configured tolerance
//   - error: ErrInvalidConfig (wrapped) for unknown reference frame names
func (c *ExtractionConfig) Extractor() (*motion.Extractor, track.Optimizer, error) {
	pos, err := c.Position.settings()
	if err != nil {
		return nil, track.Optimizer{}, fmt.Errorf("position: %w", err)
	}
	rot, err := c.Rotation.settings()
	if err != nil {
		return nil, track.Optimizer{}, fmt.Errorf("rotation: %w", err)
	}
	return &motion.Extractor{
		RootJoint:        c.RootJoint,
		PositionSettings: pos,
		RotationSettings: rot,
	}, track.Optimizer{Tolerance: c.Tolerance}, nil
}

func (c *ChannelConfig) settings() (motion.ExtractionSettings, error) {
	s := motion.ExtractionSettings{X: c.X, Y: c.Y, Z: c.Z, Bake: c.Bake, Loop: c.Loop}
	switch c.Reference {
	case "", "identity":
		s.Reference = motion.ReferenceIdentity
	case "skeleton":
		s.Reference = motion.ReferenceSkeleton
	case "animation":
		s.Reference = motion.ReferenceAnimation
	default:
		return s, fmt.Errorf("%w: unknown reference frame %q", ErrInvalidConfig, c.Reference)
	}
	return s, nil
}

func channelConfig(s motion.ExtractionSettings) ChannelConfig {
	c := ChannelConfig{X: s.X, Y: s.Y, Z: s.Z, Bake: s.Bake, Loop: s.Loop}
	switch s.Reference {
	case motion.ReferenceSkeleton:
		c.Reference = "skeleton"
	case motion.ReferenceAnimation:
		c.Reference = "animation"
	default:
		c.Reference = "identity"
	}
	return c
}

// LoadExtractionConfigReader parses an extraction settings document.
//
// Parameters:
//   - r: the source reader providing YAML data
//
// Returns:
//   - ExtractionConfig: the parsed configuration
//   - error: ErrInvalidConfig (wrapped) when the document cannot be parsed
func LoadExtractionConfigReader(r io.Reader) (ExtractionConfig, error) {
	var c ExtractionConfig
	data, err := io.ReadAll(r)
	if err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return c, nil
}

// LoadExtractionConfig parses an extraction settings file.
//
// Parameters:
//   - path: the YAML file path
//
// Returns:
//   - ExtractionConfig: the parsed configuration
//   - error: file or parse errors
func LoadExtractionConfig(path string) (ExtractionConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return ExtractionConfig{}, fmt.Errorf("loader: %w", err)
	}
	defer f.Close()
	return LoadExtractionConfigReader(f)
}

// SaveExtractionConfig writes an extraction settings document.
//
// Parameters:
//   - w: the destination writer
//   - c: the configuration to serialize
//
// Returns:
//   - error: marshal or write errors
func SaveExtractionConfig(w io.Writer, c ExtractionConfig) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("loader: %w", err)
	}
	_, err = w.Write(data)
	return err
}
