// Package config loads Beadnet options from YAML or JSON files.
//
// Every field has a default; a file only needs to list what it changes.
// Besides the color scheme, the bead timing and the presentation steps,
// options are carried through untouched for the render adapters.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/aretw0/beadnet/pkg/script"
	"gopkg.in/yaml.v3"
)

// Options is the full set of Beadnet options.
type Options struct {
	Container    ContainerOptions    `yaml:"container" json:"container"`
	ColorScheme  string              `yaml:"colorScheme" json:"colorScheme"`
	Colors       []string            `yaml:"colors,omitempty" json:"colors,omitempty"`
	Nodes        NodeOptions         `yaml:"nodes" json:"nodes"`
	Channels     ChannelOptions      `yaml:"channels" json:"channels"`
	Beads        BeadOptions         `yaml:"beads" json:"beads"`
	Presentation PresentationOptions `yaml:"presentation,omitempty" json:"presentation,omitempty"`
}

type ContainerOptions struct {
	Selector        string `yaml:"selector" json:"selector"`
	BackgroundColor string `yaml:"backgroundColor" json:"backgroundColor"`
}

type NodeOptions struct {
	Radius      int    `yaml:"radius" json:"radius"`
	StrokeWidth int    `yaml:"strokeWidth" json:"strokeWidth"`
	StrokeColor string `yaml:"strokeColor" json:"strokeColor"`
}

type ChannelOptions struct {
	StrokeWidth      int    `yaml:"strokeWidth" json:"strokeWidth"`
	Color            string `yaml:"color" json:"color"`
	ColorHighlighted string `yaml:"colorHighlighted" json:"colorHighlighted"`
	ShowBalance      bool   `yaml:"showBalance" json:"showBalance"`
}

// BeadOptions holds bead geometry and the transfer schedule.
type BeadOptions struct {
	Radius        int    `yaml:"radius" json:"radius"`
	Spacing       int    `yaml:"spacing" json:"spacing"`
	Distance      int    `yaml:"distance" json:"distance"`
	FirstPosition int    `yaml:"firstPosition" json:"firstPosition"`
	StrokeWidth   int    `yaml:"strokeWidth" json:"strokeWidth"`
	Color         string `yaml:"color" json:"color"`
	StrokeColor   string `yaml:"strokeColor" json:"strokeColor"`
	ShowIndex     bool   `yaml:"showIndex" json:"showIndex"`
	// Duration is the travel time of the first bead of a transfer.
	// Files must spell it as a duration string ("1s", "250ms"); bare numbers
	// are rejected.
	Duration time.Duration `yaml:"duration" json:"duration"`
	// Stagger delays each following bead. Same format as Duration.
	Stagger time.Duration `yaml:"stagger" json:"stagger"`
}

type PresentationOptions struct {
	Steps []script.RawStep `yaml:"steps" json:"steps"`
}

// SchemeCategory20 is the default color scheme name.
const SchemeCategory20 = "category20"

// SchemeCustom uses the Colors list.
const SchemeCustom = "custom"

// Default returns the options used when nothing is configured.
func Default() Options {
	return Options{
		Container: ContainerOptions{
			Selector:        "#beadnet",
			BackgroundColor: "#fff",
		},
		ColorScheme: SchemeCategory20,
		Nodes: NodeOptions{
			Radius:      25,
			StrokeWidth: 2,
			StrokeColor: "#000",
		},
		Channels: ChannelOptions{
			StrokeWidth:      3,
			Color:            "#aaa",
			ColorHighlighted: "#f00",
			ShowBalance:      true,
		},
		Beads: BeadOptions{
			Radius:        10,
			Spacing:       1,
			Distance:      10,
			FirstPosition: 40,
			StrokeWidth:   2,
			Color:         "#fff",
			StrokeColor:   "#000",
			Duration:      time.Second,
			Stagger:       100 * time.Millisecond,
		},
	}
}

// Load reads an options file and merges it over the defaults.
// JSON files are accepted as well since JSON is valid YAML.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read config: %w", err)
	}
	opts, err := Parse(data)
	if err != nil {
		return Options{}, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}

// Parse decodes options from YAML or JSON and merges them over the defaults.
func Parse(data []byte) (Options, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Options{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := checkDurations(&doc); err != nil {
		return Options{}, err
	}

	opts := Default()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// checkDurations rejects bead timings written as bare numbers. yaml.v3 would
// read them as nanoseconds, which is never what a JSON "duration": 1000 means.
func checkDurations(doc *yaml.Node) error {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	beads := mappingValue(doc.Content[0], "beads")
	if beads == nil {
		return nil
	}
	var errs []error
	for _, key := range []string{"duration", "stagger"} {
		v := mappingValue(beads, key)
		if v == nil || v.Kind != yaml.ScalarNode {
			continue
		}
		if v.Tag == "!!int" || v.Tag == "!!float" {
			errs = append(errs, fmt.Errorf("beads.%s %s: use a duration string such as \"1s\" or \"100ms\": %w",
				key, v.Value, domain.ErrInvalidArgument))
		}
	}
	return errors.Join(errs...)
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// Validate checks the options the core relies on.
func (o Options) Validate() error {
	var errs []error
	if _, err := o.Palette(); err != nil {
		errs = append(errs, err)
	}
	if o.Beads.Duration < 0 {
		errs = append(errs, fmt.Errorf("beads.duration %s: %w", o.Beads.Duration, domain.ErrInvalidArgument))
	}
	if o.Beads.Stagger < 0 {
		errs = append(errs, fmt.Errorf("beads.stagger %s: %w", o.Beads.Stagger, domain.ErrInvalidArgument))
	}
	return errors.Join(errs...)
}

// Palette resolves the configured color scheme.
func (o Options) Palette() (domain.ColorScheme, error) {
	switch strings.ToLower(o.ColorScheme) {
	case "", SchemeCategory20:
		return domain.PaletteScheme(domain.Category20), nil
	case SchemeCustom:
		if len(o.Colors) == 0 {
			return nil, fmt.Errorf("color scheme %q needs a colors list: %w", o.ColorScheme, domain.ErrInvalidArgument)
		}
		return domain.PaletteScheme(o.Colors), nil
	default:
		return nil, fmt.Errorf("unknown color scheme %q: %w", o.ColorScheme, domain.ErrInvalidArgument)
	}
}

// HasPresentation reports whether the options carry presentation steps.
func (o Options) HasPresentation() bool {
	return len(o.Presentation.Steps) > 0
}
