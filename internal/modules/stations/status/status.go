// Package status classifies water temperature readings into a coarse
// safety level.
package status

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Level string

const (
	Normal   Level = "Normal"
	Moderate Level = "Moderate"
	Extreme  Level = "Extreme"
)

// Class is the badge class used when rendering a level.
func (l Level) Class() string {
	switch l {
	case Extreme:
		return "unsafe"
	case Moderate:
		return "moderate"
	default:
		return "safe"
	}
}

type Unit string

const (
	Celsius    Unit = "C"
	Fahrenheit Unit = "F"
)

// Policy holds the thresholds for one unit. A reading strictly below
// ExtremeBelow or strictly above ExtremeAbove is Extreme; otherwise strictly
// outside the Moderate bounds is Moderate; otherwise Normal.
type Policy struct {
	Unit          Unit    `yaml:"unit"`
	ExtremeBelow  float64 `yaml:"extreme_below"`
	ExtremeAbove  float64 `yaml:"extreme_above"`
	ModerateBelow float64 `yaml:"moderate_below"`
	ModerateAbove float64 `yaml:"moderate_above"`
}

// DetailPolicy is applied on the station details view (Fahrenheit).
var DetailPolicy = Policy{Unit: Fahrenheit, ExtremeBelow: 32, ExtremeAbove: 86, ModerateBelow: 41, ModerateAbove: 77}

// ListPolicy is applied to search result cards (Celsius).
var ListPolicy = Policy{Unit: Celsius, ExtremeBelow: 0, ExtremeAbove: 30, ModerateBelow: 5, ModerateAbove: 25}

func FahrenheitFromCelsius(c float64) float64 {
	return c*9/5 + 32
}

// Classify returns the level for a reading already expressed in p.Unit.
func (p Policy) Classify(v float64) Level {
	switch {
	case v < p.ExtremeBelow || v > p.ExtremeAbove:
		return Extreme
	case v < p.ModerateBelow || v > p.ModerateAbove:
		return Moderate
	default:
		return Normal
	}
}

// ClassifyCelsius converts a Celsius reading to p.Unit and classifies it.
// A nil reading is Normal.
func (p Policy) ClassifyCelsius(c *float64) Level {
	if c == nil {
		return Normal
	}
	v := *c
	if p.Unit == Fahrenheit {
		v = FahrenheitFromCelsius(v)
	}
	return p.Classify(v)
}

func (p Policy) validate() error {
	if p.Unit != Celsius && p.Unit != Fahrenheit {
		return fmt.Errorf("unit %q (allowed: C, F)", p.Unit)
	}
	if p.ExtremeBelow > p.ModerateBelow || p.ModerateBelow > p.ModerateAbove || p.ModerateAbove > p.ExtremeAbove {
		return fmt.Errorf("thresholds must satisfy extreme_below <= moderate_below <= moderate_above <= extreme_above")
	}
	return nil
}

// Policies is the pair of policies in use.
type Policies struct {
	Detail Policy `yaml:"detail"`
	List   Policy `yaml:"list"`
}

func Defaults() Policies {
	return Policies{Detail: DetailPolicy, List: ListPolicy}
}

// Load reads policy overrides from a YAML file. Keys absent from the file
// keep their defaults. An empty path returns the defaults.
func Load(path string) (Policies, error) {
	p := Defaults()
	if path == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Policies{}, fmt.Errorf("read status policy %s: %w", path, err)
	}
	return parse(b, p)
}

func parse(b []byte, base Policies) (Policies, error) {
	if err := yaml.Unmarshal(b, &base); err != nil {
		return Policies{}, fmt.Errorf("parse status policy: %w", err)
	}
	if err := base.Detail.validate(); err != nil {
		return Policies{}, fmt.Errorf("detail policy: %w", err)
	}
	if err := base.List.validate(); err != nil {
		return Policies{}, fmt.Errorf("list policy: %w", err)
	}
	return base, nil
}
