// Package config loads the search algorithm settings from YAML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid")

const (
	InsertionBest   = "best"
	InsertionRegret = "regret"

	RuinRandom = "random"
	RuinRadial = "radial"
)

type Ruin struct {
	Kind     string  `yaml:"kind"`
	Fraction float64 `yaml:"fraction"`
	Weight   float64 `yaml:"weight"`
	// TimeWeight applies to radial ruins: how much time-window overlap counts
	// against distance when ranking neighbours.
	TimeWeight float64 `yaml:"timeWeight"`
}

type Acceptance struct {
	InitialTemp float64 `yaml:"initialTemp"`
	Cooling     float64 `yaml:"cooling"`
}

// Algorithm describes one search configuration. A zero Seed means a seed is
// derived from the clock at run time.
type Algorithm struct {
	Iterations      int           `yaml:"iterations"`
	TimeBudget      time.Duration `yaml:"timeBudget"`
	Seed            int64         `yaml:"seed"`
	OpenAllVehicles bool          `yaml:"openAllVehicles"`
	Insertion       string        `yaml:"insertion"`
	LocalSearch     bool          `yaml:"localSearch"`
	Ruins           []Ruin        `yaml:"ruins"`
	Acceptance      Acceptance    `yaml:"acceptance"`
	LogLevel        string        `yaml:"logLevel"`
}

func Default() Algorithm {
	return Algorithm{
		Iterations: 2000,
		Insertion:  InsertionBest,
		Ruins: []Ruin{
			{Kind: RuinRandom, Fraction: 0.3, Weight: 1},
			{Kind: RuinRadial, Fraction: 0.3, Weight: 1},
		},
		Acceptance: Acceptance{InitialTemp: 1, Cooling: 0.995},
		LogLevel:   "info",
	}
}

// Load reads path on top of Default. Keys absent from the file keep their
// default values.
func Load(path string) (Algorithm, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from VRP_ITERATIONS, VRP_SEED, VRP_TIME_BUDGET and
// VRP_LOG_LEVEL when set.
func (a *Algorithm) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv("VRP_ITERATIONS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VRP_ITERATIONS: %w", err)
		}
		a.Iterations = n
	}
	if v := strings.TrimSpace(os.Getenv("VRP_SEED")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("VRP_SEED: %w", err)
		}
		a.Seed = n
	}
	if v := strings.TrimSpace(os.Getenv("VRP_TIME_BUDGET")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("VRP_TIME_BUDGET: %w", err)
		}
		a.TimeBudget = d
	}
	if v := strings.TrimSpace(os.Getenv("VRP_LOG_LEVEL")); v != "" {
		a.LogLevel = v
	}
	return nil
}

func (a Algorithm) Validate() error {
	if a.Iterations <= 0 && a.TimeBudget <= 0 {
		return fmt.Errorf("%w: iterations or timeBudget must be positive", ErrInvalid)
	}
	if a.Insertion != InsertionBest && a.Insertion != InsertionRegret {
		return fmt.Errorf("%w: unknown insertion %q", ErrInvalid, a.Insertion)
	}
	if len(a.Ruins) == 0 {
		return fmt.Errorf("%w: no ruin strategies", ErrInvalid)
	}
	for i, r := range a.Ruins {
		if r.Kind != RuinRandom && r.Kind != RuinRadial {
			return fmt.Errorf("%w: ruins[%d]: unknown kind %q", ErrInvalid, i, r.Kind)
		}
		if r.Fraction <= 0 || r.Fraction > 1 {
			return fmt.Errorf("%w: ruins[%d]: fraction %v outside (0,1]", ErrInvalid, i, r.Fraction)
		}
		if r.TimeWeight < 0 {
			return fmt.Errorf("%w: ruins[%d]: negative timeWeight", ErrInvalid, i)
		}
		if r.Weight < 0 {
			return fmt.Errorf("%w: ruins[%d]: negative weight", ErrInvalid, i)
		}
	}
	if c := a.Acceptance.Cooling; c < 0 || c >= 1 {
		return fmt.Errorf("%w: cooling %v outside [0,1)", ErrInvalid, c)
	}
	if _, err := a.Level(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Level parses LogLevel; empty means info.
func (a Algorithm) Level() (log.Level, error) {
	if a.LogLevel == "" {
		return log.InfoLevel, nil
	}
	return log.ParseLevel(a.LogLevel)
}
