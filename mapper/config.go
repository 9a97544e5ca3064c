// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package mapper

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ArtificialLinkMode is the sentinel mode tag on links created by the
// mapper. The finalizer guarantees it never survives into the output.
const ArtificialLinkMode = "artificial"

// Travel cost policies
const (
	TravelCostLinkLength = "linkLength"
	TravelCostTravelTime = "travelTime"
)

// Config holds all mapper options
type Config struct {
	// schedule transport mode -> network modes that may be routed on
	ModeRoutingAssignment map[string][]string `yaml:"modeRoutingAssignment" validate:"required,min=1"`

	MaxLinkCandidateDistance float64 `yaml:"maxLinkCandidateDistance" validate:"gt=0"`
	MaxNClosestLinks         int     `yaml:"maxNClosestLinks" validate:"gt=0"`
	NLinkThreshold           int     `yaml:"nLinkThreshold" validate:"gte=0"`
	CandidateCanBeLoopLink   bool    `yaml:"candidateCanBeLoopLink"`

	TravelCostType string `yaml:"travelCostType" validate:"oneof=linkLength travelTime"`

	UseArtificialLinks       bool    `yaml:"useArtificialLinks"`
	BeelineDistanceMaxFactor float64 `yaml:"beelineDistanceMaxFactor" validate:"gte=1"`

	RoutingWithCandidateDistance bool    `yaml:"routingWithCandidateDistance"`
	DistanceCostFactor           float64 `yaml:"distanceCostFactor" validate:"gte=0"`

	ShapeTolerance  float64 `yaml:"shapeTolerance" validate:"gte=0"`
	ShapeMaxPenalty float64 `yaml:"shapeMaxPenalty" validate:"gte=1"`

	ScheduleFreespeedModes []string `yaml:"scheduleFreespeedModes"`

	RemoveNotUsedStopFacilities bool `yaml:"removeNotUsedStopFacilities"`
	PruneOrphanNetwork          bool `yaml:"pruneOrphanNetwork"`

	NThreads int `yaml:"nThreads" validate:"gte=0"`

	// per-route wall clock budget in seconds, 0 means unlimited
	MaxRouteTime float64 `yaml:"maxRouteTime" validate:"gte=0"`
}

// DefaultConfig returns a config with all defaults set. The mode routing
// assignment has no sensible default and must be filled in.
func DefaultConfig() *Config {
	return &Config{
		ModeRoutingAssignment:        map[string][]string{},
		MaxLinkCandidateDistance:     500.0,
		MaxNClosestLinks:             16,
		NLinkThreshold:               2,
		CandidateCanBeLoopLink:       false,
		TravelCostType:               TravelCostLinkLength,
		UseArtificialLinks:           true,
		BeelineDistanceMaxFactor:     5.0,
		RoutingWithCandidateDistance: true,
		DistanceCostFactor:           1.0,
		ShapeTolerance:               50.0,
		ShapeMaxPenalty:              99.0,
		ScheduleFreespeedModes:       []string{"rail", "light_rail"},
		RemoveNotUsedStopFacilities:  true,
		PruneOrphanNetwork:           false,
		NThreads:                     0,
	}
}

// Validate checks the config for errors that would abort the batch
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}
	for mode, netModes := range c.ModeRoutingAssignment {
		if len(netModes) == 0 {
			return fmt.Errorf("empty network mode set assigned to schedule mode %s", mode)
		}
	}
	return nil
}

// NetworkModes returns the set of network modes assigned to a schedule
// mode, or nil if the mode has no assignment
func (c *Config) NetworkModes(scheduleMode string) map[string]bool {
	netModes, ok := c.ModeRoutingAssignment[scheduleMode]
	if !ok {
		return nil
	}
	ret := make(map[string]bool, len(netModes))
	for _, m := range netModes {
		ret[m] = true
	}
	return ret
}

func (c *Config) freespeedModes() map[string]bool {
	ret := make(map[string]bool, len(c.ScheduleFreespeedModes))
	for _, m := range c.ScheduleFreespeedModes {
		ret[m] = true
	}
	return ret
}

// LoadConfig reads a YAML config file, fills in defaults for absent keys
// and validates the result
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteDefaultConfig writes the default config as a YAML file, with a
// placeholder mode assignment to fill in
func WriteDefaultConfig(path string) error {
	cfg := DefaultConfig()
	cfg.ModeRoutingAssignment = map[string][]string{
		"bus":  {"car", "bus"},
		"rail": {"rail"},
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
