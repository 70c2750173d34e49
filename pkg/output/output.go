// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package output defines where lis3mdl-export publishes its readings.
package output

import (
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/sensorkit/lis3mdl"
)

// Reading is a single published measurement. Field strengths are in
// microtesla, the heading in degrees.
type Reading struct {
	X         float64   `json:"x_ut"`
	Y         float64   `json:"y_ut"`
	Z         float64   `json:"z_ut"`
	RawX      int16     `json:"raw_x"`
	RawY      int16     `json:"raw_y"`
	RawZ      int16     `json:"raw_z"`
	Heading   float64   `json:"heading_deg"`
	TempC     *float64  `json:"temperature_c,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// FromSample converts a driver sample into a publishable reading.
func FromSample(s lis3mdl.Sample, now time.Time) Reading {
	return Reading{
		X:         float64(s.X) / float64(lis3mdl.MicroTesla),
		Y:         float64(s.Y) / float64(lis3mdl.MicroTesla),
		Z:         float64(s.Z) / float64(lis3mdl.MicroTesla),
		RawX:      s.RawX,
		RawY:      s.RawY,
		RawZ:      s.RawZ,
		Heading:   float64(s.Heading()) / float64(physic.Degree),
		Timestamp: now,
	}
}

type Output interface {
	Publish(Reading) error
	Close() error
}
