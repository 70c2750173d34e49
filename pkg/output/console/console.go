// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package console

import (
	"fmt"
	"time"

	"github.com/sensorkit/lis3mdl/pkg/output"
)

type ConsoleOutput struct{}

func NewConsole() output.Output { return &ConsoleOutput{} }

func (c *ConsoleOutput) Publish(r output.Reading) error {
	line := fmt.Sprintf("%s x=%.3fµT y=%.3fµT z=%.3fµT heading=%.2f°",
		r.Timestamp.Format(time.RFC3339), r.X, r.Y, r.Z, r.Heading)
	if r.TempC != nil {
		line += fmt.Sprintf(" temp=%.2f°C", *r.TempC)
	}
	fmt.Println(line)
	return nil
}

func (c *ConsoleOutput) Close() error { return nil }
