// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lis3mdl controls an ST LIS3MDL three axis magnetometer over
// I²C.
//
// The driver exposes the device's output data rate, full scale range,
// power mode and operating mode as typed settings applied through masked
// read-modify-write of the control registers, and scales raw axis counts
// into field strength using the per range sensitivity from the
// datasheet. The internal temperature sensor is supported as well.
//
// The lis3mdl.Dev type implements conn.Resource. Measurements can be
// read one at a time with Sense or streamed with SenseContinuous.
//
// Datasheet
//
//	https://www.st.com/resource/en/datasheet/lis3mdl.pdf
package lis3mdl
