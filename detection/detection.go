// go-etb
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-etb.
//
// go-etb is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-etb is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-etb; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package detection finds serial ports that may have ETB test boards attached
package detection

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// Detection errors
var (
	ErrNoDevicesFound      = errors.New("no devices found")
	ErrDetectionTimeout    = errors.New("detection timed out")
	ErrUnsupportedPlatform = errors.New("detection not supported on this platform")
)

// Mode selects how much a detector may touch candidate ports
type Mode int

const (
	// Passive only enumerates ports
	Passive Mode = iota
	// Probe opens each candidate and sends a version request
	Probe
)

// Confidence rates how likely a port has a board attached
type Confidence int

const (
	Low Confidence = iota
	Medium
	High
)

// String returns the confidence name
func (c Confidence) String() string {
	switch c {
	case High:
		return "high"
	case Medium:
		return "medium"
	default:
		return "low"
	}
}

// MarshalText renders the confidence by name
func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Options configures detection
type Options struct {
	// Blocklist holds VID:PID pairs that are never probed
	Blocklist []string
	// IgnorePaths lists device paths to skip entirely
	IgnorePaths []string
	// Timeout bounds the whole detection run
	Timeout time.Duration
	// Mode selects passive enumeration or active probing
	Mode Mode
	// Board is the board id used for probing
	Board byte
}

// DefaultOptions returns passive detection with the default blocklist
func DefaultOptions() *Options {
	return &Options{
		Mode:      Passive,
		Timeout:   10 * time.Second,
		Blocklist: DefaultBlocklist(),
		Board:     '1',
	}
}

// DeviceInfo describes a detected port
type DeviceInfo struct {
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Transport  string            `json:"transport" yaml:"transport"`
	Path       string            `json:"path" yaml:"path"`
	Name       string            `json:"name" yaml:"name"`
	Confidence Confidence        `json:"confidence" yaml:"confidence"`
}

// Detector finds devices on one kind of transport
type Detector interface {
	Transport() string
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
}

var (
	detectors   []Detector
	detectorsMu sync.RWMutex
)

// RegisterDetector adds a detector. Detector packages call it from init.
func RegisterDetector(d Detector) {
	detectorsMu.Lock()
	defer detectorsMu.Unlock()
	detectors = append(detectors, d)
}

// DetectAll runs every registered detector and returns the devices sorted
// by confidence, best first
func DetectAll(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	detectorsMu.RLock()
	list := append([]Detector(nil), detectors...)
	detectorsMu.RUnlock()

	var (
		devices []DeviceInfo
		errs    []error
	)
	for _, d := range list {
		found, err := d.Detect(ctx, opts)
		if err != nil {
			if !errors.Is(err, ErrNoDevicesFound) && !errors.Is(err, ErrUnsupportedPlatform) {
				errs = append(errs, err)
			}
			continue
		}
		devices = append(devices, found...)
	}

	if len(devices) == 0 {
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return nil, ErrNoDevicesFound
	}

	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].Confidence > devices[j].Confidence
	})
	return devices, nil
}
