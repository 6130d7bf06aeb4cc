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

// Package uart detects serial ports that may have ETB boards attached
package uart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial/enumerator"

	etb "github.com/ZaparooProject/go-etb"
	"github.com/ZaparooProject/go-etb/detection"
	uarttransport "github.com/ZaparooProject/go-etb/transport/uart"
)

// probeTimeout bounds a single version request during probing
const probeTimeout = 500 * time.Millisecond

type detector struct {
	list  func() ([]*enumerator.PortDetails, error)
	probe func(ctx context.Context, path string, board byte) (string, error)
	isTTY func(path string) bool
}

// New creates a serial port detector
func New() detection.Detector {
	return &detector{
		list:  enumerator.GetDetailedPortsList,
		probe: probeVersion,
		isTTY: isTTY,
	}
}

func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "uart"
}

// Detect enumerates serial ports. In probe mode each candidate that is not
// blocklisted receives a version request and boards that answer are rated high.
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	if opts == nil {
		opts = detection.DefaultOptions()
	}

	ports, err := d.list()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}

	devices := make([]detection.DeviceInfo, 0, len(ports))
	for _, port := range ports {
		if err := ctx.Err(); err != nil {
			if len(devices) > 0 {
				break
			}
			return nil, detection.ErrDetectionTimeout
		}
		if port == nil || detection.IsPathIgnored(port.Name, opts.IgnorePaths) {
			continue
		}
		if !d.isTTY(port.Name) {
			continue
		}

		info := describe(port)
		vidpid := info.Metadata["vidpid"]
		if vidpid != "" && detection.IsBlocked(vidpid, opts.Blocklist) {
			continue
		}

		if opts.Mode == detection.Probe {
			version, probeErr := d.probe(ctx, port.Name, opts.Board)
			if probeErr != nil {
				info.Metadata["probe_error"] = probeErr.Error()
			} else {
				info.Confidence = detection.High
				info.Metadata["version"] = version
			}
		}
		devices = append(devices, info)
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

func describe(port *enumerator.PortDetails) detection.DeviceInfo {
	info := detection.DeviceInfo{
		Transport:  "uart",
		Path:       port.Name,
		Name:       port.Name,
		Confidence: detection.Low,
		Metadata:   map[string]string{},
	}
	if !port.IsUSB {
		return info
	}

	info.Confidence = detection.Medium
	if port.VID != "" && port.PID != "" {
		info.Metadata["vidpid"] = strings.ToUpper(port.VID + ":" + port.PID)
	}
	if port.SerialNumber != "" {
		info.Metadata["serial"] = port.SerialNumber
	}
	if port.Product != "" {
		info.Name = port.Product
		info.Metadata["product"] = port.Product
	} else if bridge := detection.BridgeName(info.Metadata["vidpid"]); bridge != "" {
		info.Name = bridge
	}
	return info
}

func probeVersion(ctx context.Context, path string, board byte) (string, error) {
	transport, err := uarttransport.New(path, uarttransport.WithReadTimeout(probeTimeout))
	if err != nil {
		return "", err
	}

	client, err := etb.New(transport, etb.WithTimeout(probeTimeout))
	if err != nil {
		_ = transport.Close()
		return "", err
	}
	defer func() { _ = client.Close() }()

	return client.Board(board).Version(ctx)
}
