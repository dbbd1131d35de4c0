// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

// Package telemetry ingests link-quality measurements from aircraft and
// serves their aggregates.
package telemetry

// PacketTime carries the measurement reference time
type PacketTime struct {
	Unix float64 `json:"unix" validate:"required"`
}

// Location is a geodetic aircraft position
type Location struct {
	Lat  *float64 `json:"lat" validate:"required"`
	Lon  *float64 `json:"lon" validate:"required"`
	Alt  *float64 `json:"alt,omitempty"`
	Baro *float64 `json:"baro,omitempty"`
}

// Attitude is the aircraft orientation
type Attitude struct {
	Roll    *int     `json:"roll,omitempty"`
	Pitch   *int     `json:"pitch,omitempty"`
	Yaw     *int     `json:"yaw,omitempty"`
	Heading *float64 `json:"heading,omitempty"`
}

// Speeds is the aircraft velocity vector
type Speeds struct {
	VNorth *float64 `json:"vnorth,omitempty"`
	VEast  *float64 `json:"veast,omitempty"`
	VDown  *float64 `json:"vdown,omitempty"`
	VAir   *float64 `json:"vair,omitempty"`
}

// Position groups location, attitude and speeds
type Position struct {
	Location *Location `json:"location" validate:"required"`
	Attitude *Attitude `json:"attitude,omitempty"`
	Speeds   *Speeds   `json:"speeds,omitempty"`
}

// Signal carries radio measurements
type Signal struct {
	Radio string  `json:"radio" validate:"required,oneof=UNKNOWN 4G 5GNSA 5GSA"`
	RSRP  *int    `json:"RSRP,omitempty"`
	RSRQ  *int    `json:"RSRQ,omitempty"`
	RSSI  *int    `json:"RSSI,omitempty"`
	SINR  *int    `json:"SINR,omitempty"`
	Cell  *string `json:"cell,omitempty"`
	Band  *string `json:"band,omitempty"`
}

// Perf carries link performance measurements
type Perf struct {
	HeartbeatLoss *bool    `json:"heartbeat_loss,omitempty"`
	RTT           *float64 `json:"RTT,omitempty"`
}

// Packet is one flight-vehicle connectivity measurement sample
type Packet struct {
	Timestamp *PacketTime `json:"timestamp" validate:"required"`
	Position  *Position   `json:"position,omitempty"`
	Signal    *Signal     `json:"signal,omitempty"`
	Perf      *Perf       `json:"perf,omitempty"`
}
