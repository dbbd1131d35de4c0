// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package telemetry

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxapi "github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/flyvercity/iot-ngin-c2ng/config"
	"github.com/flyvercity/iot-ngin-c2ng/internal/logger"
	"github.com/flyvercity/iot-ngin-c2ng/internal/metrics"
)

const (
	// MeasurementName tags every signal point in the bucket
	MeasurementName = "cell-signal"

	// EstimationWindowMinutes bounds the range of aggregate reads
	EstimationWindowMinutes = 30
)

// Store defines how the service writes and reads signal telemetry
type Store interface {
	// WriteSignal appends one measurement sample tagged by UasID
	WriteSignal(ctx context.Context, uasid string, packet *Packet) error

	// Read returns raw samples of one field over a recent window
	Read(ctx context.Context, uasid string, field string, windowMinutes int) ([]float64, error)

	// ReadMean returns the mean of one field over a recent window;
	// (nil, nil) when no samples exist
	ReadMean(ctx context.Context, uasid string, field string, windowMinutes int) (*float64, error)

	// Ping verifies the backing store is reachable
	Ping(ctx context.Context) error
}

// InfluxStore implements Store over an InfluxDB bucket
type InfluxStore struct {
	client influxdb2.Client
	write  influxapi.WriteAPIBlocking
	query  influxapi.QueryAPI
	bucket string
}

// NewInfluxStore connects to InfluxDB using the admin token from the
// environment
func NewInfluxStore(cfg *config.InfluxConfig, token string) *InfluxStore {
	logger.Info("Connecting to InfluxDB", logger.String("uri", cfg.URI))

	client := influxdb2.NewClient(cfg.URI, token)

	return &InfluxStore{
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		query:  client.QueryAPI(cfg.Org),
		bucket: cfg.Bucket,
	}
}

// WriteSignal converts a packet into one tagged point and writes it
// synchronously. Absent fields are dropped.
func (s *InfluxStore) WriteSignal(ctx context.Context, uasid string, packet *Packet) error {
	point := write.NewPointWithMeasurement(MeasurementName).
		AddTag("uasid", uasid).
		SetTime(time.Now())

	if signal := packet.Signal; signal != nil {
		point.AddTag("radio", signal.Radio)
		addStringTag(point, "cell", signal.Cell)
		addStringTag(point, "band", signal.Band)
		addIntField(point, "RSRP", signal.RSRP)
		addIntField(point, "RSRQ", signal.RSRQ)
		addIntField(point, "RSSI", signal.RSSI)
		addIntField(point, "SINR", signal.SINR)
	}

	if position := packet.Position; position != nil {
		if location := position.Location; location != nil {
			addFloatField(point, "latitude", location.Lat)
			addFloatField(point, "longitude", location.Lon)
			addFloatField(point, "altitude", location.Alt)
			addFloatField(point, "baro", location.Baro)
		}

		if attitude := position.Attitude; attitude != nil {
			addIntField(point, "roll", attitude.Roll)
			addIntField(point, "pitch", attitude.Pitch)
			addIntField(point, "yaw", attitude.Yaw)
			addFloatField(point, "heading", attitude.Heading)
		}

		if speeds := position.Speeds; speeds != nil {
			addFloatField(point, "vnorth", speeds.VNorth)
			addFloatField(point, "veast", speeds.VEast)
			addFloatField(point, "vdown", speeds.VDown)
			addFloatField(point, "vair", speeds.VAir)
		}
	}

	if perf := packet.Perf; perf != nil {
		if perf.HeartbeatLoss != nil {
			point.AddField("heartbeat_loss", *perf.HeartbeatLoss)
		}
		addFloatField(point, "RTT", perf.RTT)
	}

	if err := s.write.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}

	metrics.SignalPointsWritten.Inc()
	return nil
}

// Read returns the raw samples of one field over the window
func (s *InfluxStore) Read(ctx context.Context, uasid string, field string, windowMinutes int) ([]float64, error) {
	flux := fmt.Sprintf(`
		from(bucket: %q)
			|> range(start: -%dm)
			|> filter(fn: (r) => r._measurement == %q)
			|> filter(fn: (r) => r.uasid == %q)
			|> filter(fn: (r) => r._field == %q)
	`, s.bucket, windowMinutes, MeasurementName, uasid, field)

	return s.queryValues(ctx, flux)
}

// ReadMean returns the mean of one field over the window
func (s *InfluxStore) ReadMean(ctx context.Context, uasid string, field string, windowMinutes int) (*float64, error) {
	flux := fmt.Sprintf(`
		from(bucket: %q)
			|> range(start: -%dm)
			|> filter(fn: (r) => r._measurement == %q)
			|> filter(fn: (r) => r.uasid == %q)
			|> filter(fn: (r) => r._field == %q)
			|> mean()
	`, s.bucket, windowMinutes, MeasurementName, uasid, field)

	values, err := s.queryValues(ctx, flux)
	if err != nil {
		return nil, err
	}

	if len(values) == 0 {
		return nil, nil
	}

	return &values[0], nil
}

func (s *InfluxStore) queryValues(ctx context.Context, flux string) ([]float64, error) {
	logger.Debug("Querying InfluxDB", logger.String("flux", flux))

	result, err := s.query.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("influx query: %w", err)
	}

	var values []float64

	for result.Next() {
		switch value := result.Record().Value().(type) {
		case float64:
			values = append(values, value)
		case int64:
			values = append(values, float64(value))
		}
	}

	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("influx result: %w", err)
	}

	return values, nil
}

// Ping verifies the InfluxDB deployment is reachable
func (s *InfluxStore) Ping(ctx context.Context) error {
	ok, err := s.client.Ping(ctx)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("influx not ready")
	}

	return nil
}

// Close shuts down the underlying client
func (s *InfluxStore) Close() {
	s.client.Close()
}

func addIntField(point *write.Point, name string, value *int) {
	if value != nil {
		point.AddField(name, *value)
	}
}

func addFloatField(point *write.Point, name string, value *float64) {
	if value != nil {
		point.AddField(name, *value)
	}
}

func addStringTag(point *write.Point, name string, value *string) {
	if value != nil {
		point.AddTag(name, *value)
	}
}
