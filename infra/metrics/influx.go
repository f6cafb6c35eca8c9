package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/bessopt/core/metrics"
	"github.com/kilianp07/bessopt/infra/logger"
)

// InfluxSink writes optimization events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client resources.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordRun writes one dispatch_run point.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch_run").
		AddTag("run_id", ev.RunID).
		AddTag("method", ev.Method).
		AddTag("success", strconv.FormatBool(ev.Success)).
		AddField("steps", ev.Steps).
		AddField("revenue", round3(ev.Revenue)).
		AddField("final_soc", round3(ev.FinalSoC)).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSizing writes one sizing_result point.
func (s *InfluxSink) RecordSizing(ev coremetrics.SizingEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("sizing_result").
		AddTag("run_id", ev.RunID).
		AddField("evaluated", ev.Evaluated).
		AddField("rejected", ev.Rejected).
		AddField("feasible", ev.Feasible).
		AddField("power_kw", round3(ev.PowerKW)).
		AddField("capacity_kwh", round3(ev.CapacityKWh)).
		AddField("roi_percent", round3(ev.ROIPercent)).
		AddField("payback_years", round3(ev.PaybackYears)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDecision writes one arbitrage_decision point.
func (s *InfluxSink) RecordDecision(ev coremetrics.DecisionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("arbitrage_decision").
		AddTag("run_id", ev.RunID).
		AddTag("kind", ev.Kind).
		AddTag("market", ev.Market).
		AddField("power_kw", round3(ev.PowerKW)).
		AddField("spread", round3(ev.Spread)).
		AddField("expected_revenue", round3(ev.ExpectedRevenue)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
